package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the scan pipeline.
type Metrics struct {
	// Registry owns these metrics; the /metrics endpoint serves it.
	Registry *prometheus.Registry

	documentsScanned  prometheus.Counter
	recordsExtracted  prometheus.Counter
	categoryFallbacks prometheus.Counter
	normalizeFaults   prometheus.Counter
	viewDuration      *prometheus.HistogramVec
	scanRequests      *prometheus.CounterVec
	scanPublishes     *prometheus.CounterVec
	rateLimited       prometheus.Counter
}

// NewMetrics registers everything in a private registry so repeated calls
// (tests, multiple servers) do not collide.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		documentsScanned: factory.NewCounter(prometheus.CounterOpts{
			Name: "findash_documents_scanned_total",
			Help: "Documents scanned for transaction records.",
		}),
		recordsExtracted: factory.NewCounter(prometheus.CounterOpts{
			Name: "findash_records_extracted_total",
			Help: "Raw record matches found in documents.",
		}),
		categoryFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "findash_category_fallbacks_total",
			Help: "Records whose category was replaced by the fallback category.",
		}),
		normalizeFaults: factory.NewCounter(prometheus.CounterOpts{
			Name: "findash_normalize_faults_total",
			Help: "Records dropped because normalization hit a contract fault.",
		}),
		viewDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "findash_view_duration_seconds",
				Help:    "Time to aggregate and build series for one dashboard view.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"filter"},
		),
		scanRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "findash_scan_requests_total",
				Help: "Scan requests handled by the worker.",
			},
			[]string{"status"},
		),
		scanPublishes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "findash_scan_publishes_total",
				Help: "Scan requests published by the HTTP API.",
			},
			[]string{"status"},
		),
		rateLimited: factory.NewCounter(prometheus.CounterOpts{
			Name: "findash_http_rate_limited_total",
			Help: "Requests rejected by the per-client rate limiter.",
		}),
	}
}

// RecordScan adds the counters of one finished scan. Safe on a nil receiver.
func (m *Metrics) RecordScan(documents, matches, fallbacks, faults int) {
	if m == nil {
		return
	}
	m.documentsScanned.Add(float64(documents))
	m.recordsExtracted.Add(float64(matches))
	m.categoryFallbacks.Add(float64(fallbacks))
	m.normalizeFaults.Add(float64(faults))
}

// ObserveView records how long a view took for the given filter.
func (m *Metrics) ObserveView(filter string, d time.Duration) {
	if m == nil {
		return
	}
	m.viewDuration.WithLabelValues(filter).Observe(d.Seconds())
}

// RecordScanRequest counts a worker outcome ("ok" or "error").
func (m *Metrics) RecordScanRequest(status string) {
	if m == nil {
		return
	}
	m.scanRequests.WithLabelValues(status).Inc()
}

// RecordPublish counts an API publish outcome ("accepted", "unavailable" or "error").
func (m *Metrics) RecordPublish(status string) {
	if m == nil {
		return
	}
	m.scanPublishes.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordRateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}
