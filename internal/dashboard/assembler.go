// Package dashboard wires extraction, normalization, aggregation and series
// building into the view handed to a renderer.
package dashboard

import (
	"context"
	"fmt"
	"iter"
	"time"

	"golang.org/x/sync/errgroup"

	"findash/internal/aggregate"
	"findash/internal/core"
	"findash/internal/extract"
	"findash/internal/log"
	"findash/internal/normalize"
	"findash/internal/observability"
	"findash/internal/series"
)

const DefaultWorkers = 4

// ScanReport counts what one scan saw.
type ScanReport struct {
	Documents         int `json:"documents"`
	Matches           int `json:"matches"`
	Transactions      int `json:"transactions"`
	CategoryFallbacks int `json:"categoryFallbacks"`
	Faults            int `json:"faults"`
}

func (r *ScanReport) add(o ScanReport) {
	r.Documents += o.Documents
	r.Matches += o.Matches
	r.Transactions += o.Transactions
	r.CategoryFallbacks += o.CategoryFallbacks
	r.Faults += o.Faults
}

// Assembler scans documents into a Dashboard.
type Assembler struct {
	logger  *log.Logger
	metrics *observability.Metrics
	workers int

	records   func(string) iter.Seq[core.RawMatch]
	normalize func(core.RawMatch) (normalize.Outcome, error)
}

// NewAssembler returns an assembler scanning at most workers documents at a
// time. metrics may be nil.
func NewAssembler(logger *log.Logger, metrics *observability.Metrics, workers int) *Assembler {
	if logger == nil {
		logger = log.Discard()
	}
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Assembler{
		logger:    logger.WithComponent(log.ComponentScan),
		metrics:   metrics,
		workers:   workers,
		records:   extract.Records,
		normalize: normalize.Record,
	}
}

type documentScan struct {
	transactions []core.Transaction
	report       ScanReport
}

// Scan extracts and normalizes every document. Documents are processed
// concurrently; transactions keep document order, then record order.
// A record hitting a normalization fault is dropped and counted, the rest of
// the batch goes on. The only error is context cancellation.
func (a *Assembler) Scan(ctx context.Context, docs []core.Document) (*Dashboard, error) {
	results := make([]documentScan, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, doc := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = a.scanDocument(gctx, doc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scan documents: %w", err)
	}

	d := &Dashboard{metrics: a.metrics}
	for _, r := range results {
		d.transactions = append(d.transactions, r.transactions...)
		d.report.add(r.report)
	}

	a.metrics.RecordScan(d.report.Documents, d.report.Matches, d.report.CategoryFallbacks, d.report.Faults)
	a.logger.InfoContext(ctx, "Scan finished",
		log.NewFields().WithOperation(log.OpExtract).WithScan(d.report.Documents, d.report.Matches, d.report.Transactions, d.report.CategoryFallbacks, d.report.Faults).ToSlice()...)

	return d, nil
}

func (a *Assembler) scanDocument(ctx context.Context, doc core.Document) documentScan {
	out := documentScan{report: ScanReport{Documents: 1}}
	for raw := range a.records(doc.Text) {
		out.report.Matches++
		res, err := a.normalize(raw)
		if err != nil {
			out.report.Faults++
			fields := log.NewFields().
				WithDocument(doc.Name).
				WithOperation(log.OpNormalize).
				WithError(err)
			fields[log.FieldRawDate] = raw.RawDate
			fields[log.FieldRawAmount] = raw.RawAmount
			a.logger.ErrorContext(ctx, "Record dropped: normalizer contract fault", fields.ToSlice()...)
			continue
		}
		if res.CategoryFallback {
			out.report.CategoryFallbacks++
			a.logger.DebugContext(ctx, "Unknown category filed under fallback",
				log.FieldDocument, doc.Name,
				"raw_category", raw.RawCategory,
				"record", res.Transaction.Line())
		}
		out.transactions = append(out.transactions, res.Transaction)
	}
	out.report.Transactions = len(out.transactions)
	if out.report.Matches > 0 {
		a.logger.DebugContext(ctx, "Document scanned",
			log.FieldOperation, log.OpExtract,
			log.FieldDocument, doc.Name,
			log.FieldMatches, out.report.Matches)
	}
	return out
}

// Dashboard retains the transactions of one scan and recomputes views on demand.
type Dashboard struct {
	transactions []core.Transaction
	report       ScanReport
	metrics      *observability.Metrics
}

// FromTransactions builds a dashboard around already normalized transactions.
func FromTransactions(txs []core.Transaction) *Dashboard {
	d := &Dashboard{transactions: append([]core.Transaction(nil), txs...)}
	d.report.Transactions = len(txs)
	return d
}

// Transactions returns a copy of the scanned transactions.
func (d *Dashboard) Transactions() []core.Transaction {
	return append([]core.Transaction(nil), d.transactions...)
}

func (d *Dashboard) Report() ScanReport {
	return d.report
}

// Aggregate runs a fresh aggregation for the filter.
func (d *Dashboard) Aggregate(filter core.TimeFilter, today core.Date) aggregate.Result {
	return aggregate.Run(d.transactions, filter, today)
}

// View recomputes aggregation and series for the filter. Nothing is cached
// between calls.
func (d *Dashboard) View(filter core.TimeFilter, today core.Date) View {
	start := time.Now()
	res := d.Aggregate(filter, today)
	v := NewView(res, series.Build(res))
	d.metrics.ObserveView(filter.String(), time.Since(start))
	return v
}
