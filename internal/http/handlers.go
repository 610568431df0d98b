package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"findash/internal/amqp"
	"findash/internal/core"
	"findash/internal/dashboard"
	"findash/internal/log"
)

const (
	defaultScanRunsLimit = 20
	maxScanRunsLimit     = 100
)

type filterOption struct {
	Value    string
	Label    string
	Selected bool
}

var filterLabels = []struct {
	filter core.TimeFilter
	label  string
}{
	{core.Today, "Today"},
	{core.ThisMonth, "This Month"},
	{core.AllTime, "All Time"},
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	for _, p := range s.readiness {
		if err := p.Ping(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(ctx, "Readiness check failed", "error", err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// view rescans the source and builds the view; nothing is cached.
func (s *Server) view(ctx context.Context, filter core.TimeFilter, today core.Date) (dashboard.View, dashboard.ScanReport, error) {
	if s.scanTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.scanTimeout)
		defer cancel()
	}
	docs, err := s.source.Documents(ctx)
	if err != nil {
		return dashboard.View{}, dashboard.ScanReport{}, fmt.Errorf("load documents: %w", err)
	}
	d, err := s.assembler.Scan(ctx, docs)
	if err != nil {
		return dashboard.View{}, dashboard.ScanReport{}, err
	}
	v := d.View(filter, today)
	log.FromContext(ctx).DebugContext(ctx, "View computed",
		log.FieldOperation, log.OpAggregate,
		log.FieldFilter, v.Filter,
		log.FieldToday, v.Today,
		log.FieldTotal, v.Total)
	return v, d.Report(), nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())
	if s.templates == nil {
		logger.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	filter, err := parseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		// The page falls back to the default filter instead of failing.
		logger.WarnContext(r.Context(), "Invalid filter parameter", "error", err)
		filter = core.Today
	}
	today, err := s.parseToday(r.URL.Query().Get("date"))
	if err != nil {
		logger.WarnContext(r.Context(), "Invalid date parameter", "error", err)
		today = core.DateOf(s.now().In(s.location))
	}

	v, report, err := s.view(r.Context(), filter, today)
	if err != nil {
		logger.ErrorContext(r.Context(), "Dashboard scan failed", log.FieldError, err)
		http.Error(w, "could not read documents", http.StatusInternalServerError)
		return
	}

	options := make([]filterOption, len(filterLabels))
	for i, fl := range filterLabels {
		options[i] = filterOption{Value: fl.filter.String(), Label: fl.label, Selected: fl.filter == filter}
	}
	data := struct {
		View    dashboard.View
		Report  dashboard.ScanReport
		Filters []filterOption
	}{View: v, Report: report, Filters: options}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		logger.ErrorContext(r.Context(), "Dashboard template execution failed",
			log.FieldOperation, log.OpRender, log.FieldError, err, "template", "dashboard.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	today, err := s.parseToday(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	v, _, err := s.view(r.Context(), filter, today)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Dashboard scan failed", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "could not read documents")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type scanRequestBody struct {
	Filter string `json:"filter"`
}

func (s *Server) handleCreateScan(w http.ResponseWriter, r *http.Request) {
	if s.publisher == nil {
		s.metrics.RecordPublish("unavailable")
		writeError(w, http.StatusServiceUnavailable, "scan requests are not configured")
		return
	}

	raw := r.URL.Query().Get("filter")
	if r.Body != nil && strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body scanRequestBody
		if err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if body.Filter != "" {
			raw = body.Filter
		}
	}
	filter, err := parseFilter(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg := amqp.NewScanRequestMessage(filter.String())
	if err := s.publisher.PublishScanRequest(r.Context(), msg); err != nil {
		s.metrics.RecordPublish("error")
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Publish scan request failed",
			log.FieldError, err, log.FieldRequestID, msg.RequestID)
		writeError(w, http.StatusServiceUnavailable, "could not queue scan request")
		return
	}

	s.metrics.RecordPublish("accepted")
	writeJSON(w, http.StatusAccepted, map[string]string{
		"requestId": msg.RequestID,
		"filter":    msg.Filter,
	})
}

type scanRunResponse struct {
	ID                string    `json:"id"`
	RequestID         string    `json:"requestId"`
	Source            string    `json:"source"`
	Filter            string    `json:"filter"`
	Today             string    `json:"today"`
	StartedAt         time.Time `json:"startedAt"`
	FinishedAt        time.Time `json:"finishedAt"`
	Documents         int       `json:"documents"`
	Matches           int       `json:"matches"`
	Transactions      int       `json:"transactions"`
	CategoryFallbacks int       `json:"categoryFallbacks"`
	Faults            int       `json:"faults"`
	Total             string    `json:"total"`
}

func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeError(w, http.StatusServiceUnavailable, "scan history is not configured")
		return
	}

	limit := defaultScanRunsLimit
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxScanRunsLimit {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("limit must be between 1 and %d", maxScanRunsLimit))
			return
		}
		limit = n
	}

	runs, err := s.runs.ListScanRuns(r.Context(), limit)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "List scan runs failed", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "could not list scan runs")
		return
	}

	out := make([]scanRunResponse, len(runs))
	for i, run := range runs {
		out[i] = scanRunResponse{
			ID:                run.ID,
			RequestID:         run.RequestID,
			Source:            run.Source,
			Filter:            run.Filter,
			Today:             run.Today.String(),
			StartedAt:         run.StartedAt,
			FinishedAt:        run.FinishedAt,
			Documents:         run.Documents,
			Matches:           run.Matches,
			Transactions:      run.Transactions,
			CategoryFallbacks: run.CategoryFallbacks,
			Faults:            run.Faults,
			Total:             run.Total.StringFixed(2),
		}
	}
	writeJSON(w, http.StatusOK, out)
}
