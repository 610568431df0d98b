package worker

import (
	"context"
	"fmt"
	"time"

	"findash/internal/amqp"
	"findash/internal/core"
	"findash/internal/dashboard"
	"findash/internal/log"
	"findash/internal/observability"
	"findash/internal/sources"
	"findash/internal/storage"
)

// RunRecorder persists scan bookkeeping.
type RunRecorder interface {
	RecordScanRun(ctx context.Context, run storage.ScanRun) (string, error)
}

// ScanWorker serves scan requests: it rescans the configured source,
// aggregates for the requested filter and records the outcome.
type ScanWorker struct {
	source     sources.Source
	sourceName string
	assembler  *dashboard.Assembler
	runs       RunRecorder
	logger     *log.Logger
	metrics    *observability.Metrics
	location   *time.Location
	timeout    time.Duration
	now        func() time.Time
}

type Option func(*ScanWorker)

// WithLocation sets the zone used to compute today. Default time.Local.
func WithLocation(loc *time.Location) Option {
	return func(w *ScanWorker) { w.location = loc }
}

// WithTimeout bounds one scan. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(w *ScanWorker) { w.timeout = d }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(w *ScanWorker) { w.metrics = m }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(w *ScanWorker) { w.now = now }
}

// NewScanWorker builds a worker. runs may be nil, in which case outcomes
// are only logged.
func NewScanWorker(source sources.Source, sourceName string, assembler *dashboard.Assembler, runs RunRecorder, logger *log.Logger, opts ...Option) *ScanWorker {
	if logger == nil {
		logger = log.Discard()
	}
	w := &ScanWorker{
		source:     source,
		sourceName: sourceName,
		assembler:  assembler,
		runs:       runs,
		logger:     logger.WithComponent(log.ComponentWorker),
		location:   time.Local,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// HandleScanRequest processes a single scan request from AMQP. An unknown
// filter is permanent; source and storage failures are retried.
func (w *ScanWorker) HandleScanRequest(ctx context.Context, msg *amqp.ScanRequestMessage) (err error) {
	defer func() {
		if err != nil {
			w.metrics.RecordScanRequest("error")
		} else {
			w.metrics.RecordScanRequest("ok")
		}
	}()

	filter, err := core.ParseTimeFilter(msg.Filter)
	if err != nil {
		return fmt.Errorf("%w: %w", amqp.ErrPermanent, err)
	}

	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	started := w.now()
	today := core.DateOf(started.In(w.location))

	w.logger.InfoContext(ctx, "Processing scan request",
		log.FieldRequestID, msg.RequestID,
		log.FieldFilter, filter.String(),
		log.FieldToday, today.String())

	docs, err := w.source.Documents(ctx)
	if err != nil {
		return fmt.Errorf("load documents: %w", err)
	}

	d, err := w.assembler.Scan(ctx, docs)
	if err != nil {
		return err
	}
	res := d.Aggregate(filter, today)
	report := d.Report()
	if res.Empty() {
		w.logger.InfoContext(ctx, "No transactions in window",
			log.FieldOperation, log.OpAggregate,
			log.FieldRequestID, msg.RequestID,
			log.FieldFilter, filter.String())
	}

	run := storage.ScanRun{
		RequestID:         msg.RequestID,
		Source:            w.sourceName,
		Filter:            filter.String(),
		Today:             today,
		StartedAt:         started,
		FinishedAt:        w.now(),
		Documents:         report.Documents,
		Matches:           report.Matches,
		Transactions:      report.Transactions,
		CategoryFallbacks: report.CategoryFallbacks,
		Faults:            report.Faults,
		Total:             res.Total,
	}

	if w.runs != nil {
		id, err := w.runs.RecordScanRun(ctx, run)
		if err != nil {
			return fmt.Errorf("record scan run: %w", err)
		}
		run.ID = id
	}

	fields := log.NewFields().
		WithOperation(log.OpRecord).
		WithScan(report.Documents, report.Matches, report.Transactions, report.CategoryFallbacks, report.Faults)
	fields[log.FieldScanID] = run.ID
	fields[log.FieldRequestID] = msg.RequestID
	fields[log.FieldTotal] = core.FormatAmount(res.Total)
	w.logger.InfoContext(ctx, "Scan request completed", fields.ToSlice()...)
	return nil
}
