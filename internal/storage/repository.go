package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"findash/internal/core"
	"findash/internal/log"
	"findash/internal/sources"

	_ "modernc.org/sqlite"
)

var (
	_ sources.Store  = (*SQLiteRepository)(nil)
	_ sources.Writer = (*SQLiteRepository)(nil)

	// ErrNotFound aliases sources.ErrNotFound for DeleteDocument.
	ErrNotFound = sources.ErrNotFound

	// ErrMissingToday rejects a scan run without its reference date.
	ErrMissingToday = errors.New("scan run has no reference date")
)

// timeLayout is fixed width so TEXT ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ScanRun is the bookkeeping row of one scan: counters and the headline
// total, never the aggregated breakdown itself.
type ScanRun struct {
	ID                string
	RequestID         string
	Source            string
	Filter            string
	Today             core.Date
	StartedAt         time.Time
	FinishedAt        time.Time
	Documents         int
	Matches           int
	Transactions      int
	CategoryFallbacks int
	Faults            int
	Total             decimal.Decimal
}

func logger() *log.Logger {
	return log.Default().WithComponent(log.ComponentStorage)
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping implements the readiness check.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// PutDocument implements sources.Writer; an existing name is replaced.
func (r *SQLiteRepository) PutDocument(ctx context.Context, doc core.Document) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO documents (name, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		doc.Name, doc.Text, time.Now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("put document %s: %w", doc.Name, err)
	}
	logger().DebugContext(ctx, "Document stored",
		log.FieldOperation, log.OpLoad,
		log.FieldDocument, doc.Name,
		"bytes", len(doc.Text))
	return nil
}

// DeleteDocument removes a document by name.
func (r *SQLiteRepository) DeleteDocument(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete document %s: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete document %s: %w", name, ErrNotFound)
	}
	logger().DebugContext(ctx, "Document deleted", log.FieldDocument, name)
	return nil
}

// Documents implements sources.Source, ordered by name.
func (r *SQLiteRepository) Documents(ctx context.Context) ([]core.Document, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, body FROM documents ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []core.Document
	for rows.Next() {
		var d core.Document
		if err := rows.Scan(&d.Name, &d.Text); err != nil {
			return nil, fmt.Errorf("scan document row: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// RecordScanRun stores a run; an empty ID gets a fresh UUID, which is returned.
func (r *SQLiteRepository) RecordScanRun(ctx context.Context, run ScanRun) (string, error) {
	if run.Today.IsZero() {
		return "", ErrMissingToday
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO scan_runs (id, request_id, source, filter, today, started_at, finished_at,
			documents, matches, transactions, category_fallbacks, faults, total)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.RequestID, run.Source, run.Filter, run.Today.String(),
		run.StartedAt.UTC().Format(timeLayout), run.FinishedAt.UTC().Format(timeLayout),
		run.Documents, run.Matches, run.Transactions, run.CategoryFallbacks, run.Faults,
		run.Total.String())
	if err != nil {
		return "", fmt.Errorf("insert scan run: %w", err)
	}

	logger().InfoContext(ctx, "Scan run recorded",
		log.FieldOperation, log.OpRecord,
		log.FieldScanID, run.ID,
		log.FieldRequestID, run.RequestID,
		log.FieldSource, run.Source,
		log.FieldTransactions, run.Transactions,
		log.FieldFallbacks, run.CategoryFallbacks)
	return run.ID, nil
}

// ListScanRuns returns the most recent runs first.
func (r *SQLiteRepository) ListScanRuns(ctx context.Context, limit int) ([]ScanRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, request_id, source, filter, today, started_at, finished_at,
			documents, matches, transactions, category_fallbacks, faults, total
		FROM scan_runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list scan runs: %w", err)
	}
	defer rows.Close()

	var runs []ScanRun
	for rows.Next() {
		var (
			run                         ScanRun
			today, started, finished, t string
		)
		if err := rows.Scan(&run.ID, &run.RequestID, &run.Source, &run.Filter, &today, &started, &finished,
			&run.Documents, &run.Matches, &run.Transactions, &run.CategoryFallbacks, &run.Faults, &t); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		if run.Today, err = core.ParseDate(today); err != nil {
			return nil, fmt.Errorf("scan run %s today: %w", run.ID, err)
		}
		if run.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("scan run %s started_at: %w", run.ID, err)
		}
		if run.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
			return nil, fmt.Errorf("scan run %s finished_at: %w", run.ID, err)
		}
		if run.Total, err = decimal.NewFromString(t); err != nil {
			return nil, fmt.Errorf("scan run %s total: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scan runs: %w", err)
	}
	return runs, nil
}
