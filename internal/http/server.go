package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"findash/internal/amqp"
	"findash/internal/dashboard"
	"findash/internal/log"
	"findash/internal/observability"
	"findash/internal/sources"
	"findash/internal/storage"
	appweb "findash/web"
)

// ScanPublisher queues scan requests for the worker.
type ScanPublisher interface {
	PublishScanRequest(ctx context.Context, msg *amqp.ScanRequestMessage) error
}

// ScanRunLister reads recorded scan runs.
type ScanRunLister interface {
	ListScanRuns(ctx context.Context, limit int) ([]storage.ScanRun, error)
}

// Pinger is a dependency checked by /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	http.Server
	templates *template.Template

	source    sources.Source
	assembler *dashboard.Assembler
	publisher ScanPublisher
	runs      ScanRunLister
	readiness []Pinger

	logger      *log.Logger
	metrics     *observability.Metrics
	location    *time.Location
	now         func() time.Time
	scanTimeout time.Duration

	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

type Option func(*Server)

// WithPublisher enables POST /api/scans.
func WithPublisher(p ScanPublisher) Option {
	return func(s *Server) { s.publisher = p }
}

// WithScanRuns enables GET /api/scans.
func WithScanRuns(l ScanRunLister) Option {
	return func(s *Server) { s.runs = l }
}

// WithReadiness adds a dependency to the readiness check.
func WithReadiness(p Pinger) Option {
	return func(s *Server) { s.readiness = append(s.readiness, p) }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithLocation sets the zone today is computed in.
func WithLocation(loc *time.Location) Option {
	return func(s *Server) { s.location = loc }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithScanTimeout bounds loading and scanning documents for one request.
func WithScanTimeout(d time.Duration) Option {
	return func(s *Server) { s.scanTimeout = d }
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, source sources.Source, assembler *dashboard.Assembler, opts ...Option) *Server {
	s := &Server{
		source:      source,
		assembler:   assembler,
		logger:      log.Discard(),
		location:    time.Local,
		now:         time.Now,
		scanTimeout: 30 * time.Second,
		rateLimiter: newRateLimiter(),
	}
	for _, opt := range opts {
		opt(s)
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(log.Middleware(s.logger))
	r.Use(securityHeaders)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.Get("/static/*", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		})
	} else {
		s.logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	r.Get("/", s.handleIndex)
	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	if s.metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/scans", s.handleListScans)
		r.With(s.rateLimit).Post("/scans", s.handleCreateScan)
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown stops background routines and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
