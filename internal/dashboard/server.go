package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/tkingovr/reqguard/api"
	"github.com/tkingovr/reqguard/internal/audit"
)

// Checker dry-runs a synthetic request through a pipeline.
type Checker interface {
	Evaluate(ctx context.Context, req api.CheckRequest) (*api.CheckResponse, error)
}

// ConfigSource renders the active configuration for display.
type ConfigSource interface {
	MarshalYAML() ([]byte, error)
}

// Server is the web dashboard HTTP server.
type Server struct {
	mux        *http.ServeMux
	logger     *slog.Logger
	auditStore audit.Store
	checker    Checker
	config     ConfigSource
	metrics    http.Handler
	addr       string
}

// Option configures a Server.
type Option func(*Server)

// WithChecker enables POST /api/v1/check.
func WithChecker(c Checker) Option {
	return func(s *Server) { s.checker = c }
}

// WithConfig enables the config page.
func WithConfig(c ConfigSource) Option {
	return func(s *Server) { s.config = c }
}

// WithMetrics serves h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// NewServer creates a new dashboard server.
func NewServer(addr string, store audit.Store, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		mux:        http.NewServeMux(),
		logger:     logger,
		auditStore: store,
		addr:       addr,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /", s.handleOverview)
	s.mux.HandleFunc("GET /audit", s.handleAudit)
	s.mux.HandleFunc("GET /audit/stream", s.handleAuditStream)
	s.mux.HandleFunc("GET /config", s.handleConfig)
	s.mux.HandleFunc("GET /api/v1/stats", s.handleAPIStats)
	s.mux.HandleFunc("GET /api/v1/audit", s.handleAPIAudit)
	s.mux.HandleFunc("POST /api/v1/check", s.handleAPICheck)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics)
	}
}

// ListenAndServe starts the dashboard HTTP server and stops it when ctx is
// done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	s.logger.Info("starting dashboard", "addr", s.addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Handler returns the HTTP handler for embedding in other servers.
func (s *Server) Handler() http.Handler {
	return s.mux
}
