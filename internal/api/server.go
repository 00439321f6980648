// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/newthinker/vega/internal/advisor"
	handlerapi "github.com/newthinker/vega/internal/api/handler/api"
	"github.com/newthinker/vega/internal/api/job"
	"github.com/newthinker/vega/internal/api/middleware"
	"github.com/newthinker/vega/internal/metrics"
	"github.com/newthinker/vega/internal/storage/history"
	"github.com/newthinker/vega/internal/strategy"
)

// Server is the HTTP front end for running backtests remotely.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *zap.Logger
	apiKey     string
	metrics    *metrics.Registry
}

// Config holds server configuration.
type Config struct {
	Addr    string
	APIKey  string
	MaxJobs int
	JobTTL  time.Duration
}

// Dependencies carries the collaborators the handlers need. Resolve is
// required; a nil History or Advisor disables the matching endpoints,
// a nil Metrics disables instrumentation and /metrics.
type Dependencies struct {
	Resolve  handlerapi.RunnerResolver
	Presets  strategy.Presets
	Defaults handlerapi.Defaults
	History  history.Store
	Advisor  advisor.Advisor
	Metrics  *metrics.Registry
}

// NewServer creates a new HTTP server and wires all routes.
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if deps.Resolve == nil {
		return nil, fmt.Errorf("runner resolver is required")
	}
	if deps.Presets == nil {
		deps.Presets = strategy.BuiltinPresets()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxJobs <= 0 {
		cfg.MaxJobs = 100
	}

	mux := http.NewServeMux()
	s := &Server{
		httpServer: &http.Server{
			Addr:        cfg.Addr,
			Handler:     mux,
			ReadTimeout: 15 * time.Second,
			// Commentary requests block on the advisor, so the write
			// timeout must outlast commentaryTimeout.
			WriteTimeout: 2 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		mux:     mux,
		logger:  logger,
		apiKey:  cfg.APIKey,
		metrics: deps.Metrics,
	}

	s.setupRoutes(cfg, deps)
	return s, nil
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes(cfg Config, deps Dependencies) {
	jobs := job.NewStore(cfg.MaxJobs, cfg.JobTTL)

	var jobRecorder handlerapi.JobRecorder
	var advRecorder handlerapi.AdvisorRecorder
	if s.metrics != nil {
		jobRecorder = s.metrics
		advRecorder = s.metrics
	}

	backtests := handlerapi.NewBacktestHandler(jobs, deps.Resolve, deps.Presets, deps.Defaults, jobRecorder)
	commentary := handlerapi.NewCommentaryHandler(jobs, deps.Advisor, advRecorder)
	catalog := handlerapi.NewCatalogHandler(deps.Presets)
	runs := handlerapi.NewHistoryHandler(deps.History)

	s.mux.Handle("POST /api/v1/backtests", s.protected(http.HandlerFunc(backtests.Create)))
	s.mux.Handle("GET /api/v1/backtests/{id}", s.protected(http.HandlerFunc(backtests.Get)))
	s.mux.Handle("POST /api/v1/backtests/{id}/commentary", s.protected(http.HandlerFunc(commentary.Create)))
	s.mux.Handle("GET /api/v1/strategies", s.protected(http.HandlerFunc(catalog.Strategies)))
	s.mux.Handle("GET /api/v1/symbols", s.protected(http.HandlerFunc(catalog.Symbols)))
	s.mux.Handle("GET /api/v1/history", s.protected(http.HandlerFunc(runs.List)))
	s.mux.Handle("GET /api/v1/health", s.public(http.HandlerFunc(s.handleHealth)))

	if s.metrics != nil {
		s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.metrics, promhttp.HandlerOpts{}))
	}
}

// public wraps a handler with request logging and instrumentation.
func (s *Server) public(h http.Handler) http.Handler {
	if s.metrics != nil {
		h = metrics.HTTPMiddleware(s.metrics)(h)
	}
	return metrics.LoggingMiddleware(s.logger)(h)
}

// protected additionally requires the API key when one is configured.
func (s *Server) protected(h http.Handler) http.Handler {
	return s.public(middleware.APIKeyAuth(s.apiKey)(h))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
