// Package api provides the muninn status and control HTTP API: job
// submission and monitoring, session history access, pool statistics
// and Prometheus metrics.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/ssargent/muninn/pkg/pool"
)

// Server holds the API server state
type Server struct {
	config   ServerConfig
	pool     *pool.RecordPool
	sessions SessionStore
	metrics  *Metrics
	registry *prometheus.Registry
	jobs     *JobManager
	log      *logrus.Entry
}

// NewServer creates an API server over the given pool and session
// store. A nil session store disables history endpoints.
func NewServer(config ServerConfig, recordPool *pool.RecordPool, sessions SessionStore, log *logrus.Entry) *Server {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	jobs := NewJobManager(JobManagerConfig{
		Pool:          recordPool,
		Sessions:      sessions,
		Metrics:       metrics,
		Logger:        log,
		PrescanTotals: config.PrescanTotals,
	})

	return &Server{
		config:   config,
		pool:     recordPool,
		sessions: sessions,
		metrics:  metrics,
		registry: registry,
		jobs:     jobs,
		log:      log,
	}
}

// Router builds the HTTP routing table
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(requestID)
	r.Use(requestLogger(s.log))
	r.Use(recoverer(s.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	// Health checks
	r.Get("/healthz", s.metrics.InstrumentHandler("GET", "/healthz", s.handleHealthz))
	r.Get("/readyz", s.metrics.InstrumentHandler("GET", "/readyz", s.handleReadyz))

	r.Route("/v1", func(r chi.Router) {
		// Parse jobs
		r.Post("/parse", s.metrics.InstrumentHandler("POST", "/v1/parse", s.handleStartParse))
		r.Get("/parse/{id}", s.metrics.InstrumentHandler("GET", "/v1/parse/{id}", s.handleParseStatus))
		r.Delete("/parse/{id}", s.metrics.InstrumentHandler("DELETE", "/v1/parse/{id}", s.handleCancelParse))

		// Session history
		r.Get("/sessions", s.metrics.InstrumentHandler("GET", "/v1/sessions", s.handleListSessions))
		r.Get("/sessions/{id}", s.metrics.InstrumentHandler("GET", "/v1/sessions/{id}", s.handleGetSession))
		r.Delete("/sessions/{id}", s.metrics.InstrumentHandler("DELETE", "/v1/sessions/{id}", s.handleDeleteSession))

		// Diagnostics
		r.Get("/pool", s.metrics.InstrumentHandler("GET", "/v1/pool", s.handlePoolStats))
	})

	return r
}

// ListenAndServe serves the API until the context is cancelled, then
// shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Listen,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.log.WithField("addr", s.config.Listen).Info("api server listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server: %w", err)
	}
}
