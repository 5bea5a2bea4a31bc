// Package server provides the HTTP API for Nuvem.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nuvemlab/nuvem/internal/auth"
	"github.com/nuvemlab/nuvem/internal/config"
	"github.com/nuvemlab/nuvem/internal/report"
	"github.com/nuvemlab/nuvem/internal/store"
	"github.com/nuvemlab/nuvem/pkg/metrics"
)

// Server is the HTTP server for the Nuvem API.
type Server struct {
	store     store.Store
	gate      *auth.Gate
	reporter  report.Generator // nil when report generation is not configured
	hub       *Hub
	config    *config.Config
	logger    *zap.Logger
	server    *http.Server
	startTime time.Time
}

// NewServer creates a server with the given dependencies. reporter may be
// nil, which disables the admin report endpoint.
func NewServer(
	st store.Store,
	gate *auth.Gate,
	reporter report.Generator,
	hub *Hub,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		store:     st,
		gate:      gate,
		reporter:  reporter,
		hub:       hub,
		config:    cfg,
		logger:    logger,
		startTime: time.Now(),
	}
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)
		r.Handle("/metrics", promhttp.Handler())

		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/board", s.handleBoard)
			r.Get("/cloud", s.handleCloud)

			r.Group(func(r chi.Router) {
				if s.config.RateLimit.EnabledOrDefault() {
					r.Use(RateLimit(s.config.RateLimit.RPS, s.config.RateLimit.Burst))
				}
				r.Post("/entries", s.handleSubmit)
			})

			r.Post("/admin/login", s.handleLogin)
			r.Post("/admin/logout", s.handleLogout)

			r.Group(func(r chi.Router) {
				r.Use(s.adminOnly)
				r.Put("/admin/prompt", s.handleSetPrompt)
				r.Delete("/admin/entries", s.handleClearEntries)
				r.Put("/admin/visibility", s.handleSetVisibility)
				r.Get("/admin/history", s.handleHistory)
				r.Post("/admin/report", s.handleReport)
			})
		})
	})

	// The SSE stream must outlive the request timeout, so it sits outside
	// the Timeout group.
	r.Get("/api/v1/events", s.handleEvents)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
