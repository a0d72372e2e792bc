package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/chittyos/trustengine/internal/activity"
	"github.com/chittyos/trustengine/internal/analytics"
	"github.com/chittyos/trustengine/internal/domain"
	"github.com/chittyos/trustengine/internal/trust"
	"github.com/chittyos/trustengine/internal/watch"
)

// Server represents the HTTP API server.
type Server struct {
	router  *chi.Mux
	handler *Handler
	server  *http.Server
	config  domain.ServerConfig
}

// NewServer creates a new API server.
func NewServer(cfg domain.ServerConfig, repo domain.Repository, cache domain.Cache, bus domain.EventBus, engine *trust.Engine, analyzer *analytics.Analyzer, watches *watch.Engine, activitySvc *activity.Service, version string) *Server {
	handler := NewHandler(repo, cache, bus, engine, analyzer, watches, activitySvc, version)
	router := chi.NewRouter()

	// Global middleware stack
	router.Use(CORSMiddleware)         // CORS for browser clients
	router.Use(RecoverMiddleware)      // Recover from panics
	router.Use(TracingMiddleware)      // OpenTelemetry tracing
	router.Use(LoggingMiddleware)      // Request logging
	router.Use(middleware.RealIP)      // Extract real IP
	router.Use(middleware.Compress(5)) // Gzip compression

	// Health endpoints (no tenant required)
	router.Get("/health", handler.Health)
	router.Get("/ready", handler.Ready)

	// API routes (tenant required)
	router.Route("/", func(r chi.Router) {
		r.Use(TenantMiddleware)

		// Inline assessment
		r.Post("/assess", handler.Assess)

		// Entity records
		r.Post("/entities", handler.CreateEntity)
		r.Get("/entities/{id}", handler.GetEntity)
		r.Post("/entities/{id}/events", handler.AppendEvents)

		// Stored-record assessment and analytics
		r.Post("/entities/{id}/assess", handler.AssessEntity)
		r.Get("/entities/{id}/insights", handler.GetInsights)
		r.Get("/entities/{id}/patterns", handler.GetPatterns)
		r.Get("/entities/{id}/intervals", handler.GetIntervals)
		r.Get("/entities/{id}/activity", handler.GetActivity)

		// Watch management
		r.Get("/watches", handler.ListWatches)
		r.Get("/watches/{id}", handler.GetWatch)
		r.Post("/watches", handler.CreateWatch)
		r.Put("/watches/{id}", handler.UpdateWatch)
		r.Delete("/watches/{id}", handler.DeleteWatch)
		r.Post("/watches/reload", handler.ReloadWatches)
	})

	return &Server{
		router:  router,
		handler: handler,
		config:  cfg,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Handler returns the handler for testing.
func (s *Server) Handler() *Handler {
	return s.handler
}
