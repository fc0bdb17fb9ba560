// Package api provides the HTTP API for computing isochrones.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/mlmgis/isochrones/internal/api/handler"
	"github.com/mlmgis/isochrones/internal/api/middleware"
	"github.com/mlmgis/isochrones/internal/isochrone"
	"github.com/mlmgis/isochrones/internal/provider/resilience"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	// APIKeys protects the isochrone endpoints; empty disables auth.
	APIKeys    []string
	RequireTLS bool

	Registry  *resilience.Registry
	DB        handler.Pinger
	Isochrone handler.IsochroneConfig
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "isochrones-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Registry, cfg.DB)
	isoHandler := handler.NewIsochroneHandler(cfg.Isochrone)

	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.With(middleware.RateLimitByIP(middleware.StandardRateLimit)).Get("/status", opsHandler.SystemStatus)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.APIKey(cfg.APIKeys))

			r.With(middleware.RateLimitByClient(middleware.StandardRateLimit)).
				Get("/travel-modes", isoHandler.ListTravelModes)

			r.With(middleware.RequireJSON, middleware.RateLimitByClient(middleware.RunRateLimit)).
				Post("/isochrones", isoHandler.ComputeIsochrones)

			r.With(middleware.RequireJSON, middleware.RateLimitByClient(middleware.PreviewRateLimit)).
				Post("/isochrones:preview", isoHandler.PreviewIsochrones)
		})
	})

	return r
}
