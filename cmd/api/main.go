// Package main provides the entrypoint for the isochrones API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mlmgis/isochrones/internal/api"
	"github.com/mlmgis/isochrones/internal/api/handler"
	"github.com/mlmgis/isochrones/internal/api/middleware"
	"github.com/mlmgis/isochrones/internal/config"
	"github.com/mlmgis/isochrones/internal/database"
	"github.com/mlmgis/isochrones/internal/isochrone"
	"github.com/mlmgis/isochrones/internal/isochrone/arcgis"
	"github.com/mlmgis/isochrones/internal/provider/resilience"
	"github.com/mlmgis/isochrones/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "isochrones-api"

	cfg := config.FromEnv()

	// Setup structured logging
	log := cfg.NewLogger(os.Stdout, serviceName, Version)

	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.Env).
		Msg("starting isochrones API")

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// Initialize OpenTelemetry
	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.FromConfig(cfg, serviceName, Version))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.Telemetry.Enabled {
		log.Info().
			Str("otlp_endpoint", cfg.Telemetry.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}
	runMetrics, err := isochrone.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize run metrics")
		os.Exit(1)
	}

	// Connect to database when PostGIS health is part of readiness
	var db handler.Pinger
	if cfg.UsePostGIS {
		dbConfig := database.ConfigFromEnv()
		pool, err := database.Connect(ctx, dbConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		db = pool
		log.Info().
			Str("database", dbConfig.Redacted()).
			Msg("database connected")
	}

	registry := resilience.NewRegistry()
	client := arcgis.NewClient(arcgis.ClientConfig{
		TokenURL:   cfg.ArcGIS.TokenURL,
		ServiceURL: cfg.ArcGIS.ServiceURL,
		Timeout:    cfg.ArcGIS.Timeout,
		Registry:   registry,
		Logger:     log,
	})
	log.Info().Str("provider", client.Name()).Msg("service-area client initialized")

	if len(cfg.APIKeys) == 0 {
		log.Warn().Msg("API_KEYS not set - isochrone endpoints are unauthenticated")
	}

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:     Version,
		BuildTime:   BuildTime,
		Logger:      log,
		ServiceName: serviceName,
		Metrics:     httpMetrics,
		APIKeys:     cfg.APIKeys,
		RequireTLS:  cfg.RequireTLS,
		Registry:    registry,
		DB:          db,
		Isochrone: handler.IsochroneConfig{
			Provider:     client,
			ClientID:     cfg.ArcGIS.ClientID,
			ClientSecret: cfg.ArcGIS.ClientSecret,
			Metrics:      runMetrics,
			Logger:       log,
		},
	})

	// Runs solve one point per request to the service, so writes get a long timeout.
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
