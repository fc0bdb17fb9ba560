// Package main provides the entrypoint for the isochrones job worker.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mlmgis/isochrones/internal/config"
	"github.com/mlmgis/isochrones/internal/database"
	"github.com/mlmgis/isochrones/internal/isochrone"
	"github.com/mlmgis/isochrones/internal/isochrone/arcgis"
	"github.com/mlmgis/isochrones/internal/provider/resilience"
	"github.com/mlmgis/isochrones/internal/sink"
	"github.com/mlmgis/isochrones/internal/telemetry"
	"github.com/mlmgis/isochrones/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "isochrones-worker"

	cfg := config.FromEnv()
	log := cfg.NewLogger(os.Stdout, serviceName, Version)

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting isochrones worker")

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.PubSub.ProjectID == "" {
		log.Fatal().Msg("PUBSUB_PROJECT_ID is required")
	}

	// Create context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	runMetrics, err := isochrone.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize run metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	var openTable sink.Opener
	if cfg.UsePostGIS {
		dbConfig := database.ConfigFromEnv()
		pool, err := database.Connect(ctx, dbConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		openTable = database.Opener(pool)
		log.Info().
			Str("database", dbConfig.Redacted()).
			Msg("database connected")
	}

	registry := resilience.NewRegistry()
	job := worker.NewIsochroneJob(worker.IsochroneJobConfig{
		Config: worker.DefaultJobConfig(),
		Provider: arcgis.NewClient(arcgis.ClientConfig{
			TokenURL:   cfg.ArcGIS.TokenURL,
			ServiceURL: cfg.ArcGIS.ServiceURL,
			Timeout:    cfg.ArcGIS.Timeout,
			Registry:   registry,
			Logger:     log,
		}),
		ClientID:     cfg.ArcGIS.ClientID,
		ClientSecret: cfg.ArcGIS.ClientSecret,
		OpenTable:    openTable,
		Metrics:      runMetrics,
		Logger:       log,
	})

	handler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
		ProjectID:        cfg.PubSub.ProjectID,
		SubscriptionName: cfg.PubSub.Subscription,
		Job:              job,
		Logger:           log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create pubsub handler")
	}
	defer func() {
		if err := handler.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close pubsub client")
		}
	}()

	// Worker also exposes a health endpoint for Cloud Run
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		m := job.GetMetrics()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":         "healthy",
			"version":        Version,
			"providers":      registry.Overall(),
			"total_jobs":     m.TotalJobs,
			"completed_jobs": m.CompletedJobs,
			"canceled_jobs":  m.CanceledJobs,
			"failed_jobs":    m.FailedJobs,
		})
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health check server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	// Receive blocks until ctx is canceled by a signal.
	if err := handler.Start(ctx); err != nil {
		log.Error().Err(err).Msg("pubsub receive stopped")
	}

	log.Info().Msg("shutting down worker")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
