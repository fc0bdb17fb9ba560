// Package main provides the isochrones command-line tool.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/mlmgis/isochrones/internal/config"
	"github.com/mlmgis/isochrones/internal/database"
	"github.com/mlmgis/isochrones/internal/isochrone"
	"github.com/mlmgis/isochrones/internal/isochrone/arcgis"
	"github.com/mlmgis/isochrones/internal/provider/resilience"
	"github.com/mlmgis/isochrones/internal/sink"
	"github.com/mlmgis/isochrones/internal/source"
	"github.com/mlmgis/isochrones/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const serviceName = "isochrones-cli"

type options struct {
	input      string
	inputCRS   string
	mode       int
	thresholds string
	polygons   string
	lines      string
	listModes  bool
}

func main() {
	var opts options
	flag.StringVar(&opts.input, "input", "", "input point layer (GeoJSON FeatureCollection, - for stdin)")
	flag.StringVar(&opts.inputCRS, "input-crs", source.WGS84, "CRS of the input layer when it does not declare one")
	flag.IntVar(&opts.mode, "mode", 0, "travel mode index (see -list-modes)")
	flag.StringVar(&opts.thresholds, "thresholds", "", "comma-separated break values, e.g. 5,10,15")
	flag.StringVar(&opts.polygons, "polygons", "", "polygon output: GeoJSON path, - or postgis:<table>")
	flag.StringVar(&opts.lines, "lines", "", "line output: GeoJSON path, - or postgis:<table>")
	flag.BoolVar(&opts.listModes, "list-modes", false, "print the available travel modes and exit")
	flag.Parse()

	cfg := config.FromEnv()
	log := cfg.NewLogger(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}, serviceName, Version)

	if err := run(opts, cfg, log); err != nil {
		log.Error().Err(err).Msg("isochrones failed")
		os.Exit(1)
	}
}

func run(opts options, cfg config.Config, log zerolog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.Init(ctx, telemetry.FromConfig(cfg, serviceName, Version))
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	metrics, err := isochrone.NewMetrics()
	if err != nil {
		return fmt.Errorf("initialize metrics: %w", err)
	}

	client := arcgis.NewClient(arcgis.ClientConfig{
		TokenURL:   cfg.ArcGIS.TokenURL,
		ServiceURL: cfg.ArcGIS.ServiceURL,
		Timeout:    cfg.ArcGIS.Timeout,
		Registry:   resilience.NewRegistry(),
		Logger:     log,
	})

	r := isochrone.NewRun(isochrone.RunConfig{
		Provider:     client,
		ClientID:     cfg.ArcGIS.ClientID,
		ClientSecret: cfg.ArcGIS.ClientSecret,
		Feedback:     isochrone.NewLogFeedback(ctx, log),
		Logger:       log,
		Metrics:      metrics,
	})
	if err := r.Init(ctx); err != nil {
		return fmt.Errorf("initialize run: %w", err)
	}

	if opts.listModes {
		for i, name := range r.ModeNames() {
			fmt.Printf("%d\t%s\n", i, name)
		}
		return nil
	}

	if opts.input == "" || opts.thresholds == "" || opts.polygons == "" || opts.lines == "" {
		flag.Usage()
		return errors.New("-input, -thresholds, -polygons and -lines are required")
	}

	var openTable sink.Opener
	if cfg.UsePostGIS {
		dbConfig := database.ConfigFromEnv()
		pool, err := database.Connect(ctx, dbConfig)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer pool.Close()
		log.Debug().
			Str("database", dbConfig.Redacted()).
			Msg("database connected")
		openTable = database.Opener(pool)
	}

	polygons, err := sink.Parse(opts.polygons, openTable)
	if err != nil {
		return err
	}
	lines, err := sink.Parse(opts.lines, openTable)
	if err != nil {
		return err
	}

	points, err := readInput(opts.input, opts.inputCRS)
	if err != nil {
		return err
	}

	summary, err := r.Execute(ctx, isochrone.Params{
		Points:     points,
		ModeIndex:  opts.mode,
		Thresholds: opts.thresholds,
		Polygons:   polygons,
		Lines:      lines,
	})
	if err != nil {
		return err
	}

	event := log.Info()
	if summary.Canceled {
		event = log.Warn()
	}
	event.
		Str("run_id", summary.RunID).
		Str("mode", summary.Mode).
		Str("thresholds", summary.Thresholds.String()).
		Int("processed", summary.Processed).
		Int("total", summary.Total).
		Int("polygons", summary.Polygons).
		Int("lines", summary.Lines).
		Str("polygons_dest", polygons.String()).
		Str("lines_dest", lines.String()).
		Msg("isochrones written")

	return nil
}

func readInput(path, crs string) (*source.PointSet, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", source.ErrInvalidInput, err)
		}
		defer f.Close()
		r = f
	}
	return source.ReadPoints(r, crs)
}
