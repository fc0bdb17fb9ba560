package isochrone

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/mlmgis/isochrones/internal/isochrone"

// Metrics holds the OpenTelemetry instruments recorded by runs.
type Metrics struct {
	pointsTotal   metric.Int64Counter
	featuresTotal metric.Int64Counter
	solveDuration metric.Float64Histogram
	runsTotal     metric.Int64Counter
}

// NewMetrics creates run metrics on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)

	pointsTotal, err := meter.Int64Counter(
		"isochrone.points.total",
		metric.WithDescription("Number of input points solved"),
		metric.WithUnit("{point}"),
	)
	if err != nil {
		return nil, err
	}

	featuresTotal, err := meter.Int64Counter(
		"isochrone.features.total",
		metric.WithDescription("Number of output features adapted"),
		metric.WithUnit("{feature}"),
	)
	if err != nil {
		return nil, err
	}

	solveDuration, err := meter.Float64Histogram(
		"isochrone.solve.duration",
		metric.WithDescription("Duration of service-area solves in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	runsTotal, err := meter.Int64Counter(
		"isochrone.runs.total",
		metric.WithDescription("Number of completed, canceled or failed runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		pointsTotal:   pointsTotal,
		featuresTotal: featuresTotal,
		solveDuration: solveDuration,
		runsTotal:     runsTotal,
	}, nil
}

func (m *Metrics) recordSolve(ctx context.Context, provider string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.String("provider.name", provider)}
	if err != nil {
		attrs = append(attrs, attribute.Bool("error", true))
	}
	m.solveDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	if err == nil {
		m.pointsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func (m *Metrics) recordFeatures(ctx context.Context, kind string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.featuresTotal.Add(ctx, int64(n), metric.WithAttributes(attribute.String("feature.kind", kind)))
}

func (m *Metrics) recordRun(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.runsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("run.outcome", outcome)))
}
