package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlmgis/isochrones/internal/config"
	"github.com/mlmgis/isochrones/internal/telemetry"
)

func TestInit_Disabled(t *testing.T) {
	ctx := context.Background()

	provider, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "isochrones-test",
		ServiceVersion: "1.0.0",
		Environment:    "test",
		OTLPEndpoint:   "localhost:4317",
		Enabled:        false,
	})

	require.NoError(t, err)
	assert.NotNil(t, provider.Tracer)
	assert.NotNil(t, provider.Meter)
	assert.Nil(t, provider.TracerProvider)
	assert.Nil(t, provider.MeterProvider)

	assert.NoError(t, provider.Shutdown(ctx))
}

func TestProvider_Shutdown_NilProviders(t *testing.T) {
	provider := &telemetry.Provider{}
	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestFromConfig(t *testing.T) {
	cfg := config.Config{
		Env: "staging",
		Telemetry: config.TelemetryConfig{
			Enabled:      true,
			OTLPEndpoint: "collector:4317",
		},
	}

	got := telemetry.FromConfig(cfg, "isochrones-worker", "2.0.0")

	assert.Equal(t, telemetry.Config{
		ServiceName:    "isochrones-worker",
		ServiceVersion: "2.0.0",
		Environment:    "staging",
		OTLPEndpoint:   "collector:4317",
		Enabled:        true,
	}, got)
}
