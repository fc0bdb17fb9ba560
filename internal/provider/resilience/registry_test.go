package resilience_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlmgis/isochrones/internal/provider/resilience"
)

func registered(t *testing.T, registry *resilience.Registry, name string) *resilience.Client {
	t.Helper()
	cfg := resilience.DefaultClientConfig(name)
	cfg.Registry = registry
	return resilience.NewClient(cfg)
}

func TestRegistry_RegisterAndGetHealth(t *testing.T) {
	registry := resilience.NewRegistry()
	client := registered(t, registry, "arcgis")

	assert.Equal(t, 1, registry.ProviderCount())
	assert.Equal(t, "arcgis", client.Name())

	health := registry.GetHealth("arcgis")
	require.NotNil(t, health)
	assert.Equal(t, "arcgis", health.Name)
	assert.Equal(t, gobreaker.StateClosed, health.CircuitState)
	assert.Equal(t, resilience.StatusHealthy, health.Status())
	assert.Zero(t, health.Requests)
	assert.Nil(t, health.LastSuccessAt)
	assert.Nil(t, health.LastFailureAt)
}

func TestRegistry_RegisterAgainResetsHistory(t *testing.T) {
	registry := resilience.NewRegistry()
	registered(t, registry, "arcgis")
	registry.RecordFailure("arcgis", time.Second, assert.AnError)

	registered(t, registry, "arcgis")

	health := registry.GetHealth("arcgis")
	require.NotNil(t, health)
	assert.Equal(t, 1, registry.ProviderCount())
	assert.Zero(t, health.Failures)
	assert.Empty(t, health.LastError)
}

func TestRegistry_RecordOutcomes(t *testing.T) {
	registry := resilience.NewRegistry()
	registered(t, registry, "arcgis")

	registry.RecordSuccess("arcgis", 120*time.Millisecond)
	registry.RecordSuccess("arcgis", 80*time.Millisecond)

	health := registry.GetHealth("arcgis")
	require.NotNil(t, health)
	require.NotNil(t, health.LastSuccessAt)
	assert.WithinDuration(t, time.Now(), *health.LastSuccessAt, time.Second)
	assert.Equal(t, int64(2), health.Requests)
	assert.Zero(t, health.Failures)
	assert.Equal(t, 80*time.Millisecond, health.LastLatency)

	registry.RecordFailure("arcgis", 3*time.Second, assert.AnError)

	health = registry.GetHealth("arcgis")
	require.NotNil(t, health.LastFailureAt)
	assert.Equal(t, int64(3), health.Requests)
	assert.Equal(t, int64(1), health.Failures)
	assert.Equal(t, 3*time.Second, health.LastLatency)
	assert.Equal(t, assert.AnError.Error(), health.LastError)
}

func TestRegistry_RecordFailureWithoutError(t *testing.T) {
	registry := resilience.NewRegistry()
	registered(t, registry, "arcgis")
	registry.RecordFailure("arcgis", time.Second, assert.AnError)
	registry.RecordFailure("arcgis", time.Second, nil)

	health := registry.GetHealth("arcgis")
	assert.Equal(t, int64(2), health.Failures)
	assert.Equal(t, assert.AnError.Error(), health.LastError, "previous message is kept")
}

func TestRegistry_UnknownProvider(t *testing.T) {
	registry := resilience.NewRegistry()

	assert.Nil(t, registry.GetHealth("nonexistent"))
	assert.NotPanics(t, func() {
		registry.RecordSuccess("nonexistent", time.Second)
		registry.RecordFailure("nonexistent", time.Second, assert.AnError)
	})
	assert.Zero(t, registry.ProviderCount())
}

func TestRegistry_GetAllHealthSorted(t *testing.T) {
	registry := resilience.NewRegistry()
	for _, name := range []string{"token", "arcgis", "modes"} {
		registered(t, registry, name)
	}

	health := registry.GetAllHealth()
	require.Len(t, health, 3)
	assert.Equal(t, "arcgis", health[0].Name)
	assert.Equal(t, "modes", health[1].Name)
	assert.Equal(t, "token", health[2].Name)
	for _, h := range health {
		assert.Equal(t, gobreaker.StateClosed, h.CircuitState)
	}
}

func TestRegistry_Overall(t *testing.T) {
	registry := resilience.NewRegistry()
	assert.Equal(t, resilience.StatusHealthy, registry.Overall())

	cbConfig := resilience.CircuitBreakerConfig{
		Name:        "tripped",
		MaxRequests: 1,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool { return counts.ConsecutiveFailures >= 1 },
	}
	cfg := resilience.DefaultClientConfig("tripped")
	cfg.CircuitBreaker = &cbConfig
	cfg.Registry = registry
	client := resilience.NewClient(cfg)
	registered(t, registry, "arcgis")

	assert.Equal(t, resilience.StatusHealthy, registry.Overall())

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, "http://127.0.0.1:1", http.NoBody)
	require.NoError(t, err)
	resp, err := client.Do(req)
	if resp != nil {
		resp.Body.Close()
	}
	require.Error(t, err)

	assert.Equal(t, resilience.StatusUnhealthy, registry.Overall())

	health := registry.GetHealth("tripped")
	assert.Equal(t, int64(1), health.Failures)
	assert.Positive(t, health.LastLatency)
}

func TestProviderHealth_States(t *testing.T) {
	tests := []struct {
		state      gobreaker.State
		isHealthy  bool
		isDegraded bool
		isUnhealth bool
		status     string
	}{
		{gobreaker.StateClosed, true, false, false, resilience.StatusHealthy},
		{gobreaker.StateHalfOpen, false, true, false, resilience.StatusDegraded},
		{gobreaker.StateOpen, false, false, true, resilience.StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			h := &resilience.ProviderHealth{CircuitState: tt.state}
			assert.Equal(t, tt.isHealthy, h.IsHealthy())
			assert.Equal(t, tt.isDegraded, h.IsDegraded())
			assert.Equal(t, tt.isUnhealth, h.IsUnhealthy())
			assert.Equal(t, tt.status, h.Status())
		})
	}
}
