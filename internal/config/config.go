// Package config loads service configuration from environment variables.
package config

import (
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrMissingCredentials indicates the ArcGIS client credentials are not set.
var ErrMissingCredentials = errors.New("ARCGIS_CLIENT_ID and ARCGIS_CLIENT_SECRET are required")

// ArcGISConfig holds the service-area provider settings.
type ArcGISConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	ServiceURL   string
	Timeout      time.Duration
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
}

// PubSubConfig holds the worker subscription settings.
type PubSubConfig struct {
	ProjectID    string
	Subscription string
}

// Config is the process configuration shared by the CLI, API and worker.
type Config struct {
	Env        string
	Port       string
	LogLevel   string
	UsePostGIS bool
	APIKeys    []string
	RequireTLS bool
	ArcGIS     ArcGISConfig
	Telemetry  TelemetryConfig
	PubSub     PubSubConfig
}

// FromEnv creates a Config from environment variables.
func FromEnv() Config {
	return Config{
		Env:        getEnvOrDefault("APP_ENV", "development"),
		Port:       getEnvOrDefault("APP_PORT", "8080"),
		LogLevel:   getEnvOrDefault("LOG_LEVEL", "info"),
		UsePostGIS: getBool("POSTGIS_ENABLED", false),
		APIKeys:    getList("API_KEYS"),
		RequireTLS: getBool("REQUIRE_TLS", false),
		ArcGIS: ArcGISConfig{
			ClientID:     os.Getenv("ARCGIS_CLIENT_ID"),
			ClientSecret: os.Getenv("ARCGIS_CLIENT_SECRET"),
			TokenURL:     os.Getenv("ARCGIS_TOKEN_URL"),
			ServiceURL:   os.Getenv("ARCGIS_SERVICE_URL"),
			Timeout:      getDuration("ARCGIS_TIMEOUT", 60*time.Second),
		},
		Telemetry: TelemetryConfig{
			Enabled:      getBool("OTEL_ENABLED", false),
			OTLPEndpoint: getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		},
		PubSub: PubSubConfig{
			ProjectID:    os.Getenv("PUBSUB_PROJECT_ID"),
			Subscription: getEnvOrDefault("PUBSUB_SUBSCRIPTION", "isochrone-jobs"),
		},
	}
}

// Validate reports missing required settings.
func (c Config) Validate() error {
	if c.ArcGIS.ClientID == "" || c.ArcGIS.ClientSecret == "" {
		return ErrMissingCredentials
	}
	return nil
}

// Level parses LogLevel, falling back to info.
func (c Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// NewLogger builds the process logger.
func (c Config) NewLogger(w io.Writer, service, version string) zerolog.Logger {
	return zerolog.New(w).
		Level(c.Level()).
		With().
		Timestamp().
		Str("service", service).
		Str("version", version).
		Logger()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}

// getList splits a comma-separated value, dropping empty items.
func getList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return defaultValue
	}
	return v
}
