package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mlmgis/isochrones/internal/isochrone"
	"github.com/mlmgis/isochrones/internal/sink"
	"github.com/mlmgis/isochrones/internal/source"
)

// Job types carried in JobMessage.JobType.
const (
	JobTypeIsochroneRun = "isochrone_run"
	JobTypeHealthCheck  = "health_check"
)

// ErrInvalidJob indicates a job message that can never succeed.
var ErrInvalidJob = errors.New("invalid job")

// JobMessage is the Pub/Sub payload of an isochrone job.
type JobMessage struct {
	JobType    string `json:"job_type"`
	JobID      string `json:"job_id,omitempty"`
	Input      string `json:"input,omitempty"`
	InputCRS   string `json:"input_crs,omitempty"`
	Mode       int    `json:"mode"`
	Thresholds string `json:"thresholds,omitempty"`
	Polygons   string `json:"polygons,omitempty"`
	Lines      string `json:"lines,omitempty"`
}

// Validate checks the fields an isochrone_run job needs.
func (m JobMessage) Validate() error {
	switch {
	case m.Input == "":
		return fmt.Errorf("%w: input is required", ErrInvalidJob)
	case m.Thresholds == "":
		return fmt.Errorf("%w: thresholds are required", ErrInvalidJob)
	case m.Polygons == "" || m.Lines == "":
		return fmt.Errorf("%w: polygons and lines destinations are required", ErrInvalidJob)
	}
	return nil
}

// JobMetrics tracks job statistics.
type JobMetrics struct {
	TotalJobs      int64
	CompletedJobs  int64
	CanceledJobs   int64
	FailedJobs     int64
	PointsSolved   int64
	LastJobAt      time.Time
	LastJobTime    time.Duration
	TotalJobTime   time.Duration
	LastFailureMsg string
}

// IsochroneJobConfig holds configuration for creating an IsochroneJob.
type IsochroneJobConfig struct {
	Config       JobConfig
	Provider     isochrone.Provider
	ClientID     string
	ClientSecret string
	// OpenTable resolves "postgis:" destinations; nil rejects them.
	OpenTable sink.Opener
	Metrics   *isochrone.Metrics
	Logger    zerolog.Logger
}

// IsochroneJob executes isochrone_run jobs. Every job is an independent run
// with its own token and catalog.
type IsochroneJob struct {
	config       JobConfig
	provider     isochrone.Provider
	clientID     string
	clientSecret string
	openTable    sink.Opener
	runMetrics   *isochrone.Metrics
	logger       zerolog.Logger

	mu      sync.RWMutex
	metrics JobMetrics
}

// NewIsochroneJob creates a new job processor.
func NewIsochroneJob(cfg IsochroneJobConfig) *IsochroneJob {
	return &IsochroneJob{
		config:       cfg.Config.withDefaults(),
		provider:     cfg.Provider,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		openTable:    cfg.OpenTable,
		runMetrics:   cfg.Metrics,
		logger:       cfg.Logger,
	}
}

// Run executes one isochrone_run job.
func (j *IsochroneJob) Run(ctx context.Context, msg JobMessage) (*isochrone.Summary, error) {
	start := time.Now()
	if msg.JobID == "" {
		msg.JobID = uuid.New().String()
	}
	logger := j.logger.With().Str("job_id", msg.JobID).Logger()

	summary, err := j.run(ctx, msg, logger)
	j.updateMetrics(start, summary, err)

	if err != nil {
		logger.Error().Err(err).Msg("isochrone job failed")
		return nil, err
	}

	logger.Info().
		Str("run_id", summary.RunID).
		Str("mode", summary.Mode).
		Int("processed", summary.Processed).
		Int("total", summary.Total).
		Bool("canceled", summary.Canceled).
		Dur("duration", time.Since(start)).
		Msg("isochrone job completed")

	return summary, nil
}

func (j *IsochroneJob) run(ctx context.Context, msg JobMessage, logger zerolog.Logger) (*isochrone.Summary, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	polygons, err := sink.Parse(msg.Polygons, j.openTable)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJob, err)
	}
	lines, err := sink.Parse(msg.Lines, j.openTable)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJob, err)
	}

	points, err := readPoints(msg.Input, firstNonEmpty(msg.InputCRS, j.config.DefaultCRS))
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, j.config.JobTimeout)
	defer cancel()

	run := isochrone.NewRun(isochrone.RunConfig{
		Provider:     j.provider,
		ClientID:     j.clientID,
		ClientSecret: j.clientSecret,
		Feedback:     isochrone.NewLogFeedback(ctx, logger),
		Logger:       logger,
		Metrics:      j.runMetrics,
	})
	if err := run.Init(ctx); err != nil {
		return nil, err
	}

	return run.Execute(ctx, isochrone.Params{
		Points:     points,
		ModeIndex:  msg.Mode,
		Thresholds: msg.Thresholds,
		Polygons:   polygons,
		Lines:      lines,
	})
}

// HealthCheck verifies the provider accepts the configured credentials.
func (j *IsochroneJob) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := j.provider.GetToken(ctx, j.clientID, j.clientSecret); err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	return nil
}

// GetMetrics returns a snapshot of the job metrics.
func (j *IsochroneJob) GetMetrics() JobMetrics {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.metrics
}

func (j *IsochroneJob) updateMetrics(start time.Time, summary *isochrone.Summary, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	elapsed := time.Since(start)
	j.metrics.TotalJobs++
	j.metrics.LastJobAt = start
	j.metrics.LastJobTime = elapsed
	j.metrics.TotalJobTime += elapsed

	switch {
	case err != nil:
		j.metrics.FailedJobs++
		j.metrics.LastFailureMsg = err.Error()
	case summary.Canceled:
		j.metrics.CanceledJobs++
		j.metrics.PointsSolved += int64(summary.Processed)
	default:
		j.metrics.CompletedJobs++
		j.metrics.PointsSolved += int64(summary.Processed)
	}
}

// IsRetryable reports whether a failed job may succeed on redelivery.
func IsRetryable(err error) bool {
	return errors.Is(err, isochrone.ErrProviderUnavailable)
}

func readPoints(path, crs string) (*source.PointSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", source.ErrInvalidInput, err)
	}
	defer f.Close()
	return source.ReadPoints(f, crs)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
