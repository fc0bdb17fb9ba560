package isochrone

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Feedback receives run progress and is polled for cancellation.
type Feedback interface {
	// IsCanceled reports whether the run should stop before the next point.
	IsCanceled() bool
	// SetProgress reports the percentage of points processed.
	SetProgress(percent int)
	// PushInfo reports a status message.
	PushInfo(msg string)
}

// LogFeedback is a Feedback that logs progress and is canceled with its context.
type LogFeedback struct {
	ctx      context.Context
	logger   zerolog.Logger
	progress atomic.Int32
}

// NewLogFeedback creates a feedback canceled when ctx is done.
func NewLogFeedback(ctx context.Context, logger zerolog.Logger) *LogFeedback {
	return &LogFeedback{ctx: ctx, logger: logger}
}

func (f *LogFeedback) IsCanceled() bool {
	return f.ctx.Err() != nil
}

func (f *LogFeedback) SetProgress(percent int) {
	f.progress.Store(int32(percent)) //nolint:gosec // percent is within [0, 100]
	f.logger.Debug().Int("progress", percent).Msg("run progress")
}

func (f *LogFeedback) PushInfo(msg string) {
	f.logger.Info().Msg(msg)
}

// Progress returns the last reported percentage.
func (f *LogFeedback) Progress() int {
	return int(f.progress.Load())
}

type nopFeedback struct{}

func (nopFeedback) IsCanceled() bool { return false }
func (nopFeedback) SetProgress(int) {}
func (nopFeedback) PushInfo(string) {}
