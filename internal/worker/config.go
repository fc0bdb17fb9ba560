// Package worker runs isochrone jobs received from Pub/Sub.
package worker

import (
	"time"
)

// JobConfig holds configuration for isochrone job processing.
type JobConfig struct {
	// MaxConcurrentJobs is the number of messages processed at once.
	// Default: 2
	MaxConcurrentJobs int

	// JobTimeout bounds a single run. A run that hits it is canceled
	// cooperatively and writes the points processed so far.
	// Default: 30 minutes
	JobTimeout time.Duration

	// DefaultCRS applies to inputs that do not declare one.
	// Default: EPSG:4326
	DefaultCRS string
}

// DefaultJobConfig returns the default job configuration.
func DefaultJobConfig() JobConfig {
	return JobConfig{
		MaxConcurrentJobs: 2,
		JobTimeout:        30 * time.Minute,
		DefaultCRS:        "EPSG:4326",
	}
}

func (c JobConfig) withDefaults() JobConfig {
	d := DefaultJobConfig()
	if c.MaxConcurrentJobs <= 0 {
		c.MaxConcurrentJobs = d.MaxConcurrentJobs
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = d.JobTimeout
	}
	if c.DefaultCRS == "" {
		c.DefaultCRS = d.DefaultCRS
	}
	return c
}
