// Package worker provides background job processing for SegmentScout.
package worker

import "time"

// RefreshConfig holds configuration for the segment refresh job.
type RefreshConfig struct {
	// Concurrency is the number of concurrent refresh operations.
	// Default: 3
	Concurrency int

	// Timeout is the timeout for each segment refresh.
	// Default: 30 seconds
	Timeout time.Duration

	// StaleAfter is the age past which a persisted segment detail is
	// considered due for refresh.
	// Default: 6 hours
	StaleAfter time.Duration

	// BatchLimit caps the number of segments refreshed per run, keeping one
	// run inside the platform's request quota.
	// Default: 100
	BatchLimit int
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Concurrency: 3,
		Timeout:     30 * time.Second,
		StaleAfter:  6 * time.Hour,
		BatchLimit:  100,
	}
}

func (c RefreshConfig) withDefaults() RefreshConfig {
	d := DefaultRefreshConfig()
	if c.Concurrency <= 0 {
		c.Concurrency = d.Concurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = d.StaleAfter
	}
	if c.BatchLimit <= 0 {
		c.BatchLimit = d.BatchLimit
	}
	return c
}
