package worker

import (
	"fmt"
	"time"
)

// Config holds the background worker settings.
type Config struct {
	// Concurrency is the number of polling goroutines. Default: 2
	Concurrency int

	// PollInterval is how often an idle poller checks for jobs. Thumbnails
	// should appear shortly after a post, so this stays small. Default: 2s
	PollInterval time.Duration

	// JobTimeout bounds a single job run. Default: 1 minute
	JobTimeout time.Duration

	// ShutdownTimeout is how long Stop waits for running jobs. Default: 30s
	ShutdownTimeout time.Duration

	// StaleJobThreshold is how long a job may sit in 'running' before Start
	// assumes its worker died and requeues it. Default: 10 minutes
	StaleJobThreshold time.Duration
}

// DefaultConfig returns the default worker settings.
func DefaultConfig() Config {
	return Config{
		Concurrency:       2,
		PollInterval:      2 * time.Second,
		JobTimeout:        time.Minute,
		ShutdownTimeout:   30 * time.Second,
		StaleJobThreshold: 10 * time.Minute,
	}
}

// Validate rejects settings outside sane bounds.
func (c Config) Validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.Concurrency > 100 {
		return fmt.Errorf("concurrency too high (max 100), got %d", c.Concurrency)
	}
	if c.PollInterval < 100*time.Millisecond {
		return fmt.Errorf("poll interval must be at least 100ms, got %v", c.PollInterval)
	}
	if c.JobTimeout < time.Second {
		return fmt.Errorf("job timeout must be at least 1 second, got %v", c.JobTimeout)
	}
	if c.ShutdownTimeout < time.Second {
		return fmt.Errorf("shutdown timeout must be at least 1 second, got %v", c.ShutdownTimeout)
	}
	if c.StaleJobThreshold <= c.JobTimeout {
		return fmt.Errorf("stale job threshold (%v) must exceed job timeout (%v)", c.StaleJobThreshold, c.JobTimeout)
	}
	return nil
}
