package smsv2

import "time"

// Config holds configuration for the shared infrastructure.
type Config struct {
	// Concurrency is the number of jobs executed in parallel. The default
	// of one gives strict process-wide FIFO execution.
	Concurrency int

	// PollInterval is how often idle workers re-check the store even when
	// no enqueue woke them. Zero disables the fallback poll.
	PollInterval time.Duration

	// ShutdownTimeout is the maximum time to wait for in-flight jobs on Stop.
	ShutdownTimeout time.Duration

	// RateLimitMax is the default number of calls allowed per key per window.
	RateLimitMax int

	// RateLimitWindow is the fixed window length.
	RateLimitWindow time.Duration

	// RateLimitSweepInterval is how often expired windows are dropped.
	RateLimitSweepInterval time.Duration

	// CacheTTL is the default freshness window for cached reads.
	CacheTTL time.Duration

	// JobRetention is how long completed jobs are kept. Zero disables the
	// retention loop; ClearOldJobs can still be called directly.
	JobRetention time.Duration

	// RetentionInterval is how often the retention loop runs.
	RetentionInterval time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Concurrency:            1,
		PollInterval:           5 * time.Second,
		ShutdownTimeout:        30 * time.Second,
		RateLimitMax:           100,
		RateLimitWindow:        time.Minute,
		RateLimitSweepInterval: time.Minute,
		CacheTTL:               5 * time.Minute,
		JobRetention:           0,
		RetentionInterval:      10 * time.Minute,
	}
}
