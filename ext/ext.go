package ext

import (
	"context"
	"time"

	"github.com/Santosh-B-Vitana/smsv2-sub000/job"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// JobEnqueued is called after a job is accepted by the queue. Jobs of an
// unregistered type are reported here and then through JobFailed.
type JobEnqueued interface {
	OnJobEnqueued(ctx context.Context, j *job.Job) error
}

// JobStarted is called when a worker begins executing a job.
type JobStarted interface {
	OnJobStarted(ctx context.Context, j *job.Job) error
}

// JobProgressed is called when a running handler reports progress.
type JobProgressed interface {
	OnJobProgressed(ctx context.Context, j *job.Job, pct int) error
}

// JobCompleted is called after a job finishes successfully.
type JobCompleted interface {
	OnJobCompleted(ctx context.Context, j *job.Job, elapsed time.Duration) error
}

// JobFailed is called when a job reaches the failed state.
type JobFailed interface {
	OnJobFailed(ctx context.Context, j *job.Job, err error) error
}

// JobsPurged is called after an age-based sweep removed completed jobs.
type JobsPurged interface {
	OnJobsPurged(ctx context.Context, count int) error
}

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
