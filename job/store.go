package job

import (
	"context"
	"time"

	"github.com/Santosh-B-Vitana/smsv2-sub000/id"
)

// ListOpts controls pagination and filtering for job list queries.
type ListOpts struct {
	// Type filters by job type. Empty means all types.
	Type string
	// State filters by job state. Empty means all states.
	State State
	// Limit is the maximum number of jobs to return. Zero means no limit.
	Limit int
	// Offset is the number of jobs to skip.
	Offset int
}

// CountOpts controls filtering for job count queries.
type CountOpts struct {
	// Type filters by job type. Empty means all types.
	Type string
	// State filters by job state. Empty means all states.
	State State
}

// Store defines the persistence contract for jobs.
type Store interface {
	// EnqueueJob persists a new job. The store assigns Seq.
	EnqueueJob(ctx context.Context, j *Job) error

	// DequeueJobs atomically claims up to limit pending jobs, sets them to
	// processing, stamps StartedAt and returns them. Jobs are claimed in
	// insertion order.
	DequeueJobs(ctx context.Context, limit int) ([]*Job, error)

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID id.JobID) (*Job, error)

	// UpdateJob persists changes to an existing job.
	UpdateJob(ctx context.Context, j *Job) error

	// UpdateProgress sets the progress of a processing job. Progress never
	// decreases and terminal jobs are left untouched.
	UpdateProgress(ctx context.Context, jobID id.JobID, pct int) error

	// ListJobs returns jobs in insertion order.
	ListJobs(ctx context.Context, opts ListOpts) ([]*Job, error)

	// CountJobs returns the number of jobs matching the given options.
	CountJobs(ctx context.Context, opts CountOpts) (int64, error)

	// PurgeCompleted deletes completed jobs whose CompletedAt is before the
	// cutoff and returns how many were removed. Failed jobs are kept.
	PurgeCompleted(ctx context.Context, before time.Time) (int, error)
}
