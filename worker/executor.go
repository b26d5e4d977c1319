// Package worker runs queued jobs. An Executor invokes the registered
// handler for one job through the middleware chain and records the
// outcome. A Pool owns the worker goroutines that claim pending jobs in
// FIFO order and feed them to the Executor.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	smsv2 "github.com/Santosh-B-Vitana/smsv2-sub000"
	"github.com/Santosh-B-Vitana/smsv2-sub000/ext"
	"github.com/Santosh-B-Vitana/smsv2-sub000/job"
	"github.com/Santosh-B-Vitana/smsv2-sub000/middleware"
)

// Executor runs a single job through middleware and the registered handler,
// then persists the terminal state and emits lifecycle events.
type Executor struct {
	registry   *job.Registry
	extensions *ext.Registry
	store      job.Store
	mw         middleware.Middleware
	logger     *slog.Logger
	now        func() time.Time
}

// NewExecutor creates an Executor with the given dependencies.
func NewExecutor(
	registry *job.Registry,
	extensions *ext.Registry,
	store job.Store,
	logger *slog.Logger,
	mws ...middleware.Middleware,
) *Executor {
	return &Executor{
		registry:   registry,
		extensions: extensions,
		store:      store,
		mw:         middleware.Chain(mws...),
		logger:     logger,
		now:        time.Now,
	}
}

// MissingHandlerError is the failure recorded for a job whose type has no
// registered handler. It matches smsv2.ErrHandlerNotFound.
func MissingHandlerError(jobType string) error {
	return fmt.Errorf("%w for job type %q", smsv2.ErrHandlerNotFound, jobType)
}

// Execute runs a processing job to a terminal state.
// On success the job becomes completed with progress 100 and the handler's
// result. On failure it becomes failed with the error message. CompletedAt
// is stamped either way. The returned error is the handler's error, or a
// store error if the outcome could not be saved.
func (e *Executor) Execute(ctx context.Context, j *job.Job) error {
	handler, ok := e.registry.Get(j.Type)
	if !ok {
		return e.fail(ctx, j, MissingHandlerError(j.Type), 0)
	}

	ctx = job.WithProgress(ctx, e.progressReporter(j))

	var result []byte
	terminal := func(ctx context.Context) error {
		var err error
		result, err = handler(ctx, j.Payload)
		return err
	}

	start := time.Now()
	err := e.mw(ctx, j, terminal)
	elapsed := time.Since(start)

	if err != nil {
		return e.fail(ctx, j, err, elapsed)
	}
	return e.complete(ctx, j, result, elapsed)
}

func (e *Executor) complete(ctx context.Context, j *job.Job, result []byte, elapsed time.Duration) error {
	now := e.now().UTC()
	j.State = job.StateCompleted
	j.Progress = 100
	j.Result = result
	j.Error = ""
	j.CompletedAt = &now

	if err := e.store.UpdateJob(ctx, j); err != nil {
		e.logger.Error("failed to update job after success",
			slog.String("job_id", j.ID.String()),
			slog.String("job_type", j.Type),
			slog.String("error", err.Error()),
		)
		return err
	}

	e.extensions.EmitJobCompleted(ctx, j, elapsed)
	return nil
}

func (e *Executor) fail(ctx context.Context, j *job.Job, jobErr error, elapsed time.Duration) error {
	// Progress may have been raised through the store directly; keep it.
	if cur, err := e.store.GetJob(ctx, j.ID); err == nil && cur.Progress > j.Progress {
		j.Progress = cur.Progress
	}

	now := e.now().UTC()
	j.State = job.StateFailed
	j.Error = jobErr.Error()
	j.CompletedAt = &now

	if err := e.store.UpdateJob(ctx, j); err != nil {
		e.logger.Error("failed to update job as failed",
			slog.String("job_id", j.ID.String()),
			slog.String("error", err.Error()),
		)
		return errors.Join(jobErr, err)
	}

	e.extensions.EmitJobFailed(ctx, j, jobErr)

	e.logger.Warn("job failed",
		slog.String("job_id", j.ID.String()),
		slog.String("job_type", j.Type),
		slog.Duration("elapsed", elapsed),
		slog.String("error", j.Error),
	)
	return jobErr
}

// progressReporter persists progress for j and mirrors the accepted value
// onto the in-flight copy so the final UpdateJob does not regress it.
func (e *Executor) progressReporter(j *job.Job) job.ProgressFunc {
	var mu sync.Mutex
	return func(ctx context.Context, pct int) {
		mu.Lock()
		defer mu.Unlock()

		if pct <= j.Progress {
			return
		}
		if err := e.store.UpdateProgress(ctx, j.ID, pct); err != nil {
			e.logger.Warn("progress update failed",
				slog.String("job_id", j.ID.String()),
				slog.String("error", err.Error()),
			)
			return
		}
		j.Progress = pct
		e.extensions.EmitJobProgressed(ctx, j, pct)
	}
}
