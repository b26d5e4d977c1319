package middleware

import (
	"context"
	"log/slog"

	"github.com/Santosh-B-Vitana/smsv2-sub000/job"
)

// Timeout returns middleware that enforces a per-job execution deadline.
// Jobs carry no deadline by default; only a type registered with
// job.WithTimeout gets one. When the deadline passes the context is
// cancelled and the handler is expected to return ctx.Err().
func Timeout(logger *slog.Logger) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) error {
		if j.Timeout > 0 {
			logger.Debug("job timeout set",
				slog.String("job_id", j.ID.String()),
				slog.Duration("timeout", j.Timeout),
			)
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, j.Timeout)
			defer cancel()
		}
		return next(ctx)
	}
}
