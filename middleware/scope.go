package middleware

import (
	"context"

	"github.com/Santosh-B-Vitana/smsv2-sub000/job"
	"github.com/Santosh-B-Vitana/smsv2-sub000/scope"
)

// Scope returns middleware that restores the job's tenant into the
// context, so handlers see the same tenant as the enqueue caller.
func Scope() Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) error {
		return next(scope.Restore(ctx, j.Tenant))
	}
}
