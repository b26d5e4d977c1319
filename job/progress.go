package job

import "context"

// ProgressFunc records a progress percentage for the running job.
type ProgressFunc func(ctx context.Context, pct int)

type progressKey struct{}

// WithProgress returns a context carrying fn. The worker executor installs
// one for every job it runs.
func WithProgress(ctx context.Context, fn ProgressFunc) context.Context {
	return context.WithValue(ctx, progressKey{}, fn)
}

// ReportProgress records pct for the job whose handler owns ctx. Values are
// clamped to [0, 100]. It is a no-op outside a job handler.
func ReportProgress(ctx context.Context, pct int) {
	fn, ok := ctx.Value(progressKey{}).(ProgressFunc)
	if !ok || fn == nil {
		return
	}
	fn(ctx, ClampProgress(pct))
}
