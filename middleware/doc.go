// Package middleware provides composable middleware for job execution.
//
// A [Middleware] is a function that wraps a job handler. Middleware are
// composed into a chain using [Chain] and applied before each job executes.
// They are applied right-to-left: the first middleware in the slice is the
// outermost wrapper.
//
//	// logging → recover → handler
//	chain := middleware.Chain(middleware.Logging(logger), middleware.Recover(logger))
//
// # Built-in Middleware
//
//   - [Logging]: logs job type, tenant, duration, and outcome
//   - [Recover]: catches panics and converts them to errors
//   - [Timeout]: cancels the job context after the job's Timeout, if set
//   - [Tracing]: wraps execution in an OpenTelemetry span
//   - [Metrics]: records per-type duration and outcome counters
//   - [Scope]: restores the job's tenant into the context
//
// # Writing Custom Middleware
//
//	func AuditTrail(w io.Writer) middleware.Middleware {
//	    return func(ctx context.Context, j *job.Job, next middleware.Handler) error {
//	        err := next(ctx)
//	        fmt.Fprintf(w, "%s %s err=%v\n", j.Type, j.ID, err)
//	        return err
//	    }
//	}
//
// Middleware MUST call next to continue the chain unless intentionally
// short-circuiting.
package middleware
