// Package engine wires the job, worker, middleware, extension and rate
// limiting subsystems into one explicitly constructed value.
//
// The engine package sits above the subsystem packages so that the root
// smsv2 package (config and sentinel errors) can be imported by all of
// them without a cycle.
//
// # Building an Engine
//
//	eng, err := engine.New(
//	    engine.WithConcurrency(1),
//	    engine.WithLogger(logger),
//	    engine.WithExtension(observability.NewMetricsExtension()),
//	)
//
// # Registering and Enqueuing Work
//
//	engine.Register(eng, job.NewDefinition("reports.generate", generate))
//	j, err := engine.Enqueue(ctx, eng, "reports.generate", req)
//	done, err := eng.Wait(ctx, j.ID)
//
// A job whose type has no handler is returned already failed; Enqueue
// itself does not report an error for it.
//
// # Rate Limiting
//
//	if err := eng.RequireLimit(ctx, ratelimit.Key("fees", schoolID)); err != nil {
//	    return err // *ratelimit.ExceededError
//	}
//
// # Options
//
//   - [WithConfig] replaces the whole configuration
//   - [WithConcurrency] sets the number of workers
//   - [WithLogger] sets the structured logger
//   - [WithExtension] registers a lifecycle extension
//   - [WithMiddleware] appends to the execution chain
//   - [WithLimiter] replaces the default fixed-window limiter
//   - [WithStore] replaces the in-memory job store
//   - [WithTracerProvider] and [WithMeterProvider] set OpenTelemetry providers
package engine
