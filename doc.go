// Package smsv2 provides the shared in-process infrastructure behind the
// school-administration services: a background job queue with progress
// tracking, a keyed rate limiter, a TTL cache and cache-aware pagination.
//
// Every primitive is an explicit value constructed once at startup and
// passed to the services that need it. Nothing is held in package-level
// state, so tests build a fresh instance each time.
//
// # Quick Start
//
//	eng, err := engine.New(
//	    engine.WithConcurrency(1),
//	    engine.WithLogger(logger),
//	)
//	engine.Register(eng, job.NewDefinition("fees.reminders", sendReminders))
//	_ = eng.Start(ctx)
//
//	if err := eng.RequireLimit(ctx, ratelimit.Key("fees", schoolID)); err != nil {
//	    return err
//	}
//	j, _ := engine.Enqueue(ctx, eng, "fees.reminders", batch)
//
// # Architecture
//
// The job subsystem follows a composable store pattern: the job package
// defines the Store contract and store/memory implements it. The worker
// package owns the run loop, the middleware package wraps handler calls,
// and the engine package plugs them together. The ratelimit, cache and
// paginate packages have no dependency on the job subsystem.
//
// Job IDs use TypeID: type-prefixed, K-sortable, UUIDv7-based identifiers.
package smsv2
