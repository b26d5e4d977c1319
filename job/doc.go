// Package job defines the job entity, state machine, typed definitions,
// and store interface.
//
// # Job Entity
//
// A [Job] represents a unit of background work. It carries a JSON payload,
// a progress percentage, and progresses through a one-way state machine:
//
//	pending → processing → completed
//	pending → processing → failed
//	pending → failed          (no handler registered for the type)
//
// Terminal states are final: there is no retry, cancellation or re-queue.
//
// Fields of note:
//   - Type: selects the registered handler
//   - Seq: insertion order, which is also execution order
//   - Progress: 0..100, reported by the handler via [ReportProgress]
//   - Result / Error: outcome of the handler (Error is the message only)
//   - Timeout: optional per-job execution deadline (zero = unlimited)
//
// # Defining a Job
//
// Use [Definition] with a typed handler. The payload is JSON-serialized
// at enqueue time and deserialized before the handler runs; the result is
// serialized back into [Job.Result]:
//
//	var BulkFeeReminder = job.NewDefinition("fees.reminders",
//	    func(ctx context.Context, in ReminderBatch) (ReminderReport, error) {
//	        for i, s := range in.Students {
//	            notify(s)
//	            job.ReportProgress(ctx, (i+1)*100/len(in.Students))
//	        }
//	        return ReminderReport{Sent: len(in.Students)}, nil
//	    },
//	)
//
// # Registry
//
// [Registry] maps job types to type-erased [HandlerFunc] values. At most
// one handler exists per type; the last registration wins.
//
//	job.RegisterDefinition(registry, BulkFeeReminder)
//
// The engine package provides higher-level engine.Register and
// engine.Enqueue wrappers.
package job
