// Package ext defines the extension system for the job queue.
//
// Extensions are notified of lifecycle events and can react to them:
// recording metrics, pushing progress to a UI channel, writing audit
// logs. Each lifecycle hook is a separate interface so extensions opt in
// only to the events they care about.
//
// # Implementing an Extension
//
//	type FailureToast struct{ notify func(string) }
//
//	func (e *FailureToast) Name() string { return "failure-toast" }
//
//	func (e *FailureToast) OnJobFailed(ctx context.Context, j *job.Job, err error) error {
//	    e.notify(j.Type + ": " + err.Error())
//	    return nil
//	}
//
// # Job Lifecycle Hooks
//
//   - [JobEnqueued]: job was accepted into the queue
//   - [JobStarted]: worker began executing the job
//   - [JobProgressed]: handler reported a new progress value
//   - [JobCompleted]: job finished successfully
//   - [JobFailed]: handler error, panic, or no handler for the type
//   - [JobsPurged]: completed jobs were removed by age
//
// # Other Hooks
//
//   - [Shutdown]: the engine is shutting down gracefully
//
// The [Registry] fans out each event to all registered extensions that
// implement the corresponding hook interface. Hook errors are logged and
// never propagated.
package ext
