// Package observability provides a lifecycle extension that records
// system-wide job counters through the OpenTelemetry metric API.
// Register it with the engine to track enqueue, completion, failure and
// purge rates per job type.
package observability
