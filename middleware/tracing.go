package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Santosh-B-Vitana/smsv2-sub000/job"
)

// instrumentationName is the OTel instrumentation scope for the job runner.
const instrumentationName = "github.com/Santosh-B-Vitana/smsv2-sub000"

// Tracing returns middleware that wraps job execution in an OpenTelemetry
// span using the global TracerProvider. Without a configured provider the
// noop tracer is used.
//
// Span attributes: smsv2.job.id, smsv2.job.type, smsv2.tenant.
func Tracing() Middleware {
	return TracingWithTracer(otel.Tracer(instrumentationName))
}

// TracingWithTracer returns tracing middleware using the provided tracer.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) error {
		ctx, span := tracer.Start(ctx, "smsv2.job.execute",
			trace.WithAttributes(
				attribute.String("smsv2.job.id", j.ID.String()),
				attribute.String("smsv2.job.type", j.Type),
				attribute.String("smsv2.tenant", j.Tenant),
			),
			trace.WithSpanKind(trace.SpanKindInternal),
		)
		defer span.End()

		err := next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}

		return err
	}
}
