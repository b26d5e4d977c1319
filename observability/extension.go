package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Santosh-B-Vitana/smsv2-sub000/ext"
	"github.com/Santosh-B-Vitana/smsv2-sub000/job"
)

// Compile-time interface checks.
var (
	_ ext.Extension    = (*MetricsExtension)(nil)
	_ ext.JobEnqueued  = (*MetricsExtension)(nil)
	_ ext.JobCompleted = (*MetricsExtension)(nil)
	_ ext.JobFailed    = (*MetricsExtension)(nil)
	_ ext.JobsPurged   = (*MetricsExtension)(nil)
)

const meterName = "github.com/Santosh-B-Vitana/smsv2-sub000/observability"

// MetricsExtension records lifecycle counters. Job counters carry a
// job_type attribute.
type MetricsExtension struct {
	JobEnqueued  metric.Int64Counter
	JobCompleted metric.Int64Counter
	JobFailed    metric.Int64Counter
	JobsPurged   metric.Int64Counter
}

// NewMetricsExtension creates a MetricsExtension on the global MeterProvider.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.Meter(meterName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension with the provided meter.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	counter := func(name, desc string) metric.Int64Counter {
		// The API hands back a noop instrument alongside any error.
		c, _ := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit("{job}"))
		return c
	}
	return &MetricsExtension{
		JobEnqueued:  counter("smsv2.job.enqueued", "Jobs accepted by Enqueue"),
		JobCompleted: counter("smsv2.job.completed", "Jobs that finished successfully"),
		JobFailed:    counter("smsv2.job.failed", "Jobs that ended in the failed state"),
		JobsPurged:   counter("smsv2.job.purged", "Completed jobs removed by retention"),
	}
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnJobEnqueued implements ext.JobEnqueued.
func (m *MetricsExtension) OnJobEnqueued(ctx context.Context, j *job.Job) error {
	m.JobEnqueued.Add(ctx, 1, typeAttr(j))
	return nil
}

// OnJobCompleted implements ext.JobCompleted.
func (m *MetricsExtension) OnJobCompleted(ctx context.Context, j *job.Job, _ time.Duration) error {
	m.JobCompleted.Add(ctx, 1, typeAttr(j))
	return nil
}

// OnJobFailed implements ext.JobFailed.
func (m *MetricsExtension) OnJobFailed(ctx context.Context, j *job.Job, _ error) error {
	m.JobFailed.Add(ctx, 1, typeAttr(j))
	return nil
}

// OnJobsPurged implements ext.JobsPurged.
func (m *MetricsExtension) OnJobsPurged(ctx context.Context, count int) error {
	m.JobsPurged.Add(ctx, int64(count))
	return nil
}

func typeAttr(j *job.Job) metric.AddOption {
	return metric.WithAttributes(attribute.String("job_type", j.Type))
}
