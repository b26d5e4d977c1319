package observability_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Santosh-B-Vitana/smsv2-sub000/ext"
	"github.com/Santosh-B-Vitana/smsv2-sub000/id"
	"github.com/Santosh-B-Vitana/smsv2-sub000/job"
	"github.com/Santosh-B-Vitana/smsv2-sub000/observability"
)

func newTestExtension() (*observability.MetricsExtension, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	return observability.NewMetricsExtensionWithMeter(mp.Meter("test")), reader
}

func newTestJob() *job.Job {
	return &job.Job{ID: id.NewJobID(), Type: "fees.reminders"}
}

// counterTotal sums all data points of the named Int64 counter.
func counterTotal(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("%s: unexpected data type %T", name, m.Data)
			}
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	return 0
}

func TestMetricsExtension_Name(t *testing.T) {
	e, _ := newTestExtension()
	if e.Name() != "observability-metrics" {
		t.Errorf("Name = %q", e.Name())
	}
}

func TestMetricsExtension_Hooks(t *testing.T) {
	e, reader := newTestExtension()
	ctx := context.Background()
	j := newTestJob()

	_ = e.OnJobEnqueued(ctx, j)
	_ = e.OnJobEnqueued(ctx, j)
	_ = e.OnJobCompleted(ctx, j, 100*time.Millisecond)
	_ = e.OnJobFailed(ctx, j, errors.New("boom"))
	_ = e.OnJobsPurged(ctx, 7)

	tests := []struct {
		name string
		want int64
	}{
		{"smsv2.job.enqueued", 2},
		{"smsv2.job.completed", 1},
		{"smsv2.job.failed", 1},
		{"smsv2.job.purged", 7},
	}
	for _, tt := range tests {
		if got := counterTotal(t, reader, tt.name); got != tt.want {
			t.Errorf("%s = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestMetricsExtension_ViaRegistry(t *testing.T) {
	e, reader := newTestExtension()
	reg := ext.NewRegistry(slog.Default())
	reg.Register(e)

	ctx := context.Background()
	reg.EmitJobEnqueued(ctx, newTestJob())
	reg.EmitJobFailed(ctx, newTestJob(), errors.New("x"))

	if got := counterTotal(t, reader, "smsv2.job.enqueued"); got != 1 {
		t.Errorf("enqueued = %d, want 1", got)
	}
	if got := counterTotal(t, reader, "smsv2.job.failed"); got != 1 {
		t.Errorf("failed = %d, want 1", got)
	}
}
