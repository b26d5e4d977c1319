package middleware_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/Santosh-B-Vitana/smsv2-sub000/id"
	"github.com/Santosh-B-Vitana/smsv2-sub000/job"
	"github.com/Santosh-B-Vitana/smsv2-sub000/middleware"
	"github.com/Santosh-B-Vitana/smsv2-sub000/scope"
)

func TestChain_ExecutionOrder(t *testing.T) {
	var order []string

	mw1 := func(ctx context.Context, _ *job.Job, next middleware.Handler) error {
		order = append(order, "mw1-before")
		err := next(ctx)
		order = append(order, "mw1-after")
		return err
	}
	mw2 := func(ctx context.Context, _ *job.Job, next middleware.Handler) error {
		order = append(order, "mw2-before")
		err := next(ctx)
		order = append(order, "mw2-after")
		return err
	}

	chain := middleware.Chain(mw1, mw2)
	j := &job.Job{Type: "test", ID: id.NewJobID()}
	err := chain(context.Background(), j, func(_ context.Context) error {
		order = append(order, "handler")
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []string{"mw1-before", "mw2-before", "handler", "mw2-after", "mw1-after"}
	if len(order) != len(expected) {
		t.Fatalf("expected %d calls, got %d: %v", len(expected), len(order), order)
	}
	for i, want := range expected {
		if order[i] != want {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want)
		}
	}
}

func TestChain_Empty(t *testing.T) {
	called := false
	err := middleware.Chain()(context.Background(), &job.Job{ID: id.NewJobID()}, func(_ context.Context) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("handler not called with empty chain")
	}
}

func TestChain_PropagatesError(t *testing.T) {
	pass := func(ctx context.Context, _ *job.Job, next middleware.Handler) error {
		return next(ctx)
	}
	want := errors.New("handler error")

	err := middleware.Chain(pass)(context.Background(), &job.Job{ID: id.NewJobID()}, func(_ context.Context) error {
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}

func TestRecover_CatchesPanic(t *testing.T) {
	mw := middleware.Recover(slog.Default())
	j := &job.Job{Type: "report-card", ID: id.NewJobID()}

	err := mw(context.Background(), j, func(_ context.Context) error {
		panic("test panic")
	})
	if err == nil {
		t.Fatal("expected error from panic recovery")
	}
	if got := err.Error(); got != "panic in job report-card: test panic" {
		t.Errorf("unexpected error message: %q", got)
	}
}

func TestRecover_PassesThrough(t *testing.T) {
	mw := middleware.Recover(slog.Default())

	called := false
	err := mw(context.Background(), &job.Job{Type: "normal", ID: id.NewJobID()}, func(_ context.Context) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("handler not called")
	}
}

func TestLogging_PassesResult(t *testing.T) {
	mw := middleware.Logging(slog.Default())
	j := &job.Job{Type: "log-test", ID: id.NewJobID(), Tenant: "SCH001"}

	if err := mw(context.Background(), j, func(_ context.Context) error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := errors.New("fail")
	if err := mw(context.Background(), j, func(_ context.Context) error { return want }); !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}

func TestScope_RestoresTenant(t *testing.T) {
	mw := middleware.Scope()
	j := &job.Job{Type: "scoped", ID: id.NewJobID(), Tenant: "SCH042"}

	err := mw(context.Background(), j, func(ctx context.Context) error {
		got, ok := scope.Tenant(ctx)
		if !ok || got != "SCH042" {
			t.Errorf("Tenant = %q, %v; want SCH042, true", got, ok)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestScope_NoOpWhenEmpty(t *testing.T) {
	mw := middleware.Scope()

	err := mw(context.Background(), &job.Job{Type: "unscoped", ID: id.NewJobID()}, func(ctx context.Context) error {
		if _, ok := scope.Tenant(ctx); ok {
			t.Fatal("expected no tenant in context for unscoped job")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTimeout_NoDeadlineByDefault(t *testing.T) {
	mw := middleware.Timeout(slog.Default())

	err := mw(context.Background(), &job.Job{Type: "slow", ID: id.NewJobID()}, func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); ok {
			t.Error("expected no deadline for a job without Timeout")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTimeout_CancelsAfterDeadline(t *testing.T) {
	mw := middleware.Timeout(slog.Default())
	j := &job.Job{Type: "slow", ID: id.NewJobID(), Timeout: 20 * time.Millisecond}

	err := mw(context.Background(), j, func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
			return nil
		}
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
}
