package engine_test

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	smsv2 "github.com/Santosh-B-Vitana/smsv2-sub000"
	"github.com/Santosh-B-Vitana/smsv2-sub000/engine"
	"github.com/Santosh-B-Vitana/smsv2-sub000/id"
	"github.com/Santosh-B-Vitana/smsv2-sub000/job"
	"github.com/Santosh-B-Vitana/smsv2-sub000/ratelimit"
	"github.com/Santosh-B-Vitana/smsv2-sub000/scope"
)

type reminderBatch struct {
	School     string   `json:"school"`
	StudentIDs []string `json:"studentIds"`
}

type reminderReport struct {
	Sent int `json:"sent"`
}

func newTestEngine(t *testing.T, opts ...engine.Option) *engine.Engine {
	t.Helper()
	cfg := smsv2.DefaultConfig()
	cfg.PollInterval = 10 * time.Millisecond
	opts = append([]engine.Option{engine.WithConfig(cfg), engine.WithLogger(slog.Default())}, opts...)

	eng, err := engine.New(opts...)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = eng.Stop(ctx)
	})
	return eng
}

func wait(t *testing.T, eng *engine.Engine, jobID id.JobID) *job.Job {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	j, err := eng.Wait(ctx, jobID)
	if err != nil {
		t.Fatalf("Wait(%s): %v", jobID, err)
	}
	return j
}

func TestEngine_EndToEnd(t *testing.T) {
	eng := newTestEngine(t)

	var gotTenant string
	engine.Register(eng, job.NewDefinition("fees.reminders", func(ctx context.Context, b reminderBatch) (reminderReport, error) {
		gotTenant = scope.Capture(ctx)
		job.ReportProgress(ctx, 50)
		return reminderReport{Sent: len(b.StudentIDs)}, nil
	}))

	ctx := scope.WithTenant(context.Background(), "SCH001")
	j, err := engine.Enqueue(ctx, eng, "fees.reminders", reminderBatch{School: "SCH001", StudentIDs: []string{"a", "b", "c"}})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if j.State != job.StatePending {
		t.Errorf("State = %s, want pending", j.State)
	}
	if j.Tenant != "SCH001" {
		t.Errorf("Tenant = %q", j.Tenant)
	}

	if err := eng.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	done := wait(t, eng, j.ID)
	if done.State != job.StateCompleted {
		t.Fatalf("State = %s, want completed (error %q)", done.State, done.Error)
	}
	if done.Progress != 100 {
		t.Errorf("Progress = %d, want 100", done.Progress)
	}
	if string(done.Result) != `{"sent":3}` {
		t.Errorf("Result = %s", done.Result)
	}
	if gotTenant != "SCH001" {
		t.Errorf("handler tenant = %q, want SCH001", gotTenant)
	}
}

func TestEngine_UnregisteredTypeFailsImmediately(t *testing.T) {
	eng := newTestEngine(t)

	j, err := eng.EnqueueRaw(context.Background(), "ghost", nil)
	if err != nil {
		t.Fatalf("EnqueueRaw: %v", err)
	}
	if j.State != job.StateFailed {
		t.Fatalf("State = %s, want failed", j.State)
	}
	if !strings.Contains(j.Error, "no handler registered for job type") {
		t.Errorf("Error = %q", j.Error)
	}
	if j.StartedAt != nil {
		t.Error("an unregistered job must never reach processing")
	}
	if j.CompletedAt == nil {
		t.Error("CompletedAt should be stamped")
	}

	got, err := eng.Job(context.Background(), j.ID)
	if err != nil || got.State != job.StateFailed {
		t.Fatalf("Job = %+v, %v", got, err)
	}
}

func TestEngine_EnqueueValidation(t *testing.T) {
	eng := newTestEngine(t)

	if _, err := eng.EnqueueRaw(context.Background(), "", nil); !errors.Is(err, smsv2.ErrEmptyJobType) {
		t.Fatalf("err = %v, want ErrEmptyJobType", err)
	}

	_ = eng.Stop(context.Background())
	if _, err := eng.EnqueueRaw(context.Background(), "x", nil); !errors.Is(err, smsv2.ErrEngineStopped) {
		t.Fatalf("err = %v, want ErrEngineStopped", err)
	}
}

func TestEngine_FIFOStartedAt(t *testing.T) {
	eng := newTestEngine(t)
	eng.RegisterFunc("noop", func(context.Context, []byte) ([]byte, error) { return nil, nil })

	var ids []id.JobID
	for range 3 {
		j, err := eng.EnqueueRaw(context.Background(), "noop", nil)
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, j.ID)
	}
	_ = eng.Start(context.Background())

	var prev time.Time
	for i, jobID := range ids {
		j := wait(t, eng, jobID)
		if j.StartedAt == nil {
			t.Fatalf("job %d has no StartedAt", i)
		}
		if j.StartedAt.Before(prev) {
			t.Fatalf("job %d started before its predecessor", i)
		}
		prev = *j.StartedAt
	}
}

func TestEngine_HandlerErrorDoesNotWedgeQueue(t *testing.T) {
	eng := newTestEngine(t)
	eng.RegisterFunc("bad", func(context.Context, []byte) ([]byte, error) {
		return nil, errors.New("roster locked")
	})
	eng.RegisterFunc("good", func(context.Context, []byte) ([]byte, error) { return nil, nil })

	bad, _ := eng.EnqueueRaw(context.Background(), "bad", nil)
	good, _ := eng.EnqueueRaw(context.Background(), "good", nil)
	_ = eng.Start(context.Background())

	if j := wait(t, eng, bad.ID); j.State != job.StateFailed || j.Error != "roster locked" {
		t.Fatalf("bad = %s %q", j.State, j.Error)
	}
	if j := wait(t, eng, good.ID); j.State != job.StateCompleted {
		t.Fatalf("good = %s", j.State)
	}
}

func TestEngine_UpdateProgress(t *testing.T) {
	eng := newTestEngine(t)

	release := make(chan struct{})
	eng.RegisterFunc("import", func(context.Context, []byte) ([]byte, error) {
		<-release
		return nil, nil
	})

	j, _ := eng.EnqueueRaw(context.Background(), "import", nil)
	_ = eng.Start(context.Background())

	deadline := time.After(5 * time.Second)
	for {
		cur, _ := eng.Job(context.Background(), j.ID)
		if cur.State == job.StateProcessing {
			break
		}
		select {
		case <-deadline:
			t.Fatal("job never started")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}

	ctx := context.Background()
	steps := []struct{ in, want int }{{30, 30}, {10, 30}, {150, 100}}
	for _, s := range steps {
		if err := eng.UpdateProgress(ctx, j.ID, s.in); err != nil {
			t.Fatalf("UpdateProgress(%d): %v", s.in, err)
		}
		cur, _ := eng.Job(ctx, j.ID)
		if cur.Progress != s.want {
			t.Errorf("after %d: Progress = %d, want %d", s.in, cur.Progress, s.want)
		}
	}
	close(release)
	wait(t, eng, j.ID)

	if err := eng.UpdateProgress(ctx, id.NewJobID(), 50); err != nil {
		t.Fatalf("UpdateProgress on missing job = %v, want nil", err)
	}
}

func TestEngine_ListingAndClearOldJobs(t *testing.T) {
	eng := newTestEngine(t)
	eng.RegisterFunc("ok", func(context.Context, []byte) ([]byte, error) { return nil, nil })
	eng.RegisterFunc("bad", func(context.Context, []byte) ([]byte, error) { return nil, errors.New("x") })

	ctx := context.Background()
	ok1, _ := eng.EnqueueRaw(ctx, "ok", nil)
	ok2, _ := eng.EnqueueRaw(ctx, "ok", nil)
	bad, _ := eng.EnqueueRaw(ctx, "bad", nil)
	_ = eng.Start(ctx)
	for _, jobID := range []id.JobID{ok1.ID, ok2.ID, bad.ID} {
		wait(t, eng, jobID)
	}

	all, _ := eng.Jobs(ctx)
	if len(all) != 3 {
		t.Fatalf("Jobs = %d, want 3", len(all))
	}
	oks, _ := eng.JobsByType(ctx, "ok")
	if len(oks) != 2 || oks[0].ID != ok1.ID {
		t.Fatalf("JobsByType(ok) = %d jobs", len(oks))
	}
	failed, _ := eng.JobsByState(ctx, job.StateFailed)
	if len(failed) != 1 || failed[0].ID != bad.ID {
		t.Fatalf("JobsByState(failed) = %d jobs", len(failed))
	}
	if n, _ := eng.CountJobs(ctx, "ok", job.StateCompleted); n != 2 {
		t.Fatalf("CountJobs(ok, completed) = %d, want 2", n)
	}
	if n, _ := eng.CountJobs(ctx, "", ""); n != 3 {
		t.Fatalf("CountJobs() = %d, want 3", n)
	}

	if _, err := eng.ClearOldJobs(ctx, -time.Second); !errors.Is(err, smsv2.ErrInvalidMaxAge) {
		t.Fatalf("err = %v, want ErrInvalidMaxAge", err)
	}

	// Nothing is an hour old yet.
	if n, _ := eng.ClearOldJobs(ctx, time.Hour); n != 0 {
		t.Fatalf("ClearOldJobs(1h) = %d, want 0", n)
	}

	time.Sleep(5 * time.Millisecond)
	n, err := eng.ClearOldJobs(ctx, time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("ClearOldJobs = %d, want 2", n)
	}
	if _, err := eng.Job(ctx, bad.ID); err != nil {
		t.Fatalf("failed job should be retained: %v", err)
	}
	if _, err := eng.Job(ctx, ok1.ID); !errors.Is(err, smsv2.ErrJobNotFound) {
		t.Fatalf("err = %v, want ErrJobNotFound", err)
	}
}

func TestEngine_WaitHonoursContext(t *testing.T) {
	eng := newTestEngine(t)
	eng.RegisterFunc("never", func(ctx context.Context, _ []byte) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	// Not started: the job stays pending.
	j, _ := eng.EnqueueRaw(context.Background(), "never", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	got, err := eng.Wait(ctx, j.ID)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want DeadlineExceeded", err)
	}
	if got.State != job.StatePending {
		t.Fatalf("State = %s, want pending", got.State)
	}
}

func TestEngine_JobTimeoutOptIn(t *testing.T) {
	eng := newTestEngine(t)
	eng.RegisterFunc("stuck", func(ctx context.Context, _ []byte) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}, job.WithTimeout(20*time.Millisecond))

	j, _ := eng.EnqueueRaw(context.Background(), "stuck", nil)
	if j.Timeout != 20*time.Millisecond {
		t.Fatalf("Timeout = %v", j.Timeout)
	}
	_ = eng.Start(context.Background())

	got := wait(t, eng, j.ID)
	if got.State != job.StateFailed || !strings.Contains(got.Error, "deadline exceeded") {
		t.Fatalf("got %s %q", got.State, got.Error)
	}
}

func TestEngine_RateLimit(t *testing.T) {
	cfg := smsv2.DefaultConfig()
	cfg.RateLimitMax = 2
	cfg.RateLimitWindow = time.Hour
	eng := newTestEngine(t, engine.WithConfig(cfg))
	ctx := context.Background()

	key := ratelimit.Key("attendance", "SCH001")
	if !eng.CheckLimit(key) {
		t.Fatal("first call denied")
	}
	res := eng.CheckLimitResult(ctx, key)
	if !res.Allowed || res.Remaining != 0 {
		t.Fatalf("second call = %+v", res)
	}
	if eng.CheckLimit(key) {
		t.Fatal("third call allowed")
	}

	err := eng.RequireLimit(ctx, key)
	var ex *ratelimit.ExceededError
	if !errors.As(err, &ex) || ex.RetryAfter <= 0 {
		t.Fatalf("RequireLimit err = %v", err)
	}

	if !eng.CheckLimitN("bulk:SCH001", 1) || eng.CheckLimitN("bulk:SCH001", 1) {
		t.Fatal("CheckLimitN should allow exactly one call")
	}
}

func TestEngine_CustomLimiter(t *testing.T) {
	eng := newTestEngine(t, engine.WithLimiter(ratelimit.NewTokenBucket(1, time.Hour)))

	if !eng.CheckLimit("k") {
		t.Fatal("first call denied")
	}
	if err := eng.RequireLimit(context.Background(), "k"); !errors.Is(err, ratelimit.ErrRateLimitExceeded) {
		t.Fatalf("err = %v", err)
	}
}

func TestEngine_SweepsTokenBuckets(t *testing.T) {
	cfg := smsv2.DefaultConfig()
	cfg.PollInterval = 10 * time.Millisecond
	cfg.RateLimitSweepInterval = 5 * time.Millisecond
	bucket := ratelimit.NewTokenBucket(1, 10*time.Millisecond)
	eng := newTestEngine(t, engine.WithConfig(cfg), engine.WithLimiter(bucket))

	for _, school := range []string{"SCH001", "SCH002", "SCH003"} {
		eng.CheckLimit(ratelimit.Key("fees", school))
	}
	if bucket.Len() != 3 {
		t.Fatalf("Len = %d, want 3", bucket.Len())
	}

	if err := eng.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for bucket.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("idle buckets not swept, Len = %d", bucket.Len())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestEngine_StartStopIdempotent(t *testing.T) {
	var mu sync.Mutex
	shut := 0
	eng := newTestEngine(t, engine.WithExtension(shutdownExt{fn: func() { mu.Lock(); shut++; mu.Unlock() }}))
	ctx := context.Background()

	if err := eng.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := eng.Start(ctx); err != nil {
		t.Fatal(err)
	}

	if err := eng.Stop(ctx); err != nil {
		t.Fatal(err)
	}
	if err := eng.Stop(ctx); err != nil {
		t.Fatal(err)
	}
	if err := eng.Start(ctx); !errors.Is(err, smsv2.ErrEngineStopped) {
		t.Fatalf("restart err = %v, want ErrEngineStopped", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if shut != 1 {
		t.Fatalf("shutdown hook fired %d times, want 1", shut)
	}
}

func TestEngine_Paginator(t *testing.T) {
	eng := newTestEngine(t)

	loads := 0
	p := engine.NewPaginator(eng, func(context.Context, string) ([]string, error) {
		loads++
		return []string{"a", "b", "c", "d", "e"}, nil
	}, func(s string) string { return s })

	ctx := context.Background()
	for page := 1; page <= 3; page++ {
		if _, err := p.Offset(ctx, "letters", nil, page, 2); err != nil {
			t.Fatal(err)
		}
	}
	if loads != 1 {
		t.Fatalf("loads = %d, want 1", loads)
	}
}

type shutdownExt struct{ fn func() }

func (shutdownExt) Name() string { return "shutdown-probe" }

func (e shutdownExt) OnShutdown(context.Context) error {
	e.fn()
	return nil
}
