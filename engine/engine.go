package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	smsv2 "github.com/Santosh-B-Vitana/smsv2-sub000"
	"github.com/Santosh-B-Vitana/smsv2-sub000/backoff"
	"github.com/Santosh-B-Vitana/smsv2-sub000/ext"
	"github.com/Santosh-B-Vitana/smsv2-sub000/id"
	"github.com/Santosh-B-Vitana/smsv2-sub000/job"
	mw "github.com/Santosh-B-Vitana/smsv2-sub000/middleware"
	"github.com/Santosh-B-Vitana/smsv2-sub000/observability"
	"github.com/Santosh-B-Vitana/smsv2-sub000/ratelimit"
	"github.com/Santosh-B-Vitana/smsv2-sub000/scope"
	"github.com/Santosh-B-Vitana/smsv2-sub000/store/memory"
	"github.com/Santosh-B-Vitana/smsv2-sub000/worker"
)

const instrumentationName = "github.com/Santosh-B-Vitana/smsv2-sub000"

// Engine owns the job queue, its workers and the rate limiter.
type Engine struct {
	config     smsv2.Config
	logger     *slog.Logger
	extensions *ext.Registry
	registry   *job.Registry
	jobStore   job.Store
	pool       *worker.Pool
	limiter    ratelimit.Limiter
	window     *ratelimit.FixedWindow
	waitBo     backoff.Strategy

	exts []ext.Extension
	mws  []mw.Middleware

	// OpenTelemetry providers (optional; nil means use global).
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider

	mu          sync.Mutex
	running     bool
	stopped     bool
	stopSweeper context.CancelFunc
	sweeperDone chan struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig replaces the engine configuration.
func WithConfig(cfg smsv2.Config) Option {
	return func(eng *Engine) { eng.config = cfg }
}

// WithConcurrency sets the number of worker goroutines.
func WithConcurrency(n int) Option {
	return func(eng *Engine) { eng.config.Concurrency = n }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(eng *Engine) { eng.logger = l }
}

// WithExtension registers an extension with the engine.
func WithExtension(e ext.Extension) Option {
	return func(eng *Engine) { eng.exts = append(eng.exts, e) }
}

// WithMiddleware adds middleware after the default chain.
func WithMiddleware(m mw.Middleware) Option {
	return func(eng *Engine) { eng.mws = append(eng.mws, m) }
}

// WithLimiter replaces the default fixed-window limiter.
func WithLimiter(l ratelimit.Limiter) Option {
	return func(eng *Engine) { eng.limiter = l }
}

// WithStore replaces the in-memory job store.
func WithStore(s job.Store) Option {
	return func(eng *Engine) { eng.jobStore = s }
}

// WithWaitBackoff sets the polling strategy used by Wait.
func WithWaitBackoff(b backoff.Strategy) Option {
	return func(eng *Engine) { eng.waitBo = b }
}

// WithTracerProvider sets a custom OTel TracerProvider for the tracing
// middleware. If not set, the global provider is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(eng *Engine) { eng.tracerProvider = tp }
}

// WithMeterProvider sets a custom OTel MeterProvider for the metrics
// middleware and the observability extension.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(eng *Engine) { eng.meterProvider = mp }
}

// New builds an Engine. Nothing runs until Start.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{
		config: smsv2.DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(eng)
	}

	cfg := &eng.config
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if eng.limiter == nil {
		if cfg.RateLimitMax < 1 || cfg.RateLimitWindow <= 0 {
			return nil, fmt.Errorf("smsv2: invalid rate limit %d per %s", cfg.RateLimitMax, cfg.RateLimitWindow)
		}
		eng.window = ratelimit.New(cfg.RateLimitMax, cfg.RateLimitWindow)
		eng.limiter = eng.window
	} else if fw, ok := eng.limiter.(*ratelimit.FixedWindow); ok {
		eng.window = fw
	}
	if eng.jobStore == nil {
		eng.jobStore = memory.New()
	}
	if eng.waitBo == nil {
		eng.waitBo = backoff.DefaultStrategy()
	}

	eng.registry = job.NewRegistry()
	eng.extensions = ext.NewRegistry(eng.logger)

	// Build tracing middleware (custom provider or global).
	tracingMw := mw.Tracing()
	if eng.tracerProvider != nil {
		tracingMw = mw.TracingWithTracer(eng.tracerProvider.Tracer(instrumentationName))
	}

	// Metrics middleware and the observability extension share a provider.
	metricsMw := mw.Metrics()
	obsExt := observability.NewMetricsExtension()
	if eng.meterProvider != nil {
		metricsMw = mw.MetricsWithMeter(eng.meterProvider.Meter(instrumentationName))
		obsExt = observability.NewMetricsExtensionWithMeter(eng.meterProvider.Meter(instrumentationName + "/observability"))
	}
	eng.extensions.Register(obsExt)
	for _, e := range eng.exts {
		eng.extensions.Register(e)
	}

	// Default middleware stack: recover → tracing → metrics → logging → scope → timeout.
	allMws := []mw.Middleware{
		mw.Recover(eng.logger),
		tracingMw,
		metricsMw,
		mw.Logging(eng.logger),
		mw.Scope(),
		mw.Timeout(eng.logger),
	}
	allMws = append(allMws, eng.mws...)

	executor := worker.NewExecutor(eng.registry, eng.extensions, eng.jobStore, eng.logger, allMws...)

	poolOpts := []worker.PoolOption{
		worker.WithPoolConcurrency(cfg.Concurrency),
		worker.WithPollInterval(cfg.PollInterval),
	}
	if cfg.JobRetention > 0 {
		poolOpts = append(poolOpts, worker.WithRetention(cfg.JobRetention, cfg.RetentionInterval))
	}
	eng.pool = worker.NewPool(eng.jobStore, executor, eng.extensions, eng.logger, poolOpts...)

	return eng, nil
}

// Register registers a typed job definition. A later registration for the
// same type replaces the earlier one.
func Register[T, R any](eng *Engine, def *job.Definition[T, R]) {
	job.RegisterDefinition(eng.registry, def)
}

// RegisterFunc registers a raw handler for jobType.
func (eng *Engine) RegisterFunc(jobType string, h job.HandlerFunc, opts ...job.Option) {
	eng.registry.Register(jobType, h, opts...)
}

// Enqueue marshals payload to JSON and enqueues a job of jobType.
func Enqueue[T any](ctx context.Context, eng *Engine, jobType string, payload T, opts ...job.Option) (*job.Job, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload for job %q: %w", jobType, err)
	}
	return eng.EnqueueRaw(ctx, jobType, data, opts...)
}

// EnqueueRaw stores a pending job and wakes a worker. It returns a copy
// of the job immediately without waiting for execution.
//
// If jobType has no registered handler the job is stored already failed
// and never reaches processing; that is not an Enqueue error.
func (eng *Engine) EnqueueRaw(ctx context.Context, jobType string, payload []byte, opts ...job.Option) (*job.Job, error) {
	if jobType == "" {
		return nil, smsv2.ErrEmptyJobType
	}
	eng.mu.Lock()
	stopped := eng.stopped
	eng.mu.Unlock()
	if stopped {
		return nil, smsv2.ErrEngineStopped
	}

	now := time.Now().UTC()
	j := &job.Job{
		ID:        id.NewJobID(),
		Type:      jobType,
		Payload:   payload,
		State:     job.StatePending,
		Tenant:    scope.Capture(ctx),
		CreatedAt: now,
	}

	jobOpts, registered := eng.registry.Options(jobType)
	for _, opt := range opts {
		opt(&jobOpts)
	}
	j.Timeout = jobOpts.Timeout

	var missing error
	if !registered {
		missing = worker.MissingHandlerError(jobType)
		j.State = job.StateFailed
		j.Error = missing.Error()
		j.CompletedAt = &now
	}

	if err := eng.jobStore.EnqueueJob(ctx, j); err != nil {
		return nil, err
	}
	eng.extensions.EmitJobEnqueued(ctx, j)

	if missing != nil {
		eng.logger.Warn("job rejected: no handler",
			slog.String("job_id", j.ID.String()),
			slog.String("job_type", jobType),
		)
		eng.extensions.EmitJobFailed(ctx, j, missing)
		return j.Clone(), nil
	}

	eng.pool.Notify()
	return j.Clone(), nil
}

// Job returns a snapshot of the job with the given ID.
func (eng *Engine) Job(ctx context.Context, jobID id.JobID) (*job.Job, error) {
	return eng.jobStore.GetJob(ctx, jobID)
}

// Jobs returns every retained job in submission order.
func (eng *Engine) Jobs(ctx context.Context) ([]*job.Job, error) {
	return eng.jobStore.ListJobs(ctx, job.ListOpts{})
}

// JobsByType returns retained jobs of jobType in submission order.
func (eng *Engine) JobsByType(ctx context.Context, jobType string) ([]*job.Job, error) {
	return eng.jobStore.ListJobs(ctx, job.ListOpts{Type: jobType})
}

// JobsByState returns retained jobs in state in submission order.
func (eng *Engine) JobsByState(ctx context.Context, state job.State) ([]*job.Job, error) {
	return eng.jobStore.ListJobs(ctx, job.ListOpts{State: state})
}

// CountJobs returns how many retained jobs match jobType and state. Empty
// values match everything.
func (eng *Engine) CountJobs(ctx context.Context, jobType string, state job.State) (int64, error) {
	return eng.jobStore.CountJobs(ctx, job.CountOpts{Type: jobType, State: state})
}

// UpdateProgress records progress for a running job. The value is clamped
// to [0,100] and never lowers the stored progress. A job that no longer
// exists is ignored.
func (eng *Engine) UpdateProgress(ctx context.Context, jobID id.JobID, pct int) error {
	pct = job.ClampProgress(pct)
	if err := eng.jobStore.UpdateProgress(ctx, jobID, pct); err != nil {
		if errors.Is(err, smsv2.ErrJobNotFound) {
			return nil
		}
		return err
	}

	if j, err := eng.jobStore.GetJob(ctx, jobID); err == nil && j.State == job.StateProcessing {
		eng.extensions.EmitJobProgressed(ctx, j, j.Progress)
	}
	return nil
}

// ClearOldJobs removes completed jobs that finished more than maxAge ago
// and returns how many were removed. Failed jobs are kept.
func (eng *Engine) ClearOldJobs(ctx context.Context, maxAge time.Duration) (int, error) {
	if maxAge < 0 {
		return 0, smsv2.ErrInvalidMaxAge
	}
	n, err := eng.jobStore.PurgeCompleted(ctx, time.Now().UTC().Add(-maxAge))
	if err != nil {
		return 0, fmt.Errorf("clear old jobs: %w", err)
	}
	if n > 0 {
		eng.extensions.EmitJobsPurged(ctx, n)
	}
	return n, nil
}

// Wait polls until the job reaches a terminal state or ctx is done.
func (eng *Engine) Wait(ctx context.Context, jobID id.JobID) (*job.Job, error) {
	for attempt := 1; ; attempt++ {
		j, err := eng.jobStore.GetJob(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if j.State.Terminal() {
			return j, nil
		}

		t := time.NewTimer(eng.waitBo.Delay(attempt))
		select {
		case <-ctx.Done():
			t.Stop()
			return j, ctx.Err()
		case <-t.C:
		}
	}
}

// CheckLimit records one call for key against the default quota and
// reports whether it is allowed.
func (eng *Engine) CheckLimit(key string) bool {
	if eng.window != nil {
		return eng.window.Allow(key)
	}
	return eng.limiter.Check(context.Background(), key).Allowed
}

// CheckLimitN is CheckLimit with an explicit quota. Limiters without
// per-call quotas fall back to their configured limit.
func (eng *Engine) CheckLimitN(key string, max int) bool {
	if eng.window != nil {
		return eng.window.AllowN(key, max)
	}
	return eng.limiter.Check(context.Background(), key).Allowed
}

// CheckLimitResult is CheckLimit returning remaining quota and reset time.
func (eng *Engine) CheckLimitResult(ctx context.Context, key string) ratelimit.Result {
	return eng.limiter.Check(ctx, key)
}

// RequireLimit returns a *ratelimit.ExceededError when key is over quota.
func (eng *Engine) RequireLimit(ctx context.Context, key string) error {
	return ratelimit.Require(ctx, eng.limiter, key)
}

// Start launches the worker pool, the retention loop if configured, and the
// rate-limit sweeper.
func (eng *Engine) Start(ctx context.Context) error {
	eng.mu.Lock()
	defer eng.mu.Unlock()

	if eng.stopped {
		return smsv2.ErrEngineStopped
	}
	if eng.running {
		return nil
	}

	if err := eng.pool.Start(ctx); err != nil {
		return fmt.Errorf("start worker pool: %w", err)
	}

	if sw, ok := eng.limiter.(ratelimit.Sweeper); ok && eng.config.RateLimitSweepInterval > 0 {
		sweepCtx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			sw.Run(sweepCtx, eng.config.RateLimitSweepInterval)
		}()
		eng.stopSweeper = cancel
		eng.sweeperDone = done
	}

	eng.running = true
	eng.logger.Info("engine started",
		slog.Int("concurrency", eng.config.Concurrency),
		slog.Int("registered_types", len(eng.registry.Names())),
	)
	return nil
}

// Stop drains the worker pool and stops background loops. In-flight jobs
// are cancelled if ctx expires, or after Config.ShutdownTimeout when ctx
// has no deadline. Enqueue fails with ErrEngineStopped afterwards.
func (eng *Engine) Stop(ctx context.Context) error {
	eng.mu.Lock()
	if eng.stopped {
		eng.mu.Unlock()
		return nil
	}
	eng.stopped = true
	wasRunning := eng.running
	eng.running = false
	eng.mu.Unlock()

	if _, ok := ctx.Deadline(); !ok && eng.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, eng.config.ShutdownTimeout)
		defer cancel()
	}

	var err error
	if wasRunning {
		if eng.stopSweeper != nil {
			eng.stopSweeper()
			<-eng.sweeperDone
		}
		err = eng.pool.Stop(ctx)
	}

	eng.extensions.EmitShutdown(ctx)
	eng.logger.Info("engine stopped")
	return err
}

// Config returns the effective configuration.
func (eng *Engine) Config() smsv2.Config { return eng.config }

// Extensions returns the extension registry.
func (eng *Engine) Extensions() *ext.Registry { return eng.extensions }

// Registry returns the job registry.
func (eng *Engine) Registry() *job.Registry { return eng.registry }

// Store returns the job store.
func (eng *Engine) Store() job.Store { return eng.jobStore }

// Limiter returns the rate limiter.
func (eng *Engine) Limiter() ratelimit.Limiter { return eng.limiter }

// Logger returns the engine logger.
func (eng *Engine) Logger() *slog.Logger { return eng.logger }
