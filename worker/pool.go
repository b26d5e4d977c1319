package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Santosh-B-Vitana/smsv2-sub000/ext"
	"github.com/Santosh-B-Vitana/smsv2-sub000/id"
	"github.com/Santosh-B-Vitana/smsv2-sub000/job"
)

// Pool manages worker goroutines that claim pending jobs in FIFO order
// and run them through the Executor. With the default concurrency of one,
// at most one job is processing at any instant.
type Pool struct {
	store        job.Store
	executor     *Executor
	extensions   *ext.Registry
	concurrency  int
	pollInterval time.Duration
	workerID     id.WorkerID
	logger       *slog.Logger

	// Retention of completed jobs. Zero retention disables the loop.
	retention         time.Duration
	retentionInterval time.Duration

	wake       chan struct{}
	stopCh     chan struct{}
	wg         sync.WaitGroup
	mu         sync.Mutex
	running    bool
	activeJobs map[string]context.CancelFunc
	activeMu   sync.Mutex
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithPoolConcurrency sets the number of concurrent worker goroutines.
// Values below one are ignored.
func WithPoolConcurrency(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithPollInterval sets how often idle workers re-check the store when
// no Notify arrives.
func WithPollInterval(d time.Duration) PoolOption {
	return func(p *Pool) {
		if d > 0 {
			p.pollInterval = d
		}
	}
}

// WithRetention makes the pool purge completed jobs older than maxAge
// every interval. Failed jobs are never purged.
func WithRetention(maxAge, interval time.Duration) PoolOption {
	return func(p *Pool) {
		p.retention = maxAge
		p.retentionInterval = interval
	}
}

// NewPool creates a worker pool.
func NewPool(
	store job.Store,
	executor *Executor,
	extensions *ext.Registry,
	logger *slog.Logger,
	opts ...PoolOption,
) *Pool {
	p := &Pool{
		store:             store,
		executor:          executor,
		extensions:        extensions,
		concurrency:       1,
		pollInterval:      5 * time.Second,
		retentionInterval: 10 * time.Minute,
		workerID:          id.NewWorkerID(),
		logger:            logger,
		wake:              make(chan struct{}, 1),
		stopCh:            make(chan struct{}),
		activeJobs:        make(map[string]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WorkerID returns the pool's unique worker identifier.
func (p *Pool) WorkerID() id.WorkerID { return p.workerID }

// Concurrency returns the number of worker goroutines.
func (p *Pool) Concurrency() int { return p.concurrency }

// Notify wakes an idle worker. It never blocks.
func (p *Pool) Notify() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Start launches the worker goroutines. It returns immediately.
func (p *Pool) Start(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}
	p.running = true

	p.logger.Info("worker pool starting",
		slog.String("worker_id", p.workerID.String()),
		slog.Int("concurrency", p.concurrency),
	)

	for range p.concurrency {
		p.wg.Add(1)
		go p.dequeueLoop()
	}

	if p.retention > 0 && p.retentionInterval > 0 {
		p.wg.Add(1)
		go p.retentionLoop()
	}

	return nil
}

// Stop signals all workers to stop and waits for them to finish.
// If ctx expires first, active jobs are cancelled.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	p.mu.Unlock()

	p.logger.Info("worker pool stopping", slog.String("worker_id", p.workerID.String()))

	close(p.stopCh)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool stopped gracefully")
	case <-ctx.Done():
		p.logger.Warn("worker pool shutdown timed out, cancelling active jobs")
		p.cancelActiveJobs()
		p.wg.Wait()
	}

	return nil
}

// dequeueLoop is run by each worker goroutine.
func (p *Pool) dequeueLoop() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopCh:
			return
		default:
		}

		jobs, err := p.store.DequeueJobs(context.Background(), 1)
		if err != nil {
			p.logger.Error("dequeue error", slog.String("error", err.Error()))
			p.idle()
			continue
		}
		if len(jobs) == 0 {
			p.idle()
			continue
		}

		p.run(jobs[0])
	}
}

func (p *Pool) run(j *job.Job) {
	p.extensions.EmitJobStarted(context.Background(), j)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p.trackJob(j.ID.String(), cancel)
	defer p.untrackJob(j.ID.String())

	if err := p.executor.Execute(ctx, j); err != nil {
		p.logger.Debug("job execution failed",
			slog.String("job_id", j.ID.String()),
			slog.String("job_type", j.Type),
			slog.String("error", err.Error()),
		)
	}
}

func (p *Pool) retentionLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.retentionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.purge(context.Background())
		}
	}
}

func (p *Pool) purge(ctx context.Context) {
	n, err := p.store.PurgeCompleted(ctx, time.Now().UTC().Add(-p.retention))
	if err != nil {
		p.logger.Error("purge completed jobs", slog.String("error", err.Error()))
		return
	}
	if n > 0 {
		p.logger.Info("purged completed jobs", slog.Int("count", n))
		p.extensions.EmitJobsPurged(ctx, n)
	}
}

// idle blocks until Notify, the poll interval, or Stop.
func (p *Pool) idle() {
	t := time.NewTimer(p.pollInterval)
	defer t.Stop()

	select {
	case <-p.wake:
	case <-t.C:
	case <-p.stopCh:
	}
}

func (p *Pool) trackJob(jobID string, cancel context.CancelFunc) {
	p.activeMu.Lock()
	p.activeJobs[jobID] = cancel
	p.activeMu.Unlock()
}

func (p *Pool) untrackJob(jobID string) {
	p.activeMu.Lock()
	delete(p.activeJobs, jobID)
	p.activeMu.Unlock()
}

func (p *Pool) cancelActiveJobs() {
	p.activeMu.Lock()
	defer p.activeMu.Unlock()
	for jobID, cancel := range p.activeJobs {
		p.logger.Warn("cancelling active job", slog.String("job_id", jobID))
		cancel()
	}
}
