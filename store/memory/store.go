// Package memory provides a fully in-memory implementation of job.Store.
// It is the default backend: state lives in process memory and is lost on
// restart.
package memory

import (
	"context"
	"sync"
	"time"

	smsv2 "github.com/Santosh-B-Vitana/smsv2-sub000"
	"github.com/Santosh-B-Vitana/smsv2-sub000/id"
	"github.com/Santosh-B-Vitana/smsv2-sub000/job"
)

var _ job.Store = (*Store)(nil)

// Store is an in-memory job.Store. Safe for concurrent access.
//
// Jobs are kept in a map for point lookups and in an insertion-ordered
// slice so that dequeue is FIFO. Every read and write copies the record,
// so callers never alias stored jobs.
type Store struct {
	mu    sync.RWMutex
	jobs  map[string]*job.Job
	order []string
	seq   uint64
	now   func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used to stamp StartedAt.
func WithClock(now func() time.Time) Option {
	return func(m *Store) { m.now = now }
}

// New returns a new empty Store.
func New(opts ...Option) *Store {
	m := &Store{
		jobs: make(map[string]*job.Job),
		now:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// EnqueueJob persists a new job and assigns its Seq. The caller's job
// value is updated with the assigned sequence number.
func (m *Store) EnqueueJob(_ context.Context, j *job.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := j.ID.String()
	if _, exists := m.jobs[key]; exists {
		return smsv2.ErrJobAlreadyExists
	}
	m.seq++
	j.Seq = m.seq
	m.jobs[key] = j.Clone()
	m.order = append(m.order, key)
	return nil
}

// DequeueJobs atomically claims up to limit pending jobs in insertion
// order, sets them to processing and returns copies.
func (m *Store) DequeueJobs(_ context.Context, limit int) ([]*job.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var result []*job.Job
	for _, key := range m.order {
		if limit > 0 && len(result) >= limit {
			break
		}
		j := m.jobs[key]
		if j == nil || j.State != job.StatePending {
			continue
		}
		j.State = job.StateProcessing
		started := now
		j.StartedAt = &started
		result = append(result, j.Clone())
	}
	return result, nil
}

// GetJob retrieves a job by ID.
func (m *Store) GetJob(_ context.Context, jobID id.JobID) (*job.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	j, ok := m.jobs[jobID.String()]
	if !ok {
		return nil, smsv2.ErrJobNotFound
	}
	return j.Clone(), nil
}

// UpdateJob persists changes to an existing job. A job that already
// reached a terminal state cannot move to a different state.
func (m *Store) UpdateJob(_ context.Context, j *job.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := j.ID.String()
	existing, ok := m.jobs[key]
	if !ok {
		return smsv2.ErrJobNotFound
	}
	if existing.State.Terminal() && j.State != existing.State {
		return smsv2.ErrInvalidState
	}
	cp := j.Clone()
	cp.Seq = existing.Seq
	m.jobs[key] = cp
	return nil
}

// UpdateProgress raises the progress of a processing job. Lower values
// are ignored so that observed progress never regresses. Pending and
// terminal jobs are left untouched.
func (m *Store) UpdateProgress(_ context.Context, jobID id.JobID, pct int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[jobID.String()]
	if !ok {
		return smsv2.ErrJobNotFound
	}
	if j.State != job.StateProcessing {
		return nil
	}
	if pct = job.ClampProgress(pct); pct > j.Progress {
		j.Progress = pct
	}
	return nil
}

// ListJobs returns jobs in insertion order.
func (m *Store) ListJobs(_ context.Context, opts job.ListOpts) ([]*job.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*job.Job, 0, len(m.order))
	skipped := 0
	for _, key := range m.order {
		j := m.jobs[key]
		if !matches(j, opts.Type, opts.State) {
			continue
		}
		if skipped < opts.Offset {
			skipped++
			continue
		}
		result = append(result, j.Clone())
		if opts.Limit > 0 && len(result) >= opts.Limit {
			break
		}
	}
	return result, nil
}

// CountJobs returns the number of jobs matching the given options.
func (m *Store) CountJobs(_ context.Context, opts job.CountOpts) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, j := range m.jobs {
		if matches(j, opts.Type, opts.State) {
			count++
		}
	}
	return count, nil
}

// PurgeCompleted deletes completed jobs that finished before the cutoff.
// Failed jobs are always retained for diagnostics.
func (m *Store) PurgeCompleted(_ context.Context, before time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.order[:0]
	purged := 0
	for _, key := range m.order {
		j := m.jobs[key]
		if j.State == job.StateCompleted && j.CompletedAt != nil && j.CompletedAt.Before(before) {
			delete(m.jobs, key)
			purged++
			continue
		}
		kept = append(kept, key)
	}
	m.order = kept
	return purged, nil
}

func matches(j *job.Job, typ string, state job.State) bool {
	if j == nil {
		return false
	}
	if typ != "" && j.Type != typ {
		return false
	}
	if state != "" && j.State != state {
		return false
	}
	return true
}
