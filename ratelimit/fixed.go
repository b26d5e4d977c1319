package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count   int
	resetAt time.Time
}

// FixedWindow allows at most max calls per key within each window.
// Check-then-increment happens under one mutex, so concurrent callers
// cannot both observe spare quota for the last slot.
type FixedWindow struct {
	max    int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

// Option configures a FixedWindow.
type Option func(*FixedWindow)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(f *FixedWindow) { f.now = now }
}

// New creates a fixed-window limiter with a default quota of max calls
// per window of length per.
func New(max int, per time.Duration, opts ...Option) *FixedWindow {
	f := &FixedWindow{
		max:     max,
		window:  per,
		now:     time.Now,
		windows: make(map[string]*window),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Allow records one use of key against the default quota.
func (f *FixedWindow) Allow(key string) bool {
	return f.take(key, f.max).Allowed
}

// AllowN records one use of key against an explicit quota of max.
func (f *FixedWindow) AllowN(key string, max int) bool {
	return f.take(key, max).Allowed
}

// Check implements Limiter using the default quota.
func (f *FixedWindow) Check(_ context.Context, key string) Result {
	return f.take(key, f.max)
}

func (f *FixedWindow) take(key string, max int) Result {
	now := f.now()

	f.mu.Lock()
	defer f.mu.Unlock()

	w, ok := f.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(f.window)}
		f.windows[key] = w
	}

	if w.count >= max {
		return Result{
			Limit:   max,
			ResetAt: w.resetAt,
			wait:    w.resetAt.Sub(now),
		}
	}

	w.count++
	return Result{
		Allowed:   true,
		Limit:     max,
		Remaining: max - w.count,
		ResetAt:   w.resetAt,
	}
}

// Sweep removes expired windows and returns how many were dropped.
func (f *FixedWindow) Sweep() int {
	now := f.now()

	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for key, w := range f.windows {
		if !now.Before(w.resetAt) {
			delete(f.windows, key)
			n++
		}
	}
	return n
}

// Len returns the number of tracked keys.
func (f *FixedWindow) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.windows)
}

// Run sweeps expired windows every interval until ctx is done.
func (f *FixedWindow) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.Sweep()
		}
	}
}
