package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// TokenBucket is a per-key token-bucket limiter. Unlike FixedWindow it
// refills continuously, so no boundary burst beyond burst tokens exists.
type TokenBucket struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

// BucketOption configures a TokenBucket.
type BucketOption func(*TokenBucket)

// WithBucketClock overrides the time source.
func WithBucketClock(now func() time.Time) BucketOption {
	return func(b *TokenBucket) { b.now = now }
}

// NewTokenBucket allows max calls per period on average with bursts of
// up to max. A non-positive period means no refill limit.
func NewTokenBucket(max int, per time.Duration, opts ...BucketOption) *TokenBucket {
	if max < 1 {
		max = 1
	}
	limit := rate.Inf
	if per > 0 {
		limit = rate.Limit(float64(max) / per.Seconds())
	}
	b := &TokenBucket{
		limit:   limit,
		burst:   max,
		now:     time.Now,
		buckets: make(map[string]*rate.Limiter),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// bucket returns the limiter for key. Callers hold b.mu.
func (b *TokenBucket) bucket(key string) *rate.Limiter {
	l, ok := b.buckets[key]
	if !ok {
		l = rate.NewLimiter(b.limit, b.burst)
		b.buckets[key] = l
	}
	return l
}

// Allow records one use of key if a token is available.
func (b *TokenBucket) Allow(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bucket(key).AllowN(b.now(), 1)
}

// Check implements Limiter.
func (b *TokenBucket) Check(_ context.Context, key string) Result {
	b.mu.Lock()
	defer b.mu.Unlock()

	l := b.bucket(key)
	now := b.now()

	r := l.ReserveN(now, 1)
	if !r.OK() {
		return Result{Limit: b.burst, ResetAt: now}
	}
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return Result{Limit: b.burst, ResetAt: now.Add(d), wait: d}
	}

	remaining := int(l.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   true,
		Limit:     b.burst,
		Remaining: remaining,
		ResetAt:   now.Add(time.Duration(float64(b.burst-remaining) / float64(b.limit) * float64(time.Second))),
	}
}

// Wait blocks until key has a token or ctx is done.
func (b *TokenBucket) Wait(ctx context.Context, key string) error {
	b.mu.Lock()
	l := b.bucket(key)
	b.mu.Unlock()
	return l.Wait(ctx)
}

// Sweep drops buckets that have refilled to burst. A full bucket behaves
// exactly like a new one, so dropping it loses no state.
func (b *TokenBucket) Sweep() int {
	now := b.now()

	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for key, l := range b.buckets {
		if l.TokensAt(now) >= float64(b.burst) {
			delete(b.buckets, key)
			n++
		}
	}
	return n
}

// Len returns the number of tracked keys.
func (b *TokenBucket) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buckets)
}

// Run sweeps idle buckets every interval until ctx is done.
func (b *TokenBucket) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.Sweep()
		}
	}
}
