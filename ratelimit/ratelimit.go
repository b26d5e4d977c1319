package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrRateLimitExceeded is matched by every *ExceededError.
var ErrRateLimitExceeded = errors.New("ratelimit: rate limit exceeded")

// Result describes the outcome of one limiter check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time

	// wait is the time until quota frees up, measured on the limiter's clock.
	wait time.Duration
}

// RetryAfter returns how long a denied caller should wait before trying
// again. It is zero for allowed results.
func (r Result) RetryAfter() time.Duration {
	if r.Allowed || r.wait < 0 {
		return 0
	}
	return r.wait
}

// Limiter is implemented by FixedWindow and TokenBucket.
type Limiter interface {
	// Check records one use of key if quota remains.
	Check(ctx context.Context, key string) Result
}

// Sweeper is implemented by limiters that drop idle keys in the
// background to bound memory.
type Sweeper interface {
	Run(ctx context.Context, interval time.Duration)
}

// ExceededError is returned by Require when a key is over quota.
type ExceededError struct {
	Key        string
	RetryAfter time.Duration
}

func (e *ExceededError) Error() string {
	secs := int(math.Ceil(e.RetryAfter.Seconds()))
	return fmt.Sprintf("rate limit exceeded for %q: try again in %d seconds", e.Key, secs)
}

// Is reports whether target is ErrRateLimitExceeded.
func (e *ExceededError) Is(target error) bool {
	return target == ErrRateLimitExceeded
}

// Require checks key against l and returns an *ExceededError when denied.
func Require(ctx context.Context, l Limiter, key string) error {
	res := l.Check(ctx, key)
	if res.Allowed {
		return nil
	}
	return &ExceededError{Key: key, RetryAfter: res.RetryAfter()}
}

// Key joins a namespace and tenant into a limiter key.
func Key(namespace, tenant string) string {
	return namespace + ":" + tenant
}

var (
	_ Limiter = (*FixedWindow)(nil)
	_ Limiter = (*TokenBucket)(nil)
	_ Sweeper = (*FixedWindow)(nil)
	_ Sweeper = (*TokenBucket)(nil)
)
