// Package ratelimit guards keyed resources such as "fees:SCH001" against
// more than N operations per time window.
//
// [FixedWindow] is the default limiter. Each key owns one window that
// starts on the first call and resets wholesale once it expires. Because
// the count restarts at the boundary, up to 2×max calls can be accepted
// in a short span that straddles two windows. [TokenBucket] smooths this
// out for callers that need it.
//
//	l := ratelimit.New(100, time.Minute)
//	if err := ratelimit.Require(ctx, l, ratelimit.Key("fees", schoolID)); err != nil {
//	    var ex *ratelimit.ExceededError
//	    errors.As(err, &ex) // ex.RetryAfter
//	}
//
// Isolation between tenants depends on callers using disjoint keys; [Key]
// builds the conventional "<namespace>:<tenant>" form.
package ratelimit
