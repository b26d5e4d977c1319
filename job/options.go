package job

import "time"

// Options configures per-type behaviour.
type Options struct {
	// Timeout is the maximum duration a job may run before its context is
	// cancelled. Zero means no deadline.
	Timeout time.Duration
}

// DefaultOptions returns Options with no deadline.
func DefaultOptions() Options {
	return Options{}
}

// Option is a functional option for configuring a job definition.
type Option func(*Options)

// WithTimeout sets the maximum execution duration for jobs of this type.
// Handlers must observe ctx.Done() for the deadline to take effect.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}
