package job

import "context"

// Definition is a typed job definition with a handler function.
// T is the payload type and R the result type; both must be
// JSON-serializable.
type Definition[T, R any] struct {
	// Name is the job type this definition handles.
	Name string

	// Handler is the function that processes the job payload.
	Handler func(ctx context.Context, payload T) (R, error)

	// Opts configures per-type behaviour such as the execution timeout.
	Opts Options
}

// NewDefinition creates a typed job definition.
func NewDefinition[T, R any](name string, handler func(ctx context.Context, payload T) (R, error), opts ...Option) *Definition[T, R] {
	def := &Definition[T, R]{
		Name:    name,
		Handler: handler,
		Opts:    DefaultOptions(),
	}
	for _, opt := range opts {
		opt(&def.Opts)
	}
	return def
}
