package smsv2

import "errors"

var (
	// Not found errors.
	ErrJobNotFound = errors.New("smsv2: job not found")

	// Conflict errors.
	ErrJobAlreadyExists = errors.New("smsv2: job already exists")

	// Validation errors.
	ErrEmptyJobType    = errors.New("smsv2: empty job type")
	ErrInvalidMaxAge   = errors.New("smsv2: max age must not be negative")
	ErrEngineStopped   = errors.New("smsv2: engine stopped")
	ErrInvalidState    = errors.New("smsv2: invalid state transition")
	ErrHandlerNotFound = errors.New("smsv2: no handler registered")
)
