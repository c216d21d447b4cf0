package sweep

import "errors"

// Common errors
var (
	// ErrStoreNil is returned when a nil operation store is provided
	ErrStoreNil = errors.New("operation store cannot be nil")

	// ErrDispatcherNil is returned when a nil dispatcher is provided
	ErrDispatcherNil = errors.New("dispatcher cannot be nil")

	// ErrWakerStopped is returned when scheduling a wake on a stopped waker
	ErrWakerStopped = errors.New("waker is stopped")
)
