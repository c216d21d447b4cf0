package dispatch

import "errors"

// Common errors
var (
	// ErrStoreNil is returned when a nil operation store is provided
	ErrStoreNil = errors.New("operation store cannot be nil")

	// ErrHandlerNil is returned when registering a nil handler
	ErrHandlerNil = errors.New("handler cannot be nil")

	// ErrHandlerAlreadyRegistered is returned when two handlers claim one kind
	ErrHandlerAlreadyRegistered = errors.New("handler already registered for kind")

	// ErrHandlerNotFound is returned when no handler is registered for an
	// operation's kind; such operations fail permanently since retrying
	// cannot conjure a handler
	ErrHandlerNotFound = errors.New("no handler registered for kind")
)
