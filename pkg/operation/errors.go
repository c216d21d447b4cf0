package operation

import "errors"

// Common errors
var (
	// ErrStoreNil is returned when a nil store is provided
	ErrStoreNil = errors.New("store cannot be nil")

	// ErrPayloadNil is returned when attempting to enqueue a nil payload
	ErrPayloadNil = errors.New("payload cannot be nil")

	// ErrPayloadMarshal is returned when payload marshaling fails
	ErrPayloadMarshal = errors.New("failed to marshal payload to JSON")

	// ErrNotFound is returned when no operation exists for the given ID
	ErrNotFound = errors.New("operation not found")

	// ErrAlreadyClaimed is returned when a claim loses the compare-and-swap
	// race: the operation is not awaitable, so another worker holds it or it
	// already reached a terminal state
	ErrAlreadyClaimed = errors.New("operation already claimed")

	// ErrTerminalState is returned when a release or reschedule targets an
	// operation that already reached a sink state
	ErrTerminalState = errors.New("operation is in a terminal state")

	// ErrNotClaimed is returned when a release targets an operation that is
	// not in flight
	ErrNotClaimed = errors.New("operation is not in flight")

	// ErrInvalidRelease is returned when a release carries an inconsistent
	// status/next-attempt combination
	ErrInvalidRelease = errors.New("invalid release")

	// ErrOwnerRequired is returned when enqueueing without an owner
	ErrOwnerRequired = errors.New("owner id is required")

	// ErrKindRequired is returned when enqueueing without a kind
	ErrKindRequired = errors.New("operation kind is required")
)
