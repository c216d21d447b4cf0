package outboundcall

import "errors"

// Common errors
var (
	// ErrCallerNil is returned when a nil caller is provided
	ErrCallerNil = errors.New("caller cannot be nil")

	// ErrInvalidPayload is returned when a stored payload is missing the
	// owner or callee number
	ErrInvalidPayload = errors.New("invalid outbound call payload")

	// ErrDoNotCall is returned when the callee is on the owner's do-not-call
	// list
	ErrDoNotCall = errors.New("number is on the do-not-call list")

	// ErrNumberRejected is returned when the platform refuses the number
	// outright, e.g. disconnected or malformed
	ErrNumberRejected = errors.New("platform rejected the number")

	// ErrPlatformUnavailable is returned when the call platform answered
	// with a retryable error
	ErrPlatformUnavailable = errors.New("call platform unavailable")
)
