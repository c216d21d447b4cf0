package webhookreplay

import "errors"

// Common errors
var (
	// ErrInvalidSignatureInput is returned when signing material is missing
	ErrInvalidSignatureInput = errors.New("invalid signature input")

	// ErrSignatureMismatch is returned when a received signature fails
	// verification
	ErrSignatureMismatch = errors.New("signature mismatch")

	// ErrInvalidPayload is returned when a stored payload is missing the
	// endpoint URL or event body
	ErrInvalidPayload = errors.New("invalid replay payload")

	// ErrEndpointRejected is returned when the receiver answered with a
	// non-retryable client error
	ErrEndpointRejected = errors.New("endpoint rejected delivery")

	// ErrEndpointUnavailable is returned when the receiver answered with a
	// retryable status or the request failed at the network level
	ErrEndpointUnavailable = errors.New("endpoint unavailable")
)
