package notify

import "errors"

// Common errors
var (
	// ErrInvalidEmailConfig is returned when the email channel is misconfigured
	ErrInvalidEmailConfig = errors.New("invalid email notifier configuration")

	// ErrFailedToSendAlert is returned when alert delivery fails
	ErrFailedToSendAlert = errors.New("failed to send alert")
)
