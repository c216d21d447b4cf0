package redis

import "errors"

// Common errors
var (
	// ErrFailedToParseConnString is returned when the connection URL is invalid
	ErrFailedToParseConnString = errors.New("failed to parse redis connection string")

	// ErrNotReady is returned when the server does not answer pings within
	// the connect timeout
	ErrNotReady = errors.New("redis did not become ready within the given time period")

	// ErrHealthcheckFailed is returned when a ping fails
	ErrHealthcheckFailed = errors.New("redis healthcheck failed")
)
