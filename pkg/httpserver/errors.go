package httpserver

import "errors"

// Common errors
var (
	// ErrStart indicates that the server failed to start.
	ErrStart = errors.New("failed to start HTTP server")

	// ErrAlreadyRunning indicates a second Run call on the same Server.
	ErrAlreadyRunning = errors.New("HTTP server already running")

	// ErrShutdown indicates that graceful shutdown failed.
	ErrShutdown = errors.New("failed to shutdown HTTP server gracefully")
)
