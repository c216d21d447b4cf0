package operation

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of an operation.
type Status string

const (
	// StatusPending marks a newly created operation waiting for its first attempt.
	StatusPending Status = "pending"

	// StatusInFlight marks an operation claimed by a worker. At most one claim
	// can hold an operation in flight at a time.
	StatusInFlight Status = "in_flight"

	// StatusCompleted marks an operation whose effect succeeded.
	StatusCompleted Status = "completed"

	// StatusFailedRetryable marks an operation that failed transiently and is
	// waiting for its next attempt.
	StatusFailedRetryable Status = "failed_retryable"

	// StatusFailedTerminal marks an operation that failed permanently or
	// exhausted its retry budget.
	StatusFailedTerminal Status = "failed_terminal"

	// StatusBlocked marks an operation stopped by policy (opt-out, owner
	// disabled). Not an error; never retried.
	StatusBlocked Status = "blocked"

	// StatusCancelled marks an operation aborted by an external event before
	// its effect ran.
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status is a sink: once reached, the operation
// never changes again.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailedTerminal, StatusBlocked, StatusCancelled:
		return true
	}
	return false
}

// Awaitable reports whether the operation is waiting for a future attempt and
// may be claimed or cancelled. Awaitable operations always carry a
// NextAttemptAt; terminal and in-flight ones never do.
func (s Status) Awaitable() bool {
	return s == StatusPending || s == StatusFailedRetryable
}

// Operation is one retryable unit of external side-effect work. The ID is the
// idempotency key: the store guarantees at most one concurrent execution per
// ID, and creating an operation with an existing ID is a no-op.
//
// Payload is an opaque, re-derivable bag of data the effect handler needs to
// re-attempt the effect. It must never hold a live handle.
type Operation struct {
	ID            uuid.UUID       `json:"id"`
	OwnerID       string          `json:"owner_id"`
	Kind          string          `json:"kind"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	Status        Status          `json:"status"`
	AttemptCount  int             `json:"attempt_count"`
	NextAttemptAt *time.Time      `json:"next_attempt_at,omitempty"`
	LastError     string          `json:"last_error,omitempty"`
	LockedUntil   *time.Time      `json:"locked_until,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// QuotaCharge asks the store to count one successful dispatch against the
// owner's daily quota, atomically with the status update.
type QuotaCharge struct {
	OwnerID string
	Day     string // owner-local calendar day, formatted 2006-01-02
}

// Release describes the outcome of a finished attempt. It is the only way an
// in-flight operation moves to its next state.
type Release struct {
	Status        Status
	CountAttempt  bool
	NextAttemptAt *time.Time
	LastError     string
	Quota         *QuotaCharge
}
