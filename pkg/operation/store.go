package operation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the durable record of every retryable unit of work. Implementations
// must make Claim a compare-and-swap: concurrent claims on one operation yield
// exactly one winner. That CAS is the whole at-most-one-in-flight guarantee;
// nothing above the store takes locks.
type Store interface {
	// Create persists a new operation. Creating an ID that already exists is
	// a no-op which returns the stored record, making enqueue idempotent.
	Create(ctx context.Context, op *Operation) (*Operation, error)

	// Get returns the operation with the given ID or ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (*Operation, error)

	// FindDue returns awaitable operations whose NextAttemptAt <= now,
	// oldest first, bounded by limit. An empty kinds slice matches all kinds.
	FindDue(ctx context.Context, now time.Time, kinds []string, limit int) ([]Operation, error)

	// Claim transitions awaitable -> in_flight only if the current status is
	// awaitable, holding a lock for lockFor. Losers get ErrAlreadyClaimed.
	Claim(ctx context.Context, id uuid.UUID, lockFor time.Duration) (*Operation, error)

	// Release finishes an in-flight attempt. It is the only path that
	// advances AttemptCount and moves the operation to its next state.
	// Releasing a terminal operation returns ErrTerminalState and changes
	// nothing.
	Release(ctx context.Context, id uuid.UUID, rel Release) error

	// Reschedule moves an awaitable operation's NextAttemptAt without
	// touching AttemptCount. Used when an operation is ineligible to run:
	// ineligibility is not a failure.
	Reschedule(ctx context.Context, id uuid.UUID, at time.Time) error

	// Cancel flips an awaitable operation to cancelled. Idempotent: an
	// in-flight or terminal operation is left untouched and no error is
	// returned, since cancellation never reverses a completed effect.
	Cancel(ctx context.Context, id uuid.UUID) error

	// RequeueExpired returns operations whose in-flight lock has expired to
	// an awaitable state, preserving attempt history. Crash recovery for
	// workers that died mid-attempt.
	RequeueExpired(ctx context.Context, now time.Time) (int, error)

	// PurgeTerminal deletes terminal operations last updated before the
	// cutoff. Retention housekeeping, independent of retry semantics.
	PurgeTerminal(ctx context.Context, olderThan time.Time) (int, error)
}

// QuotaIncrementer counts successful dispatches against an owner's daily
// quota. Stores invoke it atomically with the completing status update so a
// crash between the two cannot under- or over-count.
type QuotaIncrementer interface {
	Increment(ctx context.Context, ownerID, day string) (int, error)
}
