package operation

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voicedesk/redial/pkg/clock"
)

// MemoryStore implements Store for tests and local development. All state
// transitions happen under one mutex, which makes the claim CAS and the
// quota-with-completion atomicity trivial.
type MemoryStore struct {
	mu    sync.RWMutex
	ops   map[uuid.UUID]*Operation
	clock clock.Clock
	quota QuotaIncrementer
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithMemoryClock overrides the time source, mainly for tests.
func WithMemoryClock(c clock.Clock) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if c != nil {
			ms.clock = c
		}
	}
}

// WithMemoryQuota wires a quota counter that Release charges atomically with
// a completing status update.
func WithMemoryQuota(q QuotaIncrementer) MemoryStoreOption {
	return func(ms *MemoryStore) {
		ms.quota = q
	}
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	ms := &MemoryStore{
		ops:   make(map[uuid.UUID]*Operation),
		clock: clock.System{},
	}
	for _, opt := range opts {
		opt(ms)
	}
	return ms
}

// Create implements Store. Creating an existing ID returns the stored record.
func (ms *MemoryStore) Create(ctx context.Context, op *Operation) (*Operation, error) {
	if op == nil {
		return nil, ErrPayloadNil
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if existing, ok := ms.ops[op.ID]; ok {
		cp := *existing
		return &cp, nil
	}

	cp := *op
	ms.ops[op.ID] = &cp

	out := cp
	return &out, nil
}

// Get implements Store.
func (ms *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*Operation, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	op, ok := ms.ops[id]
	if !ok {
		return nil, ErrNotFound
	}

	cp := *op
	return &cp, nil
}

// FindDue implements Store.
func (ms *MemoryStore) FindDue(ctx context.Context, now time.Time, kinds []string, limit int) ([]Operation, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var due []Operation
	for _, op := range ms.ops {
		if !op.Status.Awaitable() {
			continue
		}
		if op.NextAttemptAt == nil || op.NextAttemptAt.After(now) {
			continue
		}
		if len(kinds) > 0 && !slices.Contains(kinds, op.Kind) {
			continue
		}
		due = append(due, *op)
	}

	// Oldest first so no operation starves behind newer work.
	sort.Slice(due, func(i, j int) bool {
		return due[i].NextAttemptAt.Before(*due[j].NextAttemptAt)
	})

	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}

	return due, nil
}

// Claim implements Store. The awaitable -> in_flight transition is the
// compare-and-swap that serializes attempts per operation.
func (ms *MemoryStore) Claim(ctx context.Context, id uuid.UUID, lockFor time.Duration) (*Operation, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	op, ok := ms.ops[id]
	if !ok {
		return nil, ErrNotFound
	}

	if !op.Status.Awaitable() {
		return nil, ErrAlreadyClaimed
	}

	now := ms.clock.Now()
	lockUntil := now.Add(lockFor)
	op.Status = StatusInFlight
	op.NextAttemptAt = nil
	op.LockedUntil = &lockUntil
	op.UpdatedAt = now

	cp := *op
	return &cp, nil
}

// Release implements Store.
func (ms *MemoryStore) Release(ctx context.Context, id uuid.UUID, rel Release) error {
	if err := validateRelease(rel); err != nil {
		return err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	op, ok := ms.ops[id]
	if !ok {
		return ErrNotFound
	}
	if op.Status.Terminal() {
		return ErrTerminalState
	}
	if op.Status != StatusInFlight {
		return ErrNotClaimed
	}

	op.Status = rel.Status
	if rel.CountAttempt {
		op.AttemptCount++
	}
	op.NextAttemptAt = rel.NextAttemptAt
	if rel.LastError != "" {
		op.LastError = rel.LastError
	}
	op.LockedUntil = nil
	op.UpdatedAt = ms.clock.Now()

	if rel.Status == StatusCompleted && rel.Quota != nil && ms.quota != nil {
		if _, err := ms.quota.Increment(ctx, rel.Quota.OwnerID, rel.Quota.Day); err != nil {
			return err
		}
	}

	return nil
}

// Reschedule implements Store.
func (ms *MemoryStore) Reschedule(ctx context.Context, id uuid.UUID, at time.Time) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	op, ok := ms.ops[id]
	if !ok {
		return ErrNotFound
	}
	if op.Status.Terminal() {
		return ErrTerminalState
	}
	if !op.Status.Awaitable() {
		return ErrNotClaimed
	}

	op.NextAttemptAt = &at
	op.UpdatedAt = ms.clock.Now()
	return nil
}

// Cancel implements Store. Silently ignores in-flight and terminal operations.
func (ms *MemoryStore) Cancel(ctx context.Context, id uuid.UUID) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	op, ok := ms.ops[id]
	if !ok {
		return nil
	}
	if !op.Status.Awaitable() {
		return nil
	}

	op.Status = StatusCancelled
	op.NextAttemptAt = nil
	op.UpdatedAt = ms.clock.Now()
	return nil
}

// RequeueExpired implements Store.
func (ms *MemoryStore) RequeueExpired(ctx context.Context, now time.Time) (int, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	requeued := 0
	for _, op := range ms.ops {
		if op.Status != StatusInFlight {
			continue
		}
		if op.LockedUntil == nil || op.LockedUntil.After(now) {
			continue
		}

		// Attempt history survives the crash, only the lock is dropped.
		if op.AttemptCount == 0 {
			op.Status = StatusPending
		} else {
			op.Status = StatusFailedRetryable
		}
		at := now
		op.NextAttemptAt = &at
		op.LockedUntil = nil
		op.UpdatedAt = now
		requeued++
	}

	return requeued, nil
}

// PurgeTerminal implements Store.
func (ms *MemoryStore) PurgeTerminal(ctx context.Context, olderThan time.Time) (int, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	purged := 0
	for id, op := range ms.ops {
		if op.Status.Terminal() && op.UpdatedAt.Before(olderThan) {
			delete(ms.ops, id)
			purged++
		}
	}

	return purged, nil
}

func validateRelease(rel Release) error {
	switch rel.Status {
	case StatusCompleted, StatusFailedTerminal, StatusBlocked:
		if rel.NextAttemptAt != nil {
			return ErrInvalidRelease
		}
	case StatusPending, StatusFailedRetryable:
		if rel.NextAttemptAt == nil {
			return ErrInvalidRelease
		}
	default:
		return ErrInvalidRelease
	}
	return nil
}
