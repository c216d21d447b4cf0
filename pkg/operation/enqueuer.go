package operation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/voicedesk/redial/pkg/clock"
)

// Enqueuer creates operations from external triggers (API calls, incoming
// webhooks, timers).
type Enqueuer struct {
	store Store
	clock clock.Clock
}

// NewEnqueuer creates a new Enqueuer.
func NewEnqueuer(store Store, opts ...EnqueuerOption) (*Enqueuer, error) {
	if store == nil {
		return nil, ErrStoreNil
	}

	options := &enqueuerOptions{
		clock: clock.System{},
	}
	for _, opt := range opts {
		opt(options)
	}

	return &Enqueuer{
		store: store,
		clock: options.clock,
	}, nil
}

// Enqueue persists a new pending operation and returns it. Payload is
// marshaled to JSON. When WithID supplies an idempotency key and an operation
// with that ID already exists, the existing record comes back unchanged.
func (e *Enqueuer) Enqueue(ctx context.Context, ownerID, kind string, payload any, opts ...EnqueueOption) (*Operation, error) {
	if ownerID == "" {
		return nil, ErrOwnerRequired
	}
	if kind == "" {
		return nil, ErrKindRequired
	}
	if payload == nil {
		return nil, ErrPayloadNil
	}

	options := &enqueueOptions{}
	for _, opt := range opts {
		opt(options)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: payload of type %T: %w", ErrPayloadMarshal, payload, err)
	}

	now := e.clock.Now()
	nextAt := now
	if options.scheduledAt != nil {
		nextAt = *options.scheduledAt
	} else if options.delay > 0 {
		nextAt = now.Add(options.delay)
	}

	id := options.id
	if id == uuid.Nil {
		id = uuid.New()
	}

	op := &Operation{
		ID:            id,
		OwnerID:       ownerID,
		Kind:          kind,
		Payload:       body,
		Status:        StatusPending,
		AttemptCount:  0,
		NextAttemptAt: &nextAt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	stored, err := e.store.Create(ctx, op)
	if err != nil {
		return nil, fmt.Errorf("failed to create %q operation for owner %q: %w", kind, ownerID, err)
	}

	return stored, nil
}

// EnqueuerOption is a functional option for configuring an Enqueuer
type EnqueuerOption func(*enqueuerOptions)

type enqueuerOptions struct {
	clock clock.Clock
}

// WithEnqueuerClock overrides the time source, mainly for tests.
func WithEnqueuerClock(c clock.Clock) EnqueuerOption {
	return func(o *enqueuerOptions) {
		if c != nil {
			o.clock = c
		}
	}
}

// EnqueueOption is a functional option for the Enqueue method
type EnqueueOption func(*enqueueOptions)

type enqueueOptions struct {
	id          uuid.UUID
	delay       time.Duration
	scheduledAt *time.Time
}

// WithID sets an explicit idempotency key for the operation.
func WithID(id uuid.UUID) EnqueueOption {
	return func(o *enqueueOptions) {
		o.id = id
	}
}

// WithDelay postpones the first attempt by the given duration.
func WithDelay(delay time.Duration) EnqueueOption {
	return func(o *enqueueOptions) {
		if delay > 0 {
			o.delay = delay
		}
	}
}

// WithScheduledAt sets an absolute time for the first attempt.
func WithScheduledAt(at time.Time) EnqueueOption {
	return func(o *enqueueOptions) {
		o.scheduledAt = &at
	}
}
