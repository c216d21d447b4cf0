package sweep

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/voicedesk/redial/pkg/operation"
)

// WakeCanceller disarms a pending wake. *Waker implements it.
type WakeCanceller interface {
	Cancel(id uuid.UUID) bool
}

// Canceller withdraws operations: it moves the store record to cancelled and
// disarms any pending wake. Cancelling an operation that is already terminal
// or currently in flight is a no-op; an in-flight attempt runs to completion
// but the record stays cancelled only if the cancel landed first.
type Canceller struct {
	store  operation.Store
	waker  WakeCanceller
	logger *slog.Logger
}

// CancellerOption configures a Canceller.
type CancellerOption func(*Canceller)

// WithCancellerWaker wires the wake registry so pending wakes are disarmed.
func WithCancellerWaker(w WakeCanceller) CancellerOption {
	return func(c *Canceller) {
		c.waker = w
	}
}

// WithCancellerLogger sets the logger.
func WithCancellerLogger(logger *slog.Logger) CancellerOption {
	return func(c *Canceller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCanceller creates a Canceller over the given store.
func NewCanceller(store operation.Store, opts ...CancellerOption) (*Canceller, error) {
	if store == nil {
		return nil, ErrStoreNil
	}

	c := &Canceller{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Cancel withdraws the operation. The store move happens first so a wake
// firing concurrently re-reads a cancelled record and backs off.
func (c *Canceller) Cancel(ctx context.Context, id uuid.UUID) error {
	if err := c.store.Cancel(ctx, id); err != nil {
		return fmt.Errorf("failed to cancel operation %s: %w", id, err)
	}

	if c.waker != nil {
		if c.waker.Cancel(id) {
			c.logger.DebugContext(ctx, "pending wake disarmed",
				slog.String("operation_id", id.String()))
		}
	}

	c.logger.InfoContext(ctx, "operation cancelled",
		slog.String("operation_id", id.String()))
	return nil
}
