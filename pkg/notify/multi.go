package notify

import (
	"context"
	"log/slog"
)

// Multi fans an alert out over several channels. Delivery is best effort:
// a failing channel is logged and skipped, never propagated, so one broken
// channel cannot suppress the others.
type Multi struct {
	notifiers []Notifier
	logger    *slog.Logger
}

// MultiOption configures a Multi.
type MultiOption func(*Multi)

// WithMultiLogger sets the logger used for channel failures.
func WithMultiLogger(logger *slog.Logger) MultiOption {
	return func(m *Multi) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMulti creates a multi-channel notifier.
func NewMulti(notifiers []Notifier, opts ...MultiOption) *Multi {
	m := &Multi{
		notifiers: notifiers,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Notify implements Notifier.
func (m *Multi) Notify(ctx context.Context, alert Alert) error {
	for i, n := range m.notifiers {
		if err := n.Notify(ctx, alert); err != nil {
			m.logger.ErrorContext(ctx, "failed to deliver alert",
				slog.String("operation_id", alert.OperationID.String()),
				slog.String("owner_id", alert.OwnerID),
				slog.Int("notifier_index", i),
				slog.String("error", err.Error()))
		}
	}
	return nil
}
