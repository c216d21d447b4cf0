package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Alert describes an operation that reached a terminal failure state. Only
// failed_terminal and blocked generate alerts; transient retries stay
// invisible to the owner.
type Alert struct {
	OperationID  uuid.UUID
	OwnerID      string
	Kind         string
	Status       string // failed_terminal or blocked
	Reason       string
	AttemptCount int
	At           time.Time
}

// Notifier delivers owner-facing alerts. Delivery is fire-and-forget: it is
// not part of the retry contract and a failed alert never changes operation
// state.
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

// Noop discards every alert. Useful for tests and deployments without an
// alerting channel.
type Noop struct{}

// Notify implements Notifier.
func (Noop) Notify(ctx context.Context, alert Alert) error {
	return nil
}
