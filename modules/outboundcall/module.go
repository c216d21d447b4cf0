package outboundcall

import (
	"context"
	"errors"
	"fmt"

	"github.com/voicedesk/redial/pkg/dispatch"
)

// Module wires the call platform and the do-not-call gate into a dispatch
// handler. Successful calls consume the owner's daily call quota.
type Module struct {
	caller Caller
	dnc    DNCList
}

// ModuleOption configures a Module.
type ModuleOption func(*Module)

// WithDNCList wires the opt-out gate. Without it no number is blocked.
func WithDNCList(dnc DNCList) ModuleOption {
	return func(m *Module) {
		m.dnc = dnc
	}
}

// NewModule creates the outbound call module over the given caller.
func NewModule(caller Caller, opts ...ModuleOption) (*Module, error) {
	if caller == nil {
		return nil, ErrCallerNil
	}

	m := &Module{caller: caller}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Handler adapts the module for dispatcher registration.
func (m *Module) Handler() dispatch.Handler {
	return dispatch.NewHandler(Kind, m.Place, dispatch.WithQuotaConsumption())
}

// Place runs one call attempt. The do-not-call check happens before the
// platform call so an opted-out number is never dialed; a hit is a policy
// block, not a failure.
func (m *Module) Place(ctx context.Context, p Payload) error {
	if p.OwnerID == "" || p.Number == "" {
		return dispatch.Permanent(fmt.Errorf("%w: owner_id and number are required", ErrInvalidPayload))
	}

	if m.dnc != nil {
		blocked, err := m.dnc.Contains(ctx, p.OwnerID, p.Number)
		if err != nil {
			// Transient: the list is unreachable, not consulted.
			return fmt.Errorf("do-not-call check failed: %w", err)
		}
		if blocked {
			return dispatch.Blocked(fmt.Errorf("%w: %s", ErrDoNotCall, p.Number))
		}
	}

	err := m.caller.PlaceCall(ctx, Call{
		OwnerID: p.OwnerID,
		Number:  p.Number,
		AgentID: p.AgentID,
		Reason:  p.Reason,
	})
	if err == nil {
		return nil
	}
	if dispatch.IsPermanent(err) || dispatch.IsBlocked(err) {
		return err
	}
	if errors.Is(err, ErrNumberRejected) {
		return dispatch.Permanent(err)
	}
	return err
}
