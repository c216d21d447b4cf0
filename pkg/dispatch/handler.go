package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
)

type (
	// Handler attempts one kind of external effect. Implementations classify
	// their failures with Permanent and Blocked; everything else, including
	// panics and timeouts, counts as transient.
	Handler interface {
		Kind() string
		Handle(ctx context.Context, payload json.RawMessage) error
		ConsumesQuota() bool
	}

	// HandlerFunc is a typed effect function wrapped by NewHandler.
	HandlerFunc[T any] func(ctx context.Context, payload T) error
)

// HandlerOption configures a handler built by NewHandler.
type HandlerOption func(*handlerOptions)

type handlerOptions struct {
	consumesQuota bool
}

// WithQuotaConsumption marks successful dispatches of this kind as counting
// against the owner's daily quota.
func WithQuotaConsumption() HandlerOption {
	return func(o *handlerOptions) {
		o.consumesQuota = true
	}
}

// NewHandler adapts a typed effect function into a Handler. The stored
// payload is unmarshaled into T; a payload that no longer parses is a
// permanent failure, since retrying cannot fix it.
func NewHandler[T any](kind string, fn HandlerFunc[T], opts ...HandlerOption) Handler {
	options := &handlerOptions{}
	for _, opt := range opts {
		opt(options)
	}

	return &typedHandler[T]{
		kind:          kind,
		fn:            fn,
		consumesQuota: options.consumesQuota,
	}
}

type typedHandler[T any] struct {
	kind          string
	fn            HandlerFunc[T]
	consumesQuota bool
}

func (h *typedHandler[T]) Kind() string {
	return h.kind
}

func (h *typedHandler[T]) ConsumesQuota() bool {
	return h.consumesQuota
}

func (h *typedHandler[T]) Handle(ctx context.Context, payload json.RawMessage) error {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return Permanent(fmt.Errorf("failed to unmarshal %s payload: %w", h.kind, err))
	}
	return h.fn(ctx, t)
}
