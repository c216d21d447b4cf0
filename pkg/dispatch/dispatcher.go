package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/voicedesk/redial/pkg/backoff"
	"github.com/voicedesk/redial/pkg/clock"
	"github.com/voicedesk/redial/pkg/eligibility"
	"github.com/voicedesk/redial/pkg/notify"
	"github.com/voicedesk/redial/pkg/operation"
)

// Dispatcher claims due operations, invokes the effect handler registered for
// their kind, and interprets the outcome into the operation's next state.
// Handler errors never escape: every failure is mapped onto a failure class
// before it touches the store, so the state machine never reasons about
// error types.
type Dispatcher struct {
	store    operation.Store
	policy   backoff.Policy
	source   eligibility.Source
	notifier notify.Notifier
	clock    clock.Clock
	logger   *slog.Logger

	effectTimeout time.Duration
	lockTimeout   time.Duration

	mu       sync.RWMutex
	handlers map[string]Handler
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithPolicy overrides the backoff policy.
func WithPolicy(p backoff.Policy) DispatcherOption {
	return func(d *Dispatcher) {
		d.policy = p
	}
}

// WithNotifier wires the terminal-failure alert sink.
func WithNotifier(n notify.Notifier) DispatcherOption {
	return func(d *Dispatcher) {
		if n != nil {
			d.notifier = n
		}
	}
}

// WithOwnerSource wires the owner configuration source used to resolve the
// owner-local day for quota charges. Without it, quota days use UTC.
func WithOwnerSource(s eligibility.Source) DispatcherOption {
	return func(d *Dispatcher) {
		d.source = s
	}
}

// WithEffectTimeout bounds a single external-effect call. A timed-out call is
// a transient failure.
func WithEffectTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.effectTimeout = timeout
		}
	}
}

// WithLockTimeout sets how long a claim holds an operation before crash
// recovery may requeue it.
func WithLockTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.lockTimeout = timeout
		}
	}
}

// WithDispatcherClock overrides the time source, mainly for tests.
func WithDispatcherClock(c clock.Clock) DispatcherOption {
	return func(d *Dispatcher) {
		if c != nil {
			d.clock = c
		}
	}
}

// WithDispatcherLogger sets the logger.
func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDispatcher creates a Dispatcher over the given store.
func NewDispatcher(store operation.Store, opts ...DispatcherOption) (*Dispatcher, error) {
	if store == nil {
		return nil, ErrStoreNil
	}

	d := &Dispatcher{
		store:         store,
		policy:        backoff.Default(),
		notifier:      notify.Noop{},
		clock:         clock.System{},
		logger:        slog.Default(),
		effectTimeout: time.Minute,
		lockTimeout:   5 * time.Minute,
		handlers:      make(map[string]Handler),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// RegisterHandler adds an effect handler for its kind.
func (d *Dispatcher) RegisterHandler(h Handler) error {
	if h == nil {
		return ErrHandlerNil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.handlers[h.Kind()]; exists {
		return fmt.Errorf("%w: %q", ErrHandlerAlreadyRegistered, h.Kind())
	}
	d.handlers[h.Kind()] = h
	return nil
}

// RegisterHandlers adds several handlers.
func (d *Dispatcher) RegisterHandlers(handlers ...Handler) error {
	for _, h := range handlers {
		if err := d.RegisterHandler(h); err != nil {
			return err
		}
	}
	return nil
}

// Kinds returns the sorted operation kinds with a registered handler.
// Sweepers restrict themselves to these so operations of a kind that is not
// handled by this process stay untouched for one that does handle it.
func (d *Dispatcher) Kinds() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	kinds := make([]string, 0, len(d.handlers))
	for kind := range d.handlers {
		kinds = append(kinds, kind)
	}
	slices.Sort(kinds)
	return kinds
}

// HasHandler reports whether a handler is registered for the kind.
func (d *Dispatcher) HasHandler(kind string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.handlers[kind]
	return ok
}

// Process runs one full attempt for a due, eligible operation: claim,
// execute, release. Losing the claim race is not an error; another worker
// owns the attempt.
func (d *Dispatcher) Process(ctx context.Context, op operation.Operation) error {
	claimed, err := d.store.Claim(ctx, op.ID, d.lockTimeout)
	if err != nil {
		if errors.Is(err, operation.ErrAlreadyClaimed) {
			d.logger.DebugContext(ctx, "lost claim race",
				slog.String("operation_id", op.ID.String()))
			return nil
		}
		return fmt.Errorf("failed to claim operation %s: %w", op.ID, err)
	}

	outcome := d.Execute(ctx, *claimed)
	rel := d.releaseFor(ctx, claimed, outcome)

	if err := d.store.Release(ctx, claimed.ID, rel); err != nil {
		return fmt.Errorf("failed to release operation %s: %w", claimed.ID, err)
	}

	d.logAttempt(ctx, claimed, outcome, rel)

	if rel.Status == operation.StatusFailedTerminal || rel.Status == operation.StatusBlocked {
		d.alert(ctx, claimed, rel)
	}

	return nil
}

// Execute runs the effect handler for the operation's kind and maps the
// result onto an Outcome. Panics and timeouts become transient failures; a
// missing handler is permanent, since retrying cannot conjure one.
func (d *Dispatcher) Execute(ctx context.Context, op operation.Operation) (outcome Outcome) {
	d.mu.RLock()
	handler, ok := d.handlers[op.Kind]
	d.mu.RUnlock()

	if !ok {
		return Outcome{
			Class:  backoff.ClassPermanent,
			Reason: fmt.Sprintf("%s: %q", ErrHandlerNotFound, op.Kind),
		}
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.ErrorContext(ctx, "handler panicked",
				slog.String("operation_id", op.ID.String()),
				slog.String("kind", op.Kind),
				slog.Any("panic", r))
			outcome = Outcome{
				Class:  backoff.ClassTransient,
				Reason: fmt.Sprintf("panic in handler: %v", r),
			}
		}
	}()

	effectCtx, cancel := context.WithTimeout(ctx, d.effectTimeout)
	defer cancel()

	err := handler.Handle(effectCtx, op.Payload)
	if err == nil {
		return Outcome{Success: true}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Outcome{
			Class:  backoff.ClassTransient,
			Reason: fmt.Sprintf("effect timed out after %s", d.effectTimeout),
		}
	}

	return Outcome{Class: ClassOf(err), Reason: err.Error()}
}

// releaseFor translates an outcome into the release applied to the store.
func (d *Dispatcher) releaseFor(ctx context.Context, op *operation.Operation, outcome Outcome) operation.Release {
	if outcome.Success {
		rel := operation.Release{
			Status:       operation.StatusCompleted,
			CountAttempt: true,
		}
		if h := d.handlerFor(op.Kind); h != nil && h.ConsumesQuota() {
			rel.Quota = &operation.QuotaCharge{
				OwnerID: op.OwnerID,
				Day:     d.ownerDay(ctx, op.OwnerID),
			}
		}
		return rel
	}

	switch outcome.Class {
	case backoff.ClassPolicyBlocked:
		// A policy block is an expected verdict, not a failed attempt.
		return operation.Release{
			Status:    operation.StatusBlocked,
			LastError: outcome.Reason,
		}
	case backoff.ClassPermanent:
		return operation.Release{
			Status:       operation.StatusFailedTerminal,
			CountAttempt: true,
			LastError:    outcome.Reason,
		}
	}

	attempt := op.AttemptCount + 1
	decision := d.policy.Next(attempt, backoff.ClassTransient)
	if decision.Terminal {
		return operation.Release{
			Status:       operation.StatusFailedTerminal,
			CountAttempt: true,
			LastError:    outcome.Reason,
		}
	}

	next := d.clock.Now().Add(decision.Delay)
	return operation.Release{
		Status:        operation.StatusFailedRetryable,
		CountAttempt:  true,
		NextAttemptAt: &next,
		LastError:     outcome.Reason,
	}
}

func (d *Dispatcher) handlerFor(kind string) Handler {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.handlers[kind]
}

// ownerDay resolves the owner-local calendar day for quota bucketing,
// falling back to UTC when the owner's window cannot be loaded.
func (d *Dispatcher) ownerDay(ctx context.Context, ownerID string) string {
	now := d.clock.Now()
	if d.source == nil {
		return eligibility.Day(now.UTC())
	}

	window, err := d.source.Window(ctx, ownerID)
	if err != nil {
		return eligibility.Day(now.UTC())
	}
	loc, err := window.Location()
	if err != nil {
		return eligibility.Day(now.UTC())
	}
	return eligibility.Day(now.In(loc))
}

func (d *Dispatcher) logAttempt(ctx context.Context, op *operation.Operation, outcome Outcome, rel operation.Release) {
	if outcome.Success {
		d.logger.InfoContext(ctx, "operation completed",
			slog.String("operation_id", op.ID.String()),
			slog.String("kind", op.Kind),
			slog.String("owner_id", op.OwnerID),
			slog.Int("attempt", op.AttemptCount+1))
		return
	}

	d.logger.WarnContext(ctx, "operation attempt failed",
		slog.String("operation_id", op.ID.String()),
		slog.String("kind", op.Kind),
		slog.String("owner_id", op.OwnerID),
		slog.String("class", string(outcome.Class)),
		slog.String("status", string(rel.Status)),
		slog.String("reason", outcome.Reason))
}

func (d *Dispatcher) alert(ctx context.Context, op *operation.Operation, rel operation.Release) {
	attempts := op.AttemptCount
	if rel.CountAttempt {
		attempts++
	}

	err := d.notifier.Notify(ctx, notify.Alert{
		OperationID:  op.ID,
		OwnerID:      op.OwnerID,
		Kind:         op.Kind,
		Status:       string(rel.Status),
		Reason:       rel.LastError,
		AttemptCount: attempts,
		At:           d.clock.Now(),
	})
	if err != nil {
		// Fire and forget: alerting never changes retry state.
		d.logger.ErrorContext(ctx, "failed to deliver terminal alert",
			slog.String("operation_id", op.ID.String()),
			slog.String("error", err.Error()))
	}
}
