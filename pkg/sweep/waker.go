package sweep

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voicedesk/redial/pkg/dispatch"
	"github.com/voicedesk/redial/pkg/eligibility"
	"github.com/voicedesk/redial/pkg/operation"
)

// Waker fires one-shot wakes at an operation's exact next-attempt instant so
// retries do not wait for the next sweep pass. Wakes are best effort: a
// missed or dropped wake only delays the operation until the sweep finds it.
//
// A wake re-reads the operation before dispatching, so a cancellation that
// lands between scheduling and firing deterministically wins.
type Waker struct {
	store      operation.Store
	dispatcher *dispatch.Dispatcher
	evaluator  *eligibility.Evaluator
	logger     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	timers  map[uuid.UUID]*time.Timer
	stopped bool
}

// WakerOption configures a Waker.
type WakerOption func(*Waker)

// WithWakerEvaluator wires the eligibility gate applied at fire time.
func WithWakerEvaluator(e *eligibility.Evaluator) WakerOption {
	return func(w *Waker) {
		w.evaluator = e
	}
}

// WithWakerLogger sets the logger.
func WithWakerLogger(logger *slog.Logger) WakerOption {
	return func(w *Waker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWaker creates a Waker over the given store and dispatcher.
func NewWaker(store operation.Store, dispatcher *dispatch.Dispatcher, opts ...WakerOption) (*Waker, error) {
	if store == nil {
		return nil, ErrStoreNil
	}
	if dispatcher == nil {
		return nil, ErrDispatcherNil
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Waker{
		store:      store,
		dispatcher: dispatcher,
		logger:     slog.Default(),
		ctx:        ctx,
		cancel:     cancel,
		timers:     make(map[uuid.UUID]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Schedule arms a wake for the operation at the given instant, replacing any
// wake already armed for it. Instants in the past fire immediately.
func (w *Waker) Schedule(id uuid.UUID, at time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return ErrWakerStopped
	}

	if timer, ok := w.timers[id]; ok {
		timer.Stop()
	}

	delay := time.Until(at)
	if delay < 0 {
		delay = 0
	}
	w.timers[id] = time.AfterFunc(delay, func() {
		w.fire(id)
	})
	return nil
}

// Cancel disarms the wake for the operation, if one is armed. It reports
// whether a wake was pending. The store record is not touched; pair with
// Canceller to cancel the operation itself.
func (w *Waker) Cancel(id uuid.UUID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	timer, ok := w.timers[id]
	if !ok {
		return false
	}
	timer.Stop()
	delete(w.timers, id)
	return ok
}

// Stop disarms all wakes and rejects further scheduling. In-progress
// dispatches are interrupted through their context.
func (w *Waker) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	for id, timer := range w.timers {
		timer.Stop()
		delete(w.timers, id)
	}
	w.mu.Unlock()

	w.cancel()
}

// Pending reports how many wakes are currently armed.
func (w *Waker) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.timers)
}

// fire re-validates the operation and dispatches it. Any state change since
// scheduling, cancellation included, makes the wake a no-op.
func (w *Waker) fire(id uuid.UUID) {
	w.mu.Lock()
	delete(w.timers, id)
	stopped := w.stopped
	w.mu.Unlock()
	if stopped {
		return
	}

	ctx := w.ctx

	op, err := w.store.Get(ctx, id)
	if err != nil {
		w.logger.DebugContext(ctx, "wake skipped, operation gone",
			slog.String("operation_id", id.String()))
		return
	}
	if !op.Status.Awaitable() {
		w.logger.DebugContext(ctx, "wake skipped, operation no longer awaitable",
			slog.String("operation_id", id.String()),
			slog.String("status", string(op.Status)))
		return
	}

	if w.evaluator != nil {
		decision, err := w.evaluator.Evaluate(ctx, op.OwnerID)
		if err != nil {
			// Leave it due; the sweep will retry the evaluation.
			w.logger.ErrorContext(ctx, "failed to evaluate eligibility on wake",
				slog.String("operation_id", id.String()),
				slog.String("error", err.Error()))
			return
		}
		if !decision.Allowed {
			if err := w.store.Reschedule(ctx, id, decision.RetryAt); err != nil {
				w.logger.ErrorContext(ctx, "failed to reschedule on wake",
					slog.String("operation_id", id.String()),
					slog.String("error", err.Error()))
				return
			}
			if err := w.Schedule(id, decision.RetryAt); err != nil {
				w.logger.DebugContext(ctx, "wake not rearmed",
					slog.String("operation_id", id.String()))
			}
			return
		}
	}

	if err := w.dispatcher.Process(ctx, *op); err != nil {
		w.logger.ErrorContext(ctx, "failed to process operation on wake",
			slog.String("operation_id", id.String()),
			slog.String("kind", op.Kind),
			slog.String("error", err.Error()))
	}
}
