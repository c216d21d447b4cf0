package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/voicedesk/redial/pkg/clock"
	"github.com/voicedesk/redial/pkg/dispatch"
	"github.com/voicedesk/redial/pkg/eligibility"
	"github.com/voicedesk/redial/pkg/operation"
)

// Sweeper periodically scans the store for due operations and hands the
// eligible ones to the dispatcher. Ineligible operations are pushed to the
// next instant their eligibility could change without spending an attempt.
//
// The sweep is the correctness mechanism; exact-time wakes layered on top
// only reduce latency. Every due operation is picked up within one interval
// even if no wake ever fires.
type Sweeper struct {
	store      operation.Store
	dispatcher *dispatch.Dispatcher
	evaluator  *eligibility.Evaluator
	clock      clock.Clock
	logger     *slog.Logger

	interval      time.Duration
	batchSize     int
	kinds         []string
	maxConcurrent int
}

// SweeperOption configures a Sweeper.
type SweeperOption func(*Sweeper)

// WithInterval sets the sweep cadence. It bounds worst-case dispatch latency.
func WithInterval(interval time.Duration) SweeperOption {
	return func(s *Sweeper) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithBatchSize caps how many due operations a single pass picks up.
func WithBatchSize(size int) SweeperOption {
	return func(s *Sweeper) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// WithKinds restricts the sweep to the given operation kinds. An empty list
// sweeps everything.
func WithKinds(kinds ...string) SweeperOption {
	return func(s *Sweeper) {
		s.kinds = kinds
	}
}

// WithMaxConcurrent caps how many operations dispatch in parallel per pass.
func WithMaxConcurrent(n int) SweeperOption {
	return func(s *Sweeper) {
		if n > 0 {
			s.maxConcurrent = n
		}
	}
}

// WithEvaluator wires the eligibility gate. Without it every due operation
// dispatches immediately.
func WithEvaluator(e *eligibility.Evaluator) SweeperOption {
	return func(s *Sweeper) {
		s.evaluator = e
	}
}

// WithSweeperClock overrides the time source, mainly for tests.
func WithSweeperClock(c clock.Clock) SweeperOption {
	return func(s *Sweeper) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithSweeperLogger sets the logger.
func WithSweeperLogger(logger *slog.Logger) SweeperOption {
	return func(s *Sweeper) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSweeper creates a Sweeper over the given store and dispatcher.
func NewSweeper(store operation.Store, dispatcher *dispatch.Dispatcher, opts ...SweeperOption) (*Sweeper, error) {
	if store == nil {
		return nil, ErrStoreNil
	}
	if dispatcher == nil {
		return nil, ErrDispatcherNil
	}

	s := &Sweeper{
		store:         store,
		dispatcher:    dispatcher,
		clock:         clock.System{},
		logger:        slog.Default(),
		interval:      time.Minute,
		batchSize:     100,
		maxConcurrent: 10,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run sweeps on the configured interval until the context is cancelled. It
// blocks, so call it from its own goroutine or an errgroup.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.InfoContext(ctx, "sweeper started",
		slog.Duration("interval", s.interval),
		slog.Int("batch_size", s.batchSize))

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "sweeper stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logger.ErrorContext(ctx, "sweep pass failed",
					slog.String("error", err.Error()))
			}
		}
	}
}

// Sweep runs a single pass: recover expired claims, pick up due operations,
// gate each through eligibility, and dispatch the eligible ones.
func (s *Sweeper) Sweep(ctx context.Context) error {
	now := s.clock.Now()

	requeued, err := s.store.RequeueExpired(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to requeue expired claims: %w", err)
	}
	if requeued > 0 {
		s.logger.WarnContext(ctx, "requeued operations with expired claims",
			slog.Int("count", requeued))
	}

	due, err := s.store.FindDue(ctx, now, s.kinds, s.batchSize)
	if err != nil {
		return fmt.Errorf("failed to find due operations: %w", err)
	}
	if len(due) == 0 {
		return nil
	}

	sem := make(chan struct{}, s.maxConcurrent)
	done := make(chan struct{}, len(due))
	dispatched := 0

loop:
	for _, op := range due {
		if !s.eligible(ctx, op) {
			continue
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break loop
		}

		dispatched++
		go func(op operation.Operation) {
			defer func() {
				<-sem
				done <- struct{}{}
			}()
			if err := s.dispatcher.Process(ctx, op); err != nil {
				s.logger.ErrorContext(ctx, "failed to process operation",
					slog.String("operation_id", op.ID.String()),
					slog.String("kind", op.Kind),
					slog.String("error", err.Error()))
			}
		}(op)
	}

	for i := 0; i < dispatched; i++ {
		<-done
	}

	return ctx.Err()
}

// eligible checks the owner's window and quota. An ineligible operation is
// rescheduled to the verdict's retry instant; that move never costs an
// attempt, since no effect ran.
func (s *Sweeper) eligible(ctx context.Context, op operation.Operation) bool {
	if s.evaluator == nil {
		return true
	}

	decision, err := s.evaluator.Evaluate(ctx, op.OwnerID)
	if err != nil {
		// Fail closed: leave the operation due and let the next pass retry
		// the evaluation.
		s.logger.ErrorContext(ctx, "failed to evaluate eligibility",
			slog.String("operation_id", op.ID.String()),
			slog.String("owner_id", op.OwnerID),
			slog.String("error", err.Error()))
		return false
	}
	if decision.Allowed {
		return true
	}

	if err := s.store.Reschedule(ctx, op.ID, decision.RetryAt); err != nil {
		s.logger.ErrorContext(ctx, "failed to reschedule ineligible operation",
			slog.String("operation_id", op.ID.String()),
			slog.String("error", err.Error()))
		return false
	}

	s.logger.DebugContext(ctx, "operation deferred",
		slog.String("operation_id", op.ID.String()),
		slog.String("owner_id", op.OwnerID),
		slog.String("reason", string(decision.Reason)),
		slog.Time("retry_at", decision.RetryAt))
	return false
}
