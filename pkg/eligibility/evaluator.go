package eligibility

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/voicedesk/redial/pkg/clock"
)

// Reason explains why an operation may not run right now.
type Reason string

const (
	// ReasonOutsideWindow marks dispatch attempts outside the owner's allowed
	// weekdays or local time-of-day range.
	ReasonOutsideWindow Reason = "outside_window"

	// ReasonQuotaExhausted marks the owner's daily quota being used up.
	ReasonQuotaExhausted Reason = "quota_exhausted"
)

// Decision is a point-in-time eligibility verdict. When Allowed is false,
// RetryAt carries the next instant the verdict could change: window open for
// time-of-day blocks, owner-local midnight for quota blocks. Ineligibility is
// not a failure and must never cost an operation an attempt.
type Decision struct {
	Allowed bool
	Reason  Reason
	RetryAt time.Time
}

// Source provides per-owner eligibility windows, read-only to the engine.
type Source interface {
	Window(ctx context.Context, ownerID string) (Window, error)
}

// QuotaReader reports consumed daily quota. The evaluator only reads;
// incrementing happens on successful dispatch, inside the operation store.
type QuotaReader interface {
	Used(ctx context.Context, ownerID, day string) (int, error)
}

// QuotaStore is the full per-owner daily counter: atomic increment-and-read,
// bucketed by owner-local calendar day so the count resets at local midnight.
type QuotaStore interface {
	QuotaReader
	Increment(ctx context.Context, ownerID, day string) (int, error)
}

// Evaluator decides whether an operation may run right now for a given owner.
// It is side-effect free: it never mutates the quota.
type Evaluator struct {
	source Source
	quota  QuotaReader
	clock  clock.Clock
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithQuota wires the daily quota reader. Without it, quota limits are not
// enforced.
func WithQuota(q QuotaReader) EvaluatorOption {
	return func(e *Evaluator) {
		e.quota = q
	}
}

// WithClock overrides the time source, mainly for tests.
func WithClock(c clock.Clock) EvaluatorOption {
	return func(e *Evaluator) {
		if c != nil {
			e.clock = c
		}
	}
}

// NewEvaluator creates an Evaluator over the given owner configuration source.
func NewEvaluator(source Source, opts ...EvaluatorOption) (*Evaluator, error) {
	if source == nil {
		return nil, ErrSourceNil
	}

	e := &Evaluator{
		source: source,
		clock:  clock.System{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Evaluate returns the eligibility decision for the owner at the current
// instant.
func (e *Evaluator) Evaluate(ctx context.Context, ownerID string) (Decision, error) {
	window, err := e.source.Window(ctx, ownerID)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to load window for owner %q: %w", ownerID, err)
	}

	loc, err := window.Location()
	if err != nil {
		return Decision{}, err
	}
	local := clock.In(e.clock, loc)

	if !window.Contains(local) {
		return Decision{
			Allowed: false,
			Reason:  ReasonOutsideWindow,
			RetryAt: window.NextOpen(local),
		}, nil
	}

	if window.DailyLimit > 0 && e.quota != nil {
		used, err := e.quota.Used(ctx, ownerID, Day(local))
		if err != nil {
			return Decision{}, errors.Join(ErrQuotaUnavailable, err)
		}
		if used >= window.DailyLimit {
			return Decision{
				Allowed: false,
				Reason:  ReasonQuotaExhausted,
				RetryAt: NextMidnight(local),
			}, nil
		}
	}

	return Decision{Allowed: true}, nil
}
