package backoff

import (
	"math"
	"time"
)

// Class categorizes a failed attempt and drives the retry decision.
type Class string

const (
	// ClassTransient covers network errors, timeouts, 5xx responses, and rate
	// limits. Transient failures are retried with exponential backoff.
	ClassTransient Class = "transient"

	// ClassPermanent covers malformed payloads, validation errors, and unknown
	// recipients. Permanent failures stop immediately.
	ClassPermanent Class = "permanent"

	// ClassPolicyBlocked covers opt-outs and owner-disabled targets. Policy
	// blocks stop immediately and are not treated as errors.
	ClassPolicyBlocked Class = "policy_blocked"
)

// Decision is the result of consulting the policy after a failed attempt.
// Either Terminal is true, or Delay holds the wait before the next attempt.
type Decision struct {
	Delay    time.Duration
	Terminal bool
}

// Policy computes retry delays as a pure function of the attempt count and
// failure class. Same inputs always yield the same decision: no jitter, no
// external state, so schedules are reproducible in tests.
type Policy struct {
	// BaseDelay is the unit delay; attempt n waits BaseDelay * Multiplier^n.
	BaseDelay time.Duration

	// Multiplier is the exponential growth factor between attempts.
	Multiplier float64

	// MaxAttempts is the retry cap; an attempt count above it is terminal.
	MaxAttempts int

	// MaxDelay caps a single delay. Zero means uncapped.
	MaxDelay time.Duration
}

// Default returns the policy used for external side effects: base 5 minutes,
// doubling, three attempts. Attempts 1, 2, 3 wait 10, 20, 40 minutes; the
// fourth transient failure is terminal.
func Default() Policy {
	return Policy{
		BaseDelay:   5 * time.Minute,
		Multiplier:  2,
		MaxAttempts: 3,
	}
}

// Next returns the decision for an operation whose attempt count, including
// the failure just recorded, is attempt. Permanent and policy-blocked classes
// are terminal regardless of attempt count.
func (p Policy) Next(attempt int, class Class) Decision {
	if class != ClassTransient {
		return Decision{Terminal: true}
	}
	if attempt > p.MaxAttempts {
		return Decision{Terminal: true}
	}
	if attempt < 1 {
		attempt = 1
	}

	base := p.BaseDelay
	if base <= 0 {
		base = 5 * time.Minute
	}
	multiplier := p.Multiplier
	if multiplier <= 0 {
		multiplier = 2
	}

	delay := time.Duration(float64(base) * math.Pow(multiplier, float64(attempt)))
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}

	return Decision{Delay: delay}
}
