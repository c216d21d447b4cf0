// Package backoff computes retry delays for failed external side effects.
//
// A Policy maps (attempt count, failure class) to either a delay before the
// next attempt or a terminal decision. Delays grow exponentially from
// BaseDelay and the schedule is fully deterministic; callers that need jitter
// should add it at the scheduling layer, not here, so that the same inputs
// always reproduce the same schedule.
//
// Failure classes matter more than attempt counts: permanent failures and
// policy blocks are terminal on the first occurrence, only transient failures
// consume retry budget.
package backoff
