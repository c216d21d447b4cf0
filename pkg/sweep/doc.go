// Package sweep schedules when due operations actually run.
//
// Two mechanisms cooperate. The Sweeper scans the store on a fixed interval
// and is the correctness backstop: every due operation is picked up within
// one interval no matter what else fails. The Waker arms a one-shot timer at
// an operation's exact next-attempt instant and only exists to cut latency;
// losing a wake, or the whole waker, costs at most one sweep interval.
//
// Both gates run due operations through the eligibility evaluator before
// dispatch. An ineligible operation is rescheduled to the next instant its
// verdict could change, without spending an attempt.
//
// The Canceller withdraws operations, moving the store record first so a
// concurrently firing wake re-reads a cancelled record and backs off.
package sweep
