// Package eligibility decides whether an operation may run right now given an
// owner's business constraints: allowed weekdays, local calling hours, and a
// daily dispatch quota that resets at the owner's midnight.
//
// The Evaluator is side-effect free. It reads the owner's Window from a
// Source (static map or YAML file), converts "now" to the owner's timezone,
// and returns a Decision. When the answer is no, the Decision carries the
// next instant the answer could change (the window-open instant, or the local
// midnight quota reset), so schedulers park the operation until then instead
// of polling.
//
// Quota counting is split on purpose: the Evaluator only reads the QuotaStore;
// the increment happens on successful dispatch inside the operation store's
// release transaction. An ineligible or failed attempt therefore never
// consumes quota.
package eligibility
