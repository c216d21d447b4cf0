// Package notify delivers owner-facing alerts when an operation reaches a
// terminal failure state (failed_terminal or blocked).
//
// Alerts are fire-and-forget by design: the dispatcher emits exactly one
// alert per terminal transition and ignores delivery errors, so the alerting
// channel can never stall or corrupt the retry state machine. Channels ship
// for structured logs (LogNotifier), email via Postmark (EmailNotifier), and
// best-effort fan-out over both (Multi).
package notify
