// Package clock provides a minimal time source abstraction.
//
// The retry engine never calls time.Now directly; every component that needs
// the current instant takes a clock.Clock. Production code wires clock.System,
// tests wire clock.Mock and drive it explicitly, which makes eligibility
// windows and backoff schedules reproducible.
package clock
