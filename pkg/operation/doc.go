// Package operation holds the durable record of retryable side-effect work.
//
// The package is organised around three pieces:
//
//   - Operation: one retryable unit of work, identified by an idempotency key
//   - Enqueuer: creates pending operations from external triggers
//   - Store: persistence with a compare-and-swap Claim
//
// The Store interface carries the two invariants the rest of the engine leans
// on. First, Claim transitions awaitable -> in_flight only when the current
// status is awaitable, so concurrent claims on one operation produce exactly
// one winner; this is the at-most-one-in-flight guarantee, and it works the
// same whether sweeps run in one process or many. Second, terminal statuses
// (completed, failed_terminal, blocked, cancelled) are sinks: Release and
// Reschedule refuse to touch them.
//
// Two implementations ship with the package: MemoryStore for tests and local
// development, and PostgresStore for production. PostgresStore commits a
// successful release and its quota charge in one transaction so a crash
// between the two cannot miscount the owner's daily quota.
package operation
