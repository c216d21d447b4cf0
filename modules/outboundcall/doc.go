// Package outboundcall places return calls through the AI voice platform.
//
// Every attempt runs the callee through the owner's do-not-call list first;
// a hit is a policy block and costs nothing. Platform answers map onto the
// engine's failure classes: rejected numbers are permanent, overload and
// network trouble are retryable. Completed calls count against the owner's
// daily quota.
package outboundcall
