// Package calendarsync keeps owners' calendar connections alive by
// refreshing expired OAuth tokens through each provider's token endpoint.
//
// Failure classes follow OAuth semantics: invalid_grant means the refresh
// token is dead and only the owner reconnecting the calendar helps, endpoint
// overload and network trouble are retryable, and a calendar the owner
// unlinked is a policy block rather than a failure.
package calendarsync
