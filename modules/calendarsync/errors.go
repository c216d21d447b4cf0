package calendarsync

import "errors"

// Common errors
var (
	// ErrTokenStoreNil is returned when a nil token store is provided
	ErrTokenStoreNil = errors.New("token store cannot be nil")

	// ErrInvalidPayload is returned when a stored payload is missing the
	// owner, provider, or account
	ErrInvalidPayload = errors.New("invalid calendar sync payload")

	// ErrUnknownProvider is returned when no OAuth configuration exists for
	// the payload's provider
	ErrUnknownProvider = errors.New("unknown calendar provider")

	// ErrProviderDisconnected is returned by token stores when the owner
	// unlinked the calendar; refreshing is pointless but not an error
	ErrProviderDisconnected = errors.New("calendar provider disconnected by owner")

	// ErrReauthorizationRequired is returned when the refresh token is no
	// longer valid and the owner must reconnect the calendar
	ErrReauthorizationRequired = errors.New("calendar reauthorization required")

	// ErrTokenNotFound is returned when no token is stored for the account
	ErrTokenNotFound = errors.New("no token stored for account")
)
