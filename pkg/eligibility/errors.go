package eligibility

import "errors"

// Common errors
var (
	// ErrSourceNil is returned when a nil owner configuration source is provided
	ErrSourceNil = errors.New("owner configuration source cannot be nil")

	// ErrOwnerNotFound is returned when no window is configured for an owner
	ErrOwnerNotFound = errors.New("no eligibility window configured for owner")

	// ErrInvalidTimezone is returned when a window names an unknown IANA zone
	ErrInvalidTimezone = errors.New("invalid timezone")

	// ErrInvalidTimeOfDay is returned when a wall-clock string is not HH:MM
	ErrInvalidTimeOfDay = errors.New("invalid time of day, expected HH:MM")

	// ErrInvalidWeekday is returned when a weekday name is not recognized
	ErrInvalidWeekday = errors.New("invalid weekday name")

	// ErrInvalidWindowHours is returned when a window's end does not come
	// after its start; such a window can never contain any instant
	ErrInvalidWindowHours = errors.New("window end must be after start")

	// ErrQuotaUnavailable is returned when the quota store cannot be read
	ErrQuotaUnavailable = errors.New("quota store unavailable")
)
