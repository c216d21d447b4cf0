package clock

import "time"

// Clock abstracts "now" so that windowing and backoff math can be tested
// against fixed instants.
type Clock interface {
	Now() time.Time
}

// System is a Clock backed by time.Now.
type System struct{}

func (System) Now() time.Time {
	return time.Now()
}

// In returns the current time converted to the given location.
func In(c Clock, loc *time.Location) time.Time {
	return c.Now().In(loc)
}
