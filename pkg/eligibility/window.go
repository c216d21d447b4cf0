package eligibility

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// TimeOfDay is a wall-clock time within an owner's local day.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// Minutes returns the time of day as minutes since local midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ParseTimeOfDay parses "HH:MM" wall-clock strings.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	return TimeOfDay{Hour: parsed.Hour(), Minute: parsed.Minute()}, nil
}

// UnmarshalYAML implements yaml.Unmarshaler so windows can be declared as
// "09:00" strings in owner configuration files.
func (t *TimeOfDay) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Window is one owner's eligibility envelope: allowed weekdays, allowed local
// time-of-day range, timezone, and daily quota. It is owned and mutated by the
// owner's settings; the retry engine only reads it.
type Window struct {
	// Timezone is an IANA zone name, e.g. "America/Chicago".
	Timezone string

	// Weekdays lists the allowed days. Empty means every day.
	Weekdays []time.Weekday

	// Start and End bound the local time of day, half-open [Start, End).
	// Both zero means the whole day.
	Start TimeOfDay
	End   TimeOfDay

	// DailyLimit caps successful dispatches per local day. Zero means
	// unlimited.
	DailyLimit int
}

// Location resolves the window's timezone.
func (w Window) Location() (*time.Location, error) {
	if w.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(w.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, w.Timezone)
	}
	return loc, nil
}

func (w Window) allDay() bool {
	return w.Start == (TimeOfDay{}) && w.End == (TimeOfDay{})
}

func (w Window) allowsWeekday(d time.Weekday) bool {
	return len(w.Weekdays) == 0 || slices.Contains(w.Weekdays, d)
}

// Contains reports whether the local instant falls inside the window.
func (w Window) Contains(local time.Time) bool {
	if !w.allowsWeekday(local.Weekday()) {
		return false
	}
	if w.allDay() {
		return true
	}
	minutes := local.Hour()*60 + local.Minute()
	return minutes >= w.Start.Minutes() && minutes < w.End.Minutes()
}

// NextOpen returns the next instant at or after local when the window opens:
// the next allowed day at window-start local time. Returning an absolute
// instant instead of "try again in N minutes" avoids busy-retry storms
// outside business hours.
func (w Window) NextOpen(local time.Time) time.Time {
	for i := 0; i <= 7; i++ {
		day := local.AddDate(0, 0, i)
		if !w.allowsWeekday(day.Weekday()) {
			continue
		}

		open := time.Date(day.Year(), day.Month(), day.Day(), w.Start.Hour, w.Start.Minute, 0, 0, local.Location())
		if open.After(local) {
			return open
		}
	}
	// Unreachable with a sane window: some weekday within the next seven
	// days always matches. Guard anyway.
	return local.AddDate(0, 0, 7)
}

// NextMidnight returns the owner-local quota reset instant after local.
func NextMidnight(local time.Time) time.Time {
	next := local.AddDate(0, 0, 1)
	return time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, local.Location())
}

// Day formats the owner-local calendar day used as the quota bucket key.
func Day(local time.Time) string {
	return local.Format("2006-01-02")
}

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// ParseWeekday parses full or three-letter English weekday names.
func ParseWeekday(s string) (time.Weekday, error) {
	if d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return d, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, s)
}
