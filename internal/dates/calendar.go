package dates

import (
	"fmt"
	"time"
)

// DayLayout is the canonical calendar-day string form.
const DayLayout = "2006-01-02"

// DefaultTimezone is the civil timezone the mail center operates in.
const DefaultTimezone = "America/New_York"

// storageLayout carries the explicit local UTC offset (-05:00/-04:00).
// The persistence layer's date columns interpret offsets literally, so a
// Z-suffixed UTC string would shift the visible date in reports.
const storageLayout = "2006-01-02T15:04:05.000-07:00"

// CalendarDay is a YYYY-MM-DD date as seen by a wall clock in a civil
// timezone. Zero-padded ISO form, so lexicographic order is date order.
type CalendarDay string

func (d CalendarDay) String() string { return string(d) }

// MalformedInstantError reports a timestamp that cannot be normalized to an
// instant. Batch callers skip the offending record instead of failing.
type MalformedInstantError struct {
	Value string
	Err   error
}

func (e *MalformedInstantError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed instant %q: %v", e.Value, e.Err)
	}
	return fmt.Sprintf("malformed instant %q", e.Value)
}

func (e *MalformedInstantError) Unwrap() error { return e.Err }

// Calendar projects absolute instants onto calendar days of one civil
// timezone. All day reasoning in the service funnels through it; no other
// code slices date strings or compares raw instants to decide "same day".
type Calendar struct {
	loc *time.Location
}

// NewCalendar resolves a tzdata zone name (e.g. "America/New_York").
func NewCalendar(tz string) (Calendar, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Calendar{}, fmt.Errorf("new calendar: load timezone %q: %w", tz, err)
	}
	return Calendar{loc: loc}, nil
}

func (c Calendar) Location() *time.Location { return c.loc }

// DayOf returns the calendar date a wall clock in the civil timezone would
// show at the given instant.
func (c Calendar) DayOf(t time.Time) CalendarDay {
	return CalendarDay(t.In(c.loc).Format(DayLayout))
}

// DaysBetween returns the whole-day difference between the calendar days of
// two instants. Both instants are projected to civil dates first and the
// dates are differenced as uniform UTC midnights, so the result is exact
// across DST transitions (where local days are 23 or 25 hours long) and
// independent of time-of-day. Same civil day yields 0 even when the instants
// are many hours apart; one minute straddling local midnight yields 1.
// Negative when to precedes from.
func (c Calendar) DaysBetween(from, to time.Time) int {
	a := civilMidnightUTC(from.In(c.loc))
	b := civilMidnightUTC(to.In(c.loc))
	return int(b.Sub(a) / (24 * time.Hour))
}

// civilMidnightUTC rebuilds the local calendar date as midnight UTC so day
// arithmetic works on uniform 24h days.
func civilMidnightUTC(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (c Calendar) SameDay(a, b time.Time) bool {
	return c.DayOf(a) == c.DayOf(b)
}

func (c Calendar) BeforeDay(a, b time.Time) bool {
	return c.DayOf(a) < c.DayOf(b)
}

func (c Calendar) AfterDay(a, b time.Time) bool {
	return c.DayOf(a) > c.DayOf(b)
}

// StartOfDay returns the instant of local midnight opening the given day.
func (c Calendar) StartOfDay(day CalendarDay) (time.Time, error) {
	t, err := time.ParseInLocation(DayLayout, string(day), c.loc)
	if err != nil {
		return time.Time{}, &MalformedInstantError{Value: string(day), Err: err}
	}
	return t, nil
}

// EndOfDay returns the last representable millisecond of the given day
// (23:59:59.999 local), for building inclusive query ranges.
func (c Calendar) EndOfDay(day CalendarDay) (time.Time, error) {
	t, err := time.ParseInLocation(DayLayout, string(day), c.loc)
	if err != nil {
		return time.Time{}, &MalformedInstantError{Value: string(day), Err: err}
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 999_000_000, c.loc), nil
}

// Today is the calendar day of the supplied instant. The clock is always an
// explicit argument so callers and tests control "now".
func (c Calendar) Today(asOf time.Time) CalendarDay {
	return c.DayOf(asOf)
}

// DaysAgo returns the calendar day n days before asOf's calendar day.
func (c Calendar) DaysAgo(asOf time.Time, n int) CalendarDay {
	return CalendarDay(civilMidnightUTC(asOf.In(c.loc)).AddDate(0, 0, -n).Format(DayLayout))
}

// instantLayouts are tried in order for timestamps without an explicit
// offset. Offset-less values are interpreted in the civil timezone, matching
// how front-desk staff enter times.
var instantLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	DayLayout,
}

// ParseInstant normalizes an ISO-8601 string (with or without offset) to an
// instant. Failure yields a MalformedInstantError.
func (c Calendar) ParseInstant(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range instantLayouts {
		if t, err := time.ParseInLocation(layout, s, c.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &MalformedInstantError{Value: s}
}

// FormatForStorage renders an instant for the persistence layer: ISO-8601 in
// the civil timezone with its explicit numeric offset.
func (c Calendar) FormatForStorage(t time.Time) string {
	return t.In(c.loc).Format(storageLayout)
}
