// Package calendar provides the calendar-day arithmetic the booking
// engine is built on: month bounds, day enumeration and night
// counting. All values are date-only, normalized to UTC midnight,
// and stay intervals are half-open: a guest checking out on a day
// does not occupy that day's night.
package calendar

import (
	"errors"
	"time"
)

// DayFormat is the wire and database format for calendar days.
const DayFormat = "2006-01-02"

// ErrInvalidRange is returned when a check-out day does not fall
// strictly after the check-in day. The utilities never silently
// repair such a range; callers decide how to surface it.
var ErrInvalidRange = errors.New("check-out must be after check-in")

// Day truncates t to its calendar day in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD string into a UTC-midnight day.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(DayFormat, s)
}

// FormatDay renders a day in the YYYY-MM-DD wire format.
func FormatDay(t time.Time) string { return Day(t).Format(DayFormat) }

// MonthBounds returns the first and last day of the calendar month
// containing anchor. Both bounds are inclusive.
func MonthBounds(anchor time.Time) (first, last time.Time) {
	y, m, _ := anchor.UTC().Date()
	first = time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	last = first.AddDate(0, 1, -1)
	return first, last
}

// DaysInMonth returns every day of the calendar month containing
// anchor, in ascending order. The result always has 28 to 31
// entries.
func DaysInMonth(anchor time.Time) []time.Time {
	first, last := MonthBounds(anchor)
	days := make([]time.Time, 0, 31)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// EnumerateNights returns every night occupied by a stay over
// [checkIn, checkOut): checkIn inclusive, checkOut exclusive. The
// result is empty when checkOut <= checkIn.
func EnumerateNights(checkIn, checkOut time.Time) []time.Time {
	from, to := Day(checkIn), Day(checkOut)
	if !to.After(from) {
		return nil
	}
	nights := make([]time.Time, 0, int(to.Sub(from).Hours()/24))
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		nights = append(nights, d)
	}
	return nights
}

// NightsBetween counts the nights a stay over [checkIn, checkOut)
// occupies, matching the length of EnumerateNights. It returns
// ErrInvalidRange when checkOut does not fall after checkIn.
func NightsBetween(checkIn, checkOut time.Time) (int, error) {
	from, to := Day(checkIn), Day(checkOut)
	if !to.After(from) {
		return 0, ErrInvalidRange
	}
	return int(to.Sub(from).Hours() / 24), nil
}
