package util

import "time"

// TruncateToDate discards any time-of-day component, keeping the calendar
// date in UTC.
func TruncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from a to b.
// Both arguments are truncated to dates first; negative when b is before a.
func DaysBetween(a, b time.Time) int {
	a = TruncateToDate(a)
	b = TruncateToDate(b)
	return int(b.Sub(a).Hours() / 24)
}

// Date builds a UTC calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
