package domain

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used in config, flags and logs
const DateLayout = "2006-01-02"

// NormalizeDate truncates a timestamp to its UTC calendar date
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a UTC calendar date
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return NormalizeDate(t), nil
}

// FormatDate formats a date as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return NormalizeDate(t).Format(DateLayout)
}

// PreviousDate returns the calendar day before t
func PreviousDate(t time.Time) time.Time {
	return NormalizeDate(t).AddDate(0, 0, -1)
}

// DateRange returns every calendar date from start to end inclusive.
// Returns nil when end is before start.
func DateRange(start, end time.Time) []time.Time {
	start, end = NormalizeDate(start), NormalizeDate(end)
	if end.Before(start) {
		return nil
	}

	var dates []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}
