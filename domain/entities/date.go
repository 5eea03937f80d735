package entities

import "time"

// DateLayout is the ISO-8601 calendar date layout used on the wire
const DateLayout = "2006-01-02"

// DateOf truncates t to its calendar date at 00:00 UTC.
// The wall-clock fields of t are kept, so a late evening timestamp in a
// western timezone keeps its local date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewDate builds a calendar date
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses an ISO-8601 calendar date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return DateOf(t), nil
}

// FormatDate renders a calendar date as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DaysIn returns the number of days in the given month
func DaysIn(year int, month time.Month) int {
	// Day 0 of the following month is the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
