package util

import "time"

// DateLayout is the ISO-8601 calendar date layout accepted on the wire.
const DateLayout = "2006-01-02"

// ParseDate parses an ISO calendar date. Single-digit month and day are
// accepted; surrounding whitespace is not. Returns (t, true) on success, t
// in UTC at midnight.
func ParseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{DateLayout, "2006-1-2"} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// MonthsBetween counts whole calendar months from (fromYear, fromMonth) to t.
func MonthsBetween(fromYear int, fromMonth time.Month, t time.Time) int {
	return (t.Year()-fromYear)*12 + int(t.Month()) - int(fromMonth)
}
