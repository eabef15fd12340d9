package utils

import "time"

// Now returns the current time in UTC timezone
func Now() time.Time {
	return time.Now().UTC()
}

// FormatISO8601 formats a time.Time to ISO8601 format in UTC
func FormatISO8601(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// FormatDate formats t as YYYY-MM-DD in its own location.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// WholeDays returns the number of whole days in d, rounded toward negative
// infinity. A span of -1h is -1 day, a span of 23h is 0 days.
func WholeDays(d time.Duration) int {
	days := d / (24 * time.Hour)
	if d < 0 && d%(24*time.Hour) != 0 {
		days--
	}
	return int(days)
}

// DaysBetween returns WholeDays(later - earlier).
func DaysBetween(earlier, later time.Time) int {
	return WholeDays(later.Sub(earlier))
}

// AddDays truncates t to the second and adds n calendar days.
func AddDays(t time.Time, n int) time.Time {
	return t.Truncate(time.Second).AddDate(0, 0, n)
}
