package util

import (
	"strconv"
	"strings"
	"time"
)

// DayLayout is the calendar-day key format shared by stores and the analytics core.
const DayLayout = "2006-01-02"

// TruncateDay drops the time of day, keeping the calendar date the value was
// expressed in, and returns it as midnight UTC.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayKey returns the YYYY-MM-DD key for t.
func DayKey(t time.Time) string {
	return t.Format(DayLayout)
}

// AddDays moves a day-truncated date by n calendar days.
func AddDays(t time.Time, n int) time.Time {
	return TruncateDay(t).AddDate(0, 0, n)
}

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0).UTC(), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// ParseDay parses a calendar date. Besides the ParseTime formats it accepts a
// bare YYYY-MM-DD and the "Mon Jan 02 15:04:05 -0700 2006" form used by tweet
// payloads. ISO strings are cut to their first ten characters so that
// "2024-03-01T23:00:00-05:00" maps to 2024-03-01, not to the UTC day.
func ParseDay(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if len(s) >= 10 {
		if t, err := time.Parse(DayLayout, s[:10]); err == nil {
			return t, true
		}
	}
	if t, err := time.Parse(time.RubyDate, s); err == nil {
		return TruncateDay(t), true
	}
	if t, ok := ParseTime(s); ok {
		return TruncateDay(t), true
	}
	return time.Time{}, false
}
