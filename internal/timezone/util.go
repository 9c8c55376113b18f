// Package timezone provides calendar-date utilities for veida.
//
// Review schedules are stored as plain "2006-01-02" dates. Every date is
// derived in one canonical location so that schedule generation and the
// due-today scan agree on what "today" means.
package timezone

import (
	"fmt"
	"time"
)

// DateLayout is the storage and wire format of calendar dates.
const DateLayout = "2006-01-02"

// DateTimeLayout is the long exam date format.
const DateTimeLayout = "2006-01-02 15:04:05"

// UTC is the coordinated universal time timezone
var UTC = time.UTC

// ParseTimezone parses an IANA timezone identifier (e.g., "Europe/Paris").
// If the timezone is invalid, returns UTC and an error.
func ParseTimezone(tz string) (*time.Location, error) {
	if tz == "" || tz == "UTC" {
		return UTC, nil
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return UTC, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}

	return loc, nil
}

// IsValidTimezone checks if a timezone identifier is valid.
func IsValidTimezone(tz string) bool {
	_, err := ParseTimezone(tz)
	return err == nil
}

// StartOfDay returns the start of the day (00:00:00) in the given timezone.
func StartOfDay(t time.Time, tz *time.Location) time.Time {
	if tz == nil {
		tz = UTC
	}
	local := t.In(tz)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, tz)
}

// AddDays moves a date by n calendar days. Daylight saving shifts do not
// change the resulting wall-clock date.
func AddDays(day time.Time, n int) time.Time {
	return day.AddDate(0, 0, n)
}

// DaysBetween returns the number of calendar days from a to b in tz.
// The result is negative when b is before a.
func DaysBetween(a, b time.Time, tz *time.Location) int {
	da := StartOfDay(a, tz)
	db := StartOfDay(b, tz)
	// Rebuild both dates in UTC so DST transitions never yield a 23 or 25 hour day.
	ua := time.Date(da.Year(), da.Month(), da.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(db.Year(), db.Month(), db.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// FormatDate renders t as a calendar date in tz.
func FormatDate(t time.Time, tz *time.Location) string {
	if tz == nil {
		tz = UTC
	}
	return t.In(tz).Format(DateLayout)
}

// ParseDate parses a "2006-01-02" date at the start of that day in tz.
func ParseDate(s string, tz *time.Location) (time.Time, error) {
	if tz == nil {
		tz = UTC
	}
	return time.ParseInLocation(DateLayout, s, tz)
}

// Today returns the current calendar date in tz.
func Today(now time.Time, tz *time.Location) string {
	return FormatDate(now, tz)
}

// ToUserTimezone converts a Unix timestamp to the given timezone.
func ToUserTimezone(ts int64, tz *time.Location) time.Time {
	if tz == nil {
		tz = UTC
	}
	return time.Unix(ts, 0).In(tz)
}
