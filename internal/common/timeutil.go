// Package common contains shared utilities used across the project:
// calendar-day math in the bot's canonical timezone and domain errors.
package common

import "time"

// DefaultTimezone is the canonical timezone for all day-boundary logic.
// Every claim decision uses this zone, never server-local time, so a
// redeploy to another region cannot shift the daily reset for users.
const DefaultTimezone = "Asia/Jakarta"

// LoadLocation loads the named timezone, falling back to a fixed UTC+7
// zone when the tzdata lookup fails (minimal containers without zoneinfo).
func LoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("WIB", 7*60*60)
	}
	return loc
}

// DateOf truncates t to midnight of its calendar day in loc.
func DateOf(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DaysBetween returns the number of calendar days from a to b (b - a).
// Both times are reduced to their calendar-day components first, so the
// result is exact across month and year boundaries and independent of the
// time-of-day or zone offset of the inputs.
func DaysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// SameDay reports whether a and b fall on the same calendar day.
// The caller is expected to pass times already expressed in the
// canonical zone (or dates normalized with DateOf).
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// FormatDate renders a date as "2006-01-02" for logs and API payloads.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}
