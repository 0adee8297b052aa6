// Package timeutil provides timezone utilities for the hub timezone (UTC-6).
// Daily aggregates, streaks and reminder windows are all anchored to the
// bootcamp's local day, not the server's.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// HubTZ is the bootcamp timezone (UTC-6, no DST).
// Using FixedZone avoids depending on the tzdata being present.
var HubTZ = time.FixedZone("America/Mexico_City", -6*60*60)

// Now returns the current time in the hub timezone.
func Now() time.Time {
	return time.Now().In(HubTZ)
}

// ToHub converts a time to the hub timezone.
func ToHub(t time.Time) time.Time {
	return t.In(HubTZ)
}

// ToUTC converts a time to UTC.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// Date creates a time in the hub timezone with the given date.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, HubTZ)
}

// StartOfDay returns midnight of the given day in the hub timezone.
func StartOfDay(t time.Time) time.Time {
	local := ToHub(t)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, HubTZ)
}

// EndOfDay returns the last nanosecond of the given day in the hub timezone.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// StartOfWeek returns Monday midnight of the week containing t.
func StartOfWeek(t time.Time) time.Time {
	local := StartOfDay(t)
	weekday := int(local.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return local.AddDate(0, 0, -(weekday - 1))
}

// IsToday reports whether t falls on the current hub day.
func IsToday(t time.Time) bool {
	return IsSameDay(t, Now())
}

// IsSameDay reports whether two times fall on the same hub day.
func IsSameDay(t1, t2 time.Time) bool {
	a, b := ToHub(t1), ToHub(t2)
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// IsConsecutiveDay reports whether t2 is the hub day right after t1.
func IsConsecutiveDay(t1, t2 time.Time) bool {
	return IsSameDay(StartOfDay(t1).AddDate(0, 0, 1), t2)
}

// DaysBetween returns the number of whole hub days between two times.
// Always non-negative.
func DaysBetween(t1, t2 time.Time) int {
	d1, d2 := StartOfDay(t1), StartOfDay(t2)
	if d1.After(d2) {
		d1, d2 = d2, d1
	}
	return int(d2.Sub(d1).Hours() / 24)
}

// DaysSince returns the number of whole hub days since t.
func DaysSince(t time.Time) int {
	return DaysBetween(t, Now())
}

// ══════════════════════════════════════════════════════════════════════════════
// QUIET HOURS
// Reminders must not wake anyone up.
// ══════════════════════════════════════════════════════════════════════════════

const (
	quietHoursStart = 22 // 22:00 local
	quietHoursEnd   = 9  // 09:00 local
)

// IsQuietHours reports whether t falls into the local do-not-disturb window.
func IsQuietHours(t time.Time) bool {
	hour := ToHub(t).Hour()
	return hour >= quietHoursStart || hour < quietHoursEnd
}

// NextNotificationTime returns t unchanged when outside quiet hours, or the
// next 09:00 local otherwise.
func NextNotificationTime(t time.Time) time.Time {
	if !IsQuietHours(t) {
		return t
	}

	local := ToHub(t)
	next := time.Date(local.Year(), local.Month(), local.Day(), quietHoursEnd, 0, 0, 0, HubTZ)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// ══════════════════════════════════════════════════════════════════════════════
// FORMATTING & PARSING
// ══════════════════════════════════════════════════════════════════════════════

// FormatHub formats a time in the hub timezone with the given layout.
func FormatHub(t time.Time, layout string) string {
	return ToHub(t).Format(layout)
}

// FormatDateStr formats a date as YYYY-MM-DD in the hub timezone.
func FormatDateStr(t time.Time) string {
	return FormatHub(t, "2006-01-02")
}

// FormatDateTimeStr formats a timestamp as YYYY-MM-DD HH:MM in the hub
// timezone.
func FormatDateTimeStr(t time.Time) string {
	return FormatHub(t, "2006-01-02 15:04")
}

// FormatRelative renders a human-friendly relative time ("2h ago", "in 3d").
func FormatRelative(t time.Time) string {
	d := time.Since(t)
	if d >= 0 {
		return formatPastDuration(d)
	}
	return formatFutureDuration(-d)
}

func formatPastDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

func formatFutureDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "in a moment"
	case d < time.Hour:
		return fmt.Sprintf("in %dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("in %dh", int(d.Hours()))
	default:
		return fmt.Sprintf("in %dd", int(d.Hours()/24))
	}
}

// ParseDate parses YYYY-MM-DD as a hub-timezone date.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", value, HubTZ)
}

// ParseDateTime parses YYYY-MM-DD HH:MM as a hub-timezone timestamp.
func ParseDateTime(value string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", value, HubTZ)
}
