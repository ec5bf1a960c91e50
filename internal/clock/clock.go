// Package clock converts between "HH:MM" wall-clock strings, minutes since
// midnight, and calendar dates.
package clock

import (
	"errors"
	"fmt"
	"time"
)

// MinutesPerDay is the length of a day on the grid.
const MinutesPerDay = 24 * 60

// dateLayout is the wire format for calendar dates.
const dateLayout = "2006-01-02"

// ErrFormat is the sentinel matched by every FormatError.
var ErrFormat = errors.New("invalid time format")

// FormatError reports a malformed "HH:MM" value or an out-of-range minute count.
type FormatError struct {
	Value string
	Msg   string
}

func (e *FormatError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return fmt.Sprintf("%s: %q", ErrFormat, e.Value)
	}
	return fmt.Sprintf("%s: %q: %s", ErrFormat, e.Value, e.Msg)
}

func (e *FormatError) Unwrap() error { return ErrFormat }

// Parse converts "HH:MM" to minutes since midnight.
// Exactly two digits are required on each side of the colon.
func Parse(hhmm string) (int, error) {
	if len(hhmm) != 5 || hhmm[2] != ':' {
		return 0, &FormatError{Value: hhmm, Msg: "want HH:MM"}
	}

	hours, ok := twoDigits(hhmm[0], hhmm[1])
	if !ok {
		return 0, &FormatError{Value: hhmm, Msg: "hours are not digits"}
	}
	mins, ok := twoDigits(hhmm[3], hhmm[4])
	if !ok {
		return 0, &FormatError{Value: hhmm, Msg: "minutes are not digits"}
	}

	if hours >= 24 {
		return 0, &FormatError{Value: hhmm, Msg: "hours out of range"}
	}
	if mins >= 60 {
		return 0, &FormatError{Value: hhmm, Msg: "minutes out of range"}
	}

	return hours*60 + mins, nil
}

// Format converts minutes since midnight to "HH:MM".
// Minutes must be in [0, 1440).
func Format(minutes int) (string, error) {
	if minutes < 0 || minutes >= MinutesPerDay {
		return "", &FormatError{Value: fmt.Sprint(minutes), Msg: "minutes out of range"}
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60), nil
}

func twoDigits(a, b byte) (int, bool) {
	if a < '0' || a > '9' || b < '0' || b > '9' {
		return 0, false
	}
	return int(a-'0')*10 + int(b-'0'), true
}

// MinuteOfDay returns the wall-clock minutes since midnight of t in its own location.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// DateOf returns the calendar date of t as midnight UTC.
// The wall date is taken in t's own location; no zone conversion happens.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a "YYYY-MM-DD" calendar date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return d, nil
}

// FormatDate formats a calendar date as "YYYY-MM-DD".
func FormatDate(d time.Time) string {
	return d.Format(dateLayout)
}

// AddDays moves a calendar date by n days.
func AddDays(d time.Time, n int) time.Time {
	return DateOf(d).AddDate(0, 0, n)
}

// SameDate reports whether a and b fall on the same calendar date.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// WeekStart returns the most recent first weekday on or before d.
func WeekStart(d time.Time, first time.Weekday) time.Time {
	d = DateOf(d)
	offset := (int(d.Weekday()) - int(first) + 7) % 7
	return d.AddDate(0, 0, -offset)
}
