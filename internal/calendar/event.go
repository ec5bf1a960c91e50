// Package calendar provides calendar sources and turns their events into
// grid items.
package calendar

import (
	"context"
	"time"
)

// Event represents a calendar event.
type Event struct {
	// UID is the unique identifier for this event.
	UID string

	// Summary is the event title.
	Summary string

	// Description is the full event description/body.
	Description string

	// Location is the event location (may contain meeting URLs).
	Location string

	// Start is when the event begins.
	Start time.Time

	// End is when the event ends.
	End time.Time

	// AllDay indicates this is an all-day event.
	AllDay bool

	// Organizer is the email of the event organizer.
	Organizer string

	// Source is the name of the calendar source this event came from.
	Source string

	// URL is a URL associated with the event (if any).
	URL string
}

// Duration returns the duration of the event.
func (e *Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Field returns the named field for include filters.
func (e Event) Field(name string) string {
	switch name {
	case "title", "summary":
		return e.Summary
	case "organizer", "author":
		return e.Organizer
	case "source", "calendar":
		return e.Source
	case "description":
		return e.Description
	case "location":
		return e.Location
	default:
		return ""
	}
}

// Source is the interface that calendar sources must implement.
type Source interface {
	// Name returns the display name of this calendar source.
	Name() string

	// Fetch retrieves events that intersect [start, end).
	Fetch(ctx context.Context, start, end time.Time) ([]Event, error)
}

// isEffectivelyAllDay reports whether a timed event runs from local midnight
// to local midnight, which some servers use instead of VALUE=DATE.
func isEffectivelyAllDay(start, end time.Time) bool {
	if !end.After(start) {
		return false
	}
	isMidnight := func(t time.Time) bool {
		l := t.Local()
		return l.Hour() == 0 && l.Minute() == 0 && l.Second() == 0 && l.Nanosecond() == 0
	}
	return isMidnight(start) && isMidnight(end)
}

// inRange reports whether an event intersects [start, end).
func inRange(e Event, start, end time.Time) bool {
	return e.End.After(start) && e.Start.Before(end)
}
