package calendar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	ics "github.com/emersion/go-ical"
)

var (
	rangeStart = time.Date(2026, 2, 1, 0, 0, 0, 0, time.Local)
	rangeEnd   = time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local)
)

// parseEvents runs expandEvent over every VEVENT in data.
func parseEvents(t *testing.T, data string, start, end time.Time) []Event {
	t.Helper()

	dec := ics.NewDecoder(strings.NewReader(data))
	cal, err := dec.Decode()
	if err != nil {
		t.Fatalf("failed to decode ICS: %v", err)
	}

	var events []Event
	for _, child := range cal.Children {
		if child.Name != ics.CompEvent {
			continue
		}
		parsed, err := expandEvent(child, "test", start, end)
		if err != nil {
			t.Fatalf("expandEvent error: %v", err)
		}
		events = append(events, parsed...)
	}
	return events
}

func TestParseEvent_EffectivelyAllDay(t *testing.T) {
	// Simulate an iCloud-style multi-day event encoded with full datetimes at midnight
	icsData := `BEGIN:VCALENDAR
BEGIN:VEVENT
UID:test-multiday-allday
SUMMARY:Mid-winter break (no school)
DTSTART:20260216T000000
DTEND:20260221T000000
END:VEVENT
END:VCALENDAR`

	events := parseEvents(t, icsData, rangeStart, rangeEnd)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if !ev.AllDay {
		t.Errorf("expected AllDay=true for midnight-to-midnight multi-day event, got false")
	}
	if ev.Summary != "Mid-winter break (no school)" {
		t.Errorf("unexpected summary: %s", ev.Summary)
	}
}

func TestParseEvent_DateOnlyAllDay(t *testing.T) {
	icsData := `BEGIN:VCALENDAR
BEGIN:VEVENT
UID:test-dateonly-allday
SUMMARY:Holiday
DTSTART;VALUE=DATE:20260217
DTEND;VALUE=DATE:20260218
END:VEVENT
END:VCALENDAR`

	events := parseEvents(t, icsData, rangeStart, rangeEnd)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if !events[0].AllDay {
		t.Errorf("expected AllDay=true for date-only event, got false")
	}
}

func TestParseEvent_TimedEventNotAllDay(t *testing.T) {
	icsData := `BEGIN:VCALENDAR
BEGIN:VEVENT
UID:test-timed
SUMMARY:Meeting
ORGANIZER:mailto:alice@example.com
DTSTART:20260217T100000
DTEND:20260217T110000
END:VEVENT
END:VCALENDAR`

	events := parseEvents(t, icsData, rangeStart, rangeEnd)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.AllDay {
		t.Errorf("expected AllDay=false for timed event, got true")
	}
	if ev.Organizer != "alice@example.com" {
		t.Errorf("Organizer = %q, want mailto: prefix stripped", ev.Organizer)
	}
	if ev.Duration() != time.Hour {
		t.Errorf("Duration() = %v, want 1h", ev.Duration())
	}
}

func TestParseEvent_DurationProperty(t *testing.T) {
	icsData := `BEGIN:VCALENDAR
BEGIN:VEVENT
UID:test-duration
SUMMARY:Standup
DTSTART:20260217T093000
DURATION:PT15M
END:VEVENT
END:VCALENDAR`

	events := parseEvents(t, icsData, rangeStart, rangeEnd)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if got := events[0].Duration(); got != 15*time.Minute {
		t.Errorf("Duration() = %v, want 15m", got)
	}
}

func TestParseEvent_ExpandsRecurrenceInRange(t *testing.T) {
	icsData := `BEGIN:VCALENDAR
BEGIN:VEVENT
UID:daily
SUMMARY:Daily sync
DTSTART:20260216T090000
DTEND:20260216T100000
RRULE:FREQ=DAILY;COUNT=5
END:VEVENT
END:VCALENDAR`

	start := time.Date(2026, 2, 17, 0, 0, 0, 0, time.Local)
	end := time.Date(2026, 2, 19, 0, 0, 0, 0, time.Local)

	events := parseEvents(t, icsData, start, end)
	if len(events) != 2 {
		t.Fatalf("expected 2 occurrences, got %d", len(events))
	}

	for i, day := range []int{17, 18} {
		want := time.Date(2026, 2, day, 9, 0, 0, 0, time.Local)
		if !events[i].Start.Equal(want) {
			t.Errorf("occurrence %d starts %v, want %v", i, events[i].Start, want)
		}
		if events[i].UID == "daily" {
			t.Errorf("occurrence %d kept the series UID", i)
		}
	}
	if events[0].UID == events[1].UID {
		t.Errorf("occurrences share UID %q", events[0].UID)
	}
}

const fetchICS = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//EN
BEGIN:VEVENT
UID:in-range
SUMMARY:Review
DTSTART:20260217T140000
DTEND:20260217T150000
END:VEVENT
BEGIN:VEVENT
UID:out-of-range
SUMMARY:Old
DTSTART:20250101T140000
DTEND:20250101T150000
END:VEVENT
END:VCALENDAR
`

func TestICSFileSource_Fetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cal.ics")
	if err := os.WriteFile(path, []byte(fetchICS), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewICSFileSource("file", path)
	events, err := s.Fetch(context.Background(), rangeStart, rangeEnd)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(events) != 1 || events[0].UID != "in-range" {
		t.Fatalf("Fetch() = %+v, want only in-range event", events)
	}
	if events[0].Source != "file" {
		t.Errorf("Source = %q, want file", events[0].Source)
	}
}

func TestICSSource_FetchHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "u" || pass != "p" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "text/calendar")
		w.Write([]byte(fetchICS))
	}))
	defer srv.Close()

	events, err := NewICSSource("web", srv.URL, "u", "p").Fetch(context.Background(), rangeStart, rangeEnd)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	_, err = NewICSSource("web", srv.URL, "u", "wrong").Fetch(context.Background(), rangeStart, rangeEnd)
	if err == nil {
		t.Fatal("expected error for unauthorized fetch")
	}
}
