package calendar

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	ics "github.com/emersion/go-ical"
)

// ICSSource fetches events from an ICS/iCal URL or a local .ics file.
type ICSSource struct {
	name     string
	url      string
	path     string
	username string
	password string
	client   *http.Client
}

// NewICSSource creates a new ICS calendar source for a URL.
func NewICSSource(name, url, username, password string) *ICSSource {
	return &ICSSource{
		name:     name,
		url:      url,
		username: username,
		password: password,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewICSFileSource creates an ICS source reading a file on disk.
func NewICSFileSource(name, path string) *ICSSource {
	return &ICSSource{
		name: name,
		path: path,
	}
}

// Name returns the display name of this calendar source.
func (s *ICSSource) Name() string {
	return s.name
}

// Fetch retrieves events from the ICS feed that intersect [start, end).
func (s *ICSSource) Fetch(ctx context.Context, start, end time.Time) ([]Event, error) {
	body, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	return s.parseICS(body, start, end)
}

func (s *ICSSource) open(ctx context.Context) (io.ReadCloser, error) {
	if s.path != "" {
		f, err := os.Open(s.path)
		if err != nil {
			return nil, fmt.Errorf("open ICS file: %w", err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	// Add basic auth if credentials provided
	if s.username != "" && s.password != "" {
		req.SetBasicAuth(s.username, s.password)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch ICS: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch ICS: status %d", resp.StatusCode)
	}

	return resp.Body, nil
}

// parseICS decodes every calendar in r and keeps the events in range.
func (s *ICSSource) parseICS(r io.Reader, start, end time.Time) ([]Event, error) {
	dec := ics.NewDecoder(r)

	var events []Event

	for {
		cal, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode ICS: %w", err)
		}

		events = append(events, expandCalendar(cal, s.name, start, end)...)
	}

	return events, nil
}

// expandCalendar returns the events of cal that overlap [start, end).
// An occurrence replaced by a RECURRENCE-ID override is taken from the
// override; cancelled overrides remove the occurrence.
func expandCalendar(cal *ics.Calendar, source string, start, end time.Time) []Event {
	overridden := make(map[string]bool)
	for _, comp := range cal.Children {
		if comp.Name != ics.CompEvent {
			continue
		}
		if uid, ok := overrideUID(comp); ok {
			overridden[uid] = true
		}
	}

	var events []Event
	for _, comp := range cal.Children {
		if comp.Name != ics.CompEvent {
			continue
		}
		_, isOverride := overrideUID(comp)
		if isOverride && isCancelled(comp) {
			continue
		}

		parsed, err := expandEvent(comp, source, start, end)
		if err != nil {
			slog.Debug("skipping event", "source", source, "error", err)
			continue
		}

		for _, event := range parsed {
			if !isOverride && overridden[event.UID] {
				continue
			}
			if inRange(event, start, end) {
				events = append(events, event)
			}
		}
	}
	return events
}

// expandEvent converts a VEVENT into events. Recurring events are expanded to
// their concrete occurrences inside [start, end) so that the grid only ever
// sees single instances.
func expandEvent(comp *ics.Component, source string, start, end time.Time) ([]Event, error) {
	base := parseTextProps(comp)
	base.Source = source

	startTime, isAllDay, err := parseStart(comp)
	if err != nil {
		return nil, err
	}

	duration, err := parseDuration(comp, startTime)
	if err != nil {
		return nil, err
	}

	if uid, ok := overrideUID(comp); ok {
		base.UID = uid
		base.Start = startTime
		base.End = startTime.Add(duration)
		base.AllDay = isAllDay || isEffectivelyAllDay(base.Start, base.End)
		return []Event{base}, nil
	}

	rset, err := comp.RecurrenceSet(time.Local)
	if err != nil {
		return nil, fmt.Errorf("parse recurrence: %w", err)
	}

	if rset == nil {
		base.Start = startTime
		base.End = startTime.Add(duration)
		base.AllDay = isAllDay || isEffectivelyAllDay(base.Start, base.End)
		return []Event{base}, nil
	}

	// Look back by duration to catch occurrences that started before the range.
	occurrences := rset.Between(start.Add(-duration), end, true)

	events := make([]Event, 0, len(occurrences))
	for _, occ := range occurrences {
		event := base
		event.Start = occ
		event.End = occ.Add(duration)
		event.AllDay = isAllDay || isEffectivelyAllDay(event.Start, event.End)
		event.UID = occurrenceUID(base.UID, occ)
		events = append(events, event)
	}

	return events, nil
}

// occurrenceUID identifies one instance of a recurring series.
func occurrenceUID(uid string, at time.Time) string {
	return fmt.Sprintf("%s_%d", uid, at.Unix())
}

// overrideUID returns the occurrence UID a RECURRENCE-ID component replaces.
func overrideUID(comp *ics.Component) (string, bool) {
	prop := comp.Props.Get(ics.PropRecurrenceID)
	if prop == nil {
		return "", false
	}
	at, _, err := parseTimeProp(prop)
	if err != nil {
		return "", false
	}
	var uid string
	if p := comp.Props.Get(ics.PropUID); p != nil {
		uid = p.Value
	}
	return occurrenceUID(uid, at), true
}

func isCancelled(comp *ics.Component) bool {
	prop := comp.Props.Get(ics.PropStatus)
	return prop != nil && strings.EqualFold(prop.Value, "CANCELLED")
}

// parseTextProps copies the descriptive properties of a VEVENT.
func parseTextProps(comp *ics.Component) Event {
	var event Event

	if prop := comp.Props.Get(ics.PropUID); prop != nil {
		event.UID = prop.Value
	}
	if prop := comp.Props.Get(ics.PropSummary); prop != nil {
		event.Summary = prop.Value
	}
	if prop := comp.Props.Get(ics.PropDescription); prop != nil {
		event.Description = prop.Value
	}
	if prop := comp.Props.Get(ics.PropLocation); prop != nil {
		event.Location = prop.Value
	}
	if prop := comp.Props.Get(ics.PropURL); prop != nil {
		event.URL = prop.Value
	}
	if prop := comp.Props.Get(ics.PropOrganizer); prop != nil {
		event.Organizer = strings.TrimPrefix(prop.Value, "mailto:")
	}

	return event
}

// parseStart reads DTSTART, falling back to floating and date-only forms.
func parseStart(comp *ics.Component) (time.Time, bool, error) {
	prop := comp.Props.Get(ics.PropDateTimeStart)
	if prop == nil {
		return time.Time{}, false, fmt.Errorf("missing DTSTART")
	}
	t, allDay, err := parseTimeProp(prop)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse start time: %w", err)
	}
	return t, allDay, nil
}

// parseDuration derives the event length from DTEND or DURATION.
// Events with neither last one hour.
func parseDuration(comp *ics.Component, start time.Time) (time.Duration, error) {
	if prop := comp.Props.Get(ics.PropDateTimeEnd); prop != nil {
		t, _, err := parseTimeProp(prop)
		if err != nil {
			return 0, fmt.Errorf("parse end time: %w", err)
		}
		return t.Sub(start), nil
	}
	if prop := comp.Props.Get(ics.PropDuration); prop != nil {
		d, err := prop.Duration()
		if err != nil {
			return 0, fmt.Errorf("parse duration: %w", err)
		}
		return d, nil
	}
	return time.Hour, nil
}

func parseTimeProp(prop *ics.Prop) (time.Time, bool, error) {
	if t, err := prop.DateTime(time.Local); err == nil {
		return t, false, nil
	}
	// Floating time without TZID.
	if t, err := parseDateTime(prop.Value); err == nil {
		return t, false, nil
	}
	t, err := parseDateOnly(prop.Value)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

// parseDateOnly parses a date-only value (YYYYMMDD format).
func parseDateOnly(s string) (time.Time, error) {
	return time.ParseInLocation("20060102", s, time.Local)
}

// parseDateTime parses a datetime value without timezone (YYYYMMDDTHHmmss format).
func parseDateTime(s string) (time.Time, error) {
	return time.ParseInLocation("20060102T150405", s, time.Local)
}

// Ensure ICSSource implements Source interface.
var _ Source = (*ICSSource)(nil)
