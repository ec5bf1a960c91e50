// Package window tracks which dates a day/hour grid shows.
package window

import (
	"slices"
	"time"

	"github.com/cpuguy83/timegrid/internal/clock"
	"github.com/cpuguy83/timegrid/internal/layout"
)

// Lengths are the supported window presets, in days.
var Lengths = []int{1, 3, 5, 7}

// State is an immutable snapshot of a Navigator, passed explicitly into a
// render.
type State struct {
	Anchor       time.Time   `json:"anchor"`
	Length       int         `json:"length"`
	WeekAligned  bool        `json:"weekAligned"`
	VisibleDates []time.Time `json:"visibleDates"`
}

// Navigator holds the anchor date and window length. It is only changed by
// its navigation methods.
type Navigator struct {
	anchor      time.Time
	length      int
	weekAligned bool
	weekStart   time.Weekday
	now         func() time.Time
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithWeekAligned starts the window on the first weekday on or before the anchor.
func WithWeekAligned(aligned bool) Option {
	return func(n *Navigator) { n.weekAligned = aligned }
}

// WithWeekStart sets the first day of the week (Monday by default).
func WithWeekStart(d time.Weekday) Option {
	return func(n *Navigator) { n.weekStart = d }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(n *Navigator) { n.now = now }
}

// New returns a Navigator anchored at anchor.
// length must be one of Lengths, otherwise a *layout.ConfigError is returned.
func New(anchor time.Time, length int, opts ...Option) (*Navigator, error) {
	if err := checkLength(length); err != nil {
		return nil, err
	}

	n := &Navigator{
		length:    length,
		weekStart: time.Monday,
		now:       time.Now,
	}
	for _, o := range opts {
		o(n)
	}
	n.setAnchor(anchor)
	return n, nil
}

func checkLength(length int) error {
	if !slices.Contains(Lengths, length) {
		return &layout.ConfigError{Field: "window_length", Msg: "must be one of 1, 3, 5 or 7"}
	}
	return nil
}

func (n *Navigator) setAnchor(d time.Time) {
	d = clock.DateOf(d)
	if n.weekAligned {
		d = clock.WeekStart(d, n.weekStart)
	}
	n.anchor = d
}

// Anchor returns the current anchor date.
func (n *Navigator) Anchor() time.Time {
	return n.anchor
}

// Length returns the window length in days.
func (n *Navigator) Length() int {
	return n.length
}

// VisibleDates returns the window's consecutive dates in order.
func (n *Navigator) VisibleDates() []time.Time {
	dates := make([]time.Time, n.length)
	for i := range dates {
		dates[i] = clock.AddDays(n.anchor, i)
	}
	return dates
}

// Contains reports whether d is one of the visible dates.
func (n *Navigator) Contains(d time.Time) bool {
	d = clock.DateOf(d)
	first := n.anchor
	last := clock.AddDays(n.anchor, n.length-1)
	return !d.Before(first) && !d.After(last)
}

// Step pages the window. Only the sign of direction matters.
// A window moves by its length; a week-aligned multi-day window moves by a
// whole week.
func (n *Navigator) Step(direction int) {
	switch {
	case direction > 0:
		direction = 1
	case direction < 0:
		direction = -1
	default:
		return
	}
	n.anchor = clock.AddDays(n.anchor, direction*n.pageDays())
}

// Jump pages the window pages times in one move, backwards when pages is
// negative. It is equivalent to that many calls to Step.
func (n *Navigator) Jump(pages int) {
	n.anchor = clock.AddDays(n.anchor, pages*n.pageDays())
}

func (n *Navigator) pageDays() int {
	if n.weekAligned && n.length > 1 {
		return 7
	}
	return n.length
}

// ResetToToday moves the anchor to today, or to the start of this week in
// week-aligned mode.
func (n *Navigator) ResetToToday() {
	n.setAnchor(n.now())
}

// SetLength switches to another window preset, keeping the anchor.
func (n *Navigator) SetLength(length int) error {
	if err := checkLength(length); err != nil {
		return err
	}
	n.length = length
	return nil
}

// State returns a snapshot of the navigator.
func (n *Navigator) State() State {
	return State{
		Anchor:       n.anchor,
		Length:       n.length,
		WeekAligned:  n.weekAligned,
		VisibleDates: n.VisibleDates(),
	}
}
