// Package layout places timed items on a zoomable day/hour grid.
//
// Items are grouped by date, split into overlap clusters, given lanes inside
// each cluster and finally projected to rectangles. Every function here is
// pure: the same input and Config always produce the same output.
package layout

import (
	"time"

	"github.com/cpuguy83/timegrid/internal/clock"
)

// ItemInput is a timed item as delivered by a data source.
type ItemInput struct {
	ID   string    `json:"id"`
	Date time.Time `json:"date"`

	// Start and End are "HH:MM". End is empty for instantaneous items.
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// Instant reports whether the item carries a single timestamp.
func (in ItemInput) Instant() bool {
	return in.End == ""
}

// Item is a validated item with its interval in minutes since midnight.
// Start < End always holds.
type Item struct {
	ID    string
	Date  time.Time
	Start int
	End   int
}

// Duration is the item length in minutes.
func (it Item) Duration() int {
	return it.End - it.Start
}

// Overlaps reports whether two items intersect as half-open intervals.
// Items that only touch (one ends when the other starts) do not overlap.
func (it Item) Overlaps(other Item) bool {
	return it.Start < other.End && other.Start < it.End
}

// Normalize validates an input and turns it into an Item.
//
// Instantaneous items get End = Start + cfg.InstantDuration, clamped to the
// end of the visible day. Explicit intervals are never coerced: end <= start
// is a *RangeError. Items are clipped to the visible hours; one that lies
// fully outside them is a *RangeError as well.
func Normalize(in ItemInput, cfg Config) (Item, error) {
	it := Item{ID: in.ID, Date: clock.DateOf(in.Date)}

	start, err := clock.Parse(in.Start)
	if err != nil {
		return it, err
	}
	it.Start = start

	if in.Instant() {
		it.End = min(start+cfg.InstantDuration, cfg.dayEnd())
	} else {
		end, err := clock.Parse(in.End)
		if err != nil {
			return it, err
		}
		if end <= start {
			return it, &RangeError{ID: in.ID, Start: start, End: end, Msg: "end is not after start"}
		}
		it.End = end
	}

	clippedStart := max(it.Start, cfg.dayStart())
	clippedEnd := min(it.End, cfg.dayEnd())
	if clippedEnd <= clippedStart {
		return it, &RangeError{ID: in.ID, Start: it.Start, End: it.End, Msg: "outside visible hours"}
	}
	it.Start, it.End = clippedStart, clippedEnd

	return it, nil
}

// NormalizeAll runs Normalize over inputs, collecting failures per item.
func NormalizeAll(inputs []ItemInput, cfg Config) ([]Item, []ItemError) {
	items := make([]Item, 0, len(inputs))
	var errs []ItemError
	for _, in := range inputs {
		it, err := Normalize(in, cfg)
		if err != nil {
			errs = append(errs, ItemError{ID: in.ID, Err: err})
			continue
		}
		items = append(items, it)
	}
	return items, errs
}
