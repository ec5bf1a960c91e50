package calendar

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/cpuguy83/timegrid/internal/clock"
	"github.com/cpuguy83/timegrid/internal/layout"
)

// ToItems converts events to grid items in the wall clock of loc.
//
// All-day events and events that cross midnight do not fit a single day
// column and are skipped; skipped is their count. Events that start and end
// in the same minute become instantaneous items so they get the synthetic
// duration.
func ToItems(events []Event, loc *time.Location) (items []layout.ItemInput, skipped int) {
	if loc == nil {
		loc = time.Local
	}

	for _, e := range events {
		if e.AllDay {
			skipped++
			continue
		}

		start := e.Start.In(loc)
		end := e.End.In(loc)

		in := layout.ItemInput{
			ID:    itemID(e),
			Date:  clock.DateOf(start),
			Start: start.Format("15:04"),
		}

		switch {
		case e.Duration() <= 0:
			// instantaneous
		case clock.SameDate(start, end):
			// Events shorter than the grid's minute resolution are instants too.
			if hhmm := end.Format("15:04"); hhmm != in.Start {
				in.End = hhmm
			}
		case endsAtNextMidnight(start, end):
			// "24:00" is not a wall-clock time; the last minute is close enough.
			in.End = "23:59"
		default:
			slog.Debug("skipping multi-day event", "uid", e.UID, "source", e.Source, "start", start, "end", end)
			skipped++
			continue
		}

		items = append(items, in)
	}

	return items, skipped
}

func endsAtNextMidnight(start, end time.Time) bool {
	next := clock.AddDays(clock.DateOf(start), 1)
	return clock.SameDate(end, next) && clock.MinuteOfDay(end) == 0 && end.Second() == 0
}

// itemID keeps ids unique across sources that reuse UIDs.
func itemID(e Event) string {
	if e.UID == "" {
		return fmt.Sprintf("%s@%d", e.Source, e.Start.Unix())
	}
	if e.Source == "" {
		return e.UID
	}
	return e.Source + "/" + e.UID
}
