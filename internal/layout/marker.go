package layout

import (
	"time"

	"github.com/cpuguy83/timegrid/internal/clock"
)

// MarkerOffset returns the pixel offset of the "now" line.
// ok is false when today is not among the visible dates or now falls outside
// the visible hours; the renderer then draws no marker. Callers re-invoke it
// on their own tick.
func MarkerOffset(now time.Time, visible []time.Time, cfg Config) (offset float64, ok bool) {
	today := clock.DateOf(now)
	found := false
	for _, d := range visible {
		if clock.SameDate(d, today) {
			found = true
			break
		}
	}
	if !found {
		return 0, false
	}

	m := clock.MinuteOfDay(now)
	if m < cfg.dayStart() || m >= cfg.dayEnd() {
		return 0, false
	}
	return minutesToPixels(m-cfg.dayStart(), cfg.PixelsPerHour), true
}
