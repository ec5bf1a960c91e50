package web

import (
	"cmp"
	"slices"
	"time"

	"github.com/cpuguy83/timegrid/internal/clock"
	"github.com/cpuguy83/timegrid/internal/layout"
	"github.com/cpuguy83/timegrid/internal/window"
)

// View is everything a renderer needs to draw one window of the grid.
type View struct {
	Window        window.State       `json:"window"`
	Dates         []string           `json:"dates"`
	PixelsPerHour float64            `json:"pixelsPerHour"`
	Placements    []layout.Placement `json:"placements"`
	Errors        []ItemErrorDTO     `json:"errors"`

	// Marker is the pixel offset of the "now" line, absent when today is
	// not visible.
	Marker *float64 `json:"marker,omitempty"`
}

// ItemErrorDTO is the JSON form of a layout.ItemError.
type ItemErrorDTO struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// Render lays out the items that fall inside nav's window at pixelsPerHour.
// Items on other dates are ignored. Per-item failures are reported in
// View.Errors; only an unusable zoom scale fails the whole render.
func Render(engine *layout.Engine, nav *window.Navigator, items []layout.ItemInput, pixelsPerHour float64, now time.Time) (View, error) {
	cfg, err := engine.Config().WithPixelsPerHour(pixelsPerHour)
	if err != nil {
		return View{}, err
	}

	var visible []layout.ItemInput
	for _, it := range items {
		if nav.Contains(it.Date) {
			visible = append(visible, it)
		}
	}

	assignments, itemErrs := engine.Arrange(visible)
	placements, err := engine.ProjectAt(assignments, pixelsPerHour)
	if err != nil {
		return View{}, err
	}

	slices.SortStableFunc(itemErrs, func(a, b layout.ItemError) int {
		return cmp.Compare(a.ID, b.ID)
	})
	errs := make([]ItemErrorDTO, 0, len(itemErrs))
	for _, e := range itemErrs {
		errs = append(errs, ItemErrorDTO{ID: e.ID, Error: e.Err.Error()})
	}

	state := nav.State()
	dates := make([]string, 0, len(state.VisibleDates))
	for _, d := range state.VisibleDates {
		dates = append(dates, clock.FormatDate(d))
	}

	v := View{
		Window:        state,
		Dates:         dates,
		PixelsPerHour: pixelsPerHour,
		Placements:    placements,
		Errors:        errs,
	}
	if offset, ok := layout.MarkerOffset(now, state.VisibleDates, cfg); ok {
		v.Marker = &offset
	}
	return v, nil
}
