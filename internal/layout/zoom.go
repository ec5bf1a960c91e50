package layout

import (
	"fmt"
	"slices"
)

// DefaultZoomPresets are the pixels-per-hour steps offered by the grid.
var DefaultZoomPresets = []float64{60, 80, 100, 120, 150}

// Zoom steps through a sorted list of pixels-per-hour presets.
type Zoom struct {
	presets []float64
	index   int
}

// NewZoom returns a Zoom positioned on current, which must be one of presets.
func NewZoom(presets []float64, current float64) (*Zoom, error) {
	if len(presets) == 0 {
		presets = DefaultZoomPresets
	}
	sorted := slices.Clone(presets)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	if sorted[0] <= 0 {
		return nil, configErrorf("zoom_presets", "presets must be positive, got %v", sorted[0])
	}

	idx := slices.Index(sorted, current)
	if idx < 0 {
		return nil, configErrorf("pixels_per_hour", "%v is not one of the zoom presets %v", current, sorted)
	}
	return &Zoom{presets: sorted, index: idx}, nil
}

// PixelsPerHour is the current scale.
func (z *Zoom) PixelsPerHour() float64 {
	return z.presets[z.index]
}

// In moves to the next larger preset, staying on the last one.
func (z *Zoom) In() float64 {
	if z.index < len(z.presets)-1 {
		z.index++
	}
	return z.PixelsPerHour()
}

// Out moves to the next smaller preset, staying on the first one.
func (z *Zoom) Out() float64 {
	if z.index > 0 {
		z.index--
	}
	return z.PixelsPerHour()
}

func (z *Zoom) String() string {
	return fmt.Sprintf("%vpx/h", z.PixelsPerHour())
}
