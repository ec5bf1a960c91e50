package layout

import "fmt"

// LaneStrategy selects how lanes are handed out inside a cluster.
type LaneStrategy string

const (
	// LanesPerItem gives every item of a cluster its own lane:
	// lane is the sorted index and laneCount is the cluster size.
	LanesPerItem LaneStrategy = "per_item"

	// LanesPacked reuses a lane as soon as its previous occupant has ended,
	// so laneCount is the peak number of concurrent items.
	LanesPacked LaneStrategy = "packed"
)

// Defaults for Config fields left at their zero value by DefaultConfig users.
const (
	DefaultPixelsPerHour   = 60
	DefaultInstantDuration = 30
	DefaultMinimumHeight   = 30
	DefaultBaseZIndex      = 10
)

// Config holds the numeric layout configuration. Every layout call takes it
// explicitly; nothing is read from package state.
type Config struct {
	// PixelsPerHour is the zoom scale.
	PixelsPerHour float64

	// DayStartHour and DayEndHour bound the visible hours of a day.
	DayStartHour int
	DayEndHour   int

	// LaneGutterPercent is left free at the right edge of each day column.
	LaneGutterPercent float64

	// InstantDuration is the synthetic length, in minutes, of items that
	// carry a start time only.
	InstantDuration int

	// MinimumHeight is the presentation floor for very short items, in pixels.
	MinimumHeight float64

	// BaseZIndex is the z-index of lane 0.
	BaseZIndex int

	Lanes LaneStrategy
}

// DefaultConfig returns the configuration used by the calendar screens.
func DefaultConfig() Config {
	return Config{
		PixelsPerHour:   DefaultPixelsPerHour,
		DayStartHour:    0,
		DayEndHour:      24,
		InstantDuration: DefaultInstantDuration,
		MinimumHeight:   DefaultMinimumHeight,
		BaseZIndex:      DefaultBaseZIndex,
		Lanes:           LanesPerItem,
	}
}

// Validate reports the first unusable field as a *ConfigError.
func (c Config) Validate() error {
	if !(c.PixelsPerHour > 0) {
		return configErrorf("pixels_per_hour", "must be positive, got %v", c.PixelsPerHour)
	}
	if c.DayStartHour < 0 || c.DayStartHour > 23 {
		return configErrorf("day_start_hour", "must be in [0, 23], got %d", c.DayStartHour)
	}
	if c.DayEndHour <= c.DayStartHour || c.DayEndHour > 24 {
		return configErrorf("day_end_hour", "must be in (%d, 24], got %d", c.DayStartHour, c.DayEndHour)
	}
	if c.LaneGutterPercent < 0 || c.LaneGutterPercent >= 100 {
		return configErrorf("lane_gutter_percent", "must be in [0, 100), got %v", c.LaneGutterPercent)
	}
	if c.InstantDuration <= 0 {
		return configErrorf("instant_duration", "must be positive, got %d", c.InstantDuration)
	}
	if c.MinimumHeight < 0 {
		return configErrorf("minimum_height", "must not be negative, got %v", c.MinimumHeight)
	}
	switch c.Lanes {
	case LanesPerItem, LanesPacked:
	default:
		return configErrorf("lanes", "unknown strategy %q", string(c.Lanes))
	}
	return nil
}

// dayStart and dayEnd are the visible bounds in minutes since midnight.
func (c Config) dayStart() int { return c.DayStartHour * 60 }
func (c Config) dayEnd() int   { return c.DayEndHour * 60 }

// WithPixelsPerHour returns a copy of c at another zoom scale.
func (c Config) WithPixelsPerHour(pph float64) (Config, error) {
	c.PixelsPerHour = pph
	if !(pph > 0) {
		return c, configErrorf("pixels_per_hour", "must be positive, got %v", pph)
	}
	return c, nil
}

// String is used in log attributes.
func (c Config) String() string {
	return fmt.Sprintf("pph=%v hours=[%d,%d) gutter=%v%% instant=%dm min=%vpx lanes=%s",
		c.PixelsPerHour, c.DayStartHour, c.DayEndHour, c.LaneGutterPercent,
		c.InstantDuration, c.MinimumHeight, c.Lanes)
}
