package layout

import "time"

// Placement is the rectangle handed to the renderer for one item.
// Top and Height are pixels from the top of the day column; Left and Width
// are percentages of the column width.
type Placement struct {
	ID           string    `json:"id"`
	Date         time.Time `json:"date"`
	Top          float64   `json:"top"`
	Height       float64   `json:"height"`
	LeftPercent  float64   `json:"leftPercent"`
	WidthPercent float64   `json:"widthPercent"`
	ZIndex       int       `json:"zIndex"`
}

// Project maps an assignment to its rectangle.
//
// Top and Height scale linearly with cfg.PixelsPerHour (apart from the
// MinimumHeight floor) and Left/Width do not depend on it at all, so a zoom
// change only needs another Project pass over the same assignments.
func Project(a Assignment, cfg Config) Placement {
	pph := cfg.PixelsPerHour

	top := minutesToPixels(a.Item.Start-cfg.dayStart(), pph)
	height := max(minutesToPixels(a.Item.Duration(), pph), cfg.MinimumHeight)

	laneCount := max(a.LaneCount, 1)
	width := (100 - cfg.LaneGutterPercent) / float64(laneCount)

	return Placement{
		ID:           a.Item.ID,
		Date:         a.Item.Date,
		Top:          top,
		Height:       height,
		LeftPercent:  float64(a.Lane) * width,
		WidthPercent: width,
		ZIndex:       cfg.BaseZIndex + a.Lane,
	}
}

// minutesToPixels multiplies before dividing so that whole-minute inputs
// produce exact results at the usual zoom presets.
func minutesToPixels(minutes int, pph float64) float64 {
	return float64(minutes) * pph / 60
}
