package layout

import (
	"cmp"
	"slices"
)

// Engine runs the full pipeline with a validated Config.
// It holds no state besides the Config and is safe for concurrent use.
type Engine struct {
	cfg Config
}

// Result is the output of one layout pass.
type Result struct {
	Placements []Placement
	Errors     []ItemError
}

// New validates cfg and returns an Engine.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Arrange normalizes inputs, resolves clusters and assigns lanes.
// The assignments do not depend on the zoom scale.
func (e *Engine) Arrange(inputs []ItemInput) ([]Assignment, []ItemError) {
	items, errs := NormalizeAll(inputs, e.cfg)

	var out []Assignment
	for _, c := range Clusters(items) {
		out = append(out, AssignLanes(c, e.cfg.Lanes)...)
	}
	return out, errs
}

// Project maps assignments to placements at the engine's zoom scale.
func (e *Engine) Project(assignments []Assignment) []Placement {
	return projectAll(assignments, e.cfg)
}

// ProjectAt maps assignments to placements at another zoom scale without
// re-deriving clusters or lanes.
func (e *Engine) ProjectAt(assignments []Assignment, pixelsPerHour float64) ([]Placement, error) {
	cfg, err := e.cfg.WithPixelsPerHour(pixelsPerHour)
	if err != nil {
		return nil, err
	}
	return projectAll(assignments, cfg), nil
}

// Layout runs the whole pipeline. Placements are ordered by date, top and id,
// errors by id, so that the result does not depend on the order of inputs.
func (e *Engine) Layout(inputs []ItemInput) Result {
	assignments, errs := e.Arrange(inputs)
	slices.SortStableFunc(errs, func(a, b ItemError) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return Result{
		Placements: e.Project(assignments),
		Errors:     errs,
	}
}

func projectAll(assignments []Assignment, cfg Config) []Placement {
	out := make([]Placement, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, Project(a, cfg))
	}
	slices.SortStableFunc(out, func(a, b Placement) int {
		return cmp.Or(
			a.Date.Compare(b.Date),
			cmp.Compare(a.Top, b.Top),
			cmp.Compare(a.ID, b.ID),
			cmp.Compare(a.LeftPercent, b.LeftPercent),
		)
	})
	return out
}
