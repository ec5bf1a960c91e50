package layout

import (
	"errors"
	"fmt"
)

var (
	ErrRange  = errors.New("invalid time range")
	ErrConfig = errors.New("invalid configuration")
)

// RangeError reports an item whose interval is empty or reversed after
// adaptation, or that lies entirely outside the visible hours.
type RangeError struct {
	ID    string
	Start int
	End   int
	Msg   string
}

func (e *RangeError) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("%s: item %q [%d, %d)", ErrRange, e.ID, e.Start, e.End)
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	return msg
}

func (e *RangeError) Unwrap() error { return ErrRange }

// ConfigError reports an unusable setting. It is returned at construction
// time, never in the middle of a layout.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s: %s", ErrConfig, e.Field, e.Msg)
}

func (e *ConfigError) Unwrap() error { return ErrConfig }

func configErrorf(field, format string, args ...any) error {
	return &ConfigError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// ItemError ties a per-item failure to the item that caused it.
// A failing item is left out of the layout; the rest of the day is unaffected.
type ItemError struct {
	ID  string
	Err error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("item %q: %v", e.ID, e.Err)
}

func (e ItemError) Unwrap() error { return e.Err }
