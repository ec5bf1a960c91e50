// Package config provides configuration loading for timegrid.
package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/cpuguy83/timegrid/internal/layout"
	"github.com/cpuguy83/timegrid/internal/window"
)

// Source types.
const (
	SourceICS    = "ics"
	SourceCalDAV = "caldav"
	SourceICloud = "icloud"
	SourceMS365  = "ms365"
	SourceGit    = "git"
)

// Config is the root configuration structure.
type Config struct {
	Sync    SyncConfig     `yaml:"sync"`
	Sources []SourceConfig `yaml:"sources"`
	Filters FilterConfig   `yaml:"filters"`
	Layout  GridConfig     `yaml:"layout"`
	Server  ServerConfig   `yaml:"server"`
}

// SyncConfig configures how often sources are fetched and how much of
// them is kept.
type SyncConfig struct {
	Interval time.Duration `yaml:"interval"`

	// Schedule is a standard five-field cron expression; it wins over Interval.
	Schedule string `yaml:"schedule"`

	// Range is how far back and ahead of today events are fetched.
	Range time.Duration `yaml:"range"`
}

// SourceConfig configures a single item source.
type SourceConfig struct {
	Name        string       `yaml:"name"`
	Type        string       `yaml:"type"` // "ics", "caldav", "icloud", "ms365", "git"
	URL         string       `yaml:"url,omitempty"`
	Path        string       `yaml:"path,omitempty"` // local .ics file or git repository
	Username    string       `yaml:"username,omitempty"`
	Password    string       `yaml:"password,omitempty"`
	PasswordCmd string       `yaml:"password_cmd,omitempty"`
	Calendars   []string     `yaml:"calendars,omitempty"` // For CalDAV/iCloud: which calendars to sync
	Filters     FilterConfig `yaml:"filters,omitempty"`   // Per-source filters (include)

	// Git only.
	Branch     string `yaml:"branch,omitempty"`
	MaxCommits int    `yaml:"max_commits,omitempty"`
}

// FilterConfig configures include filtering.
type FilterConfig struct {
	Mode  string       `yaml:"mode"` // "or" or "and"
	Rules []FilterRule `yaml:"rules"`
}

// FilterRule defines a single filter rule.
// Use exactly one of: Contains, Exact, Prefix, Suffix, or Regex.
type FilterRule struct {
	Field           string `yaml:"field"`              // "title", "organizer", "source", "description", "location"
	Contains        string `yaml:"contains,omitempty"` // Substring match
	Exact           string `yaml:"exact,omitempty"`    // Exact string match
	Prefix          string `yaml:"prefix,omitempty"`   // Starts with
	Suffix          string `yaml:"suffix,omitempty"`   // Ends with
	Regex           string `yaml:"regex,omitempty"`    // Regular expression
	CaseInsensitive bool   `yaml:"case_insensitive"`
}

// GridConfig configures the day/hour grid.
type GridConfig struct {
	PixelsPerHour     float64   `yaml:"pixels_per_hour"`
	ZoomPresets       []float64 `yaml:"zoom_presets"`
	WindowLength      int       `yaml:"window_length"` // days: 1, 3, 5 or 7
	WeekAligned       bool      `yaml:"week_aligned"`
	WeekStart         string    `yaml:"week_start"` // "monday" or "sunday"
	DayStartHour      int       `yaml:"day_start_hour"`
	DayEndHour        int       `yaml:"day_end_hour"`
	LaneGutterPercent float64   `yaml:"lane_gutter_percent"`
	InstantDuration   int       `yaml:"instant_duration"` // minutes
	MinimumHeight     *float64  `yaml:"minimum_height"` // pixels; nil means default
	BaseZIndex        *int      `yaml:"base_z_index"`   // nil means default
	Lanes             string    `yaml:"lanes"`          // "per_item" or "packed"
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// DefaultPath returns ~/.config/timegrid/config.yaml (or the platform equivalent).
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get config dir: %w", err)
	}
	return filepath.Join(configDir, "timegrid", "config.yaml"), nil
}

// Load reads configuration from the default location.
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(expandPath(path))
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes, defaults and validates a YAML document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.applyDefaults()

	for i := range cfg.Sources {
		cfg.Sources[i].Path = expandPath(cfg.Sources[i].Path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with no sources and every default applied.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// applyDefaults sets default values for unspecified config options.
func (c *Config) applyDefaults() {
	if c.Sync.Interval == 0 {
		c.Sync.Interval = 5 * time.Minute
	}
	if c.Sync.Range == 0 {
		c.Sync.Range = 14 * 24 * time.Hour
	}
	if c.Filters.Mode == "" {
		c.Filters.Mode = "or"
	}
	for i := range c.Sources {
		if c.Sources[i].Type == SourceGit && c.Sources[i].MaxCommits == 0 {
			c.Sources[i].MaxCommits = 500
		}
	}

	l := &c.Layout
	if l.PixelsPerHour == 0 {
		l.PixelsPerHour = layout.DefaultPixelsPerHour
	}
	if len(l.ZoomPresets) == 0 {
		l.ZoomPresets = slices.Clone(layout.DefaultZoomPresets)
	}
	if l.WindowLength == 0 {
		l.WindowLength = 7
	}
	if l.WeekStart == "" {
		l.WeekStart = "monday"
	}
	if l.DayEndHour == 0 {
		l.DayEndHour = 24
	}
	if l.InstantDuration == 0 {
		l.InstantDuration = layout.DefaultInstantDuration
	}
	if l.MinimumHeight == nil {
		l.MinimumHeight = new(float64)
		*l.MinimumHeight = layout.DefaultMinimumHeight
	}
	if l.BaseZIndex == nil {
		l.BaseZIndex = new(int)
		*l.BaseZIndex = layout.DefaultBaseZIndex
	}
	if l.Lanes == "" {
		l.Lanes = string(layout.LanesPerItem)
	}

	if c.Server.Listen == "" {
		c.Server.Listen = "127.0.0.1:8080"
	}
}

// LayoutConfig converts the layout section for the engine.
func (c *Config) LayoutConfig() layout.Config {
	var minHeight float64 = layout.DefaultMinimumHeight
	baseZ := layout.DefaultBaseZIndex
	if c.Layout.MinimumHeight != nil {
		minHeight = *c.Layout.MinimumHeight
	}
	if c.Layout.BaseZIndex != nil {
		baseZ = *c.Layout.BaseZIndex
	}
	return layout.Config{
		PixelsPerHour:     c.Layout.PixelsPerHour,
		DayStartHour:      c.Layout.DayStartHour,
		DayEndHour:        c.Layout.DayEndHour,
		LaneGutterPercent: c.Layout.LaneGutterPercent,
		InstantDuration:   c.Layout.InstantDuration,
		MinimumHeight:     minHeight,
		BaseZIndex:        baseZ,
		Lanes:             layout.LaneStrategy(c.Layout.Lanes),
	}
}

// Weekday returns the configured first day of the week.
func (g GridConfig) Weekday() (time.Weekday, error) {
	switch strings.ToLower(g.WeekStart) {
	case "", "monday", "mon":
		return time.Monday, nil
	case "sunday", "sun":
		return time.Sunday, nil
	default:
		return 0, &layout.ConfigError{Field: "week_start", Msg: fmt.Sprintf("must be monday or sunday, got %q", g.WeekStart)}
	}
}

// Validate checks the whole configuration, joining every problem found.
// Layout problems are *layout.ConfigError values.
func (c *Config) Validate() error {
	var errs []error

	if err := c.LayoutConfig().Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := layout.NewZoom(c.Layout.ZoomPresets, c.Layout.PixelsPerHour); err != nil {
		errs = append(errs, err)
	}
	if !slices.Contains(window.Lengths, c.Layout.WindowLength) {
		errs = append(errs, &layout.ConfigError{Field: "window_length", Msg: fmt.Sprintf("must be one of %v, got %d", window.Lengths, c.Layout.WindowLength)})
	}
	if _, err := c.Layout.Weekday(); err != nil {
		errs = append(errs, err)
	}

	if c.Sync.Schedule != "" {
		if _, err := cron.ParseStandard(c.Sync.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("sync schedule %q: %w", c.Sync.Schedule, err))
		}
	}

	seen := make(map[string]bool)
	for i, src := range c.Sources {
		if err := src.validate(); err != nil {
			errs = append(errs, fmt.Errorf("source %d (%s): %w", i, src.Name, err))
		}
		if seen[src.Name] {
			errs = append(errs, fmt.Errorf("source %d: duplicate name %q", i, src.Name))
		}
		seen[src.Name] = true
	}

	return errors.Join(errs...)
}

func (s *SourceConfig) validate() error {
	if s.Name == "" {
		return errors.New("missing name")
	}
	switch s.Type {
	case SourceICS:
		if s.URL == "" && s.Path == "" {
			return errors.New("ics source needs url or path")
		}
	case SourceCalDAV:
		if s.URL == "" {
			return errors.New("caldav source needs url")
		}
	case SourceICloud:
		if s.Username == "" {
			return errors.New("icloud source needs username")
		}
	case SourceMS365:
	case SourceGit:
		if s.Path == "" {
			return errors.New("git source needs path")
		}
		if s.MaxCommits < 0 {
			return fmt.Errorf("max_commits must not be negative, got %d", s.MaxCommits)
		}
	default:
		return fmt.Errorf("unknown source type %q", s.Type)
	}
	return nil
}

// GetPassword returns the password for a source, executing password_cmd if needed.
func (s *SourceConfig) GetPassword() (string, error) {
	if s.Password != "" {
		return s.Password, nil
	}
	if s.PasswordCmd == "" {
		return "", nil
	}

	cmd := exec.Command("sh", "-c", s.PasswordCmd)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("execute password_cmd: %w", err)
	}

	return strings.TrimSpace(string(out)), nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// parseDuration extends time.ParseDuration with whole days ("14d") and
// weeks ("2w"). Negative values are rejected.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	var unit time.Duration
	switch {
	case strings.HasSuffix(s, "d"):
		unit = 24 * time.Hour
	case strings.HasSuffix(s, "w"):
		unit = 7 * 24 * time.Hour
	}

	if unit != 0 {
		n, err := strconv.Atoi(s[:len(s)-1])
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		if n < 0 {
			return 0, fmt.Errorf("negative duration %q", s)
		}
		return time.Duration(n) * unit, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}

// UnmarshalYAML implements custom unmarshaling for duration fields.
func (c *SyncConfig) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Interval string `yaml:"interval"`
		Schedule string `yaml:"schedule"`
		Range    string `yaml:"range"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	interval, err := parseDuration(raw.Interval)
	if err != nil {
		return fmt.Errorf("parse interval: %w", err)
	}
	rng, err := parseDuration(raw.Range)
	if err != nil {
		return fmt.Errorf("parse range: %w", err)
	}

	c.Interval = interval
	c.Schedule = raw.Schedule
	c.Range = rng
	return nil
}
