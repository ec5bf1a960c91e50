package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cpuguy83/timegrid/internal/layout"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
		wantErr  bool
	}{
		// Days
		{"1d", 24 * time.Hour, false},
		{"14d", 14 * 24 * time.Hour, false},
		{"30d", 30 * 24 * time.Hour, false},

		// Weeks
		{"1w", 7 * 24 * time.Hour, false},
		{"2w", 14 * 24 * time.Hour, false},
		{"4w", 28 * 24 * time.Hour, false},

		// Standard Go durations
		{"5m", 5 * time.Minute, false},
		{"1h", time.Hour, false},
		{"24h", 24 * time.Hour, false},
		{"336h", 14 * 24 * time.Hour, false},
		{"1h30m", time.Hour + 30*time.Minute, false},

		// Edge cases
		{"0d", 0, false},
		{"0w", 0, false},
		{"", 0, false},
		{"  14d  ", 14 * 24 * time.Hour, false},

		// Errors
		{"invalid", 0, true},
		{"d", 0, true},
		{"w", 0, true},
		{"14x", 0, true},
		{"-1d", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseDuration(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseDuration(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.expected {
				t.Errorf("parseDuration(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("sources: []\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Sync.Interval != 5*time.Minute {
		t.Errorf("Sync.Interval = %v, want 5m", cfg.Sync.Interval)
	}
	if cfg.Sync.Range != 14*24*time.Hour {
		t.Errorf("Sync.Range = %v, want 14d", cfg.Sync.Range)
	}
	if cfg.Server.Listen != "127.0.0.1:8080" {
		t.Errorf("Server.Listen = %q", cfg.Server.Listen)
	}

	got := cfg.LayoutConfig()
	want := layout.DefaultConfig()
	if got != want {
		t.Errorf("LayoutConfig() = %v, want %v", got, want)
	}
	if cfg.Layout.WindowLength != 7 {
		t.Errorf("WindowLength = %d, want 7", cfg.Layout.WindowLength)
	}
	if wd, err := cfg.Layout.Weekday(); err != nil || wd != time.Monday {
		t.Errorf("Weekday() = %v, %v; want Monday", wd, err)
	}
}

func TestParse_ExplicitZeroLayout(t *testing.T) {
	tests := []struct {
		name       string
		doc        string
		wantHeight float64
		wantZ      int
	}{
		{
			name:       "omitted",
			doc:        "layout:\n  pixels_per_hour: 60\n",
			wantHeight: layout.DefaultMinimumHeight,
			wantZ:      layout.DefaultBaseZIndex,
		},
		{
			name:       "explicit zero",
			doc:        "layout:\n  minimum_height: 0\n  base_z_index: 0\n",
			wantHeight: 0,
			wantZ:      0,
		},
		{
			name:       "explicit values",
			doc:        "layout:\n  minimum_height: 12.5\n  base_z_index: 3\n",
			wantHeight: 12.5,
			wantZ:      3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.doc))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			got := cfg.LayoutConfig()
			if got.MinimumHeight != tt.wantHeight {
				t.Errorf("MinimumHeight = %v, want %v", got.MinimumHeight, tt.wantHeight)
			}
			if got.BaseZIndex != tt.wantZ {
				t.Errorf("BaseZIndex = %d, want %d", got.BaseZIndex, tt.wantZ)
			}
			if err := got.Validate(); err != nil {
				t.Errorf("Validate() error = %v", err)
			}
		})
	}
}

func TestLoadFrom(t *testing.T) {
	doc := `
sync:
  interval: 10m
  schedule: "*/15 * * * *"
  range: 2w
sources:
  - name: work
    type: caldav
    url: https://dav.example.com
    username: me
    calendars: [Team]
    filters:
      rules:
        - field: title
          prefix: "[team]"
          case_insensitive: true
  - name: repo
    type: git
    path: /src/project
    branch: main
layout:
  pixels_per_hour: 100
  window_length: 5
  week_aligned: true
  week_start: sunday
  day_start_hour: 7
  day_end_hour: 20
  lane_gutter_percent: 8
  lanes: packed
server:
  listen: ":9000"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Sync.Interval != 10*time.Minute || cfg.Sync.Range != 14*24*time.Hour {
		t.Errorf("Sync = %+v", cfg.Sync)
	}
	if len(cfg.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(cfg.Sources))
	}
	if got := cfg.Sources[0].Filters.Rules[0].Prefix; got != "[team]" {
		t.Errorf("filter prefix = %q", got)
	}
	if cfg.Sources[1].MaxCommits != 500 {
		t.Errorf("MaxCommits = %d, want default 500", cfg.Sources[1].MaxCommits)
	}

	lc := cfg.LayoutConfig()
	if lc.PixelsPerHour != 100 || lc.DayStartHour != 7 || lc.DayEndHour != 20 ||
		lc.LaneGutterPercent != 8 || lc.Lanes != layout.LanesPacked {
		t.Errorf("LayoutConfig() = %v", lc)
	}
	if wd, _ := cfg.Layout.Weekday(); wd != time.Sunday {
		t.Errorf("Weekday() = %v, want Sunday", wd)
	}
	if cfg.Server.Listen != ":9000" {
		t.Errorf("Listen = %q", cfg.Server.Listen)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		wantField string // non-empty: expect a *layout.ConfigError for this field
		wantMsg   string
	}{
		{
			name:      "bad pixels per hour",
			doc:       "layout:\n  pixels_per_hour: -5\n",
			wantField: "pixels_per_hour",
		},
		{
			name:      "unsupported window length",
			doc:       "layout:\n  window_length: 4\n",
			wantField: "window_length",
		},
		{
			name:      "pixels per hour not a preset",
			doc:       "layout:\n  pixels_per_hour: 70\n",
			wantField: "pixels_per_hour",
		},
		{
			name:      "unknown lane strategy",
			doc:       "layout:\n  lanes: spiral\n",
			wantField: "lanes",
		},
		{
			name:      "bad week start",
			doc:       "layout:\n  week_start: friday\n",
			wantField: "week_start",
		},
		{
			name:    "bad cron schedule",
			doc:     "sync:\n  schedule: every now and then\n",
			wantMsg: "sync schedule",
		},
		{
			name:    "unknown source type",
			doc:     "sources:\n  - name: x\n    type: fax\n",
			wantMsg: "unknown source type",
		},
		{
			name:    "duplicate source name",
			doc:     "sources:\n  - {name: a, type: ms365}\n  - {name: a, type: ms365}\n",
			wantMsg: "duplicate name",
		},
		{
			name:    "git source without path",
			doc:     "sources:\n  - {name: g, type: git}\n",
			wantMsg: "needs path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if err == nil {
				t.Fatal("Parse() succeeded, want error")
			}
			if tt.wantField != "" {
				var ce *layout.ConfigError
				if !errors.As(err, &ce) {
					t.Fatalf("Parse() error = %v, want *layout.ConfigError", err)
				}
				if !strings.Contains(err.Error(), tt.wantField) {
					t.Errorf("Parse() error = %v, want field %s", err, tt.wantField)
				}
				if !errors.Is(err, layout.ErrConfig) {
					t.Errorf("errors.Is(err, ErrConfig) = false for %v", err)
				}
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Parse() error = %v, want it to mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestGetPassword(t *testing.T) {
	s := SourceConfig{PasswordCmd: "echo secret"}
	got, err := s.GetPassword()
	if err != nil {
		t.Fatalf("GetPassword() error = %v", err)
	}
	if got != "secret" {
		t.Errorf("GetPassword() = %q, want secret", got)
	}

	s.Password = "inline"
	if got, _ := s.GetPassword(); got != "inline" {
		t.Errorf("GetPassword() = %q, want inline", got)
	}
}
