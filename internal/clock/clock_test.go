package clock

import (
	"errors"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{name: "midnight", input: "00:00", want: 0},
		{name: "9am", input: "09:00", want: 540},
		{name: "with minutes", input: "09:30", want: 570},
		{name: "afternoon", input: "14:05", want: 845},
		{name: "last minute", input: "23:59", want: 1439},
		{name: "single digit hour", input: "9:00", wantErr: true},
		{name: "hour 24", input: "24:00", wantErr: true},
		{name: "minute 60", input: "10:60", wantErr: true},
		{name: "no colon", input: "09.00", wantErr: true},
		{name: "letters", input: "ab:cd", wantErr: true},
		{name: "seconds", input: "09:00:00", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "sign", input: "-1:00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ErrFormat) {
					t.Errorf("Parse(%q) error = %v, want ErrFormat", tt.input, err)
				}
				var fe *FormatError
				if !errors.As(err, &fe) || fe.Value != tt.input {
					t.Errorf("Parse(%q) error = %#v, want *FormatError for the input", tt.input, err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   int
		want    string
		wantErr bool
	}{
		{name: "midnight", input: 0, want: "00:00"},
		{name: "9am", input: 540, want: "09:00"},
		{name: "instant end", input: 875, want: "14:35"},
		{name: "last minute", input: 1439, want: "23:59"},
		{name: "end of day", input: 1440, wantErr: true},
		{name: "negative", input: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Format(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Format(%d) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Format(%d) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	for m := 0; m < MinutesPerDay; m++ {
		s, err := Format(m)
		if err != nil {
			t.Fatalf("Format(%d): %v", m, err)
		}
		got, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q): %v", s, err)
		}
		if got != m {
			t.Fatalf("Parse(Format(%d)) = %d", m, got)
		}
	}
}

func TestWeekStart(t *testing.T) {
	tests := []struct {
		name  string
		date  string
		first time.Weekday
		want  string
	}{
		{name: "monday stays", date: "2024-06-10", first: time.Monday, want: "2024-06-10"},
		{name: "sunday goes back six", date: "2024-06-16", first: time.Monday, want: "2024-06-10"},
		{name: "wednesday", date: "2024-06-12", first: time.Monday, want: "2024-06-10"},
		{name: "sunday start", date: "2024-06-12", first: time.Sunday, want: "2024-06-09"},
		{name: "across month", date: "2024-07-02", first: time.Monday, want: "2024-07-01"},
		{name: "across year", date: "2025-01-01", first: time.Monday, want: "2024-12-30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDate(tt.date)
			if err != nil {
				t.Fatal(err)
			}
			got := FormatDate(WeekStart(d, tt.first))
			if got != tt.want {
				t.Errorf("WeekStart(%s, %s) = %s, want %s", tt.date, tt.first, got, tt.want)
			}
		})
	}
}

func TestDateOfKeepsWallDate(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	// 00:30 local is still the previous day in UTC; the wall date must win.
	ts := time.Date(2024, 6, 10, 0, 30, 0, 0, loc)
	if got := FormatDate(DateOf(ts)); got != "2024-06-10" {
		t.Errorf("DateOf(%v) = %s, want 2024-06-10", ts, got)
	}
	if got := MinuteOfDay(ts); got != 30 {
		t.Errorf("MinuteOfDay(%v) = %d, want 30", ts, got)
	}
}
