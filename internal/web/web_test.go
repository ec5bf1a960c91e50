package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/cpuguy83/timegrid/internal/config"
	"github.com/cpuguy83/timegrid/internal/layout"
)

var june10 = time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := config.Default()
	engine, err := layout.New(cfg.LayoutConfig())
	if err != nil {
		t.Fatalf("layout.New() error = %v", err)
	}

	s := NewServer(engine, cfg.Layout)
	s.now = func() time.Time { return june10.Add(14*time.Hour + 30*time.Minute) }
	s.SetItems([]layout.ItemInput{
		{ID: "a", Date: june10, Start: "09:00", End: "10:00"},
		{ID: "b", Date: june10, Start: "09:30", End: "10:30"},
		{ID: "bad", Date: june10, Start: "25:00"},
		{ID: "c", Date: june10.AddDate(0, 0, 2), Start: "08:00", End: "08:30"},
	}, nil)
	return s
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) View {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var v View
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestServer(t), "/health")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("GET /health = %d %q", rec.Code, rec.Body.String())
	}
}

func TestLayout_SingleDay(t *testing.T) {
	v := decodeView(t, get(t, newTestServer(t), "/api/layout?date=2024-06-10&days=1&zoom=120"))

	if len(v.Dates) != 1 || v.Dates[0] != "2024-06-10" {
		t.Errorf("Dates = %v", v.Dates)
	}
	if v.PixelsPerHour != 120 {
		t.Errorf("PixelsPerHour = %v, want 120", v.PixelsPerHour)
	}
	if len(v.Placements) != 2 {
		t.Fatalf("expected 2 placements, got %d", len(v.Placements))
	}

	a, b := v.Placements[0], v.Placements[1]
	if a.ID != "a" || a.Top != 1080 || a.Height != 120 || a.LeftPercent != 0 || a.WidthPercent != 50 {
		t.Errorf("placement a = %+v", a)
	}
	if b.ID != "b" || b.Top != 1140 || b.LeftPercent != 50 || b.ZIndex != 11 {
		t.Errorf("placement b = %+v", b)
	}

	if len(v.Errors) != 1 || v.Errors[0].ID != "bad" {
		t.Errorf("Errors = %+v, want one error for bad", v.Errors)
	}
	if v.Marker == nil || *v.Marker != 1740 {
		t.Errorf("Marker = %v, want 1740", v.Marker)
	}
}

func TestLayout_StepAndZoomPresets(t *testing.T) {
	s := newTestServer(t)

	v := decodeView(t, get(t, s, "/api/layout?date=2024-06-10&days=3&step=1"))
	want := []string{"2024-06-13", "2024-06-14", "2024-06-15"}
	if len(v.Dates) != len(want) {
		t.Fatalf("Dates = %v, want %v", v.Dates, want)
	}
	for i := range want {
		if v.Dates[i] != want[i] {
			t.Errorf("Dates[%d] = %s, want %s", i, v.Dates[i], want[i])
		}
	}
	if v.Marker != nil {
		t.Errorf("Marker = %v, want none when today is not visible", *v.Marker)
	}
	if len(v.Placements) != 0 {
		t.Errorf("expected no placements, got %d", len(v.Placements))
	}

	v = decodeView(t, get(t, s, "/api/layout?date=2024-06-12&days=3&step=-1"))
	if v.Dates[0] != "2024-06-09" {
		t.Errorf("Dates[0] = %s, want 2024-06-09", v.Dates[0])
	}

	v = decodeView(t, get(t, s, "/api/layout?date=2024-06-10&days=1&zoom=in"))
	if v.PixelsPerHour != 80 {
		t.Errorf("zoom=in PixelsPerHour = %v, want 80", v.PixelsPerHour)
	}
}

func TestLayout_WeekAligned(t *testing.T) {
	// 2024-06-12 is a Wednesday; weeks start on Monday.
	v := decodeView(t, get(t, newTestServer(t), "/api/layout?date=2024-06-12&days=7&week=true"))
	if v.Dates[0] != "2024-06-10" || v.Dates[6] != "2024-06-16" {
		t.Errorf("Dates = %v", v.Dates)
	}
	if len(v.Placements) != 3 {
		t.Errorf("expected 3 placements, got %d", len(v.Placements))
	}
}

func TestLayout_BadRequests(t *testing.T) {
	tests := []string{
		"/api/layout?date=June",
		"/api/layout?days=4",
		"/api/layout?days=x",
		"/api/layout?zoom=70",
		"/api/layout?week=maybe",
		"/api/layout?step=z",
		"/api/layout?step=10000000",
		"/api/layout?step=-10001",
		"/api/layout?date=9999-12-31&days=7",
		"/api/layout?date=9999-12-30&days=3",
		"/api/layout?date=0001-01-01&days=1&step=-1",
		"/api/layout?date=9999-12-25&days=7&step=1",
	}
	s := newTestServer(t)
	for _, target := range tests {
		t.Run(target, func(t *testing.T) {
			rec := get(t, s, target)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("GET %s = %d, want 400", target, rec.Code)
			}
			var body struct {
				Error string `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Error == "" {
				t.Errorf("GET %s body = %s, want JSON error", target, rec.Body.String())
			}
		})
	}
}

func TestLayout_LargeStepPagesInOneMove(t *testing.T) {
	v := decodeView(t, get(t, newTestServer(t), "/api/layout?date=2024-06-10&days=7&week=true&step=10000"))
	if want := "2216-02-05"; v.Dates[0] != want {
		t.Errorf("Dates[0] = %s, want %s", v.Dates[0], want)
	}
}

func TestItems_KeepsLastGoodSync(t *testing.T) {
	s := newTestServer(t)
	s.SetItems(nil, errors.New("network down"))

	rec := get(t, s, "/api/items")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp itemsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Items) != 4 {
		t.Errorf("expected 4 cached items, got %d", len(resp.Items))
	}
	if resp.Error != "network down" {
		t.Errorf("Error = %q", resp.Error)
	}
}

var camelKey = regexp.MustCompile(`^[a-z][A-Za-z0-9]*$`)

// collectKeys returns every object key in a decoded JSON document.
func collectKeys(v any, keys map[string]bool) {
	switch v := v.(type) {
	case map[string]any:
		for k, child := range v {
			keys[k] = true
			collectKeys(child, keys)
		}
	case []any:
		for _, child := range v {
			collectKeys(child, keys)
		}
	}
}

func TestJSONKeysAreCamelCase(t *testing.T) {
	tests := []struct {
		target string
		want   []string
	}{
		{
			target: "/api/layout?date=2024-06-10&days=3",
			want:   []string{"window", "weekAligned", "visibleDates", "pixelsPerHour", "leftPercent", "widthPercent", "zIndex", "marker"},
		},
		{
			target: "/api/items",
			want:   []string{"items", "syncedAt"},
		},
	}

	s := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := get(t, s, tt.target)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
			}
			var doc any
			if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
				t.Fatalf("decode response: %v", err)
			}

			keys := make(map[string]bool)
			collectKeys(doc, keys)
			for k := range keys {
				if !camelKey.MatchString(k) {
					t.Errorf("key %q is not camelCase", k)
				}
			}
			for _, k := range tt.want {
				if !keys[k] {
					t.Errorf("missing key %q", k)
				}
			}
		})
	}
}
