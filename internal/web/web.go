// Package web serves the grid layout over HTTP.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/cpuguy83/timegrid/internal/clock"
	"github.com/cpuguy83/timegrid/internal/config"
	"github.com/cpuguy83/timegrid/internal/layout"
	"github.com/cpuguy83/timegrid/internal/window"
)

// Server provides the layout API over the last synced items.
type Server struct {
	engine *layout.Engine
	grid   config.GridConfig
	mux    *http.ServeMux
	now    func() time.Time

	itemsMu  sync.RWMutex
	items    []layout.ItemInput
	syncedAt time.Time
	syncErr  error
}

// NewServer constructs a new Server.
func NewServer(engine *layout.Engine, grid config.GridConfig) *Server {
	s := &Server{
		engine: engine,
		grid:   grid,
		mux:    http.NewServeMux(),
		now:    time.Now,
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// SetItems replaces the cached items. It matches the sync callback, so a
// failed sync keeps the previous items and only records the error.
func (s *Server) SetItems(items []layout.ItemInput, err error) {
	s.itemsMu.Lock()
	defer s.itemsMu.Unlock()

	s.syncErr = err
	if err != nil {
		return
	}
	s.items = items
	s.syncedAt = s.now()
}

func (s *Server) snapshot() ([]layout.ItemInput, time.Time, error) {
	s.itemsMu.RLock()
	defer s.itemsMu.RUnlock()
	return s.items, s.syncedAt, s.syncErr
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting HTTP server", "listen", "http://"+addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/layout", s.handleLayout)
	s.mux.HandleFunc("GET /api/items", s.handleItems)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// itemsResponse is the JSON response shape for /api/items.
type itemsResponse struct {
	Items    []layout.ItemInput `json:"items"`
	SyncedAt time.Time          `json:"syncedAt"`
	Error    string             `json:"error,omitempty"`
}

func (s *Server) handleItems(w http.ResponseWriter, _ *http.Request) {
	items, syncedAt, err := s.snapshot()
	resp := itemsResponse{
		Items:    items,
		SyncedAt: syncedAt,
	}
	if resp.Items == nil {
		resp.Items = []layout.ItemInput{}
	}
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleLayout lays out one window of the grid.
//
// GET /api/layout?date=2024-06-10&days=3&week=1&zoom=100&step=-1
//
// date defaults to today, days/week to the configured window, zoom to the
// configured scale ("in" and "out" step through the presets) and step pages
// the window that many times from date.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	now := s.now()

	anchor := clock.DateOf(now)
	if v := q.Get("date"); v != "" {
		d, err := clock.ParseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		anchor = d
	}

	days := s.grid.WindowLength
	if v := q.Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid days %q", v))
			return
		}
		days = n
	}

	weekAligned := s.grid.WeekAligned
	if v := q.Get("week"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid week %q", v))
			return
		}
		weekAligned = b
	}

	steps := 0
	if v := q.Get("step"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid step %q", v))
			return
		}
		if n < -maxSteps || n > maxSteps {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("step must be within [%d, %d]", -maxSteps, maxSteps))
			return
		}
		steps = n
	}

	pph, err := s.zoom(q.Get("zoom"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	weekStart, err := s.grid.Weekday()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	nav, err := window.New(anchor, days,
		window.WithWeekAligned(weekAligned),
		window.WithWeekStart(weekStart),
		window.WithClock(s.now),
	)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	nav.Jump(steps)
	if err := checkYears(nav); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, _, _ := s.snapshot()
	view, err := Render(s.engine, nav, items, pph, now)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	slog.Debug("api layout request", "anchor", clock.FormatDate(nav.Anchor()), "days", days, "zoom", pph,
		"placements", len(view.Placements), "errors", len(view.Errors))
	writeJSON(w, http.StatusOK, view)
}

// maxSteps bounds the step parameter of /api/layout.
const maxSteps = 10000

// checkYears rejects windows that leave the years JSON timestamps can encode.
func checkYears(nav *window.Navigator) error {
	first := nav.Anchor()
	last := clock.AddDays(first, nav.Length()-1)
	if first.Year() < 1 || last.Year() > 9999 {
		return fmt.Errorf("window %s..%s is outside years 1-9999", clock.FormatDate(first), clock.FormatDate(last))
	}
	return nil
}

// zoom resolves the zoom query parameter against the configured presets.
func (s *Server) zoom(v string) (float64, error) {
	z, err := layout.NewZoom(s.grid.ZoomPresets, s.engine.Config().PixelsPerHour)
	if err != nil {
		return 0, err
	}

	switch v {
	case "":
		return z.PixelsPerHour(), nil
	case "in":
		return z.In(), nil
	case "out":
		return z.Out(), nil
	}

	pph, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid zoom %q", v)
	}
	if _, err := layout.NewZoom(s.grid.ZoomPresets, pph); err != nil {
		return 0, err
	}
	return pph, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
