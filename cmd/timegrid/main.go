// timegrid lays out calendar events and commits on a zoomable day/hour grid.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cpuguy83/timegrid/internal/clock"
	"github.com/cpuguy83/timegrid/internal/config"
	"github.com/cpuguy83/timegrid/internal/layout"
	"github.com/cpuguy83/timegrid/internal/sync"
	"github.com/cpuguy83/timegrid/internal/web"
	"github.com/cpuguy83/timegrid/internal/window"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to config file (default: ~/.config/timegrid/config.yaml)")
		verbose    = flag.Bool("v", false, "verbose logging")
		date       = flag.String("date", "", "anchor date YYYY-MM-DD (default: today)")
		days       = flag.Int("days", 0, "window length in days: 1, 3, 5 or 7 (default: from config)")
		week       = flag.Bool("week", false, "align the window to the start of the week")
		zoom       = flag.Float64("zoom", 0, "pixels per hour, one of the zoom presets (default: from config)")
		serve      = flag.Bool("serve", false, "run the sync loop and HTTP API")
		listen     = flag.String("listen", "", "HTTP listen address (default: from config)")
		once       = flag.Bool("once", false, "sync once and print the layout as JSON (default when not serving)")
	)
	flag.Parse()

	// Setup logging
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Flags override the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "days":
			cfg.Layout.WindowLength = *days
		case "week":
			cfg.Layout.WeekAligned = *week
		case "listen":
			cfg.Server.Listen = *listen
		}
	})

	if *serve && *once {
		slog.Error("-serve and -once are mutually exclusive")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApp(cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}

	if *serve {
		err = app.serve(ctx)
	} else {
		err = app.printLayout(ctx, *date, *zoom)
	}
	if err != nil {
		slog.Error("timegrid failed", "error", err)
		os.Exit(1)
	}
}

// loadConfig reads path, or the default location. A missing default config
// file is not an error: timegrid then runs with defaults and no sources.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}

	cfg, err := config.Load()
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("no config file found, using defaults")
		return config.Default(), nil
	}
	return cfg, err
}

// App wires the syncer, layout engine and HTTP server together.
type App struct {
	cfg    *config.Config
	engine *layout.Engine
	syncer *sync.Syncer
}

func newApp(cfg *config.Config) (*App, error) {
	engine, err := layout.New(cfg.LayoutConfig())
	if err != nil {
		return nil, fmt.Errorf("create layout engine: %w", err)
	}

	syncer, err := sync.NewSyncer(cfg)
	if err != nil {
		return nil, fmt.Errorf("create syncer: %w", err)
	}

	slog.Info("starting timegrid",
		"feeds", syncer.FeedCount(),
		"interval", syncer.Interval(),
		"layout", engine.Config(),
	)

	return &App{cfg: cfg, engine: engine, syncer: syncer}, nil
}

// serve keeps items fresh in the background and serves the API until ctx
// is cancelled.
func (a *App) serve(ctx context.Context) error {
	srv := web.NewServer(a.engine, a.cfg.Layout)

	syncDone := make(chan error, 1)
	go func() {
		syncDone <- a.syncer.Run(ctx, func(items []layout.ItemInput, err error) {
			if err != nil {
				slog.Warn("sync failed", "error", err)
			}
			srv.SetItems(items, err)
		})
	}()

	err := srv.ListenAndServe(ctx, a.cfg.Server.Listen)
	slog.Info("shutting down")
	if syncErr := <-syncDone; err == nil {
		err = syncErr
	}
	return err
}

// printLayout syncs once and writes the layout of one window to stdout.
func (a *App) printLayout(ctx context.Context, date string, pph float64) error {
	anchor := time.Now()
	if date != "" {
		d, err := clock.ParseDate(date)
		if err != nil {
			return err
		}
		anchor = d
	}

	if pph == 0 {
		pph = a.engine.Config().PixelsPerHour
	}
	if _, err := layout.NewZoom(a.cfg.Layout.ZoomPresets, pph); err != nil {
		return err
	}

	weekStart, err := a.cfg.Layout.Weekday()
	if err != nil {
		return err
	}
	nav, err := window.New(anchor, a.cfg.Layout.WindowLength,
		window.WithWeekAligned(a.cfg.Layout.WeekAligned),
		window.WithWeekStart(weekStart),
	)
	if err != nil {
		return err
	}

	items, err := a.syncer.Sync(ctx)
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	view, err := web.Render(a.engine, nav, items, pph, time.Now())
	if err != nil {
		return err
	}
	for _, e := range view.Errors {
		slog.Warn("item not placed", "id", e.ID, "error", e.Error)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}
