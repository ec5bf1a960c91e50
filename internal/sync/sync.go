// Package sync fetches every configured source and reduces it to grid items.
package sync

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/cpuguy83/timegrid/internal/calendar"
	"github.com/cpuguy83/timegrid/internal/commits"
	"github.com/cpuguy83/timegrid/internal/config"
	"github.com/cpuguy83/timegrid/internal/filter"
	"github.com/cpuguy83/timegrid/internal/layout"
)

// Feed is one configured source, already filtered and converted to items.
type Feed interface {
	Name() string
	Items(ctx context.Context, start, end time.Time) ([]layout.ItemInput, error)
}

// Syncer handles synchronization from multiple feeds.
type Syncer struct {
	feeds    []Feed
	interval time.Duration
	schedule string
	span     time.Duration
	loc      *time.Location
	now      func() time.Time
}

// NewSyncer creates a new Syncer from configuration.
func NewSyncer(cfg *config.Config) (*Syncer, error) {
	global, err := filter.New(cfg.Filters)
	if err != nil {
		return nil, fmt.Errorf("global filters: %w", err)
	}

	feeds, err := createFeeds(cfg.Sources, global, time.Local)
	if err != nil {
		return nil, err
	}

	return &Syncer{
		feeds:    feeds,
		interval: cfg.Sync.Interval,
		schedule: cfg.Sync.Schedule,
		span:     cfg.Sync.Range,
		loc:      time.Local,
		now:      time.Now,
	}, nil
}

// Interval returns the configured sync interval.
func (s *Syncer) Interval() time.Duration {
	return s.interval
}

// FeedCount returns the number of configured feeds.
func (s *Syncer) FeedCount() int {
	return len(s.feeds)
}

// Window returns the fetch range around the current day: whole days from
// today minus the sync range to today plus the sync range.
func (s *Syncer) Window() (start, end time.Time) {
	now := s.now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	days := int(s.span / (24 * time.Hour))
	return today.AddDate(0, 0, -days), today.AddDate(0, 0, days+1)
}

// Sync fetches all feeds in parallel and returns their items merged in
// (date, start, id) order. A failing feed is logged and skipped; Sync only
// fails when every feed failed and nothing came back.
func (s *Syncer) Sync(ctx context.Context) ([]layout.ItemInput, error) {
	start, end := s.Window()
	slog.Info("starting sync", "feeds", len(s.feeds), "from", start.Format(time.DateOnly), "to", end.Format(time.DateOnly))

	type result struct {
		items []layout.ItemInput
		name  string
		err   error
	}

	results := make(chan result, len(s.feeds))
	var wg sync.WaitGroup

	for _, feed := range s.feeds {
		wg.Go(func() {
			name := feed.Name()
			slog.Debug("fetching feed", "name", name)

			items, err := feed.Items(ctx, start, end)
			results <- result{items: items, name: name, err: err}
		})
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var all []layout.ItemInput
	var firstErr error
	for r := range results {
		if r.err != nil {
			slog.Warn("failed to fetch feed", "name", r.name, "error", r.err)
			if firstErr == nil {
				firstErr = fmt.Errorf("feed %s: %w", r.name, r.err)
			}
			continue
		}
		slog.Info("fetched feed", "name", r.name, "items", len(r.items))
		all = append(all, r.items...)
	}

	sortItems(all)
	slog.Info("sync complete", "items", len(all))

	if len(all) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return all, nil
}

func sortItems(items []layout.ItemInput) {
	slices.SortFunc(items, func(a, b layout.ItemInput) int {
		return cmp.Or(
			a.Date.Compare(b.Date),
			cmp.Compare(a.Start, b.Start),
			cmp.Compare(a.ID, b.ID),
			cmp.Compare(a.End, b.End),
		)
	})
}

// Run syncs once, then again on the cron schedule if one is configured or
// every interval otherwise, calling onSync after each sync. Run blocks until
// the context is cancelled.
func (s *Syncer) Run(ctx context.Context, onSync func([]layout.ItemInput, error)) error {
	items, err := s.Sync(ctx)
	onSync(items, err)

	if s.schedule != "" {
		return s.runSchedule(ctx, onSync)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			items, err := s.Sync(ctx)
			onSync(items, err)
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *Syncer) runSchedule(ctx context.Context, onSync func([]layout.ItemInput, error)) error {
	logger := cronLogger{}
	c := cron.New(
		cron.WithLocation(s.loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	if _, err := c.AddFunc(s.schedule, func() {
		items, err := s.Sync(ctx)
		onSync(items, err)
	}); err != nil {
		return fmt.Errorf("schedule %q: %w", s.schedule, err)
	}

	c.Start()
	slog.Info("sync scheduled", "schedule", s.schedule)

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// cronLogger routes cron's logging through slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}

// calendarFeed wraps a calendar source with its filters.
type calendarFeed struct {
	source  calendar.Source
	filters []*filter.Filter
	loc     *time.Location
}

func (f *calendarFeed) Name() string { return f.source.Name() }

func (f *calendarFeed) Items(ctx context.Context, start, end time.Time) ([]layout.ItemInput, error) {
	events, err := f.source.Fetch(ctx, start, end)
	if err != nil {
		return nil, err
	}
	fetched := len(events)
	for _, flt := range f.filters {
		events = filter.Apply(flt, events)
	}

	items, skipped := calendar.ToItems(events, f.loc)
	slog.Debug("converted events", "name", f.Name(), "fetched", fetched, "after_filter", len(events), "skipped", skipped)
	return items, nil
}

// commitFeed wraps a git history source with its filters.
type commitFeed struct {
	source  *commits.Source
	filters []*filter.Filter
	loc     *time.Location
}

func (f *commitFeed) Name() string { return f.source.Name() }

func (f *commitFeed) Items(ctx context.Context, start, end time.Time) ([]layout.ItemInput, error) {
	cs, err := f.source.Fetch(ctx, start, end)
	if err != nil {
		return nil, err
	}
	for _, flt := range f.filters {
		cs = filter.Apply(flt, cs)
	}
	return commits.ToItems(cs, f.loc), nil
}

// createFeeds creates feeds with their per-source and global filters from
// configuration.
func createFeeds(cfgs []config.SourceConfig, global *filter.Filter, loc *time.Location) ([]Feed, error) {
	var feeds []Feed

	for _, cfg := range cfgs {
		f, err := filter.New(cfg.Filters)
		if err != nil {
			return nil, fmt.Errorf("source %s filters: %w", cfg.Name, err)
		}
		filters := []*filter.Filter{f, global}

		if cfg.Type == config.SourceGit {
			src := commits.NewSource(cfg.Name, cfg.Path, cfg.Branch, cfg.MaxCommits)
			feeds = append(feeds, &commitFeed{source: src, filters: filters, loc: loc})
			continue
		}

		var src calendar.Source
		switch cfg.Type {
		case config.SourceICS:
			if cfg.Path != "" {
				src = calendar.NewICSFileSource(cfg.Name, cfg.Path)
				break
			}
			password, err := cfg.GetPassword()
			if err != nil {
				return nil, err
			}
			src = calendar.NewICSSource(cfg.Name, cfg.URL, cfg.Username, password)

		case config.SourceCalDAV:
			password, err := cfg.GetPassword()
			if err != nil {
				return nil, err
			}
			src = calendar.NewCalDAVSource(cfg.Name, cfg.URL, cfg.Username, password, cfg.Calendars)

		case config.SourceICloud:
			password, err := cfg.GetPassword()
			if err != nil {
				return nil, err
			}
			src = calendar.NewICloudSource(cfg.Name, cfg.Username, password, cfg.Calendars)

		case config.SourceMS365:
			src = calendar.NewMS365Source(cfg.Name)

		default:
			slog.Warn("unknown source type", "type", cfg.Type, "name", cfg.Name)
			continue
		}

		feeds = append(feeds, &calendarFeed{source: src, filters: filters, loc: loc})
	}

	return feeds, nil
}
