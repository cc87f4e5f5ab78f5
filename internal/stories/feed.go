package stories

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/unveil/mediaquiz/internal/domain"
)

const (
	defaultRefreshInterval = 5 * time.Minute
	defaultDebounce        = 500 * time.Millisecond
	defaultCount           = 10
	searchTimeout          = 30 * time.Second
)

// Placeholder is shown when no stories could be loaded.
var Placeholder = domain.Story{
	ID:          "placeholder",
	Title:       "No stories available",
	Description: "Stories could not be loaded right now. Please try again later.",
	Type:        domain.StoryTypeImportant,
	Source:      "Unveil",
}

type Fetcher interface {
	Fetch(ctx context.Context, q Query) ([]domain.Story, error)
}

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type FeedConfig struct {
	Fetcher         Fetcher
	RefreshInterval time.Duration
	Debounce        time.Duration
	Count           int
	NewTickerFunc   func(d time.Duration) Ticker
}

// FeedState is a point-in-time view of the feed.
type FeedState struct {
	Stories   []domain.Story `json:"stories"`
	Query     string         `json:"query"`
	Category  string         `json:"category"`
	Searching bool           `json:"searching"`
}

// Feed keeps the current list of stories. It falls back to Placeholder on any
// failure, refreshes on an interval, and debounces searches.
type Feed struct {
	fetcher         Fetcher
	refreshInterval time.Duration
	debounce        time.Duration
	count           int
	newTicker       func(d time.Duration) Ticker

	mu        sync.Mutex
	stories   []domain.Story
	query     string
	category  string
	searching bool
	searchSeq uint64
	timer     *time.Timer
	// gen is bumped by every fetch and every search so that a late response
	// for a superseded query is dropped.
	gen uint64
}

func NewFeed(c FeedConfig) *Feed {
	f := &Feed{
		fetcher:         c.Fetcher,
		refreshInterval: c.RefreshInterval,
		debounce:        c.Debounce,
		count:           c.Count,
		newTicker:       c.NewTickerFunc,
		stories:         []domain.Story{Placeholder},
	}

	if f.refreshInterval <= 0 {
		f.refreshInterval = defaultRefreshInterval
	}
	if f.debounce <= 0 {
		f.debounce = defaultDebounce
	}
	if f.count <= 0 {
		f.count = defaultCount
	}
	if f.newTicker == nil {
		f.newTicker = func(d time.Duration) Ticker {
			return timeTicker{t: time.NewTicker(d)}
		}
	}

	return f
}

// Run refreshes the feed now and then on every interval until ctx is done.
// Ticks are skipped while a search is pending.
func (f *Feed) Run(ctx context.Context) error {
	t := f.newTicker(f.refreshInterval)
	defer t.Stop()
	defer f.stopSearch()

	f.Refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C():
			if f.Searching() {
				slog.DebugContext(ctx, "stories: refresh skipped, search in progress")
				continue
			}
			f.Refresh(ctx)
		}
	}
}

// Refresh fetches stories with the current query and category.
func (f *Feed) Refresh(ctx context.Context) {
	f.mu.Lock()
	f.gen++
	gen, q := f.gen, f.queryLocked()
	f.mu.Unlock()

	f.fetch(ctx, gen, q)
}

// Search schedules a fetch for query once no other search arrives within the debounce delay.
func (f *Feed) Search(query string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.query = query
	f.searching = true
	f.searchSeq++
	f.gen++
	seq := f.searchSeq

	if f.timer != nil {
		f.timer.Stop()
	}
	f.timer = time.AfterFunc(f.debounce, func() {
		f.runSearch(seq)
	})
}

// SetCategory changes the category and refreshes at once.
func (f *Feed) SetCategory(ctx context.Context, category string) {
	f.mu.Lock()
	f.category = category
	f.mu.Unlock()

	f.Refresh(ctx)
}

// Stories returns a copy of the current stories.
func (f *Feed) Stories() []domain.Story {
	f.mu.Lock()
	defer f.mu.Unlock()

	return slices.Clone(f.stories)
}

func (f *Feed) Searching() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.searching
}

func (f *Feed) State() FeedState {
	f.mu.Lock()
	defer f.mu.Unlock()

	return FeedState{
		Stories:   slices.Clone(f.stories),
		Query:     f.query,
		Category:  f.category,
		Searching: f.searching,
	}
}

func (f *Feed) runSearch(seq uint64) {
	f.mu.Lock()
	if seq != f.searchSeq {
		f.mu.Unlock()
		return
	}
	f.gen++
	gen, q := f.gen, f.queryLocked()
	f.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), searchTimeout)
	defer cancel()

	f.fetch(ctx, gen, q)

	f.mu.Lock()
	if seq == f.searchSeq {
		f.searching = false
	}
	f.mu.Unlock()
}

func (f *Feed) stopSearch() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	f.searchSeq++
	f.searching = false
}

func (f *Feed) fetch(ctx context.Context, gen uint64, q Query) {
	stories, err := f.fetcher.Fetch(ctx, q)
	switch {
	case err != nil && ctx.Err() != nil:
		// The caller went away; keep what the feed already shows.
		slog.WarnContext(ctx, "stories: fetch abandoned", "query", q.Query, "category", q.Category, "error", err)
		return
	case err != nil:
		slog.ErrorContext(ctx, "stories: fetch failed", "query", q.Query, "category", q.Category, "error", err)
		fetchTotal.WithLabelValues(resultError).Inc()
		stories = []domain.Story{Placeholder}
	case len(stories) == 0:
		fetchTotal.WithLabelValues(resultEmpty).Inc()
		stories = []domain.Story{Placeholder}
	default:
		fetchTotal.WithLabelValues(resultOK).Inc()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if gen != f.gen {
		slog.DebugContext(ctx, "stories: dropped superseded response", "query", q.Query)
		return
	}
	f.stories = stories
}

func (f *Feed) queryLocked() Query {
	return Query{
		Query:    f.query,
		Category: f.category,
		Count:    f.count,
	}
}

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }

func (t timeTicker) Stop() { t.t.Stop() }
