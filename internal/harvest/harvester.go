package harvest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/nao1215/gravelscan/internal/extract"
	"github.com/nao1215/gravelscan/internal/fetcher"
	"github.com/nao1215/gravelscan/internal/model"
	"golang.org/x/sync/errgroup"
)

// Defaults of a Harvester.
const (
	// DefaultBaseURL is the bicycle category of the marketplace.
	DefaultBaseURL = "https://www.olx.pl/sport-hobby/rowery/"
	// DefaultMaxPages is the number of result pages walked per query.
	DefaultMaxPages = 5
	// DefaultConcurrency is the number of listings fetched at once.
	DefaultConcurrency = 5
	// DefaultPageDelay is waited after every result page.
	DefaultPageDelay = time.Second
)

// ErrIndexUnavailable is returned when no result page of a query could be
// fetched.
var ErrIndexUnavailable = errors.New("no search results page could be fetched")

// PageFetcher retrieves a page, returning "" when it is unavailable.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) string
}

// ListingExtractor builds a listing from a listing page.
type ListingExtractor interface {
	ExtractFields(markup, sourceURL string) (*model.Listing, error)
}

// Harvester collects listings for search queries.
type Harvester struct {
	fetcher     PageFetcher
	extractor   ListingExtractor
	clock       fetcher.Clock
	observer    model.Observer
	logger      *slog.Logger
	baseURL     string
	maxPages    int
	concurrency int
	pageDelay   time.Duration
}

// Option configures a Harvester.
type Option func(*Harvester)

// WithExtractor sets the listing extractor.
func WithExtractor(e ListingExtractor) Option {
	return func(h *Harvester) {
		h.extractor = e
	}
}

// WithClock sets the clock used for page pacing.
func WithClock(c fetcher.Clock) Option {
	return func(h *Harvester) {
		h.clock = c
	}
}

// WithObserver sets the progress observer.
func WithObserver(o model.Observer) Option {
	return func(h *Harvester) {
		if o != nil {
			h.observer = o
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harvester) {
		h.logger = logger
	}
}

// WithBaseURL sets the category URL that queries are appended to.
func WithBaseURL(base string) Option {
	return func(h *Harvester) {
		h.baseURL = base
	}
}

// WithMaxPages sets the number of result pages per query.
func WithMaxPages(n int) Option {
	return func(h *Harvester) {
		if n > 0 {
			h.maxPages = n
		}
	}
}

// WithConcurrency sets the number of listings fetched at once.
func WithConcurrency(n int) Option {
	return func(h *Harvester) {
		if n > 0 {
			h.concurrency = n
		}
	}
}

// WithPageDelay sets the pause after each result page.
func WithPageDelay(d time.Duration) Option {
	return func(h *Harvester) {
		if d >= 0 {
			h.pageDelay = d
		}
	}
}

// New creates a Harvester that retrieves pages with f.
func New(f PageFetcher, opts ...Option) *Harvester {
	h := &Harvester{
		fetcher:     f,
		observer:    model.NopObserver{},
		logger:      slog.Default(),
		baseURL:     DefaultBaseURL,
		maxPages:    DefaultMaxPages,
		concurrency: DefaultConcurrency,
		pageDelay:   DefaultPageDelay,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.clock == nil {
		h.clock = fetcher.RealClock{}
	}
	if h.extractor == nil {
		h.extractor = extract.NewExtractor(extract.WithClock(h.clock))
	}
	return h
}

// IndexURL returns the URL of result page n of query.
func (h *Harvester) IndexURL(query string, page int) string {
	return fmt.Sprintf("%sq-%s/?page=%d", h.baseURL, url.PathEscape(query), page)
}

// Harvest collects the listings of query.
//
// It returns ErrIndexUnavailable when every result page failed. When ctx is
// cancelled the listings gathered so far are returned with ctx.Err().
func (h *Harvester) Harvest(ctx context.Context, query string) (*model.Collection, error) {
	urls, err := h.CollectURLs(ctx, query)
	if err != nil {
		return model.NewCollection(), err
	}
	h.logger.Info("listing URLs collected", "query", query, "count", len(urls))
	return h.HarvestURLs(ctx, urls)
}

// CollectURLs walks the result pages of query sequentially and returns the
// listing URLs found, without duplicates, in page order.
func (h *Harvester) CollectURLs(ctx context.Context, query string) ([]string, error) {
	var (
		urls     []string
		seen     = make(map[string]struct{})
		failures int
	)

	for page := 1; page <= h.maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return urls, err
		}

		pageURL := h.IndexURL(query, page)
		markup := h.fetcher.Fetch(ctx, pageURL)
		if markup == "" {
			failures++
			h.logger.Warn("result page unavailable", "query", query, "page", page, "url", pageURL)
		}

		found := 0
		for _, u := range extract.ExtractListingURLs(markup) {
			if _, dup := seen[u]; dup {
				continue
			}
			seen[u] = struct{}{}
			urls = append(urls, u)
			found++
		}
		h.logger.Debug("result page processed", "query", query, "page", page, "new_urls", found)
		h.observer.Observe(model.ProgressEvent{
			Stage:   model.StageIndex,
			Current: page,
			Total:   h.maxPages,
			Status:  fmt.Sprintf("page %d/%d: %d listings", page, h.maxPages, found),
			URL:     pageURL,
		})

		if err := h.clock.Sleep(ctx, h.pageDelay); err != nil {
			return urls, err
		}
	}

	if failures == h.maxPages {
		return nil, fmt.Errorf("%w: query %q", ErrIndexUnavailable, query)
	}
	return urls, nil
}

// HarvestURLs fetches and extracts the given listing pages concurrently.
// Records are collected in completion order. Failed listings are dropped.
// When ctx is cancelled no new fetch starts and the records gathered so far
// are returned with ctx.Err().
func (h *Harvester) HarvestURLs(ctx context.Context, urls []string) (*model.Collection, error) {
	var (
		mu        sync.Mutex
		result    = model.NewCollection()
		completed int
		dropped   int
	)
	total := len(urls)
	start := h.clock.Now()

	g := new(errgroup.Group)
	g.SetLimit(h.concurrency)

	for _, u := range urls {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}

			listing, err := h.harvestOne(ctx, u)

			mu.Lock()
			completed++
			if err != nil {
				dropped++
			} else {
				result.Add(*listing)
			}
			event := model.ProgressEvent{
				Stage:   model.StageListings,
				Current: completed,
				Total:   total,
				Status:  fmt.Sprintf("listing %d/%d", completed, total),
				URL:     u,
			}
			mu.Unlock()

			if err != nil {
				h.logger.Warn("listing dropped", "url", u, "error", err)
			}
			h.observer.Observe(event)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // tasks never return errors

	h.logger.Info("listings harvested",
		"requested", total,
		"collected", result.Len(),
		"dropped", dropped,
		"elapsed", h.clock.Now().Sub(start),
	)
	h.observer.Observe(model.ProgressEvent{
		Stage:   model.StageDone,
		Current: completed,
		Total:   total,
		Status:  fmt.Sprintf("collected %d listings", result.Len()),
	})

	return result, ctx.Err()
}

// errUnavailable marks a listing page that could not be fetched.
var errUnavailable = errors.New("listing page unavailable")

// harvestOne fetches and extracts one listing. A panic during extraction is
// turned into an error.
func (h *Harvester) harvestOne(ctx context.Context, u string) (listing *model.Listing, err error) {
	defer func() {
		if r := recover(); r != nil {
			listing = nil
			err = fmt.Errorf("extraction panicked: %v", r)
		}
	}()

	markup := h.fetcher.Fetch(ctx, u)
	if markup == "" {
		return nil, errUnavailable
	}
	return h.extractor.ExtractFields(markup, u)
}
