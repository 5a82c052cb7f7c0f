package crawler

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/nao1215/sitechat/internal/model"
)

const (
	// DefaultMaxDepth is the default maximum BFS distance from the seed.
	DefaultMaxDepth = 2

	// DefaultMaxPages is the default cap on collected pages.
	DefaultMaxPages = 1
)

// Fetcher downloads the HTML of a page.
// Implementations report network failures and non-2xx responses as errors;
// the Crawler turns any error into an empty page.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// Converter turns HTML whose anchors have been stripped into plain or
// markdown text.
type Converter interface {
	ToText(html string) (string, error)
}

// LinkExtractor returns the absolute URLs referenced by the anchor tags of
// html, resolved against baseURL. Hrefs that cannot be resolved are omitted.
type LinkExtractor interface {
	ExtractLinks(html, baseURL string) []string
}

// Observer is notified after every recorded page.
// failed is true when the page was recorded with empty content because the
// fetch or the conversion failed.
type Observer interface {
	PageCrawled(pageURL string, depth int, failed bool)
}

// Crawler performs a sequential breadth-first crawl.
// A Crawler holds configuration only. All traversal state belongs to a
// single Crawl call, so one Crawler may run several crawls concurrently.
type Crawler struct {
	fetcher   Fetcher
	converter Converter
	extractor LinkExtractor
	filter    *Filter
	limiter   *rate.Limiter
	observer  Observer
	logger    *slog.Logger

	// maxDepth is the largest depth that is still fetched.
	// 0 means only the seed page.
	maxDepth int

	// maxPages caps the number of pages returned by Crawl.
	maxPages int
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithMaxDepth sets the maximum crawl depth.
// 0 = only the seed page, 1 = the seed plus the pages it links to, etc.
func WithMaxDepth(depth int) Option {
	return func(c *Crawler) {
		c.maxDepth = depth
	}
}

// WithMaxPages sets the maximum number of pages to collect.
func WithMaxPages(maxPages int) Option {
	return func(c *Crawler) {
		c.maxPages = maxPages
	}
}

// WithConverter replaces the HTML to text converter.
func WithConverter(conv Converter) Option {
	return func(c *Crawler) {
		c.converter = conv
	}
}

// WithLinkExtractor replaces the link extractor.
func WithLinkExtractor(ext LinkExtractor) Option {
	return func(c *Crawler) {
		c.extractor = ext
	}
}

// WithRateLimit limits fetches to rps requests per second.
// A value of 0 disables rate limiting.
func WithRateLimit(rps float64) Option {
	return func(c *Crawler) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithFilter drops discovered links that the filter rejects.
func WithFilter(f *Filter) Option {
	return func(c *Crawler) {
		c.filter = f
	}
}

// WithObserver registers an observer notified after every recorded page.
func WithObserver(o Observer) Option {
	return func(c *Crawler) {
		c.observer = o
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		c.logger = logger
	}
}

// New creates a Crawler that downloads pages with fetcher.
func New(fetcher Fetcher, opts ...Option) *Crawler {
	c := &Crawler{
		fetcher:   fetcher,
		converter: NewMarkdownConverter(),
		extractor: NewHTMLLinkExtractor(),
		maxDepth:  DefaultMaxDepth,
		maxPages:  DefaultMaxPages,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Crawl traverses the site breadth-first from seedURL and returns the
// collected pages in visit order.
//
// The returned error is non-nil only when ctx ends before the crawl
// finishes; the pages collected up to that point are returned with it.
// A rate-limited crawl whose next request would start after the ctx
// deadline stops with an error wrapping context.DeadlineExceeded.
func (c *Crawler) Crawl(ctx context.Context, seedURL string) ([]model.Page, error) {
	pages := make([]model.Page, 0)
	seen := make(map[string]struct{})
	queue := []model.QueueEntry{{URL: seedURL, Depth: 0}}

	for len(queue) > 0 && len(pages) < c.maxPages {
		if err := ctx.Err(); err != nil {
			return pages, err
		}

		entry := queue[0]
		queue = queue[1:]

		if entry.Depth > c.maxDepth {
			continue
		}
		if _, ok := seen[entry.URL]; ok {
			continue
		}
		seen[entry.URL] = struct{}{}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return pages, ctxErr
				}
				// Wait gives up early when the next token falls after the deadline.
				if _, ok := ctx.Deadline(); ok {
					return pages, fmt.Errorf("rate limiter: %w: %v", context.DeadlineExceeded, err)
				}
				return pages, fmt.Errorf("rate limiter: %w", err)
			}
		}

		html, err := c.fetcher.Fetch(ctx, entry.URL)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return pages, ctxErr
		}
		if err != nil {
			c.logger.Warn("failed to fetch page", "url", entry.URL, "depth", entry.Depth, "error", err)
			html = ""
		}

		content, convErr := c.toText(html)
		if convErr != nil {
			c.logger.Warn("failed to convert page", "url", entry.URL, "error", convErr)
		}

		failed := err != nil || convErr != nil
		pages = append(pages, model.Page{URL: entry.URL, Content: content, Failed: failed})
		if c.observer != nil {
			c.observer.PageCrawled(entry.URL, entry.Depth, failed)
		}
		c.logger.Debug("page crawled",
			"url", entry.URL,
			"depth", entry.Depth,
			"content_length", len(content),
			"queued", len(queue),
		)

		if html == "" {
			continue
		}
		for _, link := range c.extractor.ExtractLinks(html, entry.URL) {
			if c.filter != nil && !c.filter.Allow(link) {
				continue
			}
			queue = append(queue, model.QueueEntry{URL: link, Depth: entry.Depth + 1})
		}
	}

	return pages, nil
}

// toText converts html to text. A converter panic is reported as an error
// so that a single malformed document cannot abort the crawl.
func (c *Crawler) toText(html string) (text string, err error) {
	if html == "" {
		return "", nil
	}

	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("converter panic: %v", r)
		}
	}()

	text, err = c.converter.ToText(html)
	if err != nil {
		return "", err
	}
	return text, nil
}
