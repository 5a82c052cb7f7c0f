package pipeline

import (
	"log/slog"
	"net/http"

	"github.com/nao1215/sitechat/internal/chunker"
	"github.com/nao1215/sitechat/internal/crawler"
	"github.com/nao1215/sitechat/internal/embedding"
)

// Store is everything the default pipeline persists to.
// *database.IndexDB satisfies it.
type Store interface {
	PageStore
	ChunkIndex
	RunRecorder
}

// Observer receives the progress of an ingest run.
// *metrics.Metrics satisfies it.
type Observer interface {
	crawler.Observer
	IndexObserver
	RunObserver
}

// Dependencies are the collaborators DefaultPipeline wires together.
type Dependencies struct {
	// HTTPClient fetches crawled pages. http.DefaultClient when nil.
	HTTPClient *http.Client

	// Embedder turns chunk text into vectors.
	Embedder embedding.Embedder

	// Store keeps pages, vectors, and run summaries.
	Store Store

	// Observer is optional.
	Observer Observer

	// Logger is used by the crawler and the steps. slog.Default when nil.
	Logger *slog.Logger
}

// DefaultPipelineConfig holds configuration for the default pipeline.
type DefaultPipelineConfig struct {
	// CrawlDepth is the maximum BFS distance from the seed.
	CrawlDepth int

	// CrawlMaxPages is the maximum number of pages to crawl.
	CrawlMaxPages int

	// Headers are additional HTTP headers to send with requests.
	Headers map[string]string

	// IgnorePatterns are URL path patterns to skip during crawling.
	IgnorePatterns []string

	// FollowPatterns are URL path patterns to follow during crawling.
	FollowPatterns []string

	// RateLimit is the number of crawl requests per second. 0 disables it.
	RateLimit float64

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// ChunkSize is the number of code points per chunk.
	ChunkSize int
}

// DefaultPipelineOption configures a DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineCrawlDepth sets the crawl depth for the pipeline.
func WithPipelineCrawlDepth(depth int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.CrawlDepth = depth
	}
}

// WithPipelineCrawlMaxPages sets the maximum pages to crawl.
func WithPipelineCrawlMaxPages(maxPages int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.CrawlMaxPages = maxPages
	}
}

// WithPipelineHeaders sets additional HTTP headers.
func WithPipelineHeaders(headers map[string]string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Headers = headers
	}
}

// WithPipelineIgnorePatterns sets URL patterns to skip during crawling.
func WithPipelineIgnorePatterns(patterns []string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.IgnorePatterns = patterns
	}
}

// WithPipelineFollowPatterns sets URL patterns to follow during crawling.
func WithPipelineFollowPatterns(patterns []string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.FollowPatterns = patterns
	}
}

// WithPipelineRateLimit sets the crawl request rate in requests per second.
func WithPipelineRateLimit(rps float64) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.RateLimit = rps
	}
}

// WithPipelineUserAgent sets the User-Agent header for HTTP requests.
func WithPipelineUserAgent(userAgent string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.UserAgent = userAgent
	}
}

// WithPipelineMaxBodySize sets the maximum response body size in bytes.
func WithPipelineMaxBodySize(maxBodySize int64) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.MaxBodySize = maxBodySize
	}
}

// WithPipelineChunkSize sets the chunk size in code points.
func WithPipelineChunkSize(size int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.ChunkSize = size
	}
}

func newDefaultPipelineConfig(opts ...DefaultPipelineOption) DefaultPipelineConfig {
	cfg := DefaultPipelineConfig{
		CrawlDepth:    crawler.DefaultMaxDepth,
		CrawlMaxPages: crawler.DefaultMaxPages,
		UserAgent:     crawler.DefaultUserAgent,
		MaxBodySize:   crawler.DefaultMaxBodySize,
		ChunkSize:     chunker.DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// DefaultPipeline creates the ingest pipeline: crawl, chunk, persist, and
// embed, in that order.
//
// The first variadic parameter accepts pipeline options (WithLogger, etc).
// The second accepts pipeline config options (WithPipelineCrawlDepth, etc).
// The store records every run and, when set, the observer sees every page,
// every indexed page, and the end of the run.
func DefaultPipeline(deps Dependencies, pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	cfg := newDefaultPipelineConfig(configOpts...)

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	fetcher := crawler.NewHTTPFetcher(deps.HTTPClient,
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
		crawler.WithHeaders(cfg.Headers),
	)

	crawlerOpts := []crawler.Option{
		crawler.WithMaxDepth(cfg.CrawlDepth),
		crawler.WithMaxPages(cfg.CrawlMaxPages),
		crawler.WithFilter(crawler.NewFilter(cfg.IgnorePatterns, cfg.FollowPatterns)),
		crawler.WithRateLimit(cfg.RateLimit),
		crawler.WithLogger(logger),
	}
	embedOpts := []EmbedStepOption{WithEmbedLogger(logger)}
	opts := []Option{WithLogger(logger), WithRunRecorder(deps.Store)}

	if deps.Observer != nil {
		crawlerOpts = append(crawlerOpts, crawler.WithObserver(deps.Observer))
		embedOpts = append(embedOpts, WithEmbedObserver(deps.Observer))
		opts = append(opts, WithRunObserver(deps.Observer))
	}

	p := New(append(opts, pipelineOpts...)...)
	p.AddSteps(
		NewCrawlStep(crawler.New(fetcher, crawlerOpts...), logger),
		NewChunkStep(cfg.ChunkSize),
		NewPersistStep(deps.Store),
		NewEmbedStep(deps.Embedder, deps.Store, embedOpts...),
	)

	return p
}
