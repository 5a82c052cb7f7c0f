package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/sitechat/internal/chunker"
	"github.com/nao1215/sitechat/internal/embedding"
	"github.com/nao1215/sitechat/internal/model"
)

// Crawler collects the pages reachable from a seed URL.
type Crawler interface {
	Crawl(ctx context.Context, seedURL string) ([]model.Page, error)
}

// PageStore persists crawled pages.
type PageStore interface {
	SavePage(ctx context.Context, runID string, page model.Page) error
}

// ChunkIndex stores chunk vectors, replacing everything previously stored
// for the same URL.
type ChunkIndex interface {
	ReplaceChunks(ctx context.Context, url string, chunks []model.ContentChunk, vectors [][]float32) error
}

// IndexObserver is told how many chunks were stored.
type IndexObserver interface {
	ChunksIndexed(n int)
}

// CrawlStep crawls the report's seed and records the pages.
type CrawlStep struct {
	crawler Crawler
	logger  *slog.Logger
}

// NewCrawlStep creates a crawl step.
func NewCrawlStep(c Crawler, logger *slog.Logger) *CrawlStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &CrawlStep{crawler: c, logger: logger}
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do executes the crawl step. Pages collected before a cancellation are
// kept in the report.
func (s *CrawlStep) Do(ctx context.Context, report *model.IngestReport) error {
	pages, err := s.crawler.Crawl(ctx, report.Seed)
	report.Pages = pages

	s.logger.Info("crawl completed",
		"seed", report.Seed,
		"pages", len(pages),
		"failed_pages", report.FailedPageCount(),
	)

	if err != nil {
		return fmt.Errorf("crawl of %s stopped: %w", report.Seed, err)
	}
	return nil
}

// ChunkStep cuts every crawled page into fixed-size chunks.
type ChunkStep struct {
	size int
}

// NewChunkStep creates a chunk step. size <= 0 selects
// chunker.DefaultChunkSize.
func NewChunkStep(size int) *ChunkStep {
	if size <= 0 {
		size = chunker.DefaultChunkSize
	}
	return &ChunkStep{size: size}
}

// Name returns the step name.
func (s *ChunkStep) Name() string {
	return "chunk"
}

// Do executes the chunk step.
func (s *ChunkStep) Do(_ context.Context, report *model.IngestReport) error {
	chunks, err := chunker.ChunkPages(report.Pages, s.size)
	if err != nil {
		return err
	}
	report.SetChunks(chunks)
	return nil
}

// PersistStep stores the crawled pages, failed ones included, so a later
// run can tell which URLs could not be read.
type PersistStep struct {
	store PageStore
}

// NewPersistStep creates a persist step.
func NewPersistStep(store PageStore) *PersistStep {
	return &PersistStep{store: store}
}

// Name returns the step name.
func (s *PersistStep) Name() string {
	return "persist"
}

// Do executes the persist step.
func (s *PersistStep) Do(ctx context.Context, report *model.IngestReport) error {
	for _, page := range report.Pages {
		if err := s.store.SavePage(ctx, report.RunID, page); err != nil {
			return err
		}
	}
	return nil
}

// EmbedStep embeds the chunks of every page and stores them in the index.
// A page's previous chunks are replaced as a whole, so a page that got
// shorter leaves no stale chunks behind. Pages recorded with empty content
// keep whatever was indexed for them before.
type EmbedStep struct {
	embedder embedding.Embedder
	index    ChunkIndex
	observer IndexObserver
	logger   *slog.Logger
}

// EmbedStepOption configures an EmbedStep.
type EmbedStepOption func(*EmbedStep)

// WithEmbedObserver reports stored chunk counts to o.
func WithEmbedObserver(o IndexObserver) EmbedStepOption {
	return func(s *EmbedStep) {
		s.observer = o
	}
}

// WithEmbedLogger sets a custom logger for the embed step.
func WithEmbedLogger(logger *slog.Logger) EmbedStepOption {
	return func(s *EmbedStep) {
		s.logger = logger
	}
}

// NewEmbedStep creates an embed step.
func NewEmbedStep(embedder embedding.Embedder, index ChunkIndex, opts ...EmbedStepOption) *EmbedStep {
	s := &EmbedStep{
		embedder: embedder,
		index:    index,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *EmbedStep) Name() string {
	return "embed"
}

// Do executes the embed step.
func (s *EmbedStep) Do(ctx context.Context, report *model.IngestReport) error {
	for _, group := range groupByURL(report.Chunks) {
		if err := ctx.Err(); err != nil {
			return err
		}

		texts := make([]string, len(group.chunks))
		for i, c := range group.chunks {
			texts[i] = c.Text
		}

		vectors, err := s.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to embed %s: %w", group.url, err)
		}
		if err := s.index.ReplaceChunks(ctx, group.url, group.chunks, vectors); err != nil {
			return err
		}

		report.IndexedChunks += len(group.chunks)
		if s.observer != nil {
			s.observer.ChunksIndexed(len(group.chunks))
		}

		s.logger.Debug("indexed page",
			"url", group.url,
			"chunks", len(group.chunks),
		)
	}

	return nil
}

type urlChunks struct {
	url    string
	chunks []model.ContentChunk
}

// groupByURL splits chunks into runs of the same source URL, keeping the
// order in which URLs first appear.
func groupByURL(chunks []model.ContentChunk) []urlChunks {
	var groups []urlChunks
	index := make(map[string]int)
	for _, c := range chunks {
		i, ok := index[c.SourceURL]
		if !ok {
			i = len(groups)
			index[c.SourceURL] = i
			groups = append(groups, urlChunks{url: c.SourceURL})
		}
		groups[i].chunks = append(groups[i].chunks, c)
	}
	return groups
}
