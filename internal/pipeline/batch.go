package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/sitechat/internal/model"
)

// DefaultConcurrency is the number of seeds ingested at the same time.
const DefaultConcurrency = 4

// BatchProcessor ingests several seed URLs concurrently.
// Each seed gets its own pipeline from the factory, so per-host crawl
// settings can differ between seeds.
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each seed.
	pipelineFactory func(seed string) *Pipeline

	// concurrency is the maximum number of concurrent runs.
	concurrency int

	logger *slog.Logger

	// results stores completed reports, guarded by mu.
	results []*model.IngestReport
	mu      sync.Mutex
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent runs.
// Non-positive values are ignored.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(pipelineFactory func(seed string) *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch ingests every seed and returns the reports in seed order.
// A failed run does not stop the others; its error is kept in its report.
// The returned error is non-nil only when ctx ends, in which case seeds
// that never started have a nil report.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, seeds []string) ([]*model.IngestReport, error) {
	bp.logger.Info("starting batch ingest",
		"total_seeds", len(seeds),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()
	bp.results = make([]*model.IngestReport, len(seeds))

	err := bp.run(ctx, seeds, func(report *model.IngestReport, index int) {
		bp.mu.Lock()
		bp.results[index] = report
		bp.mu.Unlock()
	})

	bp.logger.Info("batch ingest complete",
		"total_seeds", len(seeds),
		"elapsed", time.Since(startTime),
	)

	return bp.results, err
}

// ProcessBatchWithCallback ingests every seed and calls callback with
// each finished report and the seed's index. callback runs on the worker
// goroutine and must be safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	seeds []string,
	callback func(report *model.IngestReport, index int),
) error {
	return bp.run(ctx, seeds, callback)
}

func (bp *BatchProcessor) run(
	ctx context.Context,
	seeds []string,
	done func(report *model.IngestReport, index int),
) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, seed := range seeds {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			bp.logger.Info("ingesting seed",
				"seed", seed,
				"index", i+1,
				"total", len(seeds),
			)

			report := model.NewIngestReport(seed)
			if err := bp.pipelineFactory(seed).Execute(gctx, report); err != nil {
				// The error is recorded in the report; other seeds continue.
				bp.logger.Warn("ingest failed",
					"seed", seed,
					"error", err,
				)
			} else {
				bp.logger.Info("ingest completed",
					"seed", seed,
					"pages", len(report.Pages),
					"chunks", report.IndexedChunks,
				)
			}

			done(report, i)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
