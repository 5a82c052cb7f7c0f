package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitechat/internal/config"
	"github.com/nao1215/sitechat/internal/database"
	"github.com/nao1215/sitechat/internal/embedding"
	"github.com/nao1215/sitechat/internal/model"
	"github.com/nao1215/sitechat/internal/pipeline"
	"github.com/nao1215/sitechat/internal/report"
)

// errIngestFailed is returned when at least one seed did not finish cleanly.
var errIngestFailed = errors.New("one or more ingest runs failed")

// NewIngestCmd creates the ingest command.
func NewIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [seed-url...]",
		Short: "Crawl a website and index its content",
		Long: `Ingest crawls each seed URL breadth-first, converts the pages to Markdown,
cuts them into chunks, embeds the chunks, and stores them in the local index.

Pages already in the index are replaced by the fresh crawl. Seeds may also
be listed under "seeds" in the configuration file.

Examples:
  # Index a documentation site two links deep
  sitechat ingest https://docs.example.com

  # Index several sites, three at a time
  sitechat ingest -b 3 https://a.example.com https://b.example.com https://c.example.com

  # Write a Markdown report to a file
  sitechat ingest -f markdown -o reports/ingest.md https://docs.example.com`,
		Args: cobra.ArbitraryArgs,
		RunE: runIngestCmd,
	}

	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth,
		"Maximum link distance from the seed")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to crawl per seed")
	cmd.Flags().Int("chunk-size", config.DefaultChunkSize,
		"Maximum characters per chunk")
	cmd.Flags().Float64("rate-limit", config.DefaultRateLimit,
		"Requests per second per seed (0 disables the limit)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each HTTP request")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of seeds crawled concurrently")
	cmd.Flags().StringP("format", "f", config.DefaultReportFormat,
		"Report format: text, markdown, or json")
	cmd.Flags().StringP("output", "o", "",
		"Write the report to this file (creates directories if needed)")
	cmd.Flags().String("db", "",
		"Index database path (default: XDG data directory)")

	return cmd
}

func runIngestCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(args) > 0 {
		cfg.Seeds = args
	}
	if err := cfg.ValidateSeeds(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := newLogger(cfg, slog.LevelWarn)

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	db, err := openDB(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	embedder, err := newEmbedder(cfg, logger)
	if err != nil {
		return err
	}

	writer, closeOutput, err := newReportWriter(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeOutput()

	return runIngest(ctx, ingestRun{
		cfg:      cfg,
		db:       db,
		embedder: embedder,
		writer:   writer,
		progress: cmd.ErrOrStderr(),
		logger:   logger,
	})
}

// ingestRun carries what one ingest invocation needs.
type ingestRun struct {
	cfg      *config.Config
	db       *database.IndexDB
	embedder embedding.Embedder
	writer   report.Writer
	progress io.Writer
	logger   *slog.Logger
}

// runIngest crawls every configured seed and writes one report per seed
// in completion order.
func runIngest(ctx context.Context, run ingestRun) error {
	cfg := run.cfg
	client := &http.Client{Timeout: cfg.Timeout}

	bp := pipeline.NewBatchProcessor(
		func(seed string) *pipeline.Pipeline {
			return newIngestPipeline(cfg, seed, pipeline.Dependencies{
				HTTPClient: client,
				Embedder:   run.embedder,
				Store:      run.db,
				Logger:     run.logger,
			})
		},
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(run.logger),
	)

	fmt.Fprintf(run.progress, "Ingesting %d seed(s) (concurrency: %d)...\n", len(cfg.Seeds), cfg.BatchSize)
	startTime := time.Now()

	var (
		mu     sync.Mutex
		failed int
	)
	err := bp.ProcessBatchWithCallback(ctx, cfg.Seeds, func(r *model.IngestReport, index int) {
		mu.Lock()
		defer mu.Unlock()

		fmt.Fprintf(run.progress, "[%d/%d] %s: %d page(s), %d chunk(s) indexed\n",
			index+1, len(cfg.Seeds), r.Seed, len(r.Pages), r.IndexedChunks)
		if r.Failed() {
			failed++
			fmt.Fprintf(run.progress, "  error: %v\n", r.Error)
		}

		if _, err := run.writer.Write(r); err != nil {
			run.logger.Error("failed to write report", "seed", r.Seed, "error", err)
		}
	})

	fmt.Fprintf(run.progress, "Ingest finished in %s\n", time.Since(startTime).Round(time.Millisecond))

	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", errIngestFailed, failed, len(cfg.Seeds))
	}
	return nil
}

// newIngestPipeline builds the pipeline for one seed, applying the site
// overrides configured for the seed's host.
func newIngestPipeline(cfg *config.Config, seed string, deps pipeline.Dependencies) *pipeline.Pipeline {
	settings := cfg.CrawlFor(seed)

	return pipeline.DefaultPipeline(deps, nil,
		pipeline.WithPipelineCrawlDepth(settings.MaxDepth),
		pipeline.WithPipelineCrawlMaxPages(settings.MaxPages),
		pipeline.WithPipelineHeaders(settings.Headers),
		pipeline.WithPipelineIgnorePatterns(settings.IgnorePatterns),
		pipeline.WithPipelineFollowPatterns(settings.FollowPatterns),
		pipeline.WithPipelineRateLimit(cfg.RateLimit),
		pipeline.WithPipelineUserAgent(cfg.UserAgent),
		pipeline.WithPipelineMaxBodySize(cfg.MaxBodySize),
		pipeline.WithPipelineChunkSize(cfg.ChunkSize),
	)
}

// newReportWriter returns the writer for the configured format. When the
// report goes to a file, a plain text summary is still printed to stdout.
func newReportWriter(cfg *config.Config, stdout io.Writer) (report.Writer, func(), error) {
	output, closeOutput, err := openReportOutput(stdout, cfg.ReportFile)
	if err != nil {
		return nil, nil, err
	}

	var writer report.Writer
	if cfg.ReportFormat == config.ReportFormatText || cfg.ReportFormat == "" {
		writer = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	} else {
		writer, err = report.NewWriter(cfg.ReportFormat, output, getVersion())
		if err != nil {
			closeOutput()
			return nil, nil, err
		}
	}

	if cfg.ReportFile != "" {
		writer = report.NewMultiWriter(writer, report.NewSimpleWriter(stdout))
	}
	return writer, closeOutput, nil
}

// openReportOutput returns stdout, or the report file when path is set.
func openReportOutput(stdout io.Writer, path string) (io.Writer, func(), error) {
	if path == "" {
		return stdout, func() {}, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports list crawled URLs, so only the owner may read them.
	f, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
