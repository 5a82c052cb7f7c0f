package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitechat/internal/database"
)

var errRunNotFound = errors.New("ingest run not found")

const (
	defaultHistoryLimit = 20
	timestampLayout     = "2006-01-02 15:04:05"
	maxURLWidth         = 60
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show past ingest runs and the indexed pages",
		Long: `History lists the ingest runs stored in the index database, newest first.

With a run ID it shows the details of that run, including the pages that
could not be fetched.

Examples:
  # List the last 20 runs
  sitechat history

  # Show one run
  sitechat history 0b6c1f0e-8a53-4f0f-9a3e-3a1d5f8e2c11

  # List every stored page
  sitechat history --pages

  # Output JSON
  sitechat history --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", defaultHistoryLimit,
		"Maximum number of runs to list (0 lists all)")
	cmd.Flags().BoolP("pages", "p", false,
		"List the stored pages instead of runs")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON")
	cmd.Flags().String("db", "",
		"Index database path (default: XDG data directory)")

	return cmd
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	pages, err := cmd.Flags().GetBool("pages")
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	db, err := openDB(cfg, newLogger(cfg, slog.LevelWarn))
	if err != nil {
		return err
	}
	defer db.Close()

	h := historyPrinter{db: db, out: cmd.OutOrStdout(), json: asJSON}
	ctx := cmd.Context()

	switch {
	case len(args) == 1:
		return h.run(ctx, args[0])
	case pages:
		return h.pages(ctx)
	default:
		return h.runs(ctx, limit)
	}
}

// historyPrinter renders stored runs and pages.
type historyPrinter struct {
	db   *database.IndexDB
	out  io.Writer
	json bool
}

func (h historyPrinter) runs(ctx context.Context, limit int) error {
	runs, err := h.db.ListRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to get run history: %w", err)
	}
	if h.json {
		return h.encode(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(h.out, "No ingest runs found.")
		fmt.Fprintln(h.out, "\nUse 'sitechat ingest <url>' to index a website.")
		return nil
	}

	chunks, err := h.db.CountChunks(ctx)
	if err != nil {
		return fmt.Errorf("failed to count chunks: %w", err)
	}

	fmt.Fprintf(h.out, "Ingest runs (%d shown, %d chunks indexed):\n\n", len(runs), chunks)
	fmt.Fprintf(h.out, "  %-36s  %-19s  %-9s  %5s  %6s  %6s  %s\n",
		"ID", "Started", "Status", "Pages", "Failed", "Chunks", "Seed")
	fmt.Fprintln(h.out, "  "+strings.Repeat("-", 110))

	for _, r := range runs {
		fmt.Fprintf(h.out, "  %-36s  %-19s  %-9s  %5d  %6d  %6d  %s\n",
			r.ID,
			r.StartedAt.Local().Format(timestampLayout),
			runStatus(r),
			r.PageCount,
			len(r.FailedURLs),
			r.IndexedChunks,
			r.Seed,
		)
	}

	fmt.Fprintln(h.out, "\nUse 'sitechat history <id>' to show the details of a run.")
	return nil
}

func (h historyPrinter) run(ctx context.Context, id string) error {
	r, err := h.db.GetRun(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get run %s: %w", id, err)
	}
	if r == nil {
		return fmt.Errorf("%w: %s", errRunNotFound, id)
	}
	if h.json {
		return h.encode(r)
	}

	fmt.Fprintf(h.out, "Run %s\n\n", r.ID)
	fmt.Fprintf(h.out, "  Seed:     %s\n", r.Seed)
	fmt.Fprintf(h.out, "  Status:   %s\n", runStatus(*r))
	fmt.Fprintf(h.out, "  Started:  %s\n", r.StartedAt.Local().Format(timestampLayout))
	if !r.FinishedAt.IsZero() {
		fmt.Fprintf(h.out, "  Duration: %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	}
	fmt.Fprintf(h.out, "  Pages:    %d\n", r.PageCount)
	fmt.Fprintf(h.out, "  Chunks:   %d cut, %d indexed\n", r.ChunkCount, r.IndexedChunks)
	if r.Error != "" {
		fmt.Fprintf(h.out, "  Error:    %s\n", r.Error)
	}

	if len(r.FailedURLs) > 0 {
		fmt.Fprintf(h.out, "\nFailed pages (%d):\n", len(r.FailedURLs))
		for _, u := range r.FailedURLs {
			fmt.Fprintf(h.out, "  - %s\n", u)
		}
	}
	return nil
}

func (h historyPrinter) pages(ctx context.Context) error {
	pages, err := h.db.ListPages(ctx)
	if err != nil {
		return fmt.Errorf("failed to list pages: %w", err)
	}
	if h.json {
		return h.encode(pages)
	}

	if len(pages) == 0 {
		fmt.Fprintln(h.out, "No pages stored.")
		return nil
	}

	fmt.Fprintf(h.out, "Stored pages (%d):\n\n", len(pages))
	fmt.Fprintf(h.out, "  %-19s  %10s  %s\n", "Crawled", "Characters", "URL")
	fmt.Fprintln(h.out, "  "+strings.Repeat("-", 80))
	for _, p := range pages {
		chars := fmt.Sprintf("%d", utf8.RuneCountInString(p.Content))
		if p.Failed {
			chars = "failed"
		}
		fmt.Fprintf(h.out, "  %-19s  %10s  %s\n",
			p.CrawledAt.Local().Format(timestampLayout),
			chars,
			shortenURL(p.URL),
		)
	}
	return nil
}

func (h historyPrinter) encode(v any) error {
	encoder := json.NewEncoder(h.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func runStatus(r database.RunRecord) string {
	switch {
	case r.Cancelled:
		return "cancelled"
	case r.Error != "":
		return "error"
	case r.FinishedAt.IsZero():
		return "running"
	default:
		return "complete"
	}
}

// shortenURL keeps long URLs on one table row.
func shortenURL(u string) string {
	if utf8.RuneCountInString(u) <= maxURLWidth {
		return u
	}
	runes := []rune(u)
	return string(runes[:maxURLWidth-3]) + "..."
}
