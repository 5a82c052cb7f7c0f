package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nao1215/sitechat/internal/model"
)

func TestRuns(t *testing.T) {
	t.Parallel()

	newReport := func(seed string, started time.Time) *model.IngestReport {
		r := model.NewIngestReport(seed)
		r.StartedAt = started
		r.Pages = []model.Page{
			{URL: seed, Content: "home"},
			{URL: seed + "broken", Failed: true},
		}
		r.SetChunks([]model.ContentChunk{{Text: "home", SourceURL: seed}})
		return r
	}

	t.Run("save and retrieve run", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()
		started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

		report := newReport("https://x.test/", started)
		if err := db.SaveRun(ctx, report); err != nil {
			t.Fatalf("failed to save run: %v", err)
		}

		run, err := db.GetRun(ctx, report.RunID)
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if run == nil {
			t.Fatal("expected run, got nil")
		}
		if run.Seed != "https://x.test/" || run.PageCount != 2 || run.ChunkCount != 1 {
			t.Errorf("unexpected run %+v", run)
		}
		if len(run.FailedURLs) != 1 || run.FailedURLs[0] != "https://x.test/broken" {
			t.Errorf("unexpected failed urls %v", run.FailedURLs)
		}
		if !run.StartedAt.Equal(started) {
			t.Errorf("expected start %v, got %v", started, run.StartedAt)
		}
		if !run.FinishedAt.IsZero() {
			t.Errorf("expected unfinished run, got %v", run.FinishedAt)
		}
	})

	t.Run("saving again updates the run", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()
		started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

		report := newReport("https://x.test/", started)
		_ = db.SaveRun(ctx, report) //nolint:errcheck

		report.IndexedChunks = 1
		report.FinishedAt = started.Add(time.Minute)
		report.Error = errors.New("embedding failed")
		if err := db.SaveRun(ctx, report); err != nil {
			t.Fatalf("failed to update run: %v", err)
		}

		run, err := db.GetRun(ctx, report.RunID)
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if run.IndexedChunks != 1 {
			t.Errorf("expected 1 indexed chunk, got %d", run.IndexedChunks)
		}
		if !run.FinishedAt.Equal(started.Add(time.Minute)) {
			t.Errorf("unexpected finish time %v", run.FinishedAt)
		}
		if run.Error != "embedding failed" {
			t.Errorf("expected error message, got %q", run.Error)
		}
	})

	t.Run("returns nil for unknown run", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)

		run, err := db.GetRun(context.Background(), "missing")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if run != nil {
			t.Errorf("expected nil, got %+v", run)
		}
	})

	t.Run("lists runs most recent first", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()
		base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

		for i, seed := range []string{"https://a.test/", "https://b.test/", "https://c.test/"} {
			if err := db.SaveRun(ctx, newReport(seed, base.Add(time.Duration(i)*time.Hour))); err != nil {
				t.Fatalf("failed to save run: %v", err)
			}
		}

		runs, err := db.ListRuns(ctx, 0)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		want := []string{"https://c.test/", "https://b.test/", "https://a.test/"}
		if len(runs) != len(want) {
			t.Fatalf("expected %d runs, got %d", len(want), len(runs))
		}
		for i, r := range runs {
			if r.Seed != want[i] {
				t.Errorf("run %d: expected %s, got %s", i, want[i], r.Seed)
			}
		}

		limited, err := db.ListRuns(ctx, 1)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(limited) != 1 || limited[0].Seed != "https://c.test/" {
			t.Errorf("expected only the latest run, got %+v", limited)
		}
	})
}
