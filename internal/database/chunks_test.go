package database

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/nao1215/sitechat/internal/model"
)

func chunk(url string, index int, text string) model.ContentChunk {
	return model.ContentChunk{SourceURL: url, ChunkIndex: index, Text: text}
}

func TestUpsertChunk(t *testing.T) {
	t.Parallel()

	t.Run("stores and counts chunks", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		for i := range 3 {
			if err := db.UpsertChunk(ctx, chunk("https://x.test/", i, "text"), []float32{1, 0}); err != nil {
				t.Fatalf("failed to upsert chunk: %v", err)
			}
		}

		count, err := db.CountChunks(ctx)
		if err != nil {
			t.Fatalf("failed to count chunks: %v", err)
		}
		if count != 3 {
			t.Errorf("expected 3 chunks, got %d", count)
		}
	})

	t.Run("same url and index overwrites", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		_ = db.UpsertChunk(ctx, chunk("https://x.test/", 0, "old"), []float32{1, 0}) //nolint:errcheck
		if err := db.UpsertChunk(ctx, chunk("https://x.test/", 0, "new"), []float32{0, 1}); err != nil {
			t.Fatalf("failed to upsert chunk: %v", err)
		}

		count, _ := db.CountChunks(ctx) //nolint:errcheck
		if count != 1 {
			t.Errorf("expected 1 chunk, got %d", count)
		}

		matches, err := db.SimilarChunks(ctx, []float32{0, 1}, 1, 0.9)
		if err != nil {
			t.Fatalf("failed to search: %v", err)
		}
		if len(matches) != 1 || matches[0].Chunk.Text != "new" {
			t.Errorf("expected overwritten chunk, got %+v", matches)
		}
	})

	t.Run("empty vector is rejected", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)

		err := db.UpsertChunk(context.Background(), chunk("https://x.test/", 0, "t"), nil)
		if !errors.Is(err, ErrEmptyVector) {
			t.Errorf("expected ErrEmptyVector, got %v", err)
		}
	})
}

func TestDeleteAndReplaceChunks(t *testing.T) {
	t.Parallel()

	t.Run("delete removes only the url's chunks", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		_ = db.UpsertChunk(ctx, chunk("https://x.test/a", 0, "a0"), []float32{1}) //nolint:errcheck
		_ = db.UpsertChunk(ctx, chunk("https://x.test/a", 1, "a1"), []float32{1}) //nolint:errcheck
		_ = db.UpsertChunk(ctx, chunk("https://x.test/b", 0, "b0"), []float32{1}) //nolint:errcheck

		n, err := db.DeleteChunksForURL(ctx, "https://x.test/a")
		if err != nil {
			t.Fatalf("failed to delete: %v", err)
		}
		if n != 2 {
			t.Errorf("expected 2 deleted, got %d", n)
		}

		count, _ := db.CountChunks(ctx) //nolint:errcheck
		if count != 1 {
			t.Errorf("expected 1 remaining chunk, got %d", count)
		}
	})

	t.Run("replace drops stale trailing chunks", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()
		url := "https://x.test/a"

		old := []model.ContentChunk{chunk(url, 0, "a"), chunk(url, 1, "b"), chunk(url, 2, "c")}
		if err := db.ReplaceChunks(ctx, url, old, [][]float32{{1}, {1}, {1}}); err != nil {
			t.Fatalf("failed to replace: %v", err)
		}

		fresh := []model.ContentChunk{chunk(url, 0, "abc")}
		if err := db.ReplaceChunks(ctx, url, fresh, [][]float32{{1}}); err != nil {
			t.Fatalf("failed to replace: %v", err)
		}

		matches, err := db.SimilarChunks(ctx, []float32{1}, 0, 0)
		if err != nil {
			t.Fatalf("failed to search: %v", err)
		}
		if len(matches) != 1 || matches[0].Chunk.Text != "abc" {
			t.Errorf("expected only the fresh chunk, got %+v", matches)
		}
	})

	t.Run("replace validates lengths", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)

		err := db.ReplaceChunks(context.Background(), "https://x.test/", []model.ContentChunk{chunk("https://x.test/", 0, "a")}, nil)
		if !errors.Is(err, ErrLengthMismatch) {
			t.Errorf("expected ErrLengthMismatch, got %v", err)
		}
	})

	t.Run("replace rolls back on foreign chunk", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()
		url := "https://x.test/a"

		_ = db.UpsertChunk(ctx, chunk(url, 0, "keep"), []float32{1}) //nolint:errcheck

		err := db.ReplaceChunks(ctx, url,
			[]model.ContentChunk{chunk(url, 0, "new"), chunk("https://x.test/other", 0, "x")},
			[][]float32{{1}, {1}})
		if err == nil {
			t.Fatal("expected error for chunk of another url")
		}

		matches, _ := db.SimilarChunks(ctx, []float32{1}, 0, 0) //nolint:errcheck
		if len(matches) != 1 || matches[0].Chunk.Text != "keep" {
			t.Errorf("expected original chunk after rollback, got %+v", matches)
		}
	})
}

func TestSimilarChunks(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) *IndexDB {
		t.Helper()

		db := setupTestDB(t)
		ctx := context.Background()
		vectors := []struct {
			c model.ContentChunk
			v []float32
		}{
			{chunk("https://x.test/b", 0, "exact b"), []float32{1, 0}},
			{chunk("https://x.test/a", 1, "exact a1"), []float32{2, 0}},
			{chunk("https://x.test/a", 0, "exact a0"), []float32{1, 0}},
			{chunk("https://x.test/c", 0, "close"), []float32{1, 1}},
			{chunk("https://x.test/d", 0, "orthogonal"), []float32{0, 1}},
			{chunk("https://x.test/e", 0, "opposite"), []float32{-1, 0}},
		}
		for _, tv := range vectors {
			if err := db.UpsertChunk(ctx, tv.c, tv.v); err != nil {
				t.Fatalf("failed to upsert: %v", err)
			}
		}
		return db
	}

	t.Run("orders by score then url then index", func(t *testing.T) {
		t.Parallel()

		db := setup(t)

		matches, err := db.SimilarChunks(context.Background(), []float32{1, 0}, 0, 0.5)
		if err != nil {
			t.Fatalf("failed to search: %v", err)
		}

		want := []string{"exact a0", "exact a1", "exact b", "close"}
		if len(matches) != len(want) {
			t.Fatalf("expected %d matches, got %d: %+v", len(want), len(matches), matches)
		}
		for i, m := range matches {
			if m.Chunk.Text != want[i] {
				t.Errorf("match %d: expected %q, got %q", i, want[i], m.Chunk.Text)
			}
		}
		if math.Abs(matches[0].Score-1) > 1e-9 {
			t.Errorf("expected score 1, got %f", matches[0].Score)
		}
		if math.Abs(matches[3].Score-1/math.Sqrt2) > 1e-6 {
			t.Errorf("expected score 1/sqrt(2), got %f", matches[3].Score)
		}
	})

	t.Run("limits to topK", func(t *testing.T) {
		t.Parallel()

		db := setup(t)

		matches, err := db.SimilarChunks(context.Background(), []float32{1, 0}, 2, 0)
		if err != nil {
			t.Fatalf("failed to search: %v", err)
		}
		if len(matches) != 2 {
			t.Errorf("expected 2 matches, got %d", len(matches))
		}
	})

	t.Run("min score filters everything", func(t *testing.T) {
		t.Parallel()

		db := setup(t)

		matches, err := db.SimilarChunks(context.Background(), []float32{0, -1}, 3, 0.7)
		if err != nil {
			t.Fatalf("failed to search: %v", err)
		}
		if len(matches) != 0 {
			t.Errorf("expected no matches, got %+v", matches)
		}
	})

	t.Run("dimension mismatch is an error", func(t *testing.T) {
		t.Parallel()

		db := setup(t)

		_, err := db.SimilarChunks(context.Background(), []float32{1, 0, 0}, 3, 0)
		if !errors.Is(err, ErrDimensionMismatch) {
			t.Errorf("expected ErrDimensionMismatch, got %v", err)
		}
	})

	t.Run("empty query is an error", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)

		_, err := db.SimilarChunks(context.Background(), nil, 3, 0)
		if !errors.Is(err, ErrEmptyVector) {
			t.Errorf("expected ErrEmptyVector, got %v", err)
		}
	})

	t.Run("empty index returns nothing", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)

		matches, err := db.SimilarChunks(context.Background(), []float32{1}, 3, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(matches) != 0 {
			t.Errorf("expected no matches, got %+v", matches)
		}
	})
}
