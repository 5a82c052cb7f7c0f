package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/nao1215/sitechat/internal/model"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const upsertChunkQuery = `
	INSERT INTO chunks (id, url, chunk_index, text, embedding, dimensions, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		text = excluded.text,
		embedding = excluded.embedding,
		dimensions = excluded.dimensions,
		updated_at = excluded.updated_at
	`

// UpsertChunk stores chunk with its vector, replacing any chunk with the
// same ID.
func (idx *IndexDB) UpsertChunk(ctx context.Context, chunk model.ContentChunk, vector []float32) error {
	return upsertChunk(ctx, idx.db, chunk, vector)
}

func upsertChunk(ctx context.Context, ex execer, chunk model.ContentChunk, vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("%w: chunk %d of %s", ErrEmptyVector, chunk.ChunkIndex, chunk.SourceURL)
	}

	_, err := ex.ExecContext(ctx, upsertChunkQuery,
		chunk.ID(),
		chunk.SourceURL,
		chunk.ChunkIndex,
		chunk.Text,
		encodeVector(vector),
		len(vector),
		formatTimestamp(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert chunk %d of %s: %w", chunk.ChunkIndex, chunk.SourceURL, err)
	}

	return nil
}

// DeleteChunksForURL removes every chunk of url and returns how many were
// removed.
func (idx *IndexDB) DeleteChunksForURL(ctx context.Context, url string) (int64, error) {
	return deleteChunksForURL(ctx, idx.db, url)
}

func deleteChunksForURL(ctx context.Context, ex execer, url string) (int64, error) {
	result, err := ex.ExecContext(ctx, "DELETE FROM chunks WHERE url = ?", url)
	if err != nil {
		return 0, fmt.Errorf("failed to delete chunks of %s: %w", url, err)
	}
	return result.RowsAffected()
}

// ReplaceChunks atomically replaces all chunks of url with chunks.
// vectors[i] is the embedding of chunks[i]. Every chunk must come from url.
func (idx *IndexDB) ReplaceChunks(ctx context.Context, url string, chunks []model.ContentChunk, vectors [][]float32) (err error) {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("%w: %d chunks, %d vectors", ErrLengthMismatch, len(chunks), len(vectors))
	}

	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = deleteChunksForURL(ctx, tx, url); err != nil {
		return err
	}
	for i, chunk := range chunks {
		if chunk.SourceURL != url {
			return fmt.Errorf("chunk %d belongs to %s, not %s", chunk.ChunkIndex, chunk.SourceURL, url)
		}
		if err = upsertChunk(ctx, tx, chunk, vectors[i]); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chunks of %s: %w", url, err)
	}
	return nil
}

// CountChunks returns the number of stored chunks.
func (idx *IndexDB) CountChunks(ctx context.Context) (int, error) {
	var count int
	if err := idx.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}

// SimilarChunks returns the chunks most similar to query by cosine
// similarity. Only chunks scoring at least minScore are returned, at most
// topK of them (topK <= 0 means no limit). Results are ordered by score,
// highest first, with ties broken by URL and then chunk index.
func (idx *IndexDB) SimilarChunks(ctx context.Context, query []float32, topK int, minScore float64) ([]model.Match, error) {
	if len(query) == 0 {
		return nil, ErrEmptyVector
	}

	rows, err := idx.db.QueryContext(ctx, "SELECT url, chunk_index, text, embedding FROM chunks")
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var matches []model.Match
	for rows.Next() {
		var chunk model.ContentChunk
		var blob []byte
		if err := rows.Scan(&chunk.SourceURL, &chunk.ChunkIndex, &chunk.Text, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}

		vector, err := decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("chunk %d of %s: %w", chunk.ChunkIndex, chunk.SourceURL, err)
		}
		if len(vector) != len(query) {
			return nil, fmt.Errorf("%w: query has %d, chunk %d of %s has %d",
				ErrDimensionMismatch, len(query), chunk.ChunkIndex, chunk.SourceURL, len(vector))
		}

		score := cosineSimilarity(query, vector)
		if score < minScore {
			continue
		}
		matches = append(matches, model.Match{Chunk: chunk, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chunks: %w", err)
	}

	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Chunk.SourceURL != b.Chunk.SourceURL {
			return a.Chunk.SourceURL < b.Chunk.SourceURL
		}
		return a.Chunk.ChunkIndex < b.Chunk.ChunkIndex
	})

	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}
