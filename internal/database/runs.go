package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nao1215/sitechat/internal/model"
)

// RunRecord summarizes one stored ingestion run.
type RunRecord struct {
	ID            string
	Seed          string
	StartedAt     time.Time
	FinishedAt    time.Time
	PageCount     int
	FailedURLs    []string
	ChunkCount    int
	IndexedChunks int
	Cancelled     bool
	Error         string
}

// SaveRun inserts or updates the summary row of report.
func (idx *IndexDB) SaveRun(ctx context.Context, report *model.IngestReport) error {
	failed := make([]string, 0)
	for _, p := range report.FailedPages() {
		failed = append(failed, p.URL)
	}
	failedJSON, err := json.Marshal(failed)
	if err != nil {
		return fmt.Errorf("failed to serialize failed pages: %w", err)
	}

	var finishedAt sql.NullString
	if !report.FinishedAt.IsZero() {
		finishedAt = sql.NullString{String: formatTimestamp(report.FinishedAt), Valid: true}
	}

	errMsg := report.ErrorMessage
	if errMsg == "" && report.Error != nil {
		errMsg = report.Error.Error()
	}

	query := `
	INSERT INTO ingest_runs (id, seed, started_at, finished_at, page_count, failed_urls,
		chunk_count, indexed_chunks, cancelled, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		finished_at = excluded.finished_at,
		page_count = excluded.page_count,
		failed_urls = excluded.failed_urls,
		chunk_count = excluded.chunk_count,
		indexed_chunks = excluded.indexed_chunks,
		cancelled = excluded.cancelled,
		error = excluded.error
	`

	_, err = idx.db.ExecContext(ctx, query,
		report.RunID,
		report.Seed,
		formatTimestamp(report.StartedAt),
		finishedAt,
		len(report.Pages),
		string(failedJSON),
		report.ChunkCount,
		report.IndexedChunks,
		report.Cancelled,
		errMsg,
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", report.RunID, err)
	}

	return nil
}

const runColumns = `id, seed, started_at, finished_at, page_count, failed_urls,
	chunk_count, indexed_chunks, cancelled, error`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (RunRecord, error) {
	var rec RunRecord
	var startedAt string
	var finishedAt sql.NullString
	var failedJSON string

	err := row.Scan(
		&rec.ID,
		&rec.Seed,
		&startedAt,
		&finishedAt,
		&rec.PageCount,
		&failedJSON,
		&rec.ChunkCount,
		&rec.IndexedChunks,
		&rec.Cancelled,
		&rec.Error,
	)
	if err != nil {
		return RunRecord{}, err
	}

	rec.StartedAt = parseTimestamp(startedAt)
	if finishedAt.Valid {
		rec.FinishedAt = parseTimestamp(finishedAt.String)
	}
	if err := json.Unmarshal([]byte(failedJSON), &rec.FailedURLs); err != nil {
		rec.FailedURLs = nil
	}

	return rec, nil
}

// GetRun retrieves a run by ID. It returns nil if the run is unknown.
func (idx *IndexDB) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	query := "SELECT " + runColumns + " FROM ingest_runs WHERE id = ?"

	rec, err := scanRun(idx.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &rec, nil
}

// ListRuns returns up to limit runs, most recent first.
// limit <= 0 returns every run.
func (idx *IndexDB) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	query := "SELECT " + runColumns + " FROM ingest_runs ORDER BY started_at DESC"
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := idx.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, rec)
	}

	return runs, rows.Err()
}
