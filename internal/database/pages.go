package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nao1215/sitechat/internal/model"
)

// PageRecord represents a stored page.
type PageRecord struct {
	URL       string
	RunID     string
	Content   string
	Failed    bool
	CrawledAt time.Time
}

// SavePage inserts or replaces the page stored for page.URL.
// The failed column mirrors page.Failed; an empty page that loaded
// without error is not marked failed.
func (idx *IndexDB) SavePage(ctx context.Context, runID string, page model.Page) error {
	query := `
	INSERT INTO pages (url, run_id, content, failed, crawled_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(url) DO UPDATE SET
		run_id = excluded.run_id,
		content = excluded.content,
		failed = excluded.failed,
		crawled_at = excluded.crawled_at
	`

	_, err := idx.db.ExecContext(ctx, query,
		page.URL,
		runID,
		page.Content,
		page.Failed,
		formatTimestamp(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to save page %s: %w", page.URL, err)
	}

	return nil
}

// GetPage retrieves a page by URL. It returns nil if the URL is unknown.
func (idx *IndexDB) GetPage(ctx context.Context, url string) (*PageRecord, error) {
	query := `
	SELECT url, run_id, content, failed, crawled_at
	FROM pages
	WHERE url = ?
	`

	var rec PageRecord
	var crawledAt string
	err := idx.db.QueryRowContext(ctx, query, url).Scan(
		&rec.URL,
		&rec.RunID,
		&rec.Content,
		&rec.Failed,
		&crawledAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}

	rec.CrawledAt = parseTimestamp(crawledAt)
	return &rec, nil
}

// ListPages returns every stored page ordered by URL.
func (idx *IndexDB) ListPages(ctx context.Context) ([]PageRecord, error) {
	query := `
	SELECT url, run_id, content, failed, crawled_at
	FROM pages
	ORDER BY url
	`

	rows, err := idx.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer rows.Close()

	var pages []PageRecord
	for rows.Next() {
		var rec PageRecord
		var crawledAt string
		if err := rows.Scan(&rec.URL, &rec.RunID, &rec.Content, &rec.Failed, &crawledAt); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		rec.CrawledAt = parseTimestamp(crawledAt)
		pages = append(pages, rec)
	}

	return pages, rows.Err()
}
