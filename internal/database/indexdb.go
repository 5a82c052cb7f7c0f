package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// IndexDB provides SQLite-based storage for pages, chunk vectors and
// ingestion runs.
type IndexDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures IndexDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging, which lets the query side read
	// while an ingestion writes.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the database file at dbPath.
// If CreateIfNotExists is true, the parent directory and the file are created.
// If CreateIfNotExists is false and the file doesn't exist, an error is returned.
func Open(dbPath string, opts Options) (*IndexDB, error) {
	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (run 'sitechat ingest' first)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	idx := &IndexDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := idx.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return idx, nil
}

// Path returns the database file path.
func (idx *IndexDB) Path() string {
	return idx.dbPath
}

// Close closes the database connection.
func (idx *IndexDB) Close() error {
	return idx.db.Close()
}

// createTables creates the database schema if it doesn't exist.
// Timestamps are stored as RFC 3339 text.
func (idx *IndexDB) createTables(ctx context.Context) error {
	schema := `
	-- Pages hold the latest crawl of every URL
	CREATE TABLE IF NOT EXISTS pages (
		url TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		content TEXT NOT NULL,
		failed INTEGER NOT NULL DEFAULT 0,
		crawled_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pages_run ON pages(run_id);

	-- Chunks hold the indexed text with its embedding
	CREATE TABLE IF NOT EXISTS chunks (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		chunk_index INTEGER NOT NULL,
		text TEXT NOT NULL,
		embedding BLOB NOT NULL,
		dimensions INTEGER NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(url, chunk_index)
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_url ON chunks(url);

	-- Ingest runs store one summary row per seed ingestion
	CREATE TABLE IF NOT EXISTS ingest_runs (
		id TEXT PRIMARY KEY,
		seed TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		page_count INTEGER NOT NULL DEFAULT 0,
		failed_urls TEXT NOT NULL DEFAULT '[]',
		chunk_count INTEGER NOT NULL DEFAULT 0,
		indexed_chunks INTEGER NOT NULL DEFAULT 0,
		cancelled INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON ingest_runs(started_at);
	`

	_, err := idx.db.ExecContext(ctx, schema)
	return err
}

// timestampLayout is a fixed-width RFC 3339 layout, so stored timestamps
// sort lexically in time order.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// formatTimestamp renders t the way it is stored.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,          // also parses timestampLayout
	time.RFC3339,              // Full RFC3339 format
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
