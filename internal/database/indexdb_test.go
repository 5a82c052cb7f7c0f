package database

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/sitechat/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *IndexDB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "sitechat.db"), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbPath := filepath.Join(t.TempDir(), "newdir", "subdir", "sitechat.db")
		db, err := Open(dbPath, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != dbPath {
			t.Errorf("expected path %q, got %q", dbPath, db.Path())
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "nonexistent-db")
		_, err := Open(filepath.Join(dbDir, "sitechat.db"), Options{CreateIfNotExists: false, EnableWAL: true})
		if err == nil {
			t.Fatal("expected error when CreateIfNotExists=false and database does not exist")
		}
		if !strings.Contains(err.Error(), "database not found") {
			t.Errorf("expected error to contain %q, got %q", "database not found", err.Error())
		}
		if _, statErr := os.Stat(dbDir); !os.IsNotExist(statErr) {
			t.Error("database directory should not have been created when CreateIfNotExists=false")
		}
	})

	t.Run("CreateIfNotExists=false opens existing database", func(t *testing.T) {
		t.Parallel()

		dbPath := filepath.Join(t.TempDir(), "sitechat.db")
		ctx := context.Background()

		db1, err := Open(dbPath, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		if err := db1.SavePage(ctx, "run-1", model.Page{URL: "https://x.test/", Content: "hello"}); err != nil {
			t.Fatalf("failed to save page: %v", err)
		}
		db1.Close()

		db2, err := Open(dbPath, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to open existing database: %v", err)
		}
		defer db2.Close()

		page, err := db2.GetPage(ctx, "https://x.test/")
		if err != nil {
			t.Fatalf("failed to get page: %v", err)
		}
		if page == nil || page.Content != "hello" {
			t.Errorf("expected persisted page, got %+v", page)
		}
	})

	t.Run("reopening keeps the schema", func(t *testing.T) {
		t.Parallel()

		dbPath := filepath.Join(t.TempDir(), "sitechat.db")
		for range 2 {
			db, err := Open(dbPath, DefaultOptions())
			if err != nil {
				t.Fatalf("failed to open database: %v", err)
			}
			db.Close()
		}
	})
}

func TestDefaultOptions(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	if !opts.CreateIfNotExists {
		t.Error("expected CreateIfNotExists to be true")
	}
	if !opts.EnableWAL {
		t.Error("expected EnableWAL to be true")
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	want := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"stored layout", formatTimestamp(want), want},
		{"rfc3339", "2026-03-04T05:06:07Z", want},
		{"sqlite datetime", "2026-03-04 05:06:07", want},
		{"garbage", "yesterday", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := parseTimestamp(tt.input)
			if !got.Equal(tt.want) {
				t.Errorf("parseTimestamp(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatTimestampSortsLexically(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	earlier := formatTimestamp(base)
	later := formatTimestamp(base.Add(500 * time.Millisecond))

	if earlier >= later {
		t.Errorf("expected %q < %q", earlier, later)
	}
}
