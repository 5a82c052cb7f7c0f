package main

import (
	"testing"
)

// TestNewRootCmd tests the root command creation.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "sitechat" {
			t.Errorf("expected use 'sitechat', got %q", cmd.Use)
		}
	})

	t.Run("has descriptions", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
		if cmd.Long == "" {
			t.Error("expected non-empty long description")
		}
	})

	t.Run("has version", func(t *testing.T) {
		t.Parallel()
		if cmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("has persistent flags", func(t *testing.T) {
		t.Parallel()
		verbose := cmd.PersistentFlags().Lookup("verbose")
		if verbose == nil {
			t.Fatal("expected verbose flag")
		}
		if verbose.Shorthand != "v" {
			t.Errorf("expected shorthand 'v', got %q", verbose.Shorthand)
		}
		if verbose.DefValue != "false" {
			t.Errorf("expected default 'false', got %q", verbose.DefValue)
		}

		cfg := cmd.PersistentFlags().Lookup("config")
		if cfg == nil {
			t.Fatal("expected config flag")
		}
		if cfg.Shorthand != "c" {
			t.Errorf("expected shorthand 'c', got %q", cfg.Shorthand)
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()
		want := []string{"init", "ingest", "query", "chat", "serve", "history", "version"}
		got := make(map[string]bool)
		for _, sub := range cmd.Commands() {
			got[sub.Name()] = true
		}
		for _, name := range want {
			if !got[name] {
				t.Errorf("expected %s subcommand", name)
			}
		}
	})
}

func TestSubcommandFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		command string
		flags   []string
	}{
		{
			name:    "ingest",
			command: "ingest",
			flags:   []string{"depth", "max-pages", "chunk-size", "rate-limit", "timeout", "batch", "format", "output", "db"},
		},
		{
			name:    "query",
			command: "query",
			flags:   []string{"top-k", "min-score", "model", "db", "json"},
		},
		{
			name:    "chat",
			command: "chat",
			flags:   []string{"top-k", "min-score", "model", "db"},
		},
		{
			name:    "serve",
			command: "serve",
			flags:   []string{"listen", "top-k", "min-score", "model", "db"},
		},
		{
			name:    "history",
			command: "history",
			flags:   []string{"limit", "pages", "json", "db"},
		},
	}

	root := NewRootCmd()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sub, _, err := root.Find([]string{tt.command})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, name := range tt.flags {
				if sub.Flags().Lookup(name) == nil {
					t.Errorf("expected %s flag on %s", name, tt.command)
				}
			}
		})
	}
}
