package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitechat/internal/assistant"
	"github.com/nao1215/sitechat/internal/config"
	"github.com/nao1215/sitechat/internal/database"
	"github.com/nao1215/sitechat/internal/embedding"
	"github.com/nao1215/sitechat/internal/llm"
	seclog "github.com/nao1215/sitechat/internal/log"
	"github.com/nao1215/sitechat/internal/session"
)

const (
	attributionURL  = "https://github.com/nao1215/sitechat"
	attributionName = "sitechat"
)

// loadConfig builds the configuration for cmd: defaults, then the config
// file, then the environment, then the flags the user actually set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg.Verbose, err = cmd.Flags().GetBool("verbose")
	if err != nil {
		return nil, err
	}

	// An explicitly named file must exist; the default locations are optional.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		f, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, err
		}
		f.Apply(cfg)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	cfg.ApplyEnv()

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyFlags copies every changed flag into cfg. Commands only register
// the flags they use, so unknown names are skipped.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	changed := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}

	var errs []error
	setInt := func(name string, dst *int) {
		if changed(name) {
			v, err := flags.GetInt(name)
			errs = append(errs, err)
			*dst = v
		}
	}
	setString := func(name string, dst *string) {
		if changed(name) {
			v, err := flags.GetString(name)
			errs = append(errs, err)
			*dst = v
		}
	}
	setFloat := func(name string, dst *float64) {
		if changed(name) {
			v, err := flags.GetFloat64(name)
			errs = append(errs, err)
			*dst = v
		}
	}

	setInt("depth", &cfg.MaxDepth)
	setInt("max-pages", &cfg.MaxPages)
	setInt("chunk-size", &cfg.ChunkSize)
	setInt("batch", &cfg.BatchSize)
	setInt("top-k", &cfg.TopK)
	setFloat("rate-limit", &cfg.RateLimit)
	setFloat("min-score", &cfg.MinScore)
	setString("db", &cfg.DBPath)
	setString("format", &cfg.ReportFormat)
	setString("output", &cfg.ReportFile)
	setString("listen", &cfg.ListenAddress)
	setString("model", &cfg.LLMModel)

	if changed("timeout") {
		v, err := flags.GetDuration("timeout")
		errs = append(errs, err)
		cfg.Timeout = v
	}

	return errors.Join(errs...)
}

// newLogger creates the process logger. level is the minimum level
// without --verbose.
func newLogger(cfg *config.Config, level slog.Level) *slog.Logger {
	logger := seclog.New(os.Stderr, seclog.Options{
		Verbose: cfg.Verbose,
		Level:   level,
	})
	slog.SetDefault(logger)
	return logger
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// openDB opens the index database, creating its directory when needed.
func openDB(cfg *config.Config, logger *slog.Logger) (*database.IndexDB, error) {
	if dir := filepath.Dir(cfg.DBPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := database.Open(cfg.DBPath, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	logger.Debug("database opened", "path", cfg.DBPath)
	return db, nil
}

func newEmbedder(cfg *config.Config, logger *slog.Logger) (*embedding.OpenAIEmbedder, error) {
	if cfg.EmbeddingAPIKey == "" {
		return nil, config.ErrMissingEmbeddingKey
	}
	return embedding.NewOpenAIEmbedder(cfg.EmbeddingAPIKey,
		embedding.WithBaseURL(cfg.EmbeddingBaseURL),
		embedding.WithModel(cfg.EmbeddingModel),
		embedding.WithBatchSize(cfg.EmbeddingBatchSize),
		embedding.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		embedding.WithLogger(logger),
	), nil
}

func newCompleter(cfg *config.Config, logger *slog.Logger) (*llm.OpenAIClient, error) {
	if cfg.LLMAPIKey == "" {
		return nil, config.ErrMissingLLMKey
	}
	return llm.NewOpenAIClient(cfg.LLMAPIKey,
		llm.WithBaseURL(cfg.LLMBaseURL),
		llm.WithModel(cfg.LLMModel),
		llm.WithTemperature(cfg.Temperature),
		llm.WithMaxTokens(cfg.MaxTokens),
		llm.WithAttribution(attributionURL, attributionName),
		llm.WithLogger(logger),
	), nil
}

// assistantDeps are optional observers for newAssistant.
type assistantDeps struct {
	answered assistant.Observer
	sessions session.Observer
}

// newAssistant wires the embedder, the index, and the language model.
func newAssistant(cfg *config.Config, db *database.IndexDB, logger *slog.Logger, deps assistantDeps) (*assistant.Assistant, error) {
	embedder, err := newEmbedder(cfg, logger)
	if err != nil {
		return nil, err
	}
	completer, err := newCompleter(cfg, logger)
	if err != nil {
		return nil, err
	}

	retriever := assistant.NewRetriever(embedder, db,
		assistant.WithTopK(cfg.TopK),
		assistant.WithMinScore(cfg.MinScore),
		assistant.WithMaxContextSize(cfg.MaxContextSize),
	)

	storeOpts := []session.Option{
		session.WithTTL(cfg.SessionTTL),
		session.WithMaxSessions(cfg.MaxSessions),
		session.WithMaxTurns(cfg.MaxTurns),
	}
	if deps.sessions != nil {
		storeOpts = append(storeOpts, session.WithObserver(deps.sessions))
	}

	opts := []assistant.Option{
		assistant.WithSessionStore(session.NewStore(storeOpts...)),
		assistant.WithLogger(logger),
	}
	if deps.answered != nil {
		opts = append(opts, assistant.WithObserver(deps.answered))
	}

	return assistant.New(retriever, completer, opts...), nil
}
