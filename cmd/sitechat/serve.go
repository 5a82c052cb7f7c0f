package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitechat/internal/config"
	"github.com/nao1215/sitechat/internal/metrics"
	"github.com/nao1215/sitechat/internal/server"
)

// sessionSweepInterval is how often expired chat sessions are dropped.
const sessionSweepInterval = time.Minute

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the query and chat API over HTTP",
		Long: `Serve exposes the indexed content through a JSON API:

  POST   /api/query           single question, JSON answer
  POST   /api/chat            streamed answer within a session
  DELETE /api/sessions/{id}   forget a chat session
  GET    /healthz             liveness probe
  GET    /metrics             Prometheus metrics

Examples:
  sitechat serve
  sitechat serve --listen :9000`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("listen", "l", config.DefaultListenAddress,
		"Address to listen on")
	cmd.Flags().Int("top-k", config.DefaultTopK,
		"Number of chunks retrieved as context")
	cmd.Flags().Float64("min-score", config.DefaultMinScore,
		"Minimum cosine similarity for a chunk to be used")
	cmd.Flags().String("model", "",
		"Chat model (default from config)")
	cmd.Flags().String("db", "",
		"Index database path (default: XDG data directory)")

	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := newLogger(cfg, slog.LevelInfo)

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	db, err := openDB(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	m := metrics.New()
	asst, err := newAssistant(cfg, db, logger, assistantDeps{
		answered: m,
		sessions: m,
	})
	if err != nil {
		return err
	}

	go asst.Sessions().Run(ctx, sessionSweepInterval)

	srv := server.New(asst, asst.Sessions(),
		server.WithRequestObserver(m),
		server.WithMetricsHandler(m.Handler()),
		server.WithLogger(logger),
	)

	fmt.Fprintf(cmd.ErrOrStderr(), "Listening on %s\n", cfg.ListenAddress)
	return srv.ListenAndServe(ctx, cfg.ListenAddress)
}
