package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitechat/internal/config"
	"github.com/nao1215/sitechat/internal/model"
)

// NewQueryCmd creates the query command.
func NewQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <question...>",
		Short: "Ask a single question about the indexed content",
		Long: `Query embeds the question, retrieves the most similar chunks from the
index, and asks the language model to answer using only that context.

Examples:
  sitechat query "How do I reset my password?"

  # Use more context and print JSON
  sitechat query --top-k 8 --json "Which plans include SSO?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runQueryCmd,
	}

	cmd.Flags().Int("top-k", config.DefaultTopK,
		"Number of chunks retrieved as context")
	cmd.Flags().Float64("min-score", config.DefaultMinScore,
		"Minimum cosine similarity for a chunk to be used")
	cmd.Flags().String("model", "",
		"Chat model (default from config)")
	cmd.Flags().String("db", "",
		"Index database path (default: XDG data directory)")
	cmd.Flags().BoolP("json", "j", false,
		"Print the answer and its sources as JSON")

	return cmd
}

func runQueryCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	logger := newLogger(cfg, slog.LevelWarn)

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	db, err := openDB(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	asst, err := newAssistant(cfg, db, logger, assistantDeps{})
	if err != nil {
		return err
	}

	answer, err := asst.Query(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(answer)
	}

	fmt.Fprintln(out, answer.Response)
	printSources(out, answer.Sources)
	return nil
}

// printSources lists the distinct pages behind an answer, best match first.
func printSources(w io.Writer, matches []model.Match) {
	urls := sourceURLs(matches)
	if len(urls) == 0 {
		return
	}
	fmt.Fprintln(w, "\nSources:")
	for _, u := range urls {
		fmt.Fprintf(w, "  - %s\n", u)
	}
}

func sourceURLs(matches []model.Match) []string {
	seen := make(map[string]bool, len(matches))
	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		u := m.Chunk.SourceURL
		if seen[u] {
			continue
		}
		seen[u] = true
		urls = append(urls, u)
	}
	return urls
}
