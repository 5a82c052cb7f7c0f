package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitechat/internal/assistant"
	"github.com/nao1215/sitechat/internal/config"
)

const (
	chatPrompt  = "> "
	chatExit    = "/exit"
	chatReset   = "/reset"
	chatSources = "/sources"
)

// NewChatCmd creates the chat command.
func NewChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation about the indexed content",
		Long: `Chat reads questions from standard input and streams each answer as it is
generated. Earlier questions of the conversation are sent along with each
new one.

Commands:
  /sources  show the pages behind the last answer
  /reset    start a new conversation
  /exit     quit (Ctrl-D works too)`,
		Args: cobra.NoArgs,
		RunE: runChatCmd,
	}

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

func runChatCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
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

	fmt.Fprintf(cmd.ErrOrStderr(), "Ask a question, or %s to quit.\n", chatExit)
	return chatLoop(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), asst)
}

// chatter answers one chat turn.
type chatter interface {
	Chat(ctx context.Context, sessionID, message string, w io.Writer) (*assistant.ChatReply, error)
}

// chatLoop runs the read-answer loop until EOF, /exit, or ctx ends.
// A failed turn is reported and the loop continues with the same session.
func chatLoop(ctx context.Context, in io.Reader, out io.Writer, c chatter) error {
	scanner := bufio.NewScanner(in)
	var (
		sessionID string
		last      *assistant.ChatReply
	)

	for {
		fmt.Fprint(out, chatPrompt)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case chatExit:
			return nil
		case chatReset:
			sessionID, last = "", nil
			fmt.Fprintln(out, "Started a new conversation.")
			continue
		case chatSources:
			if last == nil {
				fmt.Fprintln(out, "No answer yet.")
				continue
			}
			printSources(out, last.Sources)
			continue
		}

		reply, err := c.Chat(ctx, sessionID, line, out)
		fmt.Fprintln(out)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, assistant.ErrEmptyQuestion) {
				continue
			}
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		sessionID, last = reply.SessionID, reply
	}
}
