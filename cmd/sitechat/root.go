package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitechat/internal/config"
)

// NewRootCmd creates the root command for sitechat.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitechat",
		Short: "Chat with the content of a website",
		Long: `sitechat crawls a website, stores its text as embedded chunks in a local
SQLite index, and answers questions about it with a language model.

API keys are read from the environment (OPENAI_API_KEY for embeddings,
OPENROUTER_API_KEY for answers). .env.local and .env in the current
directory are loaded first when present.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return config.LoadDotEnv(config.DefaultEnvFiles...)
		},
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: sitechat.yaml in current or XDG config directory)")

	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewIngestCmd())
	cmd.AddCommand(NewQueryCmd())
	cmd.AddCommand(NewChatCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
