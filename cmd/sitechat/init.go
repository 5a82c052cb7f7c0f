package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitechat/internal/config"
)

//go:embed templates/sitechat.yaml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a sitechat.yaml configuration file",
		Long: `Init writes a commented sitechat.yaml to the current directory.

The generated file lists every setting with its default value:
seeds, crawl limits, chunk size, embedding and language model endpoints,
retrieval thresholds, chat sessions, the HTTP listen address, and
per-site crawl overrides.

Examples:
  # Create sitechat.yaml in current directory
  sitechat init

  # Create config file at a specific path
  sitechat init -o ~/.config/sitechat/sitechat.yaml

  # Force overwrite existing file
  sitechat init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/sitechat.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to set:")
	fmt.Fprintln(out, "  - The seed URLs to ingest")
	fmt.Fprintln(out, "  - Crawl depth and page limits, globally or per site")
	fmt.Fprintln(out, "  - The embedding and chat models")
	fmt.Fprintln(out, "\nAPI keys are read from OPENAI_API_KEY and OPENROUTER_API_KEY, not from this file.")

	return nil
}
