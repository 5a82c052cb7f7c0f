package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables holding API credentials.
const (
	// EnvOpenAIAPIKey authenticates embedding requests. It is also used for
	// chat requests when EnvOpenRouterAPIKey is unset.
	EnvOpenAIAPIKey = "OPENAI_API_KEY"

	// EnvOpenRouterAPIKey authenticates chat completion requests.
	EnvOpenRouterAPIKey = "OPENROUTER_API_KEY"
)

// DefaultEnvFiles are the dotenv files loaded at startup, in order.
// Variables already set in the process environment are never overwritten,
// so earlier files take precedence over later ones.
var DefaultEnvFiles = []string{".env.local", ".env"}

// LoadDotEnv loads the given dotenv files into the process environment.
// Missing files are skipped.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv reads API credentials from the environment into cfg.
func (c *Config) ApplyEnv() {
	c.EmbeddingAPIKey = os.Getenv(EnvOpenAIAPIKey)

	c.LLMAPIKey = os.Getenv(EnvOpenRouterAPIKey)
	if c.LLMAPIKey == "" {
		c.LLMAPIKey = c.EmbeddingAPIKey
	}
}
