package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = "sitechat.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of sitechat.yaml.
// Every field is optional; unset fields keep the value already in Config.
type File struct {
	Seeds     []string              `yaml:"seeds,omitempty"`
	Crawl     CrawlSection          `yaml:"crawl,omitempty"`
	Chunk     ChunkSection          `yaml:"chunk,omitempty"`
	Database  DatabaseSection       `yaml:"database,omitempty"`
	Embedding EmbeddingSection      `yaml:"embedding,omitempty"`
	LLM       LLMSection            `yaml:"llm,omitempty"`
	Retrieval RetrievalSection      `yaml:"retrieval,omitempty"`
	Session   SessionSection        `yaml:"session,omitempty"`
	Server    ServerSection         `yaml:"server,omitempty"`
	Sites     map[string]SiteConfig `yaml:"sites,omitempty"`
}

// CrawlSection configures the crawler.
type CrawlSection struct {
	MaxDepth       *int          `yaml:"maxDepth,omitempty"`
	MaxPages       int           `yaml:"maxPages,omitempty"`
	Timeout        time.Duration `yaml:"timeout,omitempty"`
	RateLimit      *float64      `yaml:"rateLimit,omitempty"`
	UserAgent      string        `yaml:"userAgent,omitempty"`
	MaxBodySize    int64         `yaml:"maxBodySize,omitempty"`
	BatchSize      int           `yaml:"batchSize,omitempty"`
	IgnorePatterns []string      `yaml:"ignorePatterns,omitempty"`
	FollowPatterns []string      `yaml:"followPatterns,omitempty"`
}

// ChunkSection configures the chunker.
type ChunkSection struct {
	Size int `yaml:"size,omitempty"`
}

// DatabaseSection configures the SQLite store.
type DatabaseSection struct {
	Path string `yaml:"path,omitempty"`
}

// EmbeddingSection configures the embeddings API.
type EmbeddingSection struct {
	BaseURL   string `yaml:"baseURL,omitempty"`
	Model     string `yaml:"model,omitempty"`
	BatchSize int    `yaml:"batchSize,omitempty"`
}

// LLMSection configures the chat completions API.
type LLMSection struct {
	BaseURL     string   `yaml:"baseURL,omitempty"`
	Model       string   `yaml:"model,omitempty"`
	Temperature *float32 `yaml:"temperature,omitempty"`
	MaxTokens   int      `yaml:"maxTokens,omitempty"`
}

// RetrievalSection tunes context retrieval.
type RetrievalSection struct {
	TopK           int      `yaml:"topK,omitempty"`
	MinScore       *float64 `yaml:"minScore,omitempty"`
	MaxContextSize int      `yaml:"maxContextSize,omitempty"`
}

// SessionSection configures the chat session store.
type SessionSection struct {
	TTL         time.Duration `yaml:"ttl,omitempty"`
	MaxSessions int           `yaml:"maxSessions,omitempty"`
	MaxTurns    int           `yaml:"maxTurns,omitempty"`
}

// ServerSection configures the HTTP API.
type ServerSection struct {
	Listen string `yaml:"listen,omitempty"`
}

// LoadConfigFile loads a YAML configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if f.Sites == nil {
		f.Sites = make(map[string]SiteConfig)
	}

	return &f, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for sitechat.yaml in the current directory
// 3. Look for sitechat.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		p := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	p := filepath.Join(XDGConfigDir(), DefaultConfigFile)
	if _, err := os.Stat(p); err == nil {
		return p
	}

	return ""
}

// Apply copies every value set in the file into cfg.
func (f *File) Apply(cfg *Config) {
	if len(f.Seeds) > 0 {
		cfg.Seeds = f.Seeds
	}

	setInt(&cfg.MaxPages, f.Crawl.MaxPages)
	setInt(&cfg.BatchSize, f.Crawl.BatchSize)
	setString(&cfg.UserAgent, f.Crawl.UserAgent)
	if f.Crawl.MaxDepth != nil {
		cfg.MaxDepth = *f.Crawl.MaxDepth
	}
	if f.Crawl.Timeout != 0 {
		cfg.Timeout = f.Crawl.Timeout
	}
	if f.Crawl.RateLimit != nil {
		cfg.RateLimit = *f.Crawl.RateLimit
	}
	if f.Crawl.MaxBodySize != 0 {
		cfg.MaxBodySize = f.Crawl.MaxBodySize
	}
	if len(f.Crawl.IgnorePatterns) > 0 {
		cfg.IgnorePatterns = f.Crawl.IgnorePatterns
	}
	if len(f.Crawl.FollowPatterns) > 0 {
		cfg.FollowPatterns = f.Crawl.FollowPatterns
	}

	setInt(&cfg.ChunkSize, f.Chunk.Size)
	setString(&cfg.DBPath, f.Database.Path)

	setString(&cfg.EmbeddingBaseURL, f.Embedding.BaseURL)
	setString(&cfg.EmbeddingModel, f.Embedding.Model)
	setInt(&cfg.EmbeddingBatchSize, f.Embedding.BatchSize)

	setString(&cfg.LLMBaseURL, f.LLM.BaseURL)
	setString(&cfg.LLMModel, f.LLM.Model)
	setInt(&cfg.MaxTokens, f.LLM.MaxTokens)
	if f.LLM.Temperature != nil {
		cfg.Temperature = *f.LLM.Temperature
	}

	setInt(&cfg.TopK, f.Retrieval.TopK)
	setInt(&cfg.MaxContextSize, f.Retrieval.MaxContextSize)
	if f.Retrieval.MinScore != nil {
		cfg.MinScore = *f.Retrieval.MinScore
	}

	if f.Session.TTL != 0 {
		cfg.SessionTTL = f.Session.TTL
	}
	setInt(&cfg.MaxSessions, f.Session.MaxSessions)
	setInt(&cfg.MaxTurns, f.Session.MaxTurns)

	setString(&cfg.ListenAddress, f.Server.Listen)

	for host, site := range f.Sites {
		cfg.Sites[host] = site
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
