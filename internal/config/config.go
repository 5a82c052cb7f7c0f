package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"slices"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/sitechat/internal/assistant"
	"github.com/nao1215/sitechat/internal/chunker"
	"github.com/nao1215/sitechat/internal/crawler"
	"github.com/nao1215/sitechat/internal/embedding"
	"github.com/nao1215/sitechat/internal/llm"
	"github.com/nao1215/sitechat/internal/session"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "sitechat"

	// DefaultMaxDepth is the maximum BFS distance from a seed URL.
	DefaultMaxDepth = 2

	// DefaultMaxPages caps the pages collected per seed.
	// The crawler package defaults to a single page; the CLI crawls a
	// small site section instead.
	DefaultMaxPages = 50

	// DefaultChunkSize is the number of code points per chunk.
	DefaultChunkSize = chunker.DefaultChunkSize

	// DefaultTimeout bounds each HTTP request made while crawling.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the number of crawl requests per second.
	// The crawl is sequential, so this is the only politeness control.
	DefaultRateLimit = 2.0

	// DefaultUserAgent identifies sitechat in HTTP requests.
	DefaultUserAgent = crawler.DefaultUserAgent

	// DefaultMaxBodySize limits the response body size read per page.
	DefaultMaxBodySize = crawler.DefaultMaxBodySize

	// DefaultBatchSize is the number of seeds ingested concurrently.
	DefaultBatchSize = 4

	// DefaultEmbeddingBaseURL is the OpenAI compatible embeddings endpoint.
	DefaultEmbeddingBaseURL = embedding.DefaultBaseURL

	// DefaultEmbeddingModel is the embedding model name.
	DefaultEmbeddingModel = embedding.DefaultModel

	// DefaultEmbeddingBatchSize is the number of chunks sent per embedding request.
	DefaultEmbeddingBatchSize = embedding.DefaultBatchSize

	// DefaultLLMBaseURL is the OpenRouter chat completions endpoint.
	DefaultLLMBaseURL = llm.DefaultBaseURL

	// DefaultLLMModel is the chat model name in OpenRouter notation.
	DefaultLLMModel = llm.DefaultModel

	// DefaultTemperature is the sampling temperature for answers.
	DefaultTemperature = 0.8

	// DefaultMaxTokens caps the length of a generated answer.
	DefaultMaxTokens = llm.DefaultMaxTokens

	// DefaultTopK is the number of chunks retrieved per question.
	DefaultTopK = assistant.DefaultTopK

	// DefaultMinScore drops retrieved chunks below this cosine similarity.
	DefaultMinScore = assistant.DefaultMinScore

	// DefaultMaxContextSize caps the retrieved context in code points.
	DefaultMaxContextSize = assistant.DefaultMaxContextSize

	// DefaultSessionTTL is the idle time after which a chat session expires.
	DefaultSessionTTL = session.DefaultTTL

	// DefaultMaxSessions is the number of chat sessions kept in memory.
	// The least recently used session is evicted beyond this.
	DefaultMaxSessions = session.DefaultMaxSessions

	// DefaultMaxTurns is the number of messages kept per chat session.
	DefaultMaxTurns = session.DefaultMaxTurns

	// DefaultListenAddress is the address the HTTP API listens on.
	DefaultListenAddress = "127.0.0.1:8080"

	// DefaultReportFormat is the ingest report format printed by the CLI.
	DefaultReportFormat = ReportFormatText
)

// Report formats accepted by ReportFormat.
const (
	ReportFormatText     = "text"
	ReportFormatMarkdown = "markdown"
	ReportFormatJSON     = "json"
)

// Config holds all configuration options for sitechat.
// It is populated from defaults, the config file, and CLI flags, and is
// passed to the commands explicitly rather than kept as global state.
type Config struct {
	// Seeds are the URLs ingestion starts from.
	Seeds []string

	// MaxDepth is the maximum BFS distance from a seed.
	// Depth 0 means only the seed page.
	MaxDepth int

	// MaxPages caps the pages collected per seed.
	MaxPages int

	// ChunkSize is the number of code points per chunk.
	ChunkSize int

	// Timeout bounds each HTTP request made while crawling.
	Timeout time.Duration

	// RateLimit is the number of crawl requests per second. 0 disables it.
	RateLimit float64

	// UserAgent is the User-Agent header sent while crawling.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes.
	MaxBodySize int64

	// IgnorePatterns are URL path globs that are never crawled.
	IgnorePatterns []string

	// FollowPatterns restrict crawling to matching URL paths when set.
	FollowPatterns []string

	// BatchSize is the number of seeds ingested concurrently.
	BatchSize int

	// DBPath is the SQLite database file holding pages, chunks, and vectors.
	DBPath string

	// EmbeddingBaseURL is the base URL of the OpenAI compatible embeddings API.
	EmbeddingBaseURL string

	// EmbeddingModel is the embedding model name.
	EmbeddingModel string

	// EmbeddingAPIKey authenticates embedding requests. Read from the environment.
	EmbeddingAPIKey string

	// EmbeddingBatchSize is the number of chunks per embedding request.
	EmbeddingBatchSize int

	// LLMBaseURL is the base URL of the OpenAI compatible chat API.
	LLMBaseURL string

	// LLMModel is the chat model name.
	LLMModel string

	// LLMAPIKey authenticates chat requests. Read from the environment.
	LLMAPIKey string

	// Temperature is the sampling temperature for answers.
	Temperature float32

	// MaxTokens caps the length of a generated answer.
	MaxTokens int

	// TopK is the number of chunks retrieved per question.
	TopK int

	// MinScore drops retrieved chunks below this cosine similarity.
	MinScore float64

	// MaxContextSize caps the retrieved context in code points.
	MaxContextSize int

	// SessionTTL is the idle time after which a chat session expires.
	SessionTTL time.Duration

	// MaxSessions is the number of chat sessions kept in memory.
	MaxSessions int

	// MaxTurns is the number of messages kept per chat session.
	MaxTurns int

	// ListenAddress is the address of the HTTP API.
	ListenAddress string

	// ReportFormat selects the ingest report format: text, markdown, or json.
	ReportFormat string

	// ReportFile is written instead of stdout when set.
	ReportFile string

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is an explicit config file path.
	// When empty, FindConfigFile searches the default locations.
	ConfigFilePath string

	// Sites holds per-host crawl overrides loaded from the config file.
	Sites map[string]SiteConfig
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		MaxDepth:           DefaultMaxDepth,
		MaxPages:           DefaultMaxPages,
		ChunkSize:          DefaultChunkSize,
		Timeout:            DefaultTimeout,
		RateLimit:          DefaultRateLimit,
		UserAgent:          DefaultUserAgent,
		MaxBodySize:        DefaultMaxBodySize,
		BatchSize:          DefaultBatchSize,
		DBPath:             filepath.Join(XDGDataDir(), AppName+".db"),
		EmbeddingBaseURL:   DefaultEmbeddingBaseURL,
		EmbeddingModel:     DefaultEmbeddingModel,
		EmbeddingBatchSize: DefaultEmbeddingBatchSize,
		LLMBaseURL:         DefaultLLMBaseURL,
		LLMModel:           DefaultLLMModel,
		Temperature:        DefaultTemperature,
		MaxTokens:          DefaultMaxTokens,
		TopK:               DefaultTopK,
		MinScore:           DefaultMinScore,
		MaxContextSize:     DefaultMaxContextSize,
		SessionTTL:         DefaultSessionTTL,
		MaxSessions:        DefaultMaxSessions,
		MaxTurns:           DefaultMaxTurns,
		ListenAddress:      DefaultListenAddress,
		ReportFormat:       DefaultReportFormat,
		Sites:              make(map[string]SiteConfig),
	}
}

// XDGDataDir returns the XDG data directory for sitechat.
// On Linux: ~/.local/share/sitechat
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for sitechat.
// On Linux: ~/.config/sitechat
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the settings shared by all commands.
// It returns the first problem found.
func (c *Config) Validate() error {
	if c.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}
	if c.MaxPages <= 0 {
		return ErrInvalidMaxPages
	}
	if c.ChunkSize <= 0 {
		return ErrInvalidChunkSize
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.RateLimit < 0 {
		return ErrInvalidRateLimit
	}
	if c.MaxBodySize <= 0 {
		return ErrInvalidMaxBodySize
	}
	if c.BatchSize <= 0 || c.EmbeddingBatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if err := validatePatterns(c.IgnorePatterns, c.FollowPatterns); err != nil {
		return err
	}
	for host, site := range c.Sites {
		if site.MaxDepth != nil && *site.MaxDepth < 0 {
			return fmt.Errorf("site %s: %w", host, ErrInvalidMaxDepth)
		}
		if site.MaxPages < 0 {
			return fmt.Errorf("site %s: %w", host, ErrInvalidMaxPages)
		}
		if err := validatePatterns(site.IgnorePatterns, site.FollowPatterns); err != nil {
			return fmt.Errorf("site %s: %w", host, err)
		}
	}
	if c.TopK <= 0 {
		return ErrInvalidTopK
	}
	if c.MinScore < -1 || c.MinScore > 1 {
		return ErrInvalidMinScore
	}
	if c.SessionTTL <= 0 {
		return ErrInvalidSessionTTL
	}
	if !slices.Contains([]string{ReportFormatText, ReportFormatMarkdown, ReportFormatJSON}, c.ReportFormat) {
		return ErrInvalidReportFormat
	}
	return nil
}

// ValidateSeeds checks that at least one seed is configured and that every
// seed is an absolute http(s) URL.
func (c *Config) ValidateSeeds() error {
	if len(c.Seeds) == 0 {
		return ErrNoSeeds
	}
	for _, seed := range c.Seeds {
		u, err := url.Parse(seed)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: %q", ErrInvalidSeed, seed)
		}
	}
	return nil
}

// CrawlFor returns the crawl settings for seed: the global values with the
// overrides configured for the seed's host applied on top.
func (c *Config) CrawlFor(seed string) CrawlSettings {
	settings := CrawlSettings{
		MaxDepth:       c.MaxDepth,
		MaxPages:       c.MaxPages,
		IgnorePatterns: c.IgnorePatterns,
		FollowPatterns: c.FollowPatterns,
	}

	u, err := url.Parse(seed)
	if err != nil {
		return settings
	}
	if site, ok := c.Sites[u.Host]; ok {
		site.applyTo(&settings)
	}
	return settings
}

func validatePatterns(ignore, follow []string) error {
	if bad, ok := crawler.ValidatePatterns(ignore); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidPattern, bad)
	}
	if bad, ok := crawler.ValidatePatterns(follow); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidPattern, bad)
	}
	return nil
}
