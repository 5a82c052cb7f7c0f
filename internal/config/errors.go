package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate and Config.ValidateSeeds so
// that callers can use errors.Is for programmatic handling.
var (
	// ErrNoSeeds is returned when ingestion is requested without a seed URL.
	ErrNoSeeds = errors.New("no seed specified: provide a URL or list seeds in the config file")

	// ErrInvalidSeed is returned when a seed is not an absolute http(s) URL.
	ErrInvalidSeed = errors.New("invalid seed: must be an absolute http or https URL")

	// ErrInvalidMaxDepth is returned when the crawl depth is negative.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be non-negative")

	// ErrInvalidMaxPages is returned when the page cap is not positive.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be positive")

	// ErrInvalidChunkSize is returned when the chunk size is not positive.
	ErrInvalidChunkSize = errors.New("invalid chunk size: must be positive")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidRateLimit is returned when the request rate is negative.
	// Use 0 to disable rate limiting.
	ErrInvalidRateLimit = errors.New("invalid rate limit: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is not positive.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be positive")

	// ErrInvalidBatchSize is returned when a batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidPattern is returned when an ignore or follow pattern is not
	// a valid glob.
	ErrInvalidPattern = errors.New("invalid url pattern")

	// ErrInvalidTopK is returned when the number of retrieved chunks is not positive.
	ErrInvalidTopK = errors.New("invalid top-k: must be positive")

	// ErrInvalidMinScore is returned when the similarity threshold is outside [-1, 1].
	ErrInvalidMinScore = errors.New("invalid min score: must be between -1 and 1")

	// ErrInvalidSessionTTL is returned when the session idle timeout is not positive.
	ErrInvalidSessionTTL = errors.New("invalid session ttl: must be positive")

	// ErrInvalidReportFormat is returned for an unknown report format.
	ErrInvalidReportFormat = errors.New("invalid report format: must be text, markdown, or json")

	// ErrMissingEmbeddingKey is returned when an operation needs the
	// embedding API and no key is configured.
	ErrMissingEmbeddingKey = errors.New("missing embedding API key: set OPENAI_API_KEY")

	// ErrMissingLLMKey is returned when an operation needs the language
	// model API and no key is configured.
	ErrMissingLLMKey = errors.New("missing language model API key: set OPENROUTER_API_KEY")
)
