package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/nao1215/sitechat/internal/provider"
)

const (
	// DefaultBaseURL is the OpenAI API root.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultModel is the embedding model used when none is configured.
	DefaultModel = "text-embedding-3-small"

	// DefaultBatchSize is the number of inputs sent per request.
	DefaultBatchSize = 64
)

// Embedder converts texts into vectors. The i-th vector belongs to the i-th
// text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint.
type OpenAIEmbedder struct {
	client    *openai.Client
	model     string
	batchSize int
	retry     provider.RetryConfig
	logger    *slog.Logger

	baseURL    string
	httpClient *http.Client
}

// Option configures an OpenAIEmbedder.
type Option func(*OpenAIEmbedder)

// WithBaseURL sets the API root.
func WithBaseURL(baseURL string) Option {
	return func(e *OpenAIEmbedder) {
		e.baseURL = baseURL
	}
}

// WithModel sets the embedding model.
func WithModel(model string) Option {
	return func(e *OpenAIEmbedder) {
		e.model = model
	}
}

// WithBatchSize sets how many texts are sent per request.
// Values below 1 are ignored.
func WithBatchSize(size int) Option {
	return func(e *OpenAIEmbedder) {
		if size > 0 {
			e.batchSize = size
		}
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(e *OpenAIEmbedder) {
		e.httpClient = client
	}
}

// WithRetryConfig sets the retry policy for transient API errors.
func WithRetryConfig(cfg provider.RetryConfig) Option {
	return func(e *OpenAIEmbedder) {
		e.retry = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *OpenAIEmbedder) {
		e.logger = logger
	}
}

// NewOpenAIEmbedder creates an embedder authenticated with apiKey.
func NewOpenAIEmbedder(apiKey string, opts ...Option) *OpenAIEmbedder {
	e := &OpenAIEmbedder{
		model:     DefaultModel,
		batchSize: DefaultBatchSize,
		retry:     provider.DefaultRetryConfig(),
		logger:    slog.Default(),
		baseURL:   DefaultBaseURL,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.client = provider.NewClient(provider.Config{
		BaseURL:    e.baseURL,
		APIKey:     apiKey,
		HTTPClient: e.httpClient,
	})

	return e
}

// Model returns the configured embedding model.
func (e *OpenAIEmbedder) Model() string {
	return e.model
}

// Embed returns one vector per text, in input order.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))

		batch, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to embed inputs %d-%d: %w", start, end-1, err)
		}
		vectors = append(vectors, batch...)
	}

	return vectors, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	req := openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(e.model),
	}

	var resp openai.EmbeddingResponse
	err := provider.Retry(ctx, e.retry, e.logger, func(ctx context.Context) error {
		var err error
		resp, err = e.client.CreateEmbeddings(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: sent %d, got %d", ErrCountMismatch, len(texts), len(resp.Data))
	}

	// Results carry their input index.
	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("%w: %d", ErrInvalidIndex, d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	for i, v := range vectors {
		if v == nil {
			return nil, fmt.Errorf("%w: no vector for input %d", ErrCountMismatch, i)
		}
	}

	e.logger.Debug("embedded batch",
		"model", e.model,
		"inputs", len(texts),
		"prompt_tokens", resp.Usage.PromptTokens)

	return vectors, nil
}
