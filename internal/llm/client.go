package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/nao1215/sitechat/internal/model"
	"github.com/nao1215/sitechat/internal/provider"
)

const (
	// DefaultBaseURL is the OpenRouter API root.
	DefaultBaseURL = "https://openrouter.ai/api/v1"

	// DefaultModel is the chat model used when none is configured.
	DefaultModel = "openai/gpt-4o-mini"

	// DefaultTemperature is the sampling temperature.
	DefaultTemperature float32 = 0.8

	// DefaultMaxTokens caps the length of an answer.
	DefaultMaxTokens = 1000
)

// Completer produces the assistant's reply to a conversation.
type Completer interface {
	// Complete returns the whole reply at once.
	Complete(ctx context.Context, msgs []model.Message) (string, error)

	// Stream writes the reply to w as it is generated and returns the full
	// text once the model is done.
	Stream(ctx context.Context, msgs []model.Message, w io.Writer) (string, error)
}

// OpenAIClient is a Completer backed by an OpenAI-compatible API.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	retry       provider.RetryConfig
	logger      *slog.Logger

	providerCfg provider.Config
}

// Option configures an OpenAIClient.
type Option func(*OpenAIClient)

// WithBaseURL sets the API root.
func WithBaseURL(baseURL string) Option {
	return func(c *OpenAIClient) {
		c.providerCfg.BaseURL = baseURL
	}
}

// WithModel sets the chat model.
func WithModel(name string) Option {
	return func(c *OpenAIClient) {
		c.model = name
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(c *OpenAIClient) {
		c.temperature = t
	}
}

// WithMaxTokens caps the number of tokens in a reply.
func WithMaxTokens(n int) Option {
	return func(c *OpenAIClient) {
		c.maxTokens = n
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *OpenAIClient) {
		c.providerCfg.HTTPClient = client
	}
}

// WithAttribution sets the site URL and name reported to OpenRouter.
func WithAttribution(siteURL, siteName string) Option {
	return func(c *OpenAIClient) {
		c.providerCfg.SiteURL = siteURL
		c.providerCfg.SiteName = siteName
	}
}

// WithRetryConfig sets the retry policy for transient API errors.
func WithRetryConfig(cfg provider.RetryConfig) Option {
	return func(c *OpenAIClient) {
		c.retry = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *OpenAIClient) {
		c.logger = logger
	}
}

// NewOpenAIClient creates a client authenticated with apiKey.
func NewOpenAIClient(apiKey string, opts ...Option) *OpenAIClient {
	c := &OpenAIClient{
		model:       DefaultModel,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
		retry:       provider.DefaultRetryConfig(),
		logger:      slog.Default(),
		providerCfg: provider.Config{BaseURL: DefaultBaseURL},
	}

	for _, opt := range opts {
		opt(c)
	}

	c.providerCfg.APIKey = apiKey
	c.client = provider.NewClient(c.providerCfg)

	return c
}

// Model returns the configured chat model.
func (c *OpenAIClient) Model() string {
	return c.model
}

func (c *OpenAIClient) request(msgs []model.Message) (openai.ChatCompletionRequest, error) {
	if len(msgs) == 0 {
		return openai.ChatCompletionRequest{}, ErrNoMessages
	}

	converted := make([]openai.ChatCompletionMessage, len(msgs))
	for i, m := range msgs {
		converted[i] = openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		}
	}

	return openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    converted,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}, nil
}

// Complete sends msgs and returns the first choice of the reply.
func (c *OpenAIClient) Complete(ctx context.Context, msgs []model.Message) (string, error) {
	req, err := c.request(msgs)
	if err != nil {
		return "", err
	}

	var resp openai.ChatCompletionResponse
	err = provider.Retry(ctx, c.retry, c.logger, func(ctx context.Context) error {
		var err error
		resp, err = c.client.CreateChatCompletion(ctx, req)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	c.logger.Debug("chat completion done",
		"model", c.model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)

	return resp.Choices[0].Message.Content, nil
}

// Stream sends msgs and copies the reply to w as tokens arrive.
// Opening the stream is retried on transient errors. Once the first token
// has been written, a failure is returned with the partial text.
func (c *OpenAIClient) Stream(ctx context.Context, msgs []model.Message, w io.Writer) (string, error) {
	req, err := c.request(msgs)
	if err != nil {
		return "", err
	}
	req.Stream = true

	var stream *openai.ChatCompletionStream
	err = provider.Retry(ctx, c.retry, c.logger, func(ctx context.Context) error {
		var err error
		stream, err = c.client.CreateChatCompletionStream(ctx, req)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to open chat stream: %w", err)
	}
	defer stream.Close()

	var reply strings.Builder
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return reply.String(), fmt.Errorf("chat stream interrupted: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}

		delta := resp.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		reply.WriteString(delta)
		if _, err := io.WriteString(w, delta); err != nil {
			return reply.String(), fmt.Errorf("failed to write reply: %w", err)
		}
	}

	c.logger.Debug("chat stream done", "model", c.model, "chars", reply.Len())
	return reply.String(), nil
}
