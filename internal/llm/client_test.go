package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/sitechat/internal/model"
	"github.com/nao1215/sitechat/internal/provider"
)

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Stream      bool    `json:"stream"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *OpenAIClient {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	base := []Option{
		WithBaseURL(server.URL + "/api/v1"),
		WithHTTPClient(server.Client()),
		WithRetryConfig(provider.RetryConfig{MaxAttempts: 2, BackoffBase: time.Millisecond, BackoffMultiplier: 1}),
	}
	return NewOpenAIClient("test-key", append(base, opts...)...)
}

func writeCompletion(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]string{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
		"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 2, "total_tokens": 12},
	})
}

func writeStream(w http.ResponseWriter, deltas ...string) {
	w.Header().Set("Content-Type", "text/event-stream")
	for _, d := range deltas {
		chunk, _ := json.Marshal(map[string]any{ //nolint:errcheck,errchkjson
			"id":      "chatcmpl-1",
			"object":  "chat.completion.chunk",
			"choices": []map[string]any{{"index": 0, "delta": map[string]string{"content": d}}},
		})
		fmt.Fprintf(w, "data: %s\n\n", chunk)
	}
	fmt.Fprint(w, "data: [DONE]\n\n")
}

var conversation = []model.Message{
	{Role: model.RoleSystem, Content: "You are a helpful assistant."},
	{Role: model.RoleUser, Content: "What are the opening hours?"},
}

func TestOpenAIClient_Complete(t *testing.T) {
	t.Parallel()

	t.Run("sends configured request and returns first choice", func(t *testing.T) {
		t.Parallel()

		var got chatRequest
		var gotPath string
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			_ = json.NewDecoder(r.Body).Decode(&got) //nolint:errcheck
			writeCompletion(w, "9 to 5.")
		}, WithModel("test/model"), WithTemperature(0.5), WithMaxTokens(42))

		reply, err := c.Complete(context.Background(), conversation)
		require.NoError(t, err)
		assert.Equal(t, "9 to 5.", reply)

		assert.Equal(t, "/api/v1/chat/completions", gotPath)
		assert.Equal(t, "test/model", got.Model)
		assert.InDelta(t, 0.5, got.Temperature, 1e-6)
		assert.Equal(t, 42, got.MaxTokens)
		assert.False(t, got.Stream)
		require.Len(t, got.Messages, 2)
		assert.Equal(t, "system", got.Messages[0].Role)
		assert.Equal(t, "What are the opening hours?", got.Messages[1].Content)
	})

	t.Run("uses defaults", func(t *testing.T) {
		t.Parallel()

		c := NewOpenAIClient("k")
		assert.Equal(t, DefaultModel, c.Model())
		assert.InDelta(t, DefaultTemperature, c.temperature, 1e-6)
		assert.Equal(t, DefaultMaxTokens, c.maxTokens)
	})

	t.Run("empty conversation is rejected", func(t *testing.T) {
		t.Parallel()

		c := NewOpenAIClient("k")
		_, err := c.Complete(context.Background(), nil)
		require.ErrorIs(t, err, ErrNoMessages)
	})

	t.Run("no choices is an error", func(t *testing.T) {
		t.Parallel()

		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`)) //nolint:errcheck
		})

		_, err := c.Complete(context.Background(), conversation)
		require.ErrorIs(t, err, ErrNoChoices)
	})

	t.Run("retries rate limiting", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) == 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`)) //nolint:errcheck
				return
			}
			writeCompletion(w, "ok")
		})

		reply, err := c.Complete(context.Background(), conversation)
		require.NoError(t, err)
		assert.Equal(t, "ok", reply)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("authentication error is returned", func(t *testing.T) {
		t.Parallel()

		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"no key","type":"auth"}}`)) //nolint:errcheck
		})

		_, err := c.Complete(context.Background(), conversation)
		var apiErr *openai.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusUnauthorized, apiErr.HTTPStatusCode)
	})
}

func TestOpenAIClient_Stream(t *testing.T) {
	t.Parallel()

	t.Run("writes deltas and returns full reply", func(t *testing.T) {
		t.Parallel()

		var got chatRequest
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&got) //nolint:errcheck
			writeStream(w, "We open ", "", "at 9.")
		})

		var buf bytes.Buffer
		reply, err := c.Stream(context.Background(), conversation, &buf)
		require.NoError(t, err)
		assert.Equal(t, "We open at 9.", reply)
		assert.Equal(t, "We open at 9.", buf.String())
		assert.True(t, got.Stream)
	})

	t.Run("open failure is returned before writing", func(t *testing.T) {
		t.Parallel()

		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"bad model","type":"invalid_request_error"}}`)) //nolint:errcheck
		})

		var buf bytes.Buffer
		_, err := c.Stream(context.Background(), conversation, &buf)
		require.Error(t, err)
		assert.Empty(t, buf.String())
	})

	t.Run("writer failure stops the stream", func(t *testing.T) {
		t.Parallel()

		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			writeStream(w, "one ", "two")
		})

		errWrite := errors.New("client went away")
		reply, err := c.Stream(context.Background(), conversation, failingWriter{err: errWrite})
		require.ErrorIs(t, err, errWrite)
		assert.True(t, strings.HasPrefix("one two", reply))
	})
}

type failingWriter struct {
	err error
}

func (f failingWriter) Write([]byte) (int, error) {
	return 0, f.err
}
