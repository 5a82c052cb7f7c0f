package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/sitechat/internal/provider"
)

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embeddingData struct {
	Object    string    `json:"object"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

// fakeAPI answers /embeddings with one vector per input: [len(input), index].
// Results are returned in reverse order to exercise reordering.
type fakeAPI struct {
	requests atomic.Int32
	respond  func(w http.ResponseWriter, req embeddingRequest) bool
}

func (f *fakeAPI) handler(t *testing.T) http.HandlerFunc {
	t.Helper()

	return func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		assert.Equal(t, "/v1/embeddings", r.URL.Path)

		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if f.respond != nil && f.respond(w, req) {
			return
		}

		data := make([]embeddingData, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, embeddingData{
				Object:    "embedding",
				Embedding: []float32{float32(len(req.Input[i])), float32(i)},
				Index:     i,
			})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"object": "list",
			"data":   data,
			"model":  req.Model,
			"usage":  map[string]int{"prompt_tokens": len(req.Input), "total_tokens": len(req.Input)},
		})
	}
}

func newTestEmbedder(t *testing.T, api *fakeAPI, opts ...Option) *OpenAIEmbedder {
	t.Helper()

	server := httptest.NewServer(api.handler(t))
	t.Cleanup(server.Close)

	base := []Option{
		WithBaseURL(server.URL + "/v1"),
		WithHTTPClient(server.Client()),
		WithRetryConfig(provider.RetryConfig{MaxAttempts: 3, BackoffBase: time.Millisecond, BackoffMultiplier: 1}),
	}
	return NewOpenAIEmbedder("test-key", append(base, opts...)...)
}

func TestOpenAIEmbedder_Embed(t *testing.T) {
	t.Parallel()

	t.Run("returns vectors in input order", func(t *testing.T) {
		t.Parallel()

		api := &fakeAPI{}
		e := newTestEmbedder(t, api, WithModel("test-embed"))

		vectors, err := e.Embed(context.Background(), []string{"a", "bb", "ccc"})
		require.NoError(t, err)
		require.Len(t, vectors, 3)
		assert.Equal(t, []float32{1, 0}, vectors[0])
		assert.Equal(t, []float32{2, 1}, vectors[1])
		assert.Equal(t, []float32{3, 2}, vectors[2])
		assert.Equal(t, "test-embed", e.Model())
	})

	t.Run("splits inputs into batches", func(t *testing.T) {
		t.Parallel()

		api := &fakeAPI{}
		e := newTestEmbedder(t, api, WithBatchSize(2))

		vectors, err := e.Embed(context.Background(), []string{"a", "bb", "ccc", "dddd", "eeeee"})
		require.NoError(t, err)
		require.Len(t, vectors, 5)
		assert.Equal(t, int32(3), api.requests.Load())
		for i, v := range vectors {
			assert.Equal(t, float32(i+1), v[0], "vector %d", i)
		}
	})

	t.Run("empty input makes no request", func(t *testing.T) {
		t.Parallel()

		api := &fakeAPI{}
		e := newTestEmbedder(t, api)

		vectors, err := e.Embed(context.Background(), nil)
		require.NoError(t, err)
		assert.Nil(t, vectors)
		assert.Equal(t, int32(0), api.requests.Load())
	})

	t.Run("count mismatch is an error", func(t *testing.T) {
		t.Parallel()

		api := &fakeAPI{respond: func(w http.ResponseWriter, _ embeddingRequest) bool {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"object":"list","data":[{"object":"embedding","embedding":[1],"index":0}]}`)) //nolint:errcheck
			return true
		}}
		e := newTestEmbedder(t, api)

		_, err := e.Embed(context.Background(), []string{"a", "b"})
		require.ErrorIs(t, err, ErrCountMismatch)
	})

	t.Run("out of range index is an error", func(t *testing.T) {
		t.Parallel()

		api := &fakeAPI{respond: func(w http.ResponseWriter, _ embeddingRequest) bool {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"object":"list","data":[{"object":"embedding","embedding":[1],"index":7}]}`)) //nolint:errcheck
			return true
		}}
		e := newTestEmbedder(t, api)

		_, err := e.Embed(context.Background(), []string{"a"})
		require.ErrorIs(t, err, ErrInvalidIndex)
	})

	t.Run("retries transient errors", func(t *testing.T) {
		t.Parallel()

		var failures atomic.Int32
		api := &fakeAPI{respond: func(w http.ResponseWriter, _ embeddingRequest) bool {
			if failures.Add(1) > 1 {
				return false
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`)) //nolint:errcheck
			return true
		}}
		e := newTestEmbedder(t, api)

		vectors, err := e.Embed(context.Background(), []string{"a"})
		require.NoError(t, err)
		assert.Len(t, vectors, 1)
		assert.Equal(t, int32(2), api.requests.Load())
	})

	t.Run("does not retry authentication errors", func(t *testing.T) {
		t.Parallel()

		api := &fakeAPI{respond: func(w http.ResponseWriter, _ embeddingRequest) bool {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`)) //nolint:errcheck
			return true
		}}
		e := newTestEmbedder(t, api)

		_, err := e.Embed(context.Background(), []string{"a"})
		require.Error(t, err)

		var apiErr *openai.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusUnauthorized, apiErr.HTTPStatusCode)
		assert.Equal(t, int32(1), api.requests.Load())
	})
}

func TestWithBatchSizeIgnoresNonPositive(t *testing.T) {
	t.Parallel()

	e := NewOpenAIEmbedder("k", WithBatchSize(0), WithBatchSize(-3))
	assert.Equal(t, DefaultBatchSize, e.batchSize)
}
