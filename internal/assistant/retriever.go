package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/nao1215/sitechat/internal/embedding"
	"github.com/nao1215/sitechat/internal/model"
)

const (
	// DefaultTopK is the number of chunks retrieved per question.
	DefaultTopK = 3

	// DefaultMinScore is the lowest cosine similarity a chunk may have to be
	// used as context.
	DefaultMinScore = 0.7

	// DefaultMaxContextSize caps the context text, in characters.
	DefaultMaxContextSize = 3000
)

// Searcher finds the stored chunks closest to a query vector.
type Searcher interface {
	SimilarChunks(ctx context.Context, query []float32, topK int, minScore float64) ([]model.Match, error)
}

// Retrieved is the context found for a question.
type Retrieved struct {
	// Text is the chunk texts joined by newlines, truncated to the
	// maximum context size.
	Text string

	// Sources are the chunks the text was built from, best match first.
	Sources []model.Match
}

// Retriever builds context for questions.
type Retriever struct {
	embedder       embedding.Embedder
	searcher       Searcher
	topK           int
	minScore       float64
	maxContextSize int
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithTopK sets how many chunks are retrieved.
func WithTopK(k int) RetrieverOption {
	return func(r *Retriever) {
		r.topK = k
	}
}

// WithMinScore sets the similarity threshold.
func WithMinScore(score float64) RetrieverOption {
	return func(r *Retriever) {
		r.minScore = score
	}
}

// WithMaxContextSize sets the maximum context length in characters.
// 0 disables truncation.
func WithMaxContextSize(size int) RetrieverOption {
	return func(r *Retriever) {
		r.maxContextSize = size
	}
}

// NewRetriever creates a Retriever.
func NewRetriever(embedder embedding.Embedder, searcher Searcher, opts ...RetrieverOption) *Retriever {
	r := &Retriever{
		embedder:       embedder,
		searcher:       searcher,
		topK:           DefaultTopK,
		minScore:       DefaultMinScore,
		maxContextSize: DefaultMaxContextSize,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Retrieve returns the context for question. When no chunk is similar
// enough, Text is empty and Sources is nil.
func (r *Retriever) Retrieve(ctx context.Context, question string) (Retrieved, error) {
	vectors, err := r.embedder.Embed(ctx, []string{question})
	if err != nil {
		return Retrieved{}, fmt.Errorf("failed to embed question: %w", err)
	}
	if len(vectors) != 1 {
		return Retrieved{}, fmt.Errorf("%w: expected 1 vector, got %d", embedding.ErrCountMismatch, len(vectors))
	}

	matches, err := r.searcher.SimilarChunks(ctx, vectors[0], r.topK, r.minScore)
	if err != nil {
		return Retrieved{}, fmt.Errorf("failed to search chunks: %w", err)
	}

	texts := make([]string, len(matches))
	for i, m := range matches {
		texts[i] = m.Chunk.Text
	}

	return Retrieved{
		Text:    truncateRunes(strings.Join(texts, "\n"), r.maxContextSize),
		Sources: matches,
	}, nil
}

// truncateRunes returns the first n characters of s. n <= 0 means no limit.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
