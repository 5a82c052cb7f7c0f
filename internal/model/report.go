package model

import (
	"time"

	"github.com/google/uuid"
)

// IngestReport is the result of one ingestion run for a single seed URL.
// Pipeline steps fill it in sequence: the crawl step sets Pages, the chunk
// step sets Chunks, and the embed step sets IndexedChunks.
type IngestReport struct {
	// RunID identifies the run in the database and in logs.
	RunID string `json:"run_id"`

	// Seed is the URL the crawl started from.
	Seed string `json:"seed"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the last step returned. Zero while running.
	FinishedAt time.Time `json:"finished_at,omitzero"`

	// Pages are the crawled pages in BFS order.
	Pages []Page `json:"pages"`

	// Chunks are the records cut from Pages, page by page.
	Chunks []ContentChunk `json:"-"`

	// ChunkCount mirrors len(Chunks) for serialized reports.
	ChunkCount int `json:"chunk_count"`

	// IndexedChunks is the number of chunks embedded and stored.
	IndexedChunks int `json:"indexed_chunks"`

	// PerformedSteps lists the pipeline steps that ran.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// Cancelled is true when the run stopped because its context ended.
	Cancelled bool `json:"cancelled"`

	// Error is the step error that stopped the run, if any.
	Error error `json:"-"`

	// ErrorMessage is the string form of Error for serialization.
	ErrorMessage string `json:"error,omitempty"` //nolint:tagliatelle // error is conventional
}

// NewIngestReport creates a report for a run starting at seed.
func NewIngestReport(seed string) *IngestReport {
	return &IngestReport{
		RunID:     uuid.NewString(),
		Seed:      seed,
		StartedAt: time.Now(),
		Pages:     make([]Page, 0),
	}
}

// SetChunks replaces the chunk list and keeps ChunkCount in sync.
func (r *IngestReport) SetChunks(chunks []ContentChunk) {
	r.Chunks = chunks
	r.ChunkCount = len(chunks)
}

// FailedPages returns the pages whose fetch or conversion failed.
func (r *IngestReport) FailedPages() []Page {
	var failed []Page
	for _, p := range r.Pages {
		if p.Failed {
			failed = append(failed, p)
		}
	}
	return failed
}

// FailedPageCount returns the number of failed pages.
func (r *IngestReport) FailedPageCount() int {
	return len(r.FailedPages())
}

// Duration returns how long the run took.
// For a run that has not finished it returns the time elapsed so far.
func (r *IngestReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Failed reports whether a pipeline step stopped the run.
func (r *IngestReport) Failed() bool {
	return r.Error != nil
}
