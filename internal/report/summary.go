package report

import (
	"time"
	"unicode/utf8"

	"github.com/nao1215/sitechat/internal/model"
)

// Status values of a Summary.
const (
	StatusComplete  = "complete"
	StatusCancelled = "cancelled"
	StatusError     = "error"
)

// PageSummary describes one crawled page.
type PageSummary struct {
	URL string `json:"url"`

	// Characters is the number of code points of extracted text.
	Characters int `json:"characters"`

	Failed bool `json:"failed"`
}

// Summary is the condensed view of an IngestReport every writer prints.
type Summary struct {
	RunID         string        `json:"run_id"` //nolint:tagliatelle // snake case output
	Seed          string        `json:"seed"`
	StartedAt     time.Time     `json:"started_at"` //nolint:tagliatelle // snake case output
	Duration      time.Duration `json:"duration_ns"`
	Status        string        `json:"status"`
	Error         string        `json:"error,omitempty"`
	PageCount     int           `json:"page_count"`     //nolint:tagliatelle // snake case output
	FailedCount   int           `json:"failed_count"`   //nolint:tagliatelle // snake case output
	ChunkCount    int           `json:"chunk_count"`    //nolint:tagliatelle // snake case output
	IndexedChunks int           `json:"indexed_chunks"` //nolint:tagliatelle // snake case output
	Pages         []PageSummary `json:"pages"`
}

// NewSummary condenses report.
func NewSummary(report *model.IngestReport) *Summary {
	s := &Summary{
		RunID:         report.RunID,
		Seed:          report.Seed,
		StartedAt:     report.StartedAt,
		Duration:      report.Duration(),
		Status:        StatusComplete,
		Error:         report.ErrorMessage,
		PageCount:     len(report.Pages),
		FailedCount:   report.FailedPageCount(),
		ChunkCount:    report.ChunkCount,
		IndexedChunks: report.IndexedChunks,
		Pages:         make([]PageSummary, len(report.Pages)),
	}

	switch {
	case report.Cancelled:
		s.Status = StatusCancelled
	case report.Failed():
		s.Status = StatusError
	}

	for i, p := range report.Pages {
		s.Pages[i] = PageSummary{
			URL:        p.URL,
			Characters: utf8.RuneCountInString(p.Content),
			Failed:     p.Failed,
		}
	}

	return s
}

// FailedPages returns the pages whose text could not be extracted.
func (s *Summary) FailedPages() []PageSummary {
	var failed []PageSummary
	for _, p := range s.Pages {
		if p.Failed {
			failed = append(failed, p)
		}
	}
	return failed
}
