package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/sitechat/internal/model"
)

const ruleWidth = 70

// SimpleWriter outputs plain text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// verbose lists every page, not only the failed ones.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose lists every crawled page.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.IngestReport) (int, error) {
	s := NewSummary(report)
	var sb strings.Builder

	w.writeHeader(&sb, s)
	w.writeCounts(&sb, s)
	w.writePages(&sb, s)
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, s *Summary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("                          SITECHAT INGEST\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Seed:      %s\n", s.Seed)
	fmt.Fprintf(sb, "Run:       %s\n", s.RunID)
	fmt.Fprintf(sb, "Started:   %s\n", s.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Duration:  %s\n", s.Duration.Round(time.Millisecond))

	switch s.Status {
	case StatusCancelled:
		sb.WriteString("Status:    CANCELLED (partial results)\n")
	case StatusError:
		fmt.Fprintf(sb, "Status:    ERROR - %s\n", s.Error)
	default:
		sb.WriteString("Status:    Complete\n")
	}

	sb.WriteString("\n")
}

func (w *SimpleWriter) writeCounts(sb *strings.Builder, s *Summary) {
	writeSection(sb, "SUMMARY")

	fmt.Fprintf(sb, "  Pages crawled:   %d\n", s.PageCount)
	fmt.Fprintf(sb, "  Pages failed:    %d\n", s.FailedCount)
	fmt.Fprintf(sb, "  Chunks:          %d\n", s.ChunkCount)
	fmt.Fprintf(sb, "  Chunks indexed:  %d\n", s.IndexedChunks)
	sb.WriteString("\n")
}

func (w *SimpleWriter) writePages(sb *strings.Builder, s *Summary) {
	pages := s.FailedPages()
	title := "FAILED PAGES"
	if w.verbose {
		pages = s.Pages
		title = "PAGES"
	}
	if len(pages) == 0 {
		return
	}

	writeSection(sb, title)
	for _, p := range pages {
		if p.Failed {
			fmt.Fprintf(sb, "  [x] %s\n", p.URL)
			continue
		}
		fmt.Fprintf(sb, "  [+] %s (%d chars)\n", p.URL, p.Characters)
	}
	sb.WriteString("\n")
}

func writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n\n")
}
