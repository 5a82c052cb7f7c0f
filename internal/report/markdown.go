package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/sitechat/internal/model"
)

// maxURLWidth is the widest URL printed in markdown tables.
const maxURLWidth = 80

// MarkdownWriter outputs reports as a markdown document.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in markdown format.
func (w *MarkdownWriter) Write(report *model.IngestReport) (int, error) {
	s := NewSummary(report)
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, s)
	w.writeSummary(md, s)
	w.writePages(md, s)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, s *Summary) {
	md.H1("Ingest Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Seed", "`" + s.Seed + "`"},
			{"Run", "`" + s.RunID + "`"},
			{"Started", s.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", s.Duration.Round(time.Millisecond).String()},
			{"Status", w.statusText(s)},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) statusText(s *Summary) string {
	switch s.Status {
	case StatusCancelled:
		return "⚠️ Cancelled (partial results)"
	case StatusError:
		return "❌ Error - " + s.Error
	default:
		return "✅ Complete"
	}
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, s *Summary) {
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Pages crawled", strconv.Itoa(s.PageCount)},
			{"Pages failed", strconv.Itoa(s.FailedCount)},
			{"Chunks", strconv.Itoa(s.ChunkCount)},
			{"Chunks indexed", strconv.Itoa(s.IndexedChunks)},
		},
	})
	md.PlainText("")

	if s.PageCount > 0 {
		w.writePieChart(md, s)
	}

	switch {
	case s.PageCount == 0:
		md.Warningf("No pages were collected. Check the seed URL and crawl limits.")
	case s.FailedCount == s.PageCount:
		md.Cautionf("All %d page(s) failed to load. Nothing new was indexed.", s.FailedCount)
	case s.FailedCount > 0:
		md.Warningf("%d of %d page(s) failed to load and kept their previous index entries.", s.FailedCount, s.PageCount)
	case s.IndexedChunks < s.ChunkCount:
		md.Importantf("Only %d of %d chunk(s) were indexed.", s.IndexedChunks, s.ChunkCount)
	default:
		md.Tip("Every page was read and indexed.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s *Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Crawled Pages"),
		piechart.WithShowData(true),
	)

	if ok := s.PageCount - s.FailedCount; ok > 0 {
		chart.LabelAndIntValue("Read", uint64(ok))
	}
	if s.FailedCount > 0 {
		chart.LabelAndIntValue("Failed", uint64(s.FailedCount))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writePages(md *markdown.Markdown, s *Summary) {
	md.H2("Pages")
	md.PlainText("")

	if len(s.Pages) == 0 {
		md.PlainText("No pages crawled.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(s.Pages))
	for i, p := range s.Pages {
		status := "ok"
		if p.Failed {
			status = "failed"
		}
		rows[i] = []string{
			truncateString(p.URL, maxURLWidth),
			strconv.Itoa(p.Characters),
			status,
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "Characters", "Status"},
		Rows:   rows,
	})
	md.PlainText("")

	if failed := s.FailedPages(); len(failed) > 0 {
		urls := make([]string, len(failed))
		for i, p := range failed {
			urls[i] = p.URL
		}
		md.H3("Failed Pages")
		md.PlainText("")
		md.BulletList(urls...)
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [sitechat](https://github.com/nao1215/sitechat)*")
}

// truncateString shortens s to maxLen code points with an ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
