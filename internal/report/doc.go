// Package report formats ingest reports.
//
// Three formats are available:
//   - SimpleWriter: plain text for the terminal
//   - MarkdownWriter: a markdown document built with nao1215/markdown
//   - JSONWriter: structured output for other tools
//
// Every writer starts from the same Summary, so the formats agree on the
// counts they print. NewWriter picks a writer by format name.
package report
