package crawler

import (
	"fmt"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

// blankLines matches runs of three or more newlines.
var blankLines = regexp.MustCompile(`\n{3,}`)

// MarkdownConverter converts HTML to GitHub flavored markdown.
//
// Every href is removed from <a> elements before conversion, so anchors
// render as their text only and no link syntax leaks into the indexed text.
type MarkdownConverter struct {
	conv *md.Converter
}

// NewMarkdownConverter creates a converter with the GitHub flavored plugin
// enabled and non-content elements removed.
func NewMarkdownConverter() *MarkdownConverter {
	conv := md.NewConverter("", true, nil)
	conv.Use(plugin.GitHubFlavored())
	conv.Remove("script", "style", "noscript", "iframe", "svg", "template")
	return &MarkdownConverter{conv: conv}
}

// ToText strips anchor hrefs from html and converts the result to markdown.
// The output has surrounding whitespace trimmed, at most one blank line
// between blocks, and is in Unicode NFC form.
func (c *MarkdownConverter) ToText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse html: %w", err)
	}

	doc.Find("a").RemoveAttr("href")

	text := c.conv.Convert(doc.Selection)
	return cleanMarkdown(text), nil
}

// cleanMarkdown normalizes whitespace and Unicode composition.
func cleanMarkdown(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = blankLines.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(text)
	return norm.NFC.String(text)
}
