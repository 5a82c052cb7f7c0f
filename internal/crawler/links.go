package crawler

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// HTMLLinkExtractor extracts anchor hrefs by walking the x/net/html parse tree.
type HTMLLinkExtractor struct{}

// NewHTMLLinkExtractor creates a link extractor.
func NewHTMLLinkExtractor() *HTMLLinkExtractor {
	return &HTMLLinkExtractor{}
}

// ExtractLinks returns the absolute http(s) URLs of all <a href> elements in
// document order. Duplicates are kept. Hrefs using the javascript, mailto,
// tel, or data schemes, bare "#" hrefs, and hrefs that fail to parse are
// skipped. A baseURL that is not absolute yields no links.
func (e *HTMLLinkExtractor) ExtractLinks(document, baseURL string) []string {
	base, err := url.Parse(baseURL)
	if err != nil || !base.IsAbs() {
		return nil
	}

	doc, err := html.Parse(strings.NewReader(document))
	if err != nil {
		return nil
	}

	links := make([]string, 0)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href, ok := getAttr(n, "href"); ok {
				if resolved := resolveURL(base, href); resolved != "" {
					links = append(links, resolved)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return links
}

// resolveURL resolves href against base and returns the absolute URL, or ""
// when href cannot be turned into an http(s) URL.
func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "javascript:") ||
		strings.HasPrefix(lower, "mailto:") ||
		strings.HasPrefix(lower, "tel:") ||
		strings.HasPrefix(lower, "data:") ||
		href == "#" {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(u)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	if resolved.Host == "" {
		return ""
	}
	return resolved.String()
}

// getAttr returns the value of the named attribute of n.
func getAttr(n *html.Node, key string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}
