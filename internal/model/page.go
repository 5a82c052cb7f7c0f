package model

// Page represents one fetched document.
// A Page is created once per processed queue entry and is not modified
// after the crawler appends it to its result.
type Page struct {
	// URL is the fetch URL exactly as it was dequeued.
	// It is the unique key of the page within a single crawl.
	URL string `json:"url"`

	// Content is the plain or markdown text extracted from the page body.
	// It is empty when the fetch or the conversion failed, and may also be
	// empty for a page that loaded fine but carries no text.
	Content string `json:"content"`

	// Failed is set when the fetch or the conversion returned an error.
	Failed bool `json:"failed,omitempty"`
}

// IsEmpty reports whether the page has no extracted content.
func (p Page) IsEmpty() bool {
	return p.Content == ""
}

// QueueEntry is a unit of pending crawl work.
type QueueEntry struct {
	// URL is the absolute URL to fetch.
	URL string `json:"url"`

	// Depth is the BFS distance from the seed URL. The seed has depth 0.
	Depth int `json:"depth"`
}
