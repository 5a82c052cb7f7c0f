// Package crawler discovers and fetches the pages of a site for ingestion.
//
// # Architecture
//
// The Crawler performs a breadth-first traversal from a seed URL. It owns a
// FIFO queue of model.QueueEntry values and a set of visited URLs, both local
// to a single Crawl call. Three collaborators are injected:
//
//   - Fetcher: downloads the HTML of a URL (HTTPFetcher)
//   - Converter: turns HTML into markdown text (MarkdownConverter)
//   - LinkExtractor: lists the absolute URLs of anchor tags (HTMLLinkExtractor)
//
// # Traversal rules
//
// A URL is marked visited when it is dequeued, not when it is discovered.
// Discovered links are always enqueued, so the same URL can sit in the queue
// several times; only the first dequeue fetches it. When two pages link to the
// same target at different depths, the entry dequeued first wins, which is not
// necessarily the shallower one.
//
// Entries deeper than the maximum depth are discarded on dequeue without being
// fetched or marked. The loop stops when the queue is empty or the page limit
// is reached. URLs are compared as exact strings; callers that need trailing
// slash or fragment folding must normalize the seed themselves.
//
// # Failures
//
// A page whose fetch or conversion fails is still recorded, with empty
// content, and contributes no links. One bad page never aborts the crawl.
// Links that cannot be resolved to an absolute http(s) URL are dropped.
//
// # Usage
//
//	c := crawler.New(crawler.NewHTTPFetcher(http.DefaultClient),
//		crawler.WithMaxDepth(2),
//		crawler.WithMaxPages(50),
//	)
//	pages, err := c.Crawl(ctx, "https://example.com/")
package crawler
