// Package database provides SQLite-based storage for sitechat.
//
// IndexDB stores:
//   - Crawled pages, keyed by URL, with the text extracted from them
//   - Content chunks together with their embedding vectors
//   - A summary of every ingestion run
//
// SQLite is accessed through modernc.org/sqlite, so the binary stays
// CGO-free and the whole index is a single file.
//
// Similarity search is a brute-force cosine scan over the stored vectors.
// A site-sized index holds a few thousand chunks, which a linear scan
// handles well within a request.
package database
