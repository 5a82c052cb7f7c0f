// Package model defines the data structures shared by sitechat packages.
//
// This package contains the following main types:
//   - Page: a fetched document and its extracted text
//   - QueueEntry: pending crawl work (URL plus BFS depth)
//   - ContentChunk: a fixed-size slice of a page used for embedding
//   - Match: a chunk returned by similarity search together with its score
//   - Message: one turn of a conversation with the language model
//   - IngestReport: the outcome of one ingestion run
//
// The models live in their own package so that crawler, chunker, database,
// and report can share them without import cycles. All types are plain
// values that serialize to JSON for reports and API responses.
package model
