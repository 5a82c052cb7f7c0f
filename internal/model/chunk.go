package model

import (
	"strconv"

	"github.com/google/uuid"
)

// chunkNamespace scopes the name-based UUIDs generated for chunks.
var chunkNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/nao1215/sitechat/chunk"))

// ContentChunk is a unit of indexable text cut from a page.
//
// Concatenating all chunks of a page in ChunkIndex order reproduces the
// page content exactly.
type ContentChunk struct {
	// Text is a contiguous substring of the page content.
	Text string `json:"text"`

	// SourceURL is the URL of the page the chunk was cut from.
	SourceURL string `json:"source_url"`

	// ChunkIndex is the zero-based position of the chunk within its page.
	ChunkIndex int `json:"chunk_index"`
}

// ID returns a stable identifier for the chunk.
// The same URL and index always produce the same ID, so re-ingesting a
// page overwrites its previous vectors instead of duplicating them.
func (c ContentChunk) ID() string {
	return uuid.NewSHA1(chunkNamespace, []byte(c.SourceURL+"#"+strconv.Itoa(c.ChunkIndex))).String()
}

// Match is a chunk returned by a similarity search.
type Match struct {
	Chunk ContentChunk `json:"chunk"`

	// Score is the cosine similarity between the query and the chunk vector.
	Score float64 `json:"score"`
}
