// Package chunker splits page content into fixed-size pieces for embedding.
//
// Chunking is pure fixed-width slicing: there is no awareness of sentences,
// words, or markdown structure, and chunks never overlap. Lengths are counted
// in Unicode code points so a chunk boundary never splits a UTF-8 sequence.
//
// For any text and positive size:
//
//	strings.Join(Chunk(text, size), "") == text
//	len(Chunk(text, size)) == ceil(utf8.RuneCountInString(text) / size)
//
// # Usage
//
//	records, err := chunker.ToChunkRecords(page, chunker.DefaultChunkSize)
package chunker
