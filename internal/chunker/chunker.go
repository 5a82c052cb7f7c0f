package chunker

import (
	"fmt"
	"unicode/utf8"

	"github.com/nao1215/sitechat/internal/model"
)

// DefaultChunkSize is the number of code points per chunk.
// Roughly 500 tokens of English text, which fits every common embedding model.
const DefaultChunkSize = 2000

// Chunk partitions text into contiguous substrings of exactly size code
// points. The last substring holds the remainder. Empty text yields no
// chunks. Invalid UTF-8 bytes count as one code point each and are kept as is.
func Chunk(text string, size int) ([]string, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChunkSize, size)
	}
	if text == "" {
		return nil, nil
	}

	chunks := make([]string, 0, chunkCount(utf8.RuneCountInString(text), size))

	start, n := 0, 0
	for i := range text {
		if n == size {
			chunks = append(chunks, text[start:i])
			start, n = i, 0
		}
		n++
	}
	chunks = append(chunks, text[start:])

	return chunks, nil
}

// chunkCount returns ceil(total/size) without overflowing for large sizes.
func chunkCount(total, size int) int {
	n := total / size
	if total%size != 0 {
		n++
	}
	return n
}

// ToChunkRecords chunks the page content and attaches the page URL and a
// sequential index starting at 0 to every chunk.
func ToChunkRecords(page model.Page, size int) ([]model.ContentChunk, error) {
	texts, err := Chunk(page.Content, size)
	if err != nil {
		return nil, err
	}

	records := make([]model.ContentChunk, len(texts))
	for i, text := range texts {
		records[i] = model.ContentChunk{
			Text:       text,
			SourceURL:  page.URL,
			ChunkIndex: i,
		}
	}
	return records, nil
}

// ChunkPages returns the chunk records of all pages, page by page in input
// order. Pages with empty content contribute no records.
func ChunkPages(pages []model.Page, size int) ([]model.ContentChunk, error) {
	var all []model.ContentChunk
	for _, page := range pages {
		records, err := ToChunkRecords(page, size)
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
	}
	return all, nil
}
