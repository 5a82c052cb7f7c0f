package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nao1215/sitechat/internal/model"
)

func TestSourceURLs(t *testing.T) {
	t.Parallel()

	matches := []model.Match{
		{Chunk: model.ContentChunk{SourceURL: "https://a.example.com/", ChunkIndex: 0}, Score: 0.9},
		{Chunk: model.ContentChunk{SourceURL: "https://b.example.com/", ChunkIndex: 2}, Score: 0.8},
		{Chunk: model.ContentChunk{SourceURL: "https://a.example.com/", ChunkIndex: 1}, Score: 0.75},
	}

	got := sourceURLs(matches)
	want := []string{"https://a.example.com/", "https://b.example.com/"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestPrintSources(t *testing.T) {
	t.Parallel()

	t.Run("nothing for no matches", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		printSources(&buf, nil)
		if buf.Len() != 0 {
			t.Errorf("expected no output, got %q", buf.String())
		}
	})

	t.Run("lists each page once", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		printSources(&buf, []model.Match{
			{Chunk: model.ContentChunk{SourceURL: "https://a.example.com/"}},
			{Chunk: model.ContentChunk{SourceURL: "https://a.example.com/"}},
		})
		if strings.Count(buf.String(), "https://a.example.com/") != 1 {
			t.Errorf("expected one source line, got %q", buf.String())
		}
		if !strings.Contains(buf.String(), "Sources:") {
			t.Errorf("expected heading, got %q", buf.String())
		}
	})
}
