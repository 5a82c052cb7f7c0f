package model

import (
	"testing"
)

func TestPageIsEmpty(t *testing.T) {
	t.Parallel()

	t.Run("page with content is not empty", func(t *testing.T) {
		t.Parallel()

		page := Page{URL: "https://x.test/", Content: "# Welcome"}
		if page.IsEmpty() {
			t.Error("expected page with content to be non-empty")
		}
	})

	t.Run("failed fetch produces empty page", func(t *testing.T) {
		t.Parallel()

		page := Page{URL: "https://x.test/missing"}
		if !page.IsEmpty() {
			t.Error("expected page without content to be empty")
		}
	})
}

func TestContentChunkID(t *testing.T) {
	t.Parallel()

	t.Run("same url and index produce the same id", func(t *testing.T) {
		t.Parallel()

		a := ContentChunk{Text: "first", SourceURL: "https://x.test/", ChunkIndex: 0}
		b := ContentChunk{Text: "changed text", SourceURL: "https://x.test/", ChunkIndex: 0}
		if a.ID() != b.ID() {
			t.Errorf("expected stable id, got %q and %q", a.ID(), b.ID())
		}
	})

	t.Run("different index produces a different id", func(t *testing.T) {
		t.Parallel()

		a := ContentChunk{SourceURL: "https://x.test/", ChunkIndex: 0}
		b := ContentChunk{SourceURL: "https://x.test/", ChunkIndex: 1}
		if a.ID() == b.ID() {
			t.Error("expected different ids for different chunk indexes")
		}
	})

	t.Run("different url produces a different id", func(t *testing.T) {
		t.Parallel()

		a := ContentChunk{SourceURL: "https://x.test/", ChunkIndex: 0}
		b := ContentChunk{SourceURL: "https://x.test/a", ChunkIndex: 0}
		if a.ID() == b.ID() {
			t.Error("expected different ids for different urls")
		}
	})
}

func TestUserMessages(t *testing.T) {
	t.Parallel()

	msgs := []Message{
		{Role: RoleSystem, Content: "context"},
		{Role: RoleUser, Content: "first question"},
		{Role: RoleAssistant, Content: "first answer"},
		{Role: RoleUser, Content: "second question"},
	}

	got := UserMessages(msgs)
	if len(got) != 2 {
		t.Fatalf("expected 2 user messages, got %d", len(got))
	}
	if got[0].Content != "first question" || got[1].Content != "second question" {
		t.Errorf("unexpected user messages: %+v", got)
	}
}
