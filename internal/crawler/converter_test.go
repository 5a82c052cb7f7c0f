package crawler

import (
	"strings"
	"testing"
)

func TestMarkdownConverter(t *testing.T) {
	t.Parallel()

	conv := NewMarkdownConverter()

	t.Run("converts headings and paragraphs", func(t *testing.T) {
		t.Parallel()

		got, err := conv.ToText(`<html><body><h1>Admissions</h1><p>Apply online.</p></body></html>`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(got, "# Admissions") {
			t.Errorf("expected heading, got %q", got)
		}
		if !strings.Contains(got, "Apply online.") {
			t.Errorf("expected paragraph, got %q", got)
		}
	})

	t.Run("anchors render as text without link syntax", func(t *testing.T) {
		t.Parallel()

		got, err := conv.ToText(`<p>Read <a href="https://x.test/fees">the fee schedule</a> first.</p>`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(got, "the fee schedule") {
			t.Errorf("expected anchor text to be kept, got %q", got)
		}
		if strings.Contains(got, "https://x.test/fees") || strings.Contains(got, "](") {
			t.Errorf("expected href to be stripped, got %q", got)
		}
	})

	t.Run("scripts and styles are removed", func(t *testing.T) {
		t.Parallel()

		got, err := conv.ToText(`<html><head><style>p{color:red}</style></head><body><script>alert(1)</script><p>Visible</p></body></html>`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(got, "alert") || strings.Contains(got, "color:red") {
			t.Errorf("expected script and style to be removed, got %q", got)
		}
		if !strings.Contains(got, "Visible") {
			t.Errorf("expected visible text, got %q", got)
		}
	})

	t.Run("empty document yields empty text", func(t *testing.T) {
		t.Parallel()

		got, err := conv.ToText(`<html><body></body></html>`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "" {
			t.Errorf("expected empty text, got %q", got)
		}
	})
}

func TestCleanMarkdown(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "collapses blank lines",
			in:   "a\n\n\n\n\nb",
			want: "a\n\nb",
		},
		{
			name: "normalizes line endings",
			in:   "a\r\nb",
			want: "a\nb",
		},
		{
			name: "trims surrounding whitespace",
			in:   "\n\n  text  \n",
			want: "text",
		},
		{
			name: "composes decomposed characters",
			in:   "cafe\u0301",
			want: "caf\u00e9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := cleanMarkdown(tt.in); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
