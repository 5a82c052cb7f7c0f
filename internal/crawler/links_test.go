package crawler

import "testing"

func TestHTMLLinkExtractor(t *testing.T) {
	t.Parallel()

	e := NewHTMLLinkExtractor()

	tests := []struct {
		name    string
		html    string
		baseURL string
		want    []string
	}{
		{
			name:    "absolute and relative links in document order",
			html:    `<a href="https://y.test/">y</a><a href="/about">about</a><a href="team">team</a>`,
			baseURL: "https://x.test/company/",
			want:    []string{"https://y.test/", "https://x.test/about", "https://x.test/company/team"},
		},
		{
			name:    "duplicates are kept",
			html:    `<a href="/a">1</a><a href="/a">2</a>`,
			baseURL: "https://x.test/",
			want:    []string{"https://x.test/a", "https://x.test/a"},
		},
		{
			name:    "fragments and queries are preserved",
			html:    `<a href="/a?x=1#top">a</a>`,
			baseURL: "https://x.test/",
			want:    []string{"https://x.test/a?x=1#top"},
		},
		{
			name:    "non-http schemes are skipped",
			html:    `<a href="mailto:a@x.test">m</a><a href="JavaScript:void(0)">j</a><a href="tel:123">t</a><a href="ftp://x.test/f">f</a><a href="data:text/plain,hi">d</a>`,
			baseURL: "https://x.test/",
			want:    []string{},
		},
		{
			name:    "anchors without href are skipped",
			html:    `<a name="top">top</a><a href="#">hash</a>`,
			baseURL: "https://x.test/",
			want:    []string{},
		},
		{
			name:    "malformed href is skipped",
			html:    `<a href="http://[::1">bad</a><a href="/ok">ok</a>`,
			baseURL: "https://x.test/",
			want:    []string{"https://x.test/ok"},
		},
		{
			name:    "whitespace around href is trimmed",
			html:    `<a href="  /spaced  ">s</a>`,
			baseURL: "https://x.test/",
			want:    []string{"https://x.test/spaced"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := e.ExtractLinks(tt.html, tt.baseURL)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("link %d: expected %q, got %q", i, tt.want[i], got[i])
				}
			}
		})
	}

	t.Run("relative base url yields no links", func(t *testing.T) {
		t.Parallel()

		if got := e.ExtractLinks(`<a href="/a">a</a>`, "/relative"); len(got) != 0 {
			t.Errorf("expected no links, got %v", got)
		}
	})
}
