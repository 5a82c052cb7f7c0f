package crawler

import (
	"net/url"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Filter decides which discovered links are enqueued.
// Patterns use doublestar glob syntax and are matched against the URL path
// ("/docs/**", "**/*.pdf"). A pattern without a slash is matched against the
// last path segment only, so "*.pdf" matches "/files/report.pdf".
type Filter struct {
	ignore []string
	follow []string
}

// NewFilter creates a filter. Ignore patterns win over follow patterns.
// An empty follow list allows every path that is not ignored.
func NewFilter(ignore, follow []string) *Filter {
	return &Filter{ignore: ignore, follow: follow}
}

// Allow reports whether link should be enqueued.
func (f *Filter) Allow(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}

	p := u.Path
	if p == "" {
		p = "/"
	}

	for _, pattern := range f.ignore {
		if matchPattern(pattern, p) {
			return false
		}
	}

	if len(f.follow) == 0 {
		return true
	}
	for _, pattern := range f.follow {
		if matchPattern(pattern, p) {
			return true
		}
	}
	return false
}

// ValidatePatterns returns the first pattern that is not a valid glob.
func ValidatePatterns(patterns []string) (string, bool) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return p, false
		}
	}
	return "", true
}

func matchPattern(pattern, p string) bool {
	if !strings.Contains(pattern, "/") {
		ok, err := doublestar.Match(pattern, path.Base(p))
		return err == nil && ok
	}
	ok, err := doublestar.Match(pattern, p)
	return err == nil && ok
}
