package config

import "maps"

// SiteConfig holds crawl overrides for a single host.
// Zero values mean "use the global setting".
type SiteConfig struct {
	// MaxDepth overrides the global crawl depth. A pointer so that 0 can
	// be configured explicitly.
	MaxDepth *int `yaml:"maxDepth,omitempty"`

	// MaxPages overrides the global page cap.
	MaxPages int `yaml:"maxPages,omitempty"`

	// Headers are extra HTTP headers sent to this host, for example a
	// cookie that unlocks member-only help pages.
	Headers map[string]string `yaml:"headers,omitempty"`

	// IgnorePatterns replace the global ignore patterns.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// FollowPatterns replace the global follow patterns.
	FollowPatterns []string `yaml:"followPatterns,omitempty"`
}

// CrawlSettings are the effective crawl limits for one seed.
type CrawlSettings struct {
	MaxDepth       int
	MaxPages       int
	Headers        map[string]string
	IgnorePatterns []string
	FollowPatterns []string
}

// applyTo overwrites the fields of settings that this site configures.
func (s SiteConfig) applyTo(settings *CrawlSettings) {
	if s.MaxDepth != nil {
		settings.MaxDepth = *s.MaxDepth
	}
	if s.MaxPages != 0 {
		settings.MaxPages = s.MaxPages
	}
	if len(s.Headers) > 0 {
		settings.Headers = maps.Clone(s.Headers)
	}
	if len(s.IgnorePatterns) > 0 {
		settings.IgnorePatterns = s.IgnorePatterns
	}
	if len(s.FollowPatterns) > 0 {
		settings.FollowPatterns = s.FollowPatterns
	}
}
