package provider

import (
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Config describes one OpenAI-compatible endpoint.
type Config struct {
	// BaseURL is the API root, for example https://openrouter.ai/api/v1.
	BaseURL string

	// APIKey is sent as a bearer token.
	APIKey string

	// HTTPClient is used for requests. nil means http.DefaultClient.
	HTTPClient *http.Client

	// SiteURL and SiteName are sent as HTTP-Referer and X-Title, which
	// OpenRouter uses for attribution. Empty values are not sent.
	SiteURL  string
	SiteName string
}

// NewClient creates a go-openai client for cfg.
func NewClient(cfg Config) *openai.Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	headers := map[string]string{}
	if cfg.SiteURL != "" {
		headers["HTTP-Referer"] = cfg.SiteURL
	}
	if cfg.SiteName != "" {
		headers["X-Title"] = cfg.SiteName
	}
	if len(headers) > 0 {
		wrapped := *httpClient
		wrapped.Transport = &headerTransport{base: httpClient.Transport, headers: headers}
		httpClient = &wrapped
	}

	clientCfg.HTTPClient = httpClient
	return openai.NewClientWithConfig(clientCfg)
}

// headerTransport adds fixed headers to every request.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return base.RoundTrip(req)
}
