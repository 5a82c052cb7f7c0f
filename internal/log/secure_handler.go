package log

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// MaskValue is the string used to replace sensitive values.
const MaskValue = "***REDACTED***"

// sensitiveKeys are attribute keys whose whole value is always masked.
var sensitiveKeys = map[string]bool{
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"api_key":             true,
	"apikey":              true,
	"api-key":             true,
	"openai_api_key":      true,
	"openrouter_api_key":  true,
	"password":            true,
	"secret":              true,
	"token":               true,
	"access_token":        true,
}

// sensitiveKeywords mask any key that contains them.
var sensitiveKeywords = []string{"password", "secret", "token", "api_key", "apikey"}

// embeddedSecrets match credentials inside longer strings. Each match is
// replaced by its prefix group followed by MaskValue.
var embeddedSecrets = []*regexp.Regexp{
	// OpenAI and OpenRouter keys: sk-..., sk-proj-..., sk-or-v1-...
	regexp.MustCompile(`(sk-)[A-Za-z0-9_-]{16,}`),

	// Authorization header values.
	regexp.MustCompile(`(?i)(bearer\s+)[A-Za-z0-9._~+/=-]+`),

	// Credentials in query strings.
	regexp.MustCompile(`(?i)([?&](?:api_key|apikey|key|token)=)[^&\s"]+`),
}

// Options configures a logger built by New.
type Options struct {
	// Verbose lowers the level from Level to Debug.
	Verbose bool

	// Level is the minimum level when Verbose is false. Zero means Info;
	// callers that want the quiet CLI default pass slog.LevelWarn.
	Level slog.Level

	// JSON selects the JSON handler instead of the text handler.
	JSON bool
}

// SecureHandler wraps an slog.Handler and redacts credentials from every
// attribute before passing the record on.
type SecureHandler struct {
	handler slog.Handler
}

// NewSecureHandler creates a SecureHandler wrapping handler.
// If handler is nil, slog.Default().Handler() is used.
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// Enabled delegates to the wrapped handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle redacts the record's message and attributes, then forwards it.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, scrub(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(redactAttr(a))
		return true
	})
	return h.handler.Handle(ctx, out)
}

// WithAttrs returns a handler whose preset attributes are redacted.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = redactAttr(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(redacted)}
}

// WithGroup returns a handler that nests subsequent attributes under name.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

func redactAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		redacted := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			redacted[i] = redactAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(redacted...)}
	}

	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, MaskValue)
	}

	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, scrub(a.Value.String()))
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			return slog.String(a.Key, scrub(err.Error()))
		}
	}
	return a
}

func isSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	if sensitiveKeys[k] {
		return true
	}
	for _, kw := range sensitiveKeywords {
		if strings.Contains(k, kw) {
			return true
		}
	}
	return false
}

// scrub replaces embedded credentials in s.
func scrub(s string) string {
	for _, re := range embeddedSecrets {
		s = re.ReplaceAllString(s, "${1}"+MaskValue)
	}
	return s
}

// New creates a logger that writes redacted records to w.
func New(w io.Writer, opts Options) *slog.Logger {
	level := opts.Level
	if opts.Verbose {
		level = slog.LevelDebug
	}

	handlerOpts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if opts.JSON {
		h = slog.NewJSONHandler(w, handlerOpts)
	} else {
		h = slog.NewTextHandler(w, handlerOpts)
	}

	return slog.New(NewSecureHandler(h))
}
