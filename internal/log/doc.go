// Package log provides slog loggers that keep API credentials out of the
// log output.
//
// sitechat logs outbound calls to the embedding and chat providers, and the
// errors those SDKs return sometimes echo the request headers. SecureHandler
// wraps any slog.Handler and:
//   - replaces the value of credential attributes (api_key, authorization,
//     cookie, token, secret, password) with MaskValue
//   - scrubs provider keys (sk-..., sk-or-...) and bearer tokens embedded in
//     string and error values, keeping the surrounding text readable
//
// # Usage
//
//	logger := log.New(os.Stderr, log.Options{Verbose: verbose})
//	logger.Warn("embedding request failed", "error", err)
//	slog.SetDefault(logger)
package log
