package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Status    int    `json:"status"`
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"` //nolint:tagliatelle // snake case API
}

// ErrorCode is a machine readable error kind.
type ErrorCode string

const (
	ErrCodeBadRequest ErrorCode = "BAD_REQUEST"
	ErrCodeNotFound   ErrorCode = "NOT_FOUND"
	ErrCodeInternal   ErrorCode = "INTERNAL_ERROR"
	ErrCodeUpstream   ErrorCode = "UPSTREAM_ERROR"
)

// writeError writes a JSON error document. The message is sent to the
// client as is, so it must not carry internal details.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, message string, status int, code ErrorCode) {
	requestID := requestIDFrom(r)

	logger.Warn("API error response",
		"request_id", requestID,
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"code", string(code),
		"message", message,
	)

	writeJSON(w, logger, ErrorResponse{
		Status:    status,
		Message:   message,
		Code:      string(code),
		RequestID: requestID,
	}, status)
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}
