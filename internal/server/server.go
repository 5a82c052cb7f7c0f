package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nao1215/sitechat/internal/assistant"
	"github.com/nao1215/sitechat/internal/model"
)

const (
	routeQuery   = "/api/query"
	routeChat    = "/api/chat"
	routeSession = "/api/sessions/{id}"
	routeHealth  = "/healthz"
	routeMetrics = "/metrics"

	// sessionHeader carries the chat session ID in both directions.
	sessionHeader = "X-Session-ID"

	// maxRequestBody caps JSON request bodies.
	maxRequestBody = 1 << 20

	shutdownTimeout = 10 * time.Second
)

// Answerer answers questions and chat messages.
// *assistant.Assistant satisfies it.
type Answerer interface {
	Query(ctx context.Context, question string) (*assistant.Answer, error)
	Chat(ctx context.Context, sessionID, message string, w io.Writer) (*assistant.ChatReply, error)
}

// Sessions resolves and removes chat sessions.
// *session.Store satisfies it.
type Sessions interface {
	Resume(id string) (string, []model.Message)
	Delete(id string) bool
}

// RequestObserver is told about every served request.
type RequestObserver interface {
	ObserveRequest(route string, code int, d time.Duration)
}

// Server serves the HTTP API.
type Server struct {
	answerer       Answerer
	sessions       Sessions
	observer       RequestObserver
	metricsHandler http.Handler
	logger         *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithRequestObserver reports every request to o.
func WithRequestObserver(o RequestObserver) Option {
	return func(s *Server) {
		s.observer = o
	}
}

// WithMetricsHandler serves h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metricsHandler = h
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates a Server.
func New(answerer Answerer, sessions Sessions, opts ...Option) *Server {
	s := &Server{
		answerer: answerer,
		sessions: sessions,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST "+routeQuery, s.instrument(routeQuery, s.handleQuery))
	mux.Handle("POST "+routeChat, s.instrument(routeChat, s.handleChat))
	mux.Handle("DELETE "+routeSession, s.instrument(routeSession, s.handleDeleteSession))
	mux.Handle("GET "+routeHealth, s.instrument(routeHealth, handleHealth))
	if s.metricsHandler != nil {
		mux.Handle("GET "+routeMetrics, s.metricsHandler)
	}
	return requestID(mux)
}

// ListenAndServe serves the API on addr until ctx is done, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) instrument(route string, h http.HandlerFunc) http.Handler {
	return instrument(route, s.logger, s.observer, h)
}

type queryRequest struct {
	Question string `json:"question"`
}

type chatRequest struct {
	SessionID string `json:"session_id"` //nolint:tagliatelle // snake case API
	Message   string `json:"message"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, r, s.logger, "question is required", http.StatusBadRequest, ErrCodeBadRequest)
		return
	}

	answer, err := s.answerer.Query(r.Context(), req.Question)
	if err != nil {
		s.answerError(w, r, err)
		return
	}

	writeJSON(w, s.logger, answer, http.StatusOK)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, r, s.logger, "message is required", http.StatusBadRequest, ErrCodeBadRequest)
		return
	}

	// The session is resolved up front so its ID can go out in the header
	// before the first streamed byte.
	sessionID, _ := s.sessions.Resume(req.SessionID)
	w.Header().Set(sessionHeader, sessionID)

	sw := newStreamWriter(w)
	if _, err := s.answerer.Chat(r.Context(), sessionID, req.Message, sw); err != nil {
		if sw.started() {
			// Headers are gone; the client sees a truncated reply.
			s.logger.Warn("chat stream interrupted",
				"request_id", requestIDFrom(r),
				"session_id", sessionID,
				"error", err,
			)
			return
		}
		s.answerError(w, r, err)
		return
	}

	// An empty reply still needs a 200 with the session header.
	sw.start()
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.Delete(r.PathValue("id")) {
		writeError(w, r, s.logger, "session not found", http.StatusNotFound, ErrCodeNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok\n") //nolint:errcheck // best effort
}

// decode reads a JSON body into v and writes a 400 when that fails.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(v); err != nil {
		writeError(w, r, s.logger, "invalid JSON body", http.StatusBadRequest, ErrCodeBadRequest)
		return false
	}
	return true
}

func (s *Server) answerError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, assistant.ErrEmptyQuestion):
		writeError(w, r, s.logger, err.Error(), http.StatusBadRequest, ErrCodeBadRequest)
	case errors.Is(err, context.Canceled):
		s.logger.Info("client went away", "request_id", requestIDFrom(r))
	default:
		s.logger.Error("failed to answer",
			"request_id", requestIDFrom(r),
			"error", err,
		)
		writeError(w, r, s.logger, "failed to generate an answer", http.StatusBadGateway, ErrCodeUpstream)
	}
}

// streamWriter writes a plain text reply and flushes after every write.
type streamWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	wrote   bool
}

func newStreamWriter(w http.ResponseWriter) *streamWriter {
	f, _ := w.(http.Flusher)
	return &streamWriter{w: w, flusher: f}
}

func (sw *streamWriter) start() {
	if sw.wrote {
		return
	}
	sw.wrote = true
	sw.w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	sw.w.Header().Set("Cache-Control", "no-cache")
	sw.w.WriteHeader(http.StatusOK)
}

func (sw *streamWriter) started() bool {
	return sw.wrote
}

func (sw *streamWriter) Write(p []byte) (int, error) {
	sw.start()
	n, err := sw.w.Write(p)
	if sw.flusher != nil {
		sw.flusher.Flush()
	}
	return n, err
}
