// Package server exposes the assistant over HTTP.
//
// Routes:
//
//	POST   /api/query          single question, JSON answer with sources
//	POST   /api/chat           chat turn, reply streamed as plain text
//	DELETE /api/sessions/{id}  forget a chat session
//	GET    /healthz            liveness
//	GET    /metrics            Prometheus metrics, when enabled
//
// Errors are JSON documents with status, message, and code fields.
package server
