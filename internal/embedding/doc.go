// Package embedding turns text into vectors.
//
// Embedder is the interface the rest of sitechat depends on. OpenAIEmbedder
// implements it against any OpenAI-compatible /embeddings endpoint, splitting
// large inputs into batches and retrying transient failures.
package embedding
