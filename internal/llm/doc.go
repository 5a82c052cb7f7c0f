// Package llm sends conversations to a chat completion model.
//
// Completer is the interface the assistant depends on. OpenAIClient
// implements it with github.com/sashabaranov/go-openai and works with any
// OpenAI-compatible endpoint; sitechat defaults to OpenRouter.
package llm
