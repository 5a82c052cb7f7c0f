// Package provider builds clients for OpenAI-compatible APIs.
//
// Both the embedding and the chat completion side of sitechat talk to an
// OpenAI-compatible endpoint (OpenAI itself or OpenRouter). This package
// holds the pieces they share:
//
//   - NewClient creates a go-openai client for a base URL and API key,
//     optionally attaching OpenRouter attribution headers.
//   - Retry runs a request with exponential backoff and jitter.
//   - IsTransient classifies errors returned by the API.
package provider
