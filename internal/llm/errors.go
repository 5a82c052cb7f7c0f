package llm

import "errors"

var (
	// ErrNoChoices is returned when the model answers without any choice.
	ErrNoChoices = errors.New("model returned no choices")

	// ErrNoMessages is returned when a request has no messages to send.
	ErrNoMessages = errors.New("no messages to send")
)
