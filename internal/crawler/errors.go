package crawler

import (
	"errors"
	"fmt"
)

// ErrUnsupportedContentType is returned by HTTPFetcher for responses that
// are neither HTML nor text.
var ErrUnsupportedContentType = errors.New("unsupported content type")

// StatusError is returned by HTTPFetcher when the server answers with a
// non-2xx status code.
type StatusError struct {
	URL        string
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URL)
}
