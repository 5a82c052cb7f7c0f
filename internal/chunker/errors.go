package chunker

import "errors"

// ErrInvalidChunkSize is returned when the chunk size is zero or negative.
var ErrInvalidChunkSize = errors.New("chunk size must be positive")
