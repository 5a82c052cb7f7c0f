package embedding

import "errors"

var (
	// ErrCountMismatch is returned when the API returns a different number of
	// vectors than inputs were sent.
	ErrCountMismatch = errors.New("embedding count does not match input count")

	// ErrInvalidIndex is returned when the API returns a vector for an index
	// outside the request.
	ErrInvalidIndex = errors.New("embedding index out of range")
)
