package assistant

import "errors"

// ErrEmptyQuestion is returned when the question or chat message is blank.
var ErrEmptyQuestion = errors.New("question is empty")
