package database

import "errors"

var (
	// ErrDimensionMismatch is returned when a vector's length differs from
	// the vectors it is compared with, usually after the embedding model
	// was changed without re-ingesting.
	ErrDimensionMismatch = errors.New("vector dimensions do not match")

	// ErrCorruptVector is returned when a stored embedding cannot be decoded.
	ErrCorruptVector = errors.New("corrupt vector")

	// ErrEmptyVector is returned when an empty embedding is stored or queried.
	ErrEmptyVector = errors.New("empty vector")

	// ErrLengthMismatch is returned when chunks and vectors differ in number.
	ErrLengthMismatch = errors.New("chunk and vector counts differ")
)
