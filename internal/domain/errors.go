package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing bookmark.
	ErrNotFound = errors.New("not found")
	// ErrEmptyInput signals empty or whitespace-only text handed to an embedder.
	ErrEmptyInput = errors.New("empty input")
	// ErrEmptyQuery signals an empty or whitespace-only search query.
	ErrEmptyQuery = errors.New("empty query")
	// ErrInvalidArgument signals an out-of-range search or index parameter.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidRecord signals a bookmark record that failed validation.
	ErrInvalidRecord = errors.New("invalid bookmark record")
	// ErrDimensionMismatch signals a vector whose length differs from the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrIndexHalted signals an index that refuses writes after a dimension mismatch.
	ErrIndexHalted = fmt.Errorf("index halted: %w", ErrDimensionMismatch)

	// ErrEmbedderUnavailable signals an embedding backend failure (transport, timeout, bad response).
	ErrEmbedderUnavailable = errors.New("embedder unavailable")
	// ErrSearchUnavailable signals a search that could not embed its query.
	ErrSearchUnavailable = errors.New("search unavailable")
	// ErrSummarizerUnavailable signals a summarization backend failure.
	ErrSummarizerUnavailable = errors.New("summarizer unavailable")
)

// DimensionMismatchError wraps ErrDimensionMismatch with the expected and actual lengths.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: index dimension is %d, got %d", ErrDimensionMismatch.Error(), e.Want, e.Got)
}

func (e *DimensionMismatchError) Unwrap() error { return ErrDimensionMismatch }

// NewDimensionMismatch creates a dimension mismatch error.
func NewDimensionMismatch(want, got int) error {
	return &DimensionMismatchError{Want: want, Got: got}
}
