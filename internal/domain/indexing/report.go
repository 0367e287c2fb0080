package indexing

import (
	"errors"
	"time"

	"github.com/kailas-cloud/markdex/internal/domain"
)

// FailureKind classifies why a bookmark was not indexed.
type FailureKind string

// Failure kinds reported per record.
const (
	KindInvalidRecord       FailureKind = "invalid_record"
	KindEmptyInput          FailureKind = "empty_input"
	KindEmbedderUnavailable FailureKind = "embedder_unavailable"
	KindDimensionMismatch   FailureKind = "dimension_mismatch"
	KindIndexHalted         FailureKind = "index_halted"
	KindInternal            FailureKind = "internal"
)

// KindOf maps an error to its failure kind. Order matters: ErrIndexHalted
// wraps ErrDimensionMismatch.
func KindOf(err error) FailureKind {
	switch {
	case errors.Is(err, domain.ErrInvalidRecord):
		return KindInvalidRecord
	case errors.Is(err, domain.ErrEmptyInput):
		return KindEmptyInput
	case errors.Is(err, domain.ErrIndexHalted):
		return KindIndexHalted
	case errors.Is(err, domain.ErrDimensionMismatch):
		return KindDimensionMismatch
	case errors.Is(err, domain.ErrEmbedderUnavailable):
		return KindEmbedderUnavailable
	default:
		return KindInternal
	}
}

// Failure is the outcome of one record that could not be indexed.
type Failure struct {
	url  string
	kind FailureKind
	err  error
}

// NewFailure creates a failure, classifying err.
func NewFailure(url string, err error) Failure {
	return Failure{url: url, kind: KindOf(err), err: err}
}

// URL returns the record URL (may be empty for invalid records).
func (f Failure) URL() string { return f.url }

// Kind returns the failure classification.
func (f Failure) Kind() FailureKind { return f.kind }

// Err returns the underlying error.
func (f Failure) Err() error { return f.err }

// Message returns the error text.
func (f Failure) Message() string {
	if f.err == nil {
		return ""
	}
	return f.err.Error()
}

// Report summarizes one indexing pass.
type Report struct {
	Attempted  int
	Succeeded  int
	Failed     int
	Removed    int
	Duplicates int
	Failures   []Failure
	Cancelled  bool
	Reconciled bool
	Duration   time.Duration
}

// AddFailure records a per-record failure.
func (r *Report) AddFailure(url string, err error) {
	r.Failed++
	r.Failures = append(r.Failures, NewFailure(url, err))
}

// AddSuccess records a committed upsert.
func (r *Report) AddSuccess() { r.Succeeded++ }

// HasFailures reports whether any record failed.
func (r *Report) HasFailures() bool { return r.Failed > 0 }
