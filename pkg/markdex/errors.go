package markdex

import "github.com/kailas-cloud/markdex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound            = domain.ErrNotFound
	ErrEmptyQuery          = domain.ErrEmptyQuery
	ErrEmptyInput          = domain.ErrEmptyInput
	ErrInvalidArgument     = domain.ErrInvalidArgument
	ErrInvalidRecord       = domain.ErrInvalidRecord
	ErrDimensionMismatch   = domain.ErrDimensionMismatch
	ErrIndexHalted         = domain.ErrIndexHalted
	ErrEmbedderUnavailable = domain.ErrEmbedderUnavailable
	ErrSearchUnavailable   = domain.ErrSearchUnavailable
)
