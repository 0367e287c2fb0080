package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/markdex/internal/domain"
)

// Search parameter limits and defaults.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength  = 4096
	DefaultTopK     = 10
	MaxTopK         = 100
	DefaultMinScore = 0.15
)

// Request is a validated search query.
type Request struct {
	query    string
	topK     int
	minScore float64
}

// New validates search parameters. topK above MaxTopK is clamped; a
// non-positive topK or a minScore outside [0,1] is the caller's error.
func New(query string, topK int, minScore float64) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, domain.ErrEmptyQuery
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars): %w", MaxQueryLength, domain.ErrInvalidArgument)
	}
	if topK <= 0 {
		return Request{}, fmt.Errorf("top_k must be positive, got %d: %w", topK, domain.ErrInvalidArgument)
	}
	topK = min(topK, MaxTopK)
	if minScore < 0 || minScore > 1 {
		return Request{}, fmt.Errorf("min_score must be between 0 and 1, got %g: %w", minScore, domain.ErrInvalidArgument)
	}

	return Request{query: query, topK: topK, minScore: minScore}, nil
}

// NewDefault validates a query with default topK and minScore.
func NewDefault(query string) (Request, error) {
	return New(query, DefaultTopK, DefaultMinScore)
}

// Query returns the trimmed search query text.
func (r *Request) Query() string { return r.query }

// TopK returns the maximum number of results.
func (r *Request) TopK() int { return r.topK }

// MinScore returns the relevance floor in [0,1].
func (r *Request) MinScore() float64 { return r.minScore }
