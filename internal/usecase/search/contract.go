package search

import (
	"context"

	"github.com/kailas-cloud/markdex/internal/domain"
	"github.com/kailas-cloud/markdex/internal/vecindex"
)

// Index is the read path of the semantic index.
type Index interface {
	Query(vector []float32, k int, minScore float64) ([]vecindex.Match, error)
}

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
