package indexing

import (
	"context"

	"github.com/kailas-cloud/markdex/internal/domain"
	"github.com/kailas-cloud/markdex/internal/domain/bookmark"
	"github.com/kailas-cloud/markdex/internal/vecindex"
)

// Index is the semantic index the pipeline writes to.
type Index interface {
	Upsert(rec bookmark.Record, vector []float32) (uint64, error)
	Remove(url string) (bool, error)
	Restore(entries []vecindex.Entry) error
	Get(url string) (*vecindex.Entry, bool)
	URLs() []string
	Size() int
	Stats() vecindex.Stats
}

// Embedder vectorizes text. domain.BatchEmbedder is used when implemented.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Persistence mirrors index writes to durable storage.
type Persistence interface {
	Save(ctx context.Context, e *vecindex.Entry) error
	Delete(ctx context.Context, url string) error
	Load(ctx context.Context) ([]vecindex.Entry, error)
}

// ProgressFunc observes processed records out of total.
type ProgressFunc func(processed, total int)
