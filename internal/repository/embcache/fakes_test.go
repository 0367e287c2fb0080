package embcache

import (
	"context"
	"sync"

	"github.com/kailas-cloud/markdex/internal/db"
	"github.com/kailas-cloud/markdex/internal/domain"
)

// textEmbedder maps each text to a one-element vector holding its length,
// so tests can tell which texts reached the provider.
type textEmbedder struct {
	mu       sync.Mutex
	seen     []string
	batches  int
	tokens   int // per text
	failWith error
}

func (e *textEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failWith != nil {
		return domain.EmbeddingResult{}, e.failWith
	}
	e.seen = append(e.seen, text)
	return domain.EmbeddingResult{
		Embedding:    []float32{float32(len(text))},
		PromptTokens: e.tokens,
		TotalTokens:  e.tokens,
	}, nil
}

// batchTextEmbedder adds native batching on top of textEmbedder.
type batchTextEmbedder struct {
	textEmbedder
	short bool // drop the last embedding to simulate a broken provider
}

func (e *batchTextEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	e.mu.Lock()
	e.batches++
	e.mu.Unlock()
	res, err := domain.BatchFallback(ctx, &e.textEmbedder, texts)
	if err == nil && e.short {
		res.Embeddings = res.Embeddings[:len(res.Embeddings)-1]
	}
	return res, err //nolint:wrapcheck // test fake
}

// mapStore is an in-memory KV store with switchable failures.
type mapStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	getErr  error
	setErr  error
	setKeys []string
}

func newMapStore() *mapStore {
	return &mapStore{data: make(map[string][]byte)}
}

func (s *mapStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	v, ok := s.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (s *mapStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.setKeys = append(s.setKeys, key)
	s.data[key] = value
	return nil
}
