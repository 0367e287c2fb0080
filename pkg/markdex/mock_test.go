package markdex

import (
	"context"

	"github.com/kailas-cloud/markdex/internal/domain/bookmark"
	domindex "github.com/kailas-cloud/markdex/internal/domain/indexing"
	"github.com/kailas-cloud/markdex/internal/domain/search/request"
	"github.com/kailas-cloud/markdex/internal/domain/search/result"
	indexinguc "github.com/kailas-cloud/markdex/internal/usecase/indexing"
)

// --- indexingUseCase mock ---

type mockIndexingUC struct {
	indexFn  func(ctx context.Context, raws []bookmark.Raw) (domindex.Report, error)
	removeFn func(ctx context.Context, url string) error
	stats    indexinguc.Stats
}

func (m *mockIndexingUC) Index(ctx context.Context, raws []bookmark.Raw) (domindex.Report, error) {
	return m.indexFn(ctx, raws)
}

func (m *mockIndexingUC) Remove(ctx context.Context, url string) error {
	return m.removeFn(ctx, url)
}

func (m *mockIndexingUC) Stats() indexinguc.Stats { return m.stats }

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn func(ctx context.Context, req *request.Request) (result.Outcome, error)
}

func (m *mockSearchUC) Search(ctx context.Context, req *request.Request) (result.Outcome, error) {
	return m.searchFn(ctx, req)
}

// --- Embedder mocks ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

type mockBatchEmbedder struct {
	mockEmbedder
	batchFn func(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

func (m *mockBatchEmbedder) BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error) {
	return m.batchFn(ctx, texts)
}

// --- Summarizer mock ---

type mockSummarizer struct {
	fn func(ctx context.Context, query string, results []Result, maxResults int) (string, bool, error)
}

func (m *mockSummarizer) Summarize(
	ctx context.Context, query string, results []Result, maxResults int,
) (string, bool, error) {
	return m.fn(ctx, query, results, maxResults)
}
