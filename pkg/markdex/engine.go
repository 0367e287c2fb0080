package markdex

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/markdex/internal/domain"
	"github.com/kailas-cloud/markdex/internal/domain/bookmark"
	domindex "github.com/kailas-cloud/markdex/internal/domain/indexing"
	"github.com/kailas-cloud/markdex/internal/domain/search/request"
	"github.com/kailas-cloud/markdex/internal/domain/search/result"
	embeddinguc "github.com/kailas-cloud/markdex/internal/usecase/embedding"
	indexinguc "github.com/kailas-cloud/markdex/internal/usecase/indexing"
	searchuc "github.com/kailas-cloud/markdex/internal/usecase/search"
	"github.com/kailas-cloud/markdex/internal/usecase/summary"
	"github.com/kailas-cloud/markdex/internal/vecindex"
)

// Internal interfaces, replaced in tests.
type indexingUseCase interface {
	Index(ctx context.Context, raws []bookmark.Raw) (domindex.Report, error)
	Remove(ctx context.Context, url string) error
	Stats() indexinguc.Stats
}

type searchUseCase interface {
	Search(ctx context.Context, req *request.Request) (result.Outcome, error)
}

// Engine is an in-process semantic bookmark index. It is safe for
// concurrent use; Index calls are serialized, searches run in parallel.
type Engine struct {
	indexing indexingUseCase
	search   searchUseCase
	obs      *observer

	stop      context.CancelFunc
	closeOnce sync.Once
}

// New creates an empty Engine.
func New(opts ...Option) (*Engine, error) {
	cfg := &engineConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	var emb domain.Embedder = embeddinguc.NewHashing(cfg.dimensions)
	if cfg.embedder != nil {
		emb = adaptEmbedder(cfg.embedder)
	}

	var indexOpts []vecindex.Option
	if cfg.annMinEntries > 0 {
		indexOpts = append(indexOpts, vecindex.WithANN(cfg.annMinEntries))
	}
	index := vecindex.New(indexOpts...)

	logger := zap.NewNop()
	indexSvc := indexinguc.New(index, emb, nil, logger)
	if cfg.maxBatchSize > 0 {
		indexSvc = indexSvc.WithMaxBatchSize(cfg.maxBatchSize)
	}

	searchSvc := searchuc.New(index, emb, logger)
	switch {
	case cfg.summarizer != nil:
		searchSvc = searchSvc.WithSummarizer(&summarizerAdapter{inner: cfg.summarizer}, cfg.summaryTimeout, cfg.summaryMaxResult)
	case cfg.extractive:
		searchSvc = searchSvc.WithSummarizer(summary.NewExtractive(cfg.extractiveFloor), cfg.summaryTimeout, cfg.summaryMaxResult)
	}

	ctx, stop := context.WithCancel(context.Background())
	if cfg.annMinEntries > 0 {
		go vecindex.NewRebuilder(index, cfg.annInterval, logger).Run(ctx)
	}

	return &Engine{indexing: indexSvc, search: searchSvc, obs: obs, stop: stop}, nil
}

// Close stops background work. The Engine must not be used afterwards.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		if e.stop != nil {
			e.stop()
		}
	})
}

// Index makes the indexed set match bookmarks: every valid bookmark in the
// batch is embedded and upserted, replacing any earlier entry for its URL,
// and bookmarks missing from the batch are removed once at least one record
// of the batch was indexed. Per-record
// failures land in the report; the returned error is reserved for
// cancellation, oversize batches and a halted index. The report is valid
// even when err is non-nil.
func (e *Engine) Index(ctx context.Context, bookmarks []Bookmark) (report IndexReport, err error) {
	start := time.Now()
	defer func() {
		e.obs.observe("index", start, err,
			"attempted", report.Attempted, "succeeded", report.Succeeded, "failed", report.Failed)
		e.obs.setSize(e.indexing.Stats().Size)
	}()

	raws := make([]bookmark.Raw, len(bookmarks))
	for i, b := range bookmarks {
		raws[i] = bookmark.Raw{URL: b.URL, Title: b.Title, Description: b.Description}
	}

	r, err := e.indexing.Index(ctx, raws)
	report = toIndexReport(&r)
	if err != nil {
		return report, fmt.Errorf("index: %w", err)
	}
	return report, nil
}

// Search ranks indexed bookmarks against query.
func (e *Engine) Search(ctx context.Context, query string, opts ...SearchOption) (out SearchOutcome, err error) {
	start := time.Now()
	defer func() { e.obs.observe("search", start, err, "results", len(out.Results)) }()

	p := searchParams{topK: request.DefaultTopK, minScore: request.DefaultMinScore}
	for _, o := range opts {
		o(&p)
	}

	req, err := request.New(query, p.topK, p.minScore)
	if err != nil {
		return SearchOutcome{}, fmt.Errorf("search: %w", err)
	}

	o, err := e.search.Search(ctx, &req)
	if err != nil {
		return SearchOutcome{}, fmt.Errorf("search: %w", err)
	}
	return toSearchOutcome(&o), nil
}

// Remove deletes the bookmark stored under url.
func (e *Engine) Remove(ctx context.Context, url string) (err error) {
	start := time.Now()
	defer func() {
		e.obs.observe("remove", start, err)
		e.obs.setSize(e.indexing.Stats().Size)
	}()

	if err = e.indexing.Remove(ctx, url); err != nil {
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}

// Stats reports the index state.
func (e *Engine) Stats() Stats {
	st := e.indexing.Stats()
	return Stats{
		Size:       st.Size,
		Dimension:  st.Dimension,
		Halted:     st.Halted,
		ANNEnabled: st.ANNEnabled,
		ANNActive:  st.ANNActive,
	}
}

func toIndexReport(r *domindex.Report) IndexReport {
	out := IndexReport{
		Attempted:  r.Attempted,
		Succeeded:  r.Succeeded,
		Failed:     r.Failed,
		Removed:    r.Removed,
		Duplicates: r.Duplicates,
		Cancelled:  r.Cancelled,
		Duration:   r.Duration,
	}
	for _, f := range r.Failures {
		out.Failures = append(out.Failures, Failure{URL: f.URL(), Kind: string(f.Kind()), Message: f.Message()})
	}
	return out
}

func toSearchOutcome(o *result.Outcome) SearchOutcome {
	ranked := o.Results()
	out := SearchOutcome{Results: make([]Result, len(ranked))}
	for i := range ranked {
		out.Results[i] = toResult(&ranked[i])
	}
	out.Summary, out.HasSummary = o.Summary()
	out.NoResultsMessage, _ = o.NoResultsMessage()
	return out
}

func toResult(r *result.Ranked) Result {
	return Result{
		URL:         r.URL(),
		Title:       r.Title(),
		Description: r.Description(),
		Score:       r.Score(),
		Rank:        r.Rank(),
	}
}

// adaptEmbedder exposes BatchEmbed only when the caller's embedder has it.
func adaptEmbedder(e Embedder) domain.Embedder {
	base := &embedderAdapter{inner: e}
	if b, ok := e.(BatchEmbedder); ok {
		return &batchEmbedderAdapter{embedderAdapter: base, batch: b}
	}
	return base
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, classifyEmbedError(err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

type batchEmbedderAdapter struct {
	*embedderAdapter
	batch BatchEmbedder
}

func (a *batchEmbedderAdapter) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	r, err := a.batch.BatchEmbed(ctx, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, classifyEmbedError(err)
	}
	return domain.BatchEmbeddingResult{
		Embeddings:   r.Embeddings,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// classifyEmbedError maps caller errors onto domain sentinels. Anything that
// is not an input or context error counts as a backend failure.
func classifyEmbedError(err error) error {
	switch {
	case errors.Is(err, domain.ErrEmptyInput),
		errors.Is(err, domain.ErrEmbedderUnavailable),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("embed: %w", err)
	default:
		return fmt.Errorf("embed: %w: %w", domain.ErrEmbedderUnavailable, err)
	}
}

// summarizerAdapter wraps public Summarizer to satisfy domain.Summarizer.
type summarizerAdapter struct {
	inner Summarizer
}

func (a *summarizerAdapter) Summarize(
	ctx context.Context, query string, results []result.Ranked, maxResults int,
) (string, bool, error) {
	out := make([]Result, len(results))
	for i := range results {
		out[i] = toResult(&results[i])
	}
	return a.inner.Summarize(ctx, query, out, maxResults)
}
