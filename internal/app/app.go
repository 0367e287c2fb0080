// Package app assembles the markdex engine from configuration.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/markdex/internal/config"
	"github.com/kailas-cloud/markdex/internal/db"
	healthuc "github.com/kailas-cloud/markdex/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/markdex/internal/usecase/indexing"
	searchuc "github.com/kailas-cloud/markdex/internal/usecase/search"
	"github.com/kailas-cloud/markdex/internal/vecindex"
)

// App is a fully wired engine. Close releases storage and stops background work.
type App struct {
	Index    *vecindex.Index
	Indexing *indexinguc.Service
	Search   *searchuc.Service
	Health   *healthuc.Service

	cache   db.Store
	persist persistence
	cancel  context.CancelFunc
}

// New builds the engine described by cfg and restores persisted entries.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &App{}
	bg, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.cancel = cancel

	cache, err := openCache(ctx, &cfg.Cache)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.cache = cache

	var kv db.KVStore
	if cache != nil {
		kv = cache
	}
	docEmbedder := buildEmbedder(&cfg.Embedding, cfg.Embedding.DocumentInstruction, &cfg.Cache, kv, logger)
	queryEmbedder := buildEmbedder(&cfg.Embedding, cfg.Embedding.QueryInstruction, &cfg.Cache, kv, logger)
	logger.Info("Embedders created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	persist, err := openPersistence(ctx, &cfg.Storage)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Driver, err)
	}
	a.persist = persist

	var opts []vecindex.Option
	if cfg.Index.ANN.Enabled {
		opts = append(opts, vecindex.WithANN(cfg.Index.ANN.MinEntries))
	}
	a.Index = vecindex.New(opts...)

	var indexPersist indexinguc.Persistence
	if persist != nil {
		indexPersist = persist
	}
	a.Indexing = indexinguc.New(a.Index, docEmbedder, indexPersist, logger).
		WithMaxBatchSize(cfg.Index.MaxBatchSize).
		WithChunkSize(cfg.Embedding.BatchSize)

	restored, err := a.Indexing.Restore(ctx)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("restore index: %w", err)
	}
	if restored > 0 {
		logger.Info("Index restored", zap.Int("entries", restored))
	}

	if cfg.Index.ANN.Enabled {
		go vecindex.NewRebuilder(a.Index, cfg.Index.ANN.RebuildInterval(), logger).Run(bg)
	}

	summarizer, err := buildSummarizer(&cfg.Summary, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create summarizer: %w", err)
	}
	a.Search = searchuc.New(a.Index, queryEmbedder, logger)
	if summarizer != nil {
		a.Search.WithSummarizer(summarizer, cfg.Summary.Timeout(), cfg.Summary.MaxResults)
	}

	a.Health = healthuc.New(a.Index, newEmbeddingHealthChecker(docEmbedder))
	if cache != nil {
		a.Health.WithPinger("cache", cache)
	}
	if persist != nil {
		a.Health.WithPinger("storage", persist)
	}

	return a, nil
}

// Close stops the rebuilder and closes storage. Safe to call more than once.
func (a *App) Close() {
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.persist != nil {
		a.persist.Close()
		a.persist = nil
	}
	if a.cache != nil {
		a.cache.Close()
		a.cache = nil
	}
}
