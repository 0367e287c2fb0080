package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/markdex/internal/config"
	"github.com/kailas-cloud/markdex/internal/db"
	dbRedis "github.com/kailas-cloud/markdex/internal/db/redis"
	dbSQLite "github.com/kailas-cloud/markdex/internal/db/sqlite"
	"github.com/kailas-cloud/markdex/internal/domain"
	"github.com/kailas-cloud/markdex/internal/metrics"
	"github.com/kailas-cloud/markdex/internal/repository/embcache"
	"github.com/kailas-cloud/markdex/internal/repository/snapshot"
	ollamaSum "github.com/kailas-cloud/markdex/internal/transport/ollama"
	openaiEmb "github.com/kailas-cloud/markdex/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/markdex/internal/usecase/embedding"
	"github.com/kailas-cloud/markdex/internal/usecase/summary"
	"github.com/kailas-cloud/markdex/internal/vecindex"
)

// persistence is a durable mirror of the index with its own lifecycle.
type persistence interface {
	Save(ctx context.Context, e *vecindex.Entry) error
	Delete(ctx context.Context, url string) error
	Load(ctx context.Context) ([]vecindex.Entry, error)
	Ping(ctx context.Context) error
	Close()
}

// openCache returns nil when caching is disabled.
func openCache(ctx context.Context, cfg *config.CacheConfig) (db.Store, error) {
	var (
		store db.Store
		err   error
	)
	switch cfg.Driver {
	case config.CacheRedis:
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
			TTL:      cfg.TTL(),
		})
	case config.CacheSQLite:
		store, err = dbSQLite.Open(cfg.Path, cfg.TTL())
	default:
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s cache: %w", cfg.Driver, err)
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("%s cache: %w", cfg.Driver, err)
	}
	return store, nil
}

// openPersistence returns nil for the in-memory driver.
func openPersistence(ctx context.Context, cfg *config.StorageConfig) (persistence, error) {
	switch cfg.Driver {
	case config.StorageSQLite:
		conn, err := dbSQLite.OpenDB(cfg.DSN)
		if err != nil {
			return nil, err
		}
		store, err := snapshot.NewSQLite(ctx, conn, cfg.Table)
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
		return store, nil
	case config.StoragePostgres:
		store, err := snapshot.NewPostgres(ctx, cfg.DSN, cfg.Table)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, nil
	}
}

// buildEmbedder assembles the decorator chain: provider -> cached -> instrumented -> instruction.
func buildEmbedder(
	cfg *config.EmbeddingConfig,
	instruction string,
	cacheCfg *config.CacheConfig,
	cache db.KVStore,
	logger *zap.Logger,
) domain.Embedder {
	var base domain.Embedder
	switch cfg.Provider {
	case config.EmbeddingOpenAI:
		base = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Provider:   cfg.Provider,
			RateLimit:  cfg.RateLimit,
			Logger:     logger,
		})
	default:
		base = embeddinguc.NewHashing(cfg.Dimensions)
	}

	embedder := base
	if cache != nil {
		embedder = embcache.New(base, cache, cacheModel(cfg), metrics.EmbeddingCacheTotal, logger).
			WithKeyPrefix(cacheCfg.KeyPrefix)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Provider, cfg.Model, cfg.BatchSize, logger)

	// Outermost, so cache keys include the instruction.
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}
	return embedder
}

// cacheModel keys cached vectors by provider, model and width.
func cacheModel(cfg *config.EmbeddingConfig) string {
	return fmt.Sprintf("%s/%s/%d", cfg.Provider, cfg.Model, cfg.Dimensions)
}

// buildSummarizer returns nil when summaries are disabled.
func buildSummarizer(cfg *config.SummaryConfig, logger *zap.Logger) (domain.Summarizer, error) {
	switch cfg.Provider {
	case config.SummaryNone:
		return nil, nil
	case config.SummaryOpenAI:
		return openaiEmb.NewSummarizer(&openaiEmb.SummarizerConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Logger:  logger,
		}), nil
	case config.SummaryOllama:
		s, err := ollamaSum.NewSummarizer(ollamaSum.Config{
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
			Logger:  logger,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return summary.NewExtractive(cfg.MinScore), nil
	}
}

// embeddingHealthChecker adapts domain.Embedder to health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if err := domain.CheckHealth(ctx, h.embedder); err != nil {
		return fmt.Errorf("embedding health check: %w", err)
	}
	return nil
}
