package indexing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/markdex/internal/domain"
	"github.com/kailas-cloud/markdex/internal/domain/bookmark"
	domindex "github.com/kailas-cloud/markdex/internal/domain/indexing"
	logpkg "github.com/kailas-cloud/markdex/internal/logger"
	"github.com/kailas-cloud/markdex/internal/metrics"
)

// Batch sizing defaults.
const (
	DefaultChunkSize    = 64
	DefaultMaxBatchSize = 50000
)

// Service turns bookmark batches into index entries. Index calls are
// serialized; searches run concurrently against the index.
type Service struct {
	mu        sync.Mutex
	index     Index
	embed     Embedder
	persist   Persistence
	chunkSize int
	maxBatch  int
	logger    *zap.Logger
}

// New creates an indexing service. persist may be nil.
func New(index Index, embed Embedder, persist Persistence, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		index:     index,
		embed:     embed,
		persist:   persist,
		chunkSize: DefaultChunkSize,
		maxBatch:  DefaultMaxBatchSize,
		logger:    logger,
	}
}

// WithMaxBatchSize configures the largest accepted batch.
func (s *Service) WithMaxBatchSize(size int) *Service {
	if size > 0 {
		s.maxBatch = size
	}
	return s
}

// WithChunkSize configures how many records are embedded per call.
func (s *Service) WithChunkSize(size int) *Service {
	if size > 0 {
		s.chunkSize = size
	}
	return s
}

// Index embeds and upserts records, then removes indexed URLs the batch
// no longer mentions. The report is returned even when err is non-nil.
func (s *Service) Index(ctx context.Context, raws []bookmark.Raw) (domindex.Report, error) {
	return s.IndexWithProgress(ctx, raws, nil)
}

// IndexWithProgress is Index with a progress callback invoked after each chunk.
func (s *Service) IndexWithProgress(
	ctx context.Context, raws []bookmark.Raw, progress ProgressFunc,
) (domindex.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	var report domindex.Report

	if len(raws) > s.maxBatch {
		report.Attempted = len(raws)
		report.Duration = time.Since(start)
		return report, fmt.Errorf("batch of %d exceeds %d records: %w", len(raws), s.maxBatch, domain.ErrInvalidArgument)
	}

	items, present, dups := dedupe(raws)
	report.Attempted = len(items)
	report.Duplicates = dups

	run := &run{svc: s, report: &report}
	err := run.process(ctx, items, progress)

	switch {
	case err != nil:
	case report.Succeeded == 0:
		s.logger.Info("Skipping reconciliation: no record indexed", zap.Int("attempted", report.Attempted))
	default:
		run.reconcile(ctx, present)
	}

	metrics.IndexEntries.Set(float64(s.index.Size()))
	report.Duration = time.Since(start)

	logpkg.FromContextOr(ctx, s.logger).Info("Indexing finished",
		zap.Int("attempted", report.Attempted),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
		zap.Int("removed", report.Removed),
		zap.Int("duplicates", report.Duplicates),
		zap.Bool("cancelled", report.Cancelled),
		zap.Duration("duration", report.Duration),
	)
	return report, err
}

// Remove deletes one bookmark from the index and persistence.
func (s *Service) Remove(ctx context.Context, url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return fmt.Errorf("url is required: %w", domain.ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.index.Remove(url)
	if err != nil {
		return fmt.Errorf("remove %q: %w", url, err)
	}
	if !removed {
		return fmt.Errorf("bookmark %q: %w", url, domain.ErrNotFound)
	}
	metrics.IndexRemovedTotal.Inc()
	metrics.IndexEntries.Set(float64(s.index.Size()))
	s.deletePersisted(ctx, url)
	return nil
}

// Restore loads persisted entries into the index. Returns the entry count.
func (s *Service) Restore(ctx context.Context) (int, error) {
	if s.persist == nil {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.persist.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load snapshot: %w", err)
	}
	if err := s.index.Restore(entries); err != nil {
		return 0, fmt.Errorf("restore index: %w", err)
	}
	metrics.IndexEntries.Set(float64(s.index.Size()))
	return len(entries), nil
}

// Stats reports the index state.
func (s *Service) Stats() Stats {
	st := s.index.Stats()
	return Stats{
		Size:       st.Size,
		Dimension:  st.Dimension,
		Halted:     st.Halted,
		ANNEnabled: st.ANNEnabled,
		ANNActive:  st.ANNActive,
		Pending:    st.Pending,
		Persistent: s.persist != nil,
	}
}

// Stats is the index state as seen by callers.
type Stats struct {
	Size       int
	Dimension  int
	Halted     bool
	ANNEnabled bool
	ANNActive  bool
	Pending    int
	Persistent bool
}

func (s *Service) deletePersisted(ctx context.Context, url string) {
	if s.persist == nil {
		return
	}
	if err := s.persist.Delete(ctx, url); err != nil {
		metrics.IndexPersistErrorsTotal.Inc()
		s.logger.Warn("Failed to delete persisted entry", zap.String("url", url), zap.Error(err))
	}
}

// dedupe keeps the last occurrence of every URL, at the position of the
// first. Records without a URL are kept as-is so validation reports them.
func dedupe(raws []bookmark.Raw) (items []bookmark.Raw, present map[string]struct{}, dups int) {
	items = make([]bookmark.Raw, 0, len(raws))
	present = make(map[string]struct{}, len(raws))
	pos := make(map[string]int, len(raws))

	for _, r := range raws {
		key := r.Key()
		if key == "" {
			items = append(items, r)
			continue
		}
		if i, seen := pos[key]; seen {
			items[i] = r
			dups++
			continue
		}
		pos[key] = len(items)
		present[key] = struct{}{}
		items = append(items, r)
	}
	return items, present, dups
}

// run is the state of one Index call.
type run struct {
	svc    *Service
	report *domindex.Report
}

type pending struct {
	rec  bookmark.Record
	text string
}

func (r *run) process(ctx context.Context, items []bookmark.Raw, progress ProgressFunc) error {
	total := len(items)
	for offset := 0; offset < total; offset += r.svc.chunkSize {
		if err := ctx.Err(); err != nil {
			return r.cancel(err)
		}
		end := min(offset+r.svc.chunkSize, total)

		var batch []pending
		for _, raw := range items[offset:end] {
			rec, err := raw.Validate()
			if err != nil {
				r.fail(raw.Key(), err)
				continue
			}
			batch = append(batch, pending{rec: rec, text: rec.EmbeddingText()})
		}

		if err := r.embedAndUpsert(ctx, batch); err != nil {
			return err
		}
		if progress != nil {
			progress(end, total)
		}
	}
	return nil
}

func (r *run) embedAndUpsert(ctx context.Context, batch []pending) error {
	if len(batch) == 0 {
		return nil
	}

	vectors := r.batchEmbed(ctx, batch)

	for i, p := range batch {
		if err := ctx.Err(); err != nil {
			return r.cancel(err)
		}

		vec := vectors[i]
		if vec == nil {
			res, err := r.svc.embed.Embed(ctx, p.text)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return r.cancel(ctxErr)
				}
				r.fail(p.rec.URL(), err)
				continue
			}
			domain.UsageFromContext(ctx).Record(res.TotalTokens)
			vec = res.Embedding
		}

		if err := r.upsert(ctx, p.rec, vec); err != nil {
			return err
		}
	}
	return nil
}

// batchEmbed returns one vector per record, or nils when batching is
// unavailable or failed; callers then embed records one by one so a single
// bad text cannot sink its neighbours.
func (r *run) batchEmbed(ctx context.Context, batch []pending) [][]float32 {
	vectors := make([][]float32, len(batch))
	be, ok := r.svc.embed.(domain.BatchEmbedder)
	if !ok || len(batch) < 2 {
		return vectors
	}

	texts := make([]string, len(batch))
	for i, p := range batch {
		texts[i] = p.text
	}
	res, err := be.BatchEmbed(ctx, texts)
	if err != nil || len(res.Embeddings) != len(batch) {
		if err != nil && ctx.Err() == nil {
			r.svc.logger.Debug("Batch embedding failed, falling back to per-record",
				zap.Int("batch_size", len(batch)), zap.Error(err))
		}
		return vectors
	}
	domain.UsageFromContext(ctx).Record(res.TotalTokens)
	return res.Embeddings
}

// upsert writes one entry. A dimension mismatch or halted index aborts the
// batch; every other failure is recorded and processing continues.
func (r *run) upsert(ctx context.Context, rec bookmark.Record, vec []float32) error {
	if _, err := r.svc.index.Upsert(rec, vec); err != nil {
		r.fail(rec.URL(), err)
		if errors.Is(err, domain.ErrDimensionMismatch) {
			r.svc.logger.Error("Indexing aborted", zap.String("url", rec.URL()), zap.Error(err))
			return fmt.Errorf("index %q: %w", rec.URL(), err)
		}
		return nil
	}

	r.report.AddSuccess()
	metrics.IndexRecordsTotal.WithLabelValues("ok").Inc()

	if r.svc.persist == nil {
		return nil
	}
	entry, ok := r.svc.index.Get(rec.URL())
	if !ok {
		return nil
	}
	if err := r.svc.persist.Save(ctx, entry); err != nil {
		metrics.IndexPersistErrorsTotal.Inc()
		r.svc.logger.Warn("Failed to persist entry", zap.String("url", rec.URL()), zap.Error(err))
	}
	return nil
}

func (r *run) reconcile(ctx context.Context, present map[string]struct{}) {
	for _, url := range r.svc.index.URLs() {
		if _, ok := present[url]; ok {
			continue
		}
		removed, err := r.svc.index.Remove(url)
		if err != nil {
			r.svc.logger.Warn("Reconciliation stopped", zap.String("url", url), zap.Error(err))
			return
		}
		if !removed {
			continue
		}
		r.report.Removed++
		metrics.IndexRemovedTotal.Inc()
		r.svc.deletePersisted(ctx, url)
	}
	r.report.Reconciled = true
}

func (r *run) fail(url string, err error) {
	r.report.AddFailure(url, err)
	metrics.IndexRecordsTotal.WithLabelValues(string(domindex.KindOf(err))).Inc()
}

func (r *run) cancel(err error) error {
	r.report.Cancelled = true
	r.svc.logger.Info("Indexing cancelled",
		zap.Int("succeeded", r.report.Succeeded),
		zap.Int("attempted", r.report.Attempted),
	)
	return fmt.Errorf("indexing cancelled: %w", err)
}
