package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/markdex/internal/domain"
	"github.com/kailas-cloud/markdex/internal/domain/search/request"
	"github.com/kailas-cloud/markdex/internal/domain/search/result"
	logpkg "github.com/kailas-cloud/markdex/internal/logger"
	"github.com/kailas-cloud/markdex/internal/metrics"
)

// DefaultSummaryTimeout bounds a single summarizer call.
const DefaultSummaryTimeout = 10 * time.Second

// Service resolves free-form queries against the semantic index.
type Service struct {
	index          Index
	embed          Embedder
	summarizer     domain.Summarizer
	summaryTimeout time.Duration
	summaryResults int
	logger         *zap.Logger
}

// New creates a search service without a summarizer.
func New(index Index, embed Embedder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		index:          index,
		embed:          embed,
		summaryTimeout: DefaultSummaryTimeout,
		summaryResults: domain.DefaultSummaryResults,
		logger:         logger,
	}
}

// WithSummarizer enables summaries. Non-positive timeout or maxResults keep the defaults.
func (s *Service) WithSummarizer(sum domain.Summarizer, timeout time.Duration, maxResults int) *Service {
	s.summarizer = sum
	if timeout > 0 {
		s.summaryTimeout = timeout
	}
	if maxResults > 0 {
		s.summaryResults = maxResults
	}
	return s
}

// Search embeds the query, ranks matching bookmarks and, when a summarizer is
// configured, attaches a best-effort summary.
func (s *Service) Search(ctx context.Context, req *request.Request) (result.Outcome, error) {
	start := time.Now()
	out, err := s.search(ctx, req)

	status := "ok"
	switch {
	case err == nil && len(out.Results()) == 0:
		status = "empty"
	case errors.Is(err, domain.ErrSearchUnavailable):
		status = "unavailable"
	case err != nil:
		status = "error"
	}
	metrics.SearchDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	return out, err
}

func (s *Service) search(ctx context.Context, req *request.Request) (result.Outcome, error) {
	if req == nil || req.Query() == "" {
		return result.Outcome{}, domain.ErrEmptyQuery
	}
	// zero-value requests bypass request.New
	if req.TopK() <= 0 {
		return result.Outcome{}, fmt.Errorf("top_k must be positive: %w", domain.ErrInvalidArgument)
	}

	emb, err := s.embed.Embed(ctx, req.Query())
	if err != nil {
		return result.Outcome{}, fmt.Errorf("%w: embed query: %w", domain.ErrSearchUnavailable, err)
	}
	domain.UsageFromContext(ctx).Record(emb.TotalTokens)

	matches, err := s.index.Query(emb.Embedding, req.TopK(), req.MinScore())
	if err != nil {
		return result.Outcome{}, fmt.Errorf("query index: %w", err)
	}

	ranked := make([]result.Ranked, len(matches))
	for i, m := range matches {
		rec := m.Entry.Record
		ranked[i] = result.New(rec.URL(), rec.Title(), rec.Description(), m.Score, i+1)
	}
	metrics.SearchResults.Observe(float64(len(ranked)))

	if len(ranked) == 0 {
		return result.NewOutcome(ranked, "", false), nil
	}

	summary, ok := s.summarize(ctx, req.Query(), ranked)
	return result.NewOutcome(ranked, summary, ok), nil
}

// summarize never fails the search: errors and timeouts drop the summary.
func (s *Service) summarize(ctx context.Context, query string, ranked []result.Ranked) (string, bool) {
	if s.summarizer == nil {
		return "", false
	}

	sctx, cancel := context.WithTimeout(ctx, s.summaryTimeout)
	defer cancel()

	type reply struct {
		summary string
		ok      bool
		err     error
	}
	done := make(chan reply, 1)
	go func() {
		summary, ok, err := s.summarizer.Summarize(sctx, query, ranked, s.summaryResults)
		done <- reply{summary, ok, err}
	}()

	var r reply
	select {
	case r = <-done:
	case <-sctx.Done():
		r.err = fmt.Errorf("%w: %w", domain.ErrSummarizerUnavailable, sctx.Err())
	}

	summary, ok, err := r.summary, r.ok, r.err
	switch {
	case err != nil:
		metrics.SummaryTotal.WithLabelValues("error").Inc()
		logpkg.FromContextOr(ctx, s.logger).Warn("Summary omitted", zap.String("query", query), zap.Error(err))
		return "", false
	case !ok:
		metrics.SummaryTotal.WithLabelValues("absent").Inc()
		return "", false
	default:
		metrics.SummaryTotal.WithLabelValues("ok").Inc()
		return summary, true
	}
}
