package markdex

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Engine.
type Option interface {
	apply(*engineConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*engineConfig)

func (f optionFunc) apply(c *engineConfig) { f(c) }

type engineConfig struct {
	embedder   Embedder
	dimensions int

	summarizer       Summarizer
	extractive       bool
	extractiveFloor  float64
	summaryTimeout   time.Duration
	summaryMaxResult int

	annMinEntries int
	annInterval   time.Duration

	maxBatchSize int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithEmbedder sets the text embedding provider.
// Default: a local feature-hashing embedder.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *engineConfig) {
		c.embedder = e
	})
}

// WithHashingDimensions sets the width of the default hashing embedder.
// Ignored when WithEmbedder is used. Default: 384.
func WithHashingDimensions(dim int) Option {
	return optionFunc(func(c *engineConfig) {
		c.dimensions = dim
	})
}

// WithSummarizer attaches summaries to search outcomes.
func WithSummarizer(s Summarizer) Option {
	return optionFunc(func(c *engineConfig) {
		c.summarizer = s
		c.extractive = false
	})
}

// WithExtractiveSummaries enables the built-in offline summarizer. Results
// scoring below minScore are not summarized; 0 keeps the default floor.
func WithExtractiveSummaries(minScore float64) Option {
	return optionFunc(func(c *engineConfig) {
		c.summarizer = nil
		c.extractive = true
		c.extractiveFloor = minScore
	})
}

// WithSummaryLimits bounds each summarizer call by timeout and by the
// number of top results it reads. Zero values keep the defaults (10s, 5).
func WithSummaryLimits(timeout time.Duration, maxResults int) Option {
	return optionFunc(func(c *engineConfig) {
		c.summaryTimeout = timeout
		c.summaryMaxResult = maxResults
	})
}

// WithANN enables the approximate nearest-neighbor tree once the index holds
// minEntries bookmarks. The tree is rebuilt in the background every interval
// while the index changes. Default: exhaustive search only.
func WithANN(minEntries int, interval time.Duration) Option {
	return optionFunc(func(c *engineConfig) {
		c.annMinEntries = minEntries
		c.annInterval = interval
	})
}

// WithMaxBatchSize caps the number of bookmarks per Index call.
// Default: 50000.
func WithMaxBatchSize(size int) Option {
	return optionFunc(func(c *engineConfig) {
		c.maxBatchSize = size
	})
}

// WithLogger enables structured logging for engine operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *engineConfig) {
		c.logger = l
	})
}

// WithPrometheus registers engine metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *engineConfig) {
		c.metricsReg = reg
	})
}

// SearchOption tunes a single Search call.
type SearchOption func(*searchParams)

type searchParams struct {
	topK     int
	minScore float64
}

// TopK caps the number of results, 1 to 100. Default: 10.
func TopK(k int) SearchOption {
	return func(p *searchParams) { p.topK = k }
}

// MinScore drops results scoring below s, 0 to 1. Default: 0.15.
func MinScore(s float64) SearchOption {
	return func(p *searchParams) { p.minScore = s }
}
