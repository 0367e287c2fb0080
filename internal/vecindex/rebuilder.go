package vecindex

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/markdex/internal/metrics"
)

// DefaultRebuildInterval is used when the configured interval is not positive.
const DefaultRebuildInterval = 2 * time.Second

// Rebuilder refreshes the vantage-point tree in the background.
type Rebuilder struct {
	index    *Index
	interval time.Duration
	logger   *zap.Logger
}

// NewRebuilder creates a Rebuilder for index.
func NewRebuilder(index *Index, interval time.Duration, logger *zap.Logger) *Rebuilder {
	if interval <= 0 {
		interval = DefaultRebuildInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Rebuilder{index: index, interval: interval, logger: logger}
}

// Run rebuilds on every tick the index is dirty, until ctx is done.
func (r *Rebuilder) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RebuildIfNeeded()
		}
	}
}

// RebuildIfNeeded rebuilds once if writes happened since the last build.
func (r *Rebuilder) RebuildIfNeeded() bool {
	if !r.index.NeedsRebuild() {
		return false
	}
	start := time.Now()
	n := r.index.Rebuild()
	elapsed := time.Since(start)

	metrics.ANNRebuildDuration.Observe(elapsed.Seconds())
	r.logger.Debug("ann tree rebuilt",
		zap.Int("entries", n),
		zap.Duration("took", elapsed),
	)
	return true
}
