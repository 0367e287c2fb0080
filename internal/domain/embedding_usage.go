package domain

import (
	"context"
	"sync/atomic"
)

type embeddingUsageKey struct{}

// EmbeddingUsage tallies the embedding work behind one index or search call
// so the HTTP layer can report it. Calls that spent zero tokens were served
// from the embedding cache. Safe for concurrent use.
type EmbeddingUsage struct {
	tokens atomic.Int64
	calls  atomic.Int64
	cached atomic.Int64
}

// NewContextWithUsage attaches a fresh collector to ctx.
func NewContextWithUsage(ctx context.Context) (context.Context, *EmbeddingUsage) {
	u := &EmbeddingUsage{}
	return context.WithValue(ctx, embeddingUsageKey{}, u), u
}

// UsageFromContext returns the collector attached to ctx, or nil.
func UsageFromContext(ctx context.Context) *EmbeddingUsage {
	u, _ := ctx.Value(embeddingUsageKey{}).(*EmbeddingUsage)
	return u
}

// Record counts one embedding call. A nil collector ignores it.
func (u *EmbeddingUsage) Record(tokens int) {
	if u == nil {
		return
	}
	u.calls.Add(1)
	if tokens == 0 {
		u.cached.Add(1)
		return
	}
	u.tokens.Add(int64(tokens))
}

// Tokens is the sum of billed tokens.
func (u *EmbeddingUsage) Tokens() int {
	if u == nil {
		return 0
	}
	return int(u.tokens.Load())
}

// Calls is the number of recorded embedding calls, cached ones included.
func (u *EmbeddingUsage) Calls() int {
	if u == nil {
		return 0
	}
	return int(u.calls.Load())
}

// CacheHits is the number of calls that spent no tokens.
func (u *EmbeddingUsage) CacheHits() int {
	if u == nil {
		return 0
	}
	return int(u.cached.Load())
}
