package health

import "context"

// Pinger checks a storage backend (snapshot store, embedding cache).
type Pinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// IndexState reports whether the semantic index still accepts writes.
type IndexState interface {
	Halted() bool
}
