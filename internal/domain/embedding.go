package domain

import (
	"context"
	"fmt"
	"strings"
)

// Embedder turns bookmark text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// BatchEmbedder is implemented by providers that accept many texts per request.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// HealthChecker is implemented by providers that can probe their backend.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Dimensioner reports the fixed vector length an embedder produces.
type Dimensioner interface {
	Dimensions() int
}

// EmbeddingResult is one vector plus the tokens spent producing it.
// A cache hit reports zero tokens.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult holds vectors in input order plus summed token usage.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

func (r *BatchEmbeddingResult) add(one EmbeddingResult) {
	r.Embeddings = append(r.Embeddings, one.Embedding)
	r.PromptTokens += one.PromptTokens
	r.TotalTokens += one.TotalTokens
}

// BatchFallback embeds texts one request at a time.
func BatchFallback(ctx context.Context, e Embedder, texts []string) (BatchEmbeddingResult, error) {
	out := BatchEmbeddingResult{Embeddings: make([][]float32, 0, len(texts))}
	for i, text := range texts {
		res, err := e.Embed(ctx, text)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("fallback embed [%d]: %w", i, err)
		}
		out.add(res)
	}
	return out, nil
}

// EmbedAll uses native batching when e supports it and BatchFallback otherwise.
func EmbedAll(ctx context.Context, e Embedder, texts []string) (BatchEmbeddingResult, error) {
	if be, ok := e.(BatchEmbedder); ok {
		return be.BatchEmbed(ctx, texts) //nolint:wrapcheck // callers wrap
	}
	return BatchFallback(ctx, e, texts)
}

// DimensionsOf returns e's fixed dimension, or 0 when e does not report one.
func DimensionsOf(e Embedder) int {
	if d, ok := e.(Dimensioner); ok {
		return d.Dimensions()
	}
	return 0
}

// CheckHealth probes e when it can be probed and reports healthy otherwise.
func CheckHealth(ctx context.Context, e Embedder) error {
	if hc, ok := e.(HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // callers wrap
	}
	return nil
}

// InstructionEmbedder prefixes every text with a fixed instruction, such as
// "search_query: " for asymmetric retrieval models. Document and query
// embedders usually carry different instructions.
type InstructionEmbedder struct {
	inner       Embedder
	instruction string
}

// NewInstructionEmbedder wraps inner. An empty instruction makes it a pass-through.
func NewInstructionEmbedder(inner Embedder, instruction string) *InstructionEmbedder {
	return &InstructionEmbedder{inner: inner, instruction: instruction}
}

// Embed rejects blank text before the prefix can hide it.
func (e *InstructionEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	prefixed, err := e.prefix(text)
	if err != nil {
		return EmbeddingResult{}, err
	}
	result, err := e.inner.Embed(ctx, prefixed)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("instruction embed: %w", err)
	}
	return result, nil
}

// BatchEmbed fails on the first blank text without calling inner.
func (e *InstructionEmbedder) BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error) {
	prefixed := make([]string, len(texts))
	for i, text := range texts {
		p, err := e.prefix(text)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("text [%d]: %w", i, err)
		}
		prefixed[i] = p
	}

	res, err := EmbedAll(ctx, e.inner, prefixed)
	if err != nil {
		return BatchEmbeddingResult{}, fmt.Errorf("instruction batch embed: %w", err)
	}
	return res, nil
}

func (e *InstructionEmbedder) prefix(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyInput
	}
	return e.instruction + text, nil
}

func (e *InstructionEmbedder) Dimensions() int { return DimensionsOf(e.inner) }

func (e *InstructionEmbedder) HealthCheck(ctx context.Context) error { return CheckHealth(ctx, e.inner) }
