package embedding

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/cespare/xxhash/v2"

	"github.com/kailas-cloud/markdex/internal/domain"
	"github.com/kailas-cloud/markdex/internal/metrics"
)

// Hashing embedder defaults.
const (
	DefaultHashingDimensions = 384
	HashingProvider          = "hashing"
	HashingModel             = "hashing-v1"
)

const (
	wordWeight    = 1.0
	trigramWeight = 0.5
)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "by": {},
	"for": {}, "from": {}, "has": {}, "have": {}, "how": {}, "i": {}, "in": {}, "is": {},
	"it": {}, "its": {}, "my": {}, "of": {}, "on": {}, "or": {}, "that": {}, "the": {},
	"this": {}, "to": {}, "was": {}, "what": {}, "when": {}, "where": {}, "which": {},
	"who": {}, "why": {}, "will": {}, "with": {}, "you": {}, "your": {},
}

// Hashing is an offline embedder: signed feature hashing of word tokens and
// character trigrams into a fixed-size, L2-normalized vector. Output depends
// only on the input text and the dimension.
type Hashing struct {
	dim int
}

// NewHashing creates a hashing embedder. dim <= 0 uses DefaultHashingDimensions.
func NewHashing(dim int) *Hashing {
	if dim <= 0 {
		dim = DefaultHashingDimensions
	}
	return &Hashing{dim: dim}
}

// Embed vectorizes text. Blank text returns domain.ErrEmptyInput.
func (h *Hashing) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("hashing embed: %w", err)
	}
	start := time.Now()
	vec, tokens, err := h.vectorize(text)
	if err != nil {
		metrics.EmbeddingErrorsTotal.WithLabelValues(HashingProvider, HashingModel, "empty_input").Inc()
		return domain.EmbeddingResult{}, err
	}
	h.observe(start, tokens)
	return domain.EmbeddingResult{Embedding: vec, PromptTokens: tokens, TotalTokens: tokens}, nil
}

// BatchEmbed vectorizes every text; any blank text fails the whole batch.
func (h *Hashing) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	start := time.Now()
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return domain.BatchEmbeddingResult{}, fmt.Errorf("hashing batch embed: %w", err)
		}
		vec, tokens, err := h.vectorize(text)
		if err != nil {
			metrics.EmbeddingErrorsTotal.WithLabelValues(HashingProvider, HashingModel, "empty_input").Inc()
			return domain.BatchEmbeddingResult{}, fmt.Errorf("text [%d]: %w", i, err)
		}
		out.Embeddings[i] = vec
		out.PromptTokens += tokens
		out.TotalTokens += tokens
	}
	h.observe(start, out.TotalTokens)
	return out, nil
}

// Dimensions returns the vector length.
func (h *Hashing) Dimensions() int { return h.dim }

// HealthCheck always succeeds; the embedder has no backend.
func (h *Hashing) HealthCheck(_ context.Context) error { return nil }

func (h *Hashing) observe(start time.Time, tokens int) {
	metrics.EmbeddingRequestsTotal.WithLabelValues(HashingProvider, HashingModel, "ok").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(HashingProvider, HashingModel).Observe(time.Since(start).Seconds())
	metrics.EmbeddingTokensTotal.WithLabelValues(HashingProvider, HashingModel, "total").Add(float64(tokens))
}

func (h *Hashing) vectorize(text string) ([]float32, int, error) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return nil, 0, domain.ErrEmptyInput
	}

	counts := make(map[string]int)
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := 0
	for _, w := range words {
		if _, stop := stopwords[w]; stop {
			continue
		}
		tokens++
		counts["w:"+w]++
		for _, tri := range trigrams(" " + w + " ") {
			counts["t:"+tri]++
		}
	}
	if len(counts) == 0 {
		// punctuation, symbols or stop-words only
		for _, tri := range trigrams(text) {
			counts["t:"+tri]++
		}
		tokens = len(words)
	}

	// fixed accumulation order keeps float sums reproducible
	features := make([]string, 0, len(counts))
	for f := range counts {
		features = append(features, f)
	}
	sort.Strings(features)

	vec := make([]float64, h.dim)
	for _, f := range features {
		sum := xxhash.Sum64String(f)
		idx := sum % uint64(h.dim)
		sign := 1.0
		if sum>>63 == 1 {
			sign = -1
		}
		vec[idx] += sign * (1 + math.Log(float64(counts[f]))) * weightOf(f)
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	out := make([]float32, h.dim)
	if norm == 0 {
		// colliding features cancelled out
		out[xxhash.Sum64String(features[0])%uint64(h.dim)] = 1
		return out, max(tokens, 1), nil
	}
	norm = math.Sqrt(norm)
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out, max(tokens, 1), nil
}

func weightOf(feature string) float64 {
	if strings.HasPrefix(feature, "w:") {
		return wordWeight
	}
	return trigramWeight
}

// trigrams returns the overlapping 3-rune windows of s, or s itself when shorter.
func trigrams(s string) []string {
	runes := []rune(s)
	if len(runes) < 3 {
		return []string{s}
	}
	out := make([]string, 0, len(runes)-2)
	for i := 0; i+3 <= len(runes); i++ {
		out = append(out, string(runes[i:i+3]))
	}
	return out
}
