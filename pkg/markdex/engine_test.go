package markdex

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/markdex/internal/domain"
	"github.com/kailas-cloud/markdex/internal/domain/bookmark"
	domindex "github.com/kailas-cloud/markdex/internal/domain/indexing"
	"github.com/kailas-cloud/markdex/internal/domain/search/request"
	"github.com/kailas-cloud/markdex/internal/domain/search/result"
)

var sample = []Bookmark{
	{Title: "Tailwind CSS", URL: "https://tailwindcss.com/", Description: "utility-first CSS framework"},
	{Title: "Cooking basics", URL: "https://example.com/cooking", Description: "knife skills and seasoning"},
	{Title: "Southeast Asia travel", URL: "https://example.com/travel", Description: "backpacking guide to Vietnam and Thailand"},
}

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := New(opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func TestEngine_IndexAndSearch(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	report, err := e.Index(ctx, sample)
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if report.Succeeded != 3 || report.Failed != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}

	out, err := e.Search(ctx, "CSS framework for styling", TopK(1), MinScore(0.1))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(out.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(out.Results))
	}
	if got := out.Results[0]; got.URL != "https://tailwindcss.com/" || got.Rank != 1 {
		t.Errorf("unexpected top result: %+v", got)
	}
	if out.HasSummary {
		t.Error("summary without a summarizer")
	}

	st := e.Stats()
	if st.Size != 3 || st.Dimension != 384 || st.Halted {
		t.Errorf("unexpected stats: %+v", st)
	}
}

func TestEngine_IndexReconciles(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	if _, err := e.Index(ctx, sample); err != nil {
		t.Fatal(err)
	}
	report, err := e.Index(ctx, sample[:1])
	if err != nil {
		t.Fatal(err)
	}
	if report.Removed != 2 {
		t.Errorf("expected 2 removed, got %d", report.Removed)
	}
	if e.Stats().Size != 1 {
		t.Errorf("expected 1 entry, got %d", e.Stats().Size)
	}
}

func TestEngine_InvalidRecordReported(t *testing.T) {
	e := newEngine(t)

	report, err := e.Index(context.Background(), []Bookmark{
		sample[0],
		{Title: "", URL: "https://no-title.example"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if report.Succeeded != 1 || report.Failed != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if f := report.Failures[0]; f.URL != "https://no-title.example" || f.Kind != "invalid_record" {
		t.Errorf("unexpected failure: %+v", f)
	}
}

func TestEngine_EmptyIndex(t *testing.T) {
	e := newEngine(t, WithExtractiveSummaries(0))

	out, err := e.Search(context.Background(), "anything")
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Results) != 0 || out.NoResultsMessage == "" || out.HasSummary {
		t.Errorf("unexpected outcome: %+v", out)
	}
}

func TestEngine_SearchValidation(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		query string
		opts  []SearchOption
		want  error
	}{
		{"empty", "", nil, ErrEmptyQuery},
		{"whitespace", "  \t", nil, ErrEmptyQuery},
		{"zero top_k", "q", []SearchOption{TopK(0)}, ErrInvalidArgument},
		{"negative min score", "q", []SearchOption{MinScore(-0.1)}, ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Search(ctx, tt.query, tt.opts...)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestEngine_SearchLargeTopK(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	if _, err := e.Index(ctx, sample); err != nil {
		t.Fatalf("Index: %v", err)
	}

	out, err := e.Search(ctx, "css", TopK(1000), MinScore(0))
	if err != nil {
		t.Fatalf("Search with top_k=1000: %v", err)
	}
	if len(out.Results) == 0 || len(out.Results) > len(sample) {
		t.Errorf("got %d results for %d bookmarks", len(out.Results), len(sample))
	}
}

func TestEngine_IndexReembedsEveryRecord(t *testing.T) {
	var calls atomic.Int32
	emb := &mockEmbedder{fn: func(_ context.Context, text string) (EmbeddingResult, error) {
		calls.Add(1)
		return EmbeddingResult{Embedding: []float32{1, float32(len(text))}}, nil
	}}
	e := newEngine(t, WithEmbedder(emb))
	ctx := context.Background()

	for range 2 {
		if _, err := e.Index(ctx, sample); err != nil {
			t.Fatalf("Index: %v", err)
		}
	}
	if got := calls.Load(); got != int32(2*len(sample)) {
		t.Errorf("embed calls: got %d, want %d", got, 2*len(sample))
	}
}

func TestEngine_Remove(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	if _, err := e.Index(ctx, sample); err != nil {
		t.Fatal(err)
	}

	if err := e.Remove(ctx, "https://example.com/cooking"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := e.Remove(ctx, "https://example.com/cooking"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if e.Stats().Size != 2 {
		t.Errorf("expected 2 entries, got %d", e.Stats().Size)
	}
}

func TestEngine_DimensionMismatchHalts(t *testing.T) {
	dim := 3
	emb := &mockEmbedder{fn: func(_ context.Context, _ string) (EmbeddingResult, error) {
		v := make([]float32, dim)
		v[0] = 1
		return EmbeddingResult{Embedding: v, TotalTokens: 1}, nil
	}}
	e := newEngine(t, WithEmbedder(emb))
	ctx := context.Background()

	if _, err := e.Index(ctx, sample[:1]); err != nil {
		t.Fatal(err)
	}

	dim = 4
	report, err := e.Index(ctx, sample[1:2])
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
	if report.Failed != 1 {
		t.Errorf("expected the record reported failed: %+v", report)
	}
	if !e.Stats().Halted {
		t.Fatal("index not halted")
	}

	dim = 3
	if _, err := e.Index(ctx, sample[2:]); !errors.Is(err, ErrIndexHalted) {
		t.Errorf("expected ErrIndexHalted, got %v", err)
	}
	if _, err := e.Search(ctx, "css", MinScore(0)); err != nil {
		t.Errorf("search must keep working on a halted index: %v", err)
	}
}

func TestEngine_Summaries(t *testing.T) {
	ctx := context.Background()

	t.Run("extractive", func(t *testing.T) {
		e := newEngine(t, WithExtractiveSummaries(0.1))
		if _, err := e.Index(ctx, sample); err != nil {
			t.Fatal(err)
		}
		out, err := e.Search(ctx, "CSS framework", MinScore(0.1))
		if err != nil {
			t.Fatal(err)
		}
		if !out.HasSummary || !strings.Contains(out.Summary, "Tailwind CSS") {
			t.Errorf("expected summary naming Tailwind, got %q (%t)", out.Summary, out.HasSummary)
		}
	})

	t.Run("custom", func(t *testing.T) {
		var gotMax int
		var gotTop string
		sum := &mockSummarizer{fn: func(_ context.Context, _ string, results []Result, maxResults int) (string, bool, error) {
			gotMax = maxResults
			gotTop = results[0].URL
			return "a summary", true, nil
		}}
		e := newEngine(t, WithSummarizer(sum), WithSummaryLimits(time.Second, 2))
		if _, err := e.Index(ctx, sample); err != nil {
			t.Fatal(err)
		}
		out, err := e.Search(ctx, "CSS framework", MinScore(0.1))
		if err != nil {
			t.Fatal(err)
		}
		if out.Summary != "a summary" || !out.HasSummary {
			t.Errorf("unexpected summary %q", out.Summary)
		}
		if gotMax != 2 || gotTop != "https://tailwindcss.com/" {
			t.Errorf("summarizer saw max=%d top=%q", gotMax, gotTop)
		}
	})

	t.Run("failure omits summary", func(t *testing.T) {
		sum := &mockSummarizer{fn: func(context.Context, string, []Result, int) (string, bool, error) {
			return "", false, errors.New("llm down")
		}}
		e := newEngine(t, WithSummarizer(sum))
		if _, err := e.Index(ctx, sample); err != nil {
			t.Fatal(err)
		}
		out, err := e.Search(ctx, "CSS framework", MinScore(0.1))
		if err != nil {
			t.Fatalf("search failed with summarizer error: %v", err)
		}
		if out.HasSummary || len(out.Results) == 0 {
			t.Errorf("unexpected outcome: %+v", out)
		}
	})
}

func TestEngine_ANN(t *testing.T) {
	e := newEngine(t, WithANN(2, 5*time.Millisecond))
	if _, err := e.Index(context.Background(), sample); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for !e.Stats().ANNActive {
		if time.Now().After(deadline) {
			t.Fatal("ANN tree never built")
		}
		time.Sleep(5 * time.Millisecond)
	}
	out, err := e.Search(context.Background(), "CSS framework", TopK(1), MinScore(0.1))
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Results) != 1 || out.Results[0].URL != "https://tailwindcss.com/" {
		t.Errorf("unexpected ANN results: %+v", out.Results)
	}
}

func TestEngine_Prometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	e := newEngine(t, WithPrometheus(reg))
	ctx := context.Background()

	if _, err := e.Index(ctx, sample); err != nil {
		t.Fatal(err)
	}
	_, _ = e.Search(ctx, "")

	if got := testutil.ToFloat64(e.obs.metrics.operations.WithLabelValues("index", "ok")); got != 1 {
		t.Errorf("index ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(e.obs.metrics.operations.WithLabelValues("search", "error")); got != 1 {
		t.Errorf("search error = %v, want 1", got)
	}
	if got := testutil.ToFloat64(e.obs.metrics.size); got != 3 {
		t.Errorf("bookmarks gauge = %v, want 3", got)
	}

	// A second engine on the same registry reuses the collectors.
	if _, err := New(WithPrometheus(reg)); err != nil {
		t.Errorf("second engine on shared registry: %v", err)
	}
}

func TestEngine_Logger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	e := newEngine(t, WithLogger(logger))

	if _, err := e.Index(context.Background(), sample); err != nil {
		t.Fatal(err)
	}
	_ = e.Remove(context.Background(), "https://absent.example")

	out := buf.String()
	if !strings.Contains(out, "operation completed") || !strings.Contains(out, "op=index") {
		t.Errorf("missing index log:\n%s", out)
	}
	if !strings.Contains(out, "operation failed") || !strings.Contains(out, "op=remove") {
		t.Errorf("missing remove failure log:\n%s", out)
	}
}

func TestEngine_IndexCancelledKeepsReport(t *testing.T) {
	idx := &mockIndexingUC{
		indexFn: func(_ context.Context, raws []bookmark.Raw) (domindex.Report, error) {
			if len(raws) != 2 || raws[1].URL != "https://b.example" {
				t.Errorf("unexpected raws: %+v", raws)
			}
			return domindex.Report{Attempted: 2, Succeeded: 1, Cancelled: true}, context.Canceled
		},
	}
	e := &Engine{indexing: idx}

	report, err := e.Index(context.Background(), []Bookmark{
		{Title: "A", URL: "https://a.example"},
		{Title: "B", URL: "https://b.example"},
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !report.Cancelled || report.Succeeded != 1 || report.Attempted != 2 {
		t.Errorf("unexpected report: %+v", report)
	}
}

func TestEngine_SearchMapsOutcome(t *testing.T) {
	var gotReq *request.Request
	svc := &mockSearchUC{searchFn: func(_ context.Context, req *request.Request) (result.Outcome, error) {
		gotReq = req
		return result.NewOutcome([]result.Ranked{
			result.New("https://a.example", "A", "desc", 0.8, 1),
			result.New("https://b.example", "B", "", 0.6, 2),
		}, "both", true), nil
	}}
	e := &Engine{search: svc}

	out, err := e.Search(context.Background(), "  q  ")
	if err != nil {
		t.Fatal(err)
	}
	if gotReq.Query() != "q" || gotReq.TopK() != request.DefaultTopK || gotReq.MinScore() != request.DefaultMinScore {
		t.Errorf("unexpected request: %+v", gotReq)
	}
	want := []Result{
		{URL: "https://a.example", Title: "A", Description: "desc", Score: 0.8, Rank: 1},
		{URL: "https://b.example", Title: "B", Score: 0.6, Rank: 2},
	}
	if len(out.Results) != len(want) {
		t.Fatalf("got %d results", len(out.Results))
	}
	for i := range want {
		if out.Results[i] != want[i] {
			t.Errorf("result %d = %+v, want %+v", i, out.Results[i], want[i])
		}
	}
	if out.Summary != "both" || !out.HasSummary || out.NoResultsMessage != "" {
		t.Errorf("unexpected summary fields: %+v", out)
	}
}

func TestAdaptEmbedder(t *testing.T) {
	plain := &mockEmbedder{fn: func(context.Context, string) (EmbeddingResult, error) {
		return EmbeddingResult{Embedding: []float32{1}, TotalTokens: 2}, nil
	}}
	if _, ok := adaptEmbedder(plain).(domain.BatchEmbedder); ok {
		t.Error("plain embedder must not expose BatchEmbed")
	}

	batch := &mockBatchEmbedder{
		mockEmbedder: *plain,
		batchFn: func(_ context.Context, texts []string) (BatchEmbeddingResult, error) {
			return BatchEmbeddingResult{Embeddings: make([][]float32, len(texts)), TotalTokens: 5}, nil
		},
	}
	be, ok := adaptEmbedder(batch).(domain.BatchEmbedder)
	if !ok {
		t.Fatal("batch embedder lost BatchEmbed")
	}
	r, err := be.BatchEmbed(context.Background(), []string{"a", "b"})
	if err != nil || len(r.Embeddings) != 2 || r.TotalTokens != 5 {
		t.Errorf("unexpected batch result %+v, err %v", r, err)
	}
}

func TestClassifyEmbedError(t *testing.T) {
	backend := errors.New("connection refused")

	tests := []struct {
		name        string
		err         error
		unavailable bool
	}{
		{"backend failure", backend, true},
		{"empty input", domain.ErrEmptyInput, false},
		{"cancelled", context.Canceled, false},
		{"already classified", domain.ErrEmbedderUnavailable, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyEmbedError(tt.err)
			if !errors.Is(got, tt.err) {
				t.Errorf("cause lost: %v", got)
			}
			if errors.Is(got, domain.ErrEmbedderUnavailable) != tt.unavailable {
				t.Errorf("unavailable = %t for %v", !tt.unavailable, got)
			}
		})
	}
}
