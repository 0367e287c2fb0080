package chi

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/markdex/internal/domain"
	"github.com/kailas-cloud/markdex/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/markdex/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/markdex/internal/usecase/indexing"
	searchuc "github.com/kailas-cloud/markdex/internal/usecase/search"
	"github.com/kailas-cloud/markdex/internal/usecase/summary"
	"github.com/kailas-cloud/markdex/internal/vecindex"
)

func newTestRouter(t *testing.T, apiKeys ...string) http.Handler {
	t.Helper()
	idx := vecindex.New()
	emb := embedding.NewHashing(embedding.DefaultHashingDimensions)

	indexing := indexinguc.New(idx, emb, nil, nil)
	search := searchuc.New(idx, emb, nil).WithSummarizer(summary.NewExtractive(0.3), 0, 0)
	health := healthuc.New(idx, emb)

	return NewRouter(NewServer(indexing, search, health, nil), apiKeys, nil)
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, rd)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

var fixture = IndexRequest{Bookmarks: []BookmarkItem{
	{URL: "https://tailwindcss.com/", Title: "Tailwind CSS", Description: "utility-first CSS framework"},
	{URL: "https://example.com/cooking", Title: "cooking basics", Description: "knife skills and seasoning"},
	{URL: "https://example.com/bad", Title: " "},
}}

func TestIndexAndSearch(t *testing.T) {
	h := newTestRouter(t)

	rr := do(t, h, http.MethodPost, "/api/v1/index", fixture)
	if rr.Code != http.StatusOK {
		t.Fatalf("index: status %d: %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Embedding-Tokens") == "" {
		t.Error("missing X-Embedding-Tokens header")
	}
	report := decode[IndexReportResponse](t, rr)
	if report.Succeeded != 2 || report.Failed != 1 || !report.Reconciled {
		t.Errorf("report = %+v", report)
	}
	if len(report.Failures) != 1 || report.Failures[0].Kind != "invalid_record" {
		t.Errorf("failures = %+v", report.Failures)
	}

	rr = do(t, h, http.MethodPost, "/api/v1/search",
		map[string]any{"query": "CSS framework for styling", "top_k": 1, "min_score": 0.1})
	if rr.Code != http.StatusOK {
		t.Fatalf("search: status %d: %s", rr.Code, rr.Body.String())
	}
	out := decode[SearchResponse](t, rr)
	if len(out.Results) != 1 || out.Results[0].URL != "https://tailwindcss.com/" || out.Results[0].Rank != 1 {
		t.Errorf("results = %+v", out.Results)
	}
	if out.NoResultsMessage != nil {
		t.Error("no-results message on non-empty outcome")
	}
}

func TestSearchGet_BindsQueryParams(t *testing.T) {
	h := newTestRouter(t)
	do(t, h, http.MethodPost, "/api/v1/index", fixture)

	q := url.Values{"q": {"knife skills"}, "top_k": {"5"}, "min_score": {"0"}}
	rr := do(t, h, http.MethodGet, "/api/v1/search?"+q.Encode(), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	out := decode[SearchResponse](t, rr)
	if len(out.Results) == 0 || out.Results[0].URL != "https://example.com/cooking" {
		t.Errorf("results = %+v", out.Results)
	}

	rr = do(t, h, http.MethodGet, "/api/v1/search?q=x&top_k=abc", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad top_k: status %d", rr.Code)
	}
}

func TestSearch_EmptyIndex(t *testing.T) {
	h := newTestRouter(t)

	rr := do(t, h, http.MethodGet, "/api/v1/search?q=anything", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	out := decode[SearchResponse](t, rr)
	if out.Results == nil || len(out.Results) != 0 {
		t.Errorf("results = %v, want empty array", out.Results)
	}
	if out.NoResultsMessage == nil || out.Summary != nil {
		t.Errorf("outcome = %+v", out)
	}
}

func TestErrorMapping(t *testing.T) {
	h := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		target string
		body   any
		status int
		code   ErrorCode
	}{
		{"empty query", http.MethodPost, "/api/v1/search", map[string]any{"query": "  "}, 400, ErrorCodeEmptyQuery},
		{"top_k zero", http.MethodPost, "/api/v1/search", map[string]any{"query": "x", "top_k": 0}, 400, ErrorCodeValidationFailed},
		{"min_score above one", http.MethodGet, "/api/v1/search?q=x&min_score=1.5", nil, 400, ErrorCodeValidationFailed},
		{"bad json", http.MethodPost, "/api/v1/index", "{", 400, ErrorCodeBadRequest},
		{"unknown import format", http.MethodPost, "/api/v1/import?format=opml", "[]", 400, ErrorCodeValidationFailed},
		{"delete missing", http.MethodDelete, "/api/v1/bookmarks?url=https://nope", nil, 404, ErrorCodeNotFound},
		{"delete without url", http.MethodDelete, "/api/v1/bookmarks", nil, 400, ErrorCodeValidationFailed},
		{"unknown route", http.MethodGet, "/api/v1/nope", nil, 404, ErrorCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, tt.method, tt.target, tt.body)
			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rr.Code, tt.status, rr.Body.String())
			}
			if got := decode[ErrorResponse](t, rr); got.Code != tt.code {
				t.Errorf("code = %s, want %s", got.Code, tt.code)
			}
		})
	}
}

func TestImportAndDelete(t *testing.T) {
	h := newTestRouter(t)

	html := `<DL><p><DT><A HREF="https://go.dev/">Go</A><DD>The Go programming language</DL>`
	rr := do(t, h, http.MethodPost, "/api/v1/import?format=netscape", html)
	if rr.Code != http.StatusOK {
		t.Fatalf("import: status %d: %s", rr.Code, rr.Body.String())
	}
	if r := decode[IndexReportResponse](t, rr); r.Succeeded != 1 {
		t.Errorf("report = %+v", r)
	}

	rr = do(t, h, http.MethodGet, "/api/v1/stats", nil)
	if st := decode[StatsResponse](t, rr); st.Size != 1 || st.Dimension != embedding.DefaultHashingDimensions {
		t.Errorf("stats = %+v", st)
	}

	rr = do(t, h, http.MethodDelete, "/api/v1/bookmarks?url="+url.QueryEscape("https://go.dev/"), nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d", rr.Code)
	}
	rr = do(t, h, http.MethodGet, "/api/v1/stats", nil)
	if st := decode[StatsResponse](t, rr); st.Size != 0 || st.Dimension != 0 {
		t.Errorf("stats after delete = %+v", st)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestRouter(t, "secret")

	rr := do(t, h, http.MethodGet, "/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("health: status %d", rr.Code)
	}
	if hr := decode[HealthResponse](t, rr); hr.Status != "ok" || hr.Checks["index"] != "ok" {
		t.Errorf("health = %+v", hr)
	}

	rr = do(t, h, http.MethodGet, "/metrics", nil)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "http_requests_total") {
		t.Errorf("metrics: status %d", rr.Code)
	}

	rr = do(t, h, http.MethodGet, "/api/v1/stats", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("stats without token: status %d", rr.Code)
	}
}

func TestSafeDomainMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{errors.New("dial tcp 10.0.0.1:443: secret detail"), "internal error"},
		{domain.NewDimensionMismatch(3, 4), domain.ErrDimensionMismatch.Error()},
		{domain.ErrIndexHalted, domain.ErrIndexHalted.Error()},
		{errors.Join(domain.ErrSearchUnavailable, errors.New("api key sk-123 rejected")), domain.ErrSearchUnavailable.Error()},
	}
	for _, tt := range tests {
		if got := safeDomainMessage(tt.err); got != tt.want {
			t.Errorf("safeDomainMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestJSONRecoverer(t *testing.T) {
	h := jsonRecoverer(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	if got := decode[ErrorResponse](t, rr); got.Code != ErrorCodeInternalError {
		t.Errorf("code = %s", got.Code)
	}
}
