package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/kailas-cloud/markdex/internal/domain"
	"github.com/kailas-cloud/markdex/internal/domain/bookmark"
	domindex "github.com/kailas-cloud/markdex/internal/domain/indexing"
	"github.com/kailas-cloud/markdex/internal/domain/search/request"
	"github.com/kailas-cloud/markdex/internal/domain/search/result"
	"github.com/kailas-cloud/markdex/internal/importer"
	"github.com/kailas-cloud/markdex/internal/metrics"
	healthuc "github.com/kailas-cloud/markdex/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/markdex/internal/usecase/indexing"
	searchuc "github.com/kailas-cloud/markdex/internal/usecase/search"
)

// maxBodyBytes bounds JSON request bodies; imports use importer.MaxInputSize.
const maxBodyBytes = 32 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the bookmark indexing and search API.
type Server struct {
	indexing      *indexinguc.Service
	search        *searchuc.Service
	health        *healthuc.Service
	defaults      SearchDefaults
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// SearchDefaults fill in top_k and min_score when a request omits them.
type SearchDefaults struct {
	TopK     int
	MinScore float64
}

// NewServer creates an HTTP API server.
func NewServer(
	indexing *indexinguc.Service,
	search *searchuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		indexing: indexing,
		search:   search,
		health:   health,
		defaults: SearchDefaults{TopK: request.DefaultTopK, MinScore: request.DefaultMinScore},
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		validationHandler(domain.ErrEmptyQuery, ErrorCodeEmptyQuery),
		validationHandler(domain.ErrInvalidArgument, ErrorCodeValidationFailed),
		validationHandler(domain.ErrEmptyInput, ErrorCodeValidationFailed),
		validationHandler(domain.ErrInvalidRecord, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeNotFound),
		sentinelHandler(domain.ErrIndexHalted, http.StatusConflict, ErrorCodeIndexHalted),
		sentinelHandler(domain.ErrDimensionMismatch, http.StatusConflict, ErrorCodeDimensionMismatch),
		sentinelHandler(domain.ErrSearchUnavailable, http.StatusServiceUnavailable, ErrorCodeSearchUnavailable),
		sentinelHandler(domain.ErrEmbedderUnavailable, http.StatusServiceUnavailable, ErrorCodeEmbedderUnavailable),
	}
	return s
}

// WithSearchDefaults overrides the defaults applied to requests without top_k or min_score.
func (s *Server) WithSearchDefaults(d SearchDefaults) *Server {
	if d.TopK > 0 {
		s.defaults.TopK = d.TopK
	}
	if d.MinScore >= 0 && d.MinScore <= 1 {
		s.defaults.MinScore = d.MinScore
	}
	return s
}

// IndexBookmarks handles POST /api/v1/index.
func (s *Server) IndexBookmarks(w http.ResponseWriter, r *http.Request) {
	var req IndexRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	raws := make([]bookmark.Raw, len(req.Bookmarks))
	for i, b := range req.Bookmarks {
		raws[i] = bookmark.Raw{URL: b.URL, Title: b.Title, Description: b.Description}
	}
	s.runIndex(w, r, raws)
}

// ImportBookmarks handles POST /api/v1/import?format=chrome|netscape|json.
func (s *Server) ImportBookmarks(w http.ResponseWriter, r *http.Request) {
	format, err := importer.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	raws, err := importer.Parse(r.Body, format)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	s.runIndex(w, r, raws)
}

func (s *Server) runIndex(w http.ResponseWriter, r *http.Request, raws []bookmark.Raw) {
	ctx, usage := domain.NewContextWithUsage(r.Context())
	report, err := s.indexing.Index(ctx, raws)
	if err != nil && !report.Cancelled {
		s.handleDomainError(w, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, reportToResponse(&report))
}

// SearchPost handles POST /api/v1/search.
func (s *Server) SearchPost(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	s.runSearch(w, r, req.Query, req.TopK, req.MinScore)
}

// SearchGet handles GET /api/v1/search?q=&top_k=&min_score=.
func (s *Server) SearchGet(w http.ResponseWriter, r *http.Request) {
	params, err := bindSearchParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}
	s.runSearch(w, r, params.Q, params.TopK, params.MinScore)
}

func (s *Server) runSearch(w http.ResponseWriter, r *http.Request, query string, topK *int, minScore *float64) {
	k, floor := s.defaults.TopK, s.defaults.MinScore
	if topK != nil {
		k = *topK
	}
	if minScore != nil {
		floor = *minScore
	}

	req, err := request.New(query, k, floor)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	out, err := s.search.Search(ctx, &req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, outcomeToResponse(&out))
}

// DeleteBookmark handles DELETE /api/v1/bookmarks?url=.
func (s *Server) DeleteBookmark(w http.ResponseWriter, r *http.Request) {
	if err := s.indexing.Remove(r.Context(), r.URL.Query().Get("url")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Stats handles GET /api/v1/stats.
func (s *Server) Stats(w http.ResponseWriter, _ *http.Request) {
	st := s.indexing.Stats()
	writeJSON(w, http.StatusOK, StatsResponse{
		Size:       st.Size,
		Dimension:  st.Dimension,
		Halted:     st.Halted,
		Persistent: st.Persistent,
		ANN: ANNStatus{
			Enabled: st.ANNEnabled,
			Active:  st.ANNActive,
			Pending: st.Pending,
		},
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	metrics.Handler().ServeHTTP(w, r)
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage.Calls() == 0 {
		return
	}
	w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.Tokens()))
	w.Header().Set("X-Embedding-Cache-Hits", strconv.Itoa(usage.CacheHits()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrIndexHalted,
		domain.ErrDimensionMismatch,
		domain.ErrSearchUnavailable,
		domain.ErrEmbedderUnavailable,
		domain.ErrSummarizerUnavailable,
		context.Canceled,
		context.DeadlineExceeded,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// validationHandler answers 400 with the full error text, which only ever
// describes the caller's input.
func validationHandler(sentinel error, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, _ string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, http.StatusBadRequest, code, err.Error())
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}

func reportToResponse(r *domindex.Report) IndexReportResponse {
	failures := make([]FailureItem, len(r.Failures))
	for i, f := range r.Failures {
		msg := f.Message()
		if f.Kind() != domindex.KindInvalidRecord && f.Kind() != domindex.KindEmptyInput {
			msg = safeDomainMessage(f.Err())
		}
		failures[i] = FailureItem{URL: f.URL(), Kind: string(f.Kind()), Message: msg}
	}
	return IndexReportResponse{
		Attempted:  r.Attempted,
		Succeeded:  r.Succeeded,
		Failed:     r.Failed,
		Removed:    r.Removed,
		Duplicates: r.Duplicates,
		Cancelled:  r.Cancelled,
		Reconciled: r.Reconciled,
		DurationMs: r.Duration.Milliseconds(),
		Failures:   failures,
	}
}

func outcomeToResponse(o *result.Outcome) SearchResponse {
	res := o.Results()
	items := make([]SearchResultItem, len(res))
	for i := range res {
		items[i] = SearchResultItem{
			Rank:        res[i].Rank(),
			URL:         res[i].URL(),
			Title:       res[i].Title(),
			Description: res[i].Description(),
			Score:       res[i].Score(),
		}
	}

	resp := SearchResponse{Results: items}
	if summary, ok := o.Summary(); ok {
		resp.Summary = &summary
	}
	if msg, ok := o.NoResultsMessage(); ok {
		resp.NoResultsMessage = &msg
	}
	return resp
}
