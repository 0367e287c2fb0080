package chi

// ErrorCode is the machine-readable error code of an ErrorResponse.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest          ErrorCode = "bad_request"
	ErrorCodeUnauthorized        ErrorCode = "unauthorized"
	ErrorCodeValidationFailed    ErrorCode = "validation_failed"
	ErrorCodeEmptyQuery          ErrorCode = "empty_query"
	ErrorCodeNotFound            ErrorCode = "not_found"
	ErrorCodeDimensionMismatch   ErrorCode = "dimension_mismatch"
	ErrorCodeIndexHalted         ErrorCode = "index_halted"
	ErrorCodeSearchUnavailable   ErrorCode = "search_unavailable"
	ErrorCodeEmbedderUnavailable ErrorCode = "embedder_unavailable"
	ErrorCodeInternalError       ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// BookmarkItem is one upstream bookmark record.
type BookmarkItem struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// IndexRequest is the body of POST /api/v1/index.
type IndexRequest struct {
	Bookmarks []BookmarkItem `json:"bookmarks"`
}

// FailureItem reports one record that could not be indexed.
type FailureItem struct {
	URL     string `json:"url"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// IndexReportResponse summarizes an indexing run.
type IndexReportResponse struct {
	Attempted  int           `json:"attempted"`
	Succeeded  int           `json:"succeeded"`
	Failed     int           `json:"failed"`
	Removed    int           `json:"removed"`
	Duplicates int           `json:"duplicates"`
	Cancelled  bool          `json:"cancelled"`
	Reconciled bool          `json:"reconciled"`
	DurationMs int64         `json:"duration_ms"`
	Failures   []FailureItem `json:"failures"`
}

// SearchRequest is the body of POST /api/v1/search.
type SearchRequest struct {
	Query    string   `json:"query"`
	TopK     *int     `json:"top_k,omitempty"`
	MinScore *float64 `json:"min_score,omitempty"`
}

// SearchParams are the query parameters of GET /api/v1/search.
type SearchParams struct {
	Q        string   `form:"q" json:"q"`
	TopK     *int     `form:"top_k,omitempty" json:"top_k,omitempty"`
	MinScore *float64 `form:"min_score,omitempty" json:"min_score,omitempty"`
}

// SearchResultItem is one ranked bookmark.
type SearchResultItem struct {
	Rank        int     `json:"rank"`
	URL         string  `json:"url"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Score       float64 `json:"score"`
}

// SearchResponse is the search outcome. Summary and NoResultsMessage are never both set.
type SearchResponse struct {
	Results          []SearchResultItem `json:"results"`
	Summary          *string            `json:"summary,omitempty"`
	NoResultsMessage *string            `json:"no_results_message,omitempty"`
}

// ANNStatus describes the approximate search structure.
type ANNStatus struct {
	Enabled bool `json:"enabled"`
	Active  bool `json:"active"`
	Pending int  `json:"pending"`
}

// StatsResponse is the body of GET /api/v1/stats.
type StatsResponse struct {
	Size       int       `json:"size"`
	Dimension  int       `json:"dimension"`
	Halted     bool      `json:"halted"`
	Persistent bool      `json:"persistent"`
	ANN        ANNStatus `json:"ann"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
