package chi

import (
	"fmt"
	"net/http"

	"github.com/oapi-codegen/runtime"
)

// bindSearchParams binds the GET /api/v1/search query string the way
// oapi-codegen generated wrappers do.
func bindSearchParams(r *http.Request) (SearchParams, error) {
	var params SearchParams
	query := r.URL.Query()

	if err := runtime.BindQueryParameter("form", true, false, "q", query, &params.Q); err != nil {
		return params, fmt.Errorf("Invalid format for parameter q: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "top_k", query, &params.TopK); err != nil {
		return params, fmt.Errorf("Invalid format for parameter top_k: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "min_score", query, &params.MinScore); err != nil {
		return params, fmt.Errorf("Invalid format for parameter min_score: %w", err)
	}
	return params, nil
}
