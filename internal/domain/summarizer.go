package domain

import (
	"context"

	"github.com/kailas-cloud/markdex/internal/domain/search/result"
)

// DefaultSummaryResults is how many top results a summarizer reads when the caller does not say.
const DefaultSummaryResults = 5

// Summarizer produces a short synopsis of the top-ranked bookmarks for a query.
// ok=false is a normal outcome: nothing worth summarizing.
type Summarizer interface {
	Summarize(ctx context.Context, query string, results []result.Ranked, maxResults int) (summary string, ok bool, err error)
}
