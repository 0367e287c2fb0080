package result

import "strings"

// NoResultsMessage is shown when no bookmark clears the relevance floor.
const NoResultsMessage = "No bookmarks matched your query."

// Ranked is a single search hit: bookmark fields plus score and 1-based rank.
type Ranked struct {
	url         string
	title       string
	description string
	score       float64
	rank        int
}

// New creates a ranked result.
func New(url, title, description string, score float64, rank int) Ranked {
	return Ranked{url: url, title: title, description: description, score: score, rank: rank}
}

// URL returns the bookmark URL.
func (r *Ranked) URL() string { return r.url }

// Title returns the bookmark title.
func (r *Ranked) Title() string { return r.title }

// Description returns the bookmark description (may be empty).
func (r *Ranked) Description() string { return r.description }

// Score returns the relevance score in [0,1].
func (r *Ranked) Score() float64 { return r.score }

// Rank returns the 1-based position.
func (r *Ranked) Rank() int { return r.rank }

// Outcome is the full answer to a search: results plus either a summary or a
// no-results message, never both.
type Outcome struct {
	results          []Ranked
	summary          string
	hasSummary       bool
	noResultsMessage string
}

// NewOutcome builds an outcome. An empty result set always carries the
// no-results message and drops any summary.
func NewOutcome(results []Ranked, summary string, hasSummary bool) Outcome {
	if len(results) == 0 {
		return Outcome{results: []Ranked{}, noResultsMessage: NoResultsMessage}
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		hasSummary = false
	}
	return Outcome{results: results, summary: summary, hasSummary: hasSummary}
}

// Results returns the ranked hits (never nil).
func (o *Outcome) Results() []Ranked { return o.results }

// Summary returns the synthesized summary and whether one is present.
func (o *Outcome) Summary() (string, bool) { return o.summary, o.hasSummary }

// NoResultsMessage returns the empty-result message and whether one is present.
func (o *Outcome) NoResultsMessage() (string, bool) {
	return o.noResultsMessage, o.noResultsMessage != ""
}
