// Package summary provides the offline summarizer used when no language
// model backend is configured.
package summary

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/kailas-cloud/markdex/internal/domain"
	"github.com/kailas-cloud/markdex/internal/domain/search/result"
)

// DefaultMinScore is the relevance a result needs to be mentioned in a summary.
const DefaultMinScore = 0.55

// Extractive builds a summary from bookmark titles and descriptions without
// generating new text.
type Extractive struct {
	minScore float64
}

// NewExtractive creates an extractive summarizer. minScore outside (0,1] falls back to DefaultMinScore.
func NewExtractive(minScore float64) *Extractive {
	if minScore <= 0 || minScore > 1 {
		minScore = DefaultMinScore
	}
	return &Extractive{minScore: minScore}
}

// Summarize names the qualifying bookmarks and quotes the description
// sentence that shares the most words with the query.
func (e *Extractive) Summarize(
	ctx context.Context, query string, results []result.Ranked, maxResults int,
) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, fmt.Errorf("summarize: %w", err)
	}
	if maxResults <= 0 {
		maxResults = domain.DefaultSummaryResults
	}
	if len(results) > maxResults {
		results = results[:maxResults]
	}

	var picked []result.Ranked
	for _, r := range results {
		if r.Score() >= e.minScore {
			picked = append(picked, r)
		}
	}
	if len(picked) == 0 {
		return "", false, nil
	}

	titles := make([]string, len(picked))
	for i := range picked {
		titles[i] = picked[i].Title()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Your bookmarks about “%s” point to %s.", strings.TrimSpace(query), joinTitles(titles))
	if s := bestSentence(query, picked); s != "" {
		b.WriteByte(' ')
		b.WriteString(s)
	}
	return b.String(), true, nil
}

func joinTitles(titles []string) string {
	switch len(titles) {
	case 1:
		return titles[0]
	case 2:
		return titles[0] + " and " + titles[1]
	default:
		return strings.Join(titles[:len(titles)-1], ", ") + " and " + titles[len(titles)-1]
	}
}

// bestSentence picks the description sentence with the largest query word
// overlap. Ties go to the higher-ranked result; with no overlap at all the
// first sentence of the first described result wins.
func bestSentence(query string, picked []result.Ranked) string {
	terms := wordSet(query)

	best, bestHits := "", 0
	for i := range picked {
		for _, s := range sentences(picked[i].Description()) {
			if best == "" {
				best = s
			}
			hits := 0
			for w := range wordSet(s) {
				if _, ok := terms[w]; ok {
					hits++
				}
			}
			if hits > bestHits {
				best, bestHits = s, hits
			}
		}
	}
	if best == "" {
		return ""
	}

	best = upperFirst(best)
	if !strings.ContainsRune(".!?", lastRune(best)) {
		best += "."
	}
	return best
}

func sentences(text string) []string {
	var out []string
	start := 0
	runes := []rune(text)
	for i, r := range runes {
		end := r == '\n' || (strings.ContainsRune(".!?", r) && (i+1 == len(runes) || unicode.IsSpace(runes[i+1])))
		if !end {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); len(s) > 1 {
			out = append(out, s)
		}
		start = i + 1
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(w) > 2 {
			set[w] = struct{}{}
		}
	}
	return set
}

func upperFirst(s string) string {
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func lastRune(s string) rune {
	r := []rune(s)
	return r[len(r)-1]
}
