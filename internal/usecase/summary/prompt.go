package summary

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/markdex/internal/domain"
	"github.com/kailas-cloud/markdex/internal/domain/search/result"
)

// NoneReply is what a language model answers when no bookmark addresses the query.
const NoneReply = "NONE"

// SystemPrompt instructs a language model how to summarize bookmarks.
const SystemPrompt = "You summarize a user's saved bookmarks. Answer the question in 2-3 sentences " +
	"using only the bookmarks listed. If none of them address the question, reply with exactly " + NoneReply + "."

// BuildPrompt renders the query and at most maxResults bookmarks as a user message.
func BuildPrompt(query string, results []result.Ranked, maxResults int) string {
	if maxResults <= 0 {
		maxResults = domain.DefaultSummaryResults
	}
	if len(results) > maxResults {
		results = results[:maxResults]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\nBookmarks:\n", strings.TrimSpace(query))
	for i := range results {
		r := &results[i]
		fmt.Fprintf(&b, "%d. %s (%s)", r.Rank(), r.Title(), r.URL())
		if d := r.Description(); d != "" {
			fmt.Fprintf(&b, ": %s", d)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// ParseReply turns a model reply into a summary. Blank and NONE replies are absent.
func ParseReply(reply string) (string, bool) {
	reply = strings.TrimSpace(reply)
	if reply == "" || strings.EqualFold(strings.Trim(reply, ".\"'` "), NoneReply) {
		return "", false
	}
	return reply, true
}
