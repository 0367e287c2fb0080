package markdex

import "time"

// Bookmark is one record handed to Index. Description is optional.
type Bookmark struct {
	Title       string
	URL         string
	Description string
}

// Failure describes a bookmark that was not indexed.
type Failure struct {
	URL     string
	Kind    string
	Message string
}

// IndexReport summarizes one Index call.
type IndexReport struct {
	Attempted  int
	Succeeded  int
	Failed     int
	Removed    int
	Duplicates int
	Failures   []Failure
	Cancelled  bool
	Duration   time.Duration
}

// Result is a single ranked hit. Rank starts at 1.
type Result struct {
	URL         string
	Title       string
	Description string
	Score       float64
	Rank        int
}

// SearchOutcome is the answer to a query. An empty Results always carries
// NoResultsMessage and never a summary.
type SearchOutcome struct {
	Results          []Result
	Summary          string
	HasSummary       bool
	NoResultsMessage string
}

// Stats reports the index state.
type Stats struct {
	Size       int
	Dimension  int
	Halted     bool
	ANNEnabled bool
	ANNActive  bool
}
