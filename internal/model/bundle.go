package model

import "time"

// SearchSummary describes one pipeline run: what was searched, what each
// source returned, and how long the fan-out took.
type SearchSummary struct {
	RunID            string         `json:"run_id"`
	UserQuery        string         `json:"user_query"`
	SourcesSearched  []string       `json:"sources_searched"`
	ResultsFound     map[string]int `json:"results_found"`
	FullTextStrategy string         `json:"full_text_strategy"`
	SearchTimeSec    float64        `json:"search_time_seconds"`
	Timestamp        time.Time      `json:"timestamp"`
	Degradations     []Degradation  `json:"degradations,omitempty"`
}

// DefaultSources lists the registries every run queries
func DefaultSources() []string {
	return []string{"OpenFDA", "PubMed/PMC", "ClinicalTrials.gov"}
}

// FullTextStrategyNote is the fixed strategy statement carried in every summary
const FullTextStrategyNote = "Claims generated only from full-text articles (PMC)"

// Exclusion records a candidate that was relevant but dropped, with a
// human-readable note
type Exclusion struct {
	Source  SourceKind `json:"source"`
	ID      string     `json:"id"` // PMID for literature exclusions
	Title   string     `json:"title,omitempty"`
	Journal string     `json:"journal,omitempty"`
	Year    int        `json:"year,omitempty"`
	Authors string     `json:"authors,omitempty"`
	DOI     string     `json:"doi,omitempty"`
	Reason  string     `json:"reason"`
	Note    string     `json:"note,omitempty"`
}

// Exclusion reasons surfaced in the bundle
const (
	ExclusionNoFullText       = "full text not available"
	ExclusionGenerationFailed = "claim generation failed"
)

// PaywalledNote is the original wording carried on full-text exclusions
const PaywalledNote = "Relevant but full text not available in PMC - paywalled"

// ResultBundle is the terminal artifact of a pipeline run. It is assembled
// incrementally by orchestrator, ranker, generator and validator, then
// returned immutable to the caller.
type ResultBundle struct {
	Summary        SearchSummary `json:"search_summary"`
	Claims         []Claim       `json:"claims"`
	Excluded       []Exclusion   `json:"excluded_candidates,omitempty"`
	Recommendation string        `json:"recommendation,omitempty"`
}

// ExcludedByReason counts exclusions carrying the given reason
func (b *ResultBundle) ExcludedByReason(reason string) int {
	n := 0
	for _, e := range b.Excluded {
		if e.Reason == reason {
			n++
		}
	}
	return n
}
