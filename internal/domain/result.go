package domain

import "time"

// Failure reasons recorded for entries that could not be ingested.
const (
	ReasonMissingLink  = "missing link"
	ReasonInvalidLink  = "invalid link"
	ReasonMissingTitle = "missing title"
	ReasonEmptyBody    = "empty body"
)

// FailedEntry records one entry that was skipped because of an error.
type FailedEntry struct {
	Title  string
	URL    string
	Reason string
}

// SourceResult aggregates the outcome of processing one source.
type SourceResult struct {
	SourceID string
	BlogName string
	New      int
	Skipped  int
	Success  bool
	Error    string
	Failed   []FailedEntry
}

// RunReport collects every source result of a single run.
type RunReport struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	DryRun     bool
	Results    []SourceResult
}

// TotalNew sums new articles over all sources.
func (r RunReport) TotalNew() int {
	total := 0
	for _, res := range r.Results {
		total += res.New
	}
	return total
}

// TotalFailed sums failed entries over all sources.
func (r RunReport) TotalFailed() int {
	total := 0
	for _, res := range r.Results {
		total += len(res.Failed)
	}
	return total
}
