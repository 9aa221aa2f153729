package model

import "time"

// Candidate is one scored search result. Candidates are created once per
// unique video id and never mutated afterwards; the aggregator only
// filters and sorts them.
type Candidate struct {
	Query          string         `json:"query"`           // Seed query that surfaced this item
	VideoID        string         `json:"video_id"`        // Stable identity from the search API
	Title          string         `json:"title"`           // Raw title, HTML-unescaped, truncated
	MLScore        float64        `json:"ml_score"`        // Max cosine similarity against the reference corpus
	RuleScore      float64        `json:"rule_score"`      // Weighted regex category score
	CompositeScore float64        `json:"dox_score"`       // 0.40*ml + 0.60*rule
	Severity       Severity       `json:"severity"`        // Derived from composite and rule scores
	Patterns       map[string]int `json:"patterns"`        // Raw per-category match counts (uncapped)
	CapturedAt     time.Time      `json:"timestamp"`       // When the item was scored
}

// Severity is the ordinal risk label for a candidate.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// RunOutcome is the sole artifact handed to callers: the filtered,
// deduplicated, sorted candidates plus run-level flags. The flags stay
// meaningful even when Candidates is empty, so a caller can tell
// "ran cleanly, nothing crossed the threshold" from "could not fetch".
type RunOutcome struct {
	Candidates          []Candidate `json:"candidates"`
	QuotaBlocked        bool        `json:"quota_blocked"`
	AnyRequestSucceeded bool        `json:"any_request_succeeded"`
	RequestFailures     int         `json:"request_failures"`
}
