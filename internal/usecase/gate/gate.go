// Package gate decides whether local retrieval is confident enough to answer
// or the query must fall back to web search.
package gate

import "github.com/podscout/podscout/internal/domain"

// Reason explains a fallback decision, used as a metric label.
type Reason string

const (
	// ReasonNone means no fallback: local results pass the gate.
	ReasonNone Reason = ""
	// ReasonLowConfidence means the aggregate confidence was below threshold.
	ReasonLowConfidence Reason = "low_confidence"
	// ReasonTooFewCandidates means retrieval returned too few passages.
	ReasonTooFewCandidates Reason = "too_few_candidates"
)

// Gate holds the confidence policy.
type Gate struct {
	threshold     float64
	minCandidates int
}

// New creates a gate. threshold is the aggregate-confidence floor,
// minCandidates the minimum number of retrieved passages.
func New(threshold float64, minCandidates int) *Gate {
	return &Gate{threshold: threshold, minCandidates: minCandidates}
}

// Decide returns the fallback reason for a ranked result, or ReasonNone when
// local results suffice. Candidate count is checked first: an empty result has
// a meaningless aggregate.
func (g *Gate) Decide(r domain.RankedResult) Reason {
	if r.Len() < g.minCandidates {
		return ReasonTooFewCandidates
	}
	if r.Aggregate() < g.threshold {
		return ReasonLowConfidence
	}
	return ReasonNone
}

// Threshold reports the configured confidence floor.
func (g *Gate) Threshold() float64 { return g.threshold }
