package domain

import "sort"

// AggregatePolicy selects how member confidences fold into one value.
type AggregatePolicy string

const (
	// AggregateMean averages member confidences.
	AggregateMean AggregatePolicy = "mean"
	// AggregateMax takes the best member confidence.
	AggregateMax AggregatePolicy = "max"
)

// RankedResult is an ordered candidate list plus an aggregate confidence.
// Ordering is descending by adjusted confidence, ties broken by source id
// ascending so repeated runs produce identical output.
type RankedResult struct {
	candidates []Candidate
	aggregate  float64
}

// NewRankedResult sorts the candidates and computes the aggregate confidence
// under the given policy. The input slice is not retained.
func NewRankedResult(candidates []Candidate, policy AggregatePolicy) RankedResult {
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Confidence() != sorted[j].Confidence() {
			return sorted[i].Confidence() > sorted[j].Confidence()
		}
		return sorted[i].SourceID() < sorted[j].SourceID()
	})
	return RankedResult{candidates: sorted, aggregate: aggregate(sorted, policy)}
}

func aggregate(candidates []Candidate, policy AggregatePolicy) float64 {
	if len(candidates) == 0 {
		return 0
	}
	if policy == AggregateMax {
		return candidates[0].Confidence()
	}
	var sum float64
	for i := range candidates {
		sum += candidates[i].Confidence()
	}
	return sum / float64(len(candidates))
}

// Candidates returns the ordered candidates.
func (r *RankedResult) Candidates() []Candidate { return r.candidates }

// Aggregate returns the folded confidence.
func (r *RankedResult) Aggregate() float64 { return r.aggregate }

// Len returns the candidate count.
func (r *RankedResult) Len() int { return len(r.candidates) }
