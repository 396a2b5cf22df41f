// Package rerank adjusts raw retrieval scores by tag overlap between the
// query's classification evidence and each candidate passage. Re-ranking is
// pure and deterministic: no I/O, no randomness, same input same output.
package rerank

import (
	"strings"

	"github.com/podscout/podscout/internal/domain"
)

// Adjusted score blend: similarity dominates, tag overlap nudges.
// adjusted = raw * (baseWeight + overlapWeight * jaccard), so a candidate with
// zero overlap keeps 70% of its raw score and full overlap keeps 100%.
const (
	baseWeight    = 0.7
	overlapWeight = 0.3
)

// Service re-ranks retrieval candidates.
type Service struct {
	policy domain.AggregatePolicy
}

// New creates a re-ranker with the given aggregate policy.
func New(policy domain.AggregatePolicy) *Service {
	return &Service{policy: policy}
}

// Rerank assigns each candidate a confidence adjusted by tag overlap with the
// query tags and returns the candidates ordered by confidence. The overlap
// nudge preserves raw-score ordering among candidates with equal overlap.
func (s *Service) Rerank(candidates []domain.Candidate, queryTags []string) domain.RankedResult {
	adjusted := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		overlap := Jaccard(queryTags, c.Tags())
		conf := clamp01(c.RawScore() * (baseWeight + overlapWeight*overlap))
		adjusted = append(adjusted, c.WithConfidence(conf))
	}
	return domain.NewRankedResult(adjusted, s.policy)
}

// Passthrough ranks candidates on raw score alone, used when tag re-ranking
// is disabled.
func (s *Service) Passthrough(candidates []domain.Candidate) domain.RankedResult {
	adjusted := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		adjusted = append(adjusted, c.WithConfidence(clamp01(c.RawScore())))
	}
	return domain.NewRankedResult(adjusted, s.policy)
}

// Jaccard computes |A∩B| / |A∪B| over case-insensitive tag sets.
// Two empty sets overlap not at all, not fully: a candidate without tags
// must not be boosted.
func Jaccard(a, b []string) float64 {
	setA := toSet(a)
	setB := toSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	inter := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	return float64(inter) / float64(union)
}

func toSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			set[t] = struct{}{}
		}
	}
	return set
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
