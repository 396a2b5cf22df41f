// Package classify assigns a content category to an incoming query from
// keyword evidence. Classification is best-effort and never fails: a query
// with no evidence lands in the "other" bucket with zero confidence.
package classify

import (
	"sort"

	"github.com/podscout/podscout/internal/domain"
)

// Per-keyword contribution to a category score. Scores are capped at 1.0.
const (
	exactWeight = 0.25
	fuzzyWeight = 0.15
)

// Policy tunes the cross-category decision.
type Policy struct {
	// CrossPrimaryMin is the primary-confidence floor for routing a query
	// to two category experts.
	CrossPrimaryMin float64
	// CrossSecondaryMin is the secondary-confidence floor.
	CrossSecondaryMin float64
}

// DefaultPolicy requires a confident primary and a non-trivial secondary.
func DefaultPolicy() Policy {
	return Policy{CrossPrimaryMin: 0.6, CrossSecondaryMin: 0.4}
}

// Service classifies queries against the tag table.
type Service struct {
	lookup TagLookup
	policy Policy
}

// New creates a classifier.
func New(lookup TagLookup, policy Policy) *Service {
	return &Service{lookup: lookup, policy: policy}
}

// Classify scores every category mentioned by keyword evidence and picks the
// top two. A query the caller already categorized skips scoring and keeps the
// caller's category with full confidence.
func (s *Service) Classify(q domain.Query) domain.Classification {
	if q.Category() != domain.CategoryNone {
		return domain.Classification{
			Primary:           q.Category(),
			PrimaryConfidence: 1.0,
		}
	}

	matches := s.lookup.Lookup(q.Text())
	if len(matches) == 0 {
		return domain.Classification{Primary: domain.CategoryOther}
	}

	scores := make(map[domain.Category]float64)
	evidence := make([]domain.KeywordMatch, 0, len(matches))
	for _, m := range matches {
		w := fuzzyWeight
		if m.Exact {
			w = exactWeight
		}
		scores[m.Category] = capScore(scores[m.Category] + w)
		evidence = append(evidence, domain.KeywordMatch{
			Keyword: m.Keyword,
			Tag:     m.Tag,
			Exact:   m.Exact,
		})
	}

	ranked := rankCategories(scores)

	out := domain.Classification{
		Primary:           ranked[0].cat,
		PrimaryConfidence: ranked[0].score,
		Evidence:          evidence,
	}
	if len(ranked) > 1 {
		out.Secondary = ranked[1].cat
		out.SecondaryConfidence = ranked[1].score
		out.CrossCategory = out.PrimaryConfidence > s.policy.CrossPrimaryMin &&
			out.SecondaryConfidence > s.policy.CrossSecondaryMin
	}
	return out
}

func capScore(s float64) float64 {
	if s > 1.0 {
		return 1.0
	}
	return s
}

type catScore struct {
	cat   domain.Category
	score float64
}

// rankCategories orders categories by score descending, name ascending on
// ties, so classification is deterministic across runs.
func rankCategories(scores map[domain.Category]float64) []catScore {
	ranked := make([]catScore, 0, len(scores))
	for c, s := range scores {
		ranked = append(ranked, catScore{cat: c, score: s})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].cat < ranked[j].cat
	})
	return ranked
}
