// Package format turns ranked passages into user-facing recommendations.
// Formatting is pure and idempotent: formatting an already-formatted set
// again changes nothing.
package format

import (
	"sort"
	"strings"

	"github.com/podscout/podscout/internal/domain"
)

const descriptionLimit = 280

// Formatter builds recommendation lists.
type Formatter struct {
	maxResults int
}

// New creates a formatter that emits at most maxResults recommendations.
func New(maxResults int) *Formatter {
	if maxResults < 1 {
		maxResults = 3
	}
	return &Formatter{maxResults: maxResults}
}

// Recommendations converts candidates into the response payload: episodes are
// deduplicated by normalized title keeping the first (highest-confidence)
// occurrence, ordered by confidence descending with source id as tiebreak,
// and truncated to the configured maximum. queryTags annotate each entry with
// the tags it shares with the query.
func (f *Formatter) Recommendations(
	candidates []domain.Candidate, queryTags []string,
) []domain.Recommendation {
	ordered := make([]domain.Candidate, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Confidence() != ordered[j].Confidence() {
			return ordered[i].Confidence() > ordered[j].Confidence()
		}
		return ordered[i].SourceID() < ordered[j].SourceID()
	})

	tagSet := make(map[string]struct{}, len(queryTags))
	for _, t := range queryTags {
		tagSet[normalize(t)] = struct{}{}
	}

	seen := make(map[string]struct{}, len(ordered))
	out := make([]domain.Recommendation, 0, f.maxResults)
	for _, c := range ordered {
		title := c.Provenance().Title
		key := normalize(title)
		if key == "" {
			// Untitled passages are keyed by source so they never collapse
			// into each other.
			key = "src:" + c.SourceID()
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		out = append(out, domain.Recommendation{
			Title:       title,
			Description: truncate(c.Content(), descriptionLimit),
			Link:        c.Provenance().Link,
			Confidence:  c.Confidence(),
			MatchedTags: matchedTags(c.Tags(), tagSet),
		})
		if len(out) == f.maxResults {
			break
		}
	}
	return out
}

func matchedTags(candidateTags []string, queryTags map[string]struct{}) []string {
	var out []string
	seen := make(map[string]struct{}, len(candidateTags))
	for _, t := range candidateTags {
		n := normalize(t)
		if _, ok := queryTags[n]; !ok {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, t)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := s[:limit]
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut + "…"
}
