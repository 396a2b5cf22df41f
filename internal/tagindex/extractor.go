package tagindex

import (
	"context"
	"sort"
)

// stopwords excluded from heuristic tag extraction.
var stopwords = map[string]struct{}{
	"a": {}, "about": {}, "an": {}, "and": {}, "any": {}, "are": {}, "as": {},
	"at": {}, "be": {}, "best": {}, "can": {}, "do": {}, "does": {}, "episode": {},
	"for": {}, "from": {}, "good": {}, "have": {}, "how": {}, "i": {}, "in": {},
	"is": {}, "it": {}, "like": {}, "me": {}, "of": {}, "on": {}, "or": {},
	"podcast": {}, "podcasts": {}, "recommend": {}, "show": {}, "shows": {},
	"some": {}, "tell": {}, "that": {}, "the": {}, "this": {}, "to": {},
	"want": {}, "what": {}, "which": {}, "with": {}, "you": {},
}

const maxHeuristicTags = 5

// HeuristicExtractor derives tags from content words of the text itself. It
// is the offline stand-in for the learned extraction model and keeps the
// fallback path deterministic in tests.
type HeuristicExtractor struct{}

// Extract implements Extractor. Tags are the distinct non-stopword tokens of
// at least four characters, sorted, capped at maxHeuristicTags.
func (HeuristicExtractor) Extract(_ context.Context, text string) ([]string, error) {
	seen := make(map[string]struct{})
	var tags []string
	for _, tok := range Tokenize(text) {
		if len(tok) < 4 {
			continue
		}
		if _, ok := stopwords[tok]; ok {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		tags = append(tags, tok)
	}
	sort.Strings(tags)
	if len(tags) > maxHeuristicTags {
		tags = tags[:maxHeuristicTags]
	}
	return tags, nil
}
