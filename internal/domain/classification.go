package domain

// Category is a content domain label ("business", "technology", "other", ...).
// The set of categories is configuration-driven, not a closed enum.
type Category string

const (
	// CategoryNone marks an unassigned category.
	CategoryNone Category = ""
	// CategoryOther is the default bucket when no configured category matches.
	CategoryOther Category = "other"
)

// KeywordMatch is one piece of classification evidence.
type KeywordMatch struct {
	Keyword string
	Tag     string
	Exact   bool
}

// Classification is the outcome of query classification.
// Derived once per Query, read-only downstream.
type Classification struct {
	Primary             Category
	PrimaryConfidence   float64
	Secondary           Category
	SecondaryConfidence float64
	CrossCategory       bool
	Evidence            []KeywordMatch
}

// Tags returns the distinct tags extracted as classification evidence,
// in first-seen order.
func (c Classification) Tags() []string {
	seen := make(map[string]struct{}, len(c.Evidence))
	tags := make([]string, 0, len(c.Evidence))
	for _, m := range c.Evidence {
		if _, ok := seen[m.Tag]; ok {
			continue
		}
		seen[m.Tag] = struct{}{}
		tags = append(tags, m.Tag)
	}
	return tags
}
