package classify

import (
	"testing"

	"github.com/podscout/podscout/internal/domain"
	"github.com/podscout/podscout/internal/tagindex"
)

type staticLookup struct {
	matches []tagindex.Match
}

func (s *staticLookup) Lookup(_ string) []tagindex.Match { return s.matches }

func mustQuery(t *testing.T, text string, category domain.Category) domain.Query {
	t.Helper()
	q, err := domain.NewQuery(text, "tester", category, "", "")
	if err != nil {
		t.Fatalf("NewQuery() error = %v", err)
	}
	return q
}

func TestClassifyNoEvidence(t *testing.T) {
	svc := New(&staticLookup{}, DefaultPolicy())

	got := svc.Classify(mustQuery(t, "tell me something nice", domain.CategoryNone))

	if got.Primary != domain.CategoryOther {
		t.Errorf("Primary = %q, want other", got.Primary)
	}
	if got.PrimaryConfidence != 0 {
		t.Errorf("PrimaryConfidence = %v, want 0", got.PrimaryConfidence)
	}
	if got.CrossCategory {
		t.Error("CrossCategory = true, want false")
	}
}

func TestClassifyScoring(t *testing.T) {
	tests := []struct {
		name           string
		matches        []tagindex.Match
		wantPrimary    domain.Category
		wantPrimConf   float64
		wantSecondary  domain.Category
		wantCross      bool
	}{
		{
			name: "single exact match",
			matches: []tagindex.Match{
				{Keyword: "startup", Tag: "startups", Category: "business", Exact: true},
			},
			wantPrimary:  "business",
			wantPrimConf: 0.25,
		},
		{
			name: "exact and fuzzy accumulate",
			matches: []tagindex.Match{
				{Keyword: "startup", Tag: "startups", Category: "business", Exact: true},
				{Keyword: "fund", Tag: "funding", Category: "business", Exact: false},
			},
			wantPrimary:  "business",
			wantPrimConf: 0.40,
		},
		{
			name: "score capped at one",
			matches: []tagindex.Match{
				{Keyword: "a", Tag: "t1", Category: "business", Exact: true},
				{Keyword: "b", Tag: "t2", Category: "business", Exact: true},
				{Keyword: "c", Tag: "t3", Category: "business", Exact: true},
				{Keyword: "d", Tag: "t4", Category: "business", Exact: true},
				{Keyword: "e", Tag: "t5", Category: "business", Exact: true},
			},
			wantPrimary:  "business",
			wantPrimConf: 1.0,
		},
		{
			name: "cross category when both strong",
			matches: []tagindex.Match{
				{Keyword: "a", Tag: "t1", Category: "business", Exact: true},
				{Keyword: "b", Tag: "t2", Category: "business", Exact: true},
				{Keyword: "c", Tag: "t3", Category: "business", Exact: true},
				{Keyword: "d", Tag: "t4", Category: "technology", Exact: true},
				{Keyword: "e", Tag: "t5", Category: "technology", Exact: true},
			},
			wantPrimary:   "business",
			wantPrimConf:  0.75,
			wantSecondary: "technology",
			wantCross:     true,
		},
		{
			name: "weak secondary does not cross",
			matches: []tagindex.Match{
				{Keyword: "a", Tag: "t1", Category: "business", Exact: true},
				{Keyword: "b", Tag: "t2", Category: "business", Exact: true},
				{Keyword: "c", Tag: "t3", Category: "business", Exact: true},
				{Keyword: "d", Tag: "t4", Category: "technology", Exact: false},
			},
			wantPrimary:   "business",
			wantPrimConf:  0.75,
			wantSecondary: "technology",
			wantCross:     false,
		},
		{
			name: "tie broken by category name",
			matches: []tagindex.Match{
				{Keyword: "a", Tag: "t1", Category: "technology", Exact: true},
				{Keyword: "b", Tag: "t2", Category: "business", Exact: true},
			},
			wantPrimary:   "business",
			wantPrimConf:  0.25,
			wantSecondary: "technology",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := New(&staticLookup{matches: tt.matches}, DefaultPolicy())

			got := svc.Classify(mustQuery(t, "query", domain.CategoryNone))

			if got.Primary != tt.wantPrimary {
				t.Errorf("Primary = %q, want %q", got.Primary, tt.wantPrimary)
			}
			if diff := got.PrimaryConfidence - tt.wantPrimConf; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("PrimaryConfidence = %v, want %v", got.PrimaryConfidence, tt.wantPrimConf)
			}
			if got.Secondary != tt.wantSecondary {
				t.Errorf("Secondary = %q, want %q", got.Secondary, tt.wantSecondary)
			}
			if got.CrossCategory != tt.wantCross {
				t.Errorf("CrossCategory = %v, want %v", got.CrossCategory, tt.wantCross)
			}
		})
	}
}

func TestClassifyPresetCategory(t *testing.T) {
	svc := New(&staticLookup{matches: []tagindex.Match{
		{Keyword: "startup", Tag: "startups", Category: "business", Exact: true},
	}}, DefaultPolicy())

	got := svc.Classify(mustQuery(t, "startup advice", domain.Category("technology")))

	if got.Primary != "technology" {
		t.Errorf("Primary = %q, want caller-provided technology", got.Primary)
	}
	if got.PrimaryConfidence != 1.0 {
		t.Errorf("PrimaryConfidence = %v, want 1.0", got.PrimaryConfidence)
	}
}

func TestClassifyEvidencePreserved(t *testing.T) {
	svc := New(&staticLookup{matches: []tagindex.Match{
		{Keyword: "startup", Tag: "startups", Category: "business", Exact: true},
		{Keyword: "fund", Tag: "funding", Category: "business", Exact: false},
	}}, DefaultPolicy())

	got := svc.Classify(mustQuery(t, "startup funding", domain.CategoryNone))

	if len(got.Evidence) != 2 {
		t.Fatalf("Evidence length = %d, want 2", len(got.Evidence))
	}
	if got.Evidence[0].Tag != "startups" || !got.Evidence[0].Exact {
		t.Errorf("Evidence[0] = %+v", got.Evidence[0])
	}
	tags := got.Tags()
	if len(tags) != 2 || tags[0] != "startups" || tags[1] != "funding" {
		t.Errorf("Tags() = %v", tags)
	}
}
