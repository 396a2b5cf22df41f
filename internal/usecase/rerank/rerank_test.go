package rerank

import (
	"math"
	"testing"

	"github.com/podscout/podscout/internal/domain"
)

func cand(t *testing.T, id string, raw float64, tags []string) domain.Candidate {
	t.Helper()
	return domain.NewCandidate(id, raw, "content "+id, tags, "business", domain.Provenance{})
}

func TestJaccard(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want float64
	}{
		{"identical", []string{"x", "y"}, []string{"x", "y"}, 1.0},
		{"disjoint", []string{"x"}, []string{"y"}, 0.0},
		{"partial", []string{"x", "y"}, []string{"y", "z"}, 1.0 / 3.0},
		{"both empty", nil, nil, 0.0},
		{"one empty", []string{"x"}, nil, 0.0},
		{"case insensitive", []string{"Startups"}, []string{"startups"}, 1.0},
		{"duplicates collapse", []string{"x", "x", "y"}, []string{"x"}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Jaccard(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Jaccard(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestRerankAdjustsByOverlap(t *testing.T) {
	svc := New(domain.AggregateMean)
	queryTags := []string{"startups", "funding"}

	candidates := []domain.Candidate{
		cand(t, "full", 0.8, []string{"startups", "funding"}),
		cand(t, "none", 0.8, []string{"gardening"}),
	}

	got := svc.Rerank(candidates, queryTags)

	if got.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", got.Len())
	}
	top := got.Candidates()[0]
	if top.SourceID() != "full" {
		t.Errorf("top candidate = %q, want full-overlap one", top.SourceID())
	}
	if math.Abs(top.Confidence()-0.8) > 1e-9 {
		t.Errorf("full-overlap confidence = %v, want 0.8", top.Confidence())
	}
	bottom := got.Candidates()[1]
	if math.Abs(bottom.Confidence()-0.8*0.7) > 1e-9 {
		t.Errorf("zero-overlap confidence = %v, want %v", bottom.Confidence(), 0.8*0.7)
	}
}

func TestRerankPreservesOrderOnEqualOverlap(t *testing.T) {
	svc := New(domain.AggregateMean)

	candidates := []domain.Candidate{
		cand(t, "low", 0.4, []string{"startups"}),
		cand(t, "high", 0.9, []string{"startups"}),
	}

	got := svc.Rerank(candidates, []string{"startups"})

	if got.Candidates()[0].SourceID() != "high" {
		t.Error("raw-score order not preserved for equal overlap")
	}
}

func TestRerankDeterministic(t *testing.T) {
	svc := New(domain.AggregateMean)
	candidates := []domain.Candidate{
		cand(t, "b", 0.5, []string{"x"}),
		cand(t, "a", 0.5, []string{"x"}),
		cand(t, "c", 0.7, nil),
	}

	first := svc.Rerank(candidates, []string{"x"})
	second := svc.Rerank(candidates, []string{"x"})

	for i := range first.Candidates() {
		if first.Candidates()[i].SourceID() != second.Candidates()[i].SourceID() {
			t.Fatalf("non-deterministic order at %d", i)
		}
	}
}

func TestRerankConfidenceClamped(t *testing.T) {
	svc := New(domain.AggregateMax)
	candidates := []domain.Candidate{cand(t, "hot", 1.5, []string{"x"})}

	got := svc.Rerank(candidates, []string{"x"})

	if c := got.Candidates()[0].Confidence(); c > 1.0 {
		t.Errorf("confidence = %v, want <= 1.0", c)
	}
}

func TestPassthrough(t *testing.T) {
	svc := New(domain.AggregateMean)
	candidates := []domain.Candidate{
		cand(t, "a", 0.6, []string{"irrelevant"}),
		cand(t, "b", 0.9, nil),
	}

	got := svc.Passthrough(candidates)

	if got.Candidates()[0].SourceID() != "b" {
		t.Error("passthrough should order by raw score")
	}
	if got.Candidates()[0].Confidence() != 0.9 {
		t.Errorf("confidence = %v, want raw 0.9", got.Candidates()[0].Confidence())
	}
}

func TestRerankEmpty(t *testing.T) {
	svc := New(domain.AggregateMean)

	got := svc.Rerank(nil, []string{"x"})

	if got.Len() != 0 {
		t.Errorf("Len() = %d, want 0", got.Len())
	}
	if got.Aggregate() != 0 {
		t.Errorf("Aggregate() = %v, want 0", got.Aggregate())
	}
}
