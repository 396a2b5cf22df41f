package domain

import (
	"context"
	"testing"
)

func TestNewQuery_Validation(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		requester string
		wantErr   error
	}{
		{"valid", "what about investing?", "user-1", nil},
		{"empty text", "", "user-1", ErrEmptyQuery},
		{"whitespace text", "   \t", "user-1", ErrEmptyQuery},
		{"empty requester", "question", "", ErrMissingRequester},
		{"whitespace requester", "question", "  ", ErrMissingRequester},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewQuery(tt.text, tt.requester, CategoryNone, "", "")
			if err != tt.wantErr {
				t.Errorf("NewQuery() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewQuery_GeneratesTraceID(t *testing.T) {
	q, err := NewQuery("question", "user-1", CategoryNone, "", "")
	if err != nil {
		t.Fatalf("NewQuery: %v", err)
	}
	if q.TraceID() == "" {
		t.Error("expected generated trace id")
	}

	q2, _ := NewQuery("question", "user-1", CategoryNone, "", "trace-42")
	if q2.TraceID() != "trace-42" {
		t.Errorf("TraceID() = %q, want trace-42", q2.TraceID())
	}
}

func TestCandidate_WithConfidenceDerivesCopy(t *testing.T) {
	c := NewCandidate("ep-1", 0.9, "text", []string{"finance"}, "business", Provenance{})
	adjusted := c.WithConfidence(0.72)

	if c.Confidence() != 0.9 {
		t.Errorf("original mutated: Confidence() = %f", c.Confidence())
	}
	if adjusted.Confidence() != 0.72 {
		t.Errorf("adjusted Confidence() = %f, want 0.72", adjusted.Confidence())
	}
	if adjusted.RawScore() != 0.9 {
		t.Errorf("adjusted RawScore() = %f, want 0.9", adjusted.RawScore())
	}
}

func TestNewRankedResult_OrderingAndTies(t *testing.T) {
	cands := []Candidate{
		NewCandidate("z", 0.5, "", nil, "", Provenance{}),
		NewCandidate("a", 0.5, "", nil, "", Provenance{}),
		NewCandidate("m", 0.9, "", nil, "", Provenance{}),
	}

	r := NewRankedResult(cands, AggregateMean)
	got := r.Candidates()
	wantOrder := []string{"m", "a", "z"}
	for i, id := range wantOrder {
		if got[i].SourceID() != id {
			t.Errorf("position %d = %s, want %s", i, got[i].SourceID(), id)
		}
	}
}

func TestNewRankedResult_AggregatePolicies(t *testing.T) {
	cands := []Candidate{
		NewCandidate("a", 0.8, "", nil, "", Provenance{}),
		NewCandidate("b", 0.4, "", nil, "", Provenance{}),
	}

	mean := NewRankedResult(cands, AggregateMean)
	if got := mean.Aggregate(); got != 0.6 {
		t.Errorf("mean aggregate = %f, want 0.6", got)
	}

	max := NewRankedResult(cands, AggregateMax)
	if got := max.Aggregate(); got != 0.8 {
		t.Errorf("max aggregate = %f, want 0.8", got)
	}

	empty := NewRankedResult(nil, AggregateMean)
	if got := empty.Aggregate(); got != 0 {
		t.Errorf("empty aggregate = %f, want 0", got)
	}
}

func TestClassification_TagsDeduplicated(t *testing.T) {
	c := Classification{Evidence: []KeywordMatch{
		{Keyword: "stocks", Tag: "finance", Exact: true},
		{Keyword: "invest", Tag: "finance", Exact: false},
		{Keyword: "startup", Tag: "entrepreneurship", Exact: true},
	}}
	tags := c.Tags()
	if len(tags) != 2 || tags[0] != "finance" || tags[1] != "entrepreneurship" {
		t.Errorf("Tags() = %v", tags)
	}
}

func TestHashEmbedder_Deterministic(t *testing.T) {
	e := NewHashEmbedder(64)

	a, err := e.Embed(context.Background(), "same text")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	b, _ := e.Embed(context.Background(), "same text")
	other, _ := e.Embed(context.Background(), "different text")

	if len(a.Embedding) != 64 {
		t.Fatalf("dimensions = %d, want 64", len(a.Embedding))
	}
	for i := range a.Embedding {
		if a.Embedding[i] != b.Embedding[i] {
			t.Fatalf("vectors differ at %d for identical text", i)
		}
	}

	same := true
	for i := range a.Embedding {
		if a.Embedding[i] != other.Embedding[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different texts produced identical vectors")
	}
}

func TestHashEmbedder_UnitNorm(t *testing.T) {
	e := NewHashEmbedder(128)
	res, _ := e.Embed(context.Background(), "normalize me")

	var norm float64
	for _, v := range res.Embedding {
		norm += float64(v) * float64(v)
	}
	if norm < 0.99 || norm > 1.01 {
		t.Errorf("squared norm = %f, want ~1", norm)
	}
}

func TestDegradedResponse(t *testing.T) {
	r := DegradedResponse("retrieval failed", ErrRetrievalUnavailable)
	if r.Status != StageError {
		t.Errorf("Status = %s, want ERROR", r.Status)
	}
	if r.Confidence != 0.1 {
		t.Errorf("Confidence = %f, want 0.1", r.Confidence)
	}
	if r.Metadata["error"] == "" {
		t.Error("expected error metadata")
	}
}
