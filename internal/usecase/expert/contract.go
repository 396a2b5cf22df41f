package expert

import (
	"context"

	"github.com/podscout/podscout/internal/domain"
)

// Request carries everything a stage needs to compose its part of the answer.
type Request struct {
	Query          domain.Query
	Classification domain.Classification
	// Ranked is the orchestrator's re-ranked retrieval for the primary
	// category. Stages for other categories run their own retrieval.
	Ranked domain.RankedResult
}

// Stage is one expert in the composition pipeline. Stages degrade in place:
// Process returns a low-confidence response on failure, never panics.
type Stage interface {
	Name() string
	Process(ctx context.Context, req Request) domain.ExpertResponse
}

// Retriever fetches candidate passages for a category.
type Retriever interface {
	Retrieve(
		ctx context.Context, q domain.Query, category domain.Category,
	) ([]domain.Candidate, error)
}

// Reranker orders candidates by tag-adjusted confidence.
type Reranker interface {
	Rerank(candidates []domain.Candidate, queryTags []string) domain.RankedResult
}
