package answer

import (
	"context"

	"github.com/podscout/podscout/internal/domain"
	"github.com/podscout/podscout/internal/usecase/expert"
	"github.com/podscout/podscout/internal/usecase/gate"
)

// Classifier assigns a category to a query. Classification never fails.
type Classifier interface {
	Classify(q domain.Query) domain.Classification
}

// Tagger extracts query tags when keyword evidence is empty. The bool reports
// whether the learned-extraction fallback produced them.
type Tagger interface {
	ExtractTags(ctx context.Context, text string) ([]string, bool)
}

// Retriever fetches candidate passages for a category.
type Retriever interface {
	Retrieve(
		ctx context.Context, q domain.Query, category domain.Category,
	) ([]domain.Candidate, error)
}

// Reranker orders candidates by confidence.
type Reranker interface {
	Rerank(candidates []domain.Candidate, queryTags []string) domain.RankedResult
	Passthrough(candidates []domain.Candidate) domain.RankedResult
}

// Gater decides whether local results suffice.
type Gater interface {
	Decide(r domain.RankedResult) gate.Reason
}

// FallbackStage answers via web search when local results fail the gate.
// hint is the classified category, passed through to the provider.
type FallbackStage interface {
	Process(ctx context.Context, q domain.Query, hint domain.Category) domain.ExpertResponse
}

// Dispatcher fans the query out to expert stages.
type Dispatcher interface {
	Dispatch(ctx context.Context, req expert.Request) map[string]domain.ExpertResponse
}

// Formatter builds response recommendations.
type Formatter interface {
	Recommendations(
		candidates []domain.Candidate, queryTags []string,
	) []domain.Recommendation
}

// Synthesizer composes the final answer text from stage responses.
type Synthesizer interface {
	Synthesize(
		ctx context.Context, q domain.Query, responses map[string]domain.ExpertResponse,
	) (string, error)
}
