package expert

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/podscout/podscout/internal/domain"
)

// maxComposedPassages bounds how many passages one stage folds into its
// answer fragment.
const maxComposedPassages = 3

// CategoryStage answers queries from the corpus slice of one category. The
// stage reuses the orchestrator's ranked result when it matches its category
// and retrieves on its own otherwise (the secondary stage of a cross-category
// query).
type CategoryStage struct {
	category  domain.Category
	retriever Retriever
	reranker  Reranker
}

// NewCategoryStage creates an expert for one category.
func NewCategoryStage(category domain.Category, r Retriever, rr Reranker) *CategoryStage {
	return &CategoryStage{category: category, retriever: r, reranker: rr}
}

// Name implements Stage.
func (s *CategoryStage) Name() string { return string(s.category) }

// Process implements Stage.
func (s *CategoryStage) Process(ctx context.Context, req Request) domain.ExpertResponse {
	start := time.Now()

	ranked := req.Ranked
	if s.category != req.Classification.Primary || ranked.Len() == 0 {
		candidates, err := s.retriever.Retrieve(ctx, req.Query, s.category)
		if err != nil {
			resp := domain.DegradedResponse("retrieval failed for "+s.Name(), err)
			resp.Latency = time.Since(start)
			return resp
		}
		ranked = s.reranker.Rerank(candidates, req.Classification.Tags())
	}

	if ranked.Len() == 0 {
		return domain.ExpertResponse{
			Confidence: 0,
			Reasoning:  "no passages matched in " + s.Name(),
			Latency:    time.Since(start),
			Status:     domain.StageNoMatch,
			Metadata:   map[string]string{"candidates": "0"},
		}
	}

	return domain.ExpertResponse{
		Content:    composePassages(ranked.Candidates()),
		Confidence: ranked.Aggregate(),
		Reasoning: fmt.Sprintf(
			"composed from %d passages in %s", min(ranked.Len(), maxComposedPassages), s.Name(),
		),
		Latency: time.Since(start),
		Status:  domain.StageSuccess,
		Metadata: map[string]string{
			"candidates": strconv.Itoa(ranked.Len()),
			"top_source": ranked.Candidates()[0].SourceID(),
		},
	}
}

func composePassages(candidates []domain.Candidate) string {
	n := min(len(candidates), maxComposedPassages)
	parts := make([]string, 0, n)
	for _, c := range candidates[:n] {
		parts = append(parts, c.Content())
	}
	return strings.Join(parts, "\n\n")
}
