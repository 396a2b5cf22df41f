// Package fallback answers queries the local corpus cannot, by dispatching
// them to an external web search provider.
package fallback

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/podscout/podscout/internal/domain"
	"github.com/podscout/podscout/internal/logger"
)

// failureConfidence caps what a failed or empty web search may report. The
// gate already judged local results insufficient, so a failed fallback must
// not outrank them.
const failureConfidence = 0.3

// Service wraps a web search provider as a pipeline stage.
type Service struct {
	searcher          Searcher
	successConfidence float64
	maxResults        int
}

// New creates a fallback stage. successConfidence is the fixed confidence a
// successful web search reports (the provider returns no comparable score).
func New(searcher Searcher, successConfidence float64, maxResults int) *Service {
	if maxResults < 1 {
		maxResults = 3
	}
	return &Service{
		searcher:          searcher,
		successConfidence: successConfidence,
		maxResults:        maxResults,
	}
}

// Process dispatches the query to web search and folds the outcome into a
// stage response. hint is the classified category, forwarded to the provider
// as a domain hint. Provider failures degrade: the response carries the error
// in metadata at low confidence, never an error return.
func (s *Service) Process(ctx context.Context, q domain.Query, hint domain.Category) domain.ExpertResponse {
	start := time.Now()
	log := logger.FromContext(ctx)

	results, err := s.searcher.Search(ctx, q.Text(), hint)
	latency := time.Since(start)

	if err != nil {
		log.Warn("Web search failed",
			zap.String("trace_id", q.TraceID()),
			zap.Error(err),
		)
		resp := domain.DegradedResponse("web search unavailable", err)
		resp.Confidence = failureConfidence
		resp.Latency = latency
		return resp
	}

	if len(results) == 0 {
		return domain.ExpertResponse{
			Confidence: failureConfidence,
			Reasoning:  "web search returned no results",
			Latency:    latency,
			Status:     domain.StageNoMatch,
			Metadata:   map[string]string{"results": "0"},
		}
	}

	if len(results) > s.maxResults {
		results = results[:s.maxResults]
	}

	return domain.ExpertResponse{
		Content:    renderResults(results),
		Confidence: s.successConfidence,
		Reasoning:  fmt.Sprintf("answered from %d web search results", len(results)),
		Latency:    latency,
		Status:     domain.StageSuccess,
		Metadata:   map[string]string{"results": strconv.Itoa(len(results))},
	}
}

func renderResults(results []WebResult) string {
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(r.Title)
		if r.Snippet != "" {
			b.WriteString("\n")
			b.WriteString(r.Snippet)
		}
		if r.URL != "" {
			b.WriteString("\n")
			b.WriteString(r.URL)
		}
	}
	return b.String()
}
