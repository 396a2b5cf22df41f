package fallback

import (
	"context"

	"github.com/podscout/podscout/internal/domain"
)

// WebResult is one hit from an external search provider.
type WebResult struct {
	Title   string
	Snippet string
	URL     string
}

// Searcher queries an external web search provider. hint narrows the search
// to a content category; CategoryNone and CategoryOther mean unrestricted.
type Searcher interface {
	Search(ctx context.Context, query string, hint domain.Category) ([]WebResult, error)
}
