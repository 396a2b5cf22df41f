// Package retrieval embeds queries and fetches nearest passages from the
// vector store.
package retrieval

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/podscout/podscout/internal/domain"
)

// Service runs vector retrieval with a bound on concurrent searches. The
// semaphore protects the store from dispatch fan-out: cross-category queries
// issue several searches at once.
type Service struct {
	repo     Repository
	embed    Embedder
	topK     int
	inflight *semaphore.Weighted
}

// New creates a retrieval service. maxInflight caps concurrent store
// searches across all requests.
func New(repo Repository, embed Embedder, topK int, maxInflight int64) *Service {
	if maxInflight < 1 {
		maxInflight = 1
	}
	return &Service{
		repo:     repo,
		embed:    embed,
		topK:     topK,
		inflight: semaphore.NewWeighted(maxInflight),
	}
}

// Retrieve embeds the query text and returns the nearest passages, optionally
// pre-filtered by category. CategoryOther and CategoryNone search the whole
// corpus. Errors are returned for the caller to degrade; Retrieve never
// panics and never returns partial garbage.
func (s *Service) Retrieve(
	ctx context.Context, q domain.Query, category domain.Category,
) ([]domain.Candidate, error) {
	emb, err := s.embed.Embed(ctx, q.Text())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
	}

	if err := s.inflight.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire search slot: %w", err)
	}
	defer s.inflight.Release(1)

	filter := category
	if filter == domain.CategoryOther {
		filter = domain.CategoryNone
	}

	candidates, err := s.repo.SearchKNN(ctx, emb.Embedding, s.topK, filter)
	if err != nil {
		return nil, fmt.Errorf("search passages: %w", err)
	}
	return candidates, nil
}
