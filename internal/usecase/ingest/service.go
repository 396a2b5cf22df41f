// Package ingest writes podcast passages into the vector store.
package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/podscout/podscout/internal/domain"
	"github.com/podscout/podscout/internal/repository/passage"
)

// Repository is the storage contract for ingestion.
type Repository interface {
	Upsert(ctx context.Context, p passage.Passage) error
	Get(ctx context.Context, id string) (passage.Passage, error)
}

// Embedder vectorizes passage content.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Tagger produces tags for untagged passages.
type Tagger interface {
	ExtractTags(ctx context.Context, text string) ([]string, bool)
}

// Input is one passage to ingest.
type Input struct {
	Content    string
	Tags       []string
	Category   domain.Category
	Provenance domain.Provenance
}

// Service embeds and stores passages.
type Service struct {
	repo   Repository
	embed  Embedder
	tagger Tagger
}

// New creates an ingestion service.
func New(repo Repository, embed Embedder, tagger Tagger) *Service {
	return &Service{repo: repo, embed: embed, tagger: tagger}
}

// Upsert writes one passage under the given id. Untagged passages get tags
// from the extractor; an empty extraction is stored as-is.
func (s *Service) Upsert(ctx context.Context, id string, in Input) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("passage id is required")
	}
	if strings.TrimSpace(in.Content) == "" {
		return fmt.Errorf("passage content is required")
	}

	tags := in.Tags
	if len(tags) == 0 && s.tagger != nil {
		tags, _ = s.tagger.ExtractTags(ctx, in.Content)
	}

	category := in.Category
	if category == domain.CategoryNone {
		category = domain.CategoryOther
	}

	emb, err := s.embed.Embed(ctx, in.Content)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
	}

	return s.repo.Upsert(ctx, passage.Passage{
		ID:         id,
		Content:    in.Content,
		Tags:       tags,
		Category:   category,
		Provenance: in.Provenance,
		Vector:     emb.Embedding,
	})
}

// Get loads one stored passage.
func (s *Service) Get(ctx context.Context, id string) (passage.Passage, error) {
	return s.repo.Get(ctx, id)
}
