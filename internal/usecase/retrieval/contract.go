package retrieval

import (
	"context"

	"github.com/podscout/podscout/internal/domain"
)

// Repository defines the storage contract for passage retrieval.
type Repository interface {
	SearchKNN(
		ctx context.Context, vector []float32, topK int, category domain.Category,
	) ([]domain.Candidate, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
