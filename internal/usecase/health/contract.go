package health

import "context"

// DBPinger checks vector store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// WebSearchChecker checks the fallback search provider availability.
type WebSearchChecker interface {
	HealthCheck(ctx context.Context) error
}
