package expert

import (
	"github.com/podscout/podscout/internal/domain"
)

// Registry maps categories to their expert stages. Built once at startup,
// read-only afterwards.
type Registry struct {
	stages map[domain.Category]Stage
	shared Stage
}

// NewRegistry creates a registry. shared is the whole-corpus retrieval stage:
// it runs on every dispatch and serves categories without a dedicated expert.
func NewRegistry(shared Stage) *Registry {
	return &Registry{
		stages: make(map[domain.Category]Stage),
		shared: shared,
	}
}

// Register binds a stage to a category, replacing any previous binding.
func (r *Registry) Register(category domain.Category, s Stage) {
	r.stages[category] = s
}

// Shared returns the whole-corpus retrieval stage.
func (r *Registry) Shared() Stage { return r.shared }

// Resolve returns the stage for a category, or the shared stage when the
// category has no dedicated expert.
func (r *Registry) Resolve(category domain.Category) Stage {
	if s, ok := r.stages[category]; ok {
		return s
	}
	return r.shared
}
