package expert

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/podscout/podscout/internal/domain"
	"github.com/podscout/podscout/internal/logger"
)

// Dispatcher fans a query out to its expert stages on a shared worker pool.
// The pool is the admission control for expert work: bursts queue instead of
// spawning unbounded goroutines.
type Dispatcher struct {
	registry *Registry
	pool     *ants.Pool
}

// NewDispatcher creates a dispatcher with a pool of poolSize workers.
func NewDispatcher(registry *Registry, poolSize int) (*Dispatcher, error) {
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, fmt.Errorf("create expert pool: %w", err)
	}
	return &Dispatcher{registry: registry, pool: pool}, nil
}

// Release shuts the worker pool down. Call on service shutdown.
func (d *Dispatcher) Release() {
	d.pool.Release()
}

// Dispatch runs the stages the classification calls for and joins their
// responses keyed by stage name. The shared whole-corpus stage always runs;
// the primary category stage runs alongside it, and the secondary stage joins
// for cross-category queries. Uncategorized queries collapse to the shared
// stage alone. Each stage fails independently: a panic or pool rejection
// becomes a degraded response for that stage only.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) map[string]domain.ExpertResponse {
	stages := d.selectStages(req.Classification)

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		responses = make(map[string]domain.ExpertResponse, len(stages))
	)

	for _, stage := range stages {
		wg.Add(1)
		if err := d.pool.Submit(d.runStage(ctx, stage, req, &mu, &wg, responses)); err != nil {
			mu.Lock()
			responses[stage.Name()] = domain.DegradedResponse("expert pool rejected stage", err)
			mu.Unlock()
			wg.Done()
		}
	}
	wg.Wait()

	return responses
}

func (d *Dispatcher) runStage(
	ctx context.Context,
	stage Stage,
	req Request,
	mu *sync.Mutex,
	wg *sync.WaitGroup,
	responses map[string]domain.ExpertResponse,
) func() {
	return func() {
		defer wg.Done()

		resp := d.processSafely(ctx, stage, req)

		mu.Lock()
		responses[stage.Name()] = resp
		mu.Unlock()
	}
}

// processSafely converts a stage panic into a degraded response so one broken
// expert cannot take the whole dispatch down.
func (d *Dispatcher) processSafely(
	ctx context.Context, stage Stage, req Request,
) (resp domain.ExpertResponse) {
	defer func() {
		if r := recover(); r != nil {
			logger.FromContext(ctx).Error("Expert stage panicked",
				zap.String("stage", stage.Name()),
				zap.Any("panic", r),
			)
			resp = domain.DegradedResponse("expert stage panicked", fmt.Errorf("%v", r))
		}
	}()
	return stage.Process(ctx, req)
}

func (d *Dispatcher) selectStages(cls domain.Classification) []Stage {
	stages := []Stage{d.registry.Shared()}
	seen := map[string]struct{}{stages[0].Name(): {}}

	add := func(s Stage) {
		if _, ok := seen[s.Name()]; ok {
			return
		}
		seen[s.Name()] = struct{}{}
		stages = append(stages, s)
	}

	add(d.registry.Resolve(cls.Primary))
	if cls.CrossCategory && cls.Secondary != domain.CategoryNone {
		add(d.registry.Resolve(cls.Secondary))
	}
	return stages
}
