package enrich

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"wanderlog/pkg/logger"
)

// Pipeline runs its stages over each place handed to it. A failing step is
// logged and never stops the place or the batch.
type Pipeline[T any] struct {
	log    *zap.Logger
	stages []Stage[T]
}

func NewPipeline[T any](log *zap.Logger, stages ...Stage[T]) *Pipeline[T] {
	return &Pipeline[T]{log: logger.OrNop(log), stages: stages}
}

// Process applies the stages to every item received until in is closed.
// Cancelling ctx is left to the steps; the loop itself drains the channel.
func (p *Pipeline[T]) Process(ctx context.Context, in <-chan *T) {
	for item := range in {
		p.Apply(ctx, item)
	}
}

// Apply runs every stage against a single item.
func (p *Pipeline[T]) Apply(ctx context.Context, item *T) {
	for _, stage := range p.stages {
		var wg sync.WaitGroup
		for _, step := range stage.steps {
			wg.Add(1)
			go func(step Step[T]) {
				defer wg.Done()
				if err := step(ctx, item); err != nil {
					p.log.Warn("Step failed", zap.Error(err))
				}
			}(step)
		}
		wg.Wait() // stage barrier
	}
}
