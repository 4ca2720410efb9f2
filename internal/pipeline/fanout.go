package pipeline

import (
	"context"

	"github.com/openplume/air-quality-etl/internal/domain"
)

// FanoutLoader dispatches each batch to several loaders in sequence. The
// first failure aborts the fanout, so the pipeline's retry replays the batch
// against every sink; deterministic event IDs make the replay idempotent
// for sinks that already took the batch.
type FanoutLoader struct {
	loaders []BatchLoader
}

// NewFanoutLoader builds a FanoutLoader over the given sinks.
func NewFanoutLoader(loaders ...BatchLoader) *FanoutLoader {
	return &FanoutLoader{loaders: loaders}
}

func (f *FanoutLoader) LoadBatch(ctx context.Context, events []domain.ClassifiedEvent) error {
	for _, l := range f.loaders {
		if err := l.LoadBatch(ctx, events); err != nil {
			return err
		}
	}
	return nil
}
