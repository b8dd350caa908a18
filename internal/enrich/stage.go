// Package enrich fills in derived fields of newly admitted places. Work is
// split into stages run in order; the steps of one stage run concurrently on
// the same place.
package enrich

import (
	"context"
)

// Step derives one or more fields of item in place. Steps of the same stage
// run at the same time, so each must write fields no sibling step touches.
// A returned error is logged by the pipeline and the place keeps whatever the
// step managed to set.
//
//	func tagSource(ctx context.Context, p *models.Place) error { p.SourceType = "manual"; return nil }
type Step[T any] func(ctx context.Context, item *T) error

// Stage is a set of steps with no ordering between them. The pipeline waits
// for the whole stage before starting the next one, so a later stage may read
// what an earlier one wrote (a description built from the label, say).
type Stage[T any] struct {
	steps []Step[T]
}

func NewStage[T any](steps ...Step[T]) Stage[T] {
	return Stage[T]{steps: steps}
}
