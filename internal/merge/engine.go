// Package merge admits extracted candidates into the place store, one record
// per key that is neither already stored nor repeated earlier in the batch.
package merge

import (
	"context"

	"go.uber.org/zap"

	"wanderlog/internal/enrich"
	"wanderlog/internal/extract"
	"wanderlog/internal/models"
	"wanderlog/pkg/logger"
)

// KeySet reports whether a place key is already stored.
type KeySet interface {
	Has(key string) bool
}

// Result is the outcome of one merge. Added holds the net-new records in
// first-seen order, already enriched.
type Result struct {
	Added        []models.Place
	AlreadyKnown int
	InBatch      int
}

// Duplicates is the number of candidates dropped for any dedup reason.
func (r Result) Duplicates() int {
	return r.AlreadyKnown + r.InBatch
}

type Engine struct {
	pipeline *enrich.Pipeline[models.Place]
	log      *zap.Logger
}

// NewEngine returns an Engine that runs every admitted record through
// pipeline. A nil pipeline admits records without a label.
func NewEngine(log *zap.Logger, pipeline *enrich.Pipeline[models.Place]) *Engine {
	return &Engine{pipeline: pipeline, log: logger.OrNop(log)}
}

// Merge never modifies existing records: known keys are dropped, and only
// the first occurrence of a key within candidates is admitted. Enrichment
// runs once per admitted key.
func (e *Engine) Merge(ctx context.Context, existing KeySet, candidates []extract.Candidate, sourceType string) Result {
	var res Result
	seen := make(map[string]struct{}, len(candidates))

	for _, c := range candidates {
		if existing != nil && existing.Has(c.Key) {
			res.AlreadyKnown++
			continue
		}
		if _, dup := seen[c.Key]; dup {
			res.InBatch++
			continue
		}
		seen[c.Key] = struct{}{}

		res.Added = append(res.Added, models.Place{
			Key:        c.Key,
			Latitude:   c.Latitude,
			Longitude:  c.Longitude,
			VisitDate:  c.VisitDate,
			SourceType: sourceType,
			Archived:   false,
		})
	}

	if e.pipeline != nil && len(res.Added) > 0 {
		in := make(chan *models.Place)
		go func() {
			defer close(in)
			for i := range res.Added {
				in <- &res.Added[i]
			}
		}()
		e.pipeline.Process(ctx, in)
	}

	e.log.Info("Merged candidates",
		zap.Int("candidates", len(candidates)),
		zap.Int("added", len(res.Added)),
		zap.Int("already_known", res.AlreadyKnown),
		zap.Int("in_batch", res.InBatch),
		zap.String("source_type", sourceType))
	return res
}
