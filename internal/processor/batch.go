package processor

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the batch worker count used when none is given
const DefaultConcurrency = 4

// BatchOptions controls ExtractBatch
type BatchOptions struct {
	// Concurrency caps the number of items processed at once
	Concurrency int
	// ContinueOnFail records per-item failures instead of aborting the batch
	ContinueOnFail bool
}

// BatchResult is the outcome for one batch item. Exactly one of Result and
// Err is set.
type BatchResult struct {
	Index  int
	Name   string
	Result *Result
	Err    error
}

// ExtractBatch extracts independent items concurrently. Results are aligned
// with items by index.
//
// Without ContinueOnFail the first failure cancels the remaining items and
// is returned, wrapped with the item's index and name.
func (p *Pipeline) ExtractBatch(ctx context.Context, items []Item, opts BatchOptions) ([]BatchResult, error) {
	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	results := make([]BatchResult, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, item := range items {
		g.Go(func() error {
			res, err := p.Extract(gctx, item)
			results[i] = BatchResult{Index: i, Name: item.Name, Result: res, Err: err}

			if err != nil {
				p.logger.Debug("batch item failed",
					zap.Int("index", i),
					zap.String("file", item.Name),
					zap.Error(err))
				if !opts.ContinueOnFail {
					return fmt.Errorf("item %d (%s): %w", i, item.Name, err)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}

	p.logger.Debug("batch completed", zap.Int("items", len(items)))
	return results, nil
}
