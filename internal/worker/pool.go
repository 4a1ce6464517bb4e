package worker

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Result pairs one input with whatever processing it produced.
type Result[T, R any] struct {
	Input T
	Value R
	Err   error
}

// ProcessFunc handles a single input.
type ProcessFunc[T, R any] func(ctx context.Context, input T) (R, error)

// Pool fans inputs out over a fixed number of goroutines and collects
// results in input order.
type Pool[T, R any] struct {
	workers int
	process ProcessFunc[T, R]
}

// NewPool creates a pool with the given concurrency.
func NewPool[T, R any](workers int, fn ProcessFunc[T, R]) *Pool[T, R] {
	if workers < 1 {
		workers = 1
	}
	return &Pool[T, R]{workers: workers, process: fn}
}

// Execute runs every input through the pool. After the context is
// cancelled the remaining inputs are not processed; their result slots
// carry the context error so callers can tell them apart from work
// that ran.
func (p *Pool[T, R]) Execute(ctx context.Context, inputs []T) []Result[T, R] {
	results := make([]Result[T, R], len(inputs))

	indexCh := make(chan int, len(inputs))
	for i := range inputs {
		indexCh <- i
	}
	close(indexCh)

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for idx := range indexCh {
				if err := ctx.Err(); err != nil {
					results[idx] = Result[T, R]{Input: inputs[idx], Err: err}
					continue
				}
				value, err := p.process(ctx, inputs[idx])
				results[idx] = Result[T, R]{Input: inputs[idx], Value: value, Err: err}
				if err != nil {
					log.Error().Err(err).Int("worker", workerID).Int("index", idx).Msg("Task failed")
				}
			}
		}(w)
	}
	wg.Wait()
	return results
}

// Batch splits items into chunks of at most batchSize.
func Batch[T any](items []T, batchSize int) [][]T {
	if batchSize <= 0 {
		batchSize = 1
	}
	var batches [][]T
	for i := 0; i < len(items); i += batchSize {
		end := i + batchSize
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[i:end])
	}
	return batches
}
