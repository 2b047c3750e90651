// Package parallel provides the worker pool used for column-pair work such as
// the correlation matrix.
//
// ProcessIndexed fans items out to a fixed number of goroutines and collects
// the results back in input order, so callers get deterministic output
// regardless of scheduling. The pool is bound to a context; cancelling it
// stops workers from picking up new items.
package parallel

import (
	"context"
	"runtime"
	"sync"
)

// WorkerPool manages a pool of goroutines for parallel processing
type WorkerPool struct {
	numWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(numWorkers int) *WorkerPool {
	return NewWorkerPoolWithContext(context.Background(), numWorkers)
}

// NewWorkerPoolWithContext creates a worker pool that stops when parent is done
func NewWorkerPoolWithContext(parent context.Context, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(parent)

	return &WorkerPool{
		numWorkers: numWorkers,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Workers returns the number of goroutines the pool runs
func (wp *WorkerPool) Workers() int {
	return wp.numWorkers
}

// Err reports why the pool stopped, or nil while it is running
func (wp *WorkerPool) Err() error {
	return wp.ctx.Err()
}

// ProcessIndexed executes work items in parallel while preserving order.
// Items skipped because the pool was cancelled leave the zero value in
// place; check Err afterwards.
func ProcessIndexed[T, R any](
	wp *WorkerPool,
	items []T,
	worker func(int, T) R,
) []R {
	if len(items) == 0 {
		return nil
	}

	// Channel for input items with index
	itemCh := make(chan indexedItem[T], len(items))

	// Channel for results with index
	resultCh := make(chan indexedResult[R], len(items))

	// Start workers
	var wg sync.WaitGroup
	for i := 0; i < wp.numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range itemCh {
				select {
				case <-wp.ctx.Done():
					return
				default:
					result := worker(item.index, item.value)
					resultCh <- indexedResult[R]{
						index:  item.index,
						result: result,
					}
				}
			}
		}()
	}

	// Send items to workers
	go func() {
		defer close(itemCh)
		for i, item := range items {
			select {
			case <-wp.ctx.Done():
				return
			case itemCh <- indexedItem[T]{index: i, value: item}:
			}
		}
	}()

	// Close result channel when all workers are done
	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// Collect results and maintain order
	results := make([]R, len(items))
	for result := range resultCh {
		results[result.index] = result.result
	}

	return results
}

// Close shuts down the worker pool
func (wp *WorkerPool) Close() {
	wp.cancel()
}

// indexedItem holds an item with its index
type indexedItem[T any] struct {
	index int
	value T
}

// indexedResult holds a result with its index
type indexedResult[R any] struct {
	index  int
	result R
}
