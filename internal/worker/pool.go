// Package worker provides the bounded worker pool used to fan probes out and
// line-oriented input reading.
package worker

import (
	"context"
	"log/slog"
	"sync"
)

// Pool runs a function over a fixed set of inputs with at most size calls in
// flight at once.
type Pool[In, Out any] struct {
	size   int
	logger *slog.Logger
}

// NewPool returns a pool with size workers. Sizes below one are raised to one.
func NewPool[In, Out any](size int, logger *slog.Logger) *Pool[In, Out] {
	return &Pool[In, Out]{size: max(1, size), logger: logger}
}

// Process calls fn once for every input and streams the outputs, in completion
// order, on the returned channel. The channel is closed after the last output.
//
// fn is called for every input even after ctx is done, so callers can record
// an outcome per input; fn must return promptly once ctx is done. The output
// channel is buffered for every input, so a consumer that stops reading early
// never blocks the workers.
func (p *Pool[In, Out]) Process(ctx context.Context, inputs []In, fn func(context.Context, In) Out) <-chan Out {
	results := make(chan Out, len(inputs))
	feed := make(chan In, len(inputs))
	for _, in := range inputs {
		feed <- in
	}
	close(feed)

	workers := min(p.size, len(inputs))
	p.logger.Debug("worker pool started", "workers", workers, "jobs", len(inputs))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for in := range feed {
				results <- fn(ctx, in)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}
