// Package worker runs independent jobs on a fixed pool of goroutines.
package worker

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Queue is a mutex-guarded stack of pending jobs shared by the workers of a
// pool.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T
}

func NewQueue[T any](items ...T) *Queue[T] {
	return &Queue[T]{items: items}
}

func (q *Queue[T]) Push(items ...T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, items...)
}

// Pop removes and returns the most recently pushed job. It reports false when
// the queue is empty.
func (q *Queue[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	last := len(q.items) - 1
	item := q.items[last]
	q.items[last] = zero
	q.items = q.items[:last]
	return item, true
}

func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Result is the outcome of one job. A failed job is a Result with Err set,
// not a failure of the pool.
type Result[J, R any] struct {
	Job   J
	Value R
	Err   error
}

// Handler processes one job.
type Handler[J, R any] func(ctx context.Context, job J) (R, error)

// Run starts size workers that drain queue with handle and returns the
// channel their results are sent on. The channel is closed once every worker
// has exited, which happens when the queue is empty or ctx is done. The
// caller must drain the channel.
func Run[J, R any](ctx context.Context, size int, queue *Queue[J], handle Handler[J, R]) <-chan Result[J, R] {
	if size < 1 {
		size = 1
	}

	results := make(chan Result[J, R])
	g, ctx := errgroup.WithContext(ctx)

	for i := 0; i < size; i++ {
		g.Go(func() error {
			for {
				if err := ctx.Err(); err != nil {
					return err
				}
				job, ok := queue.Pop()
				if !ok {
					return nil
				}
				value, err := handle(ctx, job)
				select {
				case results <- Result[J, R]{Job: job, Value: value, Err: err}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		})
	}

	go func() {
		g.Wait()
		close(results)
	}()

	return results
}
