package worker_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"testing"

	"github.com/glizzus/demovoice/internal/worker"
	"github.com/google/go-cmp/cmp"
)

func TestQueue(t *testing.T) {
	q := worker.NewQueue(1, 2)
	q.Push(3)

	if q.Len() != 3 {
		t.Fatalf("expected 3 items, got %d", q.Len())
	}
	var got []int
	for {
		v, ok := q.Pop()
		if !ok {
			break
		}
		got = append(got, v)
	}
	if diff := cmp.Diff([]int{3, 2, 1}, got); diff != "" {
		t.Errorf("pop order mismatch (-want +got):\n%s", diff)
	}
}

func TestRun(t *testing.T) {
	for _, size := range []int{0, 1, 2, 4, 16} {
		t.Run(fmt.Sprintf("size %d", size), func(t *testing.T) {
			var jobs []int
			for i := 0; i < 50; i++ {
				jobs = append(jobs, i)
			}

			var running, peak atomic.Int32
			results := worker.Run(context.Background(), size, worker.NewQueue(jobs...),
				func(_ context.Context, job int) (int, error) {
					n := running.Add(1)
					defer running.Add(-1)
					for {
						p := peak.Load()
						if n <= p || peak.CompareAndSwap(p, n) {
							break
						}
					}
					if job%10 == 7 {
						return 0, errors.New("unlucky")
					}
					return job * job, nil
				})

			var squares []int
			failures := 0
			for r := range results {
				if r.Err != nil {
					failures++
					continue
				}
				if r.Value != r.Job*r.Job {
					t.Errorf("job %d: expected %d, got %d", r.Job, r.Job*r.Job, r.Value)
				}
				squares = append(squares, r.Value)
			}

			if failures != 5 {
				t.Errorf("expected 5 failures, got %d", failures)
			}
			if len(squares) != 45 {
				t.Errorf("expected 45 successes, got %d", len(squares))
			}
			slices.Sort(squares)
			if squares[0] != 0 || squares[len(squares)-1] != 49*49 {
				t.Errorf("unexpected results %v", squares)
			}
			if limit := int32(max(size, 1)); peak.Load() > limit {
				t.Errorf("expected at most %d concurrent jobs, saw %d", limit, peak.Load())
			}
		})
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := worker.Run(ctx, 4, worker.NewQueue(1, 2, 3), func(context.Context, int) (int, error) {
		return 0, nil
	})
	for range results {
	}
}
