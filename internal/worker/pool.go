package worker

import (
	"context"
	"sync"
)

// Job is one unit of scoring work.
type Job func(ctx context.Context) error

type Result struct {
	Err error
}

// Pool fans Jobs out over a fixed number of goroutines. The per-pair
// scoring work is pure and stateless, so jobs may run in any order; the
// caller serializes the final write itself.
type Pool struct {
	workers int
	jobs    chan Job
	wg      sync.WaitGroup
}

func NewPool(workers, buffer int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	return &Pool{
		workers: workers,
		jobs:    make(chan Job, buffer),
	}
}

func (p *Pool) Submit(j Job) {
	if p == nil || j == nil {
		return
	}
	p.jobs <- j
}

// Close signals that no more jobs will be submitted; Run's result channel
// closes once the queued jobs drain.
func (p *Pool) Close() {
	if p == nil {
		return
	}
	close(p.jobs)
}

func (p *Pool) Run(ctx context.Context) <-chan Result {
	out := make(chan Result, p.workers*64)

	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case j, ok := <-p.jobs:
					if !ok {
						return
					}
					if j == nil {
						continue
					}
					err := j(ctx)
					select {
					case <-ctx.Done():
						return
					case out <- Result{Err: err}:
					}
				}
			}
		}()
	}

	go func() {
		p.wg.Wait()
		close(out)
	}()

	return out
}
