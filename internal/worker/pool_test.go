package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPool_RunsAllJobs(t *testing.T) {
	p := NewPool(4, 16)
	results := p.Run(context.Background())

	var counter atomic.Int64
	const jobs = 100
	for i := 0; i < jobs; i++ {
		p.Submit(func(context.Context) error {
			counter.Add(1)
			return nil
		})
	}
	p.Close()

	got := 0
	for res := range results {
		if res.Err != nil {
			t.Fatalf("unexpected job error: %v", res.Err)
		}
		got++
	}
	if got != jobs {
		t.Fatalf("expected %d results, got %d", jobs, got)
	}
	if counter.Load() != jobs {
		t.Fatalf("expected %d executions, got %d", jobs, counter.Load())
	}
}

func TestPool_ReportsJobErrors(t *testing.T) {
	p := NewPool(2, 4)
	results := p.Run(context.Background())

	boom := errors.New("boom")
	p.Submit(func(context.Context) error { return boom })
	p.Submit(func(context.Context) error { return nil })
	p.Close()

	var sawErr bool
	for res := range results {
		if res.Err != nil {
			if !errors.Is(res.Err, boom) {
				t.Fatalf("unexpected error: %v", res.Err)
			}
			sawErr = true
		}
	}
	if !sawErr {
		t.Fatalf("expected the failing job's error to surface")
	}
}

func TestPool_DrainsPastErrorUnderBackpressure(t *testing.T) {
	p := NewPool(1, 256)
	results := p.Run(context.Background())

	// More jobs than the results buffer holds, failing first: a consumer
	// that keeps ranging must still see every result without deadlock.
	boom := errors.New("boom")
	const jobs = 200
	p.Submit(func(context.Context) error { return boom })
	for i := 1; i < jobs; i++ {
		p.Submit(func(context.Context) error { return nil })
	}
	p.Close()

	done := make(chan int)
	go func() {
		var firstErr error
		n := 0
		for res := range results {
			if res.Err != nil && firstErr == nil {
				firstErr = res.Err
			}
			n++
		}
		if !errors.Is(firstErr, boom) {
			t.Errorf("expected the first error retained, got %v", firstErr)
		}
		done <- n
	}()

	select {
	case n := <-done:
		if n != jobs {
			t.Fatalf("expected %d results drained, got %d", jobs, n)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("drain stalled with pending results")
	}
}

func TestPool_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPool(1, 0)
	results := p.Run(ctx)

	started := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.Submit(func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		})
		p.Close()
	}()

	<-started
	cancel()
	wg.Wait()

	select {
	case <-drained(results):
	case <-time.After(2 * time.Second):
		t.Fatalf("pool did not shut down after cancellation")
	}
}

func drained(results <-chan Result) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		for range results {
		}
		close(done)
	}()
	return done
}
