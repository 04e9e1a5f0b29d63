package aml

import (
	"context"
	"time"

	"github.com/joeycumines/go-catrate"
	"golang.org/x/sync/semaphore"
)

// goroutinePool is the [WorkerPool] that [Loop.RequireWorkers] builds for
// itself when the backend's AcquireWorkerPool returns ErrUnsupported,
// grounded on the teacher's own goroutine-per-task
// offload style (promisifyWg/Promisify in eventloop/promise.go), bounded
// here instead by golang.org/x/sync/semaphore so "at least n threads" (§4.E)
// becomes "at most n concurrently outstanding work goroutines".
//
// An admission-control limiter (github.com/joeycumines/go-catrate) guards
// Enqueue itself: a pool under sustained overload rejects new work with an
// [ExhaustionError] rather than growing an unbounded backlog of blocked
// Acquire calls.
type goroutinePool struct {
	loop    *Loop
	sem     *semaphore.Weighted
	limiter *catrate.Limiter
	closed  chan struct{}
}

func newGoroutinePool(loop *Loop, n int) *goroutinePool {
	if n <= 0 {
		n = 1
	}
	return &goroutinePool{
		loop: loop,
		sem:  semaphore.NewWeighted(int64(n)),
		limiter: catrate.NewLimiter(map[time.Duration]int{
			time.Second: n * 100,
		}),
		closed: make(chan struct{}),
	}
}

// Enqueue admits w if the pool's sustained-throughput rate limit has not
// been exceeded, then blocks until a worker slot is free (or the pool is
// released) before running w on its own goroutine.
func (p *goroutinePool) Enqueue(w *Work) error {
	select {
	case <-p.closed:
		return &ExhaustionError{Cause: ErrClosed, Op: "worker pool enqueue"}
	default:
	}
	if _, ok := p.limiter.Allow("work"); !ok {
		return &ExhaustionError{Cause: ErrUnsupported, Op: "worker pool enqueue (rate limited)"}
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-p.closed:
			cancel()
		case <-ctx.Done():
		}
	}()
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return &ExhaustionError{Cause: err, Op: "worker pool enqueue"}
	}
	go func() {
		defer p.sem.Release(1)
		w.run()
		select {
		case <-p.closed:
		default:
			p.loop.postWorkDone(w)
		}
	}()
	return nil
}

// Release stops accepting the loop's responsibility for posting completion;
// outstanding work goroutines still run workFn to completion (per §5's
// cancellation rule) but no longer touch the (possibly already-destroyed)
// loop.
func (p *goroutinePool) Release() {
	select {
	case <-p.closed:
	default:
		close(p.closed)
	}
}
