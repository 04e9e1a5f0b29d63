package aml

import "sync/atomic"

// workState tracks a Work item through the lifecycle described in §5
// ("Cancellation/timeout"): a work item stopped after being enqueued but
// before a worker picks it up must run neither its work nor its done
// function; once a worker has started running the work function, the work
// function always runs to completion but the done function is suppressed
// if the item was stopped in the meantime.
type workState int32

const (
	workPending workState = iota
	workRunning
	workDone
	workCancelled
)

// Work executes workFn on a worker-pool goroutine, then invokes doneFn on
// the loop goroutine once workFn returns. Starting a Work item enqueues it;
// it remains pending (per §3) until doneFn has run or it has been
// cancelled before running.
type Work struct {
	hdr        header
	workFn     func()
	doneFn     func(*Work)
	state      atomic.Int32
	suppressed atomic.Bool // Stop() was called; doneFn must not run even if workFn already did
	panicV     any
	didPanic   bool
}

func (w *Work) header() *header { return &w.hdr }
func (w *Work) ID() uint64      { return w.hdr.id }

// NewWork creates a work item. workFn runs on a worker-pool goroutine;
// doneFn runs on the loop goroutine after workFn returns (or is skipped
// entirely if the item is stopped before a worker begins running it).
func NewWork(workFn func(), doneFn func(*Work)) *Work {
	w := &Work{hdr: newHeader(KindWork), workFn: workFn, doneFn: doneFn}
	w.state.Store(int32(workPending))
	register(w)
	return w
}

// GetWorkFn returns the function that runs on the worker-pool goroutine,
// preserved as a first-class accessor per the original aml_get_work_fn (see
// SPEC_FULL.md's "Supplemented features"): useful for a worker pool that
// wants to introspect or instrument the work function itself.
func (w *Work) GetWorkFn() func() { return w.workFn }

// run executes the work function on the calling (worker) goroutine. It
// reports false, without invoking workFn, if the item was cancelled before
// a worker could claim it.
func (w *Work) run() (ran bool) {
	if !w.state.CompareAndSwap(int32(workPending), int32(workRunning)) {
		return false
	}
	defer func() {
		ran = true
		if r := recover(); r != nil {
			w.panicV = r
			w.didPanic = true
		}
		w.state.Store(int32(workDone))
	}()
	w.workFn()
	return true
}

// shouldPostDone reports whether doneFn should still be dispatched: false
// either because the item never ran (cancelled while pending) or because
// Stop() was called after the worker had already claimed it.
func (w *Work) shouldPostDone() bool {
	return w.state.Load() != int32(workCancelled) && !w.suppressed.Load()
}

// cancel marks a Work item stopped. If it is still pending, it transitions
// straight to workCancelled and neither workFn nor doneFn will ever run.
// If a worker has already claimed it, workFn still runs to completion, but
// suppressed is set so the loop will not invoke doneFn once it completes.
func (w *Work) cancel() {
	w.suppressed.Store(true)
	w.state.CompareAndSwap(int32(workPending), int32(workCancelled))
}
