package aml

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is an injectable clock for deterministic timer tests, following
// the same seam WithClock exists for.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{t: time.Unix(0, 0)} }

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestLoop_New_rejectsNilBackend(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWrongType)
}

func TestLoop_idleFiresEveryDispatchCycle(t *testing.T) {
	l, err := New(newFakeBackend())
	require.NoError(t, err)
	defer l.Close()

	var fired int
	idle := NewIdle(func(*Idle) { fired++ })
	require.NoError(t, l.Start(idle))

	for i := 0; i < 3; i++ {
		_, err := l.Poll(-1) // an active idle forces GetNextTimeout to 0 regardless
		require.NoError(t, err)
		require.NoError(t, l.Dispatch())
	}
	assert.Equal(t, 3, fired)

	require.NoError(t, l.Stop(idle))
	_, err = l.Poll(0)
	require.NoError(t, err)
	require.NoError(t, l.Dispatch())
	assert.Equal(t, 3, fired, "a stopped idle must not fire again")
}

func TestLoop_timerFiresOnceAndStopsItself(t *testing.T) {
	clock := newFakeClock()
	l, err := New(newFakeBackend(), WithClock(clock.now))
	require.NoError(t, err)
	defer l.Close()

	var fired int
	tm := NewTimer(10*time.Millisecond, func(*Timer) { fired++ })
	require.NoError(t, l.Start(tm))

	clock.advance(20 * time.Millisecond)
	n, err := l.Poll(0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.NoError(t, l.Dispatch())
	assert.Equal(t, 1, fired)

	// a one-shot timer disarms itself before its callback runs; stopping it
	// again must report ErrNotStarted.
	err = l.Stop(tm)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestLoop_tickerRefiresOnEachExpiry(t *testing.T) {
	clock := newFakeClock()
	l, err := New(newFakeBackend(), WithClock(clock.now))
	require.NoError(t, err)
	defer l.Close()

	var fired int
	tick := NewTicker(10*time.Millisecond, func(*Ticker) { fired++ })
	require.NoError(t, l.Start(tick))
	defer l.Stop(tick)

	for i := 0; i < 3; i++ {
		clock.advance(10 * time.Millisecond)
		_, err := l.Poll(0)
		require.NoError(t, err)
		require.NoError(t, l.Dispatch())
	}
	assert.Equal(t, 3, fired)
}

func TestLoop_handlerReceivesReadyEvent(t *testing.T) {
	fb := newFakeBackend()
	l, err := New(fb)
	require.NoError(t, err)
	defer l.Close()

	var gotEvents IOEvents
	h := NewHandler(3, EventRead, func(hd *Handler, ev IOEvents) { gotEvents = ev })
	require.NoError(t, l.Start(h))

	fb.pushReady(ReadyEvent{Handler: h, Events: EventRead})

	n, err := l.Poll(1000)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.NoError(t, l.Dispatch())
	assert.Equal(t, EventRead, gotEvents)
	assert.Equal(t, IOEvents(0), h.GetRevents(), "revents must be cleared immediately after the callback")
}

func TestLoop_signalEmitInvokesHandlerInRegistrationOrder(t *testing.T) {
	l, err := New(newFakeBackend())
	require.NoError(t, err)
	defer l.Close()

	const signo = 9 // SIGKILL's number, used only as an arbitrary signo here
	var order []int
	first := NewSignal(signo, func(*Signal) { order = append(order, 1) })
	second := NewSignal(signo, func(*Signal) { order = append(order, 2) })
	require.NoError(t, l.Start(first))
	require.NoError(t, l.Start(second))

	l.Emit(signo)

	n, err := l.Poll(1000)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.NoError(t, l.Dispatch())
	assert.Equal(t, []int{1, 2}, order)
}

func TestLoop_workRunsOnWorkerAndPostsDoneOnLoopGoroutine(t *testing.T) {
	l, err := New(newFakeBackend())
	require.NoError(t, err)
	defer l.Close()

	var ran atomic.Bool
	done := make(chan struct{})
	w := NewWork(func() { ran.Store(true) }, func(*Work) { close(done) })
	require.NoError(t, l.Start(w))

	n, err := l.Poll(5000) // blocks until the worker goroutine posts completion and interrupts
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1)
	require.NoError(t, l.Dispatch())

	select {
	case <-done:
	default:
		t.Fatal("doneFn did not run synchronously within Dispatch")
	}
	assert.True(t, ran.Load())
}

func TestLoop_stopWorkBeforeClaimSuppressesBothCallbacks(t *testing.T) {
	l, err := New(newFakeBackend())
	require.NoError(t, err)
	defer l.Close()

	// workFn/doneFn run on a worker goroutine, not the test goroutine, so
	// they record into atomics rather than calling t.Fatal directly (the
	// testing package requires Fatal/FailNow to be called from the test's
	// own goroutine).
	var workRan, doneRan atomic.Bool
	w := NewWork(
		func() { workRan.Store(true) },
		func(*Work) { doneRan.Store(true) },
	)
	require.NoError(t, l.Start(w))
	require.NoError(t, l.Stop(w))

	// give any already-dispatched worker goroutine a chance to (wrongly) run;
	// the CAS in Work.run prevents it regardless of scheduling.
	time.Sleep(10 * time.Millisecond)
	assert.False(t, workRan.Load(), "workFn must not run once stopped before a worker claims it")
	assert.False(t, doneRan.Load(), "doneFn must not run once stopped before a worker claims it")
}

func TestLoop_doubleStartRejected(t *testing.T) {
	l, err := New(newFakeBackend())
	require.NoError(t, err)
	defer l.Close()

	idle := NewIdle(func(*Idle) {})
	require.NoError(t, l.Start(idle))
	defer l.Stop(idle)

	err = l.Start(idle)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestLoop_stopNotStartedRejected(t *testing.T) {
	l, err := New(newFakeBackend())
	require.NoError(t, err)
	defer l.Close()

	idle := NewIdle(func(*Idle) {})
	defer Unref(idle)

	err = l.Stop(idle)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestLoop_closeIsIdempotentlyRejectedWhenAlreadyClosed(t *testing.T) {
	l, err := New(newFakeBackend())
	require.NoError(t, err)
	require.NoError(t, l.Close())

	err = l.Close()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrClosed)
}
