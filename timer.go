package aml

import (
	"container/heap"
	"time"
)

// Timer is a one-shot event source: it disarms and stops itself (dropping
// the loop's reference) immediately before its callback runs (§3).
type Timer struct {
	hdr      header
	duration time.Duration
	expiry   time.Time
	periodic bool // true for a Ticker sharing this representation
	seq      uint64
	index    int // maintained by container/heap; -1 when not in the heap
	fn       func(*Timer)
}

func (t *Timer) header() *header { return &t.hdr }
func (t *Timer) ID() uint64      { return t.hdr.id }

// Ticker is a Timer that re-arms itself to expiry+period immediately before
// every invocation of its callback, so drift is bounded by dispatch latency
// rather than accumulating (§3, §4.B). It is represented by the same
// [Timer] type with periodic set, tagged with [KindTicker] instead of
// [KindTimer]; the spec describes Timer and Ticker as sources "of the same
// shape", and Go's zero-cost type aliasing lets the dispatch core share one
// code path for both while [SourceKind] still reports the correct variant
// for introspection.
type Ticker = Timer

// NewTimer creates a one-shot timer. fn is invoked once, on the loop
// goroutine, duration after [Loop.Start]; the timer stops itself before fn
// runs.
func NewTimer(duration time.Duration, fn func(*Timer)) *Timer {
	return newTimerSource(KindTimer, duration, false, fn)
}

// NewTicker creates a periodic timer. fn is invoked every period on the
// loop goroutine until stopped with [Loop.Stop].
func NewTicker(period time.Duration, fn func(*Ticker)) *Ticker {
	return newTimerSource(KindTicker, period, true, fn)
}

func newTimerSource(kind Kind, duration time.Duration, periodic bool, fn func(*Timer)) *Timer {
	t := &Timer{
		hdr:      newHeader(kind),
		duration: duration,
		periodic: periodic,
		index:    -1,
		fn:       fn,
	}
	register(t)
	return t
}

// SetDuration changes a timer or ticker's duration/period. The spec leaves
// the behaviour of calling this on a started timer unspecified ("Open
// Questions", §9); this implementation rejects it outright with
// [ErrAlreadyStarted], which is the safer of the two choices named there
// and avoids silently corrupting heap ordering for a timer that is already
// keyed by its old expiry.
func (t *Timer) SetDuration(d time.Duration) error {
	if t.hdr.started.Load() {
		return &MisuseError{Cause: ErrAlreadyStarted, ID: t.hdr.id}
	}
	t.duration = d
	return nil
}

// Duration returns the timer/ticker's current duration or period.
func (t *Timer) Duration() time.Duration { return t.duration }

// timerHeap is a container/heap min-heap keyed by absolute expiry, with seq
// as a tie-break so equal-expiry timers fire in registration order (§4.B).
// This mirrors the shape of the teacher package's own timerHeap in loop.go,
// generalized from a single-purpose task queue to carry *Timer directly.
type timerHeap []*Timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].expiry.Equal(h[j].expiry) {
		return h[i].seq < h[j].seq
	}
	return h[i].expiry.Before(h[j].expiry)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*Timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

// peekNextExpiry reports the next due time across the whole heap, as
// required by §4.B ("The heap exposes only peek_next_expiry and
// pop_expired(now) to the dispatch core").
func (h timerHeap) peekNextExpiry() (time.Time, bool) {
	if len(h) == 0 {
		return time.Time{}, false
	}
	return h[0].expiry, true
}

// countExpired reports how many timers/tickers are currently due, without
// popping them. Used by Loop.Poll to compute its "events buffered" return
// value (§4.F: "poll() ... returns the number of events the loop has
// buffered").
func (h timerHeap) countExpired(now time.Time) int {
	n := 0
	for _, t := range h {
		if !t.expiry.After(now) {
			n++
		}
	}
	return n
}

// popExpired removes and returns every timer/ticker whose expiry is <= now,
// in heap-pop order (so earliest expiry, then registration order, first).
// Tickers are re-inserted with their next expiry by the caller before their
// callback runs, per §4.B.
func (h *timerHeap) popExpired(now time.Time) []*Timer {
	var due []*Timer
	for h.Len() > 0 && !(*h)[0].expiry.After(now) {
		due = append(due, heap.Pop(h).(*Timer))
	}
	return due
}
