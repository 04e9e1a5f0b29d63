package aml

import "sync"

// registry is the global id -> live object table described in §4.A: "a
// mapping from 64-bit id to live object pointer, protected by a lock; it is
// consulted by try_ref to safely break reference cycles between the loop
// and its sources."
//
// This is organized the way the teacher package's promise registry is
// (github.com/joeycumines/go-utilpkg/eventloop's registry.go: a monotonic
// id counter plus a locked map), but keyed to this spec's refcount-driven
// lifetime rather than garbage-collector-driven lifetime: the teacher used
// weak.Pointer so a promise could be reclaimed the moment the GC decided it
// was unreachable, with no explicit free. Here an object's liveness is
// defined by its refcount, not by reachability, so the registry instead
// holds an ordinary strong reference and is told explicitly, via
// [unregister], the instant the final Unref fires; TryRef's job is then
// reduced to winning or losing the race against a concurrent final Unref on
// the refcount itself (see TryRef below), which is the one place a CAS loop
// is required.
var reg = struct {
	mu      sync.RWMutex
	data    map[uint64]Source
	counter uint64
}{data: make(map[uint64]Source, 64)}

func nextID() uint64 {
	reg.mu.Lock()
	reg.counter++
	id := reg.counter
	reg.mu.Unlock()
	return id
}

func register(s Source) {
	h := s.header()
	reg.mu.Lock()
	reg.data[h.id] = s
	reg.mu.Unlock()
}

func unregister(id uint64) {
	reg.mu.Lock()
	delete(reg.data, id)
	reg.mu.Unlock()
}

// TryRef resolves a weak id, obtained from [GetID], back into a strong
// reference. It returns (nil, false) if no source with that id is
// currently registered, or if the source's refcount had already reached
// zero by the time TryRef observed it (invariant 3): the CAS loop below
// never increments a refcount that is already at or below zero, so it can
// never resurrect an object the dispatch core has already decided to
// destroy, even when TryRef races the final Unref from another goroutine.
func TryRef(id uint64) (Source, bool) {
	reg.mu.RLock()
	s, ok := reg.data[id]
	reg.mu.RUnlock()
	if !ok {
		return nil, false
	}
	h := s.header()
	for {
		old := h.refs.Load()
		if old <= 0 {
			return nil, false
		}
		if h.refs.CompareAndSwap(old, old+1) {
			return s, true
		}
	}
}
