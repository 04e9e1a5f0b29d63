package aml

import "sync/atomic"

// loopState is a lock-free state machine for Loop's lifecycle, grounded on
// the teacher package's FastState (state.go): pure CAS transitions, no
// mutex, cache-line padding omitted here since a Loop is a large,
// singly-allocated object rather than something created per task.
type loopState uint32

const (
	stateIdle loopState = iota
	stateRunning
	stateSleeping // blocked inside backend.Poll
	stateClosing
	stateClosed
)

func (s loopState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateRunning:
		return "running"
	case stateSleeping:
		return "sleeping"
	case stateClosing:
		return "closing"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

type fastState struct {
	v atomic.Uint32
}

func (s *fastState) load() loopState { return loopState(s.v.Load()) }

func (s *fastState) store(v loopState) { s.v.Store(uint32(v)) }

func (s *fastState) cas(from, to loopState) bool {
	return s.v.CompareAndSwap(uint32(from), uint32(to))
}
