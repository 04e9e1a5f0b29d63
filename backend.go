package aml

// BackendFlags advertises optional backend capabilities. The spec's single
// defined flag is edge-triggered semantics (§4.D): "when set, the core
// promises it will consume readiness fully before re-arming, which allows
// the backend to omit re-arming syscalls."
type BackendFlags uint32

const (
	BackendEdgeTriggered BackendFlags = 1 << iota
)

// ReadyEvent is one fd-readiness result from Backend.Poll, paired with the
// Handler it belongs to. Backends fill a caller-supplied slice rather than
// allocate, mirroring the teacher package's pollers using a fixed
// eventBuf []unix.EpollEvent (poller_linux.go) / kevent buffer
// (poller_darwin.go).
type ReadyEvent struct {
	Handler *Handler
	Events  IOEvents
}

// Backend is the contract a readiness multiplexer must satisfy (§4.D). The
// spec describes this as a versioned struct-of-function-pointers so that
// old and new headers can interoperate; Go has no equivalent need (an
// interface's method set is checked at compile time, and a backend that
// cannot support signals or a worker pool simply returns ErrUnsupported,
// which the core treats exactly as "operation absent" -- see §6).
type Backend interface {
	// Flags reports this backend's capability flags.
	Flags() BackendFlags

	// FD returns a descriptor exposing this backend's own readiness, so a
	// Loop using this backend can itself be nested inside another Loop.
	// Returns -1 if nesting is not supported.
	FD() int

	// Poll blocks for up to timeoutMs milliseconds (or indefinitely if
	// negative) waiting for fd readiness, filling out with ready events and
	// returning how many were written. A timeout or a concurrent Interrupt
	// returns (0, nil). It must cooperate with Interrupt to return promptly.
	Poll(timeoutMs int, out []ReadyEvent) (n int, err error)

	// Interrupt causes an in-progress (or future) Poll call to return
	// promptly without claiming events. Safe to call from any goroutine.
	Interrupt()

	// AddFD, ModFD and DelFD register, update and deregister a Handler's
	// interest with the backend.
	AddFD(h *Handler) error
	ModFD(h *Handler) error
	DelFD(h *Handler) error

	// AddSignal and DelSignal optionally let the backend itself bridge OS
	// signal delivery. Returning ErrUnsupported tells the core to run its
	// own signal bridge (§4.D: "the core may implement signals itself if
	// the backend declines").
	AddSignal(s *Signal) error
	DelSignal(s *Signal) error

	// AcquireWorkerPool optionally supplies a worker pool with at least n
	// threads (n == -1 meaning one per logical CPU). Returning
	// ErrUnsupported makes RequireWorkers fall back to the Loop's built-in
	// goroutine pool; RequireWorkers does not fail in that case. Any other
	// error makes RequireWorkers fail.
	AcquireWorkerPool(n int) (WorkerPool, error)

	// Close releases all backend-held resources. Called once, when the
	// owning Loop is closed.
	Close() error
}

// WorkerPool is the contract for offloading blocking jobs (§4.E).
type WorkerPool interface {
	// Enqueue transfers ownership of a reference to w to the pool; the pool
	// must eventually either run w's work function and post completion, or
	// observe that w was cancelled before being claimed.
	Enqueue(w *Work) error
	// Release stops accepting work and releases pool resources. Called when
	// the owning Loop is closed.
	Release()
}
