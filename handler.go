package aml

import "sync/atomic"

// IOEvents is a bitmask of fd readiness conditions, named and valued the
// way the teacher package's poller_linux.go names its IOEvents constants.
type IOEvents uint32

const (
	EventRead IOEvents = 1 << iota
	EventWrite
	EventError
	EventHangup
)

// Handler is an fd readiness event source. The fd is never owned by the
// Handler; closing it remains the embedder's responsibility (§3).
type Handler struct {
	hdr     header
	fd      int
	mask    atomic.Uint32 // requested event mask; may change while started
	revents uint32        // valid only during this handler's own callback
	fn      func(*Handler, IOEvents)
}

func (h *Handler) header() *header { return &h.hdr }
func (h *Handler) ID() uint64      { return h.hdr.id }

// NewHandler creates an fd readiness source. fn is invoked on the loop
// goroutine whenever fd becomes ready for any event in its requested mask.
func NewHandler(fd int, mask IOEvents, fn func(*Handler, IOEvents)) *Handler {
	h := &Handler{hdr: newHeader(KindHandler), fd: fd, fn: fn}
	h.mask.Store(uint32(mask))
	register(h)
	return h
}

// FD returns the handler's file descriptor.
func (h *Handler) FD() int { return h.fd }

// SetEventMask changes the requested event mask. If the handler is started,
// the new mask is applied to the backend (ModFD) immediately, on the
// calling goroutine; a ModFD failure is logged, not returned.
func (h *Handler) SetEventMask(mask IOEvents) {
	h.mask.Store(uint32(mask))
	if h.hdr.started.Load() && h.hdr.loop != nil {
		h.hdr.loop.rearmHandler(h)
	}
}

// GetEventMask returns the currently requested event mask.
func (h *Handler) GetEventMask() IOEvents { return IOEvents(h.mask.Load()) }

// GetRevents returns the events that were ready the last time this
// handler's callback was invoked. It is only meaningful from inside that
// callback; the dispatch core clears it to zero immediately afterward
// (§4.F step 3).
func (h *Handler) GetRevents() IOEvents { return IOEvents(h.revents) }
