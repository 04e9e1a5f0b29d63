//go:build darwin

package aml

import (
	"sync"

	"golang.org/x/sys/unix"
)

// kqueueBackend is the reference [Backend] for darwin, grounded on the
// teacher package's eventloop/poller_darwin.go and its EVFILT_USER-based
// wakeup (eventloop/wakeup_darwin.go), adapted to this package's Backend
// interface and *Handler-keyed events instead of the teacher's direct fd
// callback table.
type kqueueBackend struct {
	kq       int
	mu       sync.RWMutex
	byFD     map[int]*Handler
	eventBuf []unix.Kevent_t
}

const wakeUserIdent = 0xa3717 // arbitrary identifier for the EVFILT_USER wakeup event

// NewKqueueBackend constructs the darwin reference backend. Like its linux
// counterpart it declines AddSignal/DelSignal and AcquireWorkerPool.
func NewKqueueBackend() (Backend, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}
	b := &kqueueBackend{
		kq:       kq,
		byFD:     make(map[int]*Handler, 64),
		eventBuf: make([]unix.Kevent_t, 256),
	}
	wake := unix.Kevent_t{
		Ident:  wakeUserIdent,
		Filter: unix.EVFILT_USER,
		Flags:  unix.EV_ADD | unix.EV_CLEAR,
	}
	if _, err := unix.Kevent(kq, []unix.Kevent_t{wake}, nil, nil); err != nil {
		_ = unix.Close(kq)
		return nil, err
	}
	return b, nil
}

func (b *kqueueBackend) Flags() BackendFlags { return 0 }

func (b *kqueueBackend) FD() int { return b.kq }

func (b *kqueueBackend) changeFD(h *Handler, op int) error {
	mask := h.GetEventMask()
	var changes []unix.Kevent_t
	if mask&EventRead != 0 || op == unix.EV_DELETE {
		changes = append(changes, unix.Kevent_t{Ident: uint64(h.fd), Filter: unix.EVFILT_READ, Flags: uint16(op)})
	}
	if mask&EventWrite != 0 || op == unix.EV_DELETE {
		changes = append(changes, unix.Kevent_t{Ident: uint64(h.fd), Filter: unix.EVFILT_WRITE, Flags: uint16(op)})
	}
	if len(changes) == 0 {
		return nil
	}
	_, err := unix.Kevent(b.kq, changes, nil, nil)
	return err
}

func (b *kqueueBackend) AddFD(h *Handler) error {
	b.mu.Lock()
	b.byFD[h.fd] = h
	b.mu.Unlock()
	if err := b.changeFD(h, unix.EV_ADD); err != nil {
		b.mu.Lock()
		delete(b.byFD, h.fd)
		b.mu.Unlock()
		return err
	}
	return nil
}

func (b *kqueueBackend) ModFD(h *Handler) error {
	_ = b.changeFD(h, unix.EV_DELETE)
	return b.changeFD(h, unix.EV_ADD)
}

func (b *kqueueBackend) DelFD(h *Handler) error {
	b.mu.Lock()
	delete(b.byFD, h.fd)
	b.mu.Unlock()
	return b.changeFD(h, unix.EV_DELETE)
}

func (b *kqueueBackend) Poll(timeoutMs int, out []ReadyEvent) (int, error) {
	var ts *unix.Timespec
	if timeoutMs >= 0 {
		t := unix.NsecToTimespec(int64(timeoutMs) * 1e6)
		ts = &t
	}
	n, err := unix.Kevent(b.kq, nil, b.eventBuf, ts)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}
	count := 0
	byFD := make(map[int]IOEvents, n)
	for i := 0; i < n; i++ {
		ev := b.eventBuf[i]
		if ev.Filter == unix.EVFILT_USER {
			continue
		}
		fd := int(ev.Ident)
		var e IOEvents
		switch ev.Filter {
		case unix.EVFILT_READ:
			e = EventRead
		case unix.EVFILT_WRITE:
			e = EventWrite
		}
		if ev.Flags&unix.EV_EOF != 0 {
			e |= EventHangup
		}
		if ev.Flags&unix.EV_ERROR != 0 {
			e |= EventError
		}
		byFD[fd] |= e
	}
	b.mu.RLock()
	for fd, events := range byFD {
		if count >= len(out) {
			break
		}
		h, ok := b.byFD[fd]
		if !ok {
			continue
		}
		out[count] = ReadyEvent{Handler: h, Events: events}
		count++
	}
	b.mu.RUnlock()
	return count, nil
}

func (b *kqueueBackend) Interrupt() {
	wake := unix.Kevent_t{
		Ident:  wakeUserIdent,
		Filter: unix.EVFILT_USER,
		Fflags: unix.NOTE_TRIGGER,
	}
	_, _ = unix.Kevent(b.kq, []unix.Kevent_t{wake}, nil, nil)
}

func (b *kqueueBackend) AddSignal(*Signal) error { return ErrUnsupported }
func (b *kqueueBackend) DelSignal(*Signal) error { return ErrUnsupported }
func (b *kqueueBackend) AcquireWorkerPool(int) (WorkerPool, error) {
	return nil, ErrUnsupported
}

func (b *kqueueBackend) Close() error { return unix.Close(b.kq) }
