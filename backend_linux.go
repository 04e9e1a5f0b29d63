//go:build linux

package aml

import (
	"sync"

	"golang.org/x/sys/unix"
)

// epollBackend is the reference [Backend] for linux, grounded on the
// teacher package's FastPoller (eventloop/poller_linux.go): an epoll
// instance plus an eventfd-based wakeup (eventloop/wakeup_linux.go),
// adapted from the teacher's direct-indexed, cache-line-padded design to
// this package's interface-shaped Backend contract, and to fds tracked by
// *Handler rather than a raw callback closure.
type epollBackend struct {
	epfd     int
	wakeFD   int
	mu       sync.RWMutex
	byFD     map[int]*Handler
	eventBuf []unix.EpollEvent
}

// NewEpollBackend constructs the linux reference backend. It implements
// neither AddSignal/DelSignal nor AcquireWorkerPool, so a Loop using it
// falls back to its own os/signal bridge and the default goroutine pool.
func NewEpollBackend() (Backend, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	wakeFD, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		_ = unix.Close(epfd)
		return nil, err
	}
	b := &epollBackend{
		epfd:     epfd,
		wakeFD:   wakeFD,
		byFD:     make(map[int]*Handler, 64),
		eventBuf: make([]unix.EpollEvent, 256),
	}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakeFD, &unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wakeFD)}); err != nil {
		_ = unix.Close(epfd)
		_ = unix.Close(wakeFD)
		return nil, err
	}
	return b, nil
}

func (b *epollBackend) Flags() BackendFlags { return 0 }

func (b *epollBackend) FD() int { return b.epfd }

func eventsToEpoll(events IOEvents) uint32 {
	var e uint32
	if events&EventRead != 0 {
		e |= unix.EPOLLIN
	}
	if events&EventWrite != 0 {
		e |= unix.EPOLLOUT
	}
	return e
}

func epollToEvents(e uint32) IOEvents {
	var events IOEvents
	if e&unix.EPOLLIN != 0 {
		events |= EventRead
	}
	if e&unix.EPOLLOUT != 0 {
		events |= EventWrite
	}
	if e&unix.EPOLLERR != 0 {
		events |= EventError
	}
	if e&unix.EPOLLHUP != 0 {
		events |= EventHangup
	}
	return events
}

func (b *epollBackend) AddFD(h *Handler) error {
	b.mu.Lock()
	b.byFD[h.fd] = h
	b.mu.Unlock()
	ev := &unix.EpollEvent{Events: eventsToEpoll(h.GetEventMask()), Fd: int32(h.fd)}
	if err := unix.EpollCtl(b.epfd, unix.EPOLL_CTL_ADD, h.fd, ev); err != nil {
		b.mu.Lock()
		delete(b.byFD, h.fd)
		b.mu.Unlock()
		return err
	}
	return nil
}

func (b *epollBackend) ModFD(h *Handler) error {
	ev := &unix.EpollEvent{Events: eventsToEpoll(h.GetEventMask()), Fd: int32(h.fd)}
	return unix.EpollCtl(b.epfd, unix.EPOLL_CTL_MOD, h.fd, ev)
}

func (b *epollBackend) DelFD(h *Handler) error {
	b.mu.Lock()
	delete(b.byFD, h.fd)
	b.mu.Unlock()
	return unix.EpollCtl(b.epfd, unix.EPOLL_CTL_DEL, h.fd, nil)
}

func (b *epollBackend) Poll(timeoutMs int, out []ReadyEvent) (int, error) {
	n, err := unix.EpollWait(b.epfd, b.eventBuf, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}
	count := 0
	b.mu.RLock()
	for i := 0; i < n && count < len(out); i++ {
		fd := int(b.eventBuf[i].Fd)
		if fd == b.wakeFD {
			var drain [8]byte
			_, _ = unix.Read(b.wakeFD, drain[:])
			continue
		}
		h, ok := b.byFD[fd]
		if !ok {
			continue
		}
		out[count] = ReadyEvent{Handler: h, Events: epollToEvents(b.eventBuf[i].Events)}
		count++
	}
	b.mu.RUnlock()
	return count, nil
}

func (b *epollBackend) Interrupt() {
	var buf [8]byte
	buf[0] = 1
	_, _ = unix.Write(b.wakeFD, buf[:])
}

func (b *epollBackend) AddSignal(*Signal) error        { return ErrUnsupported }
func (b *epollBackend) DelSignal(*Signal) error        { return ErrUnsupported }
func (b *epollBackend) AcquireWorkerPool(int) (WorkerPool, error) {
	return nil, ErrUnsupported
}

func (b *epollBackend) Close() error {
	_ = unix.Close(b.wakeFD)
	return unix.Close(b.epfd)
}
