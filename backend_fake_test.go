package aml

import "sync"

// fakeBackend is a deterministic, platform-independent [Backend] used only
// by this package's tests, so dispatch-ordering and lifecycle tests don't
// depend on a real epoll/kqueue descriptor. Grounded on the teacher
// package's loopTestHooks (eventloop/loop.go): a minimal seam purpose-built
// for deterministic tests rather than a production backend.
type fakeBackend struct {
	mu          sync.Mutex
	handlers    map[int]*Handler
	readyQueue  []ReadyEvent
	interrupted chan struct{}
	closed      bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		handlers:    make(map[int]*Handler),
		interrupted: make(chan struct{}, 1),
	}
}

func (b *fakeBackend) Flags() BackendFlags { return 0 }

func (b *fakeBackend) FD() int { return -1 }

func (b *fakeBackend) Poll(timeoutMs int, out []ReadyEvent) (int, error) {
	if timeoutMs != 0 {
		<-b.interrupted
	} else {
		select {
		case <-b.interrupted:
		default:
		}
	}
	b.mu.Lock()
	n := copy(out, b.readyQueue)
	b.readyQueue = nil
	b.mu.Unlock()
	return n, nil
}

func (b *fakeBackend) Interrupt() {
	select {
	case b.interrupted <- struct{}{}:
	default:
	}
}

func (b *fakeBackend) AddFD(h *Handler) error {
	b.mu.Lock()
	b.handlers[h.fd] = h
	b.mu.Unlock()
	return nil
}

func (b *fakeBackend) ModFD(*Handler) error { return nil }

func (b *fakeBackend) DelFD(h *Handler) error {
	b.mu.Lock()
	delete(b.handlers, h.fd)
	b.mu.Unlock()
	return nil
}

func (b *fakeBackend) AddSignal(*Signal) error { return ErrUnsupported }
func (b *fakeBackend) DelSignal(*Signal) error { return ErrUnsupported }

func (b *fakeBackend) AcquireWorkerPool(int) (WorkerPool, error) { return nil, ErrUnsupported }

func (b *fakeBackend) Close() error {
	b.closed = true
	return nil
}

func (b *fakeBackend) pushReady(ev ReadyEvent) {
	b.mu.Lock()
	b.readyQueue = append(b.readyQueue, ev)
	b.mu.Unlock()
	b.Interrupt()
}
