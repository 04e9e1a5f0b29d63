package aml

// Signal is a signal-handler event source. Multiple Signal sources may
// share the same signo; all fire on each delivery, in registration order
// (§3, §4.C).
type Signal struct {
	hdr   header
	signo int
	fn    func(*Signal)
}

func (s *Signal) header() *header { return &s.hdr }
func (s *Signal) ID() uint64      { return s.hdr.id }

// NewSignal creates a signal-handler source for the given OS signal number.
func NewSignal(signo int, fn func(*Signal)) *Signal {
	s := &Signal{hdr: newHeader(KindSignal), signo: signo, fn: fn}
	register(s)
	return s
}

// GetSigno returns the OS signal number this handler was created for.
func (s *Signal) GetSigno() int { return s.signo }
