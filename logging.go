package aml

import (
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the structured-logging seam a Loop reports its own lifecycle
// and recovered callback panics through, grounded on the teacher package's
// logging.go: a minimal interface rather than a concrete dependency on any
// one logging library, so embedders that already use logiface (or zerolog,
// logrus, slog, via the teacher's logiface-* adapters) can plug in the
// adapter they already have.
type Logger interface {
	Debug(msg string, fields map[string]any)
	Error(msg string, err error, fields map[string]any)
}

// NopLogger discards everything. It is the default installed by
// resolveOptions when no [WithLogger] option is given.
type NopLogger struct{}

func (NopLogger) Debug(string, map[string]any)        {}
func (NopLogger) Error(string, error, map[string]any) {}

// StumpyLogger adapts a logiface.Logger[*stumpy.Event] (the teacher
// package's default JSON encoder, logiface-stumpy) to the Logger interface,
// so embedders get structured, allocation-conscious JSON logging for free
// without this package depending on any particular sink.
type StumpyLogger struct {
	L *logiface.Logger[*stumpy.Event]
}

// NewStumpyLogger builds a StumpyLogger writing newline-delimited JSON via
// stumpy.L.New, matching the construction the teacher package itself uses
// in its own examples.
func NewStumpyLogger(opts ...logiface.Option[*stumpy.Event]) StumpyLogger {
	return StumpyLogger{L: stumpy.L.New(opts...)}
}

func (s StumpyLogger) Debug(msg string, fields map[string]any) {
	if s.L == nil {
		return
	}
	evt := s.L.Debug()
	for k, v := range fields {
		evt = evt.Any(k, v)
	}
	evt.Log(msg)
}

func (s StumpyLogger) Error(msg string, err error, fields map[string]any) {
	if s.L == nil {
		return
	}
	evt := s.L.Err().Err(err)
	for k, v := range fields {
		evt = evt.Any(k, v)
	}
	evt.Log(msg)
}
