package aml

import "time"

// loopOptions holds configuration resolved before a Loop is constructed,
// mirroring the shape of the teacher package's loopOptions/LoopOption
// (options.go): a private struct, a public functional-option interface, and
// a resolveOptions helper that applies each option in order.
type loopOptions struct {
	logger      Logger
	metrics     bool
	workerCount int // 0 means "do not auto-acquire a worker pool"
	clock       func() time.Time
}

// Option configures a Loop at construction time.
type Option interface {
	apply(*loopOptions)
}

type optionFunc func(*loopOptions)

func (f optionFunc) apply(o *loopOptions) { f(o) }

// WithLogger installs a structured logger. The default is a no-op logger,
// so a Loop never pays logging overhead unless a caller opts in.
func WithLogger(l Logger) Option {
	return optionFunc(func(o *loopOptions) { o.logger = l })
}

// WithMetrics enables poll/dispatch latency percentile tracking, retrievable
// via Loop.Metrics.
func WithMetrics(enabled bool) Option {
	return optionFunc(func(o *loopOptions) { o.metrics = enabled })
}

// WithWorkerCount pre-acquires a worker pool with n workers at construction
// time, equivalent to calling RequireWorkers(n) immediately after New. n of
// -1 requests one worker per logical CPU, matching aml_require_workers.
func WithWorkerCount(n int) Option {
	return optionFunc(func(o *loopOptions) { o.workerCount = n })
}

// WithClock overrides the monotonic clock used for timer expiry
// computation. Intended for deterministic tests of timer/ticker ordering.
func WithClock(now func() time.Time) Option {
	return optionFunc(func(o *loopOptions) { o.clock = now })
}

func resolveOptions(opts []Option) *loopOptions {
	cfg := &loopOptions{
		logger: NopLogger{},
		clock:  time.Now,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.apply(cfg)
	}
	return cfg
}
