// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package aml provides a small, embeddable event-loop runtime: a single
// dispatch goroutine that multiplexes file-descriptor readiness, timers,
// signals, background work and idle callbacks through a pluggable readiness
// [Backend].
//
// # Architecture
//
// A [Loop] owns a set of event sources ([Handler], [Timer], [Ticker],
// [Signal], [Work], [Idle]). Every source shares a common header (reference
// count, a stable global id, started flag, userdata slot) and is started and
// stopped against exactly one [Loop] at a time. [Loop.Start] registers a
// source with the relevant subsystem (the backend for fd handlers, the
// timer heap for timers/tickers, the signal bridge for signals, the worker
// pool for work, the idle list for idles) and takes a loop-owned reference;
// [Loop.Stop] releases it.
//
// # Dispatch ordering
//
// One cycle of [Loop.Run] calls [Loop.Poll] then [Loop.Dispatch]. Dispatch
// fires, in order: ready fd handlers, expired timers/tickers, signals that
// fired since the previous cycle, completed work items, then idle sources.
// Embedders may rely on this order.
//
// # Platform support
//
// The reference [Backend] implementations use epoll on linux and kqueue on
// darwin, both via golang.org/x/sys/unix, matching the platform split of the
// package this runtime's I/O layer is grounded on.
//
// # Thread safety
//
// [Loop.Run], [Loop.Poll] and [Loop.Dispatch] must only be called from a
// single goroutine (the "loop goroutine"). [Ref], [Unref], [TryRef],
// [Loop.Interrupt] and the worker-pool completion path are safe to call from
// any goroutine.
package aml
