package aml

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWork_cancelBeforeClaim(t *testing.T) {
	w := NewWork(func() { t.Fatal("workFn must not run once cancelled before a worker claims it") }, func(*Work) {})
	defer Unref(w)

	w.cancel()
	ran := w.run()
	assert.False(t, ran, "run must refuse to execute a cancelled-while-pending item")
	assert.False(t, w.shouldPostDone())
}

func TestWork_cancelAfterClaim_workRunsButDoneSuppressed(t *testing.T) {
	var ran bool
	var w *Work
	w = NewWork(func() {
		ran = true
		w.cancel() // simulates Stop racing in after the worker already claimed the item
	}, func(*Work) { t.Fatal("doneFn must not run once suppressed by a post-claim cancel") })
	defer Unref(w)

	ok := w.run()
	assert.True(t, ok, "workFn must still run to completion once claimed")
	assert.True(t, ran)
	assert.False(t, w.shouldPostDone(), "a post-claim cancel must suppress doneFn")
}

func TestWork_panicRecoveredByRun(t *testing.T) {
	w := NewWork(func() { panic("boom") }, func(*Work) {})
	defer Unref(w)

	ok := w.run()
	assert.True(t, ok)
	assert.True(t, w.didPanic)
	assert.Equal(t, "boom", w.panicV)
}

func TestWork_doneRunsAfterNormalCompletion(t *testing.T) {
	w := NewWork(func() {}, func(*Work) {})
	defer Unref(w)

	ok := w.run()
	assert.True(t, ok)
	assert.True(t, w.shouldPostDone())
}

func TestWork_getWorkFn(t *testing.T) {
	called := false
	fn := func() { called = true }
	w := NewWork(fn, func(*Work) {})
	defer Unref(w)

	w.GetWorkFn()()
	assert.True(t, called)
}
