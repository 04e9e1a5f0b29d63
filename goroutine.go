package aml

import "runtime"

// getGoroutineID extracts the calling goroutine's numeric id by parsing the
// header line of its own stack trace. Grounded on the teacher package's
// getGoroutineID (eventloop/loop.go): there is no supported runtime API for
// this, so both implementations fall back to the same documented hack.
// Poll, Dispatch and Run record the calling goroutine's id; Start and Stop
// then reject calls from any other goroutine, and destroy uses it to tell
// whether a final Unref happened on the loop goroutine (§5: "owned by the
// loop and mutated only on the loop thread").
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}
