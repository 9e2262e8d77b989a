package unwind

import "runtime"

// Sink receives one reporting address per emitted frame and returns true
// once the caller has enough and the walk should stop.
type Sink func(pc uint64) (done bool)

// chunkSize bounds how many PCs are pulled from runtime.Callers per call;
// most stacks fit in one chunk, deep ones loop.
const chunkSize = 64

// WalkRuntime captures the current goroutine's stack using the Go
// runtime's own unwind tables. skip counts frames starting at WalkRuntime
// itself, matching runtime.Callers' own convention, so callers pass
// whatever skip the public API received plus one for this function's own
// frame.
//
//go:noinline
func WalkRuntime(skip int, sink Sink) {
	var pcs [chunkSize]uintptr
	total := skip + 1 // +1 for runtime.Callers' own frame
	for {
		n := runtime.Callers(total, pcs[:])
		if n == 0 {
			return
		}
		for i := 0; i < n; i++ {
			pc := uint64(pcs[i])
			if pc == 0 {
				return
			}
			// runtime.Callers returns return addresses; subtract one byte
			// to land inside the call instruction, per the reporting-address
			// rule (spec §4.C step 3). There is no portable way to learn
			// from runtime.Callers alone that a frame was a signal delivery
			// point, so this backend always applies the adjustment; contexts
			// captured at a real signal/exception boundary go through the
			// DWARF-CFI backend instead, which does track that distinction.
			if sink(pc - 1) {
				return
			}
		}
		if n < len(pcs) {
			return
		}
		total += n
	}
}
