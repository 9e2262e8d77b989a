// Package recovery is the keyed failure store spec §9 calls for in place
// of the original library's throw/rethrow interception collaborator:
// capture a trace when a failure occurs, store it keyed by the failure's
// identity, and let the catch site look it up by the same key. Neither
// hooking the runtime's panic machinery nor choosing what makes a good
// key is this package's job — CaptureOnPanic and CaptureOnError are
// meant to be called explicitly from wherever a caller already has one.
package recovery

import (
	"sync"

	"github.com/glebov-andrey/hindsight"
)

var (
	mu    sync.Mutex
	store = map[any][]hindsight.Address{}
)

// CaptureOnPanic captures the calling goroutine's stack and stores it
// under key. It is meant to run inside a deferred recover() site:
//
//	defer func() {
//		if r := recover(); r != nil {
//			recovery.CaptureOnPanic(r)
//			panic(r)
//		}
//	}()
//
// Deferred calls run before the panicking goroutine's stack is unwound,
// so the trace starts at the deferred function and continues through
// runtime.gopanic, the frame that panicked, and that frame's callers.
func CaptureOnPanic(key any) {
	capture(key, 1)
}

// CaptureOnError captures the calling goroutine's stack and stores it
// under key, for use at the point an error value is first constructed
// rather than at a later recover site.
func CaptureOnError(key any) {
	capture(key, 1)
}

func capture(key any, skip int) {
	var addrs []hindsight.Address
	hindsight.Capture(skip+1, func(a hindsight.Address) bool {
		addrs = append(addrs, a)
		return false
	})

	mu.Lock()
	store[key] = addrs
	mu.Unlock()
}

// Lookup returns the trace previously stored under key, if any. Callers
// typically use the propagated error value itself (or a value it
// wraps) as the key.
func Lookup(key any) ([]hindsight.Address, bool) {
	mu.Lock()
	defer mu.Unlock()
	addrs, ok := store[key]
	return addrs, ok
}

// Forget removes the trace stored under key, so long-lived keys (e.g.
// sentinel errors reused across many failures) don't leak captures
// indefinitely.
func Forget(key any) {
	mu.Lock()
	delete(store, key)
	mu.Unlock()
}
