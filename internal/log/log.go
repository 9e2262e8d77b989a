// Package log provides the package-wide logging sink used by hindsight's
// internal packages. It mirrors the buffered-singleton pattern used by
// production Datadog components: callers may log before Setup is called,
// and those lines are replayed once a real backend is installed.
package log

import (
	"fmt"
	"sync"

	"github.com/cihub/seelog"
)

var (
	mu     sync.RWMutex
	inner  seelog.LoggerInterface
	buffer []func()
)

// Setup installs the seelog backend used for all subsequent log calls and
// flushes anything buffered before this call.
func Setup(l seelog.LoggerInterface) {
	mu.Lock()
	inner = l
	pending := buffer
	buffer = nil
	mu.Unlock()

	for _, fn := range pending {
		fn()
	}
}

// Disabled installs a no-op backend, discarding anything buffered.
func Disabled() {
	mu.Lock()
	inner = seelog.Disabled
	buffer = nil
	mu.Unlock()
}

func dispatch(level func(seelog.LoggerInterface), fallback func()) {
	mu.RLock()
	l := inner
	mu.RUnlock()

	if l != nil {
		level(l)
		return
	}

	mu.Lock()
	defer mu.Unlock()
	if inner != nil {
		level(inner)
		return
	}
	buffer = append(buffer, fallback)
}

// Debugf logs at debug level.
func Debugf(format string, args ...any) {
	dispatch(
		func(l seelog.LoggerInterface) { l.Debugf(format, args...) },
		func() { Debugf(format, args...) },
	)
}

// Infof logs at info level.
func Infof(format string, args ...any) {
	dispatch(
		func(l seelog.LoggerInterface) { l.Infof(format, args...) },
		func() { Infof(format, args...) },
	)
}

// Warnf logs at warn level.
func Warnf(format string, args ...any) {
	dispatch(
		func(l seelog.LoggerInterface) { _ = l.Warnf(format, args...) },
		func() { Warnf(format, args...) },
	)
}

// Errorf logs at error level.
func Errorf(format string, args ...any) {
	dispatch(
		func(l seelog.LoggerInterface) { _ = l.Errorf(format, args...) },
		func() { Errorf(format, args...) },
	)
}

// Error logs a pre-built error message at error level.
func Error(args ...any) {
	Errorf("%s", fmt.Sprint(args...))
}
