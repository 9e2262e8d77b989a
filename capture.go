package hindsight

import "github.com/glebov-andrey/hindsight/internal/unwind"

// Sink receives one emitted Address and returns true once the caller
// has enough; the producer stops as soon as a sink call returns true
// (spec §4.F, Glossary "sink").
type Sink func(Address) (done bool)

// Capture walks the calling goroutine's own stack using the Go
// runtime's native unwind tables, emitting addresses caller-closest
// first (spec §5's ordering guarantee). skip leading frames — counted
// from Capture's own caller — are not emitted.
//
//go:noinline
func Capture(skip int, sink Sink, opts ...UnwindOption) {
	cfg := resolveUnwindConfig(opts)
	sink = limitDepth(cfg, sink)
	depth := 0
	// +2: one for WalkRuntime's own frame (its documented convention),
	// one more for Capture's own frame — both are real, un-inlined
	// frames between runtime.Callers and Capture's caller.
	unwind.WalkRuntime(skip+2, func(pc uint64) bool {
		depth++
		return sink(Address(pc))
	})
	defaultSymbolizer().observeUnwindDepth(depth)
}

// CaptureFrom walks from a context the caller already holds — typically
// one saved at a signal or hardware-exception delivery point — using
// the general DWARF-CFI unwinder against the calling process's own
// memory and module map. ctx is read, not mutated; the unwinder works
// on an internal scratch copy.
func CaptureFrom(ctx Context, skip int, sink Sink, opts ...UnwindOption) {
	captureFrom(ctx.inner, skip, sink, opts)
}

// CaptureFromMutable is identical to CaptureFrom but takes ctx by
// pointer and is free to clobber it, saving one context copy.
func CaptureFromMutable(ctx *Context, skip int, sink Sink, opts ...UnwindOption) {
	captureFrom(ctx.inner, skip, sink, opts)
}

func captureFrom(ctx unwind.Context, skip int, sink Sink, opts []UnwindOption) {
	cfg := resolveUnwindConfig(opts)
	sink = limitDepth(cfg, sink)
	mem := unwind.NewLocalMemory()
	sym := defaultSymbolizer()
	depth := 0
	unwind.Walk(ctx, mem, sym.tableProvider(), skip, func(pc uint64) bool {
		depth++
		return sink(Address(pc))
	})
	sym.observeUnwindDepth(depth)
}

func limitDepth(cfg unwindConfig, sink Sink) Sink {
	if cfg.maxDepth <= 0 {
		return sink
	}
	remaining := cfg.maxDepth
	return func(a Address) bool {
		remaining--
		done := sink(a)
		return done || remaining <= 0
	}
}
