package hindsight

import "iter"

// CaptureSeq adapts Capture to an iter.Seq[Address], for callers that
// want range-over-func instead of a sink closure (spec §4.F: "iterator
// adapters wrap the sink at the façade", spec §9). The +1 accounts for
// the closure range-over-func calls through on its way to Capture.
func CaptureSeq(skip int, opts ...UnwindOption) iter.Seq[Address] {
	return func(yield func(Address) bool) {
		Capture(skip+1, Sink(yield), opts...)
	}
}

// CaptureFromSeq adapts CaptureFrom to an iter.Seq[Address].
func CaptureFromSeq(ctx Context, skip int, opts ...UnwindOption) iter.Seq[Address] {
	return func(yield func(Address) bool) {
		CaptureFrom(ctx, skip, Sink(yield), opts...)
	}
}

// ResolveSeq adapts the default symbolizer's Resolve to an
// iter.Seq[LogicalFrame].
func ResolveSeq(addr Address) iter.Seq[LogicalFrame] {
	return func(yield func(LogicalFrame) bool) {
		Resolve(addr, FrameSink(yield))
	}
}

// ResolveSeq adapts this Symbolizer's Resolve to an
// iter.Seq[LogicalFrame].
func (s *Symbolizer) ResolveSeq(addr Address) iter.Seq[LogicalFrame] {
	return func(yield func(LogicalFrame) bool) {
		s.Resolve(addr, FrameSink(yield))
	}
}
