package hindsight

import "github.com/glebov-andrey/hindsight/internal/symbolize"

// Source is a logical frame's source coordinate (spec §3). Any field
// may be empty/zero, meaning "unknown".
type Source struct {
	File   string
	Line   uint32
	Column uint32
}

// LogicalFrame is one conceptual call site produced by expanding the
// inline compiler transformations applied to a single physical address
// (spec §3). Its strings are deep-copied out of the debug session that
// produced it, so a LogicalFrame stays valid after the Symbolizer that
// resolved it is closed.
type LogicalFrame struct {
	Physical Address
	Inlined  bool
	Symbol   string
	Source   Source
}

func fromInternalFrame(f symbolize.Frame) LogicalFrame {
	return LogicalFrame{
		Physical: Address(f.Physical),
		Inlined:  f.Inlined,
		Symbol:   f.Symbol,
		Source: Source{
			File:   f.File,
			Line:   f.Line,
			Column: f.Column,
		},
	}
}

// FrameSink receives one emitted LogicalFrame and returns true once the
// caller has enough.
type FrameSink func(LogicalFrame) (done bool)
