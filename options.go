package hindsight

import "github.com/glebov-andrey/hindsight/internal/symbolize"

// SymbolizerOption configures a Symbolizer at construction time
// (functional-options pattern).
type SymbolizerOption func(*Symbolizer)

// WithMetrics installs an instrumentation sink on the symbolizer being
// built; see internal/metrics for the Prometheus-backed implementation.
func WithMetrics(m symbolize.Metrics) SymbolizerOption {
	return func(s *Symbolizer) { s.SetMetrics(m) }
}

// WithDemangler installs the process-wide demangling collaborator used
// by every symbolizer, current-process and remote alike (spec §4.E step
// 4; demangling itself is an out-of-scope external collaborator, spec
// §1).
func WithDemangler(d symbolize.Demangler) SymbolizerOption {
	return func(*Symbolizer) { symbolize.SetDemangler(d) }
}

// WithEncoder installs the process-wide charset re-encoding collaborator
// (spec §4.E step 4).
func WithEncoder(e symbolize.Encoder) SymbolizerOption {
	return func(*Symbolizer) { symbolize.SetEncoder(e) }
}

// UnwindOption configures a single Capture/CaptureFrom/CaptureFromMutable
// call.
type UnwindOption func(*unwindConfig)

type unwindConfig struct {
	maxDepth int
}

// WithMaxDepth bounds how many frames a capture emits before stopping
// on its own, independent of what the caller's sink decides. Zero (the
// default) means unbounded, i.e. governed by the sink alone.
func WithMaxDepth(n int) UnwindOption {
	return func(c *unwindConfig) { c.maxDepth = n }
}

func resolveUnwindConfig(opts []UnwindOption) unwindConfig {
	var c unwindConfig
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
