package hindsight

import (
	"io"
	"sync"

	"github.com/glebov-andrey/hindsight/internal/moduleio"
	"github.com/glebov-andrey/hindsight/internal/symbolize"
	"github.com/glebov-andrey/hindsight/internal/unwind"
)

// Symbolizer resolves addresses against one process's module map and
// debug-info session cache. The zero value is not usable; construct one
// with OpenSymbolizer, or use the package-level Resolve for the
// in-process default (spec §4.F, §9 "the default symbolizer is a
// process-wide singleton").
type Symbolizer struct {
	inner *symbolize.Symbolizer
}

// OpenSymbolizer binds a Symbolizer to a foreign process by pid: it reads
// the process's module map from /proc/<pid>/maps and each module's debug
// information from the module file on disk, never the process's memory.
// OpenSymbolizerFromMapsSnapshot is the snapshot-based counterpart (spec
// §9's two remote module-map constructors). It never fails outright: a process
// that can't be reached yet still yields a Symbolizer that degrades
// every Resolve call to bare frames until the process becomes
// reachable.
func OpenSymbolizer(pid int, opts ...SymbolizerOption) *Symbolizer {
	remote := moduleio.NewRemoteFromPID(pid)
	return newSymbolizer(remote, remote, opts)
}

// OpenSymbolizerFromMapsSnapshot binds a Symbolizer to an already-open,
// seekable reader over a foreign process's /proc/pid/maps-format mapping
// snapshot (spec §9), for hosts that hand their watchdog a descriptor
// rather than a live process handle.
func OpenSymbolizerFromMapsSnapshot(maps io.ReaderAt, opts ...SymbolizerOption) *Symbolizer {
	remote := moduleio.NewRemoteFromMapsSnapshot(maps)
	return newSymbolizer(remote, remote, opts)
}

func newSymbolizer(modules symbolize.ModuleMap, rescan symbolize.Rescanner, opts []SymbolizerOption) *Symbolizer {
	s := &Symbolizer{inner: symbolize.New(modules, rescan)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetMetrics installs an instrumentation sink; see internal/metrics for
// the Prometheus-backed implementation.
func (s *Symbolizer) SetMetrics(m symbolize.Metrics) { s.inner.SetMetrics(m) }

// Resolve implements spec §4.E against this symbolizer's module map and
// session cache.
func (s *Symbolizer) Resolve(addr Address, sink FrameSink) {
	s.inner.Resolve(uint64(addr), func(f symbolize.Frame) bool {
		return sink(fromInternalFrame(f))
	})
}

// Close releases every debug-info session this symbolizer opened.
func (s *Symbolizer) Close() error { return s.inner.Close() }

// tableProvider exposes this symbolizer's module map and session cache
// as an unwind.TableProvider, for CaptureFrom's DWARF-CFI walk.
func (s *Symbolizer) tableProvider() unwind.TableProvider { return s.inner.TableProvider() }

// observeUnwindDepth reports a single capture's frame count to whatever
// Metrics this symbolizer was configured with.
func (s *Symbolizer) observeUnwindDepth(n int) { s.inner.ObserveUnwindDepth(n) }

var (
	defaultSymbolizerOnce sync.Once
	defaultSymbolizerInst *Symbolizer
)

// defaultSymbolizer returns the process-wide singleton used by the
// package-level Resolve and by CaptureFrom's in-process CFI lookups. It
// is built on first use and torn down only at process exit (spec §9).
func defaultSymbolizer() *Symbolizer {
	defaultSymbolizerOnce.Do(func() {
		defaultSymbolizerInst = &Symbolizer{inner: symbolize.New(moduleio.Local{}, nil)}
	})
	return defaultSymbolizerInst
}

// Resolve translates addr into its logical frames using the default,
// in-process symbolizer (spec §4.F).
func Resolve(addr Address, sink FrameSink) {
	defaultSymbolizer().Resolve(addr, sink)
}
