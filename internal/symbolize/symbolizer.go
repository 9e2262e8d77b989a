package symbolize

import (
	"time"

	"github.com/glebov-andrey/hindsight/internal/log"
	"github.com/glebov-andrey/hindsight/internal/moduleio"
	"github.com/glebov-andrey/hindsight/internal/symcache"
	"github.com/glebov-andrey/hindsight/internal/unwind"
)

// ModuleMap is the module-resolution capability the symbolizer needs
// (spec §4.B); *moduleio.Local and *moduleio.Remote both satisfy it.
type ModuleMap interface {
	Lookup(addr uint64) (moduleio.Record, bool)
}

// Rescanner is implemented by module maps that can re-enumerate a
// foreign process's mappings once, for the "maybe it just loaded" retry
// in spec §4.E step 1. *moduleio.Local does not implement it: the local
// OS loader query is already authoritative on every call.
type Rescanner interface {
	Rescan() ([]moduleio.Record, error)
}

// Metrics receives symbolizer-internal counters. A nil Metrics
// (the zero value, via noopMetrics) disables instrumentation entirely.
type Metrics interface {
	SessionOpened()
	CacheHit()
	CacheMiss()
	BareFrame()
	ObserveResolveLatency(time.Duration)
	ObserveUnwindDepth(n int)
}

type noopMetrics struct{}

func (noopMetrics) SessionOpened()                     {}
func (noopMetrics) CacheHit()                          {}
func (noopMetrics) CacheMiss()                         {}
func (noopMetrics) BareFrame()                         {}
func (noopMetrics) ObserveResolveLatency(time.Duration) {}
func (noopMetrics) ObserveUnwindDepth(n int)            {}

// Symbolizer implements spec §4.E. It is safe for concurrent Resolve
// calls: the module map is read-only or self-synchronizing, and the
// session cache guards itself.
type Symbolizer struct {
	modules ModuleMap
	rescan  Rescanner // nil for the local, in-process variant
	cache   *symcache.Cache
	metrics Metrics
}

// New builds a Symbolizer over modules, optionally able to re-scan a
// foreign process's mappings via rescan (pass nil for the local variant).
func New(modules ModuleMap, rescan Rescanner) *Symbolizer {
	return &Symbolizer{modules: modules, rescan: rescan, cache: symcache.New(), metrics: noopMetrics{}}
}

// SetMetrics installs the instrumentation sink; pass nil to disable it.
func (s *Symbolizer) SetMetrics(m Metrics) {
	if m == nil {
		m = noopMetrics{}
	}
	s.metrics = m
}

// Close releases every debug-info session this symbolizer opened.
func (s *Symbolizer) Close() error { return s.cache.Close() }

// ObserveUnwindDepth reports the number of frames a single capture
// emitted, for the capture-side half of spec §4.F's instrumentation;
// Resolve drives the cache/latency counters itself, but depth is only
// known to the unwinder, not the symbolizer.
func (s *Symbolizer) ObserveUnwindDepth(n int) { s.metrics.ObserveUnwindDepth(n) }

// Resolve implements spec §4.E: locate the module containing addr, open
// or reuse its debug session, and emit each logical frame through sink,
// innermost first. It downgrades to a bare frame on any debug-info
// decode failure, including one the ELF/DWARF/line-table decoders
// raise as a panic instead of an error on crafted or truncated module
// data (see decodeFrames). A panic sink itself raises is a different
// matter entirely — spec §7 requires that to abort the call and
// propagate unchanged — so Resolve never recovers around its own calls
// to sink.
func (s *Symbolizer) Resolve(addr uint64, sink Sink) {
	start := time.Now()
	defer func() { s.metrics.ObserveResolveLatency(time.Since(start)) }()

	rec, ok := s.modules.Lookup(addr)
	if !ok && s.rescan != nil {
		s.cache.BeginRescan()
		_, err := s.rescan.Rescan()
		s.cache.EndRescan()
		if err != nil {
			log.Debugf("hindsight: remote module rescan failed: %s", err)
		} else {
			rec, ok = s.modules.Lookup(addr)
		}
	}
	if !ok {
		s.metrics.BareFrame()
		sink(bareFrame(addr))
		return
	}

	sess, opened, err := s.cache.GetOrOpen(rec.Path, rec.Base)
	if err != nil {
		log.Debugf("hindsight: opening debug session for %s: %s", rec.Path, err)
		s.metrics.BareFrame()
		sink(bareFrame(addr))
		return
	}
	if opened {
		s.metrics.SessionOpened()
		s.metrics.CacheMiss()
	} else {
		s.metrics.CacheHit()
	}

	relAddr := addr - sess.Bias

	frames, ok := s.decodeFrames(sess, addr, relAddr)
	if !ok {
		s.metrics.BareFrame()
		sink(bareFrame(addr))
		return
	}
	for _, f := range frames {
		if sink(f) {
			return
		}
	}
}

// decodeFrames resolves addr's logical frames from sess's debug info: a
// DWARF inline chain if sess has DWARF data and one covers relAddr,
// else the single ELF symbol-table entry covering it. It recovers from
// any panic the ELF/DWARF/line-table decode path raises — a crafted or
// truncated module file must degrade Resolve, never crash its caller —
// and reports that as ok=false. It never calls sink, so a panic from
// the caller's own sink can never reach this recover; only decode-path
// panics are caught here.
func (s *Symbolizer) decodeFrames(sess *symcache.Session, addr, relAddr uint64) (frames []Frame, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Debugf("hindsight: recovered from panic decoding debug info for %s: %v", sess.Path, r)
			frames, ok = nil, false
		}
	}()

	if dw := sess.DWARF(); dw != nil {
		if fr, found := dwarfWalk(dw, sess.Lines(), relAddr); found {
			for i := range fr {
				fr[i].Physical = addr
			}
			return fr, true
		}
	}

	if sym, found := sess.FindSymbol(relAddr); found {
		return []Frame{{Physical: addr, Symbol: maybeDemangle(sym.Name, true)}}, true
	}

	return nil, false
}

// tableProvider adapts a Symbolizer's module map and session cache to
// unwind.TableProvider, so the DWARF-CFI unwinder can resolve a module's
// CFI program the same way Resolve resolves its DWARF info.
type tableProvider struct {
	modules ModuleMap
	cache   *symcache.Cache
}

// TableProvider returns an unwind.TableProvider backed by this
// symbolizer's module map and session cache.
func (s *Symbolizer) TableProvider() unwind.TableProvider {
	return &tableProvider{modules: s.modules, cache: s.cache}
}

func (p *tableProvider) TablesForPC(pc uint64) (*unwind.Tables, uint64, bool) {
	rec, ok := p.modules.Lookup(pc)
	if !ok {
		return nil, 0, false
	}
	sess, _, err := p.cache.GetOrOpen(rec.Path, rec.Base)
	if err != nil {
		return nil, 0, false
	}
	tables, err := sess.CFI()
	if err != nil {
		return nil, 0, false
	}
	return tables, sess.Bias, true
}
