// Package metrics wires the symbolizer's cache-hit/miss and bare-frame
// counters into a Prometheus registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Symbolizer implements symbolize.Metrics against a set of Prometheus
// counters and a resolve-latency histogram.
type Symbolizer struct {
	sessionsOpened prometheus.Counter
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	bareFrames     prometheus.Counter
	ResolveLatency prometheus.Histogram
	UnwindDepth    prometheus.Histogram
}

// NewSymbolizer registers a fresh counter set under reg. Pass
// prometheus.NewRegistry() for an isolated registry, or
// prometheus.DefaultRegisterer to expose them process-wide.
func NewSymbolizer(reg prometheus.Registerer) *Symbolizer {
	m := &Symbolizer{
		sessionsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hindsight",
			Subsystem: "symbolizer",
			Name:      "sessions_opened_total",
			Help:      "Debug-info sessions opened by the session cache.",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hindsight",
			Subsystem: "symbolizer",
			Name:      "session_cache_hits_total",
			Help:      "Resolve calls served by an already-open debug session.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hindsight",
			Subsystem: "symbolizer",
			Name:      "session_cache_misses_total",
			Help:      "Resolve calls that had to open a new debug session.",
		}),
		bareFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hindsight",
			Subsystem: "symbolizer",
			Name:      "bare_frames_total",
			Help:      "Resolve calls that degraded to a bare logical frame.",
		}),
		ResolveLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hindsight",
			Subsystem: "symbolizer",
			Name:      "resolve_duration_seconds",
			Help:      "Wall-clock time spent in one Resolve call.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 12),
		}),
		UnwindDepth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hindsight",
			Subsystem: "unwind",
			Name:      "capture_depth_frames",
			Help:      "Number of frames a single capture emitted.",
			Buckets:   prometheus.LinearBuckets(0, 8, 16),
		}),
	}
	reg.MustRegister(m.sessionsOpened, m.cacheHits, m.cacheMisses, m.bareFrames, m.ResolveLatency, m.UnwindDepth)
	return m
}

func (m *Symbolizer) SessionOpened() { m.sessionsOpened.Inc() }
func (m *Symbolizer) CacheHit()      { m.cacheHits.Inc() }
func (m *Symbolizer) CacheMiss()     { m.cacheMisses.Inc() }
func (m *Symbolizer) BareFrame()     { m.bareFrames.Inc() }

func (m *Symbolizer) ObserveResolveLatency(d time.Duration) { m.ResolveLatency.Observe(d.Seconds()) }
func (m *Symbolizer) ObserveUnwindDepth(n int)              { m.UnwindDepth.Observe(float64(n)) }
