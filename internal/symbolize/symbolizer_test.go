package symbolize

import (
	"reflect"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glebov-andrey/hindsight/internal/moduleio"
)

type emptyModuleMap struct{ lookups int }

func (m *emptyModuleMap) Lookup(uint64) (moduleio.Record, bool) {
	m.lookups++
	return moduleio.Record{}, false
}

type countingRescanner struct{ rescans int }

func (r *countingRescanner) Rescan() ([]moduleio.Record, error) {
	r.rescans++
	return nil, nil
}

func TestResolveEmitsBareFrameWhenNoModuleFound(t *testing.T) {
	modules := &emptyModuleMap{}
	s := New(modules, nil)

	var got []Frame
	s.Resolve(0x1234, func(f Frame) bool {
		got = append(got, f)
		return false
	})

	require.Len(t, got, 1)
	assert.Equal(t, uint64(0x1234), got[0].Physical)
	assert.Empty(t, got[0].Symbol)
	assert.False(t, got[0].Inlined)
}

func TestResolveRetriesOnceViaRescanBeforeGivingUp(t *testing.T) {
	modules := &emptyModuleMap{}
	rescanner := &countingRescanner{}
	s := New(modules, rescanner)

	s.Resolve(0x1234, func(Frame) bool { return false })

	assert.Equal(t, 1, rescanner.rescans)
	assert.Equal(t, 2, modules.lookups, "one lookup before the rescan, one after")
}

type countingMetrics struct {
	sessionsOpened, cacheHits, cacheMisses, bareFrames int
	latencies                                          []time.Duration
	depths                                             []int
}

func (m *countingMetrics) SessionOpened()                       { m.sessionsOpened++ }
func (m *countingMetrics) CacheHit()                             { m.cacheHits++ }
func (m *countingMetrics) CacheMiss()                            { m.cacheMisses++ }
func (m *countingMetrics) BareFrame()                            { m.bareFrames++ }
func (m *countingMetrics) ObserveResolveLatency(d time.Duration) { m.latencies = append(m.latencies, d) }
func (m *countingMetrics) ObserveUnwindDepth(n int)              { m.depths = append(m.depths, n) }

func TestResolveReportsBareFrameMetric(t *testing.T) {
	modules := &emptyModuleMap{}
	s := New(modules, nil)
	metrics := &countingMetrics{}
	s.SetMetrics(metrics)

	s.Resolve(0x1234, func(Frame) bool { return false })

	assert.Equal(t, 1, metrics.bareFrames)
}

// probeForMetrics exists only so the test has a known address to resolve
// against the running binary's own module map entry.
//
//go:noinline
func probeForMetrics() int { return 7 }

func TestResolveReportsSessionOpenedThenCacheHit(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("reads /proc/self/maps and the current executable's ELF")
	}

	pc := reflect.ValueOf(probeForMetrics).Pointer()

	s := New(moduleio.Local{}, nil)
	defer s.Close()
	metrics := &countingMetrics{}
	s.SetMetrics(metrics)

	s.Resolve(uint64(pc), func(Frame) bool { return false })
	s.Resolve(uint64(pc), func(Frame) bool { return false })

	assert.Equal(t, 1, metrics.sessionsOpened, "first resolve opens the session")
	assert.Equal(t, 1, metrics.cacheMisses, "first resolve is a cache miss")
	assert.Equal(t, 1, metrics.cacheHits, "second resolve reuses the cached session")
	assert.Len(t, metrics.latencies, 2, "every Resolve call observes its own latency")
}

func TestResolvePropagatesSinkPanicUnchanged(t *testing.T) {
	modules := &emptyModuleMap{}
	s := New(modules, nil)

	assert.PanicsWithValue(t, "sink blew up", func() {
		s.Resolve(0x1234, func(Frame) bool { panic("sink blew up") })
	})
}

func TestResolveStopsWhenSinkIsDone(t *testing.T) {
	modules := &emptyModuleMap{}
	s := New(modules, nil)

	calls := 0
	s.Resolve(0x1234, func(Frame) bool {
		calls++
		return true
	})

	assert.Equal(t, 1, calls)
}
