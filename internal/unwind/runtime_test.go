package unwind

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//go:noinline
func walkA(sink Sink) { walkB(sink) }

//go:noinline
func walkB(sink Sink) { walkC(sink) }

//go:noinline
func walkC(sink Sink) { WalkRuntime(1, sink) }

//go:noinline
func walkWithSkip(skip int, sink Sink) { WalkRuntime(skip, sink) }

func TestWalkRuntimeEmitsNonZeroAddresses(t *testing.T) {
	var pcs []uint64
	walkC(func(pc uint64) bool {
		pcs = append(pcs, pc)
		return len(pcs) >= 4
	})
	require.NotEmpty(t, pcs)
	for _, pc := range pcs {
		assert.NotZero(t, pc)
	}
}

func TestWalkRuntimeSkipProducesSuffix(t *testing.T) {
	// WalkRuntime, walkWithSkip, this test, testing.tRunner, runtime.goexit.
	const depth = 5

	// Both walks go through one call site so the frames above
	// walkWithSkip carry the same return addresses.
	var walks [2][]uint64
	for skip := range walks {
		walkWithSkip(skip, func(pc uint64) bool {
			walks[skip] = append(walks[skip], pc)
			return len(walks[skip]) >= depth-skip
		})
	}

	full := walks[0]
	require.Len(t, full, depth)

	skipped := walks[1]
	require.Len(t, skipped, depth-1)

	assert.Equal(t, full[1:], skipped)
}

func TestWalkRuntimeStopsWhenSinkIsDone(t *testing.T) {
	calls := 0
	walkC(func(uint64) bool {
		calls++
		return true
	})
	assert.Equal(t, 1, calls)
}
