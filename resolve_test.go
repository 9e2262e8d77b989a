package hindsight

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveZeroAddressYieldsBareFrame(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("reads /proc/self/maps")
	}

	var frames []LogicalFrame
	Resolve(Address(0), func(f LogicalFrame) bool {
		frames = append(frames, f)
		return false
	})

	require.Len(t, frames, 1)
	assert.Equal(t, Address(0), frames[0].Physical)
	assert.Empty(t, frames[0].Symbol)
	assert.Empty(t, frames[0].Source.File)
}

func TestResolvePhysicalMatchesInputAddress(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("reads /proc/self/maps")
	}

	var addrs []Address
	Capture(0, func(a Address) bool {
		addrs = append(addrs, a)
		return len(addrs) >= 1
	})
	require.NotEmpty(t, addrs)

	Resolve(addrs[0], func(f LogicalFrame) bool {
		assert.Equal(t, addrs[0], f.Physical)
		return true
	})
}

func TestResolveSeqZeroAddressYieldsOneFrame(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("reads /proc/self/maps")
	}

	count := 0
	for range ResolveSeq(Address(0)) {
		count++
	}
	assert.Equal(t, 1, count)
}
