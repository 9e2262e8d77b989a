package hindsight

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//go:noinline
func captureFromA() []Address { return captureFromB() }

//go:noinline
func captureFromB() []Address { return captureFromC() }

//go:noinline
func captureFromC() []Address {
	var addrs []Address
	Capture(0, func(a Address) bool {
		addrs = append(addrs, a)
		return len(addrs) >= 4
	})
	return addrs
}

func TestCaptureEmitsOnlyNonZeroAddresses(t *testing.T) {
	addrs := captureFromA()
	require.NotEmpty(t, addrs)
	for _, a := range addrs {
		assert.False(t, a.IsZero())
	}
}

// captureFirstFrame exists so the test below has a known, stable
// caller frame to check the first emitted Address against: Capture's
// own frame must never leak through even though Capture is
// //go:noinline and therefore a real frame on the stack.
//
//go:noinline
func captureFirstFrame() Address {
	var first Address
	Capture(0, func(a Address) bool {
		first = a
		return true
	})
	return first
}

func TestCaptureSkipZeroExcludesOwnFrame(t *testing.T) {
	addr := captureFirstFrame()
	fn := runtime.FuncForPC(addr.Native())
	require.NotNil(t, fn)
	assert.Contains(t, fn.Name(), "captureFirstFrame",
		"skip=0 must land on Capture's caller, not on Capture's own frame")
}

func TestCaptureSkipProducesSuffix(t *testing.T) {
	var full []Address
	Capture(0, func(a Address) bool {
		full = append(full, a)
		return len(full) >= 3
	})

	var skipped []Address
	Capture(1, func(a Address) bool {
		skipped = append(skipped, a)
		return len(skipped) >= 2
	})

	// A top-level test's stack is only this function, testing.tRunner and
	// runtime.goexit; skip=1 drops the first, call-site-specific frame.
	require.Len(t, full, 3)
	require.Len(t, skipped, 2)
	assert.Equal(t, full[1:], skipped)
}

func TestCaptureWithMaxDepthStopsEarly(t *testing.T) {
	var addrs []Address
	Capture(0, func(a Address) bool {
		addrs = append(addrs, a)
		return false
	}, WithMaxDepth(2))

	assert.Len(t, addrs, 2)
}

func TestCaptureSeqYieldsSameAddresses(t *testing.T) {
	var viaSeq []Address
	for a := range CaptureSeq(0) {
		viaSeq = append(viaSeq, a)
		if len(viaSeq) >= 3 {
			break
		}
	}
	assert.Len(t, viaSeq, 3)
	for _, a := range viaSeq {
		assert.False(t, a.IsZero())
	}
}

func TestContextAccessors(t *testing.T) {
	c := NewContext(ArchAMD64)
	c.SetPC(FromNative(0x1000))
	c.SetSP(FromNative(0x2000))
	c.SetReg(6, 0xdead)

	assert.Equal(t, FromNative(0x1000), c.PC())
	assert.Equal(t, FromNative(0x2000), c.SP())
	assert.Equal(t, uint64(0xdead), c.Reg(6))
	assert.Equal(t, uint64(0), c.Reg(-1))
	assert.Equal(t, uint64(0), c.Reg(9999))
}
