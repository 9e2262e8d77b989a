package hindsight

import (
	"fmt"
	"strconv"
	"unsafe"
)

// pointerHexWidth is the number of characters an Address prints as,
// including the 0x prefix: 10 on 32-bit, 18 on 64-bit.
const pointerHexWidth = 2 + 2*int(unsafe.Sizeof(uintptr(0)))

// Address is an opaque, totally-ordered, hashable pointer-sized value
// (spec §3). The zero value means "no address" and compares equal only
// to another zero Address. It exposes no arithmetic beyond construction
// and reading the native handle back out: the "subtract one byte to
// point inside the call instruction" adjustment is internal to the
// walker (§4.C), never a public operation.
type Address uintptr

// FromNative constructs an Address from a raw pointer-sized value, e.g.
// one read off a captured machine context or deserialized from the
// wire protocol.
func FromNative(v uintptr) Address { return Address(v) }

// Native returns the address's raw pointer-sized value.
func (a Address) Native() uintptr { return uintptr(a) }

// IsZero reports whether a is the "no address" sentinel.
func (a Address) IsZero() bool { return a == 0 }

// String formats a as lowercase hex with a 0x prefix, zero-padded to
// the running architecture's pointer width. It never allocates more
// than the one string it returns.
func (a Address) String() string {
	var buf [pointerHexWidth]byte
	digits := strconv.AppendUint(buf[2:2], uint64(a), 16)
	pad := len(buf) - len(digits)
	copy(buf[pad:], digits)
	for i := 2; i < pad; i++ {
		buf[i] = '0'
	}
	buf[0], buf[1] = '0', 'x'
	return string(buf[:])
}

func zeroPad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	buf := make([]byte, width)
	for i := range buf {
		buf[i] = '0'
	}
	copy(buf[width-len(s):], s)
	return string(buf)
}

// Format implements fmt.Formatter so an Address prints the same way
// under %v, %s, and %x as it does from String.
func (a Address) Format(f fmt.State, verb rune) {
	switch verb {
	case 'd':
		fmt.Fprintf(f, "%d", uint64(a))
	default:
		fmt.Fprint(f, a.String())
	}
}
