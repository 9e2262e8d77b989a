package unwind

import (
	"runtime/debug"
	"unsafe"
)

// armLocalMemoryFaultGuard asks the runtime to deliver an invalid
// unsafe-pointer dereference as a recoverable runtime.Error instead of
// a fatal signal. debug.SetPanicOnFault applies only to the calling
// goroutine, so it must run on the goroutine that performs the
// LocalMemory reads; every constructor of a LocalMemory-backed walk
// calls it.
func armLocalMemoryFaultGuard() {
	debug.SetPanicOnFault(true)
}

// LocalMemory reads the calling process's own address space directly,
// for DWARF-CFI unwinding of a context captured in-process (e.g. a
// signal handler's saved registers) rather than the Go runtime's own
// stack (which WalkRuntime already handles through runtime.Callers).
//
// Every read is inherently unsafe: the abstract machine has no proof
// the address is mapped, let alone that it holds a saved return
// address. Spec §4.C calls the equivalent leaf-frame read out
// explicitly as a "volatile" load for exactly this reason.
type LocalMemory struct{}

// NewLocalMemory returns a LocalMemory, arming the calling goroutine's
// fault-to-panic guard its reads depend on.
func NewLocalMemory() LocalMemory {
	armLocalMemoryFaultGuard()
	return LocalMemory{}
}

// ReadUint64 reads 8 bytes at addr in the calling process's address
// space. ok is false only if the read itself panics from a protection
// fault, which this method recovers from and reports as failure.
func (LocalMemory) ReadUint64(addr uint64) (v uint64, ok bool) {
	defer func() {
		if recover() != nil {
			v, ok = 0, false
		}
	}()
	return *(*uint64)(unsafe.Pointer(uintptr(addr))), true
}

// ReadBytes reads n bytes starting at addr out of the calling process's
// own address space.
func (LocalMemory) ReadBytes(addr uint64, n int) (b []byte, ok bool) {
	defer func() {
		if recover() != nil {
			b, ok = nil, false
		}
	}()
	src := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(addr))), n)
	out := make([]byte, n)
	copy(out, src)
	return out, true
}
