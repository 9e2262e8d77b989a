package unwind

import (
	"fmt"
	"os"
)

// Memory abstracts the byte-addressable memory the walker reads return
// addresses and CFI-saved registers from. Two implementations exist: the
// current process's own stack (read directly, unsafely) and a foreign
// process's memory (read through /proc/<pid>/mem).
type Memory interface {
	ReadUint64(addr uint64) (uint64, bool)

	// ReadBytes reads n raw bytes at addr, for the leaf-frame call-site
	// disassembly check. ok is false if any of the range could not be
	// read.
	ReadBytes(addr uint64, n int) ([]byte, bool)
}

// ProcMem reads a foreign process's memory through its /proc/<pid>/mem
// file, which the kernel honors for any address currently mapped into
// that process regardless of page protection, as long as the caller has
// ptrace access to it.
type ProcMem struct {
	f *os.File
}

// OpenProcMem opens /proc/<pid>/mem for reading. The caller must already
// have PTRACE_ATTACH'd or otherwise be permitted to ptrace pid.
func OpenProcMem(pid int) (*ProcMem, error) {
	f, err := os.OpenFile(fmt.Sprintf("/proc/%d/mem", pid), os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	return &ProcMem{f: f}, nil
}

// Close releases the underlying file descriptor.
func (m *ProcMem) Close() error { return m.f.Close() }

// ReadUint64 reads 8 bytes at addr in native byte order.
func (m *ProcMem) ReadUint64(addr uint64) (uint64, bool) {
	var buf [8]byte
	n, err := m.f.ReadAt(buf[:], int64(addr))
	if n != len(buf) || err != nil {
		return 0, false
	}
	return leUint64(buf[:]), true
}

// ReadBytes reads n bytes at addr from the foreign process.
func (m *ProcMem) ReadBytes(addr uint64, n int) ([]byte, bool) {
	buf := make([]byte, n)
	read, err := m.f.ReadAt(buf, int64(addr))
	if read != n || err != nil {
		return nil, false
	}
	return buf, true
}

func leUint64(b []byte) uint64 {
	return uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 | uint64(b[3])<<24 |
		uint64(b[4])<<32 | uint64(b[5])<<40 | uint64(b[6])<<48 | uint64(b[7])<<56
}
