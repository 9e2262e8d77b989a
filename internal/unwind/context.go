// Package unwind implements the two stack-walking backends described by
// the spec: a native-table walker for the current process (backed by the
// Go runtime's own unwind tables) and a general DWARF-CFI walker that can
// unwind an arbitrary captured register context, including one belonging
// to a different, ptrace-attached process.
package unwind

// Context is a machine context: the instruction pointer, stack pointer,
// and the callee-saved registers needed to virtually unwind one frame.
// It is intentionally architecture-shaped rather than a flat register
// file, since the CFI interpreter only ever needs to resolve a handful of
// DWARF register numbers per step.
type Context struct {
	Arch Arch

	// Regs holds every general-purpose register indexed by its DWARF
	// register number for Arch. PC and SP are mirrored into the fields
	// below for callers that don't care about CFI register numbering.
	Regs [MaxDWARFReg]uint64

	PC uint64
	SP uint64

	// SignalFrame marks a context captured at the point a signal or
	// hardware exception was delivered. Per spec §4.C, the reporting
	// address for such a frame is PC verbatim, not PC-1.
	SignalFrame bool
}

// Arch identifies the architecture a Context's register numbers are DWARF
// register numbers for.
type Arch int

const (
	ArchAMD64 Arch = iota
	ArchARM64
)

// MaxDWARFReg bounds the register file; amd64's DWARF numbering tops out
// at 125 (AVX-512 mask registers k0-k7 are 118-125), arm64's at 127
// (SVE Z0-Z31 are 96-127). 128 covers both.
const MaxDWARFReg = 128

// reg numbers per the System V AMD64 and AArch64 DWARF ABI documents.
const (
	dwarfAMD64RIP = 16
	dwarfAMD64RSP = 7
	dwarfAMD64RBP = 6

	dwarfARM64PC = 32 // psABI has no DWARF number for PC; callers set Context.PC directly.
	dwarfARM64SP = 31
	dwarfARM64FP = 29
	dwarfARM64LR = 30
)

// Clone returns a value copy of ctx, used so the walker can mutate a
// scratch context without touching the caller's.
func (c Context) Clone() Context { return c }
