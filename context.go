package hindsight

import "github.com/glebov-andrey/hindsight/internal/unwind"

// Context is a machine context (spec §3): the instruction pointer, stack
// pointer, and callee-saved registers needed to unwind from it. It is
// opaque beyond construction; callers build one with NewContext and
// populate it through its setters, typically at a signal/exception
// boundary, then hand it to CaptureFrom or CaptureFromMutable.
type Context struct {
	inner unwind.Context
}

// NewContext builds a Context for the given architecture, with every
// DWARF-numbered register, the instruction pointer, and the stack
// pointer left zero.
func NewContext(arch Arch) Context {
	return Context{inner: unwind.Context{Arch: unwind.Arch(arch)}}
}

// Arch identifies which architecture's DWARF register numbering a
// Context's registers follow.
type Arch int

const (
	ArchAMD64 Arch = Arch(unwind.ArchAMD64)
	ArchARM64 Arch = Arch(unwind.ArchARM64)
)

// SetPC sets the context's instruction pointer.
func (c *Context) SetPC(pc Address) { c.inner.PC = uint64(pc) }

// PC returns the context's instruction pointer.
func (c Context) PC() Address { return Address(c.inner.PC) }

// SetSP sets the context's stack pointer.
func (c *Context) SetSP(sp Address) { c.inner.SP = uint64(sp) }

// SP returns the context's stack pointer.
func (c Context) SP() Address { return Address(c.inner.SP) }

// SetReg sets the DWARF-numbered register dwreg to v.
func (c *Context) SetReg(dwreg int, v uint64) {
	if dwreg >= 0 && dwreg < len(c.inner.Regs) {
		c.inner.Regs[dwreg] = v
	}
}

// Reg returns the DWARF-numbered register dwreg.
func (c Context) Reg(dwreg int) uint64 {
	if dwreg >= 0 && dwreg < len(c.inner.Regs) {
		return c.inner.Regs[dwreg]
	}
	return 0
}

// MarkSignalFrame marks the context as captured at a signal or hardware
// exception delivery point, so the walker reports its instruction
// pointer verbatim instead of applying the -1 "inside the call
// instruction" adjustment (spec §4.C, Glossary "signal frame").
func (c *Context) MarkSignalFrame() { c.inner.SignalFrame = true }
