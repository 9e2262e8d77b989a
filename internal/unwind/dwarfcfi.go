package unwind

import (
	"encoding/binary"

	delveframe "github.com/go-delve/delve/pkg/dwarf/frame"

	"github.com/glebov-andrey/hindsight/internal/log"
)

// Tables holds the parsed call-frame-information program for one module's
// .eh_frame (or .debug_frame) section, in the coordinate space the
// section itself uses (i.e. before any load-address bias is applied).
type Tables struct {
	fdes    delveframe.FrameDescriptionEntries
	ptrSize int
}

// ParseTables parses a module's raw CFI section bytes. staticBase is the
// section's own declared base address (almost always 0 for .eh_frame);
// ptrSize is 8 on every architecture this package supports.
func ParseTables(cfiSection []byte, staticBase uint64, ptrSize int) (*Tables, error) {
	fdes, err := delveframe.Parse(cfiSection, binary.LittleEndian, staticBase, ptrSize)
	if err != nil {
		return nil, err
	}
	return &Tables{fdes: fdes, ptrSize: ptrSize}, nil
}

// TableProvider resolves the CFI table covering a (biased) instruction
// pointer along with the bias needed to translate it into the table's own
// coordinate space. It is implemented by the symbolizer's module+session
// plumbing; unwind itself has no notion of modules.
type TableProvider interface {
	TablesForPC(pc uint64) (tables *Tables, bias uint64, ok bool)
}

// step applies one virtual-unwind iteration using the CFI program
// covering ip, returning the caller's PC and SP. ok is false if ip falls
// outside every known FDE, in which case the walker falls back to the
// frame-pointer-less leaf read (spec §4.C step 4).
func (t *Tables) step(arch Arch, ip uint64, mem Memory, regs *Context) (newPC, newSP uint64, ok bool) {
	fde, err := t.fdes.FDEForPC(ip)
	if err != nil {
		return 0, 0, false
	}

	fctx := fde.EstablishFrame(ip)

	cfa, ok := resolveCFA(fctx, regs)
	if !ok {
		return 0, 0, false
	}

	retReg := retAddrReg(arch)
	retAddr, ok := resolveSavedReg(fctx, retReg, cfa, mem, regs)
	if !ok || retAddr == 0 {
		return 0, 0, false
	}

	// Walk every tracked callee-saved register forward so the next step
	// (and, ultimately, the caller's own leaf/CFI read) sees an up to date
	// scratch context rather than stale leaf registers.
	for dwreg := range fctx.Regs {
		if int(dwreg) >= len(regs.Regs) {
			continue
		}
		if v, ok := resolveSavedReg(fctx, dwreg, cfa, mem, regs); ok {
			regs.Regs[dwreg] = v
		}
	}

	return retAddr, cfa, true
}

func retAddrReg(arch Arch) uint64 {
	switch arch {
	case ArchARM64:
		return dwarfARM64LR
	default:
		return dwarfAMD64RIP
	}
}

func resolveCFA(fctx *delveframe.FrameContext, regs *Context) (uint64, bool) {
	rule := fctx.CFA
	if int(rule.Reg) >= len(regs.Regs) {
		return 0, false
	}
	base := regs.Regs[rule.Reg]
	return uint64(int64(base) + rule.Offset), true
}

func resolveSavedReg(fctx *delveframe.FrameContext, dwreg uint64, cfa uint64, mem Memory, regs *Context) (uint64, bool) {
	rule, tracked := fctx.Regs[dwreg]
	if !tracked {
		if int(dwreg) < len(regs.Regs) {
			return regs.Regs[dwreg], true
		}
		return 0, false
	}
	switch rule.Rule {
	case delveframe.RuleOffset:
		return mem.ReadUint64(uint64(int64(cfa) + rule.Offset))
	case delveframe.RuleRegister:
		if int(rule.Reg) >= len(regs.Regs) {
			return 0, false
		}
		return regs.Regs[rule.Reg], true
	case delveframe.RuleSameVal:
		if int(dwreg) < len(regs.Regs) {
			return regs.Regs[dwreg], true
		}
		return 0, false
	default:
		return 0, false
	}
}

// Walk implements the general, CFI-driven unwinder (spec §4.C). It works
// from any captured Context, including one belonging to a different,
// ptrace-stopped process, or one captured at a signal/exception boundary.
func Walk(ctx Context, mem Memory, tables TableProvider, skip int, sink Sink) {
	scratch := ctx.Clone()

	for {
		ip := scratch.PC
		if ip == 0 {
			return
		}

		if skip > 0 {
			skip--
		} else {
			report := ip - 1
			if scratch.SignalFrame {
				report = ip
			}
			if sink(report) {
				return
			}
		}

		// Mirror SP into its DWARF register slot: CFA rules address the
		// stack pointer through Regs, while the walk advances scratch.SP.
		spReg := dwarfAMD64RSP
		if scratch.Arch == ArchARM64 {
			spReg = dwarfARM64SP
		}
		scratch.Regs[spReg] = scratch.SP

		t, bias, found := tables.TablesForPC(ip)
		if found {
			newPC, newSP, ok := t.step(scratch.Arch, ip-bias, mem, &scratch)
			if ok {
				scratch.PC = newPC + bias
				scratch.SP = newSP
				scratch.SignalFrame = false
				continue
			}
			log.Debugf("hindsight: no CFI row for %#x, falling back to leaf read", ip)
		}

		// Leaf fallback: no unwind info, assume a prologue-less leaf
		// function and read the return address off the top of the stack.
		// This load is inherently speculative — nothing proves that
		// address is actually a saved return address — so it is the one
		// place the walker trusts raw stack content rather than CFI.
		retAddr, ok := mem.ReadUint64(scratch.SP)
		if !ok {
			return
		}
		if scratch.Arch == ArchAMD64 && !looksLikeCallSite(mem, retAddr) {
			log.Debugf("hindsight: leaf read at %#x does not look like a call site, trusting it anyway", retAddr)
		}
		scratch.PC = retAddr
		scratch.SP += uint64(t.ptrSizeOrDefault())
		scratch.SignalFrame = false
	}
}

func (t *Tables) ptrSizeOrDefault() int {
	if t == nil || t.ptrSize == 0 {
		return 8
	}
	return t.ptrSize
}
