package unwind

import "golang.org/x/arch/x86/x86asm"

// maxCallLen bounds how far back looksLikeCallSite searches for the CALL
// instruction that would have pushed retAddr: x86-64 CALL encodings run
// at most this many bytes (a 2-byte prefix pair plus a 4-byte disp32
// ModRM/SIB form, rounded up for safety).
const maxCallLen = 8

// looksLikeCallSite is the amd64 leaf-frame confidence check: before
// trusting a speculative leaf-frame read as a return address, try to
// disassemble the bytes immediately
// before it and confirm they decode as a CALL instruction ending
// exactly at retAddr. It is advisory only — a false negative must not
// block the walk, since the abstract machine already treats this read
// as unsafe (spec §4.C) and a disassembly miss is strictly less certain
// than that.
func looksLikeCallSite(mem Memory, retAddr uint64) bool {
	if retAddr < maxCallLen {
		return false
	}
	code, ok := mem.ReadBytes(retAddr-maxCallLen, maxCallLen)
	if !ok {
		return false
	}
	for start := 0; start < maxCallLen; start++ {
		inst, err := x86asm.Decode(code[start:], 64)
		if err != nil {
			continue
		}
		if start+inst.Len == maxCallLen && inst.Op == x86asm.CALL {
			return true
		}
	}
	return false
}
