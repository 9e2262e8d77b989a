package symbolize

import (
	"debug/dwarf"
	"io"

	delveline "github.com/go-delve/delve/pkg/dwarf/line"
)

// dwarfWalk implements the DWARF-walk symbolization strategy (spec §4.E
// step 3, "DWARF walk" branch): find the compilation unit covering addr,
// collect every subprogram/inlined_subroutine/entry_point DIE on the path
// to addr, and return them innermost-first with source coordinates
// resolved per spec's rules.
func dwarfWalk(data *dwarf.Data, lines *delveline.DebugLineInfo, addr uint64) ([]Frame, bool) {
	cu, ok := findCompileUnit(data, addr)
	if !ok {
		return nil, false
	}

	chain, ok := collectChain(data, cu, addr)
	if !ok || len(chain) == 0 {
		return nil, false
	}

	return framesFromChain(data, lines, addr, chain), true
}

// framesFromChain turns an outermost-first DIE chain into innermost-first
// Frames, each carrying the source coordinate spec §4.E assigns it: the
// innermost frame gets the line table's answer for addr itself; every
// frame outward from there gets its inner neighbor's
// call_file/call_line/call_column, not its own — an inlined frame's own
// call_* attributes describe where it was called *from* (its caller,
// one level further out), not where the PC actually is inside it.
// source_location starts at addr's own line-table entry and is advanced
// one DIE at a time as the walk moves outward, mirroring the original
// resolver's per-frame reassignment of source_location to the next
// outer frame's call site.
func framesFromChain(data *dwarf.Data, lines *delveline.DebugLineInfo, addr uint64, chain []*dwarf.Entry) []Frame {
	var curFile string
	var curLine, curCol uint32
	if lines != nil {
		file, line := lines.PCToLine(addr)
		curFile = file
		curLine = clampLine(line)
	}

	frames := make([]Frame, 0, len(chain))
	for i := len(chain) - 1; i >= 0; i-- {
		die := chain[i]
		name, mangled := resolveFuncName(data, die)
		frame := Frame{Inlined: i != 0}
		frame.Symbol = maybeDemangle(name, mangled)
		frame.File = curFile
		frame.Line = curLine
		frame.Column = curCol
		frames = append(frames, frame)

		curFile, curLine, curCol = callSiteOf(data, lines, die)
	}
	return frames
}

func findCompileUnit(data *dwarf.Data, addr uint64) (*dwarf.Entry, bool) {
	r := data.Reader()
	for {
		entry, err := r.Next()
		if err != nil || entry == nil {
			return nil, false
		}
		if entry.Tag != dwarf.TagCompileUnit {
			r.SkipChildren()
			continue
		}
		ranges, err := data.Ranges(entry)
		if err != nil {
			continue
		}
		for _, rng := range ranges {
			if addr >= rng[0] && addr < rng[1] {
				return entry, true
			}
		}
	}
}

// collectChain walks cu's subtree in pre-order, returning every
// subprogram/inlined_subroutine/entry_point DIE whose range contains
// addr, outermost first (the order they're encountered in, since a
// child always appears after its parent in a pre-order traversal).
func collectChain(data *dwarf.Data, cu *dwarf.Entry, addr uint64) ([]*dwarf.Entry, bool) {
	r := data.Reader()
	r.Seek(cu.Offset)
	if _, err := r.Next(); err != nil { // consume the CU entry itself
		return nil, false
	}

	var chain []*dwarf.Entry
	depth := 0
	for {
		entry, err := r.Next()
		if err == io.EOF || entry == nil {
			break
		}
		if entry.Tag == 0 {
			if depth == 0 {
				break
			}
			depth--
			continue
		}
		if isFunctionTag(entry.Tag) && dieContainsPC(data, entry, addr) {
			chain = append(chain, entry)
		}
		if entry.Children {
			depth++
		}
	}
	return chain, true
}

func isFunctionTag(tag dwarf.Tag) bool {
	return tag == dwarf.TagSubprogram || tag == dwarf.TagInlinedSubroutine || tag == dwarf.TagEntryPoint
}

func dieContainsPC(data *dwarf.Data, entry *dwarf.Entry, addr uint64) bool {
	ranges, err := data.Ranges(entry)
	if err != nil {
		return false
	}
	for _, rng := range ranges {
		if addr >= rng[0] && addr < rng[1] {
			return true
		}
	}
	return false
}

// resolveFuncName implements spec §4.E step 3's name search order:
// linkage_name, then MIPS_linkage_name, then follow specification, then
// abstract_origin, then the plain name. mangled reports whether the
// chosen name might be compiler-mangled and worth demangling.
func resolveFuncName(data *dwarf.Data, entry *dwarf.Entry) (name string, mangled bool) {
	for _, attr := range [...]dwarf.Attr{dwarf.AttrLinkageName, dwarf.AttrMIPSLinkageName} {
		if v, ok := entry.Val(attr).(string); ok && v != "" {
			return v, true
		}
	}
	for _, attr := range [...]dwarf.Attr{dwarf.AttrSpecification, dwarf.AttrAbstractOrigin} {
		if off, ok := entry.Val(attr).(dwarf.Offset); ok {
			r := data.Reader()
			r.Seek(off)
			if ref, err := r.Next(); err == nil && ref != nil {
				if name, mangled := resolveFuncName(data, ref); name != "" {
					return name, mangled
				}
			}
		}
	}
	if v, ok := entry.Val(dwarf.AttrName).(string); ok {
		return v, false
	}
	return "", false
}

// callSiteOf resolves an inlined-subroutine DIE's call-site source
// coordinate from its call_file/call_line/call_column attributes (spec
// §4.E step 3).
func callSiteOf(data *dwarf.Data, lines *delveline.DebugLineInfo, entry *dwarf.Entry) (file string, line, col uint32) {
	fileIdx, _ := entry.Val(dwarf.AttrCallFile).(int64)
	lineNo, _ := entry.Val(dwarf.AttrCallLine).(int64)
	colNo, _ := entry.Val(dwarf.AttrCallColumn).(int64)

	if lines != nil {
		file = lines.FilePath(int(fileIdx))
	}
	return file, clampLine(int(lineNo)), clampLine(int(colNo))
}
