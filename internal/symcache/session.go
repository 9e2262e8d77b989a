// Package symcache implements the debug-info session cache (spec §4.D):
// a thread-safe, at-most-once-per-module-path mapping from module path to
// an opened debug-info session.
package symcache

import (
	"debug/dwarf"
	"fmt"
	"sort"
	"sync"

	delveline "github.com/go-delve/delve/pkg/dwarf/line"
	"github.com/pkg/errors"

	"github.com/glebov-andrey/hindsight/internal/log"
	"github.com/glebov-andrey/hindsight/internal/safeelf"
	"github.com/glebov-andrey/hindsight/internal/unwind"
)

// Session is everything the symbolizer and unwinder need from one
// module's on-disk file: its DWARF data (if present), its bias, its ELF
// symbol table for the no-DWARF fallback, and its lazily-parsed CFI
// program.
type Session struct {
	Path string
	Bias uint64

	elf       *safeelf.File
	dwarfData *dwarf.Data // nil if the module carries no DWARF info

	symtabOnce sync.Once
	symtab     []safeelf.Symbol // sorted by Value, functions only

	cfiOnce sync.Once
	cfi     *unwind.Tables
	cfiErr  error

	lineOnce sync.Once
	lines    *delveline.DebugLineInfo
}

// Open reads the ELF and DWARF data for the module at path, biasing
// addresses against base (the module's load address in the target
// process). A module with no DWARF section still opens successfully;
// DWARF() reports nil and callers fall back to the ELF symbol table.
func Open(path string, base uint64) (*Session, error) {
	f, err := safeelf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open module %s", path)
	}

	bias, err := safeelf.TextBias(f, base)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "compute load bias for %s", path)
	}

	dwData, err := safeelf.DWARF(f)
	if err != nil {
		dwData = nil // stripped, no debug info, or malformed: not a hard failure
	}

	return &Session{Path: path, Bias: bias, elf: f, dwarfData: dwData}, nil
}

// Close releases the underlying file handle.
func (s *Session) Close() error { return s.elf.Close() }

// DWARF returns the module's parsed DWARF data, or nil if it has none.
func (s *Session) DWARF() *dwarf.Data { return s.dwarfData }

// ELF returns the underlying ELF reader, for section/symbol access the
// DWARF walk and the symtab fallback both need.
func (s *Session) ELF() *safeelf.File { return s.elf }

// Symtab returns the module's function symbols sorted by address,
// lazily reading and sorting them on first use.
func (s *Session) Symtab() []safeelf.Symbol {
	s.symtabOnce.Do(func() {
		syms, err := safeelf.Symbols(s.elf)
		if err != nil {
			syms, err = safeelf.DynamicSymbols(s.elf)
			if err != nil {
				return
			}
		}
		funcs := syms[:0:0]
		for _, sym := range syms {
			if safeelf.ST_TYPE(sym.Info) != safeelf.STT_FUNC {
				continue
			}
			funcs = append(funcs, sym)
		}
		sort.Slice(funcs, func(i, j int) bool { return funcs[i].Value < funcs[j].Value })
		s.symtab = funcs
	})
	return s.symtab
}

// FindSymbol returns the function symbol whose range contains addr (a
// bias-adjusted, module-relative address), for the ELF-symtab fallback
// (spec §4.E step 5).
func (s *Session) FindSymbol(addr uint64) (safeelf.Symbol, bool) {
	syms := s.Symtab()
	i := sort.Search(len(syms), func(i int) bool { return syms[i].Value+syms[i].Size > addr })
	if i < len(syms) && addr >= syms[i].Value && addr < syms[i].Value+syms[i].Size {
		return syms[i], true
	}
	return safeelf.Symbol{}, false
}

// Lines returns the module's parsed .debug_line program, the piece of
// DWARF that maps addresses to source coordinates — something
// debug/dwarf itself does not decode. Returns nil if the module has no
// line program (e.g. stripped debug info).
func (s *Session) Lines() *delveline.DebugLineInfo {
	s.lineOnce.Do(func() {
		sec := s.elf.Section(".debug_line")
		if sec == nil {
			return
		}
		data, err := safeelf.SectionData(sec)
		if err != nil {
			return
		}
		var strData []byte
		if strSec := s.elf.Section(".debug_line_str"); strSec != nil {
			strData, _ = safeelf.SectionData(strSec)
		}
		s.lines = parseLineProgram(s.Path, data, strData)
	})
	return s.lines
}

// parseLineProgram calls delveline.Parse behind a recover: the line-
// program decoder is third-party and, unlike debug/elf, does not defend
// itself against truncated or malformed .debug_line data.
func parseLineProgram(path string, data, strData []byte) (lines *delveline.DebugLineInfo) {
	defer func() {
		if r := recover(); r != nil {
			log.Debugf("hindsight: recovered from panic decoding .debug_line for %s: %v", path, r)
			lines = nil
		}
	}()
	return delveline.Parse(0, data, strData, nil, 8)
}

// CFI returns the module's parsed call-frame-information program,
// parsing .eh_frame (falling back to .debug_frame) on first use. The
// outcome of that first parse — success or failure — is cached in
// cfiErr alongside cfi, since cfiOnce only runs the closure once: a
// local-only err here would be nil on every call after the first,
// turning a real first-call failure into a silent (nil, nil) on every
// later call.
func (s *Session) CFI() (*unwind.Tables, error) {
	s.cfiOnce.Do(func() {
		var data []byte
		var err error
		if sec := s.elf.Section(".eh_frame"); sec != nil {
			data, err = safeelf.SectionData(sec)
		} else if sec := s.elf.Section(".debug_frame"); sec != nil {
			data, err = safeelf.SectionData(sec)
		} else {
			s.cfiErr = errors.Errorf("module %s has no CFI section", s.Path)
			return
		}
		if err != nil {
			s.cfiErr = err
			return
		}
		s.cfi, s.cfiErr = parseCFITables(s.Path, data)
	})
	return s.cfi, s.cfiErr
}

// parseCFITables calls unwind.ParseTables (itself backed by delve's CFI
// decoder) behind a recover, for the same reason parseLineProgram does:
// the decoder is third-party and does not guarantee it only returns
// errors on malformed input.
func parseCFITables(path string, data []byte) (tables *unwind.Tables, err error) {
	defer func() {
		if r := recover(); r != nil {
			tables = nil
			err = fmt.Errorf("recovered from panic parsing CFI for %s: %v", path, r)
		}
	}()
	return unwind.ParseTables(data, 0, 8)
}
