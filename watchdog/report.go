package watchdog

import (
	"fmt"
	"io"

	"github.com/glebov-andrey/hindsight"
)

// Resolve builds a Symbolizer for req.PID and writes one logical frame
// per line to w: the root (outermost, non-inlined) frame of each
// address is index-prefixed, and every inlined frame is indented (spec
// §6). Lines follow the symbolizer's innermost-first order, so an
// address's inlined lines come before its root line. It returns the first error, if any,
// but still attempts every address.
func Resolve(w io.Writer, req Request) error {
	sym := hindsight.OpenSymbolizer(req.PID)
	defer sym.Close()

	var firstErr error
	for i, addr := range req.Addresses {
		if err := writeFrames(w, i, sym, addr); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func writeFrames(w io.Writer, index int, sym *hindsight.Symbolizer, addr hindsight.Address) error {
	var writeErr error
	sym.Resolve(addr, func(f hindsight.LogicalFrame) bool {
		line := formatFrame(index, f)
		if _, err := fmt.Fprintln(w, line); err != nil {
			writeErr = err
			return true
		}
		return false
	})
	return writeErr
}

// formatFrame marks the non-inlined physical frame with the address's
// index (the "root" line); every inlined frame contributing to the same
// physical address is indented instead, per spec §6.
func formatFrame(index int, f hindsight.LogicalFrame) string {
	loc := ""
	if f.Source.File != "" {
		loc = fmt.Sprintf(" %s:%d", f.Source.File, f.Source.Line)
	}
	symbol := f.Symbol
	if symbol == "" {
		symbol = "??"
	}
	if !f.Inlined {
		return fmt.Sprintf("#%-3d %s %s%s", index, f.Physical, symbol, loc)
	}
	return fmt.Sprintf("      (inlined) %s%s", symbol, loc)
}
