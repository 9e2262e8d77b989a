// Package moduleio implements the module-map component (spec §4.B): given
// an address, find the load base, size, and on-disk path of the code
// module that contains it, for either the current process or a foreign
// one.
package moduleio

// Record describes one loaded module. A module contains address a iff
// Base <= a < Base+Size.
type Record struct {
	Base uint64
	Size uint64
	Path string
}

// Contains reports whether addr falls within the module's mapped range.
func (r Record) Contains(addr uint64) bool {
	return addr >= r.Base && addr < r.Base+r.Size
}
