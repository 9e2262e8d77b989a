package moduleio

import "os"

// Local answers module-map queries against the calling process's own
// address space by re-reading /proc/self/maps on every lookup. Re-parsing
// each time keeps it correct across dlopen/dlclose without caching state
// that could go stale (spec §4.B: "cheap and non-blocking").
type Local struct{}

// Lookup finds the module containing addr, or reports none.
func (Local) Lookup(addr uint64) (Record, bool) {
	f, err := os.Open("/proc/self/maps")
	if err != nil {
		return Record{}, false
	}
	defer f.Close()

	records, err := parseMaps(f)
	if err != nil {
		return Record{}, false
	}
	return lookup(records, addr)
}
