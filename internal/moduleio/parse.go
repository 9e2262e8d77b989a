package moduleio

import (
	"bufio"
	"io"
	"sort"
	"strconv"
	"strings"
)

// parseMaps reads a Linux /proc/<pid>/maps-formatted stream and coalesces
// it into one Record per distinct backing path, spanning from the lowest
// mapped address for that path to the highest. Anonymous mappings
// (stack, heap, vdso, deleted files) have no path and are skipped: they
// are never the code module a caller is resolving an instruction
// address against.
func parseMaps(r io.Reader) ([]Record, error) {
	byPath := make(map[string]*Record)
	order := make([]string, 0, 32)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		start, end, perm, path, ok := parseMapsLine(line)
		if !ok || path == "" || strings.HasPrefix(path, "[") {
			continue
		}
		if strings.Contains(path, "(deleted)") {
			continue
		}
		if !strings.Contains(perm, "x") && !strings.Contains(perm, "r") {
			continue
		}

		rec, seen := byPath[path]
		if !seen {
			rec = &Record{Base: start, Size: end - start, Path: path}
			byPath[path] = rec
			order = append(order, path)
			continue
		}
		if start < rec.Base {
			rec.Size += rec.Base - start
			rec.Base = start
		}
		if end > rec.Base+rec.Size {
			rec.Size = end - rec.Base
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(order))
	for _, path := range order {
		records = append(records, *byPath[path])
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Base < records[j].Base })
	return records, nil
}

// parseMapsLine splits one /proc/pid/maps line:
//
//	55a1b2c3d000-55a1b2c5f000 r-xp 00012000 08:01 1234567 /usr/bin/app
func parseMapsLine(line string) (start, end uint64, perm, path string, ok bool) {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return 0, 0, "", "", false
	}
	addrRange := fields[0]
	dash := strings.IndexByte(addrRange, '-')
	if dash < 0 {
		return 0, 0, "", "", false
	}
	startVal, err := strconv.ParseUint(addrRange[:dash], 16, 64)
	if err != nil {
		return 0, 0, "", "", false
	}
	endVal, err := strconv.ParseUint(addrRange[dash+1:], 16, 64)
	if err != nil {
		return 0, 0, "", "", false
	}
	perm = fields[1]
	if len(fields) >= 6 {
		path = strings.Join(fields[5:], " ")
	}
	return startVal, endVal, perm, path, true
}

// lookup returns the record containing addr, or false if none does.
func lookup(records []Record, addr uint64) (Record, bool) {
	i := sort.Search(len(records), func(i int) bool { return records[i].Base+records[i].Size > addr })
	if i < len(records) && records[i].Contains(addr) {
		return records[i], true
	}
	return Record{}, false
}
