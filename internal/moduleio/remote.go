package moduleio

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/glebov-andrey/hindsight/internal/log"
)

// MapsSource supplies a fresh, re-readable view of a foreign process's
// memory mappings. PID-backed and snapshot-backed remote module maps both
// implement it; it is the "opaque descriptor the module-map component
// knows how to interrogate" spec §9's open question asks for.
type MapsSource interface {
	OpenMaps() (io.ReadCloser, error)
}

type pidSource int

func (p pidSource) OpenMaps() (io.ReadCloser, error) {
	return os.Open(fmt.Sprintf("/proc/%d/maps", int(p)))
}

// snapshotSource wraps an already-open, seekable maps file (e.g. one a
// crash-handling watchdog inherited over a pipe from the process it is
// inspecting) rather than re-opening /proc each lookup.
type snapshotSource struct {
	ra io.ReaderAt
}

func (s snapshotSource) OpenMaps() (io.ReadCloser, error) {
	return io.NopCloser(io.NewSectionReader(s.ra, 0, 1<<62)), nil
}

// Remote answers module-map queries against a foreign process. Because
// that process can be concurrently loading or unloading modules, a single
// lookup is racy: failures are retried internally with increasing
// back-off before Remote gives up and reports none (spec §4.B).
type Remote struct {
	source MapsSource
}

// NewRemoteFromPID builds a Remote that re-reads /proc/<pid>/maps on every
// lookup attempt.
func NewRemoteFromPID(pid int) *Remote {
	return &Remote{source: pidSource(pid)}
}

// NewRemoteFromMapsSnapshot builds a Remote backed by an already-open,
// seekable maps-format reader, for hosts that hand their watchdog a
// snapshot file descriptor instead of a process handle (spec §9).
func NewRemoteFromMapsSnapshot(ra io.ReaderAt) *Remote {
	return &Remote{source: snapshotSource{ra: ra}}
}

// backoffSchedule is yield, 1ms, 10ms, 10ms, ... capped at 100ms, with at
// least ten attempts before giving up, per spec §4.B.
func backoffSchedule() []time.Duration {
	return []time.Duration{
		0,
		time.Millisecond,
		10 * time.Millisecond,
		10 * time.Millisecond,
		10 * time.Millisecond,
		50 * time.Millisecond,
		100 * time.Millisecond,
		100 * time.Millisecond,
		100 * time.Millisecond,
		100 * time.Millisecond,
	}
}

// Lookup finds the module containing addr in the foreign process,
// retrying transient read failures with back-off.
func (r *Remote) Lookup(addr uint64) (Record, bool) {
	rec, _, ok, err := r.lookupAttempt(addr)
	if !ok && err != nil {
		log.Debugf("hindsight: remote module-map lookup for %#x exhausted retries: %s", addr, err)
	}
	return rec, ok
}

// Rescan re-reads the foreign mappings once more, bypassing back-off,
// for the symbolizer's one-shot "maybe it just loaded" recheck (spec
// §4.E step 1). It returns every record it could read, even if none of
// them contains addr, so the caller can decide what "still missing"
// means.
func (r *Remote) Rescan() ([]Record, error) {
	return r.readOnce()
}

func (r *Remote) lookupAttempt(addr uint64) (Record, []Record, bool, error) {
	var merr *multierror.Error
	for _, delay := range backoffSchedule() {
		if delay > 0 {
			time.Sleep(delay)
		} else {
			runtime.Gosched()
		}

		records, err := r.readOnce()
		if err != nil {
			merr = multierror.Append(merr, err)
			continue
		}
		if rec, ok := lookup(records, addr); ok {
			return rec, records, true, nil
		}
	}
	return Record{}, nil, false, merr.ErrorOrNil()
}

func (r *Remote) readOnce() ([]Record, error) {
	f, err := r.source.OpenMaps()
	if err != nil {
		return nil, errors.Wrap(err, "open remote maps source")
	}
	defer f.Close()
	return parseMaps(f)
}
