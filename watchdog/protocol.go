// Package watchdog implements the out-of-process wire protocol from
// spec §6: a host process that is about to die hands a watchdog, over a
// byte stream, a descriptor granting access to its memory plus the
// addresses it already captured; the watchdog resolves each one against
// the host's debug information.
//
// This implementation's descriptor is the host's pid: on Linux there is
// no separate "process handle" object distinct from the pid the way
// there is on Windows, so the pointer-sized opaque descriptor slot
// spec §6 describes carries the pid itself, zero-extended.
package watchdog

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/glebov-andrey/hindsight"
)

// Request is one host->watchdog message: which process to resolve
// against, and the addresses it already captured.
type Request struct {
	PID       int
	Addresses []hindsight.Address
}

// Encode writes req in the wire format spec §6 defines: the descriptor,
// then a pointer-sized entry count, then that many raw Address values,
// all in the host's native byte order.
func Encode(w io.Writer, req Request) error {
	var descriptor [8]byte
	binary.NativeEndian.PutUint64(descriptor[:], uint64(req.PID))
	if _, err := w.Write(descriptor[:]); err != nil {
		return errors.Wrap(err, "write watchdog descriptor")
	}

	var count [8]byte
	binary.NativeEndian.PutUint64(count[:], uint64(len(req.Addresses)))
	if _, err := w.Write(count[:]); err != nil {
		return errors.Wrap(err, "write watchdog entry count")
	}

	var buf [8]byte
	for _, a := range req.Addresses {
		binary.NativeEndian.PutUint64(buf[:], uint64(a.Native()))
		if _, err := w.Write(buf[:]); err != nil {
			return errors.Wrap(err, "write watchdog address")
		}
	}
	return nil
}

// Decode reads a Request written by Encode.
func Decode(r io.Reader) (Request, error) {
	var descriptor [8]byte
	if _, err := io.ReadFull(r, descriptor[:]); err != nil {
		return Request{}, errors.Wrap(err, "read watchdog descriptor")
	}
	pid := binary.NativeEndian.Uint64(descriptor[:])

	var count [8]byte
	if _, err := io.ReadFull(r, count[:]); err != nil {
		return Request{}, errors.Wrap(err, "read watchdog entry count")
	}
	n := binary.NativeEndian.Uint64(count[:])

	addrs := make([]hindsight.Address, 0, n)
	var buf [8]byte
	for i := uint64(0); i < n; i++ {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return Request{}, errors.Wrapf(err, "read watchdog address %d/%d", i, n)
		}
		addrs = append(addrs, hindsight.FromNative(uintptr(binary.NativeEndian.Uint64(buf[:]))))
	}
	return Request{PID: int(pid), Addresses: addrs}, nil
}
