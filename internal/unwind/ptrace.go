package unwind

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// AttachForeignProcess ptrace-attaches to pid so /proc/<pid>/mem reads
// are honored by the kernel regardless of Yama's ptrace_scope
// restriction, and waits for the resulting stop. The returned detach
// function must be called exactly once, typically deferred, to resume
// and detach the target.
func AttachForeignProcess(pid int) (detach func() error, err error) {
	if err := unix.PtraceAttach(pid); err != nil {
		return nil, errors.Wrapf(err, "ptrace attach to pid %d", pid)
	}

	var status unix.WaitStatus
	if _, err := unix.Wait4(pid, &status, 0, nil); err != nil {
		_ = unix.PtraceDetach(pid)
		return nil, errors.Wrapf(err, "wait for ptrace stop on pid %d", pid)
	}

	return func() error {
		return errors.Wrapf(unix.PtraceDetach(pid), "ptrace detach from pid %d", pid)
	}, nil
}
