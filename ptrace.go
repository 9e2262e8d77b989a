package hindsight

import "github.com/glebov-andrey/hindsight/internal/unwind"

// AttachForeignProcess ptrace-attaches to pid and waits for it to stop,
// so reads of /proc/<pid>/mem are honored even under Yama's restricted
// ptrace_scope. A Symbolizer from OpenSymbolizer does not read process
// memory and works without it. Call the returned detach function,
// typically deferred, exactly once when done.
func AttachForeignProcess(pid int) (detach func() error, err error) {
	return unwind.AttachForeignProcess(pid)
}
