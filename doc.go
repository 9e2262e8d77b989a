// Package hindsight captures and symbolizes native call stacks.
//
// Capture walks a machine context — the current one, or one handed to a
// signal handler — and emits a sequence of return addresses identifying
// the call chain at a moment in time. Resolve translates each such
// address into one or more logical frames, expanding compiler-inlined
// call sites using the debug information of whichever module the
// address belongs to.
//
// Resolve works against the calling process or against a foreign one
// opened through OpenSymbolizer, so an out-of-process watchdog can
// symbolize a dying sibling's stack across a trust boundary; see
// sub-package watchdog for that wire protocol. Capture walks only the
// calling process: it reads stack memory and unwind tables of the
// process it runs in, and offers no way to walk a foreign process.
package hindsight
