package symcache

import (
	"os"
	"reflect"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glebov-andrey/hindsight/internal/moduleio"
	"github.com/glebov-andrey/hindsight/internal/safeelf"
)

// probeFunc exists only so the test has a known symbol to look up in its
// own binary's symbol table.
//
//go:noinline
func probeFunc() int { return 42 }

func TestOpenAndFindSymbolAgainstOwnBinary(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("reads /proc/self/maps and the current executable's ELF")
	}

	exe, err := os.Executable()
	require.NoError(t, err)

	pc := reflect.ValueOf(probeFunc).Pointer()

	rec, ok := moduleio.Local{}.Lookup(uint64(pc))
	require.True(t, ok, "expected the running test binary's own mapping to resolve")

	sess, err := Open(exe, rec.Base)
	require.NoError(t, err)
	defer sess.Close()

	assert.Equal(t, exe, sess.Path)

	relAddr := uint64(pc) - sess.Bias
	sym, found := sess.FindSymbol(relAddr)
	if !found {
		t.Skip("test binary's symbol table does not resolve probeFunc (stripped build)")
	}
	assert.Contains(t, sym.Name, "probeFunc")
}

func TestSymtabIsSortedAndFunctionsOnly(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("reads the current executable's ELF")
	}

	exe, err := os.Executable()
	require.NoError(t, err)

	sess, err := Open(exe, 0)
	require.NoError(t, err)
	defer sess.Close()

	syms := sess.Symtab()
	for i := 1; i < len(syms); i++ {
		assert.LessOrEqual(t, syms[i-1].Value, syms[i].Value)
	}
	for _, sym := range syms {
		assert.Equal(t, safeelf.STT_FUNC, safeelf.ST_TYPE(sym.Info))
	}
}

// TestCFICachesErrorNotJustTables pins a regression: CFI used to stash
// its parse error in a local variable that only the first, Once-gated
// call ever saw, so every call after the first silently got back
// (nil, nil) instead of the real failure. A nil *Tables with a nil
// error reads as success to callers and panics the CFI walker the
// first time it tries to step a nil table.
func TestCFICachesErrorNotJustTables(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("reads the current executable's ELF")
	}

	exe, err := os.Executable()
	require.NoError(t, err)

	sess, err := Open(exe, 0)
	require.NoError(t, err)
	defer sess.Close()

	tables1, err1 := sess.CFI()
	tables2, err2 := sess.CFI()

	assert.Equal(t, tables1, tables2)
	if err1 != nil {
		require.Error(t, err2, "a cached CFI failure must still be an error on the 2nd call")
		assert.EqualError(t, err2, err1.Error())
	} else {
		assert.NoError(t, err2)
	}
}
