package unwind

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMemory map[uint64]uint64

func (m fakeMemory) ReadUint64(addr uint64) (uint64, bool) {
	v, ok := m[addr]
	return v, ok
}

func (m fakeMemory) ReadBytes(uint64, int) ([]byte, bool) { return nil, false }

// noTablesProvider reports no CFI coverage for any PC, forcing every
// step through the leaf-frame fallback.
type noTablesProvider struct{}

func (noTablesProvider) TablesForPC(uint64) (*Tables, uint64, bool) { return nil, 0, false }

func TestWalkLeafFallbackReadsReturnAddressAndAdvancesSP(t *testing.T) {
	mem := fakeMemory{
		0x2000: 0x4000, // return address saved at the top of the stack
		0x2008: 0x5000,
	}
	ctx := Context{Arch: ArchAMD64, PC: 0x1000, SP: 0x2000}

	var pcs []uint64
	Walk(ctx, mem, noTablesProvider{}, 0, func(pc uint64) bool {
		pcs = append(pcs, pc)
		return len(pcs) >= 3
	})

	require.Len(t, pcs, 3)
	assert.Equal(t, ctx.PC-1, pcs[0])
	assert.Equal(t, uint64(0x4000-1), pcs[1])
	assert.Equal(t, uint64(0x5000-1), pcs[2])
}

func TestWalkStopsWhenMemoryReadFails(t *testing.T) {
	mem := fakeMemory{} // every read fails
	ctx := Context{Arch: ArchAMD64, PC: 0x1000, SP: 0x2000}

	var pcs []uint64
	Walk(ctx, mem, noTablesProvider{}, 0, func(pc uint64) bool {
		pcs = append(pcs, pc)
		return false
	})

	assert.Len(t, pcs, 1)
}

func TestWalkHonorsSkip(t *testing.T) {
	mem := fakeMemory{0x2000: 0x4000}
	ctx := Context{Arch: ArchAMD64, PC: 0x1000, SP: 0x2000}

	var pcs []uint64
	Walk(ctx, mem, noTablesProvider{}, 1, func(pc uint64) bool {
		pcs = append(pcs, pc)
		return len(pcs) >= 1
	})

	require.Len(t, pcs, 1)
	assert.Equal(t, uint64(0x4000-1), pcs[0])
}

func TestWalkSignalFrameReportsIPVerbatim(t *testing.T) {
	mem := fakeMemory{0x2000: 0x4000}
	ctx := Context{Arch: ArchAMD64, PC: 0x1000, SP: 0x2000, SignalFrame: true}

	var pcs []uint64
	Walk(ctx, mem, noTablesProvider{}, 0, func(pc uint64) bool {
		pcs = append(pcs, pc)
		return len(pcs) >= 2
	})

	require.Len(t, pcs, 2)
	assert.Equal(t, uint64(0x1000), pcs[0], "signal frame must not get the -1 adjustment")
	assert.Equal(t, uint64(0x4000-1), pcs[1], "the caller's frame is not a signal frame")
}

func TestWalkStopsOnZeroIP(t *testing.T) {
	mem := fakeMemory{}
	ctx := Context{Arch: ArchAMD64, PC: 0, SP: 0x2000}

	called := false
	Walk(ctx, mem, noTablesProvider{}, 0, func(uint64) bool {
		called = true
		return false
	})
	assert.False(t, called)
}
