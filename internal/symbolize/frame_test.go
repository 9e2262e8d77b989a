package symbolize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBareFrame(t *testing.T) {
	f := bareFrame(0x1234)
	assert.Equal(t, uint64(0x1234), f.Physical)
	assert.False(t, f.Inlined)
	assert.Empty(t, f.Symbol)
	assert.Empty(t, f.File)
	assert.Zero(t, f.Line)
}

func TestClampLine(t *testing.T) {
	assert.Equal(t, uint32(0), clampLine(-1))
	assert.Equal(t, uint32(0), clampLine(0))
	assert.Equal(t, uint32(42), clampLine(42))
	assert.Equal(t, ^uint32(0), clampLine(int(^uint32(0))+1))
}
