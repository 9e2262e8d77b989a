package unwind

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLEUint64(t *testing.T) {
	b := []byte{0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	assert.Equal(t, uint64(1), leUint64(b))

	b = []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	assert.Equal(t, ^uint64(0), leUint64(b))
}
