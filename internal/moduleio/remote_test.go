package moduleio

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffScheduleHasAtLeastTenAttemptsCappedAt100ms(t *testing.T) {
	schedule := backoffSchedule()
	require.GreaterOrEqual(t, len(schedule), 10)
	for _, d := range schedule {
		assert.LessOrEqual(t, d, 100*time.Millisecond)
	}
	assert.Equal(t, time.Duration(0), schedule[0])
}

type staticMapsSource struct{ data string }

func (s staticMapsSource) OpenMaps() (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(s.data)), nil
}

func TestRemoteLookupSucceedsOnFirstRead(t *testing.T) {
	r := &Remote{source: staticMapsSource{data: sampleMaps}}
	rec, ok := r.Lookup(0x55a1b2c50000)
	require.True(t, ok)
	assert.Equal(t, "/usr/bin/app", rec.Path)
}

func TestRemoteLookupExhaustsBackoffAndGivesUp(t *testing.T) {
	r := &Remote{source: staticMapsSource{data: sampleMaps}}
	_, ok := r.Lookup(0xdeadbeef)
	assert.False(t, ok)
}

func TestRemoteRescanReturnsEveryRecord(t *testing.T) {
	r := &Remote{source: staticMapsSource{data: sampleMaps}}
	records, err := r.Rescan()
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestNewRemoteFromMapsSnapshot(t *testing.T) {
	r := NewRemoteFromMapsSnapshot(strings.NewReader(sampleMaps))
	rec, ok := r.Lookup(0x7f1a2b3c0500)
	require.True(t, ok)
	assert.Equal(t, "/usr/lib/libc.so.6", rec.Path)
}
