package kvstore

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memBacking is a minimal io.ReadWriteSeeker over an in-memory buffer,
// standing in for the flash-backed file the firmware actually uses.
type memBacking struct {
	buf []byte
	pos int64
}

func (m *memBacking) Read(p []byte) (int, error) {
	if m.pos >= int64(len(m.buf)) {
		return 0, io.EOF
	}
	n := copy(p, m.buf[m.pos:])
	m.pos += int64(n)
	return n, nil
}

func (m *memBacking) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.buf)) {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
	n := copy(m.buf[m.pos:end], p)
	m.pos += int64(n)
	return n, nil
}

func (m *memBacking) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		m.pos = offset
	case io.SeekCurrent:
		m.pos += offset
	case io.SeekEnd:
		m.pos = int64(len(m.buf)) + offset
	}
	return m.pos, nil
}

func TestLoadOnEmptyBackingYieldsEmptyStore(t *testing.T) {
	s := New(&memBacking{})
	require.NoError(t, s.Load())
	assert.Equal(t, ModeHID, s.Mode())
	assert.Equal(t, "", s.DeviceID())
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	backing := &memBacking{}
	s := New(backing)
	require.NoError(t, s.SetMode(ModeXInput))
	require.NoError(t, s.SetDeviceID("ab3D9"))
	s.Set("extra", "value")
	require.NoError(t, s.Save())

	s2 := New(backing)
	require.NoError(t, s2.Load())
	assert.Equal(t, ModeXInput, s2.Mode())
	assert.Equal(t, "ab3D9", s2.DeviceID())
	v, ok := s2.Get("extra")
	assert.True(t, ok)
	assert.Equal(t, "value", v)
}

func TestEscapingRoundTripsBackticksAndPipes(t *testing.T) {
	backing := &memBacking{}
	s := New(backing)
	s.Set("weird`key|name", "val|with`both")
	require.NoError(t, s.Save())

	s2 := New(backing)
	require.NoError(t, s2.Load())
	v, ok := s2.Get("weird`key|name")
	require.True(t, ok)
	assert.Equal(t, "val|with`both", v)
}

func TestLoadRejectsBadMagic(t *testing.T) {
	backing := &memBacking{buf: []byte{0, 0, 0, 0, 0, 0, 0, 0}}
	s := New(backing)
	assert.Error(t, s.Load())
}

func TestSetModeRejectsUnknownValue(t *testing.T) {
	s := New(&memBacking{})
	assert.Error(t, s.SetMode("BLUETOOTH"))
}

func TestSetDeviceIDValidatesLengthAndCharset(t *testing.T) {
	s := New(&memBacking{})
	assert.Error(t, s.SetDeviceID("abcdef"))  // too long
	assert.Error(t, s.SetDeviceID("ab-3D"))   // non-alphanumeric
	assert.NoError(t, s.SetDeviceID("ab3D9")) // exactly 5, alphanumeric
}

func TestSaveWritesRecoverableHeader(t *testing.T) {
	backing := &memBacking{}
	s := New(backing)
	s.Set("k", "v")
	require.NoError(t, s.Save())

	assert.GreaterOrEqual(t, len(backing.buf), headerLen)
	assert.True(t, bytes.HasPrefix(backing.buf, []byte{0x58, 0x50, 0x4E, 0x49}))
}

func TestDeleteRemovesKeyAcrossSaveLoad(t *testing.T) {
	backing := &memBacking{}
	s := New(backing)
	s.Set("gone", "soon")
	s.Delete("gone")
	require.NoError(t, s.Save())

	s2 := New(backing)
	require.NoError(t, s2.Load())
	_, ok := s2.Get("gone")
	assert.False(t, ok)
}
