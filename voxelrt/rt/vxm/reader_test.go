package vxm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderLittleEndian(t *testing.T) {
	r := NewReader([]byte{0x7f, 0x01, 0x02, 0x03, 0x04, 0x00, 0x00, 0x80, 0x3f})

	b, err := r.ReadU8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x7f), b)

	u, err := r.ReadU32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x04030201), u)

	f, err := r.ReadF32()
	require.NoError(t, err)
	assert.Equal(t, float32(1), f)
	assert.Equal(t, uint64(0), r.Remaining())
}

func TestReaderOutOfBounds(t *testing.T) {
	r := NewReader([]byte{1, 2, 3})

	_, err := r.ReadU32()
	assert.ErrorIs(t, err, ErrOutOfBounds)
	assert.Equal(t, uint64(0), r.Offset(), "failed read must not move the cursor")

	assert.NoError(t, r.Skip(3))
	assert.ErrorIs(t, r.Skip(1), ErrOutOfBounds)

	_, err = r.ReadU8()
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestReaderSkipHuge(t *testing.T) {
	r := NewReader(make([]byte, 16))
	assert.ErrorIs(t, r.Skip(^uint64(0)), ErrOutOfBounds)
	assert.Equal(t, uint64(0), r.Offset())
}

func TestReaderCString(t *testing.T) {
	r := NewReader([]byte("body\x00rest"))
	s, err := r.ReadCString()
	require.NoError(t, err)
	assert.Equal(t, "body", s)
	assert.Equal(t, uint64(5), r.Offset())

	_, err = r.ReadCString()
	assert.ErrorIs(t, err, ErrOutOfBounds)
}
