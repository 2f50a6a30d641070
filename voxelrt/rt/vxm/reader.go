package vxm

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Reader is a little-endian cursor over an in-memory buffer. It only moves
// forward.
type Reader struct {
	data []byte
	off  uint64
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() uint64 { return r.off }

func (r *Reader) Remaining() uint64 { return uint64(len(r.data)) - r.off }

func (r *Reader) take(n uint64) ([]byte, error) {
	if n > r.Remaining() {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrOutOfBounds, n, r.off, r.Remaining())
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *Reader) ReadU8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) ReadF32() (float32, error) {
	v, err := r.ReadU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadBytes returns the next n bytes without copying.
func (r *Reader) ReadBytes(n uint64) ([]byte, error) {
	return r.take(n)
}

// ReadCString reads bytes up to and including a NUL terminator and returns
// them without the terminator.
func (r *Reader) ReadCString() (string, error) {
	start := r.off
	for i := start; i < uint64(len(r.data)); i++ {
		if r.data[i] == 0 {
			r.off = i + 1
			return string(r.data[start:i]), nil
		}
	}
	return "", fmt.Errorf("%w: unterminated string at offset %d", ErrOutOfBounds, start)
}

// Skip advances the cursor by n bytes. The cursor does not move on failure.
func (r *Reader) Skip(n uint64) error {
	_, err := r.take(n)
	return err
}
