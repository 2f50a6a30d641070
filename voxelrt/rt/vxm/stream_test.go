package vxm

import (
	"encoding/binary"
	"image/color"
	"math"
)

// streamBuilder writes VXM fixtures field by field.
type streamBuilder struct {
	buf []byte
}

func (b *streamBuilder) u8(v uint8) *streamBuilder { b.buf = append(b.buf, v); return b }

func (b *streamBuilder) u32(v uint32) *streamBuilder {
	b.buf = binary.LittleEndian.AppendUint32(b.buf, v)
	return b
}

func (b *streamBuilder) f32(v float32) *streamBuilder { return b.u32(math.Float32bits(v)) }

func (b *streamBuilder) raw(p ...byte) *streamBuilder { b.buf = append(b.buf, p...); return b }

func (b *streamBuilder) zeros(n int) *streamBuilder {
	b.buf = append(b.buf, make([]byte, n)...)
	return b
}

type run struct {
	length, mat uint8
}

type fixture struct {
	magic   string
	scale   [3]uint32
	surface bool
	lods    [][2]uint32
	chunks  uint8
	palette []color.RGBA
	layers  [][]run
}

func (f fixture) version() int {
	v, _ := ParseVersion(f.magic[3])
	return v
}

func (f fixture) bytes() []byte {
	b := &streamBuilder{}
	b.raw([]byte(f.magic)...)
	b.u32(f.scale[0]).u32(f.scale[1]).u32(f.scale[2])
	b.f32(0.5).f32(0.5).f32(0.5)
	if f.surface {
		b.u8(1).zeros(28).u32(2).u32(3).zeros(2 * 3 * 4)
	} else {
		b.u8(0)
	}
	if f.version() >= 8 {
		b.zeros(16)
	}
	b.u32(uint32(len(f.lods)))
	for _, dims := range f.lods {
		b.u32(dims[0]).u32(dims[1])
		b.u32(8).zeros(8)
		for face := 0; face < 6; face++ {
			b.u32(1).zeros(20 * 4)
		}
	}
	b.zeros(2 * 1024)
	b.u8(f.chunks)
	b.zeros(int(f.chunks) * (1024 + 2))
	b.u8(uint8(len(f.palette)))
	for _, c := range f.palette {
		b.u8(c.B).u8(c.G).u8(c.R).u8(c.A).u8(7)
	}
	if f.version() >= 12 {
		b.u8(uint8(len(f.layers)))
	}
	for i, layer := range f.layers {
		if f.version() >= 12 {
			b.raw([]byte("layer")...).u8(byte('0' + i)).u8(0)
			b.u8(1)
		}
		for _, r := range layer {
			b.u8(r.length).u8(r.mat)
		}
		b.u8(0)
	}
	return b.buf
}

func singleVoxel(c color.RGBA) fixture {
	return fixture{
		magic:   "VXMC",
		scale:   [3]uint32{4, 4, 4},
		palette: []color.RGBA{c},
		// linear index 21 -> (1,1,1) in a 4x4x4 volume
		layers: [][]run{{{21, 0xFF}, {1, 0}}},
	}
}
