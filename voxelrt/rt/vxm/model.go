package vxm

import (
	"encoding/binary"
	"image/color"

	"github.com/cespare/xxhash/v2"
)

// Voxel is a single occupied cell. Coordinates are zero based after
// normalisation and Index addresses Model.Palette.
type Voxel struct {
	X, Y, Z uint32
	Index   uint8
}

// Model is a decoded, normalised voxel model. It is immutable once returned
// by a decoder and may be shared between goroutines.
type Model struct {
	Version int
	Size    [3]uint32
	Voxels  []Voxel
	Palette []color.RGBA
}

// VoxelCount is a convenience for logging and tooling.
func (m *Model) VoxelCount() int { return len(m.Voxels) }

// Fingerprint hashes size, voxels and palette. Two models with the same
// fingerprint render identically.
func (m *Model) Fingerprint() uint64 {
	d := xxhash.New()
	var buf [13]byte
	binary.LittleEndian.PutUint32(buf[0:], m.Size[0])
	binary.LittleEndian.PutUint32(buf[4:], m.Size[1])
	binary.LittleEndian.PutUint32(buf[8:], m.Size[2])
	_, _ = d.Write(buf[:12])
	for _, v := range m.Voxels {
		binary.LittleEndian.PutUint32(buf[0:], v.X)
		binary.LittleEndian.PutUint32(buf[4:], v.Y)
		binary.LittleEndian.PutUint32(buf[8:], v.Z)
		buf[12] = v.Index
		_, _ = d.Write(buf[:13])
	}
	for _, c := range m.Palette {
		_, _ = d.Write([]byte{c.R, c.G, c.B, c.A})
	}
	return d.Sum64()
}

// bounds tracks the per-axis extremes of emitted voxels.
type bounds struct {
	min, max [3]uint32
	empty    bool
}

func newBounds() bounds {
	return bounds{min: [3]uint32{^uint32(0), ^uint32(0), ^uint32(0)}, empty: true}
}

func (b *bounds) add(x, y, z uint32) {
	p := [3]uint32{x, y, z}
	for i := 0; i < 3; i++ {
		if p[i] < b.min[i] {
			b.min[i] = p[i]
		}
		if p[i] > b.max[i] {
			b.max[i] = p[i]
		}
	}
	b.empty = false
}

// normalise shifts voxels so the minimum corner sits at the origin and
// returns the resulting size.
func normalise(voxels []Voxel, b bounds) [3]uint32 {
	if b.empty {
		return [3]uint32{}
	}
	for i := range voxels {
		voxels[i].X -= b.min[0]
		voxels[i].Y -= b.min[1]
		voxels[i].Z -= b.min[2]
	}
	return [3]uint32{
		b.max[0] - b.min[0] + 1,
		b.max[1] - b.min[1] + 1,
		b.max[2] - b.min[2] + 1,
	}
}
