package core

import (
	"errors"
	"fmt"

	"github.com/gekko3d/voxdraw/voxelrt/rt/voxcolor"
	"github.com/gekko3d/voxdraw/voxelrt/rt/vxm"
)

// MaxModelExtent is the largest per-axis size whose centred coordinates fit
// the signed 8-bit instance position.
const MaxModelExtent = 256

var (
	ErrModelTooLarge   = errors.New("core: model exceeds instance position range")
	ErrBadPaletteIndex = errors.New("core: voxel palette index out of range")
)

// FaceBuckets holds one instance list per Face, indexed by Face.
type FaceBuckets [FaceCount][]InstanceRecord

// Len is the total number of instances across all faces.
func (b *FaceBuckets) Len() int {
	n := 0
	for f := range b {
		n += len(b[f])
	}
	return n
}

// ExtractFaces emits every face of every voxel. Neighbouring voxels are not
// consulted, so hidden faces are drawn too. A voxel whose palette index
// has no palette entry fails with ErrBadPaletteIndex.
func ExtractFaces(m *vxm.Model) (FaceBuckets, error) {
	var buckets FaceBuckets
	for axis, s := range m.Size {
		if s > MaxModelExtent {
			return buckets, fmt.Errorf("%w: axis %d is %d", ErrModelTooLarge, axis, s)
		}
	}

	packed := make([]uint16, len(m.Palette))
	for i, c := range m.Palette {
		packed[i] = voxcolor.Pack(c)
	}

	half := [3]int32{int32(m.Size[0] / 2), int32(m.Size[1] / 2), int32(m.Size[2] / 2)}
	for f := range buckets {
		buckets[f] = make([]InstanceRecord, 0, len(m.Voxels))
	}
	for i, v := range m.Voxels {
		if int(v.Index) >= len(packed) {
			return FaceBuckets{}, fmt.Errorf("%w: voxel %d index %d, palette has %d", ErrBadPaletteIndex, i, v.Index, len(packed))
		}
		rec := InstanceRecord{
			Position: [3]int8{
				int8(int32(v.X) - half[0]),
				int8(int32(v.Y) - half[1]),
				int8(int32(v.Z) - half[2]),
			},
			Width:  1,
			Height: 1,
			Color:  packed[v.Index],
		}
		for f := range buckets {
			buckets[f] = append(buckets[f], rec)
		}
	}
	return buckets, nil
}
