package core

import (
	"image/color"
	"testing"

	"github.com/gekko3d/voxdraw/voxelrt/rt/voxcolor"
	"github.com/gekko3d/voxdraw/voxelrt/rt/vxm"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func redVoxel() *vxm.Model {
	return &vxm.Model{
		Size:    [3]uint32{1, 1, 1},
		Voxels:  []vxm.Voxel{{X: 0, Y: 0, Z: 0, Index: 0}},
		Palette: []color.RGBA{{R: 255, A: 255}},
	}
}

func TestExtractSingleVoxel(t *testing.T) {
	b, err := ExtractFaces(redVoxel())
	require.NoError(t, err)

	want := InstanceRecord{Width: 1, Height: 1, Color: voxcolor.Pack(color.RGBA{R: 255, A: 255})}
	assert.Equal(t, 6, b.Len())
	for f := range b {
		require.Len(t, b[f], 1, Face(f).String())
		assert.Equal(t, want, b[f][0])
	}
}

func TestExtractCentresModel(t *testing.T) {
	m := &vxm.Model{
		Size: [3]uint32{4, 3, 1},
		Voxels: []vxm.Voxel{
			{X: 0, Y: 0, Z: 0},
			{X: 3, Y: 2, Z: 0, Index: 1},
		},
		Palette: []color.RGBA{{R: 255, A: 255}, {B: 255, A: 255}},
	}
	b, err := ExtractFaces(m)
	require.NoError(t, err)

	for f := range b {
		require.Len(t, b[f], 2)
		assert.Equal(t, [3]int8{-2, -1, 0}, b[f][0].Position)
		assert.Equal(t, [3]int8{1, 1, 0}, b[f][1].Position)
		assert.NotEqual(t, b[f][0].Color, b[f][1].Color)
	}
}

func TestExtractLimits(t *testing.T) {
	m := &vxm.Model{
		Size:    [3]uint32{256, 1, 1},
		Voxels:  []vxm.Voxel{{X: 0}, {X: 255}},
		Palette: []color.RGBA{{A: 255}},
	}
	b, err := ExtractFaces(m)
	require.NoError(t, err)
	assert.Equal(t, int8(-128), b[FaceTop][0].Position[0])
	assert.Equal(t, int8(127), b[FaceTop][1].Position[0])

	m.Size[1] = 257
	_, err = ExtractFaces(m)
	assert.ErrorIs(t, err, ErrModelTooLarge)
}

func TestExtractRejectsMissingPaletteEntry(t *testing.T) {
	m := redVoxel()
	m.Voxels = append(m.Voxels, vxm.Voxel{X: 0, Y: 0, Z: 0, Index: 1})
	buckets, err := ExtractFaces(m)
	assert.ErrorIs(t, err, ErrBadPaletteIndex)
	assert.Zero(t, buckets.Len())

	m.Palette = nil
	_, err = ExtractFaces(m)
	assert.ErrorIs(t, err, ErrBadPaletteIndex)
}

func TestExtractEmptyModel(t *testing.T) {
	b, err := ExtractFaces(&vxm.Model{})
	require.NoError(t, err)
	assert.Zero(t, b.Len())
}

func TestInstanceRecordWords(t *testing.T) {
	r := InstanceRecord{Position: [3]int8{-1, 2, -128}, Width: 3, Color: 0x81F8, Height: 4}
	w0, w1 := r.Words()
	assert.Equal(t, uint32(0x038002FF), w0)
	assert.Equal(t, uint32(0x040081F8), w1)

	b := r.AppendBytes(nil)
	assert.Equal(t, []byte{0xFF, 0x02, 0x80, 0x03, 0xF8, 0x81, 0x00, 0x04}, b)
	assert.Len(t, b, InstanceStride)
}

func TestFaceCornersFaceOutward(t *testing.T) {
	for f := Face(0); f < FaceCount; f++ {
		c := f.Corners()
		want := f.Normal()
		n := c[1].Sub(c[0]).Cross(c[2].Sub(c[0])).Normalize()
		assert.InDeltaSlice(t, want[:], n[:], 1e-6, f.String())
		// The second strip triangle (2,1,3) keeps the same orientation.
		n2 := c[1].Sub(c[2]).Cross(c[3].Sub(c[2])).Normalize()
		assert.InDeltaSlice(t, want[:], n2[:], 1e-6, f.String())
	}
	assert.Equal(t, "invalid", Face(9).String())
}

func TestQuadCornersMatchUnitTable(t *testing.T) {
	rec := InstanceRecord{Position: [3]int8{-1, 2, 0}, Width: 1, Height: 1}
	off := mgl32.Vec3{-1, 2, 0}
	for f := Face(0); f < FaceCount; f++ {
		got := rec.QuadCorners(f)
		for k, c := range f.Corners() {
			assert.Equal(t, c.Add(off), got[k], "%s corner %d", f, k)
		}
	}
}

func TestQuadCornersScale(t *testing.T) {
	rec := InstanceRecord{Width: 3, Height: 2}
	got := rec.QuadCorners(FaceTop)
	// Top: origin (0,1,0), U = +Z, V = +X.
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, got[0])
	assert.Equal(t, mgl32.Vec3{0, 1, 3}, got[1])
	assert.Equal(t, mgl32.Vec3{2, 1, 0}, got[2])
	assert.Equal(t, mgl32.Vec3{2, 1, 3}, got[3])
}
