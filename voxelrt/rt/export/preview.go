package export

import (
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/gekko3d/voxdraw/voxelrt/rt/vxm"
	"golang.org/x/image/draw"
)

// Preview renders a top-down view: every (x, z) column shows its highest
// voxel, darkened with depth below the top of the model. Rows run along +Z.
func Preview(m *vxm.Model) *image.RGBA {
	w, h := int(m.Size[0]), int(m.Size[2])
	img := image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	if m.VoxelCount() == 0 {
		return img
	}

	top := make([]int, w*h)
	for i := range top {
		top[i] = -1
	}
	for i, v := range m.Voxels {
		cell := int(v.Z)*w + int(v.X)
		if top[cell] < 0 || v.Y > m.Voxels[top[cell]].Y {
			top[cell] = i
		}
	}

	height := float32(max(m.Size[1], 1))
	for cell, vi := range top {
		if vi < 0 {
			continue
		}
		v := m.Voxels[vi]
		c := m.Palette[v.Index]
		shade := 0.35 + 0.65*float32(v.Y+1)/height
		img.SetRGBA(cell%w, cell/w, color.RGBA{
			R: uint8(float32(c.R) * shade),
			G: uint8(float32(c.G) * shade),
			B: uint8(float32(c.B) * shade),
			A: 255,
		})
	}
	return img
}

// Scale enlarges src by an integer factor with nearest-neighbour sampling
// so voxel edges stay sharp.
func Scale(src image.Image, factor int) image.Image {
	if factor <= 1 {
		return src
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

func WritePreviewPNG(w io.Writer, m *vxm.Model, scale int) error {
	return png.Encode(w, Scale(Preview(m), scale))
}
