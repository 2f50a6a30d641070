// Package volume builds voxel models procedurally.
package volume

import (
	"cmp"
	"image/color"
	"slices"

	"github.com/gekko3d/voxdraw/voxelrt/rt/vxm"
)

// Grid is a sparse set of voxels addressed by signed integer coordinates.
// Setting a cell twice keeps the last palette index.
type Grid struct {
	cells map[[3]int]uint8
}

func NewGrid() *Grid {
	return &Grid{cells: make(map[[3]int]uint8)}
}

func (g *Grid) SetVoxel(x, y, z int, paletteIdx uint8) {
	g.cells[[3]int{x, y, z}] = paletteIdx
}

func (g *Grid) Voxel(x, y, z int) (uint8, bool) {
	idx, ok := g.cells[[3]int{x, y, z}]
	return idx, ok
}

func (g *Grid) Len() int { return len(g.cells) }

// Model converts the grid into a decoded model. Coordinates are shifted so
// the smallest occupied cell lands on the origin, and voxels are ordered by
// z, then y, then x. Indices not covered by palette are clamped to the last
// entry.
func (g *Grid) Model(palette []color.RGBA) *vxm.Model {
	m := &vxm.Model{Palette: slices.Clone(palette)}
	if len(g.cells) == 0 || len(palette) == 0 {
		return m
	}

	minB := [3]int{}
	maxB := [3]int{}
	first := true
	for c := range g.cells {
		if first {
			minB, maxB, first = c, c, false
			continue
		}
		for a := 0; a < 3; a++ {
			minB[a] = min(minB[a], c[a])
			maxB[a] = max(maxB[a], c[a])
		}
	}

	m.Voxels = make([]vxm.Voxel, 0, len(g.cells))
	last := uint8(len(palette) - 1)
	for c, idx := range g.cells {
		m.Voxels = append(m.Voxels, vxm.Voxel{
			X:     uint32(c[0] - minB[0]),
			Y:     uint32(c[1] - minB[1]),
			Z:     uint32(c[2] - minB[2]),
			Index: min(idx, last),
		})
	}
	slices.SortFunc(m.Voxels, func(a, b vxm.Voxel) int {
		return cmp.Or(cmp.Compare(a.Z, b.Z), cmp.Compare(a.Y, b.Y), cmp.Compare(a.X, b.X))
	})
	for a := 0; a < 3; a++ {
		m.Size[a] = uint32(maxB[a] - minB[a] + 1)
	}
	return m
}
