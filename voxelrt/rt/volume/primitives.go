package volume

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// fill sets every cell in [lo, hi] whose centre satisfies inside.
func fill(g *Grid, lo, hi mgl32.Vec3, paletteIdx uint8, inside func(p mgl32.Vec3) bool) {
	minI := [3]int{floor(lo[0]), floor(lo[1]), floor(lo[2])}
	maxI := [3]int{ceil(hi[0]), ceil(hi[1]), ceil(hi[2])}
	for x := minI[0]; x <= maxI[0]; x++ {
		for y := minI[1]; y <= maxI[1]; y++ {
			for z := minI[2]; z <= maxI[2]; z++ {
				p := mgl32.Vec3{float32(x) + 0.5, float32(y) + 0.5, float32(z) + 0.5}
				if inside(p) {
					g.SetVoxel(x, y, z, paletteIdx)
				}
			}
		}
	}
}

func floor(v float32) int { return int(math.Floor(float64(v))) }
func ceil(v float32) int  { return int(math.Ceil(float64(v))) }

func around(center mgl32.Vec3, extent float32) (mgl32.Vec3, mgl32.Vec3) {
	e := mgl32.Vec3{extent, extent, extent}
	return center.Sub(e), center.Add(e)
}

func Sphere(g *Grid, center mgl32.Vec3, radius float32, paletteIdx uint8) {
	r2 := radius * radius
	lo, hi := around(center, radius)
	fill(g, lo, hi, paletteIdx, func(p mgl32.Vec3) bool {
		return p.Sub(center).LenSqr() <= r2
	})
}

// Cube fills the cells whose centres lie in the box [minB, maxB].
func Cube(g *Grid, minB, maxB mgl32.Vec3, paletteIdx uint8) {
	fill(g, minB, maxB, paletteIdx, func(p mgl32.Vec3) bool {
		for a := 0; a < 3; a++ {
			if p[a] < minB[a] || p[a] > maxB[a] {
				return false
			}
		}
		return true
	})
}

// Cone has its base circle centred on base and its apex at tip.
func Cone(g *Grid, base, tip mgl32.Vec3, radius float32, paletteIdx uint8) {
	axis, height, ok := axisOf(base, tip)
	if !ok {
		return
	}
	lo, hi := around(base.Add(tip).Mul(0.5), max(radius, height))
	fill(g, lo, hi, paletteIdx, func(p mgl32.Vec3) bool {
		v := p.Sub(base)
		along := v.Dot(axis)
		if along < 0 || along > height {
			return false
		}
		r := radius * (1 - along/height)
		return v.LenSqr()-along*along <= r*r
	})
}

// Pyramid has a square base of edge size centred on base.
func Pyramid(g *Grid, base, tip mgl32.Vec3, size float32, paletteIdx uint8) {
	axis, height, ok := axisOf(base, tip)
	if !ok {
		return
	}
	up := mgl32.Vec3{0, 1, 0}
	if math.Abs(float64(axis.Dot(up))) > 0.99 {
		up = mgl32.Vec3{1, 0, 0}
	}
	right := axis.Cross(up).Normalize()
	forward := right.Cross(axis).Normalize()

	lo, hi := around(base.Add(tip).Mul(0.5), max(size, height))
	fill(g, lo, hi, paletteIdx, func(p mgl32.Vec3) bool {
		v := p.Sub(base)
		along := v.Dot(axis)
		if along < 0 || along > height {
			return false
		}
		s := size * 0.5 * (1 - along/height)
		return abs(v.Dot(right)) <= s && abs(v.Dot(forward)) <= s
	})
}

func axisOf(base, tip mgl32.Vec3) (mgl32.Vec3, float32, bool) {
	d := tip.Sub(base)
	h := d.Len()
	if h < 1e-5 {
		return mgl32.Vec3{}, 0, false
	}
	return d.Mul(1 / h), h, true
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
