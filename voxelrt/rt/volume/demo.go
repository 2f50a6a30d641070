package volume

import (
	"image/color"

	"github.com/gekko3d/voxdraw/voxelrt/rt/vxm"
	"github.com/go-gl/mathgl/mgl32"
)

var demoPalette = []color.RGBA{
	{R: 220, G: 70, B: 60, A: 255},
	{R: 70, G: 160, B: 90, A: 255},
	{R: 60, G: 110, B: 210, A: 255},
	{R: 230, G: 190, B: 80, A: 255},
	{R: 170, G: 170, B: 170, A: 255},
}

// Generator builds one named model on demand.
type Generator struct {
	Name  string
	Build func() *vxm.Model
}

func shape(draw func(g *Grid)) func() *vxm.Model {
	return func() *vxm.Model {
		g := NewGrid()
		draw(g)
		return g.Model(demoPalette)
	}
}

// DemoModels returns a few primitives for the viewer to show when no model
// files are given.
func DemoModels() []Generator {
	return []Generator{
		{"sphere", shape(func(g *Grid) { Sphere(g, mgl32.Vec3{}, 12, 0) })},
		{"cube", shape(func(g *Grid) { Cube(g, mgl32.Vec3{}, mgl32.Vec3{20, 20, 20}, 1) })},
		{"cone", shape(func(g *Grid) { Cone(g, mgl32.Vec3{}, mgl32.Vec3{0, 28, 0}, 12, 2) })},
		{"pyramid", shape(func(g *Grid) { Pyramid(g, mgl32.Vec3{}, mgl32.Vec3{0, 20, 0}, 24, 3) })},
		{"slab", shape(func(g *Grid) { Cube(g, mgl32.Vec3{}, mgl32.Vec3{160, 1, 60}, 4) })},
	}
}
