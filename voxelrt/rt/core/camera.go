package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera is a yaw/pitch camera in a Y-up world.
type Camera struct {
	Position mgl32.Vec3
	Yaw      float32
	Pitch    float32
	FovY     float32 // radians
	Near     float32
	Far      float32
	Aspect   float32
}

func NewCamera() *Camera {
	return &Camera{
		Position: mgl32.Vec3{0, 2, 20},
		FovY:     mgl32.DegToRad(60),
		Near:     0.1,
		Far:      5000,
		Aspect:   16.0 / 9.0,
	}
}

func (c *Camera) Forward() mgl32.Vec3 {
	return mgl32.Vec3{
		float32(math.Cos(float64(c.Pitch)) * math.Sin(float64(c.Yaw))),
		float32(math.Sin(float64(c.Pitch))),
		float32(-math.Cos(float64(c.Pitch)) * math.Cos(float64(c.Yaw))),
	}
}

func (c *Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.Forward()), mgl32.Vec3{0, 1, 0})
}

func (c *Camera) Projection() mgl32.Mat4 {
	return ReversedPerspective(c.FovY, c.Aspect, c.Near, c.Far)
}

func (c *Camera) ViewProjection() mgl32.Mat4 {
	return c.Projection().Mul4(c.View())
}

// Frame moves the camera back along its current heading until the box fits
// the vertical field of view.
func (c *Camera) Frame(minB, maxB mgl32.Vec3) {
	center := minB.Add(maxB).Mul(0.5)
	radius := maxB.Sub(minB).Len() * 0.5
	if radius <= 0 {
		radius = 1
	}
	dist := radius / float32(math.Sin(float64(c.FovY)/2))
	c.Position = center.Sub(c.Forward().Mul(dist))
}

// ReversedPerspective maps the near plane to depth 1 and the far plane to
// depth 0 for a right-handed view space. Depth tests must use Greater.
func ReversedPerspective(fovY, aspect, near, far float32) mgl32.Mat4 {
	f := float32(1 / math.Tan(float64(fovY)/2))
	a := near / (far - near)
	return mgl32.Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, a, -1,
		0, 0, far * a, 0,
	}
}

// ReversedOrtho is a symmetric orthographic projection with the same
// reversed depth sense: view-space z = -near maps to 1 and z = -far to 0.
func ReversedOrtho(halfExtent, near, far float32) mgl32.Mat4 {
	s := 1 / halfExtent
	d := far - near
	return mgl32.Mat4{
		s, 0, 0, 0,
		0, s, 0, 0,
		0, 0, 1 / d, 0,
		0, 0, far / d, 1,
	}
}
