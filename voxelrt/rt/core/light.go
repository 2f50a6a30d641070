package core

import "github.com/go-gl/mathgl/mgl32"

// PointLight feeds the main pass light array.
type PointLight struct {
	Position  mgl32.Vec3
	Color     mgl32.Vec3
	Range     float32
	Intensity float32
}

// DirectionalLight is the shadow-casting sun. Its transform is shared by all
// shadow cascades.
type DirectionalLight struct {
	Transform *Transform
	Color     mgl32.Vec3
	Intensity float32
}

func NewDirectionalLight(eye, target mgl32.Vec3) *DirectionalLight {
	up := mgl32.Vec3{0, 1, 0}
	if dir := target.Sub(eye).Normalize(); abs(dir.Dot(up)) > 0.999 {
		up = mgl32.Vec3{0, 0, 1}
	}
	return &DirectionalLight{
		Transform: LookAtTransform(eye, target, up),
		Color:     mgl32.Vec3{1, 1, 1},
		Intensity: 1,
	}
}

// Direction is the direction light travels in world space.
func (l *DirectionalLight) Direction() mgl32.Vec3 {
	return l.Transform.Forward()
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
