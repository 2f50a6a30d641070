package core

import "github.com/go-gl/mathgl/mgl32"

// Scene is the ordered list of live objects. Draw order follows insertion
// order. It is owned by the render thread.
type Scene struct {
	objects []*VoxelObjectDraw
	Lights  []PointLight
	Sun     *DirectionalLight
	// Version increments whenever the object list changes.
	Version uint64
}

func NewScene() *Scene {
	return &Scene{
		Sun: NewDirectionalLight(mgl32.Vec3{300, 600, 200}, mgl32.Vec3{0, 0, 0}),
	}
}

func (s *Scene) Add(obj *VoxelObjectDraw) {
	s.objects = append(s.objects, obj)
	s.Version++
}

// Remove drops the object with the given id and reports whether it was live.
func (s *Scene) Remove(id uint64) bool {
	for i, o := range s.objects {
		if o.ID == id {
			s.objects = append(s.objects[:i], s.objects[i+1:]...)
			s.Version++
			return true
		}
	}
	return false
}

func (s *Scene) Get(id uint64) *VoxelObjectDraw {
	for _, o := range s.objects {
		if o.ID == id {
			return o
		}
	}
	return nil
}

// Objects returns the live list. Callers must not modify it.
func (s *Scene) Objects() []*VoxelObjectDraw { return s.objects }

func (s *Scene) Len() int { return len(s.objects) }

// Bounds is the union of all object world AABBs. ok is false for an empty
// scene.
func (s *Scene) Bounds() (minB, maxB mgl32.Vec3, ok bool) {
	for i, o := range s.objects {
		omin, omax := o.WorldBounds()
		if i == 0 {
			minB, maxB = omin, omax
			continue
		}
		for a := 0; a < 3; a++ {
			minB[a] = min(minB[a], omin[a])
			maxB[a] = max(maxB[a], omax[a])
		}
	}
	return minB, maxB, len(s.objects) > 0
}
