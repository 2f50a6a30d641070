package core

import (
	"sync/atomic"

	"github.com/gekko3d/voxdraw/voxelrt/rt/vxm"
	"github.com/go-gl/mathgl/mgl32"
)

var nextObjectID atomic.Uint64

// VoxelObjectDraw is a renderable model instance: a world transform plus the
// six face buckets extracted from its model.
type VoxelObjectDraw struct {
	ID          uint64
	Transform   *Transform
	Buckets     FaceBuckets
	Fingerprint uint64

	model *vxm.Model
}

func NewVoxelObjectDraw(m *vxm.Model, t *Transform) (*VoxelObjectDraw, error) {
	if t == nil {
		t = NewTransform()
	}
	obj := &VoxelObjectDraw{ID: nextObjectID.Add(1), Transform: t}
	if err := obj.SetModel(m); err != nil {
		return nil, err
	}
	return obj, nil
}

// SetModel rebuilds the face buckets. On error the object keeps its
// previous model.
func (o *VoxelObjectDraw) SetModel(m *vxm.Model) error {
	buckets, err := ExtractFaces(m)
	if err != nil {
		return err
	}
	o.model = m
	o.Buckets = buckets
	o.Fingerprint = m.Fingerprint()
	return nil
}

func (o *VoxelObjectDraw) Model() *vxm.Model { return o.model }

// SetTransform replaces the world transform. Buckets are left alone.
func (o *VoxelObjectDraw) SetTransform(t *Transform) {
	if t != nil {
		o.Transform = t
	}
}

// InstanceCount is the number of instances this object contributes.
func (o *VoxelObjectDraw) InstanceCount() int { return o.Buckets.Len() }

// LocalBounds is the model's box around the local origin, matching the
// centring used by ExtractFaces.
func (o *VoxelObjectDraw) LocalBounds() (mgl32.Vec3, mgl32.Vec3) {
	s := o.model.Size
	minB := mgl32.Vec3{-float32(s[0] / 2), -float32(s[1] / 2), -float32(s[2] / 2)}
	maxB := minB.Add(mgl32.Vec3{float32(s[0]), float32(s[1]), float32(s[2])})
	return minB, maxB
}

// WorldBounds transforms the local box corners and returns a conservative
// world-space AABB.
func (o *VoxelObjectDraw) WorldBounds() (mgl32.Vec3, mgl32.Vec3) {
	minB, maxB := o.LocalBounds()
	o2w := o.Transform.ObjectToWorld()

	inf := float32(1e20)
	wMin := mgl32.Vec3{inf, inf, inf}
	wMax := mgl32.Vec3{-inf, -inf, -inf}
	for i := 0; i < 8; i++ {
		c := mgl32.Vec3{minB.X(), minB.Y(), minB.Z()}
		if i&1 != 0 {
			c[0] = maxB.X()
		}
		if i&2 != 0 {
			c[1] = maxB.Y()
		}
		if i&4 != 0 {
			c[2] = maxB.Z()
		}
		wc := o2w.Mul4x1(c.Vec4(1.0)).Vec3()
		for a := 0; a < 3; a++ {
			wMin[a] = min(wMin[a], wc[a])
			wMax[a] = max(wMax[a], wc[a])
		}
	}
	return wMin, wMax
}
