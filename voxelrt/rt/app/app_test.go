package app

import (
	"errors"
	"image/color"
	"testing"

	"github.com/gekko3d/voxdraw"
	"github.com/gekko3d/voxdraw/voxelrt/rt/vxm"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cube(n uint32) *vxm.Model {
	m := &vxm.Model{Size: [3]uint32{n, n, n}, Palette: []color.RGBA{{G: 255, A: 255}}}
	for z := uint32(0); z < n; z++ {
		for y := uint32(0); y < n; y++ {
			for x := uint32(0); x < n; x++ {
				m.Voxels = append(m.Voxels, vxm.Voxel{X: x, Y: y, Z: z})
			}
		}
	}
	return m
}

func headlessApp() *App {
	return NewApp(nil, voxdraw.DefaultConfig(), voxdraw.NewNopLogger(), nil)
}

func TestPlaceModel(t *testing.T) {
	pos, next := placeModel(0, [3]uint32{4, 6, 2})
	assert.Equal(t, mgl32.Vec3{2, 3, 0}, pos)
	assert.Equal(t, float32(4+modelGap), next)

	pos, _ = placeModel(next, [3]uint32{2, 2, 2})
	assert.Equal(t, float32(4+modelGap+1), pos[0])
}

func TestIngestSkipsFailures(t *testing.T) {
	a := headlessApp()
	added := a.ingest([]voxdraw.LoadResult{
		{Name: "a.vxm", Model: cube(2)},
		{Name: "bad.vxm", Err: errors.New("broken")},
		{Name: "huge.vxm", Model: &vxm.Model{Size: [3]uint32{300, 1, 1}}},
		{Name: "b.vxm", Model: cube(1)},
	})
	assert.Equal(t, 2, added)
	require.Equal(t, 2, a.Scene.Len())
	objs := a.Scene.Objects()
	assert.Less(t, objs[0].Transform.Position[0], objs[1].Transform.Position[0])
}

func TestFrameSceneFollowsVersion(t *testing.T) {
	a := headlessApp()
	start := a.Camera.Position
	a.frameScene()
	assert.Equal(t, start, a.Camera.Position, "empty scene leaves the camera alone")

	a.ingest([]voxdraw.LoadResult{{Name: "a.vxm", Model: cube(4)}})
	a.frameScene()
	framed := a.Camera.Position
	assert.NotEqual(t, start, framed)

	a.Camera.Position = mgl32.Vec3{1, 2, 3}
	a.frameScene()
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, a.Camera.Position, "unchanged scene is not reframed")
}
