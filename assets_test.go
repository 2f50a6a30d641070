package voxdraw

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/gekko3d/voxdraw/voxelrt/rt/vxm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// oneVoxelVXM is a version 12 file with a single voxel at (1,1,1) of a
// 4x4x4 volume.
func oneVoxelVXM() []byte {
	var b []byte
	u32 := func(v uint32) { b = binary.LittleEndian.AppendUint32(b, v) }
	zeros := func(n int) { b = append(b, make([]byte, n)...) }

	b = append(b, "VXMC"...)
	u32(4)
	u32(4)
	u32(4)
	for i := 0; i < 3; i++ {
		u32(math.Float32bits(0.5))
	}
	b = append(b, 0) // no surface
	zeros(16)        // lod transform
	u32(0)           // lod count
	zeros(2 * 1024)  // legacy slots
	b = append(b, 0) // legacy chunks
	b = append(b, 1, 0, 0, 255, 255, 0)
	b = append(b, 1)
	b = append(b, "layer0"...)
	b = append(b, 0, 1)
	b = append(b, 21, 0xFF, 1, 0, 0)
	return b
}

func collect(t *testing.T, s *ModelServer) []LoadResult {
	t.Helper()
	s.Close()
	return s.Poll()
}

func TestModelServerLoadBytes(t *testing.T) {
	s := NewModelServer(2, NewNopLogger())
	id := s.LoadBytes("one.vxm", oneVoxelVXM())

	results := collect(t, s)
	require.Len(t, results, 1)
	r := results[0]
	require.NoError(t, r.Err)
	assert.Equal(t, id, r.ID)
	assert.Equal(t, "one.vxm", r.Name)
	assert.Equal(t, [3]uint32{1, 1, 1}, r.Model.Size)

	m, ok := s.Get(id)
	require.True(t, ok)
	assert.Same(t, r.Model, m)
	assert.Empty(t, s.Poll(), "results are handed out once")
	assert.Zero(t, s.Pending())
}

func TestModelServerLoadFile(t *testing.T) {
	dir := t.TempDir()
	raw := oneVoxelVXM()
	packed, err := vxm.Compress(raw)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.vxm"), raw, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.vxm.zst"), packed, 0o644))

	s := NewModelServer(1, nil)
	a := s.Load(filepath.Join(dir, "a.vxm"))
	b := s.Load(filepath.Join(dir, "b.vxm.zst"))

	results := collect(t, s)
	require.Len(t, results, 2)
	for _, r := range results {
		require.NoError(t, r.Err, r.Name)
		assert.Equal(t, 1, r.Model.VoxelCount())
	}
	ma, _ := s.Get(a)
	mb, _ := s.Get(b)
	assert.Equal(t, ma.Fingerprint(), mb.Fingerprint())
	assert.Equal(t, "b.vxm.zst", s.Name(b))
}

func TestModelServerFailures(t *testing.T) {
	s := NewModelServer(2, NewNopLogger())
	bad := s.LoadBytes("bad.vxm", []byte("nope"))
	missing := s.Load(filepath.Join(t.TempDir(), "missing.vxm"))
	unknown := s.LoadBytes("model.obj", oneVoxelVXM())

	results := collect(t, s)
	require.Len(t, results, 3)
	byID := map[AssetId]LoadResult{}
	for _, r := range results {
		assert.Error(t, r.Err)
		assert.Nil(t, r.Model)
		byID[r.ID] = r
	}
	assert.ErrorIs(t, byID[bad].Err, vxm.ErrInvalidMagic)
	assert.ErrorIs(t, byID[missing].Err, os.ErrNotExist)
	assert.ErrorIs(t, byID[unknown].Err, vxm.ErrUnknownFormat)

	_, ok := s.Get(bad)
	assert.False(t, ok)
}

func TestModelServerClosed(t *testing.T) {
	s := NewModelServer(1, NewNopLogger())
	s.Close()
	id := s.LoadBytes("late.vxm", oneVoxelVXM())

	results := s.Poll()
	require.Len(t, results, 1)
	assert.Equal(t, id, results[0].ID)
	assert.ErrorIs(t, results[0].Err, ErrServerClosed)
}

func TestModelServerGenerate(t *testing.T) {
	s := NewModelServer(1, NewNopLogger())
	model := &vxm.Model{Size: [3]uint32{1, 1, 1}, Voxels: []vxm.Voxel{{}}}
	id := s.Generate("gen", func() *vxm.Model { return model })
	broken := s.Generate("broken", func() *vxm.Model { return nil })

	results := collect(t, s)
	require.Len(t, results, 2)
	m, ok := s.Get(id)
	require.True(t, ok)
	assert.Same(t, model, m)
	_, ok = s.Get(broken)
	assert.False(t, ok)
}

func TestModelServerRecoversPanickingBuilder(t *testing.T) {
	s := NewModelServer(1, NewNopLogger())
	bad := s.Generate("explodes", func() *vxm.Model { panic("out of voxels") })
	good := s.Generate("after", func() *vxm.Model {
		return &vxm.Model{Size: [3]uint32{1, 1, 1}, Voxels: []vxm.Voxel{{}}}
	})

	results := collect(t, s)
	require.Len(t, results, 2)
	byID := map[AssetId]LoadResult{}
	for _, r := range results {
		byID[r.ID] = r
	}
	assert.ErrorIs(t, byID[bad].Err, ErrDecodePanic)
	assert.ErrorContains(t, byID[bad].Err, "out of voxels")
	assert.Nil(t, byID[bad].Model)
	assert.NoError(t, byID[good].Err)
	assert.Zero(t, s.Pending())
}
