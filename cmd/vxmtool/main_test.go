package main

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/gekko3d/voxdraw/voxelrt/rt/vxm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeModel writes a version 12 file holding one voxel at (1,1,1) of a
// 4x4x4 volume.
func writeModel(t *testing.T, dir string) string {
	t.Helper()
	var b []byte
	u32 := func(v uint32) { b = binary.LittleEndian.AppendUint32(b, v) }
	b = append(b, "VXMC"...)
	u32(4)
	u32(4)
	u32(4)
	for i := 0; i < 3; i++ {
		u32(math.Float32bits(0.5))
	}
	b = append(b, 0)
	b = append(b, make([]byte, 16)...)
	u32(0)
	b = append(b, make([]byte, 2*1024)...)
	b = append(b, 0)
	b = append(b, 1, 0, 0, 255, 255, 0)
	b = append(b, 1)
	b = append(b, "layer0"...)
	b = append(b, 0, 1)
	b = append(b, 21, 0xFF, 1, 0, 0)

	path := filepath.Join(dir, "one.vxm")
	require.NoError(t, os.WriteFile(path, b, 0o644))
	return path
}

func TestInfo(t *testing.T) {
	path := writeModel(t, t.TempDir())
	var out bytes.Buffer
	require.NoError(t, run([]string{"info", path}, &out))
	assert.Contains(t, out.String(), "version:     12")
	assert.Contains(t, out.String(), "size:        1x1x1")
	assert.Contains(t, out.String(), "faces:       6")
}

func TestGLBAndPreview(t *testing.T) {
	dir := t.TempDir()
	path := writeModel(t, dir)

	require.NoError(t, run([]string{"glb", path, filepath.Join(dir, "one.glb")}, nil))
	require.NoError(t, run([]string{"preview", "-scale", "3", path, filepath.Join(dir, "one.png")}, nil))

	glb, err := os.ReadFile(filepath.Join(dir, "one.glb"))
	require.NoError(t, err)
	assert.Equal(t, []byte("glTF"), glb[:4])
	png, err := os.ReadFile(filepath.Join(dir, "one.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])
}

func TestPack(t *testing.T) {
	dir := t.TempDir()
	path := writeModel(t, dir)
	out := filepath.Join(dir, "one.vxm.zst")
	require.NoError(t, run([]string{"pack", path, out}, nil))

	m, err := vxm.Load(out)
	require.NoError(t, err)
	assert.Equal(t, 1, m.VoxelCount())

	bad := filepath.Join(dir, "bad.vxm")
	require.NoError(t, os.WriteFile(bad, []byte("junk"), 0o644))
	assert.ErrorIs(t, run([]string{"pack", bad, out}, nil), vxm.ErrInvalidMagic)
}

func TestUsage(t *testing.T) {
	assert.ErrorIs(t, run(nil, nil), errUsage)
	assert.ErrorIs(t, run([]string{"info"}, nil), errUsage)
	assert.ErrorIs(t, run([]string{"explode", "x"}, nil), errUsage)
}
