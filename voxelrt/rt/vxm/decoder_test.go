package vxm

import (
	"image/color"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var red = color.RGBA{R: 255, A: 255}

func TestDecodeSingleVoxel(t *testing.T) {
	m, err := Decode(singleVoxel(red).bytes())
	require.NoError(t, err)

	assert.Equal(t, 12, m.Version)
	assert.Equal(t, [3]uint32{1, 1, 1}, m.Size)
	require.Len(t, m.Voxels, 1)
	assert.Equal(t, Voxel{X: 0, Y: 0, Z: 0, Index: 0}, m.Voxels[0])
	assert.Equal(t, []color.RGBA{red}, m.Palette)
}

func TestDecodePaletteByteOrder(t *testing.T) {
	f := singleVoxel(color.RGBA{R: 10, G: 20, B: 30, A: 40})
	m, err := Decode(f.bytes())
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 10, G: 20, B: 30, A: 40}, m.Palette[0])
}

func TestDecodeInvalidMagic(t *testing.T) {
	_, err := Decode([]byte("XXXX"))
	assert.ErrorIs(t, err, ErrInvalidMagic)
	assert.NotErrorIs(t, err, ErrOutOfBounds)

	_, err = Decode([]byte("VX"))
	assert.ErrorIs(t, err, ErrInvalidMagic)
}

func TestDecodeUnsupportedVersion(t *testing.T) {
	for _, magic := range []string{"VXMA"} {
		f := singleVoxel(red)
		f.magic = magic
		_, err := Decode(f.bytes())
		assert.ErrorIs(t, err, ErrUnsupportedVersion, magic)
	}
}

func TestParseVersion(t *testing.T) {
	cases := map[byte]int{'0': 0, '9': 9, 'A': 10, 'B': 11, 'C': 12}
	for c, want := range cases {
		got, ok := ParseVersion(c)
		assert.True(t, ok)
		assert.Equal(t, want, got)
	}
	_, ok := ParseVersion('D')
	assert.False(t, ok)
}

func TestDecodeDimensionTooLargeBeforeSkip(t *testing.T) {
	f := singleVoxel(red)
	f.lods = [][2]uint32{{4096, 16}}
	data := f.bytes()
	// magic, scale, pivot, surface flag, lod transform, level count, dims
	cut := 4 + 12 + 12 + 1 + 16 + 4 + 8
	_, err := Decode(data[:cut])
	assert.ErrorIs(t, err, ErrDimensionTooLarge)
	assert.NotErrorIs(t, err, ErrOutOfBounds)
}

func TestDecodeSkipsOptionalBlocks(t *testing.T) {
	f := singleVoxel(red)
	f.surface = true
	f.lods = [][2]uint32{{16, 16}, {2048, 2048}}
	f.chunks = 2
	m, err := Decode(f.bytes())
	require.NoError(t, err)
	assert.Equal(t, [3]uint32{1, 1, 1}, m.Size)
	assert.Len(t, m.Voxels, 1)
}

func TestDecodeRejectsOtherVersionLetters(t *testing.T) {
	for _, magic := range []string{"VXMB", "VXM9"} {
		f := singleVoxel(red)
		f.magic = magic
		m, err := Decode(f.bytes())
		assert.ErrorIs(t, err, ErrInvalidMagic, magic)
		assert.Nil(t, m)
	}
}

func TestDecodeLayersRestartIndex(t *testing.T) {
	f := fixture{
		magic:   "VXMC",
		scale:   [3]uint32{4, 4, 4},
		palette: []color.RGBA{red, {G: 255, A: 255}},
		layers: [][]run{
			{{1, 0}},
			{{2, 0xFF}, {1, 1}},
		},
	}
	m, err := Decode(f.bytes())
	require.NoError(t, err)
	assert.Equal(t, [3]uint32{1, 1, 3}, m.Size)
	assert.Equal(t, []Voxel{{0, 0, 0, 0}, {0, 0, 2, 1}}, m.Voxels)
}

func TestDecodeMalformedRun(t *testing.T) {
	f := fixture{
		magic:   "VXMC",
		scale:   [3]uint32{2, 2, 2},
		palette: []color.RGBA{red},
		layers:  [][]run{{{9, 0}}},
	}
	_, err := Decode(f.bytes())
	assert.ErrorIs(t, err, ErrMalformedStream)

	f.layers = [][]run{{{1, 3}}}
	_, err = Decode(f.bytes())
	assert.ErrorIs(t, err, ErrMalformedStream, "material index past the palette")
}

func TestDecodeTruncated(t *testing.T) {
	data := singleVoxel(red).bytes()
	for _, n := range []int{5, 40, len(data) / 2, len(data) - 1} {
		m, err := Decode(data[:n])
		assert.ErrorIs(t, err, ErrOutOfBounds, "cut at %d", n)
		assert.Nil(t, m)
	}
}

func TestDecodeEmptyModel(t *testing.T) {
	f := fixture{
		magic:   "VXMC",
		scale:   [3]uint32{4, 4, 4},
		palette: []color.RGBA{red},
		layers:  [][]run{{{64, 0xFF}}},
	}
	m, err := Decode(f.bytes())
	require.NoError(t, err)
	assert.Empty(t, m.Voxels)
	assert.Equal(t, [3]uint32{}, m.Size)
}

func randomFixture(rng *rand.Rand) fixture {
	scale := [3]uint32{uint32(rng.Intn(12) + 1), uint32(rng.Intn(12) + 1), uint32(rng.Intn(12) + 1)}
	volume := int(scale[0] * scale[1] * scale[2])
	palette := make([]color.RGBA, rng.Intn(8)+1)
	for i := range palette {
		palette[i] = color.RGBA{R: uint8(rng.Intn(256)), G: uint8(rng.Intn(256)), B: uint8(rng.Intn(256)), A: 255}
	}
	var runs []run
	for idx := 0; idx < volume; {
		n := rng.Intn(20) + 1
		if idx+n > volume {
			n = volume - idx
		}
		mat := uint8(0xFF)
		if rng.Intn(3) == 0 {
			mat = uint8(rng.Intn(len(palette)))
		}
		runs = append(runs, run{uint8(n), mat})
		idx += n
	}
	return fixture{magic: "VXMC", scale: scale, palette: palette, layers: [][]run{runs}}
}

func TestDecodeNormalisedBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		m, err := Decode(randomFixture(rng).bytes())
		require.NoError(t, err)
		if len(m.Voxels) == 0 {
			continue
		}
		var maxes [3]uint32
		mins := [3]uint32{^uint32(0), ^uint32(0), ^uint32(0)}
		for _, v := range m.Voxels {
			p := [3]uint32{v.X, v.Y, v.Z}
			for a := 0; a < 3; a++ {
				require.Less(t, p[a], m.Size[a])
				mins[a] = min(mins[a], p[a])
				maxes[a] = max(maxes[a], p[a])
			}
			require.Less(t, int(v.Index), len(m.Palette))
		}
		assert.Equal(t, [3]uint32{}, mins)
		for a := 0; a < 3; a++ {
			assert.Equal(t, maxes[a]+1, m.Size[a])
		}
	}
}

func TestDecodeDeterministic(t *testing.T) {
	data := randomFixture(rand.New(rand.NewSource(3))).bytes()
	a, err := Decode(data)
	require.NoError(t, err)
	b, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestFingerprintChangesWithContent(t *testing.T) {
	a, err := Decode(singleVoxel(red).bytes())
	require.NoError(t, err)
	b, err := Decode(singleVoxel(color.RGBA{G: 255, A: 255}).bytes())
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}
