package vxm

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
)

const (
	MinVersion = 11
	MaxVersion = 12

	// MaxLODTextureDim bounds each LOD texture axis.
	MaxLODTextureDim = 2048

	surfaceHeaderSize   = 28
	lodTransformSize    = 16
	lodQuadVertexSize   = 20
	lodFaceBlocks       = 6
	legacyPaletteSize   = 256 * 4
	legacyChunkIDSize   = 1024
	legacyChunkTailSize = 2 // offset + length bytes
	emptyRun            = 0xFF
)

// ParseVersion maps the fourth magic character to a format version.
func ParseVersion(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'A' && c <= 'C':
		return 10 + int(c-'A'), true
	}
	return 0, false
}

// Decode parses a VXM stream. Every documented field is consumed in order,
// including the ones the model does not keep, so the cursor stays aligned
// with the format. On error the returned model is nil.
func Decode(data []byte) (*Model, error) {
	r := NewReader(data)

	version, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	var scale [3]uint32
	for i := range scale {
		if scale[i], err = r.ReadU32(); err != nil {
			return nil, fmt.Errorf("scale: %w", err)
		}
	}
	// Pivot is part of the header but unused.
	for i := 0; i < 3; i++ {
		if _, err := r.ReadF32(); err != nil {
			return nil, fmt.Errorf("pivot: %w", err)
		}
	}

	if err := skipSurface(r); err != nil {
		return nil, err
	}
	if version >= 8 {
		if err := r.Skip(lodTransformSize); err != nil {
			return nil, fmt.Errorf("lod transform: %w", err)
		}
	}
	if err := skipLODs(r); err != nil {
		return nil, err
	}
	if err := skipLegacy(r); err != nil {
		return nil, err
	}

	palette, err := readPalette(r)
	if err != nil {
		return nil, err
	}

	layers := 1
	if version >= 12 {
		n, err := r.ReadU8()
		if err != nil {
			return nil, fmt.Errorf("layer count: %w", err)
		}
		layers = int(n)
	}

	volume := uint64(scale[0]) * uint64(scale[1]) * uint64(scale[2])
	b := newBounds()
	var voxels []Voxel
	for layer := 0; layer < layers; layer++ {
		if version >= 12 {
			if _, err := r.ReadCString(); err != nil {
				return nil, fmt.Errorf("layer %d name: %w", layer, err)
			}
			if _, err := r.ReadU8(); err != nil {
				return nil, fmt.Errorf("layer %d visibility: %w", layer, err)
			}
		}
		voxels, err = readRuns(r, voxels, &b, scale, volume, len(palette))
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", layer, err)
		}
	}

	size := normalise(voxels, b)
	return &Model{
		Version: version,
		Size:    size,
		Voxels:  voxels,
		Palette: palette,
	}, nil
}

// DecodeReader buffers r fully and decodes it.
func DecodeReader(r io.Reader) (*Model, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	return Decode(buf.Bytes())
}

func readHeader(r *Reader) (int, error) {
	magic, err := r.ReadBytes(4)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidMagic, err)
	}
	if string(magic[:3]) != "VXM" || (magic[3] != 'C' && magic[3] != 'A') {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMagic, magic)
	}
	version, ok := ParseVersion(magic[3])
	if !ok || version < MinVersion || version > MaxVersion {
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	return version, nil
}

func skipSurface(r *Reader) error {
	flag, err := r.ReadU8()
	if err != nil {
		return fmt.Errorf("surface flag: %w", err)
	}
	if flag == 0 {
		return nil
	}
	if err := r.Skip(surfaceHeaderSize); err != nil {
		return fmt.Errorf("surface header: %w", err)
	}
	w, err := r.ReadU32()
	if err != nil {
		return fmt.Errorf("surface width: %w", err)
	}
	h, err := r.ReadU32()
	if err != nil {
		return fmt.Errorf("surface height: %w", err)
	}
	if err := r.Skip(uint64(w) * uint64(h) * 4); err != nil {
		return fmt.Errorf("surface data: %w", err)
	}
	return nil
}

func skipLODs(r *Reader) error {
	levels, err := r.ReadU32()
	if err != nil {
		return fmt.Errorf("lod levels: %w", err)
	}
	for lvl := uint32(0); lvl < levels; lvl++ {
		dx, err := r.ReadU32()
		if err != nil {
			return fmt.Errorf("lod %d: %w", lvl, err)
		}
		dy, err := r.ReadU32()
		if err != nil {
			return fmt.Errorf("lod %d: %w", lvl, err)
		}
		if dx > MaxLODTextureDim || dy > MaxLODTextureDim {
			return fmt.Errorf("%w: lod %d is %dx%d", ErrDimensionTooLarge, lvl, dx, dy)
		}
		size, err := r.ReadU32()
		if err != nil {
			return fmt.Errorf("lod %d size: %w", lvl, err)
		}
		if err := r.Skip(uint64(size)); err != nil {
			return fmt.Errorf("lod %d texture: %w", lvl, err)
		}
		for face := 0; face < lodFaceBlocks; face++ {
			quads, err := r.ReadU32()
			if err != nil {
				return fmt.Errorf("lod %d face %d: %w", lvl, face, err)
			}
			if err := r.Skip(uint64(quads) * lodQuadVertexSize * 4); err != nil {
				return fmt.Errorf("lod %d face %d quads: %w", lvl, face, err)
			}
		}
	}
	return nil
}

func skipLegacy(r *Reader) error {
	if err := r.Skip(2 * legacyPaletteSize); err != nil {
		return fmt.Errorf("legacy palettes: %w", err)
	}
	chunks, err := r.ReadU8()
	if err != nil {
		return fmt.Errorf("chunk count: %w", err)
	}
	if err := r.Skip(uint64(chunks) * (legacyChunkIDSize + legacyChunkTailSize)); err != nil {
		return fmt.Errorf("legacy chunks: %w", err)
	}
	return nil
}

func readPalette(r *Reader) ([]color.RGBA, error) {
	n, err := r.ReadU8()
	if err != nil {
		return nil, fmt.Errorf("material count: %w", err)
	}
	palette := make([]color.RGBA, n)
	for i := range palette {
		// B, G, R, A, emissive
		e, err := r.ReadBytes(5)
		if err != nil {
			return nil, fmt.Errorf("material %d: %w", i, err)
		}
		palette[i] = color.RGBA{R: e[2], G: e[1], B: e[0], A: e[3]}
	}
	return palette, nil
}

// readRuns decodes one layer of (length, material) runs. The linear index
// restarts at zero for every layer.
func readRuns(r *Reader, voxels []Voxel, b *bounds, scale [3]uint32, volume uint64, paletteLen int) ([]Voxel, error) {
	var idx uint64
	syz := uint64(scale[1]) * uint64(scale[2])
	for {
		length, err := r.ReadU8()
		if err != nil {
			return nil, fmt.Errorf("run length: %w", err)
		}
		if length == 0 {
			return voxels, nil
		}
		mat, err := r.ReadU8()
		if err != nil {
			return nil, fmt.Errorf("run material: %w", err)
		}
		if mat == emptyRun {
			idx += uint64(length)
			continue
		}
		if idx+uint64(length) > volume {
			return nil, fmt.Errorf("%w: run [%d,%d) exceeds volume %d", ErrMalformedStream, idx, idx+uint64(length), volume)
		}
		if int(mat) >= paletteLen {
			return nil, fmt.Errorf("%w: material %d with %d palette entries", ErrMalformedStream, mat, paletteLen)
		}
		for i := idx; i < idx+uint64(length); i++ {
			x := uint32(i / syz)
			y := uint32((i / uint64(scale[2])) % uint64(scale[1]))
			z := uint32(i % uint64(scale[2]))
			b.add(x, y, z)
			voxels = append(voxels, Voxel{X: x, Y: y, Z: z, Index: mat})
		}
		idx += uint64(length)
	}
}
