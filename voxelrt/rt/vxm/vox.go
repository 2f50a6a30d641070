package vxm

import (
	"fmt"
	"image/color"
)

const voxMagic = "VOX "

// DecodeVox imports the first model of a MagicaVoxel file. Palette entry 0
// is unused by the format, so voxel colour indices are shifted down by one
// into a 255-entry palette.
func DecodeVox(data []byte) (*Model, error) {
	r := NewReader(data)
	magic, err := r.ReadBytes(4)
	if err != nil || string(magic) != voxMagic {
		return nil, ErrInvalidVox
	}
	if _, err := r.ReadU32(); err != nil {
		return nil, fmt.Errorf("%w: version: %v", ErrInvalidVox, err)
	}

	palette := defaultVoxPalette()
	var (
		voxels  []Voxel
		haveXYZ bool
	)
	b := newBounds()

	for r.Remaining() > 0 {
		id, err := r.ReadBytes(4)
		if err != nil {
			return nil, err
		}
		contentSize, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		if _, err := r.ReadU32(); err != nil { // children size
			return nil, err
		}
		switch string(id) {
		case "MAIN":
			// MAIN's content is empty; its children follow inline.
			if err := r.Skip(uint64(contentSize)); err != nil {
				return nil, err
			}
		case "XYZI":
			chunk, err := r.ReadBytes(uint64(contentSize))
			if err != nil {
				return nil, err
			}
			if haveXYZ {
				continue
			}
			haveXYZ = true
			voxels, err = parseXYZI(chunk, &b)
			if err != nil {
				return nil, err
			}
		case "RGBA":
			chunk, err := r.ReadBytes(uint64(contentSize))
			if err != nil {
				return nil, err
			}
			for i := 0; i < 255 && i*4+3 < len(chunk); i++ {
				o := i * 4
				palette[i] = color.RGBA{R: chunk[o], G: chunk[o+1], B: chunk[o+2], A: chunk[o+3]}
			}
		default:
			// SIZE, PACK, MATL and the scene graph chunks carry nothing the
			// renderer needs; the size is recomputed from voxel bounds.
			if err := r.Skip(uint64(contentSize)); err != nil {
				return nil, err
			}
		}
	}
	if !haveXYZ {
		return nil, ErrVoxNoModel
	}

	return &Model{
		Version: 0,
		Size:    normalise(voxels, b),
		Voxels:  voxels,
		Palette: palette,
	}, nil
}

func parseXYZI(chunk []byte, b *bounds) ([]Voxel, error) {
	r := NewReader(chunk)
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	if uint64(n)*4 > r.Remaining() {
		return nil, fmt.Errorf("%w: XYZI declares %d voxels", ErrInvalidVox, n)
	}
	voxels := make([]Voxel, 0, n)
	for i := uint32(0); i < n; i++ {
		e, _ := r.ReadBytes(4)
		if e[3] == 0 {
			continue
		}
		// MagicaVoxel is Z-up; swap into the renderer's Y-up frame.
		x, y, z := uint32(e[0]), uint32(e[2]), uint32(e[1])
		b.add(x, y, z)
		voxels = append(voxels, Voxel{X: x, Y: y, Z: z, Index: e[3] - 1})
	}
	return voxels, nil
}

func defaultVoxPalette() []color.RGBA {
	p := make([]color.RGBA, 255)
	for i := range p {
		p[i] = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}
	return p
}
