package vxm

import "errors"

// Decoder errors. All of them are fatal for the asset being decoded.
var (
	ErrInvalidMagic       = errors.New("vxm: invalid magic")
	ErrUnsupportedVersion = errors.New("vxm: unsupported version")
	ErrDimensionTooLarge  = errors.New("vxm: lod texture dimension too large")
	ErrMalformedStream    = errors.New("vxm: malformed stream")
	ErrOutOfBounds        = errors.New("vxm: read out of bounds")
)

var (
	ErrInvalidVox    = errors.New("vox: not a valid VOX file")
	ErrVoxNoModel    = errors.New("vox: file contains no model")
	ErrUnknownFormat = errors.New("vxm: unknown model file extension")
)
