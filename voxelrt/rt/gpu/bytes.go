package gpu

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Helpers
func appendMat4(dst []byte, m mgl32.Mat4) []byte {
	for _, v := range m {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
	}
	return dst
}

func appendVec4(dst []byte, v [4]float32) []byte {
	for _, f := range v {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(f))
	}
	return dst
}

func appendVec3Padded(dst []byte, v mgl32.Vec3, w float32) []byte {
	return appendVec4(dst, [4]float32{v[0], v[1], v[2], w})
}

func appendU32(dst []byte, vs ...uint32) []byte {
	for _, v := range vs {
		dst = binary.LittleEndian.AppendUint32(dst, v)
	}
	return dst
}
