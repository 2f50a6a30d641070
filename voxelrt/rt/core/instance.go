package core

import (
	"encoding/binary"

	"github.com/go-gl/mathgl/mgl32"
)

// InstanceStride is the GPU size of one InstanceRecord.
const InstanceStride = 8

// InstanceRecord describes one rendered face. Position is relative to the
// model centre.
type InstanceRecord struct {
	Position [3]int8
	Width    uint8
	Color    uint16 // packed HSL word, see voxcolor
	Height   uint8
}

// Words returns the two little-endian u32 words the vertex stage reads:
// x | y<<8 | z<<16 | width<<24 and colorLo | colorHi<<8 | height<<24.
func (r InstanceRecord) Words() (uint32, uint32) {
	w0 := uint32(uint8(r.Position[0])) |
		uint32(uint8(r.Position[1]))<<8 |
		uint32(uint8(r.Position[2]))<<16 |
		uint32(r.Width)<<24
	w1 := uint32(r.Color) | uint32(r.Height)<<24
	return w0, w1
}

// AppendBytes appends the 8-byte GPU encoding of r to dst.
func (r InstanceRecord) AppendBytes(dst []byte) []byte {
	w0, w1 := r.Words()
	dst = binary.LittleEndian.AppendUint32(dst, w0)
	return binary.LittleEndian.AppendUint32(dst, w1)
}

// QuadCorners returns the four strip corners of r drawn as face f, in model
// space relative to the centred origin. This is what the vertex shader
// computes for the same record.
func (r InstanceRecord) QuadCorners(f Face) [4]mgl32.Vec3 {
	unit := faceCorners[f]
	origin := unit[0]
	u := unit[1].Sub(origin)
	v := unit[2].Sub(origin)
	base := origin.Add(mgl32.Vec3{float32(r.Position[0]), float32(r.Position[1]), float32(r.Position[2])})
	w, h := float32(r.Width), float32(r.Height)

	var out [4]mgl32.Vec3
	for k := range out {
		out[k] = base.Add(u.Mul(float32(k&1) * w)).Add(v.Mul(float32(k>>1) * h))
	}
	return out
}
