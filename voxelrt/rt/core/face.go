package core

import "github.com/go-gl/mathgl/mgl32"

// Face is one of the six axis-aligned orientations. The numeric values are
// part of the GPU contract: indirect arguments and shader corner tables are
// ordered by them.
type Face uint8

const (
	FaceBack   Face = iota // -Z
	FaceFront              // +Z
	FaceLeft               // -X
	FaceRight              // +X
	FaceBottom             // -Y
	FaceTop                // +Y

	FaceCount = 6
)

var faceNames = [FaceCount]string{"back", "front", "left", "right", "bottom", "top"}

func (f Face) String() string {
	if int(f) < FaceCount {
		return faceNames[f]
	}
	return "invalid"
}

var faceNormals = [FaceCount]mgl32.Vec3{
	{0, 0, -1},
	{0, 0, 1},
	{-1, 0, 0},
	{1, 0, 0},
	{0, -1, 0},
	{0, 1, 0},
}

func (f Face) Normal() mgl32.Vec3 { return faceNormals[f] }

// faceCorners are the triangle-strip corners of a unit face in voxel space,
// counter-clockwise when seen from outside. The shader holds the same table.
var faceCorners = [FaceCount][4]mgl32.Vec3{
	{{0, 0, 0}, {0, 1, 0}, {1, 0, 0}, {1, 1, 0}},
	{{0, 0, 1}, {1, 0, 1}, {0, 1, 1}, {1, 1, 1}},
	{{0, 0, 0}, {0, 0, 1}, {0, 1, 0}, {0, 1, 1}},
	{{1, 0, 0}, {1, 1, 0}, {1, 0, 1}, {1, 1, 1}},
	{{0, 0, 0}, {1, 0, 0}, {0, 0, 1}, {1, 0, 1}},
	{{0, 1, 0}, {0, 1, 1}, {1, 1, 0}, {1, 1, 1}},
}

// Corners returns the unit quad for f.
func (f Face) Corners() [4]mgl32.Vec3 { return faceCorners[f] }
