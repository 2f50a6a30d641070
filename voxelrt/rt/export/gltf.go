// Package export converts decoded models into files other tools can open.
package export

import (
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/gekko3d/voxdraw/voxelrt/rt/core"
	"github.com/gekko3d/voxdraw/voxelrt/rt/voxcolor"
	"github.com/gekko3d/voxdraw/voxelrt/rt/vxm"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

var ErrEmptyModel = errors.New("export: model has no voxels")

// Mesh is the triangle soup of every extracted face.
type Mesh struct {
	Positions [][3]float32
	Normals   [][3]float32
	Colors    [][4]float32
	Indices   []uint32
}

// BuildMesh expands the face buckets of m into quads, two triangles each.
// Colours are decoded from the packed HSL word so the mesh matches what the
// renderer shows.
func BuildMesh(m *vxm.Model) (*Mesh, error) {
	buckets, err := core.ExtractFaces(m)
	if err != nil {
		return nil, err
	}
	n := buckets.Len()
	mesh := &Mesh{
		Positions: make([][3]float32, 0, n*4),
		Normals:   make([][3]float32, 0, n*4),
		Colors:    make([][4]float32, 0, n*4),
		Indices:   make([]uint32, 0, n*6),
	}
	for f := range buckets {
		face := core.Face(f)
		normal := face.Normal()
		for _, rec := range buckets[f] {
			c := voxcolor.Unpack(rec.Color)
			rgba := [4]float32{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255, 1}
			base := uint32(len(mesh.Positions))
			for _, p := range rec.QuadCorners(face) {
				mesh.Positions = append(mesh.Positions, p)
				mesh.Normals = append(mesh.Normals, normal)
				mesh.Colors = append(mesh.Colors, rgba)
			}
			mesh.Indices = append(mesh.Indices, base, base+1, base+2, base+2, base+1, base+3)
		}
	}
	return mesh, nil
}

// Document builds a single-mesh glTF document for m.
func Document(m *vxm.Model, name string) (*gltf.Document, error) {
	if m.VoxelCount() == 0 {
		return nil, ErrEmptyModel
	}
	mesh, err := BuildMesh(m)
	if err != nil {
		return nil, err
	}

	doc := gltf.NewDocument()
	doc.Asset.Generator = "voxdraw"
	prim := &gltf.Primitive{
		Attributes: map[string]uint32{
			gltf.POSITION: uint32(modeler.WritePosition(doc, mesh.Positions)),
			gltf.NORMAL:   uint32(modeler.WriteNormal(doc, mesh.Normals)),
			gltf.COLOR_0:  uint32(modeler.WriteColor(doc, mesh.Colors)),
		},
		Indices:  gltf.Index(uint32(modeler.WriteIndices(doc, mesh.Indices))),
		Material: gltf.Index(0),
	}
	doc.Materials = []*gltf.Material{{
		Name:      "voxel",
		AlphaMode: gltf.AlphaOpaque,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float32{1, 1, 1, 1},
			MetallicFactor:  gltf.Float(0),
			RoughnessFactor: gltf.Float(1),
		},
	}}
	doc.Meshes = []*gltf.Mesh{{Name: name, Primitives: []*gltf.Primitive{prim}}}
	doc.Nodes = []*gltf.Node{{Name: name, Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)
	return doc, nil
}

// WriteGLB encodes m as binary glTF to w.
func WriteGLB(w io.Writer, m *vxm.Model, name string) error {
	doc, err := Document(m, name)
	if err != nil {
		return err
	}
	enc := gltf.NewEncoder(w)
	enc.AsBinary = true
	return enc.Encode(doc)
}

func SaveGLB(path string, m *vxm.Model, name string) error {
	var buf bytes.Buffer
	if err := WriteGLB(&buf, m, name); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
