package gpu

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/gekko3d/voxdraw/voxelrt/rt/core"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// VerticesPerObject is 6 faces of 4 strip corners.
	VerticesPerObject = core.FaceCount * VerticesPerFace
	VerticesPerFace   = 4

	VertexStride    = 4
	TransformStride = 128
	ArgsStride      = 16
)

// DrawIndirectArgs matches the GPU non-indexed indirect draw layout.
type DrawIndirectArgs struct {
	VertexCount   uint32
	InstanceCount uint32
	FirstVertex   uint32
	FirstInstance uint32
}

// ObjectTransform is one entry of the per-object transform buffer. MVP is
// consumed by the main pass; Model lets the shadow pass re-project with
// cascade matrices.
type ObjectTransform struct {
	Model mgl32.Mat4
	MVP   mgl32.Mat4
}

// FrameBuffers is the CPU side of one frame's upload.
type FrameBuffers struct {
	VertexIndices []uint32
	Transforms    []ObjectTransform
	Instances     []core.InstanceRecord
	Args          []DrawIndirectArgs

	// Structure digests object count, model fingerprints and bucket
	// lengths. Equal values mean the vertex and instance data are unchanged.
	Structure uint64
}

func (f *FrameBuffers) ObjectCount() int { return len(f.Transforms) }

// DrawCount is the number of indirect draws: one per face per object.
func (f *FrameBuffers) DrawCount() uint32 { return uint32(len(f.Args)) }

// Assembler packs live objects into FrameBuffers, reusing its slices between
// frames.
type Assembler struct {
	frame FrameBuffers
	hash  *xxhash.Digest
}

func NewAssembler() *Assembler {
	return &Assembler{hash: xxhash.New()}
}

// Assemble walks objects in order. The returned buffers are valid until the
// next call.
func (a *Assembler) Assemble(objects []*core.VoxelObjectDraw, viewProj mgl32.Mat4) *FrameBuffers {
	f := &a.frame
	f.VertexIndices = f.VertexIndices[:0]
	f.Transforms = f.Transforms[:0]
	f.Instances = f.Instances[:0]
	f.Args = f.Args[:0]

	a.hash.Reset()
	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], uint64(len(objects)))
	_, _ = a.hash.Write(scratch[:])

	var running uint32
	for i, obj := range objects {
		model := obj.Transform.ObjectToWorld()
		f.Transforms = append(f.Transforms, ObjectTransform{Model: model, MVP: viewProj.Mul4(model)})

		for v := 0; v < VerticesPerObject; v++ {
			f.VertexIndices = append(f.VertexIndices, uint32(i))
		}

		binary.LittleEndian.PutUint64(scratch[:], obj.Fingerprint)
		_, _ = a.hash.Write(scratch[:])

		for face := 0; face < core.FaceCount; face++ {
			bucket := obj.Buckets[face]
			n := uint32(len(bucket))
			f.Args = append(f.Args, DrawIndirectArgs{
				VertexCount:   VerticesPerFace,
				InstanceCount: n,
				FirstVertex:   uint32(i*VerticesPerObject + face*VerticesPerFace),
				FirstInstance: running,
			})
			f.Instances = append(f.Instances, bucket...)
			running += n

			binary.LittleEndian.PutUint64(scratch[:], uint64(n))
			_, _ = a.hash.Write(scratch[:])
		}
	}
	f.Structure = a.hash.Sum64()
	return f
}

// Validate checks the bookkeeping invariants between args and instances.
func (f *FrameBuffers) Validate() error {
	objects := len(f.Transforms)
	if len(f.Args) != objects*core.FaceCount {
		return fmt.Errorf("gpu: %d indirect args for %d objects", len(f.Args), objects)
	}
	if len(f.VertexIndices) != objects*VerticesPerObject {
		return fmt.Errorf("gpu: %d vertex indices for %d objects", len(f.VertexIndices), objects)
	}
	var total uint32
	for i, arg := range f.Args {
		if arg.FirstInstance != total {
			return fmt.Errorf("gpu: draw %d first instance %d, want %d", i, arg.FirstInstance, total)
		}
		total += arg.InstanceCount
	}
	if int(total) != len(f.Instances) {
		return fmt.Errorf("gpu: args cover %d instances, buffer holds %d", total, len(f.Instances))
	}
	return nil
}

func (f *FrameBuffers) VertexBytes(dst []byte) []byte {
	return appendU32(dst[:0], f.VertexIndices...)
}

func (f *FrameBuffers) InstanceBytes(dst []byte) []byte {
	dst = dst[:0]
	for _, r := range f.Instances {
		dst = r.AppendBytes(dst)
	}
	return dst
}

func (f *FrameBuffers) TransformBytes(dst []byte) []byte {
	dst = dst[:0]
	for _, t := range f.Transforms {
		dst = appendMat4(dst, t.Model)
		dst = appendMat4(dst, t.MVP)
	}
	return dst
}

func (f *FrameBuffers) ArgsBytes(dst []byte) []byte {
	dst = dst[:0]
	for _, a := range f.Args {
		dst = appendU32(dst, a.VertexCount, a.InstanceCount, a.FirstVertex, a.FirstInstance)
	}
	return dst
}
