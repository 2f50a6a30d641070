package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// ManagedBuffer is a lazily sized GPU buffer. It is reallocated whenever the
// required size differs from the current allocation, growing or shrinking.
// A replaced handle is never written again; it is retired and released at
// the next BeginFrame, after the submission that last referenced it.
type ManagedBuffer struct {
	Label   string
	Usage   wgpu.BufferUsage
	MinSize uint64

	buf     Buffer
	size    uint64
	retired []Buffer

	// Generation counts reallocations. Bind groups built against an older
	// generation are stale.
	Generation uint64
	HighWater  uint64
}

func NewManagedBuffer(label string, usage wgpu.BufferUsage, minSize uint64) *ManagedBuffer {
	return &ManagedBuffer{Label: label, Usage: usage | wgpu.BufferUsageCopyDst, MinSize: minSize}
}

func (b *ManagedBuffer) Buffer() Buffer { return b.buf }
func (b *ManagedBuffer) Size() uint64   { return b.size }

// requiredSize clamps to MinSize (empty buffers cannot be bound) and rounds
// up to the 4-byte write granularity.
func (b *ManagedBuffer) requiredSize(n uint64) uint64 {
	if n < b.MinSize {
		n = b.MinSize
	}
	if n == 0 {
		n = 4
	}
	if n%4 != 0 {
		n += 4 - n%4
	}
	return n
}

// Ensure makes the allocation exactly fit n bytes and reports whether a new
// handle was created.
func (b *ManagedBuffer) Ensure(dev Device, n uint64) (bool, error) {
	size := b.requiredSize(n)
	if b.buf != nil && b.size == size {
		return false, nil
	}
	nb, err := dev.CreateBuffer(b.Label, size, b.Usage)
	if err != nil {
		return false, fmt.Errorf("gpu: create %s (%d bytes): %w", b.Label, size, err)
	}
	if b.buf != nil {
		b.retired = append(b.retired, b.buf)
	}
	b.buf = nb
	b.size = size
	b.Generation++
	b.HighWater = max(b.HighWater, size)
	return true, nil
}

// Write sizes the buffer for data and uploads it at offset 0.
func (b *ManagedBuffer) Write(dev Device, data []byte) (bool, error) {
	recreated, err := b.Ensure(dev, uint64(len(data)))
	if err != nil {
		return false, err
	}
	if len(data) > 0 {
		dev.WriteBuffer(b.buf, 0, data)
	}
	return recreated, nil
}

func (b *ManagedBuffer) releaseRetired() {
	for _, r := range b.retired {
		r.Release()
	}
	b.retired = b.retired[:0]
}

func (b *ManagedBuffer) Release() {
	b.releaseRetired()
	if b.buf != nil {
		b.buf.Release()
		b.buf = nil
		b.size = 0
	}
}

// UploadStats are cumulative counters for the profiler.
type UploadStats struct {
	Reallocations     int
	StructuralUploads int
	SkippedUploads    int
}

// BufferManager owns the per-frame buffers shared by the main and shadow
// passes.
type BufferManager struct {
	Device Device

	Vertices   *ManagedBuffer
	Instances  *ManagedBuffer
	Transforms *ManagedBuffer
	Indirect   *ManagedBuffer

	Stats UploadStats

	lastStructure uint64
	uploaded      bool
	scratch       []byte
}

func NewBufferManager(device Device) *BufferManager {
	return &BufferManager{
		Device:     device,
		Vertices:   NewManagedBuffer("VertexIndexBuf", wgpu.BufferUsageVertex, VertexStride),
		Instances:  NewManagedBuffer("InstanceBuf", wgpu.BufferUsageVertex, 8),
		Transforms: NewManagedBuffer("TransformBuf", wgpu.BufferUsageStorage, TransformStride),
		Indirect:   NewManagedBuffer("IndirectBuf", wgpu.BufferUsageIndirect, ArgsStride),
	}
}

func (m *BufferManager) buffers() []*ManagedBuffer {
	return []*ManagedBuffer{m.Vertices, m.Instances, m.Transforms, m.Indirect}
}

// BeginFrame releases handles retired during the previous frame.
func (m *BufferManager) BeginFrame() {
	for _, b := range m.buffers() {
		b.releaseRetired()
	}
}

// UploadFrame writes f to the GPU. Vertex and instance data are only
// rewritten when f.Structure changed; transforms and indirect args are
// written every frame. rebind reports that the transform buffer was
// reallocated and bind groups referencing it must be rebuilt.
func (m *BufferManager) UploadFrame(f *FrameBuffers) (rebind bool, err error) {
	if !m.uploaded || f.Structure != m.lastStructure {
		m.scratch = f.VertexBytes(m.scratch)
		if err := m.write(m.Vertices, m.scratch); err != nil {
			return false, err
		}
		m.scratch = f.InstanceBytes(m.scratch)
		if err := m.write(m.Instances, m.scratch); err != nil {
			return false, err
		}
		m.lastStructure = f.Structure
		m.uploaded = true
		m.Stats.StructuralUploads++
	} else {
		m.Stats.SkippedUploads++
	}

	gen := m.Transforms.Generation
	m.scratch = f.TransformBytes(m.scratch)
	if err := m.write(m.Transforms, m.scratch); err != nil {
		return false, err
	}
	m.scratch = f.ArgsBytes(m.scratch)
	if err := m.write(m.Indirect, m.scratch); err != nil {
		return false, err
	}
	return m.Transforms.Generation != gen, nil
}

func (m *BufferManager) write(b *ManagedBuffer, data []byte) error {
	recreated, err := b.Write(m.Device, data)
	if recreated {
		m.Stats.Reallocations++
	}
	return err
}

func (m *BufferManager) Release() {
	for _, b := range m.buffers() {
		b.Release()
	}
}
