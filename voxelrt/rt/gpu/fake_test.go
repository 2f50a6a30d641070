package gpu

import (
	"github.com/cogentcore/webgpu/wgpu"
)

type fakeBuffer struct {
	label    string
	size     uint64
	data     []byte
	released bool
}

func (b *fakeBuffer) GetSize() uint64 { return b.size }
func (b *fakeBuffer) Release()        { b.released = true }

type fakeDevice struct {
	created []*fakeBuffer
	writes  map[string]int
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{writes: map[string]int{}}
}

func (d *fakeDevice) CreateBuffer(label string, size uint64, usage wgpu.BufferUsage) (Buffer, error) {
	b := &fakeBuffer{label: label, size: size, data: make([]byte, size)}
	d.created = append(d.created, b)
	return b, nil
}

func (d *fakeDevice) WriteBuffer(buf Buffer, offset uint64, data []byte) {
	b := buf.(*fakeBuffer)
	copy(b.data[offset:], data)
	d.writes[b.label]++
}

type recordedCall struct {
	op     string
	slot   uint32
	buf    Buffer
	offset uint64
	size   uint64
	count  uint32
}

type fakePass struct {
	calls []recordedCall
}

func (p *fakePass) SetVertexBuffer(slot uint32, buf Buffer, offset, size uint64) {
	p.calls = append(p.calls, recordedCall{op: "vertex", slot: slot, buf: buf, offset: offset, size: size})
}

func (p *fakePass) MultiDrawIndirect(buf Buffer, offset uint64, count uint32) {
	p.calls = append(p.calls, recordedCall{op: "multidraw", buf: buf, offset: offset, count: count})
}
