package gpu

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// Buffer is the part of a GPU buffer handle the arena needs.
// *wgpu.Buffer satisfies it.
type Buffer interface {
	GetSize() uint64
	Release()
}

// Device allocates and fills buffers. The production implementation wraps a
// wgpu device and its queue; tests use an in-memory fake.
type Device interface {
	CreateBuffer(label string, size uint64, usage wgpu.BufferUsage) (Buffer, error)
	WriteBuffer(buf Buffer, offset uint64, data []byte)
}

type wgpuDevice struct {
	device *wgpu.Device
	queue  *wgpu.Queue
}

// WrapDevice adapts a wgpu device for the buffer arena.
func WrapDevice(device *wgpu.Device) Device {
	return &wgpuDevice{device: device, queue: device.GetQueue()}
}

func (d *wgpuDevice) CreateBuffer(label string, size uint64, usage wgpu.BufferUsage) (Buffer, error) {
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label,
		Size:             size,
		Usage:            usage,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func (d *wgpuDevice) WriteBuffer(buf Buffer, offset uint64, data []byte) {
	d.queue.WriteBuffer(raw(buf), offset, data)
}

// raw unwraps a buffer created by a wgpu-backed Device.
func raw(b Buffer) *wgpu.Buffer {
	if b == nil {
		return nil
	}
	return b.(*wgpu.Buffer)
}
