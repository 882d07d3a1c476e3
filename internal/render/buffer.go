package render

import (
	"github.com/cockroachdb/errors"

	"github.com/townsend/engine/internal/gpu"
)

// Buffer is a GPU buffer with its own memory allocation.
type Buffer struct {
	Handle gpu.Buffer
	Memory gpu.DeviceMemory
	Size   int
}

func NewBuffer(ctx *Context, size int, usage gpu.BufferUsageFlags, props gpu.MemoryPropertyFlags) (*Buffer, error) {
	device := ctx.Device
	handle, req, err := device.CreateBuffer(size, usage)
	if err != nil {
		return nil, errors.Wrap(err, "create buffer")
	}
	typeIndex, err := ctx.FindMemoryType(req.MemoryTypeBits, props)
	if err != nil {
		device.DestroyBuffer(handle)
		return nil, err
	}
	memory, err := device.AllocateMemory(req.Size, typeIndex)
	if err != nil {
		device.DestroyBuffer(handle)
		return nil, errors.Wrap(err, "allocate buffer memory")
	}
	if err := device.BindBufferMemory(handle, memory); err != nil {
		device.DestroyBuffer(handle)
		device.FreeMemory(memory)
		return nil, errors.Wrap(err, "bind buffer memory")
	}
	return &Buffer{Handle: handle, Memory: memory, Size: size}, nil
}

// Write copies data into a host-visible buffer.
func (b *Buffer) Write(device gpu.Device, data []byte) error {
	if len(data) > b.Size {
		return errors.AssertionFailedf("write of %d bytes into %d byte buffer", len(data), b.Size)
	}
	mapped, err := device.MapMemory(b.Memory, 0, len(data))
	if err != nil {
		return errors.Wrap(err, "map buffer memory")
	}
	copy(mapped, data)
	device.UnmapMemory(b.Memory)
	return nil
}

func (b *Buffer) Destroy(device gpu.Device) {
	device.DestroyBuffer(b.Handle)
	device.FreeMemory(b.Memory)
}

// NewStagingBuffer returns a host-visible transfer source holding data.
func NewStagingBuffer(ctx *Context, data []byte) (*Buffer, error) {
	staging, err := NewBuffer(ctx, len(data), gpu.BufferUsageTransferSrc,
		gpu.MemoryPropertyHostVisible|gpu.MemoryPropertyHostCoherent)
	if err != nil {
		return nil, errors.Wrap(err, "create staging buffer")
	}
	if err := staging.Write(ctx.Device, data); err != nil {
		staging.Destroy(ctx.Device)
		return nil, err
	}
	return staging, nil
}

// UploadBuffer copies data into a new device-local buffer through a staging
// buffer.
func UploadBuffer(ctx *Context, exec *CommandExecutor, data []byte, usage gpu.BufferUsageFlags) (*Buffer, error) {
	staging, err := NewStagingBuffer(ctx, data)
	if err != nil {
		return nil, err
	}
	defer staging.Destroy(ctx.Device)

	buffer, err := NewBuffer(ctx, len(data), usage|gpu.BufferUsageTransferDst, gpu.MemoryPropertyDeviceLocal)
	if err != nil {
		return nil, err
	}
	err = exec.RunOnce(func(cb gpu.CommandBuffer) error {
		return errors.Wrap(ctx.Device.CmdCopyBuffer(cb, staging.Handle, buffer.Handle, len(data)), "copy buffer")
	})
	if err != nil {
		buffer.Destroy(ctx.Device)
		return nil, err
	}
	return buffer, nil
}
