package render

import (
	"github.com/cockroachdb/errors"

	"github.com/townsend/engine/internal/gpu"
)

// Image is a device-local image with its memory and a single view.
type Image struct {
	Handle gpu.Image
	Memory gpu.DeviceMemory
	View   gpu.ImageView
	Format gpu.Format
	Aspect gpu.ImageAspectFlags
}

func NewImage(ctx *Context, info gpu.ImageCreateInfo, aspect gpu.ImageAspectFlags) (*Image, error) {
	device := ctx.Device
	if info.MipLevels == 0 {
		info.MipLevels = 1
	}
	handle, req, err := device.CreateImage(info)
	if err != nil {
		return nil, errors.Wrap(err, "create image")
	}
	typeIndex, err := ctx.FindMemoryType(req.MemoryTypeBits, gpu.MemoryPropertyDeviceLocal)
	if err != nil {
		device.DestroyImage(handle)
		return nil, err
	}
	memory, err := device.AllocateMemory(req.Size, typeIndex)
	if err != nil {
		device.DestroyImage(handle)
		return nil, errors.Wrap(err, "allocate image memory")
	}
	if err := device.BindImageMemory(handle, memory); err != nil {
		device.DestroyImage(handle)
		device.FreeMemory(memory)
		return nil, errors.Wrap(err, "bind image memory")
	}
	view, err := device.CreateImageView(gpu.ImageViewCreateInfo{
		Image:     handle,
		Format:    info.Format,
		Aspect:    aspect,
		MipLevels: info.MipLevels,
	})
	if err != nil {
		device.DestroyImage(handle)
		device.FreeMemory(memory)
		return nil, errors.Wrap(err, "create image view")
	}
	return &Image{Handle: handle, Memory: memory, View: view, Format: info.Format, Aspect: aspect}, nil
}

func (i *Image) Destroy(device gpu.Device) {
	device.DestroyImageView(i.View)
	device.DestroyImage(i.Handle)
	device.FreeMemory(i.Memory)
}

// TransitionBarrier returns the barrier for one of the supported layout
// changes.
func TransitionBarrier(image gpu.Image, format gpu.Format, oldLayout, newLayout gpu.ImageLayout) (gpu.ImageBarrier, error) {
	barrier := gpu.ImageBarrier{
		Image:     image,
		OldLayout: oldLayout,
		NewLayout: newLayout,
		Aspect:    gpu.ImageAspectColor,
		MipLevels: 1,
	}
	if newLayout == gpu.ImageLayoutDepthStencilAttachmentOptimal {
		barrier.Aspect = gpu.ImageAspectDepth
		if HasStencilComponent(format) {
			barrier.Aspect |= gpu.ImageAspectStencil
		}
	}

	switch {
	case oldLayout == gpu.ImageLayoutUndefined && newLayout == gpu.ImageLayoutTransferDstOptimal:
		barrier.DstAccess = gpu.AccessTransferWrite
		barrier.SrcStage = gpu.PipelineStageTopOfPipe
		barrier.DstStage = gpu.PipelineStageTransfer
	case oldLayout == gpu.ImageLayoutTransferDstOptimal && newLayout == gpu.ImageLayoutShaderReadOnlyOptimal:
		barrier.SrcAccess = gpu.AccessTransferWrite
		barrier.DstAccess = gpu.AccessShaderRead
		barrier.SrcStage = gpu.PipelineStageTransfer
		barrier.DstStage = gpu.PipelineStageFragmentShader
	case oldLayout == gpu.ImageLayoutUndefined && newLayout == gpu.ImageLayoutDepthStencilAttachmentOptimal:
		barrier.DstAccess = gpu.AccessDepthStencilAttachmentRead | gpu.AccessDepthStencilAttachmentWrite
		barrier.SrcStage = gpu.PipelineStageTopOfPipe
		barrier.DstStage = gpu.PipelineStageEarlyFragmentTests
	default:
		return barrier, errors.Newf("unsupported layout transition %s -> %s", oldLayout, newLayout)
	}
	return barrier, nil
}

// TransitionLayout records and runs a one-shot layout transition.
func TransitionLayout(ctx *Context, exec *CommandExecutor, image *Image, oldLayout, newLayout gpu.ImageLayout) error {
	barrier, err := TransitionBarrier(image.Handle, image.Format, oldLayout, newLayout)
	if err != nil {
		return err
	}
	return exec.RunOnce(func(cb gpu.CommandBuffer) error {
		return errors.Wrap(ctx.Device.CmdPipelineBarrier(cb, barrier), "record layout transition")
	})
}
