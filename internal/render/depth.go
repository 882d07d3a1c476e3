package render

import (
	"github.com/cockroachdb/errors"

	"github.com/townsend/engine/internal/gpu"
)

// DepthFormatCandidates are probed in order; the first supported one wins.
var DepthFormatCandidates = []gpu.Format{
	gpu.FormatD32SFloat,
	gpu.FormatD32SFloatS8UInt,
	gpu.FormatD24UNormS8UInt,
}

func FindDepthFormat(ctx *Context) (gpu.Format, error) {
	format, err := ctx.FindSupportedFormat(DepthFormatCandidates, gpu.ImageTilingOptimal, gpu.FormatFeatureDepthStencilAttachment)
	return format, errors.Wrap(err, "find depth format")
}

func HasStencilComponent(format gpu.Format) bool {
	return format == gpu.FormatD32SFloatS8UInt || format == gpu.FormatD24UNormS8UInt
}

// DepthResources is the depth attachment sized to the swapchain extent.
type DepthResources struct {
	*Image
	Extent gpu.Extent2D
}

func NewDepthResources(ctx *Context, exec *CommandExecutor, format gpu.Format, extent gpu.Extent2D) (*DepthResources, error) {
	image, err := NewImage(ctx, gpu.ImageCreateInfo{
		Width:  extent.Width,
		Height: extent.Height,
		Format: format,
		Tiling: gpu.ImageTilingOptimal,
		Usage:  gpu.ImageUsageDepthStencilAttachment,
	}, gpu.ImageAspectDepth)
	if err != nil {
		return nil, errors.Wrap(err, "create depth image")
	}
	err = TransitionLayout(ctx, exec, image, gpu.ImageLayoutUndefined, gpu.ImageLayoutDepthStencilAttachmentOptimal)
	if err != nil {
		image.Destroy(ctx.Device)
		return nil, errors.Wrap(err, "transition depth image")
	}
	return &DepthResources{Image: image, Extent: extent}, nil
}
