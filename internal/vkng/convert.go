package vkng

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"

	"github.com/townsend/engine/internal/gpu"
)

// bytesToBytecode reassembles little-endian SPIR-V words.
func bytesToBytecode(b []byte) ([]uint32, error) {
	if len(b)%4 != 0 {
		return nil, errors.Newf("shader bytecode length %d is not a multiple of 4", len(b))
	}
	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteIndex := i * 4
		byteCode[i] |= uint32(b[byteIndex])
		byteCode[i] |= uint32(b[byteIndex+1]) << 8
		byteCode[i] |= uint32(b[byteIndex+2]) << 16
		byteCode[i] |= uint32(b[byteIndex+3]) << 24
	}
	return byteCode, nil
}

// toExtent maps the driver's all-ones "determined by swapchain" width onto
// gpu.ExtentUndefined.
func toExtent(width, height int) gpu.Extent2D {
	if uint32(width) == math.MaxUint32 {
		return gpu.Extent2D{Width: gpu.ExtentUndefined, Height: gpu.ExtentUndefined}
	}
	return gpu.Extent2D{Width: width, Height: height}
}

func fromExtent(e gpu.Extent2D) core1_0.Extent2D {
	return core1_0.Extent2D{Width: e.Width, Height: e.Height}
}

func toSurfaceCapabilities(caps *khr_surface.SurfaceCapabilities) gpu.SurfaceCapabilities {
	return gpu.SurfaceCapabilities{
		MinImageCount:  caps.MinImageCount,
		MaxImageCount:  caps.MaxImageCount,
		CurrentExtent:  toExtent(caps.CurrentExtent.Width, caps.CurrentExtent.Height),
		MinImageExtent: toExtent(caps.MinImageExtent.Width, caps.MinImageExtent.Height),
		MaxImageExtent: toExtent(caps.MaxImageExtent.Width, caps.MaxImageExtent.Height),
	}
}

func toSurfaceFormats(formats []khr_surface.SurfaceFormat) []gpu.SurfaceFormat {
	out := make([]gpu.SurfaceFormat, len(formats))
	for i, f := range formats {
		out[i] = gpu.SurfaceFormat{Format: gpu.Format(f.Format), ColorSpace: gpu.ColorSpace(f.ColorSpace)}
	}
	return out
}

func toPresentModes(modes []khr_surface.PresentMode) []gpu.PresentMode {
	out := make([]gpu.PresentMode, len(modes))
	for i, m := range modes {
		out[i] = gpu.PresentMode(m)
	}
	return out
}

func fromSubpass(index int) int {
	if index == gpu.SubpassExternal {
		return core1_0.SubpassExternal
	}
	return index
}

func fromRenderPass(info gpu.RenderPassCreateInfo) core1_0.RenderPassCreateInfo {
	out := core1_0.RenderPassCreateInfo{}
	for _, a := range info.Attachments {
		out.Attachments = append(out.Attachments, core1_0.AttachmentDescription{
			Format:         core1_0.Format(a.Format),
			Samples:        core1_0.Samples1,
			LoadOp:         core1_0.AttachmentLoadOp(a.LoadOp),
			StoreOp:        core1_0.AttachmentStoreOp(a.StoreOp),
			StencilLoadOp:  core1_0.AttachmentLoadOp(a.StencilLoadOp),
			StencilStoreOp: core1_0.AttachmentStoreOp(a.StencilStoreOp),
			InitialLayout:  core1_0.ImageLayout(a.InitialLayout),
			FinalLayout:    core1_0.ImageLayout(a.FinalLayout),
		})
	}
	for _, s := range info.Subpasses {
		subpass := core1_0.SubpassDescription{PipelineBindPoint: core1_0.PipelineBindPointGraphics}
		for _, ref := range s.ColorAttachments {
			subpass.ColorAttachments = append(subpass.ColorAttachments, fromAttachmentReference(ref))
		}
		if s.DepthStencilAttachment != nil {
			ref := fromAttachmentReference(*s.DepthStencilAttachment)
			subpass.DepthStencilAttachment = &ref
		}
		out.Subpasses = append(out.Subpasses, subpass)
	}
	for _, d := range info.Dependencies {
		out.SubpassDependencies = append(out.SubpassDependencies, core1_0.SubpassDependency{
			SrcSubpass:    fromSubpass(d.SrcSubpass),
			DstSubpass:    fromSubpass(d.DstSubpass),
			SrcStageMask:  core1_0.PipelineStageFlags(d.SrcStageMask),
			DstStageMask:  core1_0.PipelineStageFlags(d.DstStageMask),
			SrcAccessMask: core1_0.AccessFlags(d.SrcAccessMask),
			DstAccessMask: core1_0.AccessFlags(d.DstAccessMask),
		})
	}
	return out
}

func fromAttachmentReference(ref gpu.AttachmentReference) core1_0.AttachmentReference {
	return core1_0.AttachmentReference{Attachment: ref.Attachment, Layout: core1_0.ImageLayout(ref.Layout)}
}

func fromClearValues(values []gpu.ClearValue) ([]core1_0.ClearValue, error) {
	out := make([]core1_0.ClearValue, 0, len(values))
	for _, v := range values {
		switch v := v.(type) {
		case gpu.ClearColor:
			out = append(out, core1_0.ClearValueFloat{v[0], v[1], v[2], v[3]})
		case gpu.ClearDepthStencil:
			out = append(out, core1_0.ClearValueDepthStencil{Depth: v.Depth, Stencil: v.Stencil})
		default:
			return nil, errors.AssertionFailedf("unknown clear value %T", v)
		}
	}
	return out, nil
}
