package gpu

import "fmt"

type Format int32

const (
	FormatUndefined       Format = 0
	FormatR8G8B8A8UNorm   Format = 37
	FormatR8G8B8A8SRGB    Format = 43
	FormatB8G8R8A8UNorm   Format = 44
	FormatB8G8R8A8SRGB    Format = 50
	FormatR32G32SFloat    Format = 103
	FormatR32G32B32SFloat Format = 106
	FormatD32SFloat       Format = 126
	FormatD24UNormS8UInt  Format = 129
	FormatD32SFloatS8UInt Format = 130
)

var formatNames = map[Format]string{
	FormatUndefined:       "UNDEFINED",
	FormatR8G8B8A8UNorm:   "R8G8B8A8_UNORM",
	FormatR8G8B8A8SRGB:    "R8G8B8A8_SRGB",
	FormatB8G8R8A8UNorm:   "B8G8R8A8_UNORM",
	FormatB8G8R8A8SRGB:    "B8G8R8A8_SRGB",
	FormatR32G32SFloat:    "R32G32_SFLOAT",
	FormatR32G32B32SFloat: "R32G32B32_SFLOAT",
	FormatD32SFloat:       "D32_SFLOAT",
	FormatD24UNormS8UInt:  "D24_UNORM_S8_UINT",
	FormatD32SFloatS8UInt: "D32_SFLOAT_S8_UINT",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Format(%d)", int32(f))
}

type ColorSpace int32

const ColorSpaceSRGBNonlinear ColorSpace = 0

type PresentMode int32

const (
	PresentModeImmediate   PresentMode = 0
	PresentModeMailbox     PresentMode = 1
	PresentModeFIFO        PresentMode = 2
	PresentModeFIFORelaxed PresentMode = 3
)

func (m PresentMode) String() string {
	switch m {
	case PresentModeImmediate:
		return "immediate"
	case PresentModeMailbox:
		return "mailbox"
	case PresentModeFIFO:
		return "fifo"
	case PresentModeFIFORelaxed:
		return "fifo-relaxed"
	}
	return fmt.Sprintf("PresentMode(%d)", int32(m))
}

type ImageTiling int32

const (
	ImageTilingOptimal ImageTiling = 0
	ImageTilingLinear  ImageTiling = 1
)

type FormatFeatureFlags uint32

const (
	FormatFeatureSampledImage             FormatFeatureFlags = 0x0001
	FormatFeatureColorAttachment          FormatFeatureFlags = 0x0080
	FormatFeatureDepthStencilAttachment   FormatFeatureFlags = 0x0200
	FormatFeatureSampledImageFilterLinear FormatFeatureFlags = 0x1000
)

type ImageUsageFlags uint32

const (
	ImageUsageTransferSrc            ImageUsageFlags = 0x01
	ImageUsageTransferDst            ImageUsageFlags = 0x02
	ImageUsageSampled                ImageUsageFlags = 0x04
	ImageUsageColorAttachment        ImageUsageFlags = 0x10
	ImageUsageDepthStencilAttachment ImageUsageFlags = 0x20
)

type BufferUsageFlags uint32

const (
	BufferUsageTransferSrc   BufferUsageFlags = 0x01
	BufferUsageTransferDst   BufferUsageFlags = 0x02
	BufferUsageUniformBuffer BufferUsageFlags = 0x10
	BufferUsageIndexBuffer   BufferUsageFlags = 0x40
	BufferUsageVertexBuffer  BufferUsageFlags = 0x80
)

type MemoryPropertyFlags uint32

const (
	MemoryPropertyDeviceLocal  MemoryPropertyFlags = 0x1
	MemoryPropertyHostVisible  MemoryPropertyFlags = 0x2
	MemoryPropertyHostCoherent MemoryPropertyFlags = 0x4
)

type ImageAspectFlags uint32

const (
	ImageAspectColor   ImageAspectFlags = 0x1
	ImageAspectDepth   ImageAspectFlags = 0x2
	ImageAspectStencil ImageAspectFlags = 0x4
)

type ImageLayout int32

const (
	ImageLayoutUndefined                     ImageLayout = 0
	ImageLayoutColorAttachmentOptimal        ImageLayout = 2
	ImageLayoutDepthStencilAttachmentOptimal ImageLayout = 3
	ImageLayoutShaderReadOnlyOptimal         ImageLayout = 5
	ImageLayoutTransferDstOptimal            ImageLayout = 7
	ImageLayoutPresentSrc                    ImageLayout = 1000001002
)

func (l ImageLayout) String() string {
	switch l {
	case ImageLayoutUndefined:
		return "undefined"
	case ImageLayoutColorAttachmentOptimal:
		return "color-attachment-optimal"
	case ImageLayoutDepthStencilAttachmentOptimal:
		return "depth-stencil-attachment-optimal"
	case ImageLayoutShaderReadOnlyOptimal:
		return "shader-read-only-optimal"
	case ImageLayoutTransferDstOptimal:
		return "transfer-dst-optimal"
	case ImageLayoutPresentSrc:
		return "present-src"
	}
	return fmt.Sprintf("ImageLayout(%d)", int32(l))
}

type AccessFlags uint32

const (
	AccessShaderRead                  AccessFlags = 0x0020
	AccessColorAttachmentWrite        AccessFlags = 0x0100
	AccessDepthStencilAttachmentRead  AccessFlags = 0x0200
	AccessDepthStencilAttachmentWrite AccessFlags = 0x0400
	AccessTransferWrite               AccessFlags = 0x1000
)

type PipelineStageFlags uint32

const (
	PipelineStageTopOfPipe             PipelineStageFlags = 0x0001
	PipelineStageFragmentShader        PipelineStageFlags = 0x0080
	PipelineStageEarlyFragmentTests    PipelineStageFlags = 0x0100
	PipelineStageColorAttachmentOutput PipelineStageFlags = 0x0400
	PipelineStageTransfer              PipelineStageFlags = 0x1000
)

type AttachmentLoadOp int32

const (
	AttachmentLoadOpLoad     AttachmentLoadOp = 0
	AttachmentLoadOpClear    AttachmentLoadOp = 1
	AttachmentLoadOpDontCare AttachmentLoadOp = 2
)

type AttachmentStoreOp int32

const (
	AttachmentStoreOpStore    AttachmentStoreOp = 0
	AttachmentStoreOpDontCare AttachmentStoreOp = 1
)

type PrimitiveTopology int32

const PrimitiveTopologyTriangleList PrimitiveTopology = 3

type CullMode uint32

const (
	CullModeNone  CullMode = 0
	CullModeFront CullMode = 1
	CullModeBack  CullMode = 2
)

type FrontFace int32

const (
	FrontFaceCounterClockwise FrontFace = 0
	FrontFaceClockwise        FrontFace = 1
)

type CompareOp int32

const (
	CompareOpLess        CompareOp = 1
	CompareOpLessOrEqual CompareOp = 3
)

type DescriptorType int32

const (
	DescriptorTypeCombinedImageSampler DescriptorType = 1
	DescriptorTypeUniformBuffer        DescriptorType = 6
)

type ShaderStageFlags uint32

const (
	ShaderStageVertex   ShaderStageFlags = 0x01
	ShaderStageFragment ShaderStageFlags = 0x10
)
