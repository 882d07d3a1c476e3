// Package gpu describes the subset of the graphics API the renderer depends on.
//
// Handles are opaque; zero is the null handle. Enumerations carry the numeric
// values of the underlying Vulkan enums so backends can convert by value.
package gpu

import (
	"github.com/google/uuid"
)

type Handle uint64

type (
	Queue               Handle
	Swapchain           Handle
	Image               Handle
	ImageView           Handle
	DeviceMemory        Handle
	Buffer              Handle
	Sampler             Handle
	ShaderModule        Handle
	RenderPass          Handle
	PipelineLayout      Handle
	Pipeline            Handle
	PipelineCache       Handle
	Framebuffer         Handle
	DescriptorSetLayout Handle
	DescriptorPool      Handle
	DescriptorSet       Handle
	CommandPool         Handle
	CommandBuffer       Handle
	Semaphore           Handle
	Fence               Handle
)

// Result is the outcome of an acquire or present call that did not fail.
type Result int

const (
	ResultSuccess Result = iota
	ResultSuboptimal
	ResultOutOfDate
)

func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "success"
	case ResultSuboptimal:
		return "suboptimal"
	case ResultOutOfDate:
		return "out of date"
	}
	return "unknown"
}

type Extent2D struct {
	Width  int
	Height int
}

// ExtentUndefined is reported in SurfaceCapabilities.CurrentExtent when the
// surface size is determined by the swapchain.
const ExtentUndefined = -1

type QueueFamily struct {
	Graphics bool
	Present  bool
}

type Features struct {
	SamplerAnisotropy bool
}

type Limits struct {
	MaxSamplerAnisotropy float32
}

type MemoryType struct {
	PropertyFlags MemoryPropertyFlags
}

type MemoryRequirements struct {
	Size           int
	MemoryTypeBits uint32
}

type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

type SurfaceCapabilities struct {
	MinImageCount  int
	MaxImageCount  int
	CurrentExtent  Extent2D
	MinImageExtent Extent2D
	MaxImageExtent Extent2D
}

type SurfaceSupport struct {
	Capabilities SurfaceCapabilities
	Formats      []SurfaceFormat
	PresentModes []PresentMode
}

// PhysicalDevice is a non-owning description of an adapter, captured once at
// enumeration time.
type PhysicalDevice struct {
	Handle            Handle
	Name              string
	VendorID          uint32
	DeviceID          uint32
	PipelineCacheUUID uuid.UUID

	QueueFamilies []QueueFamily
	Extensions    map[string]bool
	Features      Features
	Limits        Limits
	MemoryTypes   []MemoryType
	Surface       SurfaceSupport
}

type FormatProperties struct {
	LinearTilingFeatures  FormatFeatureFlags
	OptimalTilingFeatures FormatFeatureFlags
}

type DeviceCreateInfo struct {
	QueueFamilies []int
	Extensions    []string
	Features      Features
}

type SwapchainCreateInfo struct {
	MinImageCount      int
	Format             SurfaceFormat
	Extent             Extent2D
	PresentMode        PresentMode
	QueueFamilyIndices []int
}

// Concurrent reports whether images are shared between queue families.
func (i SwapchainCreateInfo) Concurrent() bool {
	return len(i.QueueFamilyIndices) > 1
}

type ImageCreateInfo struct {
	Width     int
	Height    int
	MipLevels int
	Format    Format
	Tiling    ImageTiling
	Usage     ImageUsageFlags
}

type ImageViewCreateInfo struct {
	Image     Image
	Format    Format
	Aspect    ImageAspectFlags
	MipLevels int
}

type ImageBarrier struct {
	Image     Image
	OldLayout ImageLayout
	NewLayout ImageLayout
	Aspect    ImageAspectFlags
	MipLevels int

	SrcAccess AccessFlags
	DstAccess AccessFlags
	SrcStage  PipelineStageFlags
	DstStage  PipelineStageFlags
}

type SamplerCreateInfo struct {
	AnisotropyEnable bool
	MaxAnisotropy    float32
	MaxLod           float32
}

type AttachmentDescription struct {
	Format         Format
	LoadOp         AttachmentLoadOp
	StoreOp        AttachmentStoreOp
	StencilLoadOp  AttachmentLoadOp
	StencilStoreOp AttachmentStoreOp
	InitialLayout  ImageLayout
	FinalLayout    ImageLayout
}

type AttachmentReference struct {
	Attachment int
	Layout     ImageLayout
}

type SubpassDescription struct {
	ColorAttachments       []AttachmentReference
	DepthStencilAttachment *AttachmentReference
}

// SubpassExternal refers to the implicit subpass outside the render pass.
const SubpassExternal = -1

type SubpassDependency struct {
	SrcSubpass    int
	DstSubpass    int
	SrcStageMask  PipelineStageFlags
	DstStageMask  PipelineStageFlags
	SrcAccessMask AccessFlags
	DstAccessMask AccessFlags
}

type RenderPassCreateInfo struct {
	Attachments  []AttachmentDescription
	Subpasses    []SubpassDescription
	Dependencies []SubpassDependency
}

type VertexAttribute struct {
	Location int
	Format   Format
	Offset   int
}

type GraphicsPipelineCreateInfo struct {
	VertexShader   ShaderModule
	FragmentShader ShaderModule

	VertexStride     int
	VertexAttributes []VertexAttribute

	Topology  PrimitiveTopology
	CullMode  CullMode
	FrontFace FrontFace
	Viewport  Extent2D

	DepthTestEnable  bool
	DepthWriteEnable bool
	DepthCompareOp   CompareOp
	BlendEnable      bool

	Layout     PipelineLayout
	RenderPass RenderPass
	Cache      PipelineCache
}

type FramebufferCreateInfo struct {
	RenderPass  RenderPass
	Attachments []ImageView
	Extent      Extent2D
}

type DescriptorSetLayoutBinding struct {
	Binding int
	Type    DescriptorType
	Count   int
	Stages  ShaderStageFlags
}

type DescriptorPoolSize struct {
	Type  DescriptorType
	Count int
}

type DescriptorBufferInfo struct {
	Buffer Buffer
	Offset int
	Range  int
}

type DescriptorImageInfo struct {
	View    ImageView
	Sampler Sampler
	Layout  ImageLayout
}

type WriteDescriptorSet struct {
	Set     DescriptorSet
	Binding int
	Type    DescriptorType
	Buffer  *DescriptorBufferInfo
	Image   *DescriptorImageInfo
}

// ClearValue is either a ClearColor or a ClearDepthStencil.
type ClearValue interface {
	isClearValue()
}

type ClearColor [4]float32

type ClearDepthStencil struct {
	Depth   float32
	Stencil uint32
}

func (ClearColor) isClearValue()        {}
func (ClearDepthStencil) isClearValue() {}

type RenderPassBeginInfo struct {
	RenderPass  RenderPass
	Framebuffer Framebuffer
	Extent      Extent2D
	ClearValues []ClearValue
}

type SubmitInfo struct {
	WaitSemaphores   []Semaphore
	WaitStages       []PipelineStageFlags
	CommandBuffers   []CommandBuffer
	SignalSemaphores []Semaphore
}

type PresentInfo struct {
	WaitSemaphore Semaphore
	Swapchain     Swapchain
	ImageIndex    int
}
