package render

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/loov/hrtime"

	"github.com/townsend/engine/internal/gpu"
)

// Shaders holds compiled SPIR-V for the two stages.
type Shaders struct {
	Vertex   []byte
	Fragment []byte
}

// RenderPassInfo describes one subpass writing a presentable color
// attachment and a discarded depth attachment.
func RenderPassInfo(colorFormat, depthFormat gpu.Format) gpu.RenderPassCreateInfo {
	return gpu.RenderPassCreateInfo{
		Attachments: []gpu.AttachmentDescription{
			{
				Format:         colorFormat,
				LoadOp:         gpu.AttachmentLoadOpClear,
				StoreOp:        gpu.AttachmentStoreOpStore,
				StencilLoadOp:  gpu.AttachmentLoadOpDontCare,
				StencilStoreOp: gpu.AttachmentStoreOpDontCare,
				InitialLayout:  gpu.ImageLayoutUndefined,
				FinalLayout:    gpu.ImageLayoutPresentSrc,
			},
			{
				Format:         depthFormat,
				LoadOp:         gpu.AttachmentLoadOpClear,
				StoreOp:        gpu.AttachmentStoreOpDontCare,
				StencilLoadOp:  gpu.AttachmentLoadOpDontCare,
				StencilStoreOp: gpu.AttachmentStoreOpDontCare,
				InitialLayout:  gpu.ImageLayoutUndefined,
				FinalLayout:    gpu.ImageLayoutDepthStencilAttachmentOptimal,
			},
		},
		Subpasses: []gpu.SubpassDescription{
			{
				ColorAttachments: []gpu.AttachmentReference{
					{Attachment: 0, Layout: gpu.ImageLayoutColorAttachmentOptimal},
				},
				DepthStencilAttachment: &gpu.AttachmentReference{
					Attachment: 1,
					Layout:     gpu.ImageLayoutDepthStencilAttachmentOptimal,
				},
			},
		},
		Dependencies: []gpu.SubpassDependency{
			{
				SrcSubpass:    gpu.SubpassExternal,
				DstSubpass:    0,
				SrcStageMask:  gpu.PipelineStageColorAttachmentOutput | gpu.PipelineStageEarlyFragmentTests,
				DstStageMask:  gpu.PipelineStageColorAttachmentOutput | gpu.PipelineStageEarlyFragmentTests,
				DstAccessMask: gpu.AccessColorAttachmentWrite | gpu.AccessDepthStencilAttachmentWrite,
			},
		},
	}
}

// PipelineInfo fills in the fixed-function state; shader modules, layout
// and render pass are set by the caller.
func PipelineInfo(extent gpu.Extent2D, cache gpu.PipelineCache) gpu.GraphicsPipelineCreateInfo {
	stride, attributes := VertexLayout()
	return gpu.GraphicsPipelineCreateInfo{
		VertexStride:     stride,
		VertexAttributes: attributes,
		Topology:         gpu.PrimitiveTopologyTriangleList,
		CullMode:         gpu.CullModeBack,
		FrontFace:        gpu.FrontFaceCounterClockwise,
		Viewport:         extent,
		DepthTestEnable:  true,
		DepthWriteEnable: true,
		DepthCompareOp:   gpu.CompareOpLess,
		BlendEnable:      false,
		Cache:            cache,
	}
}

// Pipeline is the render pass, layout and graphics pipeline for one extent.
type Pipeline struct {
	RenderPass gpu.RenderPass
	Layout     gpu.PipelineLayout
	Handle     gpu.Pipeline
}

func NewPipeline(ctx *Context, shaders Shaders, colorFormat, depthFormat gpu.Format, extent gpu.Extent2D,
	setLayout gpu.DescriptorSetLayout, cache gpu.PipelineCache) (*Pipeline, error) {
	device := ctx.Device
	start := hrtime.Now()

	renderPass, err := device.CreateRenderPass(RenderPassInfo(colorFormat, depthFormat))
	if err != nil {
		return nil, errors.Wrap(err, "create render pass")
	}
	pipeline := &Pipeline{RenderPass: renderPass}

	pipeline.Layout, err = device.CreatePipelineLayout(setLayout)
	if err != nil {
		pipeline.Destroy(device)
		return nil, errors.Wrap(err, "create pipeline layout")
	}

	vertShader, err := device.CreateShaderModule(shaders.Vertex)
	if err != nil {
		pipeline.Destroy(device)
		return nil, errors.Wrap(err, "create vertex shader module")
	}
	defer device.DestroyShaderModule(vertShader)

	fragShader, err := device.CreateShaderModule(shaders.Fragment)
	if err != nil {
		pipeline.Destroy(device)
		return nil, errors.Wrap(err, "create fragment shader module")
	}
	defer device.DestroyShaderModule(fragShader)

	info := PipelineInfo(extent, cache)
	info.VertexShader = vertShader
	info.FragmentShader = fragShader
	info.Layout = pipeline.Layout
	info.RenderPass = renderPass

	pipeline.Handle, err = device.CreateGraphicsPipeline(info)
	if err != nil {
		pipeline.Destroy(device)
		return nil, errors.Wrap(err, "create graphics pipeline")
	}

	ctx.Logger().Debug("built graphics pipeline",
		slog.Duration("elapsed", hrtime.Since(start)),
		slog.Int("width", extent.Width),
		slog.Int("height", extent.Height))
	return pipeline, nil
}

// Destroy releases the pipeline, then its layout, then the render pass.
func (p *Pipeline) Destroy(device gpu.Device) {
	if p.Handle != 0 {
		device.DestroyPipeline(p.Handle)
	}
	if p.Layout != 0 {
		device.DestroyPipelineLayout(p.Layout)
	}
	device.DestroyRenderPass(p.RenderPass)
}
