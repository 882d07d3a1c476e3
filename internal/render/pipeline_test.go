package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/townsend/engine/internal/gpu"
)

func TestRenderPassInfo(t *testing.T) {
	info := RenderPassInfo(gpu.FormatB8G8R8A8SRGB, gpu.FormatD32SFloat)

	require.Len(t, info.Attachments, 2)
	color, depth := info.Attachments[0], info.Attachments[1]
	assert.Equal(t, gpu.FormatB8G8R8A8SRGB, color.Format)
	assert.Equal(t, gpu.AttachmentLoadOpClear, color.LoadOp)
	assert.Equal(t, gpu.AttachmentStoreOpStore, color.StoreOp)
	assert.Equal(t, gpu.ImageLayoutPresentSrc, color.FinalLayout)
	assert.Equal(t, gpu.FormatD32SFloat, depth.Format)
	assert.Equal(t, gpu.AttachmentStoreOpDontCare, depth.StoreOp)
	assert.Equal(t, gpu.ImageLayoutDepthStencilAttachmentOptimal, depth.FinalLayout)

	require.Len(t, info.Subpasses, 1)
	require.NotNil(t, info.Subpasses[0].DepthStencilAttachment)
	assert.Equal(t, 1, info.Subpasses[0].DepthStencilAttachment.Attachment)

	require.Len(t, info.Dependencies, 1)
	dep := info.Dependencies[0]
	assert.Equal(t, gpu.SubpassExternal, dep.SrcSubpass)
	assert.Equal(t, 0, dep.DstSubpass)
	assert.Equal(t, gpu.PipelineStageColorAttachmentOutput|gpu.PipelineStageEarlyFragmentTests, dep.SrcStageMask)
	assert.Equal(t, gpu.AccessColorAttachmentWrite|gpu.AccessDepthStencilAttachmentWrite, dep.DstAccessMask)
}

func TestPipelineInfo(t *testing.T) {
	info := PipelineInfo(gpu.Extent2D{Width: 640, Height: 480}, 42)

	assert.Equal(t, gpu.Extent2D{Width: 640, Height: 480}, info.Viewport)
	assert.Equal(t, gpu.PipelineCache(42), info.Cache)
	assert.Equal(t, gpu.CullModeBack, info.CullMode)
	assert.Equal(t, gpu.FrontFaceCounterClockwise, info.FrontFace)
	assert.True(t, info.DepthTestEnable)
	assert.True(t, info.DepthWriteEnable)
	assert.Equal(t, gpu.CompareOpLess, info.DepthCompareOp)
	assert.False(t, info.BlendEnable)
}

func TestVertexLayout(t *testing.T) {
	stride, attributes := VertexLayout()
	assert.Equal(t, 32, stride)
	assert.Equal(t, []gpu.VertexAttribute{
		{Location: 0, Format: gpu.FormatR32G32B32SFloat, Offset: 0},
		{Location: 1, Format: gpu.FormatR32G32B32SFloat, Offset: 12},
		{Location: 2, Format: gpu.FormatR32G32SFloat, Offset: 24},
	}, attributes)
}

func TestNewPipelineReleasesShaderModules(t *testing.T) {
	ctx, device := newTestContext(t)
	layout, err := NewDescriptorSetLayout(device)
	require.NoError(t, err)

	pipeline, err := NewPipeline(ctx, Shaders{Vertex: []byte{1, 2, 3, 4}, Fragment: []byte{5, 6, 7, 8}},
		gpu.FormatB8G8R8A8SRGB, gpu.FormatD32SFloat, gpu.Extent2D{Width: 800, Height: 600}, layout, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, device.Count("CreateShaderModule"))
	assert.Zero(t, device.Live("shader module"))
	assert.Equal(t, 1, device.Live("pipeline"))
	require.Len(t, device.PipelineInfos, 1)
	assert.Equal(t, pipeline.RenderPass, device.PipelineInfos[0].RenderPass)
	assert.Equal(t, pipeline.Layout, device.PipelineInfos[0].Layout)

	device.Reset()
	pipeline.Destroy(device)
	assert.Equal(t, []string{"DestroyPipeline", "DestroyPipelineLayout", "DestroyRenderPass"}, device.Names())
}

func TestNewPipelineCleansUpOnFailure(t *testing.T) {
	ctx, device := newTestContext(t)
	device.Fail["CreateGraphicsPipeline"] = assert.AnError

	_, err := NewPipeline(ctx, Shaders{Vertex: []byte{1, 2, 3, 4}, Fragment: []byte{5, 6, 7, 8}},
		gpu.FormatB8G8R8A8SRGB, gpu.FormatD32SFloat, gpu.Extent2D{Width: 800, Height: 600}, 0, 0)
	require.ErrorIs(t, err, assert.AnError)
	assert.Zero(t, device.Live("render pass"))
	assert.Zero(t, device.Live("pipeline layout"))
	assert.Zero(t, device.Live("shader module"))
}
