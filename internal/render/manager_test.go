package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/townsend/engine/internal/gpu"
	"github.com/townsend/engine/internal/gpu/gputest"
)

func TestManagerBuildsOneFramebufferPerImage(t *testing.T) {
	h := newHarness(t, 2)

	swapchain := h.manager.Swapchain()
	assert.Len(t, swapchain.Images, 3)
	assert.Len(t, swapchain.Views, len(swapchain.Images))
	assert.Len(t, h.manager.Framebuffers().Framebuffers, len(swapchain.Images))
	assert.Equal(t, StateReady, h.manager.State())
	assert.Equal(t, swapchain.Extent, h.manager.Depth().Extent)

	for i, info := range h.device.FramebufferInfo {
		assert.Equal(t, []gpu.ImageView{swapchain.Views[i], h.manager.Depth().View}, info.Attachments)
	}
	assert.Len(t, h.manager.Descriptors().Sets, 2)
	assert.Len(t, h.device.Writes, 4)
}

func TestNewSwapchainManagerRejectsZeroFrames(t *testing.T) {
	ctx, _ := newTestContext(t)
	_, err := NewSwapchainManager(ctx, nil, gputest.NewWindow(800, 600), ManagerConfig{})
	assert.Error(t, err)
}

func TestDrawFrameOrdersSubmission(t *testing.T) {
	h := newHarness(t, 2)
	fence := h.manager.sync.InFlight[0]
	h.device.Reset()

	require.NoError(t, h.renderer.DrawFrame())

	wait := h.device.Index(0, "WaitForFence", fence)
	acquire := h.device.Index(0, "AcquireNextImage", nil)
	reset := h.device.Index(0, "ResetFence", fence)
	record := h.device.Index(0, "ResetCommandBuffer", nil)
	submit := h.device.Index(0, "QueueSubmit", fence)
	present := h.device.Index(0, "QueuePresent", nil)
	for _, i := range []int{wait, acquire, reset, record, submit, present} {
		require.NotEqual(t, -1, i)
	}
	assert.Less(t, wait, acquire)
	assert.Less(t, acquire, reset)
	assert.Less(t, reset, record)
	assert.Less(t, record, submit)
	assert.Less(t, submit, present)

	require.Len(t, h.device.Submits, 1)
	submitted := h.device.Submits[0]
	assert.Equal(t, []gpu.Semaphore{h.manager.sync.ImageAvailable[0]}, submitted.WaitSemaphores)
	assert.Equal(t, []gpu.PipelineStageFlags{gpu.PipelineStageColorAttachmentOutput}, submitted.WaitStages)
	assert.Equal(t, []gpu.Semaphore{h.manager.sync.RenderFinished[0]}, submitted.SignalSemaphores)
	assert.Equal(t, h.manager.sync.RenderFinished[0], h.device.PresentInfos[0].WaitSemaphore)

	require.Len(t, h.device.RenderPassBegin, 1)
	begin := h.device.RenderPassBegin[0]
	assert.Equal(t, []gpu.ClearValue{
		gpu.ClearColor{0, 0, 0, 1},
		gpu.ClearDepthStencil{Depth: 1, Stencil: 0},
	}, begin.ClearValues)
	assert.Equal(t, h.manager.Framebuffers().Framebuffers[0], begin.Framebuffer)
	assert.Equal(t, 1, h.device.Index(0, "CmdDrawIndexed", nil)-h.device.Index(0, "CmdBindDescriptorSet", nil))

	assert.Equal(t, 1, h.renderer.Frame())
	assert.Zero(t, h.device.Count("CreateSwapchain"))
}

func TestDrawFrameWaitsForSlotBeforeReuse(t *testing.T) {
	h := newHarness(t, 2)
	fence0 := h.manager.sync.InFlight[0]
	h.device.Reset()

	for i := 0; i < 3; i++ {
		require.NoError(t, h.renderer.DrawFrame())
	}
	assert.Equal(t, 1, h.renderer.Frame())

	firstSubmit := h.device.Index(0, "QueueSubmit", fence0)
	secondWait := h.device.Index(firstSubmit, "WaitForFence", fence0)
	secondReset := h.device.Index(firstSubmit, "ResetFence", fence0)
	secondRecord := h.device.Index(firstSubmit, "ResetCommandBuffer", h.exec.Buffer(0))
	require.NotEqual(t, -1, secondWait)
	assert.Less(t, secondWait, secondReset)
	assert.Less(t, secondWait, secondRecord)

	assert.Equal(t, 3, h.device.Count("QueueSubmit"))
	assert.Equal(t, 3, h.device.Count("QueuePresent"))
}

func TestDrawFrameSkipsTickWhenAcquireIsOutOfDate(t *testing.T) {
	h := newHarness(t, 2)
	h.device.Acquires = []gputest.AcquireResult{{Result: gpu.ResultOutOfDate}}
	h.device.Reset()

	require.NoError(t, h.renderer.DrawFrame())
	assert.Equal(t, 1, h.device.Count("CreateSwapchain"))
	assert.Equal(t, 1, h.device.Count("QueueSubmit"), "only the depth transition is submitted")
	assert.Zero(t, h.device.FencedSubmits(), "no frame is submitted")
	assert.Zero(t, h.device.Count("QueuePresent"))
	assert.Zero(t, h.device.Count("ResetFence"), "the slot fence stays signaled")
	assert.Equal(t, 0, h.renderer.Frame())
	assert.Equal(t, StateReady, h.manager.State())

	// The next tick draws normally into the rebuilt swapchain.
	h.device.Reset()
	require.NoError(t, h.renderer.DrawFrame())
	assert.Equal(t, 1, h.device.FencedSubmits())
	assert.Equal(t, 1, h.device.Count("QueuePresent"))
	assert.Equal(t, []gpu.Semaphore{h.manager.sync.ImageAvailable[0]}, h.device.Submits[0].WaitSemaphores)
	assert.Equal(t, 1, h.renderer.Frame())
}

func TestDrawFrameRecreatesAfterSuboptimalPresent(t *testing.T) {
	for _, result := range []gpu.Result{gpu.ResultSuboptimal, gpu.ResultOutOfDate} {
		t.Run(result.String(), func(t *testing.T) {
			h := newHarness(t, 2)
			h.device.Presents = []gputest.PresentResult{{Result: result}}
			h.device.Reset()

			require.NoError(t, h.renderer.DrawFrame())
			present := h.device.Index(0, "QueuePresent", nil)
			recreate := h.device.Index(0, "CreateSwapchain", nil)
			require.NotEqual(t, -1, recreate)
			assert.Less(t, present, recreate)
			assert.Equal(t, 1, h.renderer.Frame())
			assert.Equal(t, StateReady, h.manager.State())
		})
	}
}

func TestDrawFrameDefersSuboptimalAcquireUntilAfterPresent(t *testing.T) {
	h := newHarness(t, 2)
	h.device.Acquires = []gputest.AcquireResult{{Index: 1, Result: gpu.ResultSuboptimal}}
	h.device.Reset()

	require.NoError(t, h.renderer.DrawFrame())
	present := h.device.Index(0, "QueuePresent", nil)
	recreate := h.device.Index(0, "CreateSwapchain", nil)
	require.NotEqual(t, -1, present)
	require.NotEqual(t, -1, recreate)
	assert.Less(t, present, recreate)
	assert.Equal(t, 1, h.device.PresentInfos[0].ImageIndex)
	assert.False(t, h.manager.RecreatePending())

	h.device.Reset()
	require.NoError(t, h.renderer.DrawFrame())
	assert.Zero(t, h.device.Count("CreateSwapchain"), "pending flag is cleared by recreation")
}

func TestDrawFrameHonorsResizeFlag(t *testing.T) {
	h := newHarness(t, 2)
	h.window.Flag = true
	h.device.Reset()

	require.NoError(t, h.renderer.DrawFrame())
	assert.Equal(t, 1, h.device.Count("CreateSwapchain"))
	assert.False(t, h.window.Flag)
	assert.Equal(t, 1, h.window.Resets)

	h.device.Reset()
	require.NoError(t, h.renderer.DrawFrame())
	assert.Zero(t, h.device.Count("CreateSwapchain"))
}

func TestRecreateSwapchainWaitsWhileMinimized(t *testing.T) {
	h := newHarness(t, 2)
	h.device.Support.Capabilities.CurrentExtent = gpu.Extent2D{Width: gpu.ExtentUndefined, Height: gpu.ExtentUndefined}
	h.window.SetSizes([2]int{0, 0}, [2]int{0, 0}, [2]int{1024, 768})

	var states []State
	var idleDuringWait bool
	h.window.OnWait = func() {
		states = append(states, h.manager.State())
		idleDuringWait = idleDuringWait || h.device.Count("WaitIdle") > 0
	}
	h.device.Reset()

	require.NoError(t, h.manager.RecreateSwapchain())
	assert.Equal(t, 2, h.window.Waits)
	assert.Equal(t, []State{StateMinimized, StateMinimized}, states)
	assert.False(t, idleDuringWait, "nothing is torn down while the window has no area")
	assert.Equal(t, gpu.Extent2D{Width: 1024, Height: 768}, h.manager.Swapchain().Extent)
	assert.Equal(t, gpu.Extent2D{Width: 1024, Height: 768}, h.manager.Depth().Extent)
	assert.Equal(t, gpu.Extent2D{Width: 1024, Height: 768}, h.device.PipelineInfos[len(h.device.PipelineInfos)-1].Viewport)
	assert.Equal(t, StateReady, h.manager.State())
}

func TestNewSwapchainManagerWaitsWhileMinimized(t *testing.T) {
	ctx, device := newTestContext(t)
	device.Support.Capabilities.CurrentExtent = gpu.Extent2D{Width: gpu.ExtentUndefined, Height: gpu.ExtentUndefined}
	exec, err := NewCommandExecutor(ctx, 2)
	require.NoError(t, err)
	texture, err := NewTexture(ctx, exec, testPixels())
	require.NoError(t, err)

	window := gputest.NewWindow(0, 0)
	window.SetSizes([2]int{0, 0}, [2]int{640, 480})
	var builtDuringWait bool
	window.OnWait = func() {
		builtDuringWait = builtDuringWait || device.Count("CreateSwapchain") > 0
	}

	manager, err := NewSwapchainManager(ctx, exec, window, ManagerConfig{
		Shaders:        Shaders{Vertex: []byte{3, 2, 35, 7}, Fragment: []byte{3, 2, 35, 7}},
		Texture:        texture,
		FramesInFlight: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, window.Waits)
	assert.False(t, builtDuringWait)
	assert.Equal(t, gpu.Extent2D{Width: 640, Height: 480}, manager.Swapchain().Extent)
	assert.Equal(t, gpu.Extent2D{Width: 640, Height: 480}, manager.Depth().Extent)
	assert.Equal(t, StateReady, manager.State())
}

func TestRecreateSwapchainOrder(t *testing.T) {
	h := newHarness(t, 2)
	oldSwapchain := h.manager.Swapchain().Handle
	oldPipeline := h.manager.Pipeline().Handle
	oldDepth := h.manager.Depth().Handle
	h.device.Reset()

	require.NoError(t, h.manager.RecreateSwapchain())

	order := []int{
		h.device.Index(0, "WaitIdle", nil),
		h.device.Index(0, "DestroyFramebuffer", nil),
		h.device.Index(0, "DestroyImage", oldDepth),
		h.device.Index(0, "DestroyPipeline", oldPipeline),
		h.device.Index(0, "DestroySwapchain", oldSwapchain),
		h.device.Index(0, "CreateSwapchain", nil),
		h.device.Index(0, "CreateGraphicsPipeline", nil),
		h.device.Index(0, "CreateImage", nil),
		h.device.Index(0, "CreateFramebuffer", nil),
		h.device.Index(0, "UpdateDescriptorSets", nil),
	}
	for i := range order {
		require.NotEqual(t, -1, order[i], "step %d missing", i)
		if i > 0 {
			assert.Less(t, order[i-1], order[i], "step %d out of order", i)
		}
	}
	assert.Equal(t, 3, h.device.Count("DestroyFramebuffer"))
	assert.Equal(t, 3, h.device.Count("CreateFramebuffer"))
}

func TestRecreateSwapchainIsRepeatable(t *testing.T) {
	h := newHarness(t, 2)
	kinds := []string{"swapchain", "image view", "image", "memory", "pipeline", "pipeline layout",
		"render pass", "framebuffer", "descriptor pool", "buffer", "semaphore", "fence"}
	before := map[string]int{}
	for _, kind := range kinds {
		before[kind] = h.device.Live(kind)
	}
	sets := h.manager.Descriptors().Sets

	for i := 0; i < 3; i++ {
		require.NoError(t, h.manager.RecreateSwapchain())
	}
	for _, kind := range kinds {
		assert.Equal(t, before[kind], h.device.Live(kind), kind)
	}
	assert.Equal(t, sets, h.manager.Descriptors().Sets, "descriptor sets survive recreation")
	assert.Equal(t, 1, h.device.Live("swapchain"))
}

func TestManagerRejectsBadIndices(t *testing.T) {
	h := newHarness(t, 2)
	cb := h.exec.Buffer(0)

	assert.Error(t, h.manager.WaitForFrame(2))
	assert.Error(t, h.manager.ResetFrame(-1))
	_, _, err := h.manager.AcquireNextImage(5)
	assert.Error(t, err)
	assert.Error(t, h.manager.UpdateUniformBuffer(2))
	assert.Error(t, h.manager.Submit(2, cb))
	_, err = h.manager.QueuePresentKHR(2, 0)
	assert.Error(t, err)

	err = h.manager.CompleteRenderPass(cb, 3, 0, h.mesh.Vertices.Handle, h.mesh.Indices.Handle, h.mesh.IndexCount)
	assert.Error(t, err)
	err = h.manager.CompleteRenderPass(cb, 0, 2, h.mesh.Vertices.Handle, h.mesh.Indices.Handle, h.mesh.IndexCount)
	assert.Error(t, err)
}

func TestDrawFramePropagatesDeviceErrors(t *testing.T) {
	h := newHarness(t, 2)
	h.device.Acquires = []gputest.AcquireResult{{Err: assert.AnError}}
	assert.ErrorIs(t, h.renderer.DrawFrame(), assert.AnError)

	h.device.Presents = []gputest.PresentResult{{Err: assert.AnError}}
	assert.ErrorIs(t, h.renderer.DrawFrame(), assert.AnError)
}

func TestUpdateUniformBufferUsesCurrentExtent(t *testing.T) {
	h := newHarness(t, 2)
	require.NoError(t, h.manager.UpdateUniformBuffer(1))

	want := NewUniformBufferObject(0, h.manager.Swapchain().Extent).Bytes()
	assert.Equal(t, want, h.device.Memory(h.manager.Descriptors().Uniforms[1].Memory))
}

func TestTeardownReleasesEverything(t *testing.T) {
	h := newHarness(t, 3)
	require.NoError(t, h.renderer.DrawFrame())
	require.NoError(t, h.manager.RecreateSwapchain())

	h.destroy()
	for _, kind := range []string{"swapchain", "image", "image view", "memory", "buffer", "sampler",
		"shader module", "render pass", "pipeline layout", "pipeline", "framebuffer",
		"descriptor set layout", "descriptor pool", "command pool", "command buffer", "semaphore", "fence"} {
		assert.Zero(t, h.device.Live(kind), kind)
	}
	assert.True(t, h.device.Destroyed())
}
