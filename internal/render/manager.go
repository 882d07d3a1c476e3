package render

import (
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/loov/hrtime"

	"github.com/townsend/engine/internal/gpu"
)

type State int

const (
	StateReady State = iota
	StateRecreating
	StateMinimized
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateRecreating:
		return "recreating"
	case StateMinimized:
		return "minimized"
	}
	return "unknown"
}

type ManagerConfig struct {
	Shaders        Shaders
	Texture        *Texture
	Cache          gpu.PipelineCache
	FramesInFlight int
	// Clock drives the model animation; hrtime.Now when nil.
	Clock func() time.Duration
}

// SwapchainManager owns everything that depends on the swapchain extent and
// rebuilds it in dependency order when the surface changes.
type SwapchainManager struct {
	ctx    *Context
	exec   *CommandExecutor
	window Window
	cfg    ManagerConfig
	logger *slog.Logger

	setLayout   gpu.DescriptorSetLayout
	depthFormat gpu.Format
	descriptors *DescriptorSets
	sync        *FrameSync

	swapchain    *Swapchain
	pipeline     *Pipeline
	depth        *DepthResources
	framebuffers *FramebufferSet

	state   State
	pending bool
	start   time.Duration
}

func NewSwapchainManager(ctx *Context, exec *CommandExecutor, window Window, cfg ManagerConfig) (*SwapchainManager, error) {
	if cfg.FramesInFlight <= 0 {
		return nil, errors.AssertionFailedf("frames in flight must be positive, got %d", cfg.FramesInFlight)
	}
	if cfg.Clock == nil {
		cfg.Clock = hrtime.Now
	}
	m := &SwapchainManager{
		ctx:    ctx,
		exec:   exec,
		window: window,
		cfg:    cfg,
		logger: ctx.Logger(),
		start:  cfg.Clock(),
	}

	var err error
	if m.depthFormat, err = FindDepthFormat(ctx); err != nil {
		return nil, err
	}
	if m.setLayout, err = NewDescriptorSetLayout(ctx.Device); err != nil {
		return nil, err
	}
	if m.sync, err = NewFrameSync(ctx.Device, cfg.FramesInFlight); err != nil {
		m.Destroy()
		return nil, err
	}
	if m.descriptors, err = NewDescriptorSets(ctx, m.setLayout, cfg.Texture, cfg.FramesInFlight); err != nil {
		m.Destroy()
		return nil, err
	}
	m.waitForArea()
	if err := m.build(); err != nil {
		m.Destroy()
		return nil, err
	}
	m.state = StateReady
	return m, nil
}

func (m *SwapchainManager) build() error {
	var err error
	device := m.ctx.Device
	if m.swapchain, err = NewSwapchain(m.ctx, m.window); err != nil {
		return err
	}
	m.pipeline, err = NewPipeline(m.ctx, m.cfg.Shaders, m.swapchain.Format.Format, m.depthFormat,
		m.swapchain.Extent, m.setLayout, m.cfg.Cache)
	if err != nil {
		return err
	}
	if m.depth, err = NewDepthResources(m.ctx, m.exec, m.depthFormat, m.swapchain.Extent); err != nil {
		return err
	}
	if m.framebuffers, err = NewFramebufferSet(device, m.swapchain, m.depth, m.pipeline.RenderPass); err != nil {
		return err
	}
	return nil
}

// teardown releases the extent-dependent aggregate. Framebuffers go first
// since they reference both the swapchain views and the depth view.
func (m *SwapchainManager) teardown() {
	device := m.ctx.Device
	if m.framebuffers != nil {
		m.framebuffers.Destroy(device)
		m.framebuffers = nil
	}
	if m.depth != nil {
		m.depth.Destroy(device)
		m.depth = nil
	}
	if m.pipeline != nil {
		m.pipeline.Destroy(device)
		m.pipeline = nil
	}
	if m.swapchain != nil {
		m.swapchain.Destroy(device)
		m.swapchain = nil
	}
}

func (m *SwapchainManager) checkSlot(slot int) error {
	if slot < 0 || slot >= m.cfg.FramesInFlight {
		return errors.AssertionFailedf("frame slot %d outside [0, %d)", slot, m.cfg.FramesInFlight)
	}
	return nil
}

// WaitForFrame blocks until the GPU has finished the slot's previous
// submission.
func (m *SwapchainManager) WaitForFrame(slot int) error {
	if err := m.checkSlot(slot); err != nil {
		return err
	}
	return errors.Wrapf(m.ctx.Device.WaitForFence(m.sync.InFlight[slot]), "wait for frame %d", slot)
}

// ResetFrame unsignals the slot's fence ahead of a new submission.
func (m *SwapchainManager) ResetFrame(slot int) error {
	if err := m.checkSlot(slot); err != nil {
		return err
	}
	return errors.Wrapf(m.ctx.Device.ResetFence(m.sync.InFlight[slot]), "reset fence %d", slot)
}

// AcquireNextImage returns the index of the next presentable image. When the
// surface is out of date the swapchain is rebuilt and ok is false; the
// caller must skip this tick. A suboptimal image is used and recreation is
// left pending until after present.
func (m *SwapchainManager) AcquireNextImage(slot int) (imageIndex int, ok bool, err error) {
	if err := m.checkSlot(slot); err != nil {
		return -1, false, err
	}
	index, result, err := m.ctx.Device.AcquireNextImage(m.swapchain.Handle, m.sync.ImageAvailable[slot])
	if err != nil {
		return -1, false, errors.Wrap(err, "acquire swapchain image")
	}
	switch result {
	case gpu.ResultOutOfDate:
		m.state = StateRecreating
		return -1, false, m.RecreateSwapchain()
	case gpu.ResultSuboptimal:
		m.pending = true
	}
	return index, true, nil
}

// RecreatePending reports whether an acquire came back suboptimal since the
// last recreation.
func (m *SwapchainManager) RecreatePending() bool {
	return m.pending
}

// UpdateUniformBuffer writes the slot's transforms using the current extent.
func (m *SwapchainManager) UpdateUniformBuffer(slot int) error {
	if err := m.checkSlot(slot); err != nil {
		return err
	}
	ubo := NewUniformBufferObject(m.cfg.Clock()-m.start, m.swapchain.Extent)
	return errors.Wrapf(m.descriptors.Uniforms[slot].Write(m.ctx.Device, ubo.Bytes()), "update uniform buffer %d", slot)
}

// CompleteRenderPass records one indexed draw into framebuffer imageIndex.
// cb must already be recording and stays recording.
func (m *SwapchainManager) CompleteRenderPass(cb gpu.CommandBuffer, imageIndex, slot int,
	vertices, indices gpu.Buffer, indexCount int) error {
	if err := m.checkSlot(slot); err != nil {
		return err
	}
	if imageIndex < 0 || imageIndex >= len(m.framebuffers.Framebuffers) {
		return errors.AssertionFailedf("image index %d outside [0, %d)", imageIndex, len(m.framebuffers.Framebuffers))
	}
	device := m.ctx.Device
	err := device.CmdBeginRenderPass(cb, gpu.RenderPassBeginInfo{
		RenderPass:  m.pipeline.RenderPass,
		Framebuffer: m.framebuffers.Framebuffers[imageIndex],
		Extent:      m.swapchain.Extent,
		ClearValues: []gpu.ClearValue{
			gpu.ClearColor{0, 0, 0, 1},
			gpu.ClearDepthStencil{Depth: 1, Stencil: 0},
		},
	})
	if err != nil {
		return errors.Wrap(err, "begin render pass")
	}
	device.CmdBindPipeline(cb, m.pipeline.Handle)
	device.CmdBindVertexBuffer(cb, vertices)
	device.CmdBindIndexBuffer(cb, indices)
	device.CmdBindDescriptorSet(cb, m.pipeline.Layout, m.descriptors.Sets[slot])
	device.CmdDrawIndexed(cb, indexCount)
	device.CmdEndRenderPass(cb)
	return nil
}

// Submit queues cb to start once the slot's image is available, signalling
// render finished and the slot's fence on completion.
func (m *SwapchainManager) Submit(slot int, cb gpu.CommandBuffer) error {
	if err := m.checkSlot(slot); err != nil {
		return err
	}
	err := m.ctx.Device.QueueSubmit(m.ctx.GraphicsQueue, gpu.SubmitInfo{
		WaitSemaphores:   []gpu.Semaphore{m.sync.ImageAvailable[slot]},
		WaitStages:       []gpu.PipelineStageFlags{gpu.PipelineStageColorAttachmentOutput},
		CommandBuffers:   []gpu.CommandBuffer{cb},
		SignalSemaphores: []gpu.Semaphore{m.sync.RenderFinished[slot]},
	}, m.sync.InFlight[slot])
	return errors.Wrap(err, "submit draw command buffer")
}

// QueuePresentKHR presents imageIndex once the slot's rendering finishes.
// Out of date and suboptimal are returned as results, not errors.
func (m *SwapchainManager) QueuePresentKHR(slot, imageIndex int) (gpu.Result, error) {
	if err := m.checkSlot(slot); err != nil {
		return gpu.ResultSuccess, err
	}
	result, err := m.ctx.Device.QueuePresent(m.ctx.PresentQueue, gpu.PresentInfo{
		WaitSemaphore: m.sync.RenderFinished[slot],
		Swapchain:     m.swapchain.Handle,
		ImageIndex:    imageIndex,
	})
	if err != nil {
		return result, errors.Wrap(err, "present swapchain image")
	}
	return result, nil
}

// RecreateSwapchain waits out a zero-area window, idles the device, tears
// down the extent-dependent resources and rebuilds them.
func (m *SwapchainManager) RecreateSwapchain() error {
	m.state = StateRecreating
	m.waitForArea()
	m.state = StateRecreating

	if err := m.ctx.Device.WaitIdle(); err != nil {
		return errors.Wrap(err, "wait for device idle")
	}
	m.teardown()
	if err := m.build(); err != nil {
		return errors.Wrap(err, "recreate swapchain")
	}
	if err := m.descriptors.Write(m.ctx.Device, m.cfg.Texture); err != nil {
		return errors.Wrap(err, "recreate swapchain")
	}

	m.pending = false
	m.state = StateReady
	m.logger.Info("swapchain recreated",
		slog.Int("width", m.swapchain.Extent.Width),
		slog.Int("height", m.swapchain.Extent.Height))
	return nil
}

// waitForArea blocks on window events while the drawable has no area.
func (m *SwapchainManager) waitForArea() {
	width, height := m.window.FramebufferSize()
	for width == 0 || height == 0 {
		if m.state != StateMinimized {
			m.logger.Info("window minimized, waiting")
			m.state = StateMinimized
		}
		m.window.WaitEvents()
		width, height = m.window.FramebufferSize()
	}
}

func (m *SwapchainManager) State() State {
	return m.state
}

func (m *SwapchainManager) FramesInFlight() int {
	return m.cfg.FramesInFlight
}

func (m *SwapchainManager) Swapchain() *Swapchain {
	return m.swapchain
}

func (m *SwapchainManager) Pipeline() *Pipeline {
	return m.pipeline
}

func (m *SwapchainManager) Depth() *DepthResources {
	return m.depth
}

func (m *SwapchainManager) Framebuffers() *FramebufferSet {
	return m.framebuffers
}

func (m *SwapchainManager) Descriptors() *DescriptorSets {
	return m.descriptors
}

// Destroy releases everything the manager owns. The device must be idle.
func (m *SwapchainManager) Destroy() {
	device := m.ctx.Device
	m.teardown()
	if m.descriptors != nil {
		m.descriptors.Destroy(device)
		m.descriptors = nil
	}
	if m.sync != nil {
		m.sync.Destroy(device)
		m.sync = nil
	}
	if m.setLayout != 0 {
		device.DestroyDescriptorSetLayout(m.setLayout)
		m.setLayout = 0
	}
}
