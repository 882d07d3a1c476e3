package render

import (
	"github.com/cockroachdb/errors"

	"github.com/townsend/engine/internal/gpu"
)

// Renderer runs one acquire, record, submit, present cycle per DrawFrame.
type Renderer struct {
	device  gpu.Device
	manager *SwapchainManager
	exec    *CommandExecutor
	window  Window
	mesh    *Mesh

	frame int
}

func NewRenderer(ctx *Context, manager *SwapchainManager, exec *CommandExecutor, window Window, mesh *Mesh) *Renderer {
	return &Renderer{device: ctx.Device, manager: manager, exec: exec, window: window, mesh: mesh}
}

// Frame returns the frame slot the next DrawFrame will use.
func (r *Renderer) Frame() int {
	return r.frame
}

func (r *Renderer) DrawFrame() error {
	slot := r.frame
	if err := r.manager.WaitForFrame(slot); err != nil {
		return err
	}

	imageIndex, ok, err := r.manager.AcquireNextImage(slot)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	if err := r.manager.UpdateUniformBuffer(slot); err != nil {
		return err
	}
	if err := r.manager.ResetFrame(slot); err != nil {
		return err
	}
	if err := r.record(slot, imageIndex); err != nil {
		return err
	}
	if err := r.manager.Submit(slot, r.exec.Buffer(slot)); err != nil {
		return err
	}

	result, err := r.manager.QueuePresentKHR(slot, imageIndex)
	if err != nil {
		return err
	}
	// Only now that present has returned is it safe to replace semaphores
	// and images it referenced.
	resized := r.window.Resized()
	if result != gpu.ResultSuccess || resized || r.manager.RecreatePending() {
		if resized {
			r.window.ResetResized()
		}
		if err := r.manager.RecreateSwapchain(); err != nil {
			return err
		}
	}

	r.frame = (r.frame + 1) % r.manager.FramesInFlight()
	return nil
}

func (r *Renderer) record(slot, imageIndex int) error {
	if err := r.exec.Reset(slot); err != nil {
		return err
	}
	cb := r.exec.Buffer(slot)
	if err := r.device.BeginCommandBuffer(cb, false); err != nil {
		return errors.Wrap(err, "begin command buffer")
	}
	err := r.manager.CompleteRenderPass(cb, imageIndex, slot, r.mesh.Vertices.Handle, r.mesh.Indices.Handle, r.mesh.IndexCount)
	if err != nil {
		return err
	}
	return errors.Wrap(r.device.EndCommandBuffer(cb), "end command buffer")
}
