package render

import (
	"github.com/cockroachdb/errors"

	"github.com/townsend/engine/internal/gpu"
)

// CommandExecutor owns the graphics command pool, one primary command buffer
// per frame slot, and the one-shot path used for uploads.
type CommandExecutor struct {
	ctx     *Context
	pool    gpu.CommandPool
	buffers []gpu.CommandBuffer
}

func NewCommandExecutor(ctx *Context, framesInFlight int) (*CommandExecutor, error) {
	pool, err := ctx.Device.CreateCommandPool(ctx.Families.Graphics)
	if err != nil {
		return nil, errors.Wrap(err, "create command pool")
	}
	buffers, err := ctx.Device.AllocateCommandBuffers(pool, framesInFlight)
	if err != nil {
		ctx.Device.DestroyCommandPool(pool)
		return nil, errors.Wrap(err, "allocate command buffers")
	}
	return &CommandExecutor{ctx: ctx, pool: pool, buffers: buffers}, nil
}

// Buffer returns the command buffer owned by a frame slot.
func (e *CommandExecutor) Buffer(slot int) gpu.CommandBuffer {
	return e.buffers[slot]
}

// Reset returns a frame slot's buffer to the initial state. The slot's fence
// must have been waited on first.
func (e *CommandExecutor) Reset(slot int) error {
	if slot < 0 || slot >= len(e.buffers) {
		return errors.AssertionFailedf("frame slot %d outside [0, %d)", slot, len(e.buffers))
	}
	return errors.Wrapf(e.ctx.Device.ResetCommandBuffer(e.buffers[slot]), "reset command buffer %d", slot)
}

// RunOnce records fn into a temporary command buffer, submits it to the
// graphics queue and waits for the queue to drain.
func (e *CommandExecutor) RunOnce(fn func(cb gpu.CommandBuffer) error) error {
	device := e.ctx.Device
	buffers, err := device.AllocateCommandBuffers(e.pool, 1)
	if err != nil {
		return errors.Wrap(err, "allocate one-shot command buffer")
	}
	cb := buffers[0]
	defer device.FreeCommandBuffers(e.pool, cb)

	if err := device.BeginCommandBuffer(cb, true); err != nil {
		return errors.Wrap(err, "begin one-shot command buffer")
	}
	if err := fn(cb); err != nil {
		return err
	}
	if err := device.EndCommandBuffer(cb); err != nil {
		return errors.Wrap(err, "end one-shot command buffer")
	}
	if err := device.QueueSubmit(e.ctx.GraphicsQueue, gpu.SubmitInfo{CommandBuffers: []gpu.CommandBuffer{cb}}, 0); err != nil {
		return errors.Wrap(err, "submit one-shot command buffer")
	}
	return errors.Wrap(device.QueueWaitIdle(e.ctx.GraphicsQueue), "wait for one-shot command buffer")
}

func (e *CommandExecutor) Destroy() {
	e.ctx.Device.FreeCommandBuffers(e.pool, e.buffers...)
	e.ctx.Device.DestroyCommandPool(e.pool)
}
