package render

import (
	"github.com/cockroachdb/errors"

	"github.com/townsend/engine/internal/gpu"
)

// FrameSync holds the per-slot semaphores and fences. Fences start signaled
// so the first wait on each slot returns immediately.
type FrameSync struct {
	ImageAvailable []gpu.Semaphore
	RenderFinished []gpu.Semaphore
	InFlight       []gpu.Fence
}

func NewFrameSync(device gpu.Device, framesInFlight int) (*FrameSync, error) {
	sync := &FrameSync{}
	for i := 0; i < framesInFlight; i++ {
		imageAvailable, err := device.CreateSemaphore()
		if err != nil {
			sync.Destroy(device)
			return nil, errors.Wrapf(err, "create image available semaphore %d", i)
		}
		sync.ImageAvailable = append(sync.ImageAvailable, imageAvailable)

		renderFinished, err := device.CreateSemaphore()
		if err != nil {
			sync.Destroy(device)
			return nil, errors.Wrapf(err, "create render finished semaphore %d", i)
		}
		sync.RenderFinished = append(sync.RenderFinished, renderFinished)

		fence, err := device.CreateFence(true)
		if err != nil {
			sync.Destroy(device)
			return nil, errors.Wrapf(err, "create in flight fence %d", i)
		}
		sync.InFlight = append(sync.InFlight, fence)
	}
	return sync, nil
}

func (s *FrameSync) Destroy(device gpu.Device) {
	for _, semaphore := range s.ImageAvailable {
		device.DestroySemaphore(semaphore)
	}
	for _, semaphore := range s.RenderFinished {
		device.DestroySemaphore(semaphore)
	}
	for _, fence := range s.InFlight {
		device.DestroyFence(fence)
	}
}
