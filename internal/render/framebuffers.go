package render

import (
	"github.com/cockroachdb/errors"

	"github.com/townsend/engine/internal/gpu"
)

// FramebufferSet holds one framebuffer per swapchain image, indexed by the
// image index returned from acquire.
type FramebufferSet struct {
	Framebuffers []gpu.Framebuffer
}

func NewFramebufferSet(device gpu.Device, swapchain *Swapchain, depth *DepthResources, renderPass gpu.RenderPass) (*FramebufferSet, error) {
	set := &FramebufferSet{Framebuffers: make([]gpu.Framebuffer, 0, len(swapchain.Views))}
	for i, view := range swapchain.Views {
		framebuffer, err := device.CreateFramebuffer(gpu.FramebufferCreateInfo{
			RenderPass:  renderPass,
			Attachments: []gpu.ImageView{view, depth.View},
			Extent:      swapchain.Extent,
		})
		if err != nil {
			set.Destroy(device)
			return nil, errors.Wrapf(err, "create framebuffer %d", i)
		}
		set.Framebuffers = append(set.Framebuffers, framebuffer)
	}
	return set, nil
}

func (s *FramebufferSet) Destroy(device gpu.Device) {
	for _, framebuffer := range s.Framebuffers {
		device.DestroyFramebuffer(framebuffer)
	}
	s.Framebuffers = nil
}
