package render

import (
	"log/slog"

	"github.com/cockroachdb/errors"

	"github.com/townsend/engine/internal/gpu"
)

// Window is the surface target the swapchain is sized against.
type Window interface {
	FramebufferSize() (width, height int)
	Resized() bool
	ResetResized()
	// WaitEvents blocks until the platform delivers at least one event.
	WaitEvents()
}

func ChooseSurfaceFormat(formats []gpu.SurfaceFormat) (gpu.SurfaceFormat, error) {
	if len(formats) == 0 {
		return gpu.SurfaceFormat{}, errors.New("surface reports no formats")
	}
	for _, format := range formats {
		if format.Format == gpu.FormatB8G8R8A8SRGB && format.ColorSpace == gpu.ColorSpaceSRGBNonlinear {
			return format, nil
		}
	}
	return formats[0], nil
}

func ChoosePresentMode(modes []gpu.PresentMode) gpu.PresentMode {
	for _, mode := range modes {
		if mode == gpu.PresentModeMailbox {
			return mode
		}
	}
	return gpu.PresentModeFIFO
}

// ChooseExtent uses the surface's current extent, or the framebuffer size
// clamped to the surface bounds when the current extent is undefined.
func ChooseExtent(caps gpu.SurfaceCapabilities, width, height int) gpu.Extent2D {
	if caps.CurrentExtent.Width != gpu.ExtentUndefined {
		return caps.CurrentExtent
	}
	return gpu.Extent2D{
		Width:  clamp(width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

// ImageCount asks for one image more than the minimum, capped by a nonzero
// maximum.
func ImageCount(caps gpu.SurfaceCapabilities) int {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

// Swapchain is the presentable image chain and one color view per image.
type Swapchain struct {
	Handle      gpu.Swapchain
	Images      []gpu.Image
	Views       []gpu.ImageView
	Format      gpu.SurfaceFormat
	PresentMode gpu.PresentMode
	Extent      gpu.Extent2D
}

func NewSwapchain(ctx *Context, target Window) (*Swapchain, error) {
	device := ctx.Device
	support, err := device.SurfaceSupport()
	if err != nil {
		return nil, errors.Wrap(err, "query surface support")
	}
	format, err := ChooseSurfaceFormat(support.Formats)
	if err != nil {
		return nil, err
	}
	presentMode := ChoosePresentMode(support.PresentModes)
	width, height := target.FramebufferSize()
	extent := ChooseExtent(support.Capabilities, width, height)

	info := gpu.SwapchainCreateInfo{
		MinImageCount: ImageCount(support.Capabilities),
		Format:        format,
		Extent:        extent,
		PresentMode:   presentMode,
	}
	if ctx.Families.Concurrent() {
		info.QueueFamilyIndices = ctx.Families.Unique()
	}
	handle, err := device.CreateSwapchain(info)
	if err != nil {
		return nil, errors.Wrap(err, "create swapchain")
	}
	swapchain := &Swapchain{Handle: handle, Format: format, PresentMode: presentMode, Extent: extent}

	swapchain.Images, err = device.SwapchainImages(handle)
	if err != nil {
		swapchain.Destroy(device)
		return nil, errors.Wrap(err, "get swapchain images")
	}
	for i, image := range swapchain.Images {
		view, err := device.CreateImageView(gpu.ImageViewCreateInfo{
			Image:     image,
			Format:    format.Format,
			Aspect:    gpu.ImageAspectColor,
			MipLevels: 1,
		})
		if err != nil {
			swapchain.Destroy(device)
			return nil, errors.Wrapf(err, "create swapchain image view %d", i)
		}
		swapchain.Views = append(swapchain.Views, view)
	}

	ctx.Logger().Debug("created swapchain",
		slog.Int("width", extent.Width),
		slog.Int("height", extent.Height),
		slog.Int("images", len(swapchain.Images)),
		slog.String("format", format.Format.String()),
		slog.String("present_mode", presentMode.String()))
	return swapchain, nil
}

// Destroy releases the image views and then the swapchain. The device must
// be idle.
func (s *Swapchain) Destroy(device gpu.Device) {
	for _, view := range s.Views {
		device.DestroyImageView(view)
	}
	s.Views = nil
	device.DestroySwapchain(s.Handle)
}
