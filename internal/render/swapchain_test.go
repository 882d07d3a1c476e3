package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/townsend/engine/internal/gpu"
	"github.com/townsend/engine/internal/gpu/gputest"
)

func TestChooseSurfaceFormat(t *testing.T) {
	preferred := gpu.SurfaceFormat{Format: gpu.FormatB8G8R8A8SRGB, ColorSpace: gpu.ColorSpaceSRGBNonlinear}
	other := gpu.SurfaceFormat{Format: gpu.FormatR8G8B8A8UNorm, ColorSpace: gpu.ColorSpaceSRGBNonlinear}

	got, err := ChooseSurfaceFormat([]gpu.SurfaceFormat{other, preferred})
	require.NoError(t, err)
	assert.Equal(t, preferred, got)

	got, err = ChooseSurfaceFormat([]gpu.SurfaceFormat{other})
	require.NoError(t, err)
	assert.Equal(t, other, got)

	_, err = ChooseSurfaceFormat(nil)
	assert.Error(t, err)
}

func TestChoosePresentMode(t *testing.T) {
	assert.Equal(t, gpu.PresentModeMailbox, ChoosePresentMode([]gpu.PresentMode{gpu.PresentModeFIFO, gpu.PresentModeMailbox}))
	assert.Equal(t, gpu.PresentModeFIFO, ChoosePresentMode([]gpu.PresentMode{gpu.PresentModeImmediate, gpu.PresentModeFIFO}))
	assert.Equal(t, gpu.PresentModeFIFO, ChoosePresentMode(nil))
}

func TestChooseExtent(t *testing.T) {
	undefined := gpu.SurfaceCapabilities{
		CurrentExtent:  gpu.Extent2D{Width: gpu.ExtentUndefined, Height: gpu.ExtentUndefined},
		MinImageExtent: gpu.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: gpu.Extent2D{Width: 4096, Height: 4096},
	}
	defined := undefined
	defined.CurrentExtent = gpu.Extent2D{Width: 800, Height: 600}

	tests := []struct {
		name          string
		caps          gpu.SurfaceCapabilities
		width, height int
		want          gpu.Extent2D
	}{
		{"current extent wins", defined, 1024, 768, gpu.Extent2D{Width: 800, Height: 600}},
		{"framebuffer size", undefined, 1024, 768, gpu.Extent2D{Width: 1024, Height: 768}},
		{"clamped to minimum", undefined, 0, 0, gpu.Extent2D{Width: 1, Height: 1}},
		{"clamped to maximum", undefined, 10000, 5000, gpu.Extent2D{Width: 4096, Height: 4096}},
		{"clamped per axis", undefined, 10000, 300, gpu.Extent2D{Width: 4096, Height: 300}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ChooseExtent(tt.caps, tt.width, tt.height))
		})
	}
}

func TestImageCount(t *testing.T) {
	assert.Equal(t, 3, ImageCount(gpu.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 0}))
	assert.Equal(t, 2, ImageCount(gpu.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 2}))
	assert.Equal(t, 4, ImageCount(gpu.SurfaceCapabilities{MinImageCount: 3, MaxImageCount: 8}))
}

func TestNewSwapchainCreatesViewPerImage(t *testing.T) {
	ctx, device := newTestContext(t)

	swapchain, err := NewSwapchain(ctx, gputest.NewWindow(800, 600))
	require.NoError(t, err)
	assert.Len(t, swapchain.Images, 3)
	assert.Len(t, swapchain.Views, len(swapchain.Images))
	assert.Equal(t, gpu.FormatB8G8R8A8SRGB, swapchain.Format.Format)
	assert.Equal(t, gpu.PresentModeMailbox, swapchain.PresentMode)
	assert.Equal(t, gpu.Extent2D{Width: 800, Height: 600}, swapchain.Extent)

	require.Len(t, device.SwapchainInfos, 1)
	assert.False(t, device.SwapchainInfos[0].Concurrent())

	swapchain.Destroy(device)
	assert.Zero(t, device.Live("swapchain"))
	assert.Zero(t, device.Live("image view"))
}

func TestNewSwapchainSharesImagesAcrossFamilies(t *testing.T) {
	physical := gputest.PhysicalDevice("split")
	physical.QueueFamilies = []gpu.QueueFamily{{Graphics: true}, {Present: true}}
	ctx, device := newTestContext(t, physical)

	_, err := NewSwapchain(ctx, gputest.NewWindow(800, 600))
	require.NoError(t, err)
	require.Len(t, device.SwapchainInfos, 1)
	assert.True(t, device.SwapchainInfos[0].Concurrent())
	assert.Equal(t, []int{0, 1}, device.SwapchainInfos[0].QueueFamilyIndices)
}

func TestNewSwapchainUsesWindowWhenExtentUndefined(t *testing.T) {
	ctx, device := newTestContext(t)
	device.Support.Capabilities.CurrentExtent = gpu.Extent2D{Width: gpu.ExtentUndefined, Height: gpu.ExtentUndefined}

	swapchain, err := NewSwapchain(ctx, gputest.NewWindow(1280, 720))
	require.NoError(t, err)
	assert.Equal(t, gpu.Extent2D{Width: 1280, Height: 720}, swapchain.Extent)
}
