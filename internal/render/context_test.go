package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/townsend/engine/internal/gpu"
	"github.com/townsend/engine/internal/gpu/gputest"
)

func TestSelectPhysicalDevice(t *testing.T) {
	noSwapchain := gputest.PhysicalDevice("no swapchain")
	noSwapchain.Extensions = map[string]bool{}

	noGraphics := gputest.PhysicalDevice("compute only")
	noGraphics.QueueFamilies = []gpu.QueueFamily{{Present: true}}

	noFormats := gputest.PhysicalDevice("no formats")
	noFormats.Surface.Formats = nil

	good := gputest.PhysicalDevice("good")

	t.Run("empty", func(t *testing.T) {
		_, _, err := SelectPhysicalDevice(nil, testRequirements)
		assert.ErrorContains(t, err, "failed to find GPUs with Vulkan support")
	})
	t.Run("none suitable", func(t *testing.T) {
		_, _, err := SelectPhysicalDevice([]gpu.PhysicalDevice{noSwapchain, noGraphics, noFormats}, testRequirements)
		assert.ErrorContains(t, err, "none of 3 GPUs is suitable")
	})
	t.Run("first suitable wins", func(t *testing.T) {
		device, indices, err := SelectPhysicalDevice([]gpu.PhysicalDevice{noSwapchain, good, noFormats}, testRequirements)
		require.NoError(t, err)
		assert.Equal(t, "good", device.Name)
		assert.Equal(t, QueueFamilyIndices{Graphics: 0, Present: 0}, indices)
	})
	t.Run("anisotropy only when required", func(t *testing.T) {
		plain := gputest.PhysicalDevice("plain")
		plain.Features.SamplerAnisotropy = false
		_, _, err := SelectPhysicalDevice([]gpu.PhysicalDevice{plain}, testRequirements)
		assert.Error(t, err)

		_, _, err = SelectPhysicalDevice([]gpu.PhysicalDevice{plain}, DeviceRequirements{Extensions: testRequirements.Extensions})
		assert.NoError(t, err)
	})
}

func TestFindQueueFamiliesSearchesIndependently(t *testing.T) {
	physical := gputest.PhysicalDevice("split")
	physical.QueueFamilies = []gpu.QueueFamily{
		{Present: true},
		{Graphics: true},
		{Graphics: true, Present: true},
	}
	indices, ok := FindQueueFamilies(physical)
	require.True(t, ok)
	assert.Equal(t, QueueFamilyIndices{Graphics: 1, Present: 0}, indices)
	assert.True(t, indices.Concurrent())
	assert.Equal(t, []int{1, 0}, indices.Unique())
}

func TestNewContextRequestsEachFamilyOnce(t *testing.T) {
	physical := gputest.PhysicalDevice("split")
	physical.QueueFamilies = []gpu.QueueFamily{{Graphics: true}, {Present: true}}
	instance := gputest.NewInstance(physical)

	ctx, err := NewContext(instance, testRequirements, quietLogger())
	require.NoError(t, err)
	require.NotNil(t, instance.Created)
	assert.Equal(t, []int{0, 1}, instance.Created.QueueFamilies)
	assert.Equal(t, []string{"VK_KHR_swapchain"}, instance.Created.Extensions)
	assert.True(t, instance.Created.Features.SamplerAnisotropy)
	assert.NotEqual(t, ctx.GraphicsQueue, ctx.PresentQueue)

	ctx.Destroy()
	assert.True(t, instance.Device.Destroyed())
	assert.True(t, instance.Destroyed())
}

func TestNewContextSharesQueueForSingleFamily(t *testing.T) {
	ctx, _ := newTestContext(t)
	assert.Equal(t, ctx.GraphicsQueue, ctx.PresentQueue)
	assert.False(t, ctx.Families.Concurrent())
}

func TestFindMemoryType(t *testing.T) {
	ctx, _ := newTestContext(t)

	index, err := ctx.FindMemoryType(0b11, gpu.MemoryPropertyHostVisible|gpu.MemoryPropertyHostCoherent)
	require.NoError(t, err)
	assert.Equal(t, 1, index)

	index, err = ctx.FindMemoryType(0b11, gpu.MemoryPropertyDeviceLocal)
	require.NoError(t, err)
	assert.Equal(t, 0, index)

	_, err = ctx.FindMemoryType(0b01, gpu.MemoryPropertyHostVisible)
	assert.Error(t, err)
}

func TestFindDepthFormat(t *testing.T) {
	ctx, device := newTestContext(t)

	format, err := FindDepthFormat(ctx)
	require.NoError(t, err)
	assert.Equal(t, gpu.FormatD32SFloat, format)

	again, err := FindDepthFormat(ctx)
	require.NoError(t, err)
	assert.Equal(t, format, again)

	delete(device.Formats, gpu.FormatD32SFloat)
	device.Formats[gpu.FormatD24UNormS8UInt] = gpu.FormatProperties{
		OptimalTilingFeatures: gpu.FormatFeatureDepthStencilAttachment,
	}
	format, err = FindDepthFormat(ctx)
	require.NoError(t, err)
	assert.Equal(t, gpu.FormatD24UNormS8UInt, format)
	assert.True(t, HasStencilComponent(format))

	// Linear support alone does not count for an optimally tiled image.
	device.Formats = map[gpu.Format]gpu.FormatProperties{
		gpu.FormatD32SFloat: {LinearTilingFeatures: gpu.FormatFeatureDepthStencilAttachment},
	}
	_, err = FindDepthFormat(ctx)
	assert.Error(t, err)
}
