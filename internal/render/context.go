// Package render drives the swapchain lifecycle: acquiring presentable
// images, recording and submitting frames, presenting them, and rebuilding
// every extent-dependent resource when the surface changes.
package render

import (
	"log/slog"

	"github.com/cockroachdb/errors"

	"github.com/townsend/engine/internal/gpu"
)

// DeviceRequirements lists what a physical device must offer to be chosen.
type DeviceRequirements struct {
	Extensions        []string
	SamplerAnisotropy bool
}

// QueueFamilyIndices are resolved once at device selection.
type QueueFamilyIndices struct {
	Graphics int
	Present  int
}

// Concurrent reports whether images must be shared between two families.
func (q QueueFamilyIndices) Concurrent() bool {
	return q.Graphics != q.Present
}

// Unique returns the distinct family indices, graphics first.
func (q QueueFamilyIndices) Unique() []int {
	if q.Concurrent() {
		return []int{q.Graphics, q.Present}
	}
	return []int{q.Graphics}
}

// FindQueueFamilies returns the first graphics-capable family and the first
// family able to present, searched independently.
func FindQueueFamilies(physical gpu.PhysicalDevice) (QueueFamilyIndices, bool) {
	indices := QueueFamilyIndices{Graphics: -1, Present: -1}
	for i, family := range physical.QueueFamilies {
		if indices.Graphics < 0 && family.Graphics {
			indices.Graphics = i
		}
		if indices.Present < 0 && family.Present {
			indices.Present = i
		}
	}
	return indices, indices.Graphics >= 0 && indices.Present >= 0
}

// SelectPhysicalDevice returns the first device meeting the requirements.
func SelectPhysicalDevice(devices []gpu.PhysicalDevice, req DeviceRequirements) (gpu.PhysicalDevice, QueueFamilyIndices, error) {
	if len(devices) == 0 {
		return gpu.PhysicalDevice{}, QueueFamilyIndices{}, errors.New("failed to find GPUs with Vulkan support")
	}
	for _, device := range devices {
		if indices, ok := isDeviceSuitable(device, req); ok {
			return device, indices, nil
		}
	}
	return gpu.PhysicalDevice{}, QueueFamilyIndices{}, errors.Newf("none of %d GPUs is suitable", len(devices))
}

func isDeviceSuitable(device gpu.PhysicalDevice, req DeviceRequirements) (QueueFamilyIndices, bool) {
	indices, ok := FindQueueFamilies(device)
	if !ok {
		return indices, false
	}
	for _, ext := range req.Extensions {
		if !device.Extensions[ext] {
			return indices, false
		}
	}
	if len(device.Surface.Formats) == 0 || len(device.Surface.PresentModes) == 0 {
		return indices, false
	}
	if req.SamplerAnisotropy && !device.Features.SamplerAnisotropy {
		return indices, false
	}
	return indices, true
}

// Context owns the logical device and its queues. Nothing in it changes
// after NewContext returns.
type Context struct {
	Instance gpu.Instance
	Device   gpu.Device
	Physical gpu.PhysicalDevice
	Families QueueFamilyIndices

	GraphicsQueue gpu.Queue
	PresentQueue  gpu.Queue

	logger *slog.Logger
}

func NewContext(instance gpu.Instance, req DeviceRequirements, logger *slog.Logger) (*Context, error) {
	devices, err := instance.PhysicalDevices()
	if err != nil {
		return nil, errors.Wrap(err, "enumerate physical devices")
	}
	physical, families, err := SelectPhysicalDevice(devices, req)
	if err != nil {
		return nil, err
	}
	logger.Info("selected physical device",
		slog.String("name", physical.Name),
		slog.Int("graphics_family", families.Graphics),
		slog.Int("present_family", families.Present))

	device, err := instance.CreateDevice(physical, gpu.DeviceCreateInfo{
		QueueFamilies: families.Unique(),
		Extensions:    req.Extensions,
		Features:      gpu.Features{SamplerAnisotropy: req.SamplerAnisotropy},
	})
	if err != nil {
		return nil, errors.Wrap(err, "create logical device")
	}

	return &Context{
		Instance:      instance,
		Device:        device,
		Physical:      physical,
		Families:      families,
		GraphicsQueue: device.Queue(families.Graphics),
		PresentQueue:  device.Queue(families.Present),
		logger:        logger,
	}, nil
}

// FindMemoryType returns the index of the first memory type allowed by
// typeBits that has every property in props.
func (c *Context) FindMemoryType(typeBits uint32, props gpu.MemoryPropertyFlags) (int, error) {
	for i, memoryType := range c.Physical.MemoryTypes {
		if typeBits&(1<<i) != 0 && memoryType.PropertyFlags&props == props {
			return i, nil
		}
	}
	return -1, errors.Newf("failed to find suitable memory type for bits %#x with properties %#x", typeBits, props)
}

// FindSupportedFormat returns the first candidate whose tiling supports
// every requested feature.
func (c *Context) FindSupportedFormat(candidates []gpu.Format, tiling gpu.ImageTiling, features gpu.FormatFeatureFlags) (gpu.Format, error) {
	for _, format := range candidates {
		props := c.Device.FormatProperties(format)
		supported := props.OptimalTilingFeatures
		if tiling == gpu.ImageTilingLinear {
			supported = props.LinearTilingFeatures
		}
		if supported&features == features {
			return format, nil
		}
	}
	return gpu.FormatUndefined, errors.Newf("failed to find supported format among %v", candidates)
}

// Logger returns the logger components built on this context should use.
func (c *Context) Logger() *slog.Logger {
	return c.logger
}

func (c *Context) Destroy() {
	c.Device.Destroy()
	c.Instance.Destroy()
}
