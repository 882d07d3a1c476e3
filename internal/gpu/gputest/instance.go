package gputest

import (
	"github.com/google/uuid"

	"github.com/townsend/engine/internal/gpu"
)

// Instance hands out Device from CreateDevice.
type Instance struct {
	Devices []gpu.PhysicalDevice
	Device  *Device
	Err     error

	Created   *gpu.DeviceCreateInfo
	Selected  gpu.PhysicalDevice
	destroyed bool
}

func NewInstance(devices ...gpu.PhysicalDevice) *Instance {
	return &Instance{Devices: devices, Device: NewDevice()}
}

func (i *Instance) PhysicalDevices() ([]gpu.PhysicalDevice, error) {
	return i.Devices, i.Err
}

func (i *Instance) CreateDevice(physical gpu.PhysicalDevice, info gpu.DeviceCreateInfo) (gpu.Device, error) {
	i.Created = &info
	i.Selected = physical
	return i.Device, nil
}

func (i *Instance) Destroy() {
	i.destroyed = true
}

func (i *Instance) Destroyed() bool {
	return i.destroyed
}

// PhysicalDevice returns a discrete GPU with a single queue family doing
// graphics and present, swapchain support and anisotropic sampling.
func PhysicalDevice(name string) gpu.PhysicalDevice {
	return gpu.PhysicalDevice{
		Handle:            1,
		Name:              name,
		VendorID:          0x10de,
		DeviceID:          0x2204,
		PipelineCacheUUID: uuid.MustParse("6f1c2d3e-4a5b-4c6d-8e7f-90a1b2c3d4e5"),
		QueueFamilies: []gpu.QueueFamily{
			{Graphics: true, Present: true},
		},
		Extensions: map[string]bool{"VK_KHR_swapchain": true},
		Features:   gpu.Features{SamplerAnisotropy: true},
		Limits:     gpu.Limits{MaxSamplerAnisotropy: 16},
		MemoryTypes: []gpu.MemoryType{
			{PropertyFlags: gpu.MemoryPropertyDeviceLocal},
			{PropertyFlags: gpu.MemoryPropertyHostVisible | gpu.MemoryPropertyHostCoherent},
		},
		Surface: NewDevice().Support,
	}
}

// Window is a scripted render window.
type Window struct {
	// Sizes is consumed one entry per FramebufferSize call; the last entry
	// repeats.
	Sizes     [][2]int
	Flag      bool
	Resets    int
	Waits     int
	// OnWait runs inside each WaitEvents call.
	OnWait    func()
	sizeCalls int
}

func NewWindow(width, height int) *Window {
	return &Window{Sizes: [][2]int{{width, height}}}
}

// SetSizes replaces the scripted sizes and restarts from the first one.
func (w *Window) SetSizes(sizes ...[2]int) {
	w.Sizes = sizes
	w.sizeCalls = 0
}

func (w *Window) FramebufferSize() (int, int) {
	i := w.sizeCalls
	if i >= len(w.Sizes) {
		i = len(w.Sizes) - 1
	}
	w.sizeCalls++
	return w.Sizes[i][0], w.Sizes[i][1]
}

func (w *Window) Resized() bool {
	return w.Flag
}

func (w *Window) ResetResized() {
	w.Flag = false
	w.Resets++
}

func (w *Window) WaitEvents() {
	w.Waits++
	if w.OnWait != nil {
		w.OnWait()
	}
}
