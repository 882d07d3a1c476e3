// Package vkng implements the gpu interfaces on top of vkngwrapper, with
// presentation to an SDL window.
package vkng

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/v3"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"github.com/vkngwrapper/extensions/v3/khr_portability_enumeration"
	"github.com/vkngwrapper/extensions/v3/khr_portability_subset"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2/v3"

	"github.com/townsend/engine/internal/gpu"
)

const validationLayer = "VK_LAYER_KHRONOS_validation"

// DeviceExtensions are the device extensions presentation requires.
var DeviceExtensions = []string{khr_swapchain.ExtensionName}

type InstanceConfig struct {
	AppName    string
	Validation bool
}

// Instance owns the Vulkan instance, the optional debug messenger and the
// window surface.
type Instance struct {
	window *sdl.Window
	logger *slog.Logger

	globalDriver   core1_0.GlobalDriver
	instanceDriver core1_0.CoreInstanceDriver

	debugDriver      ext_debug_utils.ExtensionDriver
	debugMessenger   ext_debug_utils.DebugUtilsMessenger
	surfaceExtension khr_surface.ExtensionDriver
	surface          khr_surface.Surface

	physical table[gpu.Handle, core1_0.PhysicalDevice]
}

func NewInstance(window *sdl.Window, cfg InstanceConfig, logger *slog.Logger) (*Instance, error) {
	i := &Instance{window: window, logger: logger}

	var err error
	i.globalDriver, err = core.CreateDriverFromProcAddr(sdl.VulkanGetVkGetInstanceProcAddr())
	if err != nil {
		return nil, errors.Wrap(err, "load vulkan driver")
	}
	if err := i.createInstance(cfg); err != nil {
		return nil, err
	}
	if cfg.Validation {
		i.debugDriver = ext_debug_utils.CreateExtensionDriverFromCoreDriver(i.instanceDriver)
		i.debugMessenger, _, err = i.debugDriver.CreateDebugUtilsMessenger(nil, i.debugMessengerOptions())
		if err != nil {
			i.Destroy()
			return nil, errors.Wrap(err, "create debug messenger")
		}
	}

	i.surfaceExtension = khr_surface.CreateExtensionDriverFromCoreDriver(i.instanceDriver)
	i.surface, err = vkng_sdl2.CreateSurface(i.instanceDriver.Instance(), i.surfaceExtension, window)
	if err != nil {
		i.Destroy()
		return nil, errors.Wrap(err, "create surface")
	}
	return i, nil
}

func (i *Instance) createInstance(cfg InstanceConfig) error {
	instanceOptions := core1_0.InstanceCreateInfo{
		ApplicationName:    cfg.AppName,
		ApplicationVersion: common.CreateVersion(1, 0, 0),
		EngineName:         "townsend",
		EngineVersion:      common.CreateVersion(1, 0, 0),
		APIVersion:         common.Vulkan1_2,
	}

	extensions, _, err := i.globalDriver.AvailableExtensions()
	if err != nil {
		return errors.Wrap(err, "enumerate instance extensions")
	}
	for _, ext := range i.window.VulkanGetInstanceExtensions() {
		if _, ok := extensions[ext]; !ok {
			return errors.Newf("missing instance extension %s required by sdl", ext)
		}
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext)
	}
	if _, ok := extensions[khr_portability_enumeration.ExtensionName]; ok {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, khr_portability_enumeration.ExtensionName)
		instanceOptions.Flags |= khr_portability_enumeration.InstanceCreateEnumeratePortability
	}

	if cfg.Validation {
		layers, _, err := i.globalDriver.AvailableLayers()
		if err != nil {
			return errors.Wrap(err, "enumerate instance layers")
		}
		if _, ok := layers[validationLayer]; !ok {
			return errors.Newf("validation layer %s not available, install the Vulkan SDK", validationLayer)
		}
		instanceOptions.EnabledLayerNames = append(instanceOptions.EnabledLayerNames, validationLayer)
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, ext_debug_utils.ExtensionName)
		instanceOptions.Next = i.debugMessengerOptions()
	}

	i.instanceDriver, _, err = i.globalDriver.CreateInstance(nil, instanceOptions)
	return errors.Wrap(err, "create instance")
}

func (i *Instance) debugMessengerOptions() ext_debug_utils.DebugUtilsMessengerCreateInfo {
	return ext_debug_utils.DebugUtilsMessengerCreateInfo{
		MessageSeverity: ext_debug_utils.SeverityError | ext_debug_utils.SeverityWarning,
		MessageType:     ext_debug_utils.TypeGeneral | ext_debug_utils.TypeValidation | ext_debug_utils.TypePerformance,
		UserCallback:    i.logDebug,
	}
}

func (i *Instance) logDebug(msgType ext_debug_utils.DebugUtilsMessageTypeFlags, severity ext_debug_utils.DebugUtilsMessageSeverityFlags, data *ext_debug_utils.DebugUtilsMessengerCallbackData) bool {
	level := slog.LevelWarn
	if severity&ext_debug_utils.SeverityError != 0 {
		level = slog.LevelError
	}
	i.logger.Log(context.Background(), level, data.Message, slog.String("type", msgType.String()))
	return false
}

// PhysicalDevices describes every adapter along with its support for the
// window surface.
func (i *Instance) PhysicalDevices() ([]gpu.PhysicalDevice, error) {
	devices, _, err := i.instanceDriver.EnumeratePhysicalDevices()
	if err != nil {
		return nil, errors.Wrap(err, "enumerate physical devices")
	}
	out := make([]gpu.PhysicalDevice, 0, len(devices))
	for _, device := range devices {
		described, err := i.describe(device)
		if err != nil {
			return nil, err
		}
		out = append(out, described)
	}
	return out, nil
}

func (i *Instance) describe(device core1_0.PhysicalDevice) (gpu.PhysicalDevice, error) {
	props, err := i.instanceDriver.GetPhysicalDeviceProperties(device)
	if err != nil {
		return gpu.PhysicalDevice{}, errors.Wrap(err, "get physical device properties")
	}
	out := gpu.PhysicalDevice{
		Handle:            i.physical.put(device),
		Name:              props.DeviceName,
		VendorID:          props.VendorID,
		DeviceID:          props.DeviceID,
		PipelineCacheUUID: props.PipelineCacheUUID,
		Extensions:        map[string]bool{},
		Features: gpu.Features{
			SamplerAnisotropy: i.instanceDriver.GetPhysicalDeviceFeatures(device).SamplerAnisotropy,
		},
		Limits: gpu.Limits{MaxSamplerAnisotropy: props.Limits.MaxSamplerAnisotropy},
	}

	for idx, family := range i.instanceDriver.GetPhysicalDeviceQueueFamilyProperties(device) {
		present, _, err := i.surfaceExtension.GetPhysicalDeviceSurfaceSupport(i.surface, device, idx)
		if err != nil {
			return out, errors.Wrapf(err, "query present support for family %d", idx)
		}
		out.QueueFamilies = append(out.QueueFamilies, gpu.QueueFamily{
			Graphics: family.QueueFlags&core1_0.QueueGraphics != 0,
			Present:  present,
		})
	}

	extensions, _, err := i.instanceDriver.EnumerateDeviceExtensionProperties(device)
	if err != nil {
		return out, errors.Wrap(err, "enumerate device extensions")
	}
	for name := range extensions {
		out.Extensions[name] = true
	}

	for _, memoryType := range i.instanceDriver.GetPhysicalDeviceMemoryProperties(device).MemoryTypes {
		out.MemoryTypes = append(out.MemoryTypes, gpu.MemoryType{PropertyFlags: gpu.MemoryPropertyFlags(memoryType.PropertyFlags)})
	}

	out.Surface, err = i.surfaceSupport(device)
	return out, err
}

func (i *Instance) surfaceSupport(device core1_0.PhysicalDevice) (gpu.SurfaceSupport, error) {
	caps, _, err := i.surfaceExtension.GetPhysicalDeviceSurfaceCapabilities(i.surface, device)
	if err != nil {
		return gpu.SurfaceSupport{}, errors.Wrap(err, "get surface capabilities")
	}
	formats, _, err := i.surfaceExtension.GetPhysicalDeviceSurfaceFormats(i.surface, device)
	if err != nil {
		return gpu.SurfaceSupport{}, errors.Wrap(err, "get surface formats")
	}
	modes, _, err := i.surfaceExtension.GetPhysicalDeviceSurfacePresentModes(i.surface, device)
	if err != nil {
		return gpu.SurfaceSupport{}, errors.Wrap(err, "get surface present modes")
	}
	return gpu.SurfaceSupport{
		Capabilities: toSurfaceCapabilities(caps),
		Formats:      toSurfaceFormats(formats),
		PresentModes: toPresentModes(modes),
	}, nil
}

// CreateDevice opens a logical device with one queue per requested family.
func (i *Instance) CreateDevice(physical gpu.PhysicalDevice, info gpu.DeviceCreateInfo) (gpu.Device, error) {
	device := i.physical.get(physical.Handle)
	if !device.Initialized() {
		return nil, errors.AssertionFailedf("unknown physical device %d", physical.Handle)
	}

	var queueFamilyOptions []core1_0.DeviceQueueCreateInfo
	for _, family := range info.QueueFamilies {
		queueFamilyOptions = append(queueFamilyOptions, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: family,
			QueuePriorities:  []float32{1.0},
		})
	}

	extensionNames := append([]string(nil), info.Extensions...)
	// Required on portability implementations such as MoltenVK.
	if physical.Extensions[khr_portability_subset.ExtensionName] {
		extensionNames = append(extensionNames, khr_portability_subset.ExtensionName)
	}

	deviceDriver, _, err := i.instanceDriver.CreateDevice(device, nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos: queueFamilyOptions,
		EnabledFeatures: &core1_0.PhysicalDeviceFeatures{
			SamplerAnisotropy: info.Features.SamplerAnisotropy,
		},
		EnabledExtensionNames: extensionNames,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create device")
	}
	return newDevice(i, device, deviceDriver), nil
}

func (i *Instance) Destroy() {
	if i.surface.Initialized() {
		i.surfaceExtension.DestroySurface(i.surface, nil)
	}
	if i.debugMessenger.Initialized() {
		i.debugDriver.DestroyDebugUtilsMessenger(i.debugMessenger, nil)
	}
	if i.instanceDriver != nil {
		i.instanceDriver.DestroyInstance(nil)
	}
}

var _ gpu.Instance = (*Instance)(nil)
