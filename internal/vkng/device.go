package vkng

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/townsend/engine/internal/gpu"
)

// Device translates gpu handles into vkngwrapper objects. It is not safe for
// concurrent use.
type Device struct {
	instance           *Instance
	physical           core1_0.PhysicalDevice
	driver             core1_0.DeviceDriver
	swapchainExtension khr_swapchain.ExtensionDriver

	queueFamilies map[int]gpu.Queue
	queues        table[gpu.Queue, core1_0.Queue]

	swapchains      table[gpu.Swapchain, khr_swapchain.Swapchain]
	swapchainImages map[gpu.Swapchain][]gpu.Image
	images          table[gpu.Image, core1_0.Image]
	imageViews      table[gpu.ImageView, core1_0.ImageView]
	memory          table[gpu.DeviceMemory, core1_0.DeviceMemory]
	buffers         table[gpu.Buffer, core1_0.Buffer]
	samplers        table[gpu.Sampler, core1_0.Sampler]

	shaderModules   table[gpu.ShaderModule, core1_0.ShaderModule]
	renderPasses    table[gpu.RenderPass, core1_0.RenderPass]
	pipelineLayouts table[gpu.PipelineLayout, core1_0.PipelineLayout]
	pipelines       table[gpu.Pipeline, core1_0.Pipeline]
	pipelineCaches  table[gpu.PipelineCache, core1_0.PipelineCache]
	framebuffers    table[gpu.Framebuffer, core1_0.Framebuffer]

	setLayouts      table[gpu.DescriptorSetLayout, core1_0.DescriptorSetLayout]
	descriptorPools table[gpu.DescriptorPool, core1_0.DescriptorPool]
	descriptorSets  table[gpu.DescriptorSet, core1_0.DescriptorSet]
	setPools        map[gpu.DescriptorSet]gpu.DescriptorPool

	commandPools   table[gpu.CommandPool, core1_0.CommandPool]
	commandBuffers table[gpu.CommandBuffer, core1_0.CommandBuffer]
	semaphores     table[gpu.Semaphore, core1_0.Semaphore]
	fences         table[gpu.Fence, core1_0.Fence]
}

func newDevice(instance *Instance, physical core1_0.PhysicalDevice, driver core1_0.DeviceDriver) *Device {
	return &Device{
		instance:           instance,
		physical:           physical,
		driver:             driver,
		swapchainExtension: khr_swapchain.CreateExtensionDriverFromCoreDriver(driver),
		queueFamilies:      map[int]gpu.Queue{},
		swapchainImages:    map[gpu.Swapchain][]gpu.Image{},
		setPools:           map[gpu.DescriptorSet]gpu.DescriptorPool{},
	}
}

func (d *Device) Queue(family int) gpu.Queue {
	if q, ok := d.queueFamilies[family]; ok {
		return q
	}
	q := d.queues.put(d.driver.GetQueue(family, 0))
	d.queueFamilies[family] = q
	return q
}

func (d *Device) WaitIdle() error {
	_, err := d.driver.DeviceWaitIdle()
	return errors.Wrap(err, "wait for device idle")
}

func (d *Device) Destroy() {
	d.driver.DestroyDevice(nil)
}

func (d *Device) SurfaceSupport() (gpu.SurfaceSupport, error) {
	return d.instance.surfaceSupport(d.physical)
}

func (d *Device) CreateSwapchain(info gpu.SwapchainCreateInfo) (gpu.Swapchain, error) {
	caps, _, err := d.instance.surfaceExtension.GetPhysicalDeviceSurfaceCapabilities(d.instance.surface, d.physical)
	if err != nil {
		return 0, errors.Wrap(err, "get surface capabilities")
	}

	sharingMode := core1_0.SharingModeExclusive
	if info.Concurrent() {
		sharingMode = core1_0.SharingModeConcurrent
	}

	swapchain, _, err := d.swapchainExtension.CreateSwapchain(nil, khr_swapchain.SwapchainCreateInfo{
		Surface: d.instance.surface,

		MinImageCount:    info.MinImageCount,
		ImageFormat:      core1_0.Format(info.Format.Format),
		ImageColorSpace:  khr_surface.ColorSpace(info.Format.ColorSpace),
		ImageExtent:      fromExtent(info.Extent),
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode:   sharingMode,
		QueueFamilyIndices: info.QueueFamilyIndices,

		PreTransform:   caps.CurrentTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    khr_surface.PresentMode(info.PresentMode),
		Clipped:        true,
	})
	if err != nil {
		return 0, errors.Wrap(err, "create swapchain")
	}
	return d.swapchains.put(swapchain), nil
}

func (d *Device) SwapchainImages(swapchain gpu.Swapchain) ([]gpu.Image, error) {
	if images, ok := d.swapchainImages[swapchain]; ok {
		return images, nil
	}
	images, _, err := d.swapchainExtension.GetSwapchainImages(d.swapchains.get(swapchain))
	if err != nil {
		return nil, errors.Wrap(err, "get swapchain images")
	}
	out := make([]gpu.Image, len(images))
	for i, image := range images {
		out[i] = d.images.put(image)
	}
	d.swapchainImages[swapchain] = out
	return out, nil
}

// DestroySwapchain releases the swapchain together with the images it owns.
func (d *Device) DestroySwapchain(swapchain gpu.Swapchain) {
	for _, image := range d.swapchainImages[swapchain] {
		d.images.take(image)
	}
	delete(d.swapchainImages, swapchain)
	if sc, ok := d.swapchains.take(swapchain); ok {
		d.swapchainExtension.DestroySwapchain(sc, nil)
	}
}

func (d *Device) AcquireNextImage(swapchain gpu.Swapchain, signal gpu.Semaphore) (int, gpu.Result, error) {
	semaphore := d.semaphores.get(signal)
	imageIndex, res, err := d.swapchainExtension.AcquireNextImage(d.swapchains.get(swapchain), common.NoTimeout, &semaphore, nil)
	if res == khr_swapchain.VKErrorOutOfDate {
		return -1, gpu.ResultOutOfDate, nil
	} else if err != nil {
		return -1, gpu.ResultSuccess, errors.Wrap(err, "acquire swapchain image")
	}
	if res == khr_swapchain.VKSuboptimal {
		return imageIndex, gpu.ResultSuboptimal, nil
	}
	return imageIndex, gpu.ResultSuccess, nil
}

func (d *Device) QueuePresent(queue gpu.Queue, info gpu.PresentInfo) (gpu.Result, error) {
	res, err := d.swapchainExtension.QueuePresent(d.queues.get(queue), khr_swapchain.PresentInfo{
		WaitSemaphores: []core1_0.Semaphore{d.semaphores.get(info.WaitSemaphore)},
		Swapchains:     []khr_swapchain.Swapchain{d.swapchains.get(info.Swapchain)},
		ImageIndices:   []int{info.ImageIndex},
	})
	switch {
	case res == khr_swapchain.VKErrorOutOfDate:
		return gpu.ResultOutOfDate, nil
	case err != nil:
		return gpu.ResultSuccess, errors.Wrap(err, "present swapchain image")
	case res == khr_swapchain.VKSuboptimal:
		return gpu.ResultSuboptimal, nil
	}
	return gpu.ResultSuccess, nil
}

func (d *Device) FormatProperties(format gpu.Format) gpu.FormatProperties {
	props := d.instance.instanceDriver.GetPhysicalDeviceFormatProperties(d.physical, core1_0.Format(format))
	return gpu.FormatProperties{
		LinearTilingFeatures:  gpu.FormatFeatureFlags(props.LinearTilingFeatures),
		OptimalTilingFeatures: gpu.FormatFeatureFlags(props.OptimalTilingFeatures),
	}
}

func (d *Device) CreateImage(info gpu.ImageCreateInfo) (gpu.Image, gpu.MemoryRequirements, error) {
	image, _, err := d.driver.CreateImage(nil, core1_0.ImageCreateInfo{
		ImageType: core1_0.ImageType2D,
		Extent: core1_0.Extent3D{
			Width:  info.Width,
			Height: info.Height,
			Depth:  1,
		},
		MipLevels:     info.MipLevels,
		ArrayLayers:   1,
		Format:        core1_0.Format(info.Format),
		Tiling:        core1_0.ImageTiling(info.Tiling),
		InitialLayout: core1_0.ImageLayoutUndefined,
		Usage:         core1_0.ImageUsageFlags(info.Usage),
		SharingMode:   core1_0.SharingModeExclusive,
		Samples:       core1_0.Samples1,
	})
	if err != nil {
		return 0, gpu.MemoryRequirements{}, errors.Wrap(err, "create image")
	}
	reqs := d.driver.GetImageMemoryRequirements(image)
	return d.images.put(image), gpu.MemoryRequirements{Size: reqs.Size, MemoryTypeBits: reqs.MemoryTypeBits}, nil
}

func (d *Device) DestroyImage(image gpu.Image) {
	if img, ok := d.images.take(image); ok {
		d.driver.DestroyImage(img, nil)
	}
}

func (d *Device) CreateImageView(info gpu.ImageViewCreateInfo) (gpu.ImageView, error) {
	mipLevels := info.MipLevels
	if mipLevels == 0 {
		mipLevels = 1
	}
	view, _, err := d.driver.CreateImageView(nil, core1_0.ImageViewCreateInfo{
		Image:    d.images.get(info.Image),
		ViewType: core1_0.ImageViewType2D,
		Format:   core1_0.Format(info.Format),
		SubresourceRange: core1_0.ImageSubresourceRange{
			AspectMask:     core1_0.ImageAspectFlags(info.Aspect),
			BaseMipLevel:   0,
			LevelCount:     mipLevels,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	})
	if err != nil {
		return 0, errors.Wrap(err, "create image view")
	}
	return d.imageViews.put(view), nil
}

func (d *Device) DestroyImageView(view gpu.ImageView) {
	if v, ok := d.imageViews.take(view); ok {
		d.driver.DestroyImageView(v, nil)
	}
}

func (d *Device) CreateBuffer(size int, usage gpu.BufferUsageFlags) (gpu.Buffer, gpu.MemoryRequirements, error) {
	buffer, _, err := d.driver.CreateBuffer(nil, core1_0.BufferCreateInfo{
		Size:        size,
		Usage:       core1_0.BufferUsageFlags(usage),
		SharingMode: core1_0.SharingModeExclusive,
	})
	if err != nil {
		return 0, gpu.MemoryRequirements{}, errors.Wrap(err, "create buffer")
	}
	reqs := d.driver.GetBufferMemoryRequirements(buffer)
	return d.buffers.put(buffer), gpu.MemoryRequirements{Size: reqs.Size, MemoryTypeBits: reqs.MemoryTypeBits}, nil
}

func (d *Device) DestroyBuffer(buffer gpu.Buffer) {
	if b, ok := d.buffers.take(buffer); ok {
		d.driver.DestroyBuffer(b, nil)
	}
}

func (d *Device) AllocateMemory(size int, memoryTypeIndex int) (gpu.DeviceMemory, error) {
	memory, _, err := d.driver.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  size,
		MemoryTypeIndex: memoryTypeIndex,
	})
	if err != nil {
		return 0, errors.Wrap(err, "allocate memory")
	}
	return d.memory.put(memory), nil
}

func (d *Device) FreeMemory(memory gpu.DeviceMemory) {
	if m, ok := d.memory.take(memory); ok {
		d.driver.FreeMemory(m, nil)
	}
}

func (d *Device) BindImageMemory(image gpu.Image, memory gpu.DeviceMemory) error {
	_, err := d.driver.BindImageMemory(d.images.get(image), d.memory.get(memory), 0)
	return errors.Wrap(err, "bind image memory")
}

func (d *Device) BindBufferMemory(buffer gpu.Buffer, memory gpu.DeviceMemory) error {
	_, err := d.driver.BindBufferMemory(d.buffers.get(buffer), d.memory.get(memory), 0)
	return errors.Wrap(err, "bind buffer memory")
}

func (d *Device) MapMemory(memory gpu.DeviceMemory, offset, size int) ([]byte, error) {
	ptr, _, err := d.driver.MapMemory(d.memory.get(memory), offset, size, 0)
	if err != nil {
		return nil, errors.Wrap(err, "map memory")
	}
	return unsafe.Slice((*byte)(ptr), size), nil
}

func (d *Device) UnmapMemory(memory gpu.DeviceMemory) {
	d.driver.UnmapMemory(d.memory.get(memory))
}

func (d *Device) CreateSampler(info gpu.SamplerCreateInfo) (gpu.Sampler, error) {
	sampler, _, err := d.driver.CreateSampler(nil, core1_0.SamplerCreateInfo{
		MagFilter:    core1_0.FilterLinear,
		MinFilter:    core1_0.FilterLinear,
		AddressModeU: core1_0.SamplerAddressModeRepeat,
		AddressModeV: core1_0.SamplerAddressModeRepeat,
		AddressModeW: core1_0.SamplerAddressModeRepeat,

		AnisotropyEnable: info.AnisotropyEnable,
		MaxAnisotropy:    info.MaxAnisotropy,

		BorderColor: core1_0.BorderColorIntOpaqueBlack,
		MipmapMode:  core1_0.SamplerMipmapModeLinear,
		MinLod:      0,
		MaxLod:      info.MaxLod,
	})
	if err != nil {
		return 0, errors.Wrap(err, "create sampler")
	}
	return d.samplers.put(sampler), nil
}

func (d *Device) DestroySampler(sampler gpu.Sampler) {
	if s, ok := d.samplers.take(sampler); ok {
		d.driver.DestroySampler(s, nil)
	}
}

func (d *Device) CreateShaderModule(code []byte) (gpu.ShaderModule, error) {
	byteCode, err := bytesToBytecode(code)
	if err != nil {
		return 0, err
	}
	module, _, err := d.driver.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{Code: byteCode})
	if err != nil {
		return 0, errors.Wrap(err, "create shader module")
	}
	return d.shaderModules.put(module), nil
}

func (d *Device) DestroyShaderModule(module gpu.ShaderModule) {
	if m, ok := d.shaderModules.take(module); ok {
		d.driver.DestroyShaderModule(m, nil)
	}
}

func (d *Device) CreateRenderPass(info gpu.RenderPassCreateInfo) (gpu.RenderPass, error) {
	renderPass, _, err := d.driver.CreateRenderPass(nil, fromRenderPass(info))
	if err != nil {
		return 0, errors.Wrap(err, "create render pass")
	}
	return d.renderPasses.put(renderPass), nil
}

func (d *Device) DestroyRenderPass(renderPass gpu.RenderPass) {
	if rp, ok := d.renderPasses.take(renderPass); ok {
		d.driver.DestroyRenderPass(rp, nil)
	}
}

func (d *Device) CreatePipelineLayout(setLayouts ...gpu.DescriptorSetLayout) (gpu.PipelineLayout, error) {
	layouts := make([]core1_0.DescriptorSetLayout, len(setLayouts))
	for i, l := range setLayouts {
		layouts[i] = d.setLayouts.get(l)
	}
	layout, _, err := d.driver.CreatePipelineLayout(nil, core1_0.PipelineLayoutCreateInfo{SetLayouts: layouts})
	if err != nil {
		return 0, errors.Wrap(err, "create pipeline layout")
	}
	return d.pipelineLayouts.put(layout), nil
}

func (d *Device) DestroyPipelineLayout(layout gpu.PipelineLayout) {
	if l, ok := d.pipelineLayouts.take(layout); ok {
		d.driver.DestroyPipelineLayout(l, nil)
	}
}

func (d *Device) CreateGraphicsPipeline(info gpu.GraphicsPipelineCreateInfo) (gpu.Pipeline, error) {
	attributes := make([]core1_0.VertexInputAttributeDescription, len(info.VertexAttributes))
	for i, a := range info.VertexAttributes {
		attributes[i] = core1_0.VertexInputAttributeDescription{
			Binding:  0,
			Location: a.Location,
			Format:   core1_0.Format(a.Format),
			Offset:   a.Offset,
		}
	}

	var blendAttachment core1_0.PipelineColorBlendAttachmentState
	blendAttachment.BlendEnabled = info.BlendEnable
	blendAttachment.ColorWriteMask = core1_0.ColorComponentRed | core1_0.ColorComponentGreen | core1_0.ColorComponentBlue | core1_0.ColorComponentAlpha
	if info.BlendEnable {
		blendAttachment.SrcColorBlendFactor = core1_0.BlendFactorSrcAlpha
		blendAttachment.DstColorBlendFactor = core1_0.BlendFactorOneMinusSrcAlpha
		blendAttachment.ColorBlendOp = core1_0.BlendOpAdd
		blendAttachment.SrcAlphaBlendFactor = core1_0.BlendFactorOne
		blendAttachment.DstAlphaBlendFactor = core1_0.BlendFactorZero
		blendAttachment.AlphaBlendOp = core1_0.BlendOpAdd
	}

	var cache *core1_0.PipelineCache
	if info.Cache != 0 {
		c := d.pipelineCaches.get(info.Cache)
		cache = &c
	}

	pipelines, _, err := d.driver.CreateGraphicsPipelines(cache, nil,
		core1_0.GraphicsPipelineCreateInfo{
			Stages: []core1_0.PipelineShaderStageCreateInfo{
				{Stage: core1_0.StageVertex, Module: d.shaderModules.get(info.VertexShader), Name: "main"},
				{Stage: core1_0.StageFragment, Module: d.shaderModules.get(info.FragmentShader), Name: "main"},
			},
			VertexInputState: &core1_0.PipelineVertexInputStateCreateInfo{
				VertexBindingDescriptions: []core1_0.VertexInputBindingDescription{
					{Binding: 0, Stride: info.VertexStride, InputRate: core1_0.VertexInputRateVertex},
				},
				VertexAttributeDescriptions: attributes,
			},
			InputAssemblyState: &core1_0.PipelineInputAssemblyStateCreateInfo{
				Topology:               core1_0.PrimitiveTopology(info.Topology),
				PrimitiveRestartEnable: false,
			},
			ViewportState: &core1_0.PipelineViewportStateCreateInfo{
				Viewports: []core1_0.Viewport{
					{
						X:        0,
						Y:        0,
						Width:    float32(info.Viewport.Width),
						Height:   float32(info.Viewport.Height),
						MinDepth: 0,
						MaxDepth: 1,
					},
				},
				Scissors: []core1_0.Rect2D{
					{Offset: core1_0.Offset2D{X: 0, Y: 0}, Extent: fromExtent(info.Viewport)},
				},
			},
			RasterizationState: &core1_0.PipelineRasterizationStateCreateInfo{
				DepthClampEnable:        false,
				RasterizerDiscardEnable: false,
				PolygonMode:             core1_0.PolygonModeFill,
				CullMode:                core1_0.CullModeFlags(info.CullMode),
				FrontFace:               core1_0.FrontFace(info.FrontFace),
				DepthBiasEnable:         false,
				LineWidth:               1.0,
			},
			MultisampleState: &core1_0.PipelineMultisampleStateCreateInfo{
				SampleShadingEnable:  false,
				RasterizationSamples: core1_0.Samples1,
				MinSampleShading:     1.0,
			},
			DepthStencilState: &core1_0.PipelineDepthStencilStateCreateInfo{
				DepthTestEnable:  info.DepthTestEnable,
				DepthWriteEnable: info.DepthWriteEnable,
				DepthCompareOp:   core1_0.CompareOp(info.DepthCompareOp),
			},
			ColorBlendState: &core1_0.PipelineColorBlendStateCreateInfo{
				LogicOpEnabled: false,
				LogicOp:        core1_0.LogicOpCopy,
				Attachments:    []core1_0.PipelineColorBlendAttachmentState{blendAttachment},
			},
			Layout:            d.pipelineLayouts.get(info.Layout),
			RenderPass:        d.renderPasses.get(info.RenderPass),
			Subpass:           0,
			BasePipelineIndex: -1,
		},
	)
	if err != nil {
		return 0, errors.Wrap(err, "create graphics pipeline")
	}
	return d.pipelines.put(pipelines[0]), nil
}

func (d *Device) DestroyPipeline(pipeline gpu.Pipeline) {
	if p, ok := d.pipelines.take(pipeline); ok {
		d.driver.DestroyPipeline(p, nil)
	}
}

func (d *Device) CreatePipelineCache(initialData []byte) (gpu.PipelineCache, error) {
	cache, _, err := d.driver.CreatePipelineCache(nil, core1_0.PipelineCacheCreateInfo{InitialData: initialData})
	if err != nil {
		return 0, errors.Wrap(err, "create pipeline cache")
	}
	return d.pipelineCaches.put(cache), nil
}

func (d *Device) PipelineCacheData(cache gpu.PipelineCache) ([]byte, error) {
	data, _, err := d.driver.GetPipelineCacheData(d.pipelineCaches.get(cache))
	return data, errors.Wrap(err, "get pipeline cache data")
}

func (d *Device) DestroyPipelineCache(cache gpu.PipelineCache) {
	if c, ok := d.pipelineCaches.take(cache); ok {
		d.driver.DestroyPipelineCache(c, nil)
	}
}

func (d *Device) CreateFramebuffer(info gpu.FramebufferCreateInfo) (gpu.Framebuffer, error) {
	attachments := make([]core1_0.ImageView, len(info.Attachments))
	for i, view := range info.Attachments {
		attachments[i] = d.imageViews.get(view)
	}
	framebuffer, _, err := d.driver.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
		RenderPass:  d.renderPasses.get(info.RenderPass),
		Layers:      1,
		Attachments: attachments,
		Width:       info.Extent.Width,
		Height:      info.Extent.Height,
	})
	if err != nil {
		return 0, errors.Wrap(err, "create framebuffer")
	}
	return d.framebuffers.put(framebuffer), nil
}

func (d *Device) DestroyFramebuffer(framebuffer gpu.Framebuffer) {
	if fb, ok := d.framebuffers.take(framebuffer); ok {
		d.driver.DestroyFramebuffer(fb, nil)
	}
}

func (d *Device) CreateDescriptorSetLayout(bindings ...gpu.DescriptorSetLayoutBinding) (gpu.DescriptorSetLayout, error) {
	out := make([]core1_0.DescriptorSetLayoutBinding, len(bindings))
	for i, b := range bindings {
		out[i] = core1_0.DescriptorSetLayoutBinding{
			Binding:         b.Binding,
			DescriptorType:  core1_0.DescriptorType(b.Type),
			DescriptorCount: b.Count,
			StageFlags:      core1_0.ShaderStageFlags(b.Stages),
		}
	}
	layout, _, err := d.driver.CreateDescriptorSetLayout(nil, core1_0.DescriptorSetLayoutCreateInfo{Bindings: out})
	if err != nil {
		return 0, errors.Wrap(err, "create descriptor set layout")
	}
	return d.setLayouts.put(layout), nil
}

func (d *Device) DestroyDescriptorSetLayout(layout gpu.DescriptorSetLayout) {
	if l, ok := d.setLayouts.take(layout); ok {
		d.driver.DestroyDescriptorSetLayout(l, nil)
	}
}

func (d *Device) CreateDescriptorPool(maxSets int, sizes ...gpu.DescriptorPoolSize) (gpu.DescriptorPool, error) {
	poolSizes := make([]core1_0.DescriptorPoolSize, len(sizes))
	for i, s := range sizes {
		poolSizes[i] = core1_0.DescriptorPoolSize{Type: core1_0.DescriptorType(s.Type), DescriptorCount: s.Count}
	}
	pool, _, err := d.driver.CreateDescriptorPool(nil, core1_0.DescriptorPoolCreateInfo{
		MaxSets:   maxSets,
		PoolSizes: poolSizes,
	})
	if err != nil {
		return 0, errors.Wrap(err, "create descriptor pool")
	}
	return d.descriptorPools.put(pool), nil
}

// DestroyDescriptorPool also releases the sets allocated from the pool.
func (d *Device) DestroyDescriptorPool(pool gpu.DescriptorPool) {
	p, ok := d.descriptorPools.take(pool)
	if !ok {
		return
	}
	for set, owner := range d.setPools {
		if owner == pool {
			d.descriptorSets.take(set)
			delete(d.setPools, set)
		}
	}
	d.driver.DestroyDescriptorPool(p, nil)
}

func (d *Device) AllocateDescriptorSets(pool gpu.DescriptorPool, layouts ...gpu.DescriptorSetLayout) ([]gpu.DescriptorSet, error) {
	setLayouts := make([]core1_0.DescriptorSetLayout, len(layouts))
	for i, l := range layouts {
		setLayouts[i] = d.setLayouts.get(l)
	}
	sets, _, err := d.driver.AllocateDescriptorSets(core1_0.DescriptorSetAllocateInfo{
		DescriptorPool: d.descriptorPools.get(pool),
		SetLayouts:     setLayouts,
	})
	if err != nil {
		return nil, errors.Wrap(err, "allocate descriptor sets")
	}
	out := make([]gpu.DescriptorSet, len(sets))
	for i, set := range sets {
		out[i] = d.descriptorSets.put(set)
		d.setPools[out[i]] = pool
	}
	return out, nil
}

func (d *Device) UpdateDescriptorSets(writes ...gpu.WriteDescriptorSet) error {
	out := make([]core1_0.WriteDescriptorSet, len(writes))
	for i, w := range writes {
		write := core1_0.WriteDescriptorSet{
			DstSet:          d.descriptorSets.get(w.Set),
			DstBinding:      w.Binding,
			DstArrayElement: 0,
			DescriptorType:  core1_0.DescriptorType(w.Type),
		}
		if w.Buffer != nil {
			write.BufferInfo = []core1_0.DescriptorBufferInfo{{
				Buffer: d.buffers.get(w.Buffer.Buffer),
				Offset: w.Buffer.Offset,
				Range:  w.Buffer.Range,
			}}
		}
		if w.Image != nil {
			write.ImageInfo = []core1_0.DescriptorImageInfo{{
				ImageView:   d.imageViews.get(w.Image.View),
				Sampler:     d.samplers.get(w.Image.Sampler),
				ImageLayout: core1_0.ImageLayout(w.Image.Layout),
			}}
		}
		out[i] = write
	}
	return errors.Wrap(d.driver.UpdateDescriptorSets(out, nil), "update descriptor sets")
}

func (d *Device) CreateCommandPool(queueFamily int) (gpu.CommandPool, error) {
	pool, _, err := d.driver.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		Flags:            core1_0.CommandPoolCreateResetBuffer,
		QueueFamilyIndex: queueFamily,
	})
	if err != nil {
		return 0, errors.Wrap(err, "create command pool")
	}
	return d.commandPools.put(pool), nil
}

func (d *Device) DestroyCommandPool(pool gpu.CommandPool) {
	if p, ok := d.commandPools.take(pool); ok {
		d.driver.DestroyCommandPool(p, nil)
	}
}

func (d *Device) AllocateCommandBuffers(pool gpu.CommandPool, count int) ([]gpu.CommandBuffer, error) {
	buffers, _, err := d.driver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        d.commandPools.get(pool),
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: count,
	})
	if err != nil {
		return nil, errors.Wrap(err, "allocate command buffers")
	}
	out := make([]gpu.CommandBuffer, len(buffers))
	for i, b := range buffers {
		out[i] = d.commandBuffers.put(b)
	}
	return out, nil
}

func (d *Device) FreeCommandBuffers(pool gpu.CommandPool, buffers ...gpu.CommandBuffer) {
	var out []core1_0.CommandBuffer
	for _, b := range buffers {
		if cb, ok := d.commandBuffers.take(b); ok {
			out = append(out, cb)
		}
	}
	if len(out) > 0 {
		d.driver.FreeCommandBuffers(out...)
	}
}

func (d *Device) BeginCommandBuffer(buffer gpu.CommandBuffer, oneTimeSubmit bool) error {
	var info core1_0.CommandBufferBeginInfo
	if oneTimeSubmit {
		info.Flags = core1_0.CommandBufferUsageOneTimeSubmit
	}
	_, err := d.driver.BeginCommandBuffer(d.commandBuffers.get(buffer), info)
	return errors.Wrap(err, "begin command buffer")
}

func (d *Device) EndCommandBuffer(buffer gpu.CommandBuffer) error {
	_, err := d.driver.EndCommandBuffer(d.commandBuffers.get(buffer))
	return errors.Wrap(err, "end command buffer")
}

func (d *Device) ResetCommandBuffer(buffer gpu.CommandBuffer) error {
	_, err := d.driver.ResetCommandBuffer(d.commandBuffers.get(buffer), 0)
	return errors.Wrap(err, "reset command buffer")
}

func (d *Device) CmdBeginRenderPass(buffer gpu.CommandBuffer, info gpu.RenderPassBeginInfo) error {
	clearValues, err := fromClearValues(info.ClearValues)
	if err != nil {
		return err
	}
	err = d.driver.CmdBeginRenderPass(d.commandBuffers.get(buffer), core1_0.SubpassContentsInline,
		core1_0.RenderPassBeginInfo{
			RenderPass:  d.renderPasses.get(info.RenderPass),
			Framebuffer: d.framebuffers.get(info.Framebuffer),
			RenderArea: core1_0.Rect2D{
				Offset: core1_0.Offset2D{X: 0, Y: 0},
				Extent: fromExtent(info.Extent),
			},
			ClearValues: clearValues,
		})
	return errors.Wrap(err, "begin render pass")
}

func (d *Device) CmdEndRenderPass(buffer gpu.CommandBuffer) {
	d.driver.CmdEndRenderPass(d.commandBuffers.get(buffer))
}

func (d *Device) CmdBindPipeline(buffer gpu.CommandBuffer, pipeline gpu.Pipeline) {
	d.driver.CmdBindPipeline(d.commandBuffers.get(buffer), core1_0.PipelineBindPointGraphics, d.pipelines.get(pipeline))
}

func (d *Device) CmdBindVertexBuffer(buffer gpu.CommandBuffer, vertices gpu.Buffer) {
	d.driver.CmdBindVertexBuffers(d.commandBuffers.get(buffer), 0, []core1_0.Buffer{d.buffers.get(vertices)}, []int{0})
}

func (d *Device) CmdBindIndexBuffer(buffer gpu.CommandBuffer, indices gpu.Buffer) {
	d.driver.CmdBindIndexBuffer(d.commandBuffers.get(buffer), d.buffers.get(indices), 0, core1_0.IndexTypeUInt32)
}

func (d *Device) CmdBindDescriptorSet(buffer gpu.CommandBuffer, layout gpu.PipelineLayout, set gpu.DescriptorSet) {
	d.driver.CmdBindDescriptorSets(d.commandBuffers.get(buffer), core1_0.PipelineBindPointGraphics, d.pipelineLayouts.get(layout), 0,
		[]core1_0.DescriptorSet{d.descriptorSets.get(set)}, nil)
}

func (d *Device) CmdDrawIndexed(buffer gpu.CommandBuffer, indexCount int) {
	d.driver.CmdDrawIndexed(d.commandBuffers.get(buffer), indexCount, 1, 0, 0, 0)
}

func (d *Device) CmdPipelineBarrier(buffer gpu.CommandBuffer, barrier gpu.ImageBarrier) error {
	mipLevels := barrier.MipLevels
	if mipLevels == 0 {
		mipLevels = 1
	}
	err := d.driver.CmdPipelineBarrier(d.commandBuffers.get(buffer),
		core1_0.PipelineStageFlags(barrier.SrcStage), core1_0.PipelineStageFlags(barrier.DstStage), 0, nil, nil,
		[]core1_0.ImageMemoryBarrier{
			{
				OldLayout:           core1_0.ImageLayout(barrier.OldLayout),
				NewLayout:           core1_0.ImageLayout(barrier.NewLayout),
				SrcQueueFamilyIndex: -1,
				DstQueueFamilyIndex: -1,
				Image:               d.images.get(barrier.Image),
				SubresourceRange: core1_0.ImageSubresourceRange{
					AspectMask:     core1_0.ImageAspectFlags(barrier.Aspect),
					BaseMipLevel:   0,
					LevelCount:     mipLevels,
					BaseArrayLayer: 0,
					LayerCount:     1,
				},
				SrcAccessMask: core1_0.AccessFlags(barrier.SrcAccess),
				DstAccessMask: core1_0.AccessFlags(barrier.DstAccess),
			},
		})
	return errors.Wrapf(err, "transition %s -> %s", barrier.OldLayout, barrier.NewLayout)
}

func (d *Device) CmdCopyBuffer(buffer gpu.CommandBuffer, src, dst gpu.Buffer, size int) error {
	err := d.driver.CmdCopyBuffer(d.commandBuffers.get(buffer), d.buffers.get(src), d.buffers.get(dst),
		core1_0.BufferCopy{
			SrcOffset: 0,
			DstOffset: 0,
			Size:      size,
		})
	return errors.Wrap(err, "copy buffer")
}

func (d *Device) CmdCopyBufferToImage(buffer gpu.CommandBuffer, src gpu.Buffer, dst gpu.Image, width, height int) error {
	err := d.driver.CmdCopyBufferToImage(d.commandBuffers.get(buffer), d.buffers.get(src), d.images.get(dst), core1_0.ImageLayoutTransferDstOptimal,
		core1_0.BufferImageCopy{
			BufferOffset:      0,
			BufferRowLength:   0,
			BufferImageHeight: 0,

			ImageSubresource: core1_0.ImageSubresourceLayers{
				AspectMask:     core1_0.ImageAspectColor,
				MipLevel:       0,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
			ImageOffset: core1_0.Offset3D{X: 0, Y: 0, Z: 0},
			ImageExtent: core1_0.Extent3D{Width: width, Height: height, Depth: 1},
		},
	)
	return errors.Wrap(err, "copy buffer to image")
}

func (d *Device) QueueSubmit(queue gpu.Queue, info gpu.SubmitInfo, fence gpu.Fence) error {
	submit := core1_0.SubmitInfo{}
	for _, s := range info.WaitSemaphores {
		submit.WaitSemaphores = append(submit.WaitSemaphores, d.semaphores.get(s))
	}
	for _, stage := range info.WaitStages {
		submit.WaitDstStageMask = append(submit.WaitDstStageMask, core1_0.PipelineStageFlags(stage))
	}
	for _, cb := range info.CommandBuffers {
		submit.CommandBuffers = append(submit.CommandBuffers, d.commandBuffers.get(cb))
	}
	for _, s := range info.SignalSemaphores {
		submit.SignalSemaphores = append(submit.SignalSemaphores, d.semaphores.get(s))
	}

	var f *core1_0.Fence
	if fence != 0 {
		v := d.fences.get(fence)
		f = &v
	}
	_, err := d.driver.QueueSubmit(d.queues.get(queue), f, submit)
	return errors.Wrap(err, "submit to queue")
}

func (d *Device) QueueWaitIdle(queue gpu.Queue) error {
	_, err := d.driver.QueueWaitIdle(d.queues.get(queue))
	return errors.Wrap(err, "wait for queue idle")
}

func (d *Device) CreateSemaphore() (gpu.Semaphore, error) {
	semaphore, _, err := d.driver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
	if err != nil {
		return 0, errors.Wrap(err, "create semaphore")
	}
	return d.semaphores.put(semaphore), nil
}

func (d *Device) DestroySemaphore(semaphore gpu.Semaphore) {
	if s, ok := d.semaphores.take(semaphore); ok {
		d.driver.DestroySemaphore(s, nil)
	}
}

func (d *Device) CreateFence(signaled bool) (gpu.Fence, error) {
	var info core1_0.FenceCreateInfo
	if signaled {
		info.Flags = core1_0.FenceCreateSignaled
	}
	fence, _, err := d.driver.CreateFence(nil, info)
	if err != nil {
		return 0, errors.Wrap(err, "create fence")
	}
	return d.fences.put(fence), nil
}

func (d *Device) DestroyFence(fence gpu.Fence) {
	if f, ok := d.fences.take(fence); ok {
		d.driver.DestroyFence(f, nil)
	}
}

func (d *Device) WaitForFence(fence gpu.Fence) error {
	_, err := d.driver.WaitForFences(true, common.NoTimeout, d.fences.get(fence))
	return errors.Wrap(err, "wait for fence")
}

func (d *Device) ResetFence(fence gpu.Fence) error {
	_, err := d.driver.ResetFences(d.fences.get(fence))
	return errors.Wrap(err, "reset fence")
}

var _ gpu.Device = (*Device)(nil)
