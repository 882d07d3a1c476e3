package gpu

// Instance is the pre-device half of a backend.
type Instance interface {
	PhysicalDevices() ([]PhysicalDevice, error)
	CreateDevice(physical PhysicalDevice, info DeviceCreateInfo) (Device, error)
	Destroy()
}

// Device is a logical device together with the presentable surface it was
// created for. Device and queue handles are read-only after creation.
type Device interface {
	Queue(family int) Queue
	WaitIdle() error
	Destroy()

	Presenter
	Resources
	Pipelines
	Descriptors
	Commands
	Sync
}

type Presenter interface {
	SurfaceSupport() (SurfaceSupport, error)
	CreateSwapchain(info SwapchainCreateInfo) (Swapchain, error)
	SwapchainImages(swapchain Swapchain) ([]Image, error)
	DestroySwapchain(swapchain Swapchain)
	// AcquireNextImage blocks without timeout until an image is available.
	AcquireNextImage(swapchain Swapchain, signal Semaphore) (int, Result, error)
	QueuePresent(queue Queue, info PresentInfo) (Result, error)
}

type Resources interface {
	FormatProperties(format Format) FormatProperties

	CreateImage(info ImageCreateInfo) (Image, MemoryRequirements, error)
	DestroyImage(image Image)
	CreateImageView(info ImageViewCreateInfo) (ImageView, error)
	DestroyImageView(view ImageView)

	CreateBuffer(size int, usage BufferUsageFlags) (Buffer, MemoryRequirements, error)
	DestroyBuffer(buffer Buffer)

	AllocateMemory(size int, memoryTypeIndex int) (DeviceMemory, error)
	FreeMemory(memory DeviceMemory)
	BindImageMemory(image Image, memory DeviceMemory) error
	BindBufferMemory(buffer Buffer, memory DeviceMemory) error
	// MapMemory returns a host view of size bytes valid until UnmapMemory.
	MapMemory(memory DeviceMemory, offset, size int) ([]byte, error)
	UnmapMemory(memory DeviceMemory)

	CreateSampler(info SamplerCreateInfo) (Sampler, error)
	DestroySampler(sampler Sampler)
}

type Pipelines interface {
	CreateShaderModule(code []byte) (ShaderModule, error)
	DestroyShaderModule(module ShaderModule)
	CreateRenderPass(info RenderPassCreateInfo) (RenderPass, error)
	DestroyRenderPass(renderPass RenderPass)
	CreatePipelineLayout(setLayouts ...DescriptorSetLayout) (PipelineLayout, error)
	DestroyPipelineLayout(layout PipelineLayout)
	CreateGraphicsPipeline(info GraphicsPipelineCreateInfo) (Pipeline, error)
	DestroyPipeline(pipeline Pipeline)
	CreatePipelineCache(initialData []byte) (PipelineCache, error)
	PipelineCacheData(cache PipelineCache) ([]byte, error)
	DestroyPipelineCache(cache PipelineCache)
	CreateFramebuffer(info FramebufferCreateInfo) (Framebuffer, error)
	DestroyFramebuffer(framebuffer Framebuffer)
}

type Descriptors interface {
	CreateDescriptorSetLayout(bindings ...DescriptorSetLayoutBinding) (DescriptorSetLayout, error)
	DestroyDescriptorSetLayout(layout DescriptorSetLayout)
	CreateDescriptorPool(maxSets int, sizes ...DescriptorPoolSize) (DescriptorPool, error)
	DestroyDescriptorPool(pool DescriptorPool)
	AllocateDescriptorSets(pool DescriptorPool, layouts ...DescriptorSetLayout) ([]DescriptorSet, error)
	UpdateDescriptorSets(writes ...WriteDescriptorSet) error
}

type Commands interface {
	CreateCommandPool(queueFamily int) (CommandPool, error)
	DestroyCommandPool(pool CommandPool)
	AllocateCommandBuffers(pool CommandPool, count int) ([]CommandBuffer, error)
	FreeCommandBuffers(pool CommandPool, buffers ...CommandBuffer)

	BeginCommandBuffer(buffer CommandBuffer, oneTimeSubmit bool) error
	EndCommandBuffer(buffer CommandBuffer) error
	ResetCommandBuffer(buffer CommandBuffer) error

	CmdBeginRenderPass(buffer CommandBuffer, info RenderPassBeginInfo) error
	CmdEndRenderPass(buffer CommandBuffer)
	CmdBindPipeline(buffer CommandBuffer, pipeline Pipeline)
	CmdBindVertexBuffer(buffer CommandBuffer, vertices Buffer)
	CmdBindIndexBuffer(buffer CommandBuffer, indices Buffer)
	CmdBindDescriptorSet(buffer CommandBuffer, layout PipelineLayout, set DescriptorSet)
	CmdDrawIndexed(buffer CommandBuffer, indexCount int)
	CmdPipelineBarrier(buffer CommandBuffer, barrier ImageBarrier) error
	CmdCopyBuffer(buffer CommandBuffer, src, dst Buffer, size int) error
	CmdCopyBufferToImage(buffer CommandBuffer, src Buffer, dst Image, width, height int) error

	QueueSubmit(queue Queue, info SubmitInfo, fence Fence) error
	QueueWaitIdle(queue Queue) error
}

type Sync interface {
	CreateSemaphore() (Semaphore, error)
	DestroySemaphore(semaphore Semaphore)
	CreateFence(signaled bool) (Fence, error)
	DestroyFence(fence Fence)
	// WaitForFence blocks without timeout until the fence is signaled.
	WaitForFence(fence Fence) error
	ResetFence(fence Fence) error
}
