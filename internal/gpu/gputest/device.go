// Package gputest provides a recording in-memory implementation of the gpu
// interfaces for tests.
package gputest

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/townsend/engine/internal/gpu"
)

// Call is one recorded method invocation.
type Call struct {
	Name string
	Args []any
}

func (c Call) String() string {
	args := make([]string, len(c.Args))
	for i, arg := range c.Args {
		args[i] = fmt.Sprint(arg)
	}
	return c.Name + "(" + strings.Join(args, ", ") + ")"
}

// AcquireResult scripts the outcome of one AcquireNextImage call.
type AcquireResult struct {
	Index  int
	Result gpu.Result
	Err    error
}

// PresentResult scripts the outcome of one QueuePresent call.
type PresentResult struct {
	Result gpu.Result
	Err    error
}

// Device records every call made against it. Exported fields may be edited
// between calls to change what the fake reports.
type Device struct {
	Support gpu.SurfaceSupport
	Formats map[gpu.Format]gpu.FormatProperties

	// Acquires and Presents are consumed in order; when empty the call
	// succeeds, acquiring images round-robin.
	Acquires []AcquireResult
	Presents []PresentResult

	// Fail makes the named method return the error.
	Fail map[string]error

	SwapchainInfos  []gpu.SwapchainCreateInfo
	RenderPassInfos []gpu.RenderPassCreateInfo
	PipelineInfos   []gpu.GraphicsPipelineCreateInfo
	FramebufferInfo []gpu.FramebufferCreateInfo
	ImageInfos      []gpu.ImageCreateInfo
	Barriers        []gpu.ImageBarrier
	Submits         []gpu.SubmitInfo
	PresentInfos    []gpu.PresentInfo
	RenderPassBegin []gpu.RenderPassBeginInfo
	Writes          []gpu.WriteDescriptorSet
	CacheInitial    [][]byte
	CacheData       []byte

	calls      []Call
	next       gpu.Handle
	live       map[gpu.Handle]string
	memory     map[gpu.DeviceMemory][]byte
	images     map[gpu.Swapchain][]gpu.Image
	acquired   int
	destroyed  bool
	queueIndex map[int]gpu.Queue
}

// NewDevice returns a fake reporting a typical desktop surface: 800x600,
// two minimum images, unbounded maximum, sRGB BGRA and FIFO/mailbox.
func NewDevice() *Device {
	return &Device{
		Support: gpu.SurfaceSupport{
			Capabilities: gpu.SurfaceCapabilities{
				MinImageCount:  2,
				MaxImageCount:  0,
				CurrentExtent:  gpu.Extent2D{Width: 800, Height: 600},
				MinImageExtent: gpu.Extent2D{Width: 1, Height: 1},
				MaxImageExtent: gpu.Extent2D{Width: 4096, Height: 4096},
			},
			Formats: []gpu.SurfaceFormat{
				{Format: gpu.FormatB8G8R8A8SRGB, ColorSpace: gpu.ColorSpaceSRGBNonlinear},
			},
			PresentModes: []gpu.PresentMode{gpu.PresentModeFIFO, gpu.PresentModeMailbox},
		},
		Formats: map[gpu.Format]gpu.FormatProperties{
			gpu.FormatD32SFloat: {OptimalTilingFeatures: gpu.FormatFeatureDepthStencilAttachment},
			gpu.FormatR8G8B8A8SRGB: {
				OptimalTilingFeatures: gpu.FormatFeatureSampledImage | gpu.FormatFeatureSampledImageFilterLinear,
			},
		},
		Fail:       map[string]error{},
		live:       map[gpu.Handle]string{},
		memory:     map[gpu.DeviceMemory][]byte{},
		images:     map[gpu.Swapchain][]gpu.Image{},
		queueIndex: map[int]gpu.Queue{},
	}
}

// Calls returns every recorded call in order.
func (d *Device) Calls() []Call {
	return append([]Call(nil), d.calls...)
}

// Names returns the method names of every recorded call in order.
func (d *Device) Names() []string {
	names := make([]string, len(d.calls))
	for i, call := range d.calls {
		names[i] = call.Name
	}
	return names
}

// Count returns how many times the named method was called.
func (d *Device) Count(name string) int {
	n := 0
	for _, call := range d.calls {
		if call.Name == name {
			n++
		}
	}
	return n
}

// Index returns the position of the first call to name whose first argument
// equals arg, starting at from, or -1.
func (d *Device) Index(from int, name string, arg any) int {
	for i := from; i < len(d.calls); i++ {
		call := d.calls[i]
		if call.Name != name {
			continue
		}
		if arg == nil || (len(call.Args) > 0 && call.Args[0] == arg) {
			return i
		}
	}
	return -1
}

// Reset forgets recorded calls and create infos but keeps live objects and
// scripted results.
func (d *Device) Reset() {
	d.calls = nil
	d.SwapchainInfos = nil
	d.RenderPassInfos = nil
	d.PipelineInfos = nil
	d.FramebufferInfo = nil
	d.ImageInfos = nil
	d.Barriers = nil
	d.Submits = nil
	d.PresentInfos = nil
	d.RenderPassBegin = nil
	d.Writes = nil
	d.CacheInitial = nil
}

// FencedSubmits counts QueueSubmit calls that signal a fence. One-shot
// transfer submits pass no fence.
func (d *Device) FencedSubmits() int {
	n := 0
	for _, call := range d.calls {
		if call.Name == "QueueSubmit" && call.Args[0] != gpu.Fence(0) {
			n++
		}
	}
	return n
}

// Live returns the number of created objects of kind not yet destroyed.
func (d *Device) Live(kind string) int {
	n := 0
	for _, k := range d.live {
		if k == kind {
			n++
		}
	}
	return n
}

// Destroyed reports whether Destroy was called.
func (d *Device) Destroyed() bool {
	return d.destroyed
}

// Memory returns the bytes backing an allocation.
func (d *Device) Memory(memory gpu.DeviceMemory) []byte {
	return d.memory[memory]
}

func (d *Device) record(name string, args ...any) error {
	d.calls = append(d.calls, Call{Name: name, Args: args})
	if err, ok := d.Fail[name]; ok {
		return err
	}
	return nil
}

func (d *Device) create(kind string) gpu.Handle {
	d.next++
	d.live[d.next] = kind
	return d.next
}

func (d *Device) release(kind string, handle gpu.Handle) {
	if handle == 0 {
		return
	}
	if d.live[handle] == kind {
		delete(d.live, handle)
	}
}

func (d *Device) Queue(family int) gpu.Queue {
	d.record("Queue", family)
	if q, ok := d.queueIndex[family]; ok {
		return q
	}
	d.next++
	d.queueIndex[family] = gpu.Queue(d.next)
	return d.queueIndex[family]
}

func (d *Device) WaitIdle() error {
	return d.record("WaitIdle")
}

func (d *Device) Destroy() {
	d.record("Destroy")
	d.destroyed = true
}

func (d *Device) SurfaceSupport() (gpu.SurfaceSupport, error) {
	if err := d.record("SurfaceSupport"); err != nil {
		return gpu.SurfaceSupport{}, err
	}
	return d.Support, nil
}

func (d *Device) CreateSwapchain(info gpu.SwapchainCreateInfo) (gpu.Swapchain, error) {
	if err := d.record("CreateSwapchain", info.Extent); err != nil {
		return 0, err
	}
	d.SwapchainInfos = append(d.SwapchainInfos, info)
	swapchain := gpu.Swapchain(d.create("swapchain"))
	images := make([]gpu.Image, info.MinImageCount)
	for i := range images {
		d.next++
		images[i] = gpu.Image(d.next)
	}
	d.images[swapchain] = images
	return swapchain, nil
}

func (d *Device) SwapchainImages(swapchain gpu.Swapchain) ([]gpu.Image, error) {
	if err := d.record("SwapchainImages", swapchain); err != nil {
		return nil, err
	}
	return append([]gpu.Image(nil), d.images[swapchain]...), nil
}

func (d *Device) DestroySwapchain(swapchain gpu.Swapchain) {
	d.record("DestroySwapchain", swapchain)
	d.release("swapchain", gpu.Handle(swapchain))
	delete(d.images, swapchain)
}

func (d *Device) AcquireNextImage(swapchain gpu.Swapchain, signal gpu.Semaphore) (int, gpu.Result, error) {
	if err := d.record("AcquireNextImage", signal, swapchain); err != nil {
		return 0, gpu.ResultSuccess, err
	}
	if _, ok := d.images[swapchain]; !ok {
		return 0, gpu.ResultSuccess, errors.AssertionFailedf("acquire from destroyed swapchain %d", swapchain)
	}
	if len(d.Acquires) > 0 {
		next := d.Acquires[0]
		d.Acquires = d.Acquires[1:]
		return next.Index, next.Result, next.Err
	}
	index := d.acquired % len(d.images[swapchain])
	d.acquired++
	return index, gpu.ResultSuccess, nil
}

func (d *Device) QueuePresent(queue gpu.Queue, info gpu.PresentInfo) (gpu.Result, error) {
	if err := d.record("QueuePresent", info.WaitSemaphore, info.ImageIndex); err != nil {
		return gpu.ResultSuccess, err
	}
	d.PresentInfos = append(d.PresentInfos, info)
	if len(d.Presents) > 0 {
		next := d.Presents[0]
		d.Presents = d.Presents[1:]
		return next.Result, next.Err
	}
	return gpu.ResultSuccess, nil
}

func (d *Device) FormatProperties(format gpu.Format) gpu.FormatProperties {
	d.record("FormatProperties", format)
	return d.Formats[format]
}

func (d *Device) CreateImage(info gpu.ImageCreateInfo) (gpu.Image, gpu.MemoryRequirements, error) {
	if err := d.record("CreateImage", info.Format); err != nil {
		return 0, gpu.MemoryRequirements{}, err
	}
	d.ImageInfos = append(d.ImageInfos, info)
	size := info.Width * info.Height * 4
	return gpu.Image(d.create("image")), gpu.MemoryRequirements{Size: size, MemoryTypeBits: 0xff}, nil
}

func (d *Device) DestroyImage(image gpu.Image) {
	d.record("DestroyImage", image)
	d.release("image", gpu.Handle(image))
}

func (d *Device) CreateImageView(info gpu.ImageViewCreateInfo) (gpu.ImageView, error) {
	if err := d.record("CreateImageView", info.Image); err != nil {
		return 0, err
	}
	return gpu.ImageView(d.create("image view")), nil
}

func (d *Device) DestroyImageView(view gpu.ImageView) {
	d.record("DestroyImageView", view)
	d.release("image view", gpu.Handle(view))
}

func (d *Device) CreateBuffer(size int, usage gpu.BufferUsageFlags) (gpu.Buffer, gpu.MemoryRequirements, error) {
	if err := d.record("CreateBuffer", size, usage); err != nil {
		return 0, gpu.MemoryRequirements{}, err
	}
	return gpu.Buffer(d.create("buffer")), gpu.MemoryRequirements{Size: size, MemoryTypeBits: 0xff}, nil
}

func (d *Device) DestroyBuffer(buffer gpu.Buffer) {
	d.record("DestroyBuffer", buffer)
	d.release("buffer", gpu.Handle(buffer))
}

func (d *Device) AllocateMemory(size int, memoryTypeIndex int) (gpu.DeviceMemory, error) {
	if err := d.record("AllocateMemory", size, memoryTypeIndex); err != nil {
		return 0, err
	}
	memory := gpu.DeviceMemory(d.create("memory"))
	d.memory[memory] = make([]byte, size)
	return memory, nil
}

func (d *Device) FreeMemory(memory gpu.DeviceMemory) {
	d.record("FreeMemory", memory)
	d.release("memory", gpu.Handle(memory))
}

func (d *Device) BindImageMemory(image gpu.Image, memory gpu.DeviceMemory) error {
	return d.record("BindImageMemory", image, memory)
}

func (d *Device) BindBufferMemory(buffer gpu.Buffer, memory gpu.DeviceMemory) error {
	return d.record("BindBufferMemory", buffer, memory)
}

func (d *Device) MapMemory(memory gpu.DeviceMemory, offset, size int) ([]byte, error) {
	if err := d.record("MapMemory", memory, offset, size); err != nil {
		return nil, err
	}
	backing, ok := d.memory[memory]
	if !ok || offset+size > len(backing) {
		return nil, errors.Newf("map %d bytes at %d outside allocation %d", size, offset, memory)
	}
	return backing[offset : offset+size], nil
}

func (d *Device) UnmapMemory(memory gpu.DeviceMemory) {
	d.record("UnmapMemory", memory)
}

func (d *Device) CreateSampler(info gpu.SamplerCreateInfo) (gpu.Sampler, error) {
	if err := d.record("CreateSampler", info.MaxAnisotropy); err != nil {
		return 0, err
	}
	return gpu.Sampler(d.create("sampler")), nil
}

func (d *Device) DestroySampler(sampler gpu.Sampler) {
	d.record("DestroySampler", sampler)
	d.release("sampler", gpu.Handle(sampler))
}

func (d *Device) CreateShaderModule(code []byte) (gpu.ShaderModule, error) {
	if err := d.record("CreateShaderModule", len(code)); err != nil {
		return 0, err
	}
	return gpu.ShaderModule(d.create("shader module")), nil
}

func (d *Device) DestroyShaderModule(module gpu.ShaderModule) {
	d.record("DestroyShaderModule", module)
	d.release("shader module", gpu.Handle(module))
}

func (d *Device) CreateRenderPass(info gpu.RenderPassCreateInfo) (gpu.RenderPass, error) {
	if err := d.record("CreateRenderPass"); err != nil {
		return 0, err
	}
	d.RenderPassInfos = append(d.RenderPassInfos, info)
	return gpu.RenderPass(d.create("render pass")), nil
}

func (d *Device) DestroyRenderPass(renderPass gpu.RenderPass) {
	d.record("DestroyRenderPass", renderPass)
	d.release("render pass", gpu.Handle(renderPass))
}

func (d *Device) CreatePipelineLayout(setLayouts ...gpu.DescriptorSetLayout) (gpu.PipelineLayout, error) {
	if err := d.record("CreatePipelineLayout", len(setLayouts)); err != nil {
		return 0, err
	}
	return gpu.PipelineLayout(d.create("pipeline layout")), nil
}

func (d *Device) DestroyPipelineLayout(layout gpu.PipelineLayout) {
	d.record("DestroyPipelineLayout", layout)
	d.release("pipeline layout", gpu.Handle(layout))
}

func (d *Device) CreateGraphicsPipeline(info gpu.GraphicsPipelineCreateInfo) (gpu.Pipeline, error) {
	if err := d.record("CreateGraphicsPipeline", info.Viewport); err != nil {
		return 0, err
	}
	d.PipelineInfos = append(d.PipelineInfos, info)
	return gpu.Pipeline(d.create("pipeline")), nil
}

func (d *Device) DestroyPipeline(pipeline gpu.Pipeline) {
	d.record("DestroyPipeline", pipeline)
	d.release("pipeline", gpu.Handle(pipeline))
}

func (d *Device) CreatePipelineCache(initialData []byte) (gpu.PipelineCache, error) {
	if err := d.record("CreatePipelineCache", len(initialData)); err != nil {
		return 0, err
	}
	d.CacheInitial = append(d.CacheInitial, initialData)
	return gpu.PipelineCache(d.create("pipeline cache")), nil
}

func (d *Device) PipelineCacheData(cache gpu.PipelineCache) ([]byte, error) {
	if err := d.record("PipelineCacheData", cache); err != nil {
		return nil, err
	}
	return d.CacheData, nil
}

func (d *Device) DestroyPipelineCache(cache gpu.PipelineCache) {
	d.record("DestroyPipelineCache", cache)
	d.release("pipeline cache", gpu.Handle(cache))
}

func (d *Device) CreateFramebuffer(info gpu.FramebufferCreateInfo) (gpu.Framebuffer, error) {
	if err := d.record("CreateFramebuffer", info.Extent); err != nil {
		return 0, err
	}
	d.FramebufferInfo = append(d.FramebufferInfo, info)
	return gpu.Framebuffer(d.create("framebuffer")), nil
}

func (d *Device) DestroyFramebuffer(framebuffer gpu.Framebuffer) {
	d.record("DestroyFramebuffer", framebuffer)
	d.release("framebuffer", gpu.Handle(framebuffer))
}

func (d *Device) CreateDescriptorSetLayout(bindings ...gpu.DescriptorSetLayoutBinding) (gpu.DescriptorSetLayout, error) {
	if err := d.record("CreateDescriptorSetLayout", len(bindings)); err != nil {
		return 0, err
	}
	return gpu.DescriptorSetLayout(d.create("descriptor set layout")), nil
}

func (d *Device) DestroyDescriptorSetLayout(layout gpu.DescriptorSetLayout) {
	d.record("DestroyDescriptorSetLayout", layout)
	d.release("descriptor set layout", gpu.Handle(layout))
}

func (d *Device) CreateDescriptorPool(maxSets int, sizes ...gpu.DescriptorPoolSize) (gpu.DescriptorPool, error) {
	if err := d.record("CreateDescriptorPool", maxSets); err != nil {
		return 0, err
	}
	return gpu.DescriptorPool(d.create("descriptor pool")), nil
}

func (d *Device) DestroyDescriptorPool(pool gpu.DescriptorPool) {
	d.record("DestroyDescriptorPool", pool)
	d.release("descriptor pool", gpu.Handle(pool))
}

func (d *Device) AllocateDescriptorSets(pool gpu.DescriptorPool, layouts ...gpu.DescriptorSetLayout) ([]gpu.DescriptorSet, error) {
	if err := d.record("AllocateDescriptorSets", pool, len(layouts)); err != nil {
		return nil, err
	}
	sets := make([]gpu.DescriptorSet, len(layouts))
	for i := range sets {
		d.next++
		sets[i] = gpu.DescriptorSet(d.next)
	}
	return sets, nil
}

func (d *Device) UpdateDescriptorSets(writes ...gpu.WriteDescriptorSet) error {
	if err := d.record("UpdateDescriptorSets", len(writes)); err != nil {
		return err
	}
	d.Writes = append(d.Writes, writes...)
	return nil
}

func (d *Device) CreateCommandPool(queueFamily int) (gpu.CommandPool, error) {
	if err := d.record("CreateCommandPool", queueFamily); err != nil {
		return 0, err
	}
	return gpu.CommandPool(d.create("command pool")), nil
}

func (d *Device) DestroyCommandPool(pool gpu.CommandPool) {
	d.record("DestroyCommandPool", pool)
	d.release("command pool", gpu.Handle(pool))
}

func (d *Device) AllocateCommandBuffers(pool gpu.CommandPool, count int) ([]gpu.CommandBuffer, error) {
	if err := d.record("AllocateCommandBuffers", pool, count); err != nil {
		return nil, err
	}
	buffers := make([]gpu.CommandBuffer, count)
	for i := range buffers {
		buffers[i] = gpu.CommandBuffer(d.create("command buffer"))
	}
	return buffers, nil
}

func (d *Device) FreeCommandBuffers(pool gpu.CommandPool, buffers ...gpu.CommandBuffer) {
	for _, buffer := range buffers {
		d.record("FreeCommandBuffer", buffer)
		d.release("command buffer", gpu.Handle(buffer))
	}
}

func (d *Device) BeginCommandBuffer(buffer gpu.CommandBuffer, oneTimeSubmit bool) error {
	return d.record("BeginCommandBuffer", buffer, oneTimeSubmit)
}

func (d *Device) EndCommandBuffer(buffer gpu.CommandBuffer) error {
	return d.record("EndCommandBuffer", buffer)
}

func (d *Device) ResetCommandBuffer(buffer gpu.CommandBuffer) error {
	return d.record("ResetCommandBuffer", buffer)
}

func (d *Device) CmdBeginRenderPass(buffer gpu.CommandBuffer, info gpu.RenderPassBeginInfo) error {
	if err := d.record("CmdBeginRenderPass", buffer, info.Framebuffer); err != nil {
		return err
	}
	d.RenderPassBegin = append(d.RenderPassBegin, info)
	return nil
}

func (d *Device) CmdEndRenderPass(buffer gpu.CommandBuffer) {
	d.record("CmdEndRenderPass", buffer)
}

func (d *Device) CmdBindPipeline(buffer gpu.CommandBuffer, pipeline gpu.Pipeline) {
	d.record("CmdBindPipeline", buffer, pipeline)
}

func (d *Device) CmdBindVertexBuffer(buffer gpu.CommandBuffer, vertices gpu.Buffer) {
	d.record("CmdBindVertexBuffer", buffer, vertices)
}

func (d *Device) CmdBindIndexBuffer(buffer gpu.CommandBuffer, indices gpu.Buffer) {
	d.record("CmdBindIndexBuffer", buffer, indices)
}

func (d *Device) CmdBindDescriptorSet(buffer gpu.CommandBuffer, layout gpu.PipelineLayout, set gpu.DescriptorSet) {
	d.record("CmdBindDescriptorSet", buffer, set)
}

func (d *Device) CmdDrawIndexed(buffer gpu.CommandBuffer, indexCount int) {
	d.record("CmdDrawIndexed", buffer, indexCount)
}

func (d *Device) CmdPipelineBarrier(buffer gpu.CommandBuffer, barrier gpu.ImageBarrier) error {
	if err := d.record("CmdPipelineBarrier", buffer, barrier.NewLayout); err != nil {
		return err
	}
	d.Barriers = append(d.Barriers, barrier)
	return nil
}

func (d *Device) CmdCopyBuffer(buffer gpu.CommandBuffer, src, dst gpu.Buffer, size int) error {
	return d.record("CmdCopyBuffer", buffer, src, dst, size)
}

func (d *Device) CmdCopyBufferToImage(buffer gpu.CommandBuffer, src gpu.Buffer, dst gpu.Image, width, height int) error {
	return d.record("CmdCopyBufferToImage", buffer, src, dst, width, height)
}

func (d *Device) QueueSubmit(queue gpu.Queue, info gpu.SubmitInfo, fence gpu.Fence) error {
	if err := d.record("QueueSubmit", fence); err != nil {
		return err
	}
	d.Submits = append(d.Submits, info)
	return nil
}

func (d *Device) QueueWaitIdle(queue gpu.Queue) error {
	return d.record("QueueWaitIdle", queue)
}

func (d *Device) CreateSemaphore() (gpu.Semaphore, error) {
	if err := d.record("CreateSemaphore"); err != nil {
		return 0, err
	}
	return gpu.Semaphore(d.create("semaphore")), nil
}

func (d *Device) DestroySemaphore(semaphore gpu.Semaphore) {
	d.record("DestroySemaphore", semaphore)
	d.release("semaphore", gpu.Handle(semaphore))
}

func (d *Device) CreateFence(signaled bool) (gpu.Fence, error) {
	if err := d.record("CreateFence", signaled); err != nil {
		return 0, err
	}
	return gpu.Fence(d.create("fence")), nil
}

func (d *Device) DestroyFence(fence gpu.Fence) {
	d.record("DestroyFence", fence)
	d.release("fence", gpu.Handle(fence))
}

func (d *Device) WaitForFence(fence gpu.Fence) error {
	return d.record("WaitForFence", fence)
}

func (d *Device) ResetFence(fence gpu.Fence) error {
	return d.record("ResetFence", fence)
}

var _ gpu.Device = (*Device)(nil)
