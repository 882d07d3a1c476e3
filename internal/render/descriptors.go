package render

import (
	"github.com/cockroachdb/errors"

	"github.com/townsend/engine/internal/gpu"
)

// NewDescriptorSetLayout declares the uniform buffer at binding 0 for the
// vertex stage and the texture sampler at binding 1 for the fragment stage.
func NewDescriptorSetLayout(device gpu.Device) (gpu.DescriptorSetLayout, error) {
	layout, err := device.CreateDescriptorSetLayout(
		gpu.DescriptorSetLayoutBinding{
			Binding: 0,
			Type:    gpu.DescriptorTypeUniformBuffer,
			Count:   1,
			Stages:  gpu.ShaderStageVertex,
		},
		gpu.DescriptorSetLayoutBinding{
			Binding: 1,
			Type:    gpu.DescriptorTypeCombinedImageSampler,
			Count:   1,
			Stages:  gpu.ShaderStageFragment,
		},
	)
	return layout, errors.Wrap(err, "create descriptor set layout")
}

// DescriptorSets owns a uniform buffer and a descriptor set per frame slot.
// They survive swapchain recreation.
type DescriptorSets struct {
	Pool     gpu.DescriptorPool
	Sets     []gpu.DescriptorSet
	Uniforms []*Buffer
}

func NewDescriptorSets(ctx *Context, layout gpu.DescriptorSetLayout, texture *Texture, framesInFlight int) (*DescriptorSets, error) {
	device := ctx.Device
	pool, err := device.CreateDescriptorPool(framesInFlight,
		gpu.DescriptorPoolSize{Type: gpu.DescriptorTypeUniformBuffer, Count: framesInFlight},
		gpu.DescriptorPoolSize{Type: gpu.DescriptorTypeCombinedImageSampler, Count: framesInFlight},
	)
	if err != nil {
		return nil, errors.Wrap(err, "create descriptor pool")
	}
	sets := &DescriptorSets{Pool: pool}

	for i := 0; i < framesInFlight; i++ {
		uniform, err := NewBuffer(ctx, UniformBufferSize, gpu.BufferUsageUniformBuffer,
			gpu.MemoryPropertyHostVisible|gpu.MemoryPropertyHostCoherent)
		if err != nil {
			sets.Destroy(device)
			return nil, errors.Wrapf(err, "create uniform buffer %d", i)
		}
		sets.Uniforms = append(sets.Uniforms, uniform)
	}

	layouts := make([]gpu.DescriptorSetLayout, framesInFlight)
	for i := range layouts {
		layouts[i] = layout
	}
	sets.Sets, err = device.AllocateDescriptorSets(pool, layouts...)
	if err != nil {
		sets.Destroy(device)
		return nil, errors.Wrap(err, "allocate descriptor sets")
	}
	if err := sets.Write(device, texture); err != nil {
		sets.Destroy(device)
		return nil, err
	}
	return sets, nil
}

// Write points every set at its slot's uniform buffer and the texture.
func (d *DescriptorSets) Write(device gpu.Device, texture *Texture) error {
	writes := make([]gpu.WriteDescriptorSet, 0, 2*len(d.Sets))
	for i, set := range d.Sets {
		writes = append(writes,
			gpu.WriteDescriptorSet{
				Set:     set,
				Binding: 0,
				Type:    gpu.DescriptorTypeUniformBuffer,
				Buffer: &gpu.DescriptorBufferInfo{
					Buffer: d.Uniforms[i].Handle,
					Range:  UniformBufferSize,
				},
			},
			gpu.WriteDescriptorSet{
				Set:     set,
				Binding: 1,
				Type:    gpu.DescriptorTypeCombinedImageSampler,
				Image: &gpu.DescriptorImageInfo{
					View:    texture.View,
					Sampler: texture.Sampler,
					Layout:  gpu.ImageLayoutShaderReadOnlyOptimal,
				},
			},
		)
	}
	return errors.Wrap(device.UpdateDescriptorSets(writes...), "update descriptor sets")
}

func (d *DescriptorSets) Destroy(device gpu.Device) {
	for _, uniform := range d.Uniforms {
		uniform.Destroy(device)
	}
	d.Uniforms = nil
	device.DestroyDescriptorPool(d.Pool)
}
