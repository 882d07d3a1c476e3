package render

import (
	"github.com/cockroachdb/errors"

	"github.com/townsend/engine/internal/asset"
	"github.com/townsend/engine/internal/gpu"
)

// Texture is a sampled sRGB image and its sampler.
type Texture struct {
	*Image
	Sampler gpu.Sampler
}

func NewTexture(ctx *Context, exec *CommandExecutor, pixels asset.Pixels) (*Texture, error) {
	device := ctx.Device
	if len(pixels.Data) != pixels.Width*pixels.Height*4 {
		return nil, errors.Newf("texture data is %d bytes, want %dx%dx4", len(pixels.Data), pixels.Width, pixels.Height)
	}

	staging, err := NewStagingBuffer(ctx, pixels.Data)
	if err != nil {
		return nil, err
	}
	defer staging.Destroy(device)

	image, err := NewImage(ctx, gpu.ImageCreateInfo{
		Width:     pixels.Width,
		Height:    pixels.Height,
		MipLevels: 1,
		Format:    gpu.FormatR8G8B8A8SRGB,
		Tiling:    gpu.ImageTilingOptimal,
		Usage:     gpu.ImageUsageTransferDst | gpu.ImageUsageSampled,
	}, gpu.ImageAspectColor)
	if err != nil {
		return nil, errors.Wrap(err, "create texture image")
	}

	err = TransitionLayout(ctx, exec, image, gpu.ImageLayoutUndefined, gpu.ImageLayoutTransferDstOptimal)
	if err == nil {
		err = exec.RunOnce(func(cb gpu.CommandBuffer) error {
			return errors.Wrap(device.CmdCopyBufferToImage(cb, staging.Handle, image.Handle, pixels.Width, pixels.Height),
				"copy buffer to image")
		})
	}
	if err == nil {
		err = TransitionLayout(ctx, exec, image, gpu.ImageLayoutTransferDstOptimal, gpu.ImageLayoutShaderReadOnlyOptimal)
	}
	if err != nil {
		image.Destroy(device)
		return nil, errors.Wrap(err, "upload texture")
	}

	sampler, err := device.CreateSampler(gpu.SamplerCreateInfo{
		AnisotropyEnable: ctx.Physical.Features.SamplerAnisotropy,
		MaxAnisotropy:    ctx.Physical.Limits.MaxSamplerAnisotropy,
		MaxLod:           1,
	})
	if err != nil {
		image.Destroy(device)
		return nil, errors.Wrap(err, "create texture sampler")
	}
	return &Texture{Image: image, Sampler: sampler}, nil
}

func (t *Texture) Destroy(device gpu.Device) {
	device.DestroySampler(t.Sampler)
	t.Image.Destroy(device)
}
