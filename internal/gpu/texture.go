//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Texture is an uploaded atlas page: texture, view, sampler and the
// group 1 bind group pairing them.
type Texture struct {
	Width  uint32
	Height uint32

	texture   hal.Texture
	view      hal.TextureView
	sampler   hal.Sampler
	bindGroup hal.BindGroup
}

// NewTexture creates an RGBA8 texture of the given size, uploads pixels
// (tightly packed, 4 bytes per pixel) and creates its sampler.
func NewTexture(device hal.Device, queue hal.Queue, label string, width, height uint32, pixels []byte, sampler *hal.SamplerDescriptor) (*Texture, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("gpu: texture %q has zero size %dx%d", label, width, height)
	}
	if want := int(width) * int(height) * 4; len(pixels) != want {
		return nil, fmt.Errorf("gpu: texture %q has %d bytes of pixels, want %d", label, len(pixels), want)
	}

	t := &Texture{Width: width, Height: height}
	size := hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1}

	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture %q: %w", label, err)
	}
	t.texture = tex

	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		t.Destroy(device)
		return nil, fmt.Errorf("create texture view %q: %w", label, err)
	}
	t.view = view

	var desc hal.SamplerDescriptor
	if sampler != nil {
		desc = *sampler
	}
	desc.Label = label + "_sampler"
	s, err := device.CreateSampler(&desc)
	if err != nil {
		t.Destroy(device)
		return nil, fmt.Errorf("create sampler %q: %w", label, err)
	}
	t.sampler = s

	if err := queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex, MipLevel: 0},
		pixels,
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: width * 4, RowsPerImage: height},
		&size,
	); err != nil {
		t.Destroy(device)
		return nil, fmt.Errorf("upload texture %q: %w", label, err)
	}

	slogger().Debug("spine texture uploaded", "label", label, "width", width, "height", height)
	return t, nil
}

// ensureBindGroup creates the texture+sampler bind group on first use.
func (t *Texture) ensureBindGroup(device hal.Device, layout hal.BindGroupLayout) error {
	if t.bindGroup != nil {
		return nil
	}
	if t.view == nil || t.sampler == nil {
		return fmt.Errorf("gpu: texture has been destroyed")
	}
	bg, err := device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "spine_texture_bind",
		Layout: layout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.TextureViewBinding{TextureView: t.view.NativeHandle()}},
			{Binding: 1, Resource: gputypes.SamplerBinding{Sampler: t.sampler.NativeHandle()}},
		},
	})
	if err != nil {
		return fmt.Errorf("create texture bind group: %w", err)
	}
	t.bindGroup = bg
	return nil
}

// Destroy releases the texture's GPU objects. Safe to call multiple times.
func (t *Texture) Destroy(device hal.Device) {
	if t.bindGroup != nil {
		device.DestroyBindGroup(t.bindGroup)
		t.bindGroup = nil
	}
	if t.sampler != nil {
		device.DestroySampler(t.sampler)
		t.sampler = nil
	}
	if t.view != nil {
		device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.texture != nil {
		device.DestroyTexture(t.texture)
		t.texture = nil
	}
}
