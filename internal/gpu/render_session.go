//go:build !nogpu

package gpu

import (
	"fmt"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// copyPitchAlignment is the required BytesPerRow alignment for
// texture-to-buffer copies.
const copyPitchAlignment = 256

// msaaTarget is the multisampled color attachment that resolves into the
// caller's view. Recreated when the size changes.
type msaaTarget struct {
	tex    hal.Texture
	view   hal.TextureView
	width  uint32
	height uint32
}

func (m *msaaTarget) ensure(device hal.Device, width, height uint32, format gputypes.TextureFormat, samples uint32) error {
	if m.view != nil && m.width == width && m.height == height {
		return nil
	}
	m.destroy(device)

	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "spine_msaa_color",
		Size:          hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   samples,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("create msaa texture: %w", err)
	}
	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "spine_msaa_color_view",
		Format:        format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		device.DestroyTexture(tex)
		return fmt.Errorf("create msaa texture view: %w", err)
	}
	m.tex, m.view = tex, view
	m.width, m.height = width, height
	return nil
}

func (m *msaaTarget) destroy(device hal.Device) {
	if m.view != nil {
		device.DestroyTextureView(m.view)
		m.view = nil
	}
	if m.tex != nil {
		device.DestroyTexture(m.tex)
		m.tex = nil
	}
	m.width, m.height = 0, 0
}

// RenderToView encodes one render pass that clears view to clear and draws
// the prepared frame, then submits it and waits for completion. With
// SampleCount > 1 the pass renders into an internal multisampled target
// that resolves into view.
func (r *MeshRenderer) RenderToView(view hal.TextureView, width, height uint32, clear gputypes.Color, frame *Frame) error {
	if view == nil {
		return fmt.Errorf("gpu: nil target view")
	}
	if err := r.ensureResources(); err != nil {
		return err
	}

	attachment := hal.RenderPassColorAttachment{
		View:       view,
		LoadOp:     gputypes.LoadOpClear,
		StoreOp:    gputypes.StoreOpStore,
		ClearValue: clear,
	}
	if r.config.SampleCount > 1 {
		if err := r.msaa.ensure(r.device, width, height, r.config.Format, r.config.SampleCount); err != nil {
			return err
		}
		attachment.View = r.msaa.view
		attachment.ResolveTarget = view
	}

	encoder, err := r.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "spine_encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("spine_frame"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label:            "spine_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{attachment},
	})
	r.RecordDraws(rp, frame)
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer r.device.FreeCommandBuffer(cmdBuf)

	if _, err := r.queue.Submit([]hal.CommandBuffer{cmdBuf}); err != nil {
		return fmt.Errorf("submit: %w", err)
	}

	// The command buffer is freed on return, so the GPU must be done with it.
	if err := r.device.WaitIdle(); err != nil {
		return fmt.Errorf("wait for GPU: %w", err)
	}
	return nil
}

// OffscreenTarget is a single-sampled color texture that can be rendered
// to and read back.
type OffscreenTarget struct {
	Width  uint32
	Height uint32
	Format gputypes.TextureFormat

	tex  hal.Texture
	view hal.TextureView
}

// NewOffscreenTarget creates a render target of the given size and format.
func NewOffscreenTarget(device hal.Device, width, height uint32, format gputypes.TextureFormat) (*OffscreenTarget, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("gpu: offscreen target has zero size %dx%d", width, height)
	}
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "spine_offscreen",
		Size:          hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("create offscreen texture: %w", err)
	}
	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "spine_offscreen_view",
		Format:        format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		device.DestroyTexture(tex)
		return nil, fmt.Errorf("create offscreen texture view: %w", err)
	}
	return &OffscreenTarget{Width: width, Height: height, Format: format, tex: tex, view: view}, nil
}

// View returns the target's texture view.
func (t *OffscreenTarget) View() hal.TextureView {
	return t.view
}

// Destroy releases the target. Safe to call multiple times.
func (t *OffscreenTarget) Destroy(device hal.Device) {
	if t.view != nil {
		device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		device.DestroyTexture(t.tex)
		t.tex = nil
	}
}

// ReadPixels copies the target to a staging buffer and returns tightly
// packed RGBA8 rows, swizzling BGRA targets.
func (t *OffscreenTarget) ReadPixels(device hal.Device, queue hal.Queue) ([]byte, error) {
	if t.tex == nil {
		return nil, fmt.Errorf("gpu: offscreen target has been destroyed")
	}
	bytesPerRow := t.Width * 4
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(t.Height)

	staging, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "spine_readback",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	defer device.DestroyBuffer(staging)

	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "spine_readback_encoder"})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("spine_readback"); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(t.tex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: t.Height},
		TextureBase:  hal.ImageCopyTexture{Texture: t.tex, MipLevel: 0},
		Size:         hal.Extent3D{Width: t.Width, Height: t.Height, DepthOrArrayLayers: 1},
	}})
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	defer device.FreeCommandBuffer(cmdBuf)

	if _, err := queue.Submit([]hal.CommandBuffer{cmdBuf}); err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	if err := device.WaitIdle(); err != nil {
		return nil, fmt.Errorf("wait for GPU: %w", err)
	}

	mapping, err := device.MapBuffer(staging, 0, stagingSize)
	if err != nil {
		return nil, fmt.Errorf("map staging buffer: %w", err)
	}
	mapped := unsafe.Slice((*byte)(mapping.Ptr), stagingSize)

	out := make([]byte, uint64(bytesPerRow)*uint64(t.Height))
	for row := uint32(0); row < t.Height; row++ {
		src := uint64(row) * uint64(alignedBytesPerRow)
		dst := uint64(row) * uint64(bytesPerRow)
		copy(out[dst:dst+uint64(bytesPerRow)], mapped[src:src+uint64(bytesPerRow)])
	}
	if err := device.UnmapBuffer(staging); err != nil {
		return nil, fmt.Errorf("unmap staging buffer: %w", err)
	}

	if t.Format == gputypes.TextureFormatBGRA8Unorm || t.Format == gputypes.TextureFormatBGRA8UnormSrgb {
		swapRedBlue(out)
	}
	return out, nil
}

// swapRedBlue converts BGRA8 pixels to RGBA8 in place.
func swapRedBlue(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
}
