//go:build !nogpu

package spine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/spine/internal/gpu"
)

func init() {
	registerLoggerHook(gpu.SetLogger)
}

// Renderer draws meshes with the tint pipeline on a GPU device.
//
// Textures are uploaded the first time a mesh references them and stay
// resident until ReleaseTexture or Close. The caller owns the Texture
// values and must not change their pixmaps while they are resident.
//
// Renderer is safe for concurrent use; calls are serialized.
type Renderer struct {
	mu       sync.Mutex
	device   hal.Device
	queue    hal.Queue
	cfg      Config
	mesh     *gpu.MeshRenderer
	textures map[*Texture]*gpu.Texture
	view     mgl32.Mat4
	staging  []byte
	draws    []gpu.MeshDraw
	closed   bool
}

// NewRenderer creates a renderer on the device of a gpucontext provider,
// such as a gogpu window. The color target format defaults to the
// provider's surface format.
func NewRenderer(provider gpucontext.DeviceProvider, cfg Config) (*Renderer, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	device, ok := provider.Device().(hal.Device)
	if !ok {
		return nil, fmt.Errorf("%w: device is %T", ErrUnsupportedDevice, provider.Device())
	}
	queue, ok := provider.Queue().(hal.Queue)
	if !ok {
		return nil, fmt.Errorf("%w: queue is %T", ErrUnsupportedDevice, provider.Queue())
	}
	if cfg.TargetFormat == gputypes.TextureFormatUndefined {
		cfg.TargetFormat = provider.SurfaceFormat()
	}

	info := provider.AdapterInfo()
	Logger().Info("spine: GPU renderer created",
		"adapter", info.Name,
		"type", info.Type,
		"format", cfg.TargetFormat.String(),
	)
	return NewRendererWithDevice(device, queue, cfg)
}

// NewRendererWithDevice creates a renderer on an existing device and queue.
func NewRendererWithDevice(device hal.Device, queue hal.Queue, cfg Config) (*Renderer, error) {
	if device == nil || queue == nil {
		return nil, fmt.Errorf("%w: nil device or queue", ErrUnsupportedDevice)
	}
	cfg = cfg.withDefaults()
	if cfg.TargetFormat == gputypes.TextureFormatUndefined {
		cfg.TargetFormat = gputypes.TextureFormatRGBA8Unorm
	}
	return &Renderer{
		device: device,
		queue:  queue,
		cfg:    cfg,
		mesh: gpu.NewMeshRenderer(device, queue, gpu.Config{
			MaxVertices: cfg.MaxVertices,
			MaxIndices:  cfg.MaxIndices,
			Format:      cfg.TargetFormat,
			CullMode:    cfg.CullMode,
			SampleCount: cfg.SampleCount,
		}),
		textures: make(map[*Texture]*gpu.Texture),
		view:     mgl32.Ident4(),
	}, nil
}

// Config returns the effective configuration.
func (r *Renderer) Config() Config {
	return r.cfg
}

// SetScene sets the view from a scene placement and the target size.
func (r *Renderer) SetScene(s Scene, width, height int) {
	r.SetView(s.View(float32(width), float32(height)))
}

// SetView sets the transform applied to every vertex.
func (r *Renderer) SetView(m mgl32.Mat4) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.view = m
}

// Render clears view to clear and draws meshes in order. The target must
// be width x height and of the configured format. premultiplied selects
// the blend states for premultiplied-alpha atlases. The whole frame is
// validated before anything is uploaded.
func (r *Renderer) Render(view hal.TextureView, width, height uint32, clear RGBA, meshes []Mesh, premultiplied bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if width == 0 || height == 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}

	frame, err := r.prepare(meshes, premultiplied)
	if err != nil {
		return err
	}
	c := gputypes.Color{R: float64(clear.R), G: float64(clear.G), B: float64(clear.B), A: float64(clear.A)}
	return r.mesh.RenderToView(view, width, height, c, frame)
}

// RenderToPixmap renders into an offscreen texture and reads it back.
func (r *Renderer) RenderToPixmap(width, height int, clear RGBA, meshes []Mesh, premultiplied bool) (*Pixmap, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	target, err := gpu.NewOffscreenTarget(r.device, uint32(width), uint32(height), r.cfg.TargetFormat) //nolint:gosec // checked positive
	if err != nil {
		return nil, err
	}
	defer target.Destroy(r.device)

	if err := r.Render(target.View(), target.Width, target.Height, clear, meshes, premultiplied); err != nil {
		return nil, err
	}
	pix, err := target.ReadPixels(r.device, r.queue)
	if err != nil {
		return nil, err
	}
	pm := NewPixmap(width, height)
	copy(pm.data, pix)
	return pm, nil
}

// prepare validates the frame, uploads missing textures and the view, and
// packs the meshes into the shared buffers.
func (r *Renderer) prepare(meshes []Mesh, premultiplied bool) (*gpu.Frame, error) {
	if err := validateFrame(meshes, r.cfg); err != nil {
		return nil, err
	}
	if err := r.mesh.SetView(MatrixBytes(r.view)); err != nil {
		return nil, err
	}

	r.draws = r.draws[:0]
	var vertexBytes int
	for i := range meshes {
		if !meshes[i].Empty() {
			vertexBytes += len(meshes[i].Vertices) * VertexStride
		}
	}
	if cap(r.staging) < vertexBytes {
		r.staging = make([]byte, 0, vertexBytes)
	}
	staging := r.staging[:0]

	for i := range meshes {
		m := &meshes[i]
		if m.Empty() {
			continue
		}
		tex, err := r.texture(m.Texture)
		if err != nil {
			return nil, fmt.Errorf("mesh %d: %w", i, err)
		}
		start := len(staging)
		staging = EncodeVertices(staging, m.Vertices)
		r.draws = append(r.draws, gpu.MeshDraw{
			Vertices: staging[start:],
			Indices:  m.Indices,
			Blend:    m.BlendMode.State(premultiplied),
			Texture:  tex,
		})
	}
	r.staging = staging

	frame, err := r.mesh.Prepare(r.draws)
	if errors.Is(err, gpu.ErrFrameTooLarge) {
		return nil, fmt.Errorf("%w: %w", ErrCapacityExceeded, err)
	}
	return frame, err
}

// texture returns the resident upload of t, uploading it on first use.
func (r *Renderer) texture(t *Texture) (*gpu.Texture, error) {
	if gt, ok := r.textures[t]; ok {
		return gt, nil
	}
	pm := t.Pixmap
	gt, err := gpu.NewTexture(r.device, r.queue, t.Name,
		uint32(pm.Width()), uint32(pm.Height()), pm.Data(), //nolint:gosec // pixmap sizes are non-negative
		samplerDescriptor(t.Sampler))
	if err != nil {
		return nil, err
	}
	r.textures[t] = gt
	return gt, nil
}

func samplerDescriptor(s Sampler) *hal.SamplerDescriptor {
	return &hal.SamplerDescriptor{
		AddressModeU: s.AddressModeU,
		AddressModeV: s.AddressModeV,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    s.MagFilter,
		MinFilter:    s.MinFilter,
		MipmapFilter: gputypes.FilterModeNearest,
		LodMaxClamp:  32,
	}
}

// ResidentTextures returns the number of uploaded textures.
func (r *Renderer) ResidentTextures() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.textures)
}

// ReleaseTexture frees the GPU copy of t. The next frame that uses t
// uploads it again.
func (r *Renderer) ReleaseTexture(t *Texture) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gt, ok := r.textures[t]; ok {
		gt.Destroy(r.device)
		delete(r.textures, t)
	}
}

// Close releases every GPU resource held by the renderer. The device and
// queue stay open. Close is safe to call multiple times.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	for t, gt := range r.textures {
		gt.Destroy(r.device)
		delete(r.textures, t)
	}
	r.mesh.Destroy()
	return nil
}
