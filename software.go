package spine

import (
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/spine/internal/blend"
	"github.com/gogpu/spine/internal/parallel"
	"github.com/gogpu/spine/internal/raster"
)

// SoftwareRenderer draws meshes on the CPU into a Pixmap. It runs the same
// transform and composite stages as the GPU shader and evaluates the same
// blend states, so it serves as a headless renderer and as a reference for
// the GPU path.
//
// SoftwareRenderer is safe for concurrent use; Render calls are serialized.
type SoftwareRenderer struct {
	mu     sync.Mutex
	cfg    Config
	target *Pixmap
	pool   *parallel.Pool
	view   mgl32.Mat4
	closed bool
}

// preparedMesh is a mesh after the transform stage.
type preparedMesh struct {
	mesh  *Mesh
	out   []VertexOutput
	blend gputypes.BlendState
}

// NewSoftwareRenderer creates a renderer with a transparent width x height
// target and the default scene view.
func NewSoftwareRenderer(width, height int, cfg Config) (*SoftwareRenderer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	cfg = cfg.withDefaults()
	r := &SoftwareRenderer{
		cfg:    cfg,
		target: NewPixmap(width, height),
		pool:   parallel.NewPool(cfg.Workers),
		view:   DefaultScene().View(float32(width), float32(height)),
	}
	Logger().Debug("spine: software renderer created",
		"width", width, "height", height, "workers", r.pool.Workers())
	return r, nil
}

// SetScene sets the view from a scene placement and the target size.
func (r *SoftwareRenderer) SetScene(s Scene) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.view = s.View(float32(r.target.Width()), float32(r.target.Height()))
}

// SetView sets the transform applied to every vertex.
func (r *SoftwareRenderer) SetView(m mgl32.Mat4) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.view = m
}

// View returns the current transform.
func (r *SoftwareRenderer) View() mgl32.Mat4 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.view
}

// Pixmap returns the render target.
func (r *SoftwareRenderer) Pixmap() *Pixmap {
	return r.target
}

// Clear fills the target with c.
func (r *SoftwareRenderer) Clear(c RGBA) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.target.Clear(c)
}

// Render draws meshes in order on top of the current target contents.
// premultiplied selects the blend states for premultiplied-alpha atlases.
// The whole frame is validated before anything is drawn.
func (r *SoftwareRenderer) Render(meshes []Mesh, premultiplied bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if err := validateFrame(meshes, r.cfg); err != nil {
		return err
	}

	prepared := make([]preparedMesh, 0, len(meshes))
	for i := range meshes {
		m := &meshes[i]
		if m.Empty() {
			continue
		}
		prepared = append(prepared, preparedMesh{
			mesh:  m,
			out:   TransformVertices(r.view, m.Vertices, nil),
			blend: m.BlendMode.State(premultiplied),
		})
	}
	if len(prepared) == 0 {
		return nil
	}

	vp := raster.Viewport{Width: r.target.Width(), Height: r.target.Height()}
	r.pool.ForEachBand(vp.Height, func(b parallel.Band) {
		for i := range prepared {
			r.drawMesh(vp, b, &prepared[i])
		}
	})

	Logger().Debug("spine: software frame rendered", "meshes", len(prepared))
	return nil
}

// drawMesh rasterizes the rows of band b covered by one mesh.
func (r *SoftwareRenderer) drawMesh(vp raster.Viewport, b parallel.Band, p *preparedMesh) {
	tex := p.mesh.Texture
	idx := p.mesh.Indices
	for t := 0; t+2 < len(idx); t += 3 {
		v0, v1, v2 := &p.out[idx[t]], &p.out[idx[t+1]], &p.out[idx[t+2]]
		raster.Triangle(vp, b.Y0, b.Y1, v0.Clip, v1.Clip, v2.Clip, r.cfg.CullMode,
			func(x, y int, w raster.Weights) {
				uv := v0.UV.Mul(w[0]).Add(v1.UV.Mul(w[1])).Add(v2.UV.Mul(w[2]))
				light := interpolate(v0.Light, v1.Light, v2.Light, w)
				dark := interpolate(v0.Dark, v1.Dark, v2.Dark, w)

				texel := tex.Pixmap.Sample(uv[0], uv[1], tex.Sampler)
				src := Composite(texel, light, dark)
				dst := r.target.GetPixel(x, y)
				out := blend.Apply(p.blend,
					blend.Color{src.R, src.G, src.B, src.A},
					blend.Color{dst.R, dst.G, dst.B, dst.A})
				r.target.SetPixel(x, y, RGBA{R: out[0], G: out[1], B: out[2], A: out[3]})
			})
	}
}

func interpolate(a, b, c RGBA, w raster.Weights) RGBA {
	return RGBA{
		R: a.R*w[0] + b.R*w[1] + c.R*w[2],
		G: a.G*w[0] + b.G*w[1] + c.G*w[2],
		B: a.B*w[0] + b.B*w[1] + c.B*w[2],
		A: a.A*w[0] + b.A*w[1] + c.A*w[2],
	}
}

// Close stops the worker pool. Render fails with ErrClosed afterwards.
// Close is safe to call multiple times.
func (r *SoftwareRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	r.pool.Close()
	return nil
}
