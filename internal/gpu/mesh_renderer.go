//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// VertexStride is the byte stride per vertex in the mesh pipeline.
// Layout per vertex:
//
//	position (vec2<f32>) = 8 bytes  (location 0)
//	uv       (vec2<f32>) = 8 bytes  (location 1)
//	light    (vec4<f32>) = 16 bytes (location 2)
//	dark     (vec4<f32>) = 16 bytes (location 3)
//
// Total = 48 bytes per vertex.
const VertexStride = 48

// viewUniformSize is the size of the mat4x4<f32> view uniform.
const viewUniformSize = 64

// copyAlignment is the byte alignment required for buffer writes.
const copyAlignment = 4

var (
	// ErrFrameTooLarge is returned when a frame exceeds the buffer capacity.
	ErrFrameTooLarge = errors.New("gpu: frame exceeds buffer capacity")

	// ErrBadVertexData is returned when vertex bytes are not whole vertices.
	ErrBadVertexData = errors.New("gpu: vertex data is not a multiple of the vertex stride")

	// ErrNilTexture is returned for a draw without a texture.
	ErrNilTexture = errors.New("gpu: draw has no texture")
)

// Config configures a MeshRenderer.
type Config struct {
	MaxVertices int
	MaxIndices  int
	Format      gputypes.TextureFormat
	CullMode    gputypes.CullMode
	SampleCount uint32
}

// DefaultConfig returns 8192-entry buffers, RGBA8Unorm, no culling, no MSAA.
func DefaultConfig() Config {
	return Config{
		MaxVertices: 1 << 13,
		MaxIndices:  1 << 13,
		Format:      gputypes.TextureFormatRGBA8Unorm,
		CullMode:    gputypes.CullModeNone,
		SampleCount: 1,
	}
}

// MeshDraw is one mesh of a frame.
type MeshDraw struct {
	// Vertices are encoded vertices, VertexStride bytes each.
	Vertices []byte

	// Indices index into Vertices, three per triangle.
	Indices []uint16

	// Blend is the color target blend state for this mesh.
	Blend gputypes.BlendState

	// Texture is the atlas page sampled by the fragment stage.
	Texture *Texture
}

// frameDraw is a recorded draw within the shared buffers.
type frameDraw struct {
	blend      gputypes.BlendState
	pipeline   hal.RenderPipeline
	bindGroup  hal.BindGroup
	indexCount uint32
	firstIndex uint32
	baseVertex int32
}

// Frame is a prepared frame: geometry uploaded, draws ready to record.
type Frame struct {
	draws       []frameDraw
	vertexCount int
	indexCount  int
}

// DrawCount returns the number of draws in the frame.
func (f *Frame) DrawCount() int {
	if f == nil {
		return 0
	}
	return len(f.draws)
}

// MeshRenderer draws two-color tinted meshes. All meshes of a frame share
// one vertex buffer and one index buffer; each mesh is a DrawIndexed with
// its own pipeline (one per blend state) and texture bind group.
//
// Bind groups:
//
//	group 0: view matrix uniform (vertex stage)
//	group 1: page texture (binding 0) + sampler (binding 1) (fragment stage)
//
// MeshRenderer is not safe for concurrent use.
type MeshRenderer struct {
	device hal.Device
	queue  hal.Queue
	config Config

	// GPU objects shared by all pipelines.
	shader        hal.ShaderModule
	viewLayout    hal.BindGroupLayout
	textureLayout hal.BindGroupLayout
	pipeLayout    hal.PipelineLayout

	// pipelines holds one pipeline per blend state.
	pipelines map[gputypes.BlendState]hal.RenderPipeline

	// Per-renderer buffers.
	viewBuf       hal.Buffer
	viewBindGroup hal.BindGroup
	vertBuf       hal.Buffer
	indexBuf      hal.Buffer

	// MSAA color target, only when SampleCount > 1.
	msaa msaaTarget

	vertStaging  []byte
	indexStaging []byte
}

// NewMeshRenderer creates a mesh renderer with the given device and queue.
// GPU objects are not created until the first frame or texture.
func NewMeshRenderer(device hal.Device, queue hal.Queue, config Config) *MeshRenderer {
	d := DefaultConfig()
	if config.MaxVertices <= 0 {
		config.MaxVertices = d.MaxVertices
	}
	if config.MaxIndices <= 0 {
		config.MaxIndices = d.MaxIndices
	}
	if config.Format == gputypes.TextureFormatUndefined {
		config.Format = d.Format
	}
	if config.SampleCount == 0 {
		config.SampleCount = d.SampleCount
	}
	return &MeshRenderer{
		device:    device,
		queue:     queue,
		config:    config,
		pipelines: make(map[gputypes.BlendState]hal.RenderPipeline),
	}
}

// Config returns the effective configuration.
func (r *MeshRenderer) Config() Config {
	return r.config
}

// Destroy releases all GPU resources held by the renderer. Textures created
// through the renderer are owned by the caller. Safe to call multiple times.
func (r *MeshRenderer) Destroy() {
	if r.device == nil {
		return
	}
	r.msaa.destroy(r.device)
	for key, p := range r.pipelines {
		r.device.DestroyRenderPipeline(p)
		delete(r.pipelines, key)
	}
	if r.viewBindGroup != nil {
		r.device.DestroyBindGroup(r.viewBindGroup)
		r.viewBindGroup = nil
	}
	if r.indexBuf != nil {
		r.device.DestroyBuffer(r.indexBuf)
		r.indexBuf = nil
	}
	if r.vertBuf != nil {
		r.device.DestroyBuffer(r.vertBuf)
		r.vertBuf = nil
	}
	if r.viewBuf != nil {
		r.device.DestroyBuffer(r.viewBuf)
		r.viewBuf = nil
	}
	if r.pipeLayout != nil {
		r.device.DestroyPipelineLayout(r.pipeLayout)
		r.pipeLayout = nil
	}
	if r.textureLayout != nil {
		r.device.DestroyBindGroupLayout(r.textureLayout)
		r.textureLayout = nil
	}
	if r.viewLayout != nil {
		r.device.DestroyBindGroupLayout(r.viewLayout)
		r.viewLayout = nil
	}
	if r.shader != nil {
		r.device.DestroyShaderModule(r.shader)
		r.shader = nil
	}
}

// ensureResources creates the shader, layouts, buffers and the view bind
// group if they don't already exist.
func (r *MeshRenderer) ensureResources() error {
	if r.viewBindGroup != nil {
		return nil
	}
	if err := r.createLayouts(); err != nil {
		return err
	}
	return r.createBuffers()
}

func (r *MeshRenderer) createLayouts() error {
	if spineShaderSource == "" {
		return fmt.Errorf("spine shader source is empty")
	}

	shader, err := r.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "spine_shader",
		Source: hal.ShaderSource{WGSL: spineShaderSource},
	})
	if err != nil {
		return fmt.Errorf("compile spine shader: %w", err)
	}
	r.shader = shader

	viewLayout, err := r.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "spine_view_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create spine view layout: %w", err)
	}
	r.viewLayout = viewLayout

	textureLayout, err := r.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "spine_texture_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create spine texture layout: %w", err)
	}
	r.textureLayout = textureLayout

	pipeLayout, err := r.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "spine_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{r.viewLayout, r.textureLayout},
	})
	if err != nil {
		return fmt.Errorf("create spine pipeline layout: %w", err)
	}
	r.pipeLayout = pipeLayout
	return nil
}

func (r *MeshRenderer) createBuffers() error {
	var err error
	r.viewBuf, err = r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "spine_view_uniform",
		Size:  viewUniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create spine view buffer: %w", err)
	}

	r.vertBuf, err = r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "spine_vertex_buffer",
		Size:  uint64(r.config.MaxVertices) * VertexStride, //nolint:gosec // capacity is positive
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create spine vertex buffer: %w", err)
	}

	r.indexBuf, err = r.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "spine_index_buffer",
		Size:  alignUp(uint64(r.config.MaxIndices)*2, copyAlignment), //nolint:gosec // capacity is positive
		Usage: gputypes.BufferUsageIndex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create spine index buffer: %w", err)
	}

	r.viewBindGroup, err = r.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "spine_view_bind",
		Layout: r.viewLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: r.viewBuf.NativeHandle(),
				Offset: 0,
				Size:   viewUniformSize,
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("create spine view bind group: %w", err)
	}

	slogger().Debug("spine buffers created",
		"vertices", r.config.MaxVertices,
		"indices", r.config.MaxIndices,
	)
	return nil
}

// pipelineFor returns the pipeline for a blend state, creating it on first use.
func (r *MeshRenderer) pipelineFor(blend gputypes.BlendState) (hal.RenderPipeline, error) {
	if p, ok := r.pipelines[blend]; ok {
		return p, nil
	}

	pipeline, err := r.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "spine_pipeline",
		Layout: r.pipeLayout,
		Vertex: hal.VertexState{
			Module:     r.shader,
			EntryPoint: VertexEntryPoint,
			Buffers:    VertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     r.shader,
			EntryPoint: FragmentEntryPoint,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    r.config.Format,
					Blend:     &blend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  gputypes.PrimitiveTopologyTriangleList,
			FrontFace: gputypes.FrontFaceCCW,
			CullMode:  r.config.CullMode,
		},
		Multisample: gputypes.MultisampleState{
			Count: r.config.SampleCount,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create spine pipeline: %w", err)
	}
	r.pipelines[blend] = pipeline

	slogger().Debug("spine pipeline created",
		"color_src", blend.Color.SrcFactor.String(),
		"color_dst", blend.Color.DstFactor.String(),
		"pipelines", len(r.pipelines),
	)
	return pipeline, nil
}

// PipelineCount returns the number of cached pipelines.
func (r *MeshRenderer) PipelineCount() int {
	return len(r.pipelines)
}

// SetView uploads the 64-byte view matrix used by the vertex stage.
func (r *MeshRenderer) SetView(matrix []byte) error {
	if len(matrix) != viewUniformSize {
		return fmt.Errorf("gpu: view matrix is %d bytes, want %d", len(matrix), viewUniformSize)
	}
	if err := r.ensureResources(); err != nil {
		return err
	}
	if err := r.queue.WriteBuffer(r.viewBuf, 0, matrix); err != nil {
		return fmt.Errorf("write spine view buffer: %w", err)
	}
	return nil
}

// Prepare packs all draws into the shared vertex and index buffers and
// resolves their pipelines. Draws with no vertices or indices are skipped.
// Nothing is uploaded if the frame does not fit.
func (r *MeshRenderer) Prepare(draws []MeshDraw) (*Frame, error) {
	if err := r.ensureResources(); err != nil {
		return nil, err
	}

	var vertexBytes, indexCount int
	for i := range draws {
		d := &draws[i]
		if len(d.Vertices)%VertexStride != 0 {
			return nil, fmt.Errorf("draw %d: %w", i, ErrBadVertexData)
		}
		if len(d.Vertices) == 0 || len(d.Indices) == 0 {
			continue
		}
		if d.Texture == nil {
			return nil, fmt.Errorf("draw %d: %w", i, ErrNilTexture)
		}
		vertexBytes += len(d.Vertices)
		indexCount += padIndexCount(len(d.Indices))
	}
	vertexCount := vertexBytes / VertexStride
	if vertexCount > r.config.MaxVertices || indexCount > r.config.MaxIndices {
		return nil, fmt.Errorf("%w: %d vertices (max %d), %d indices (max %d)",
			ErrFrameTooLarge, vertexCount, r.config.MaxVertices, indexCount, r.config.MaxIndices)
	}

	frame := &Frame{vertexCount: vertexCount, indexCount: indexCount}
	if vertexCount == 0 {
		return frame, nil
	}

	r.vertStaging = growBytes(r.vertStaging, vertexBytes)
	r.indexStaging = growBytes(r.indexStaging, indexCount*2)

	var baseVertex, firstIndex int
	for i := range draws {
		d := &draws[i]
		if len(d.Vertices) == 0 || len(d.Indices) == 0 {
			continue
		}
		pipeline, err := r.pipelineFor(d.Blend)
		if err != nil {
			return nil, err
		}
		if err := d.Texture.ensureBindGroup(r.device, r.textureLayout); err != nil {
			return nil, fmt.Errorf("draw %d: %w", i, err)
		}

		copy(r.vertStaging[baseVertex*VertexStride:], d.Vertices)
		putIndices(r.indexStaging[firstIndex*2:], d.Indices)

		frame.draws = append(frame.draws, frameDraw{
			blend:      d.Blend,
			pipeline:   pipeline,
			bindGroup:  d.Texture.bindGroup,
			indexCount: uint32(len(d.Indices)), //nolint:gosec // bounded by MaxIndices
			firstIndex: uint32(firstIndex),     //nolint:gosec // bounded by MaxIndices
			baseVertex: int32(baseVertex),      //nolint:gosec // bounded by MaxVertices
		})
		baseVertex += len(d.Vertices) / VertexStride
		firstIndex += padIndexCount(len(d.Indices))
	}

	if err := r.queue.WriteBuffer(r.vertBuf, 0, r.vertStaging); err != nil {
		return nil, fmt.Errorf("write spine vertex buffer: %w", err)
	}
	if err := r.queue.WriteBuffer(r.indexBuf, 0, r.indexStaging); err != nil {
		return nil, fmt.Errorf("write spine index buffer: %w", err)
	}

	slogger().Debug("spine frame prepared",
		"draws", len(frame.draws),
		"vertices", vertexCount,
		"indices", indexCount,
	)
	return frame, nil
}

// RecordDraws records a prepared frame into an existing render pass.
// This is a no-op if the frame is nil or empty.
func (r *MeshRenderer) RecordDraws(rp hal.RenderPassEncoder, frame *Frame) {
	if frame == nil || len(frame.draws) == 0 {
		return
	}
	rp.SetBindGroup(0, r.viewBindGroup, nil)
	rp.SetVertexBuffer(0, r.vertBuf, 0)
	rp.SetIndexBuffer(r.indexBuf, gputypes.IndexFormatUint16, 0)

	for i := range frame.draws {
		d := &frame.draws[i]
		if i == 0 || d.blend != frame.draws[i-1].blend {
			rp.SetPipeline(d.pipeline)
		}
		rp.SetBindGroup(1, d.bindGroup, nil)
		rp.DrawIndexed(d.indexCount, 1, d.firstIndex, d.baseVertex, 0)
	}
}

// VertexLayout returns the vertex buffer layout for the mesh pipeline.
func VertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: VertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},  // position
				{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},  // uv
				{Format: gputypes.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 2}, // light
				{Format: gputypes.VertexFormatFloat32x4, Offset: 32, ShaderLocation: 3}, // dark
			},
		},
	}
}

// padIndexCount rounds n up so the uint16 indices fill whole 4-byte words.
func padIndexCount(n int) int {
	return n + n%2
}

func putIndices(buf []byte, indices []uint16) {
	for i, idx := range indices {
		binary.LittleEndian.PutUint16(buf[i*2:], idx)
	}
	if len(indices)%2 != 0 {
		binary.LittleEndian.PutUint16(buf[len(indices)*2:], 0)
	}
}

func growBytes(b []byte, n int) []byte {
	if cap(b) < n {
		return make([]byte, n)
	}
	return b[:n]
}

func alignUp(n, align uint64) uint64 {
	return (n + align - 1) &^ (align - 1)
}
