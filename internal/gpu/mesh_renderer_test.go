//go:build !nogpu

package gpu

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// createNoopDevice creates a noop device and queue for testing.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

// drawCall is one DrawIndexed call seen by recordingPass.
type drawCall struct {
	indexCount, instanceCount, firstIndex uint32
	baseVertex                            int32
	firstInstance                         uint32
}

// recordingPass wraps a render pass and records the calls the mesh
// renderer makes.
type recordingPass struct {
	hal.RenderPassEncoder
	pipelines  int
	bindGroups []uint32
	draws      []drawCall
}

func (p *recordingPass) SetPipeline(pipeline hal.RenderPipeline) {
	p.pipelines++
	p.RenderPassEncoder.SetPipeline(pipeline)
}

func (p *recordingPass) SetBindGroup(index uint32, group hal.BindGroup, offsets []uint32) {
	p.bindGroups = append(p.bindGroups, index)
	p.RenderPassEncoder.SetBindGroup(index, group, offsets)
}

func (p *recordingPass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	p.draws = append(p.draws, drawCall{indexCount, instanceCount, firstIndex, baseVertex, firstInstance})
	p.RenderPassEncoder.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}

func beginRecordingPass(t *testing.T, device hal.Device) (*recordingPass, func()) {
	t.Helper()
	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "test"})
	if err != nil {
		t.Fatalf("CreateCommandEncoder: %v", err)
	}
	if err := encoder.BeginEncoding("test"); err != nil {
		t.Fatalf("BeginEncoding: %v", err)
	}
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{Label: "test"})
	return &recordingPass{RenderPassEncoder: rp}, func() {
		rp.End()
		cmd, err := encoder.EndEncoding()
		if err == nil {
			device.FreeCommandBuffer(cmd)
		}
	}
}

func testTexture(t *testing.T, device hal.Device, queue hal.Queue) *Texture {
	t.Helper()
	tex, err := NewTexture(device, queue, "page", 2, 2, make([]byte, 2*2*4), &hal.SamplerDescriptor{
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
	})
	if err != nil {
		t.Fatalf("NewTexture: %v", err)
	}
	t.Cleanup(func() { tex.Destroy(device) })
	return tex
}

// patternVertices returns n encoded vertices whose bytes start at seed.
func patternVertices(n int, seed byte) []byte {
	b := make([]byte, n*VertexStride)
	for i := range b {
		b[i] = seed + byte(i)
	}
	return b
}

func readBuffer(t *testing.T, device hal.Device, buf hal.Buffer, size uint64) []byte {
	t.Helper()
	m, err := device.MapBuffer(buf, 0, size)
	if err != nil {
		t.Fatalf("MapBuffer: %v", err)
	}
	out := make([]byte, size)
	copy(out, unsafe.Slice((*byte)(m.Ptr), size))
	_ = device.UnmapBuffer(buf)
	return out
}

func TestMeshRendererPreparePacksDraws(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	r := NewMeshRenderer(device, queue, Config{})
	defer r.Destroy()
	tex := testTexture(t, device, queue)

	blend := gputypes.BlendStateAlpha()
	draws := []MeshDraw{
		{Vertices: patternVertices(3, 0), Indices: []uint16{0, 1, 2}, Blend: blend, Texture: tex},
		{Vertices: patternVertices(4, 100), Indices: []uint16{0, 1, 2, 2, 3, 0}, Blend: blend, Texture: tex},
	}
	frame, err := r.Prepare(draws)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if frame.DrawCount() != 2 {
		t.Fatalf("DrawCount = %d, want 2", frame.DrawCount())
	}

	verts := readBuffer(t, device, r.vertBuf, 7*VertexStride)
	want := append(patternVertices(3, 0), patternVertices(4, 100)...)
	if !bytes.Equal(verts, want) {
		t.Error("vertex buffer does not hold both meshes back to back")
	}

	// First mesh has 3 indices, padded to 4.
	idx := readBuffer(t, device, r.indexBuf, 10*2)
	wantIdx := []uint16{0, 1, 2, 0, 0, 1, 2, 2, 3, 0}
	for i, w := range wantIdx {
		if got := binary.LittleEndian.Uint16(idx[i*2:]); got != w {
			t.Errorf("index[%d] = %d, want %d", i, got, w)
		}
	}

	rp, end := beginRecordingPass(t, device)
	r.RecordDraws(rp, frame)
	end()

	wantDraws := []drawCall{
		{indexCount: 3, instanceCount: 1, firstIndex: 0, baseVertex: 0},
		{indexCount: 6, instanceCount: 1, firstIndex: 4, baseVertex: 3},
	}
	if len(rp.draws) != len(wantDraws) {
		t.Fatalf("got %d draws, want %d", len(rp.draws), len(wantDraws))
	}
	for i, w := range wantDraws {
		if rp.draws[i] != w {
			t.Errorf("draw %d = %+v, want %+v", i, rp.draws[i], w)
		}
	}
	if rp.pipelines != 1 {
		t.Errorf("SetPipeline called %d times, want 1 for a single blend state", rp.pipelines)
	}
	// group 0 once, group 1 per draw.
	if len(rp.bindGroups) != 3 || rp.bindGroups[0] != 0 || rp.bindGroups[1] != 1 || rp.bindGroups[2] != 1 {
		t.Errorf("bind groups = %v, want [0 1 1]", rp.bindGroups)
	}
}

func TestMeshRendererPipelinePerBlendState(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	r := NewMeshRenderer(device, queue, Config{})
	defer r.Destroy()
	tex := testTexture(t, device, queue)

	additive := gputypes.BlendState{
		Color: gputypes.BlendComponent{SrcFactor: gputypes.BlendFactorSrcAlpha, DstFactor: gputypes.BlendFactorOne, Operation: gputypes.BlendOperationAdd},
		Alpha: gputypes.BlendComponent{SrcFactor: gputypes.BlendFactorOne, DstFactor: gputypes.BlendFactorOne, Operation: gputypes.BlendOperationAdd},
	}
	draws := []MeshDraw{
		{Vertices: patternVertices(3, 0), Indices: []uint16{0, 1, 2}, Blend: gputypes.BlendStateAlpha(), Texture: tex},
		{Vertices: patternVertices(3, 0), Indices: []uint16{0, 1, 2}, Blend: additive, Texture: tex},
		{Vertices: patternVertices(3, 0), Indices: []uint16{0, 1, 2}, Blend: additive, Texture: tex},
	}
	frame, err := r.Prepare(draws)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if r.PipelineCount() != 2 {
		t.Errorf("PipelineCount = %d, want 2", r.PipelineCount())
	}

	rp, end := beginRecordingPass(t, device)
	r.RecordDraws(rp, frame)
	end()
	if rp.pipelines != 2 {
		t.Errorf("SetPipeline called %d times, want 2", rp.pipelines)
	}

	// A second frame reuses the cached pipelines.
	if _, err := r.Prepare(draws); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if r.PipelineCount() != 2 {
		t.Errorf("PipelineCount after second frame = %d, want 2", r.PipelineCount())
	}
}

func TestMeshRendererCapacity(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	r := NewMeshRenderer(device, queue, Config{MaxVertices: 4, MaxIndices: 6})
	defer r.Destroy()
	tex := testTexture(t, device, queue)

	tests := []struct {
		name  string
		draws []MeshDraw
	}{
		{"vertices", []MeshDraw{
			{Vertices: patternVertices(3, 1), Indices: []uint16{0, 1, 2}, Texture: tex},
			{Vertices: patternVertices(3, 1), Indices: []uint16{0, 1, 2}, Texture: tex},
		}},
		{"padded indices", []MeshDraw{
			{Vertices: patternVertices(1, 1), Indices: []uint16{0, 0, 0}, Texture: tex},
			{Vertices: patternVertices(1, 1), Indices: []uint16{0, 0, 0}, Texture: tex},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Prepare(tt.draws)
			if !errors.Is(err, ErrFrameTooLarge) {
				t.Fatalf("Prepare error = %v, want ErrFrameTooLarge", err)
			}
			if got := readBuffer(t, device, r.vertBuf, 4*VertexStride); !bytes.Equal(got, make([]byte, 4*VertexStride)) {
				t.Error("vertex buffer written for a rejected frame")
			}
		})
	}

	// Exactly at capacity is fine.
	_, err := r.Prepare([]MeshDraw{
		{Vertices: patternVertices(4, 1), Indices: []uint16{0, 1, 2, 2, 3, 0}, Texture: tex},
	})
	if err != nil {
		t.Errorf("Prepare at capacity: %v", err)
	}
}

func TestMeshRendererPrepareErrors(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	r := NewMeshRenderer(device, queue, Config{})
	defer r.Destroy()

	if _, err := r.Prepare([]MeshDraw{{Vertices: make([]byte, 10), Indices: []uint16{0}}}); !errors.Is(err, ErrBadVertexData) {
		t.Errorf("partial vertex: err = %v, want ErrBadVertexData", err)
	}
	if _, err := r.Prepare([]MeshDraw{{Vertices: patternVertices(3, 0), Indices: []uint16{0, 1, 2}}}); !errors.Is(err, ErrNilTexture) {
		t.Errorf("nil texture: err = %v, want ErrNilTexture", err)
	}

	// Empty draws need no texture and produce nothing.
	frame, err := r.Prepare([]MeshDraw{{}, {Vertices: patternVertices(3, 0)}})
	if err != nil {
		t.Fatalf("empty draws: %v", err)
	}
	if frame.DrawCount() != 0 {
		t.Errorf("DrawCount = %d, want 0", frame.DrawCount())
	}

	rp, end := beginRecordingPass(t, device)
	r.RecordDraws(rp, frame)
	r.RecordDraws(rp, nil)
	end()
	if len(rp.draws) != 0 || len(rp.bindGroups) != 0 {
		t.Error("empty frame recorded commands")
	}
}

func TestMeshRendererSetView(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	r := NewMeshRenderer(device, queue, Config{})
	defer r.Destroy()

	if err := r.SetView(make([]byte, 12)); err == nil {
		t.Error("SetView accepted a short matrix")
	}
	m := make([]byte, 64)
	for i := range m {
		m[i] = byte(i)
	}
	if err := r.SetView(m); err != nil {
		t.Fatalf("SetView: %v", err)
	}
	if got := readBuffer(t, device, r.viewBuf, 64); !bytes.Equal(got, m) {
		t.Error("view uniform does not hold the matrix")
	}
}

func TestMeshRendererDestroyIdempotent(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	r := NewMeshRenderer(device, queue, Config{})
	if err := r.SetView(make([]byte, 64)); err != nil {
		t.Fatalf("SetView: %v", err)
	}
	r.Destroy()
	r.Destroy()
	if r.viewBuf != nil || r.vertBuf != nil || r.indexBuf != nil || r.shader != nil || r.PipelineCount() != 0 {
		t.Error("Destroy left resources behind")
	}
}

func TestNewMeshRendererDefaults(t *testing.T) {
	r := NewMeshRenderer(nil, nil, Config{})
	c := r.Config()
	if c.MaxVertices != 1<<13 || c.MaxIndices != 1<<13 {
		t.Errorf("capacities = %d/%d, want 8192/8192", c.MaxVertices, c.MaxIndices)
	}
	if c.Format != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("Format = %v, want RGBA8Unorm", c.Format)
	}
	if c.SampleCount != 1 {
		t.Errorf("SampleCount = %d, want 1", c.SampleCount)
	}
}

func TestVertexLayout(t *testing.T) {
	layouts := VertexLayout()
	if len(layouts) != 1 {
		t.Fatalf("got %d layouts, want 1", len(layouts))
	}
	l := layouts[0]
	if l.ArrayStride != VertexStride {
		t.Errorf("ArrayStride = %d, want %d", l.ArrayStride, VertexStride)
	}
	want := []gputypes.VertexAttribute{
		{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
		{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
		{Format: gputypes.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 2},
		{Format: gputypes.VertexFormatFloat32x4, Offset: 32, ShaderLocation: 3},
	}
	if len(l.Attributes) != len(want) {
		t.Fatalf("got %d attributes, want %d", len(l.Attributes), len(want))
	}
	for i := range want {
		if l.Attributes[i] != want[i] {
			t.Errorf("attribute %d = %+v, want %+v", i, l.Attributes[i], want[i])
		}
	}
}

func TestPadIndexCount(t *testing.T) {
	for n, want := range map[int]int{0: 0, 1: 2, 2: 2, 3: 4, 6: 6, 9: 10} {
		if got := padIndexCount(n); got != want {
			t.Errorf("padIndexCount(%d) = %d, want %d", n, got, want)
		}
	}
}
