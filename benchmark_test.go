package spine

import (
	"fmt"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

// BenchmarkPixmap_Clear benchmarks clearing pixmaps of various sizes.
func BenchmarkPixmap_Clear(b *testing.B) {
	sizes := []struct {
		name   string
		width  int
		height int
	}{
		{"100x100", 100, 100},
		{"512x512", 512, 512},
		{"1920x1080", 1920, 1080},
	}

	for _, size := range sizes {
		b.Run(size.name, func(b *testing.B) {
			pm := NewPixmap(size.width, size.height)
			b.ResetTimer()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				pm.Clear(White)
			}
			b.SetBytes(int64(size.width * size.height * 4))
		})
	}
}

// BenchmarkPixmap_Sample compares nearest and bilinear sampling.
func BenchmarkPixmap_Sample(b *testing.B) {
	pm := NewPixmap(256, 256)
	pm.Clear(RGBA{0.2, 0.4, 0.6, 0.8})
	linear := DefaultSampler()
	nearest := SamplerFor(AtlasPage{})

	for name, s := range map[string]Sampler{"nearest": nearest, "linear": linear} {
		b.Run(name, func(b *testing.B) {
			var sink RGBA
			for i := 0; i < b.N; i++ {
				u := float32(i%256) / 256
				sink = pm.Sample(u, 1-u, s)
			}
			_ = sink
		})
	}
}

func BenchmarkComposite(b *testing.B) {
	tex := RGBA{0.5, 0.25, 0.75, 0.5}
	light := RGBA{1, 0.8, 0.6, 1}
	dark := RGBA{0.1, 0.2, 0.3, 1}
	var sink RGBA
	for i := 0; i < b.N; i++ {
		sink = Composite(tex, light, dark)
	}
	_ = sink
}

func BenchmarkEncodeVertices(b *testing.B) {
	vs := make([]Vertex, 1024)
	for i := range vs {
		vs[i] = Vertex{Position: mgl32.Vec2{float32(i), 1}, Light: White}
	}
	buf := make([]byte, 0, len(vs)*VertexStride)
	b.SetBytes(int64(len(vs) * VertexStride))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		buf = EncodeVertices(buf[:0], vs)
	}
}

// BenchmarkSoftwareRender measures a full-screen quad at several worker
// counts.
func BenchmarkSoftwareRender(b *testing.B) {
	tex := solidTexture(White)
	mesh := fullScreenQuad(tex, RGBA{1, 0.5, 0.25, 0.5}, RGBA{0.1, 0.1, 0.1, 1}, BlendNormal)

	for _, workers := range []int{1, 2, 4, 8} {
		b.Run(fmt.Sprintf("workers=%d", workers), func(b *testing.B) {
			r, err := NewSoftwareRenderer(512, 512, Config{Workers: workers})
			if err != nil {
				b.Fatal(err)
			}
			defer func() { _ = r.Close() }()
			r.SetView(mgl32.Ident4())

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := r.Render([]Mesh{mesh}, false); err != nil {
					b.Fatal(err)
				}
			}
			b.SetBytes(512 * 512 * 4)
		})
	}
}
