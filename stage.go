package spine

import "github.com/go-gl/mathgl/mgl32"

// VertexOutput is the result of the transform stage for one vertex.
// UV, Light and Dark are copied from the input untouched.
type VertexOutput struct {
	Clip  mgl32.Vec4
	UV    mgl32.Vec2
	Light RGBA
	Dark  RGBA
}

// TransformVertex maps a mesh-space vertex to clip space: Clip = m * (x, y, 0, 1).
// No perspective divide is applied. This is the CPU twin of vs_main in the
// tint shader.
func TransformVertex(m mgl32.Mat4, v Vertex) VertexOutput {
	return VertexOutput{
		Clip:  m.Mul4x1(mgl32.Vec4{v.Position[0], v.Position[1], 0, 1}),
		UV:    v.UV,
		Light: v.Light,
		Dark:  v.Dark,
	}
}

// TransformVertices runs TransformVertex over vs, reusing dst's storage.
func TransformVertices(m mgl32.Mat4, vs []Vertex, dst []VertexOutput) []VertexOutput {
	if cap(dst) < len(vs) {
		dst = make([]VertexOutput, len(vs))
	}
	dst = dst[:len(vs)]
	for i := range vs {
		dst[i] = TransformVertex(m, vs[i])
	}
	return dst
}

// Composite applies the two-color tint to a sampled texel:
//
//	rgb = ((tex.a - 1) * dark.a + 1 - tex.rgb) * dark.rgb + tex.rgb * light.rgb
//	a   = tex.a * light.a
//
// Nothing is clamped. This is the CPU twin of fs_main in the tint shader.
func Composite(tex, light, dark RGBA) RGBA {
	backing := (tex.A-1)*dark.A + 1
	return RGBA{
		R: (backing-tex.R)*dark.R + tex.R*light.R,
		G: (backing-tex.G)*dark.G + tex.G*light.G,
		B: (backing-tex.B)*dark.B + tex.B*light.B,
		A: tex.A * light.A,
	}
}
