package spine

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// VertexStride is the byte stride of one encoded Vertex.
// Layout per vertex:
//
//	position (vec2<f32>) = 8 bytes  (location 0, offset 0)
//	uv       (vec2<f32>) = 8 bytes  (location 1, offset 8)
//	light    (vec4<f32>) = 16 bytes (location 2, offset 16)
//	dark     (vec4<f32>) = 16 bytes (location 3, offset 32)
//
// Total = 48 bytes per vertex.
const VertexStride = 48

// Vertex is one mesh vertex as produced by the skeleton runtime.
// Light is the multiply tint and Dark the shadow tint; both are straight
// alpha.
type Vertex struct {
	Position mgl32.Vec2
	UV       mgl32.Vec2
	Light    RGBA
	Dark     RGBA
}

// EncodeVertices appends the little-endian encoding of vs to dst and
// returns the extended slice.
func EncodeVertices(dst []byte, vs []Vertex) []byte {
	off := len(dst)
	need := off + len(vs)*VertexStride
	if cap(dst) < need {
		grown := make([]byte, off, need)
		copy(grown, dst)
		dst = grown
	}
	dst = dst[:need]
	for i := range vs {
		writeVertex(dst[off:off+VertexStride], &vs[i])
		off += VertexStride
	}
	return dst
}

func writeVertex(buf []byte, v *Vertex) {
	putF32(buf[0:], v.Position[0])
	putF32(buf[4:], v.Position[1])
	putF32(buf[8:], v.UV[0])
	putF32(buf[12:], v.UV[1])
	putF32(buf[16:], v.Light.R)
	putF32(buf[20:], v.Light.G)
	putF32(buf[24:], v.Light.B)
	putF32(buf[28:], v.Light.A)
	putF32(buf[32:], v.Dark.R)
	putF32(buf[36:], v.Dark.G)
	putF32(buf[40:], v.Dark.B)
	putF32(buf[44:], v.Dark.A)
}

func putF32(b []byte, f float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(f))
}
