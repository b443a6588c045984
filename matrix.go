package spine

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// MatrixSize is the byte size of a 4x4 float32 matrix uniform.
const MatrixSize = 64

// OrthoRH returns a right-handed orthographic projection mapping depth
// [near, far] to [0, 1], the WebGPU clip-space convention. mgl32.Ortho maps
// depth to [-1, 1] and would clip z=0 geometry at near=0.
func OrthoRH(left, right, bottom, top, near, far float32) mgl32.Mat4 {
	rw := 1 / (right - left)
	rh := 1 / (top - bottom)
	r := 1 / (near - far)
	return mgl32.Mat4{
		2 * rw, 0, 0, 0,
		0, 2 * rh, 0, 0,
		0, 0, r, 0,
		-(left + right) * rw, -(top + bottom) * rh, r * near, 1,
	}
}

// MatrixBytes encodes m column-major, little-endian, as a WGSL mat4x4<f32>
// uniform expects.
func MatrixBytes(m mgl32.Mat4) []byte {
	buf := make([]byte, MatrixSize)
	for i, f := range m {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
