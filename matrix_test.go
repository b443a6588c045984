package spine

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestMatrixBytes(t *testing.T) {
	m := mgl32.Translate3D(3, -2, 0)
	b := MatrixBytes(m)
	if len(b) != MatrixSize {
		t.Fatalf("len = %d, want %d", len(b), MatrixSize)
	}
	at := func(i int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	// Column-major: the translation is the fourth column, elements 12..14.
	for i, want := range map[int]float32{0: 1, 5: 1, 10: 1, 15: 1, 12: 3, 13: -2, 14: 0, 3: 0} {
		if got := at(i); got != want {
			t.Errorf("element %d = %v, want %v", i, got, want)
		}
	}
}

func TestOrthoRHMapsCorners(t *testing.T) {
	m := OrthoRH(0, 10, 0, 20, 0, 1)
	tests := []struct {
		x, y float32
		want mgl32.Vec4
	}{
		{0, 0, mgl32.Vec4{-1, -1, 0, 1}},
		{10, 20, mgl32.Vec4{1, 1, 0, 1}},
		{5, 10, mgl32.Vec4{0, 0, 0, 1}},
	}
	for _, tt := range tests {
		got := m.Mul4x1(mgl32.Vec4{tt.x, tt.y, 0, 1})
		if !nearVec4(got, tt.want, 1e-6) {
			t.Errorf("(%v, %v) -> %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}
