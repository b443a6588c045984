package spine

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

const sceneEps = 1e-5

// nearVec4 compares with an absolute tolerance; mgl32's relative
// comparison is too strict around zero.
func nearVec4(a, b mgl32.Vec4, eps float32) bool {
	for i := range a {
		if mgl32.Abs(a[i]-b[i]) > eps {
			return false
		}
	}
	return true
}

func project(m mgl32.Mat4, x, y float32) mgl32.Vec4 {
	return m.Mul4x1(mgl32.Vec4{x, y, 0, 1})
}

func TestSceneDefaultView(t *testing.T) {
	view := DefaultScene().View(800, 600)

	tests := []struct {
		x, y float32
		want mgl32.Vec4
	}{
		{0, 0, mgl32.Vec4{0, 0, 0, 1}},
		{400, 300, mgl32.Vec4{1, 1, 0, 1}},
		{-400, -300, mgl32.Vec4{-1, -1, 0, 1}},
		{200, -150, mgl32.Vec4{0.5, -0.5, 0, 1}},
	}
	for _, tt := range tests {
		if got := project(view, tt.x, tt.y); !nearVec4(got, tt.want, sceneEps) {
			t.Errorf("(%v, %v) -> %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestSceneReflect(t *testing.T) {
	tests := []struct {
		name    string
		reflect Reflect
		want    mgl32.Vec4
	}{
		{"none", 0, mgl32.Vec4{1, 1, 0, 1}},
		{"x axis", ReflectXAxis, mgl32.Vec4{1, -1, 0, 1}},
		{"y axis", ReflectYAxis, mgl32.Vec4{-1, 1, 0, 1}},
		{"both", ReflectXAxis | ReflectYAxis, mgl32.Vec4{-1, -1, 0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Scene{Scale: 1, Reflect: tt.reflect}
			if got := project(s.View(800, 600), 400, 300); !nearVec4(got, tt.want, sceneEps) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReflectHas(t *testing.T) {
	r := ReflectXAxis | ReflectYAxis
	if !r.Has(ReflectXAxis) || !r.Has(ReflectYAxis) || !r.Has(r) {
		t.Error("combined reflect should have both axes")
	}
	if ReflectXAxis.Has(ReflectYAxis) {
		t.Error("ReflectXAxis should not have ReflectYAxis")
	}
}

func TestSceneWorldOrder(t *testing.T) {
	// Scale, then rotate, then translate.
	s := Scene{Position: mgl32.Vec2{10, 0}, Angle: math.Pi / 2, Scale: 2}
	got := project(s.World(), 1, 0)
	want := mgl32.Vec4{10, 2, 0, 1}
	if !nearVec4(got, want, 1e-5) {
		t.Errorf("World * (1,0) = %v, want %v", got, want)
	}
}

func TestSceneViewPlacement(t *testing.T) {
	tests := []struct {
		name  string
		scene Scene
		x, y  float32
		want  mgl32.Vec4
	}{
		{"scale", Scene{Scale: 2}, 100, 0, mgl32.Vec4{0.5, 0, 0, 1}},
		{"position", Scene{Scale: 1, Position: mgl32.Vec2{100, 75}}, 0, 0, mgl32.Vec4{0.25, 0.25, 0, 1}},
		{"angle", Scene{Scale: 1, Angle: math.Pi / 2}, 150, 0, mgl32.Vec4{0, 0.5, 0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := project(tt.scene.View(800, 600), tt.x, tt.y)
			if !nearVec4(got, tt.want, 1e-5) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOrthoRHDepth(t *testing.T) {
	m := OrthoRH(-1, 1, -1, 1, 0, 1)
	if z := m.Mul4x1(mgl32.Vec4{0, 0, 0, 1}).Z(); z != 0 {
		t.Errorf("z=0 maps to %v, want 0", z)
	}
	if z := m.Mul4x1(mgl32.Vec4{0, 0, -1, 1}).Z(); z != 1 {
		t.Errorf("z=-1 maps to %v, want 1", z)
	}
}
