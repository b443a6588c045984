package spine

import "github.com/go-gl/mathgl/mgl32"

// Reflect selects axes to mirror the scene across.
type Reflect uint8

const (
	// ReflectXAxis mirrors across the X axis (flips vertically).
	ReflectXAxis Reflect = 1 << iota
	// ReflectYAxis mirrors across the Y axis (flips horizontally).
	ReflectYAxis
)

// Has reports whether all bits of f are set.
func (r Reflect) Has(f Reflect) bool { return r&f == f }

// Scene places a skeleton in the viewport. The origin is the viewport
// center; Angle is in radians, counter-clockwise.
type Scene struct {
	Position mgl32.Vec2
	Angle    float32
	Scale    float32
	Reflect  Reflect
}

// DefaultScene returns a centered, unrotated scene at scale 1.
func DefaultScene() Scene {
	return Scene{Scale: 1}
}

// World returns translate(Position) * rotateZ(Angle) * scale(Scale, Scale, 1).
func (s Scene) World() mgl32.Mat4 {
	return mgl32.Translate3D(s.Position[0], s.Position[1], 0).
		Mul4(mgl32.HomogRotate3DZ(s.Angle)).
		Mul4(mgl32.Scale3D(s.Scale, s.Scale, 1))
}

// View returns the transform for a viewport of the given size: an
// orthographic projection spanning +-size/2 around the origin, times World.
func (s Scene) View(width, height float32) mgl32.Mat4 {
	xl, xr := width*-0.5, width*0.5
	yl, yr := height*-0.5, height*0.5

	if s.Reflect.Has(ReflectXAxis) {
		yl, yr = yr, yl
	}
	if s.Reflect.Has(ReflectYAxis) {
		xl, xr = xr, xl
	}

	return OrthoRH(xl, xr, yl, yr, 0, 1).Mul4(s.World())
}
