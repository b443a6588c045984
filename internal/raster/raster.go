// Package raster provides triangle rasterization of clip-space vertices.
//
// It follows the WebGPU conventions: geometry is clipped to w > 0,
// normalized device depth is kept in [0, 1], NDC y points up and framebuffer
// y points down, pixels are sampled at their centers, and shared edges
// are resolved with the top-left rule so adjacent triangles never cover a
// pixel twice.
package raster

import (
	"math"

	"github.com/gogpu/gputypes"
)

// Viewport is the framebuffer the NDC cube maps onto.
type Viewport struct {
	Width, Height int
}

// Weights are perspective-correct barycentric weights of the three
// triangle vertices, in the order they were passed. They sum to 1.
type Weights [3]float32

// FragmentFunc receives each covered pixel of a triangle.
type FragmentFunc func(x, y int, w Weights)

// wEpsilon is the near limit for clip w. Geometry closer to the eye plane
// is clipped away.
const wEpsilon = 1e-6

// clipVertex is a clip-space position with its weights over the three
// input vertices.
type clipVertex struct {
	pos  [4]float64
	bary [3]float64
}

// point is a vertex in framebuffer space.
type point struct {
	x, y float64 // pixels
	z    float64 // NDC depth
	invW float64 // 1 / clip w
	slot int     // index within the rasterized triangle
}

// Triangle rasterizes the triangle c0, c1, c2 (clip-space positions) and
// calls fn for every covered pixel with y in [y0, y1). The triangle is
// clipped against the w = 0 plane first. Degenerate triangles are skipped
// and, per cull, front (counter-clockwise in NDC) or back faces. Fragments
// whose depth falls outside [0, 1] are discarded.
func Triangle(vp Viewport, y0, y1 int, c0, c1, c2 [4]float32, cull gputypes.CullMode, fn FragmentFunc) {
	if y0 < 0 {
		y0 = 0
	}
	if y1 > vp.Height {
		y1 = vp.Height
	}
	if y0 >= y1 || vp.Width <= 0 {
		return
	}

	in := [3]clipVertex{
		{pos: widen(c0), bary: [3]float64{1, 0, 0}},
		{pos: widen(c1), bary: [3]float64{0, 1, 0}},
		{pos: widen(c2), bary: [3]float64{0, 0, 1}},
	}
	if in[0].pos[3] > wEpsilon && in[1].pos[3] > wEpsilon && in[2].pos[3] > wEpsilon {
		rasterize(vp, y0, y1, in, cull, fn)
		return
	}

	poly := clipNear(in)
	for i := 1; i+1 < len(poly); i++ {
		rasterize(vp, y0, y1, [3]clipVertex{poly[0], poly[i], poly[i+1]}, cull, fn)
	}
}

// clipNear clips a triangle against w = wEpsilon, returning a convex
// polygon of zero, three or four vertices in the input winding.
func clipNear(in [3]clipVertex) []clipVertex {
	out := make([]clipVertex, 0, 4)
	for i := range in {
		a, b := in[i], in[(i+1)%len(in)]
		aIn, bIn := a.pos[3] > wEpsilon, b.pos[3] > wEpsilon
		if aIn {
			out = append(out, a)
		}
		if aIn != bIn {
			t := (wEpsilon - a.pos[3]) / (b.pos[3] - a.pos[3])
			var v clipVertex
			for k := range v.pos {
				v.pos[k] = a.pos[k] + (b.pos[k]-a.pos[k])*t
			}
			for k := range v.bary {
				v.bary[k] = a.bary[k] + (b.bary[k]-a.bary[k])*t
			}
			v.pos[3] = wEpsilon
			out = append(out, v)
		}
	}
	if len(out) < 3 {
		return nil
	}
	return out
}

func rasterize(vp Viewport, y0, y1 int, v [3]clipVertex, cull gputypes.CullMode, fn FragmentFunc) {
	p := [3]point{
		toScreen(vp, v[0].pos, 0),
		toScreen(vp, v[1].pos, 1),
		toScreen(vp, v[2].pos, 2),
	}

	// Framebuffer y points down, so a counter-clockwise NDC triangle has
	// negative area here.
	area := cross(p[0], p[1], p[2])
	if area == 0 || math.IsNaN(area) {
		return
	}
	front := area < 0
	switch cull {
	case gputypes.CullModeFront:
		if front {
			return
		}
	case gputypes.CullModeBack:
		if !front {
			return
		}
	}
	if area < 0 {
		p[1], p[2] = p[2], p[1]
		area = -area
	}

	// Clamp in float space; huge clip coordinates overflow int.
	minX := int(math.Floor(clamp(min3(p[0].x, p[1].x, p[2].x), 0, float64(vp.Width))))
	maxX := int(math.Ceil(clamp(max3(p[0].x, p[1].x, p[2].x), 0, float64(vp.Width))))
	minY := int(math.Floor(clamp(min3(p[0].y, p[1].y, p[2].y), float64(y0), float64(y1))))
	maxY := int(math.Ceil(clamp(max3(p[0].y, p[1].y, p[2].y), float64(y0), float64(y1))))
	maxX = min(maxX, vp.Width-1)
	maxY = min(maxY, y1-1)
	if minX > maxX || minY > maxY {
		return
	}

	// Edge i is opposite vertex i.
	tl := [3]bool{
		topLeft(p[1], p[2]),
		topLeft(p[2], p[0]),
		topLeft(p[0], p[1]),
	}

	for y := minY; y <= maxY; y++ {
		py := float64(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float64(x) + 0.5
			e := [3]float64{
				edge(p[1], p[2], px, py),
				edge(p[2], p[0], px, py),
				edge(p[0], p[1], px, py),
			}
			if !inside(e[0], tl[0]) || !inside(e[1], tl[1]) || !inside(e[2], tl[2]) {
				continue
			}

			b0, b1, b2 := e[0]/area, e[1]/area, e[2]/area
			z := b0*p[0].z + b1*p[1].z + b2*p[2].z
			if z < 0 || z > 1 {
				continue
			}

			q0, q1, q2 := b0*p[0].invW, b1*p[1].invW, b2*p[2].invW
			sum := q0 + q1 + q2
			var s [3]float64
			s[p[0].slot] = q0 / sum
			s[p[1].slot] = q1 / sum
			s[p[2].slot] = q2 / sum
			var w Weights
			for k := range w {
				w[k] = float32(s[0]*v[0].bary[k] + s[1]*v[1].bary[k] + s[2]*v[2].bary[k])
			}
			fn(x, y, w)
		}
	}
}

func widen(c [4]float32) [4]float64 {
	return [4]float64{float64(c[0]), float64(c[1]), float64(c[2]), float64(c[3])}
}

func toScreen(vp Viewport, c [4]float64, slot int) point {
	w := c[3]
	return point{
		x:    (c[0]/w + 1) * 0.5 * float64(vp.Width),
		y:    (1 - c[1]/w) * 0.5 * float64(vp.Height),
		z:    c[2] / w,
		invW: 1 / w,
		slot: slot,
	}
}

// cross is the doubled signed area of a, b, c.
func cross(a, b, c point) float64 {
	return (b.x-a.x)*(c.y-a.y) - (b.y-a.y)*(c.x-a.x)
}

func edge(a, b point, px, py float64) float64 {
	return (b.x-a.x)*(py-a.y) - (b.y-a.y)*(px-a.x)
}

// topLeft reports whether the edge a->b of a positive-area triangle is a
// top edge or a left edge.
func topLeft(a, b point) bool {
	dy := b.y - a.y
	dx := b.x - a.x
	return dy < 0 || (dy == 0 && dx > 0)
}

func inside(e float64, topLeft bool) bool {
	if e > 0 {
		return true
	}
	return e == 0 && topLeft
}

func min3(a, b, c float64) float64 {
	return math.Min(a, math.Min(b, c))
}

func max3(a, b, c float64) float64 {
	return math.Max(a, math.Max(b, c))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
