// Package blend evaluates WebGPU fixed-function color blending on the CPU.
package blend

import "github.com/gogpu/gputypes"

// Color is an RGBA quadruple in [0, 1].
type Color [4]float32

// Apply blends src into dst with a color target blend state:
//
//	rgb = op(src.rgb * srcFactor, dst.rgb * dstFactor)
//	a   = op(src.a * srcFactor, dst.a * dstFactor)
//
// src is clamped to [0, 1] first, as a unorm color target does. The result
// is clamped to [0, 1]. Constant factors use a black blend constant.
func Apply(state gputypes.BlendState, src, dst Color) Color {
	src = Clamp(src)
	var out Color
	for i := range 3 {
		out[i] = component(state.Color, src, dst, i)
	}
	out[3] = component(state.Alpha, src, dst, 3)
	return Clamp(out)
}

// component blends channel ch. Min and Max ignore the factors.
func component(c gputypes.BlendComponent, src, dst Color, ch int) float32 {
	switch c.Operation {
	case gputypes.BlendOperationMin:
		return min(src[ch], dst[ch])
	case gputypes.BlendOperationMax:
		return max(src[ch], dst[ch])
	}
	s := src[ch] * factor(c.SrcFactor, src, dst, ch)
	d := dst[ch] * factor(c.DstFactor, src, dst, ch)
	return operate(c.Operation, s, d)
}

// Clamp clamps every channel to [0, 1]. NaN becomes 0.
func Clamp(c Color) Color {
	for i, v := range c {
		switch {
		case v > 1:
			c[i] = 1
		case v >= 0:
		default:
			c[i] = 0
		}
	}
	return c
}

// factor returns the blend factor for channel ch (0-2 color, 3 alpha).
func factor(f gputypes.BlendFactor, src, dst Color, ch int) float32 {
	switch f {
	case gputypes.BlendFactorZero:
		return 0
	case gputypes.BlendFactorOne:
		return 1
	case gputypes.BlendFactorSrc:
		return src[ch]
	case gputypes.BlendFactorOneMinusSrc:
		return 1 - src[ch]
	case gputypes.BlendFactorSrcAlpha:
		return src[3]
	case gputypes.BlendFactorOneMinusSrcAlpha:
		return 1 - src[3]
	case gputypes.BlendFactorDst:
		return dst[ch]
	case gputypes.BlendFactorOneMinusDst:
		return 1 - dst[ch]
	case gputypes.BlendFactorDstAlpha:
		return dst[3]
	case gputypes.BlendFactorOneMinusDstAlpha:
		return 1 - dst[3]
	case gputypes.BlendFactorSrcAlphaSaturated:
		if ch == 3 {
			return 1
		}
		return min(src[3], 1-dst[3])
	case gputypes.BlendFactorConstant:
		return 0
	case gputypes.BlendFactorOneMinusConstant:
		return 1
	default:
		return 1
	}
}

func operate(op gputypes.BlendOperation, s, d float32) float32 {
	switch op {
	case gputypes.BlendOperationSubtract:
		return s - d
	case gputypes.BlendOperationReverseSubtract:
		return d - s
	default:
		return s + d
	}
}
