package spine

import (
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"
)

// BlendMode is a skeleton slot blend mode.
type BlendMode uint8

const (
	BlendNormal BlendMode = iota
	BlendAdditive
	BlendMultiply
	BlendScreen
)

// String returns the mode name as written in skeleton data.
func (m BlendMode) String() string {
	switch m {
	case BlendNormal:
		return "normal"
	case BlendAdditive:
		return "additive"
	case BlendMultiply:
		return "multiply"
	case BlendScreen:
		return "screen"
	default:
		return fmt.Sprintf("BlendMode(%d)", uint8(m))
	}
}

// ParseBlendMode parses a blend mode name, case-insensitively.
// The empty string parses as BlendNormal.
func ParseBlendMode(s string) (BlendMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal":
		return BlendNormal, nil
	case "additive":
		return BlendAdditive, nil
	case "multiply":
		return BlendMultiply, nil
	case "screen":
		return BlendScreen, nil
	default:
		return BlendNormal, fmt.Errorf("%w: %q", ErrUnknownBlendMode, s)
	}
}

// State returns the fixed-function blend state for the mode. premultiplied
// selects the variant for atlases whose pages store premultiplied alpha.
// Multiply and Screen use the same state for both alpha conventions.
func (m BlendMode) State(premultiplied bool) gputypes.BlendState {
	switch m {
	case BlendAdditive:
		src := gputypes.BlendFactorSrcAlpha
		if premultiplied {
			src = gputypes.BlendFactorOne
		}
		return blendState(
			src, gputypes.BlendFactorOne,
			gputypes.BlendFactorOne, gputypes.BlendFactorOne,
		)
	case BlendMultiply:
		return blendState(
			gputypes.BlendFactorDst, gputypes.BlendFactorOneMinusSrcAlpha,
			gputypes.BlendFactorOneMinusSrcAlpha, gputypes.BlendFactorOneMinusSrcAlpha,
		)
	case BlendScreen:
		return blendState(
			gputypes.BlendFactorOne, gputypes.BlendFactorOneMinusSrcAlpha,
			gputypes.BlendFactorOneMinusSrc, gputypes.BlendFactorOneMinusSrcAlpha,
		)
	default:
		src := gputypes.BlendFactorSrcAlpha
		if premultiplied {
			src = gputypes.BlendFactorOne
		}
		return blendState(
			src, gputypes.BlendFactorOneMinusSrcAlpha,
			gputypes.BlendFactorOne, gputypes.BlendFactorOneMinusSrcAlpha,
		)
	}
}

func blendState(colorSrc, colorDst, alphaSrc, alphaDst gputypes.BlendFactor) gputypes.BlendState {
	return gputypes.BlendState{
		Color: gputypes.BlendComponent{
			SrcFactor: colorSrc,
			DstFactor: colorDst,
			Operation: gputypes.BlendOperationAdd,
		},
		Alpha: gputypes.BlendComponent{
			SrcFactor: alphaSrc,
			DstFactor: alphaDst,
			Operation: gputypes.BlendOperationAdd,
		},
	}
}
