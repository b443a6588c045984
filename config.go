package spine

import (
	"runtime"

	"github.com/gogpu/gputypes"
)

// Default buffer capacities, in vertices and indices.
const (
	DefaultMaxVertices = 1 << 13
	DefaultMaxIndices  = 1 << 13
)

// Config holds renderer configuration. Zero fields are replaced with
// defaults by the renderer constructors.
type Config struct {
	// MaxVertices is the vertex capacity of one frame.
	MaxVertices int

	// MaxIndices is the index capacity of one frame. Indices are uint16,
	// so a single mesh addresses at most 65536 vertices.
	MaxIndices int

	// CullMode selects faces to discard. Front faces are counter-clockwise.
	CullMode gputypes.CullMode

	// TargetFormat is the color attachment format of the GPU renderer.
	// Undefined means the provider's surface format, or RGBA8Unorm headless.
	TargetFormat gputypes.TextureFormat

	// SampleCount is the MSAA sample count of the GPU pipeline.
	SampleCount uint32

	// Workers is the goroutine count of the software renderer.
	// Zero or negative means GOMAXPROCS.
	Workers int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxVertices:  DefaultMaxVertices,
		MaxIndices:   DefaultMaxIndices,
		CullMode:     gputypes.CullModeNone,
		TargetFormat: gputypes.TextureFormatUndefined,
		SampleCount:  1,
		Workers:      runtime.GOMAXPROCS(0),
	}
}

// withDefaults returns c with zero fields replaced by defaults.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxVertices <= 0 {
		c.MaxVertices = d.MaxVertices
	}
	if c.MaxIndices <= 0 {
		c.MaxIndices = d.MaxIndices
	}
	if c.SampleCount == 0 {
		c.SampleCount = d.SampleCount
	}
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	return c
}
