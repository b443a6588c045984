// Package scenefile loads mesh scenes for spinedemo from YAML or TOML.
//
// A scene file describes the target size, clear color, scene placement and
// a list of textured meshes. Colors are hex strings ("#rrggbb" or
// "#rrggbbaa") or float arrays ([r, g, b] or [r, g, b, a]); float channels
// are not clamped. Texture paths are relative to the scene file. When an
// atlas is named, its page headers supply the samplers and the
// premultiplied-alpha flag for textures named after its pages.
package scenefile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pelletier/go-toml/v2/unstable"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/spine"
)

// Format is a scene file encoding.
type Format int

const (
	FormatYAML Format = iota
	FormatTOML
)

func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatTOML:
		return "toml"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

var (
	// ErrUnknownFormat is returned for file extensions other than
	// .yaml, .yml and .toml.
	ErrUnknownFormat = errors.New("scenefile: unknown file format")

	// ErrInvalid is returned when a decoded scene cannot be rendered.
	ErrInvalid = errors.New("scenefile: invalid scene")
)

// File is the decoded form of a scene file.
type File struct {
	Width  int    `yaml:"width" toml:"width"`
	Height int    `yaml:"height" toml:"height"`
	Clear  Color  `yaml:"clear" toml:"clear"`
	Cull   string `yaml:"cull" toml:"cull"` // "", "none", "front" or "back"
	Scene  Scene  `yaml:"scene" toml:"scene"`
	Atlas  string `yaml:"atlas" toml:"atlas"`
	PMA    *bool  `yaml:"pma" toml:"pma"` // overrides the atlas flag
	Meshes []Mesh `yaml:"meshes" toml:"meshes"`
}

// Scene places the skeleton. Rotation is in degrees, counter-clockwise.
type Scene struct {
	Position [2]float32 `yaml:"position" toml:"position"`
	Rotation float32    `yaml:"rotation" toml:"rotation"`
	Scale    *float32   `yaml:"scale" toml:"scale"`
	Reflect  string     `yaml:"reflect" toml:"reflect"` // "", "x", "y" or "xy"
}

// Mesh is one textured triangle list.
type Mesh struct {
	Texture  string   `yaml:"texture" toml:"texture"`
	Blend    string   `yaml:"blend" toml:"blend"`
	Vertices []Vertex `yaml:"vertices" toml:"vertices"`
	Indices  []uint16 `yaml:"indices" toml:"indices"`
}

// Vertex is one mesh vertex. Light defaults to opaque white and Dark to
// transparent black, the neutral tint.
type Vertex struct {
	Position [2]float32 `yaml:"position" toml:"position"`
	UV       [2]float32 `yaml:"uv" toml:"uv"`
	Light    Color      `yaml:"light" toml:"light"`
	Dark     Color      `yaml:"dark" toml:"dark"`
}

// Color is a color as written in a scene file. At most one of Hex and
// Values is set; a zero Color means the field was omitted.
type Color struct {
	Hex    string
	Values []float32
}

// UnmarshalYAML accepts a hex string or a float sequence.
func (c *Color) UnmarshalYAML(value *yaml.Node) error {
	*c = Color{}
	switch value.Kind {
	case yaml.ScalarNode:
		return value.Decode(&c.Hex)
	case yaml.SequenceNode:
		return value.Decode(&c.Values)
	default:
		return fmt.Errorf("line %d: color must be a hex string or a float array", value.Line)
	}
}

// UnmarshalTOML accepts a hex string or an array of numbers.
func (c *Color) UnmarshalTOML(value *unstable.Node) error {
	*c = Color{}
	switch value.Kind {
	case unstable.String:
		c.Hex = string(value.Data)
		return nil
	case unstable.Array:
		it := value.Children()
		for it.Next() {
			n := it.Node()
			if n.Kind != unstable.Float && n.Kind != unstable.Integer {
				return fmt.Errorf("color channel must be a number, got %s", n.Kind)
			}
			f, err := strconv.ParseFloat(strings.ReplaceAll(string(n.Data), "_", ""), 32)
			if err != nil {
				return fmt.Errorf("color channel: %w", err)
			}
			c.Values = append(c.Values, float32(f))
		}
		if c.Values == nil {
			c.Values = []float32{}
		}
		return nil
	default:
		return fmt.Errorf("color must be a hex string or a float array, got %s", value.Kind)
	}
}

// resolve returns the color, or def when c is zero.
func (c Color) resolve(def spine.RGBA) (spine.RGBA, error) {
	switch {
	case c.Values != nil:
		if c.Hex != "" {
			return def, errors.New("color has both hex and float values")
		}
		switch len(c.Values) {
		case 3:
			return spine.RGBA{R: c.Values[0], G: c.Values[1], B: c.Values[2], A: 1}, nil
		case 4:
			return spine.RGBA{R: c.Values[0], G: c.Values[1], B: c.Values[2], A: c.Values[3]}, nil
		default:
			return def, fmt.Errorf("color has %d channels, want 3 or 4", len(c.Values))
		}
	case strings.TrimSpace(c.Hex) != "":
		rgba, ok := spine.Hex(strings.TrimSpace(c.Hex))
		if !ok {
			return def, fmt.Errorf("invalid color %q", c.Hex)
		}
		return rgba, nil
	default:
		return def, nil
	}
}

// FormatFor returns the format for a file name by extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

// Decode reads a scene in the given format. Unknown keys are rejected.
func Decode(r io.Reader, format Format) (*File, error) {
	var f File
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing yaml scene: %w", err)
		}
	case FormatTOML:
		dec := toml.NewDecoder(r)
		dec.DisallowUnknownFields()
		dec.EnableUnmarshalerInterface()
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("parsing toml scene: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, format)
	}
	return &f, nil
}

// Load reads and validates a scene file.
func Load(path string) (*File, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return nil, fmt.Errorf("reading scene file: %w", err)
	}
	f, err := Decode(bytes.NewReader(data), format)
	if err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	spine.Logger().Debug("scenefile: loaded", "path", path, "format", format.String(),
		"meshes", len(f.Meshes))
	return f, nil
}

// Validate checks the fields that decoding alone cannot.
func (f *File) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalid, f.Width, f.Height)
	}
	if _, err := f.Clear.resolve(spine.Transparent); err != nil {
		return fmt.Errorf("%w: clear: %w", ErrInvalid, err)
	}
	if _, err := parseReflect(f.Scene.Reflect); err != nil {
		return err
	}
	if _, err := parseCull(f.Cull); err != nil {
		return err
	}
	for i := range f.Meshes {
		m := &f.Meshes[i]
		if m.Texture == "" {
			return fmt.Errorf("%w: mesh %d has no texture", ErrInvalid, i)
		}
		if _, err := spine.ParseBlendMode(m.Blend); err != nil {
			return fmt.Errorf("%w: mesh %d: %w", ErrInvalid, i, err)
		}
		for j := range m.Vertices {
			v := &m.Vertices[j]
			if _, err := v.Light.resolve(spine.White); err != nil {
				return fmt.Errorf("%w: mesh %d vertex %d light: %w", ErrInvalid, i, j, err)
			}
			if _, err := v.Dark.resolve(spine.Transparent); err != nil {
				return fmt.Errorf("%w: mesh %d vertex %d dark: %w", ErrInvalid, i, j, err)
			}
		}
	}
	return nil
}

func parseReflect(s string) (spine.Reflect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return 0, nil
	case "x":
		return spine.ReflectXAxis, nil
	case "y":
		return spine.ReflectYAxis, nil
	case "xy", "yx":
		return spine.ReflectXAxis | spine.ReflectYAxis, nil
	default:
		return 0, fmt.Errorf("%w: reflect %q", ErrInvalid, s)
	}
}
