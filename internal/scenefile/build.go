package scenefile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/spine"
)

// Frame is a scene file resolved into renderer inputs.
type Frame struct {
	Width, Height int
	Clear         spine.RGBA
	CullMode      gputypes.CullMode
	Scene         spine.Scene
	Meshes        []spine.Mesh
	Premultiplied bool
	Textures      []*spine.Texture // unique, in first-use order
}

// Build resolves f against dir, the directory of the scene file: it loads
// the atlas and every texture once and converts meshes and colors.
func (f *File) Build(dir string) (*Frame, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	pages, err := f.loadAtlas(dir)
	if err != nil {
		return nil, err
	}
	fr := &Frame{
		Width:         f.Width,
		Height:        f.Height,
		Premultiplied: spine.PremultipliedAlpha(pages),
	}
	if f.PMA != nil {
		fr.Premultiplied = *f.PMA
	}
	fr.Clear, _ = f.Clear.resolve(spine.Transparent)
	fr.CullMode, _ = parseCull(f.Cull)
	fr.Scene = f.Scene.toScene()

	byName := make(map[string]*spine.Texture)
	for i := range f.Meshes {
		m := &f.Meshes[i]
		tex, ok := byName[m.Texture]
		if !ok {
			tex, err = loadTexture(dir, m.Texture, pages)
			if err != nil {
				return nil, fmt.Errorf("mesh %d: %w", i, err)
			}
			byName[m.Texture] = tex
			fr.Textures = append(fr.Textures, tex)
		}
		mode, _ := spine.ParseBlendMode(m.Blend)
		fr.Meshes = append(fr.Meshes, spine.Mesh{
			Vertices:  convertVertices(m.Vertices),
			Indices:   m.Indices,
			BlendMode: mode,
			Texture:   tex,
		})
	}
	return fr, nil
}

func (f *File) loadAtlas(dir string) ([]spine.AtlasPage, error) {
	if f.Atlas == "" {
		return nil, nil
	}
	r, err := os.Open(filepath.Join(dir, f.Atlas)) //nolint:gosec // path comes from the scene file
	if err != nil {
		return nil, fmt.Errorf("open atlas: %w", err)
	}
	defer func() {
		_ = r.Close()
	}()
	pages, err := spine.ParseAtlas(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Atlas, err)
	}
	return pages, nil
}

// loadTexture loads an image relative to dir. A name matching an atlas page
// takes that page's sampler; the atlas lives next to its pages.
func loadTexture(dir, name string, pages []spine.AtlasPage) (*spine.Texture, error) {
	for _, p := range pages {
		if p.Name == name {
			return spine.LoadTexture(dir, p)
		}
	}
	pm, err := spine.LoadImage(filepath.Join(dir, name))
	if err != nil {
		return nil, err
	}
	return spine.NewTexture(name, pm), nil
}

func (s Scene) toScene() spine.Scene {
	out := spine.DefaultScene()
	out.Position = mgl32.Vec2{s.Position[0], s.Position[1]}
	out.Angle = mgl32.DegToRad(s.Rotation)
	if s.Scale != nil {
		out.Scale = *s.Scale
	}
	out.Reflect, _ = parseReflect(s.Reflect)
	return out
}

func convertVertices(vs []Vertex) []spine.Vertex {
	out := make([]spine.Vertex, len(vs))
	for i, v := range vs {
		light, _ := v.Light.resolve(spine.White)
		dark, _ := v.Dark.resolve(spine.Transparent)
		out[i] = spine.Vertex{
			Position: mgl32.Vec2{v.Position[0], v.Position[1]},
			UV:       mgl32.Vec2{v.UV[0], v.UV[1]},
			Light:    light,
			Dark:     dark,
		}
	}
	return out
}

func parseCull(s string) (gputypes.CullMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return gputypes.CullModeNone, nil
	case "front":
		return gputypes.CullModeFront, nil
	case "back":
		return gputypes.CullModeBack, nil
	default:
		return gputypes.CullModeNone, fmt.Errorf("%w: cull %q", ErrInvalid, s)
	}
}
