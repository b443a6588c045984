// Command spinedemo renders a mesh scene with the spine software renderer.
//
// Without -scene it draws a built-in demo: a ring of quads over a checker
// texture, tinted from red to blue with a dark color that shows through
// the black squares.
package main

import (
	"flag"
	"log"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/spine"
	"github.com/gogpu/spine/internal/scenefile"
)

func main() {
	var (
		scenePath = flag.String("scene", "", "scene file (.yaml, .yml or .toml); empty for the built-in demo")
		output    = flag.String("output", "spine.png", "output file")
		workers   = flag.Int("workers", 0, "render goroutines (0 = GOMAXPROCS)")
		verbose   = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *verbose {
		spine.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	frame, err := loadFrame(*scenePath)
	if err != nil {
		log.Fatalf("Failed to load scene: %v", err)
	}

	cfg := spine.DefaultConfig()
	cfg.Workers = *workers
	cfg.CullMode = frame.CullMode
	r, err := spine.NewSoftwareRenderer(frame.Width, frame.Height, cfg)
	if err != nil {
		log.Fatalf("Failed to create renderer: %v", err)
	}

	r.SetScene(frame.Scene)
	r.Clear(frame.Clear)
	if err := r.Render(frame.Meshes, frame.Premultiplied); err != nil {
		log.Fatalf("Failed to render: %v", err)
	}
	_ = r.Close()

	if err := r.Pixmap().SavePNG(*output); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
	log.Printf("Scene saved to %s (%dx%d, %d meshes)\n", *output, frame.Width, frame.Height, len(frame.Meshes))
}

func loadFrame(path string) (*scenefile.Frame, error) {
	if path == "" {
		return demoFrame(), nil
	}
	f, err := scenefile.Load(path)
	if err != nil {
		return nil, err
	}
	return f.Build(filepath.Dir(path))
}

// demoFrame builds the built-in scene.
func demoFrame() *scenefile.Frame {
	const (
		width, height = 800, 600
		quads         = 12
		radius        = 200
		half          = 40
	)

	checker := spine.NewPixmap(8, 8)
	for y := range 8 {
		for x := range 8 {
			c := spine.White
			if (x+y)%2 == 1 {
				c = spine.Black
			}
			checker.SetPixel(x, y, c)
		}
	}
	tex := spine.NewTexture("checker", checker)
	tex.Sampler.MagFilter = gputypes.FilterModeNearest
	tex.Sampler.MinFilter = gputypes.FilterModeNearest

	meshes := make([]spine.Mesh, 0, quads)
	for i := range quads {
		t := float32(i) / quads
		angle := 2 * math.Pi * float64(i) / quads
		center := mgl32.Vec2{
			radius * float32(math.Cos(angle)),
			radius * float32(math.Sin(angle)),
		}
		light := spine.RGB(1, 0.2, 0.2).Lerp(spine.RGB(0.2, 0.2, 1), t)
		dark := spine.RGB(0.1, 0.1, 0.3).Lerp(spine.RGB(0.3, 0.25, 0.05), t)

		mode := spine.BlendNormal
		if i%4 == 3 {
			mode = spine.BlendAdditive
		}
		meshes = append(meshes, quad(center, half, light, dark, mode, tex))
	}

	return &scenefile.Frame{
		Width:    width,
		Height:   height,
		Clear:    spine.RGB(0.08, 0.08, 0.1),
		Scene:    spine.DefaultScene(),
		Meshes:   meshes,
		Textures: []*spine.Texture{tex},
	}
}

func quad(center mgl32.Vec2, half float32, light, dark spine.RGBA, mode spine.BlendMode, tex *spine.Texture) spine.Mesh {
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	vs := make([]spine.Vertex, len(corners))
	for i, c := range corners {
		vs[i] = spine.Vertex{
			Position: center.Add(mgl32.Vec2{c[0], c[1]}.Mul(half)),
			UV:       mgl32.Vec2{(c[0] + 1) / 2, (1 - c[1]) / 2},
			Light:    light,
			Dark:     dark,
		}
	}
	return spine.Mesh{
		Vertices:  vs,
		Indices:   []uint16{0, 1, 2, 2, 3, 0},
		BlendMode: mode,
		Texture:   tex,
	}
}
