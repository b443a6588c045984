// Package spine renders Spine skeleton meshes with two-color tinting.
//
// # Overview
//
// A skeleton runtime produces, each frame, a list of triangulated meshes.
// Every vertex carries a light color that multiplies the texture and a dark
// color that fills the texture's dark areas. spine draws those meshes on a
// GPU through gogpu/wgpu, or on the CPU into a Pixmap.
//
// # Quick Start
//
//	pages, _ := spine.ParseAtlas(atlasFile)
//	tex, _ := spine.LoadTexture(dir, pages[0])
//
//	r, _ := spine.NewSoftwareRenderer(800, 600, spine.DefaultConfig())
//	defer r.Close()
//	r.SetScene(spine.Scene{Scale: 0.5})
//	r.Clear(spine.Black)
//	_ = r.Render([]spine.Mesh{{
//	    Vertices:  vertices,
//	    Indices:   indices,
//	    BlendMode: spine.BlendNormal,
//	    Texture:   tex,
//	}}, spine.PremultipliedAlpha(pages))
//	_ = r.Pixmap().SavePNG("frame.png")
//
// With a gogpu window, NewRenderer takes the window's DeviceProvider and
// Render draws into the current surface view.
//
// # Stages
//
// Both renderers run the same two stages. TransformVertex maps a vertex
// position through the view matrix into clip space and passes uv, light
// and dark through unchanged. Composite combines a texel with the
// interpolated tint colors:
//
//	rgb = ((tex.a - 1) * dark.a + 1 - tex.rgb) * dark.rgb + tex.rgb * light.rgb
//	a   = tex.a * light.a
//
// The result is blended into the target with the fixed-function state
// returned by BlendMode.State.
//
// # Coordinate System
//
// Scene coordinates are centered on the viewport with Y up. Scene.View
// builds the matching orthographic projection; SetView accepts any matrix.
//
// # Build Tags
//
// The nogpu tag removes Renderer and the wgpu dependency; the software
// renderer and the stages remain.
package spine
