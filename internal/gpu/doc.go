//go:build !nogpu

// Package gpu implements the two-color tint mesh pipeline on the wgpu HAL.
//
// A MeshRenderer owns one shader module, the bind group layouts, one
// render pipeline per blend state and fixed-capacity vertex and index
// buffers. Each frame is prepared once (Prepare packs every mesh into the
// shared buffers) and recorded into a render pass (RecordDraws), either by
// the caller or through RenderToView.
//
// Resource bindings:
//
//	group 0, binding 0: view matrix, mat4x4<f32> uniform (vertex stage)
//	group 1, binding 0: atlas page, texture_2d<f32> (fragment stage)
//	group 1, binding 1: atlas page sampler (fragment stage)
//
// The package is excluded by the nogpu build tag.
package gpu
