package spine

import "fmt"

// Mesh is one triangulated draw: a vertex list, a uint16 triangle-list
// index buffer, the slot blend mode and the atlas page texture.
type Mesh struct {
	Vertices  []Vertex
	Indices   []uint16
	BlendMode BlendMode
	Texture   *Texture
}

// Empty reports whether the mesh draws nothing.
func (m *Mesh) Empty() bool {
	return len(m.Vertices) == 0 || len(m.Indices) == 0
}

// Validate checks the resource bindings and index list of a mesh.
// Empty meshes are valid.
func (m *Mesh) Validate() error {
	if m.Empty() {
		return nil
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("%w: %d indices", ErrInvalidIndexCount, len(m.Indices))
	}
	for i, idx := range m.Indices {
		if int(idx) >= len(m.Vertices) {
			return fmt.Errorf("%w: index %d is %d, mesh has %d vertices",
				ErrIndexOutOfRange, i, idx, len(m.Vertices))
		}
	}
	if m.Texture == nil || m.Texture.Pixmap == nil {
		return ErrMissingTexture
	}
	return nil
}

// validateFrame validates every mesh and checks that the non-empty meshes
// fit the configured capacities.
func validateFrame(meshes []Mesh, cfg Config) error {
	var vertices, indices int
	for i := range meshes {
		m := &meshes[i]
		if err := m.Validate(); err != nil {
			return fmt.Errorf("mesh %d: %w", i, err)
		}
		if m.Empty() {
			continue
		}
		vertices += len(m.Vertices)
		indices += paddedIndexCount(len(m.Indices))
	}
	if vertices > cfg.MaxVertices || indices > cfg.MaxIndices {
		return fmt.Errorf("%w: %d vertices (max %d), %d indices (max %d)",
			ErrCapacityExceeded, vertices, cfg.MaxVertices, indices, cfg.MaxIndices)
	}
	return nil
}

// paddedIndexCount rounds n up so n uint16 indices fill whole 4-byte words,
// the buffer copy alignment.
func paddedIndexCount(n int) int {
	return n + n%2
}
