// Package geometry builds mesh data for the primitive shapes and imported
// meshes that can be placed in a scene.
package geometry

import (
	"errors"
	"fmt"
)

// ErrGeometryUnavailable is returned when mesh data cannot be produced,
// e.g. for a malformed imported mesh.
var ErrGeometryUnavailable = errors.New("geometry unavailable")

// ErrUnknownKind is returned for an object kind the provider cannot build.
var ErrUnknownKind = errors.New("unknown object kind")

// Kind names a buildable shape.
type Kind string

// Supported kinds.
const (
	KindCube   Kind = "cube"
	KindCone   Kind = "cone"
	KindSphere Kind = "sphere"
	KindMesh   Kind = "mesh"
)

// Kinds lists every kind in menu order.
var Kinds = []Kind{KindCube, KindCone, KindSphere, KindMesh}

// ParseKind converts a name to a Kind. "obj" is accepted as an alias for mesh.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "cube":
		return KindCube, nil
	case "cone":
		return KindCone, nil
	case "sphere":
		return KindSphere, nil
	case "mesh", "obj", "gltf", "glb":
		return KindMesh, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// IsPrimitive reports whether the kind is generated rather than imported.
func (k Kind) IsPrimitive() bool {
	return k == KindCube || k == KindCone || k == KindSphere
}

// Vertex represents a mesh vertex with position, normal, and texture coordinates.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	TexCoord [2]float32
}

// Mesh holds mesh data ready for GPU upload.
// Indices is nil for non-indexed meshes.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
	Bounds   Bounds
}

// ElementCount returns the number of elements a draw call must issue.
func (m *Mesh) ElementCount() int32 {
	if m.Indices != nil {
		return int32(len(m.Indices))
	}
	return int32(len(m.Vertices))
}

// Indexed reports whether the mesh is drawn with an index buffer.
func (m *Mesh) Indexed() bool {
	return m.Indices != nil
}

// Bounds holds the axis-aligned bounding box of a mesh in local space.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// computeBounds fills m.Bounds from the vertex positions.
func (m *Mesh) computeBounds() {
	if len(m.Vertices) == 0 {
		m.Bounds = Bounds{}
		return
	}
	b := Bounds{Min: m.Vertices[0].Position, Max: m.Vertices[0].Position}
	for _, v := range m.Vertices[1:] {
		for i := 0; i < 3; i++ {
			b.Min[i] = min(b.Min[i], v.Position[i])
			b.Max[i] = max(b.Max[i], v.Position[i])
		}
	}
	m.Bounds = b
}
