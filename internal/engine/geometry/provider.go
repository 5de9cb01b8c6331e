package geometry

import (
	"bytes"
	"fmt"
)

// Provider builds meshes for object kinds.
type Provider struct {
	CubeSize     float32
	ConeRadius   float32
	ConeHeight   float32
	ConeSegments int
	SphereRadius float32
	SphereSlices int
	SphereStacks int
}

// NewProvider returns a provider with the default primitive dimensions.
func NewProvider() *Provider {
	return &Provider{
		CubeSize:     20,
		ConeRadius:   10,
		ConeHeight:   20,
		ConeSegments: 20,
		SphereRadius: 10,
		SphereSlices: 20,
		SphereStacks: 10,
	}
}

// Build returns the mesh for kind. source is only read for KindMesh and may be
// Wavefront OBJ text, glTF JSON or a GLB container.
func (p *Provider) Build(kind Kind, source []byte) (*Mesh, error) {
	switch kind {
	case KindCube:
		return Cube(p.CubeSize), nil
	case KindCone:
		return Cone(p.ConeRadius, p.ConeHeight, p.ConeSegments), nil
	case KindSphere:
		return Sphere(p.SphereRadius, p.SphereSlices, p.SphereStacks), nil
	case KindMesh:
		mesh, err := parseMesh(source)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrGeometryUnavailable, err)
		}
		return mesh, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

func parseMesh(source []byte) (*Mesh, error) {
	source, err := decodeText(source)
	if err != nil {
		return nil, fmt.Errorf("decode text: %w", err)
	}
	trimmed := bytes.TrimSpace(source)
	switch {
	case len(trimmed) == 0:
		return nil, fmt.Errorf("empty mesh source")
	case bytes.HasPrefix(trimmed, []byte("glTF")), trimmed[0] == '{':
		return ParseGLTF(source)
	default:
		return ParseOBJ(source)
	}
}
