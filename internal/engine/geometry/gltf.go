package geometry

import (
	"bytes"
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// ParseGLTF decodes a glTF (JSON with embedded buffers) or GLB document and
// merges all triangle primitives into one indexed mesh. Node transforms are
// not applied; meshes are taken in their own space.
func ParseGLTF(data []byte) (*Mesh, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, fmt.Errorf("decode gltf: %w", err)
	}

	mesh := &Mesh{Indices: []uint32{}}
	for _, m := range doc.Meshes {
		for _, prim := range m.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				continue
			}
			if err := appendPrimitive(doc, prim, mesh); err != nil {
				return nil, fmt.Errorf("mesh %q: %w", m.Name, err)
			}
		}
	}
	if len(mesh.Indices) == 0 {
		return nil, fmt.Errorf("no triangle primitives")
	}

	mesh.computeBounds()
	return mesh, nil
}

// accessor returns the accessor at idx after checking that it and the buffer
// data it points into exist.
func accessor(doc *gltf.Document, idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(doc.Accessors) || doc.Accessors[idx] == nil {
		return nil, fmt.Errorf("accessor %d out of range (have %d)", idx, len(doc.Accessors))
	}
	acc := doc.Accessors[idx]
	if acc.BufferView == nil {
		return nil, fmt.Errorf("accessor %d has no buffer view", idx)
	}
	bv := *acc.BufferView
	if bv < 0 || bv >= len(doc.BufferViews) || doc.BufferViews[bv] == nil {
		return nil, fmt.Errorf("accessor %d: buffer view %d out of range (have %d)", idx, bv, len(doc.BufferViews))
	}
	view := doc.BufferViews[bv]
	if view.Buffer < 0 || view.Buffer >= len(doc.Buffers) || doc.Buffers[view.Buffer] == nil {
		return nil, fmt.Errorf("buffer view %d: buffer %d out of range (have %d)", bv, view.Buffer, len(doc.Buffers))
	}
	if data := doc.Buffers[view.Buffer].Data; view.ByteOffset < 0 || view.ByteLength < 0 ||
		view.ByteOffset+view.ByteLength > len(data) {
		return nil, fmt.Errorf("buffer view %d exceeds buffer %d (%d bytes)", bv, view.Buffer, len(data))
	}
	return acc, nil
}

func appendPrimitive(doc *gltf.Document, prim *gltf.Primitive, mesh *Mesh) (err error) {
	// modeler indexes buffer data by the accessor's own offset and count.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("corrupt accessor data: %v", r)
		}
	}()

	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil
	}
	acc, err := accessor(doc, posIdx)
	if err != nil {
		return fmt.Errorf("positions: %w", err)
	}
	positions, err := modeler.ReadPosition(doc, acc, nil)
	if err != nil {
		return fmt.Errorf("read positions: %w", err)
	}

	var normals [][3]float32
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		if acc, err = accessor(doc, idx); err != nil {
			return fmt.Errorf("normals: %w", err)
		}
		if normals, err = modeler.ReadNormal(doc, acc, nil); err != nil {
			return fmt.Errorf("read normals: %w", err)
		}
	}

	var uvs [][2]float32
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if acc, err = accessor(doc, idx); err != nil {
			return fmt.Errorf("texcoords: %w", err)
		}
		if uvs, err = modeler.ReadTextureCoord(doc, acc, nil); err != nil {
			return fmt.Errorf("read texcoords: %w", err)
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		if acc, err = accessor(doc, *prim.Indices); err != nil {
			return fmt.Errorf("indices: %w", err)
		}
		if indices, err = modeler.ReadIndices(doc, acc, nil); err != nil {
			return fmt.Errorf("read indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	base := uint32(len(mesh.Vertices))
	for i, p := range positions {
		v := Vertex{Position: p}
		if i < len(normals) {
			v.Normal = normals[i]
		}
		if i < len(uvs) {
			v.TexCoord = uvs[i]
		}
		mesh.Vertices = append(mesh.Vertices, v)
	}
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		if int(max(a, b, c)) >= len(positions) {
			return fmt.Errorf("index out of range")
		}
		mesh.Indices = append(mesh.Indices, base+a, base+b, base+c)
	}

	if len(normals) == 0 {
		fillFlatNormals(mesh, base)
	}
	return nil
}

// fillFlatNormals accumulates face normals onto vertices from index base on.
func fillFlatNormals(mesh *Mesh, base uint32) {
	for i := 0; i+2 < len(mesh.Indices); i += 3 {
		a, b, c := mesh.Indices[i], mesh.Indices[i+1], mesh.Indices[i+2]
		if a < base {
			continue
		}
		n := faceNormal(mesh.Vertices[a].Position, mesh.Vertices[b].Position, mesh.Vertices[c].Position)
		for _, idx := range []uint32{a, b, c} {
			mesh.Vertices[idx].Normal = n
		}
	}
}
