package geometry

import (
	gomath "math"

	"github.com/Faultbox/sceneforge/pkg/math"
)

// Cube builds an axis-aligned cube with the given edge length centered on the origin.
// Each face has its own four vertices so normals and UVs stay flat.
func Cube(size float32) *Mesh {
	h := size / 2
	faces := []struct {
		n, u, v math.Vec3
	}{
		{math.V3(1, 0, 0), math.V3(0, 0, -1), math.V3(0, 1, 0)},
		{math.V3(-1, 0, 0), math.V3(0, 0, 1), math.V3(0, 1, 0)},
		{math.V3(0, 1, 0), math.V3(1, 0, 0), math.V3(0, 0, -1)},
		{math.V3(0, -1, 0), math.V3(1, 0, 0), math.V3(0, 0, 1)},
		{math.V3(0, 0, 1), math.V3(1, 0, 0), math.V3(0, 1, 0)},
		{math.V3(0, 0, -1), math.V3(-1, 0, 0), math.V3(0, 1, 0)},
	}
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

	mesh := &Mesh{
		Vertices: make([]Vertex, 0, 24),
		Indices:  make([]uint32, 0, 36),
	}
	for _, f := range faces {
		base := uint32(len(mesh.Vertices))
		center := f.n.Scale(h)
		for _, c := range corners {
			p := center.Add(f.u.Scale(c[0] * h)).Add(f.v.Scale(c[1] * h))
			mesh.Vertices = append(mesh.Vertices, Vertex{
				Position: p.Array(),
				Normal:   f.n.Array(),
				TexCoord: [2]float32{(c[0] + 1) / 2, (c[1] + 1) / 2},
			})
		}
		mesh.Indices = append(mesh.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	mesh.computeBounds()
	return mesh
}

// Cone builds a closed cone standing on the XZ plane, centered on the origin,
// with its apex on +Y.
func Cone(radius, height float32, segments int) *Mesh {
	if segments < 3 {
		segments = 3
	}
	half := height / 2
	slant := math.V3(height, radius, 0).Length()

	mesh := &Mesh{}
	// Side: one base and one apex vertex per ring step so the apex normal
	// follows the face it belongs to.
	for i := 0; i <= segments; i++ {
		theta := 2 * gomath.Pi * float64(i) / float64(segments)
		c, s := float32(gomath.Cos(theta)), float32(gomath.Sin(theta))
		n := [3]float32{c * height / slant, radius / slant, s * height / slant}
		u := float32(i) / float32(segments)
		mesh.Vertices = append(mesh.Vertices,
			Vertex{Position: [3]float32{radius * c, -half, radius * s}, Normal: n, TexCoord: [2]float32{u, 0}},
			Vertex{Position: [3]float32{0, half, 0}, Normal: n, TexCoord: [2]float32{u, 1}},
		)
	}
	for i := 0; i < segments; i++ {
		b0 := uint32(i * 2)
		mesh.Indices = append(mesh.Indices, b0, b0+1, b0+2)
	}

	// Base cap
	center := uint32(len(mesh.Vertices))
	down := [3]float32{0, -1, 0}
	mesh.Vertices = append(mesh.Vertices, Vertex{Position: [3]float32{0, -half, 0}, Normal: down, TexCoord: [2]float32{0.5, 0.5}})
	for i := 0; i <= segments; i++ {
		theta := 2 * gomath.Pi * float64(i) / float64(segments)
		c, s := float32(gomath.Cos(theta)), float32(gomath.Sin(theta))
		mesh.Vertices = append(mesh.Vertices, Vertex{
			Position: [3]float32{radius * c, -half, radius * s},
			Normal:   down,
			TexCoord: [2]float32{0.5 + c/2, 0.5 + s/2},
		})
	}
	for i := 0; i < segments; i++ {
		r0 := center + 1 + uint32(i)
		mesh.Indices = append(mesh.Indices, center, r0, r0+1)
	}

	mesh.computeBounds()
	return mesh
}

// Sphere builds a UV sphere centered on the origin.
// slices subdivide around the Y axis, stacks from pole to pole.
func Sphere(radius float32, slices, stacks int) *Mesh {
	if slices < 3 {
		slices = 3
	}
	if stacks < 2 {
		stacks = 2
	}

	mesh := &Mesh{}
	for j := 0; j <= stacks; j++ {
		phi := gomath.Pi * float64(j) / float64(stacks)
		sp, cp := float32(gomath.Sin(phi)), float32(gomath.Cos(phi))
		for i := 0; i <= slices; i++ {
			theta := 2 * gomath.Pi * float64(i) / float64(slices)
			st, ct := float32(gomath.Sin(theta)), float32(gomath.Cos(theta))
			n := [3]float32{sp * ct, cp, sp * st}
			mesh.Vertices = append(mesh.Vertices, Vertex{
				Position: [3]float32{n[0] * radius, n[1] * radius, n[2] * radius},
				Normal:   n,
				TexCoord: [2]float32{float32(i) / float32(slices), 1 - float32(j)/float32(stacks)},
			})
		}
	}

	row := uint32(slices + 1)
	for j := 0; j < stacks; j++ {
		for i := 0; i < slices; i++ {
			a := uint32(j)*row + uint32(i)
			b := a + row
			mesh.Indices = append(mesh.Indices, a, a+1, b, a+1, b+1, b)
		}
	}

	mesh.computeBounds()
	return mesh
}
