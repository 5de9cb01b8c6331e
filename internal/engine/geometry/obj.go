package geometry

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/Faultbox/sceneforge/pkg/math"
)

// ParseOBJ parses Wavefront OBJ text into a non-indexed triangle mesh.
// Polygons are fan-triangulated. Faces without normals get flat normals.
// Materials, groups and smoothing statements are ignored.
func ParseOBJ(data []byte) (*Mesh, error) {
	var positions [][3]float32
	var normals [][3]float32
	var uvs [][2]float32

	mesh := &Mesh{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)

		switch fields[0] {
		case "v":
			v, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("line %d: vertex: %w", lineNo, err)
			}
			positions = append(positions, [3]float32{v[0], v[1], v[2]})
		case "vn":
			v, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("line %d: normal: %w", lineNo, err)
			}
			normals = append(normals, [3]float32{v[0], v[1], v[2]})
		case "vt":
			v, err := parseFloats(fields[1:], 2)
			if err != nil {
				return nil, fmt.Errorf("line %d: texcoord: %w", lineNo, err)
			}
			uvs = append(uvs, [2]float32{v[0], v[1]})
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: face needs at least 3 vertices", lineNo)
			}
			corners := make([]Vertex, 0, len(fields)-1)
			hasNormals := true
			for _, ref := range fields[1:] {
				v, withNormal, err := resolveCorner(ref, positions, uvs, normals)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
				hasNormals = hasNormals && withNormal
				corners = append(corners, v)
			}
			for i := 1; i+1 < len(corners); i++ {
				tri := [3]Vertex{corners[0], corners[i], corners[i+1]}
				if !hasNormals {
					n := faceNormal(tri[0].Position, tri[1].Position, tri[2].Position)
					for k := range tri {
						tri[k].Normal = n
					}
				}
				mesh.Vertices = append(mesh.Vertices, tri[:]...)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(mesh.Vertices) == 0 {
		return nil, fmt.Errorf("no faces")
	}

	mesh.computeBounds()
	return mesh, nil
}

// resolveCorner resolves a face corner reference such as "3", "3/1", "3//2" or "3/1/2".
func resolveCorner(ref string, positions [][3]float32, uvs [][2]float32, normals [][3]float32) (Vertex, bool, error) {
	parts := strings.Split(ref, "/")
	var v Vertex

	pi, err := objIndex(parts[0], len(positions))
	if err != nil {
		return v, false, fmt.Errorf("position index %q: %w", parts[0], err)
	}
	v.Position = positions[pi]

	if len(parts) > 1 && parts[1] != "" {
		ti, err := objIndex(parts[1], len(uvs))
		if err != nil {
			return v, false, fmt.Errorf("texcoord index %q: %w", parts[1], err)
		}
		v.TexCoord = uvs[ti]
	}

	withNormal := false
	if len(parts) > 2 && parts[2] != "" {
		ni, err := objIndex(parts[2], len(normals))
		if err != nil {
			return v, false, fmt.Errorf("normal index %q: %w", parts[2], err)
		}
		v.Normal = normals[ni]
		withNormal = true
	}
	return v, withNormal, nil
}

// objIndex converts a 1-based (or negative, relative) OBJ index to a slice index.
func objIndex(s string, count int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	switch {
	case i > 0 && i <= count:
		return i - 1, nil
	case i < 0 && -i <= count:
		return count + i, nil
	}
	return 0, fmt.Errorf("out of range (have %d)", count)
}

func parseFloats(fields []string, n int) ([]float32, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("expected %d components, got %d", n, len(fields))
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, err
		}
		// f-f is NaN for both NaN and ±Inf.
		if f-f != 0 {
			return nil, fmt.Errorf("component %d is not finite: %s", i+1, fields[i])
		}
		out[i] = float32(f)
	}
	return out, nil
}

func faceNormal(a, b, c [3]float32) [3]float32 {
	pa := math.V3(a[0], a[1], a[2])
	e1 := math.V3(b[0], b[1], b[2]).Sub(pa)
	e2 := math.V3(c[0], c[1], c[2]).Sub(pa)
	return e1.Cross(e2).Normalize().Array()
}
