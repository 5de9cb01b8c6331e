// Package picking provides ray casting and object picking utilities.
package picking

import (
	gomath "math"

	"github.com/Faultbox/sceneforge/pkg/math"
)

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3 // Normalized direction
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) math.Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// AABB represents an axis-aligned bounding box.
type AABB struct {
	Min math.Vec3
	Max math.Vec3
}

// ScreenToRay converts screen coordinates to a world-space ray.
// screenX, screenY are pixel coordinates, viewportW/H are viewport dimensions.
// invViewProj is the inverse of the view-projection matrix.
func ScreenToRay(screenX, screenY, viewportW, viewportH float32, invViewProj math.Mat4) Ray {
	// Convert screen coords to normalized device coords (-1 to 1)
	ndcX := 2.0*screenX/viewportW - 1.0
	ndcY := 1.0 - 2.0*screenY/viewportH // Flip Y

	near := unproject(invViewProj, math.Vec4{ndcX, ndcY, -1.0, 1.0})
	far := unproject(invViewProj, math.Vec4{ndcX, ndcY, 1.0, 1.0})

	return Ray{Origin: near, Direction: far.Sub(near).Normalize()}
}

// unproject maps a clip-space point back to world space with perspective divide.
func unproject(invViewProj math.Mat4, p math.Vec4) math.Vec3 {
	w := invViewProj.MulVec4(p)
	if w[3] != 0 {
		return math.V3(w[0]/w[3], w[1]/w[3], w[2]/w[3])
	}
	return math.V3(w[0], w[1], w[2])
}

// IntersectPlaneY intersects a ray with a horizontal plane at the given Y level.
// Returns the intersection point (X, Z) and whether the intersection is valid.
func (r Ray) IntersectPlaneY(planeY float32) (x, z float32, ok bool) {
	if gomath.Abs(float64(r.Direction.Y)) < 0.001 {
		return 0, 0, false // Ray parallel to plane
	}

	t := (planeY - r.Origin.Y) / r.Direction.Y
	if t < 0 {
		return 0, 0, false // Intersection behind ray origin
	}

	p := r.At(t)
	return p.X, p.Z, true
}

// IntersectAABB tests ray intersection with an axis-aligned bounding box.
// Returns the distance to intersection (t) and whether intersection occurred.
// If the ray starts inside the box, returns the exit distance.
func (r Ray) IntersectAABB(box AABB) (t float32, hit bool) {
	tmin := float32(-gomath.MaxFloat32)
	tmax := float32(gomath.MaxFloat32)

	origin, dir := r.Origin.Array(), r.Direction.Array()
	bmin, bmax := box.Min.Array(), box.Max.Array()
	for i := 0; i < 3; i++ {
		if dir[i] == 0 {
			if origin[i] < bmin[i] || origin[i] > bmax[i] {
				return 0, false
			}
			continue
		}
		t1 := (bmin[i] - origin[i]) / dir[i]
		t2 := (bmax[i] - origin[i]) / dir[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}

	// Return entry point, or exit point if starting inside
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// NewAABB creates an AABB from two opposite corners in any order.
func NewAABB(a, b math.Vec3) AABB {
	return AABB{
		Min: math.V3(min(a.X, b.X), min(a.Y, b.Y), min(a.Z, b.Z)),
		Max: math.V3(max(a.X, b.X), max(a.Y, b.Y), max(a.Z, b.Z)),
	}
}

// TransformAABB returns the world-space box enclosing a local box after
// transformation by world. Rotation grows the box to fit all eight corners.
func TransformAABB(localMin, localMax [3]float32, world math.Mat4) AABB {
	var box AABB
	for i := 0; i < 8; i++ {
		corner := math.V3(localMin[0], localMin[1], localMin[2])
		if i&1 != 0 {
			corner.X = localMax[0]
		}
		if i&2 != 0 {
			corner.Y = localMax[1]
		}
		if i&4 != 0 {
			corner.Z = localMax[2]
		}
		p := world.TransformPoint(corner)
		if i == 0 {
			box = AABB{Min: p, Max: p}
			continue
		}
		box = NewAABB(
			math.V3(min(box.Min.X, p.X), min(box.Min.Y, p.Y), min(box.Min.Z, p.Z)),
			math.V3(max(box.Max.X, p.X), max(box.Max.Y, p.Y), max(box.Max.Z, p.Z)),
		)
	}
	return box
}
