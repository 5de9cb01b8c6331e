// Package math provides the float32 vector and matrix types shared by the
// renderer, camera and picking code.
package math

import "math"

// Vec3 is a 3D vector.
type Vec3 struct {
	X float32 `yaml:"x"`
	Y float32 `yaml:"y"`
	Z float32 `yaml:"z"`
}

// V3 is shorthand for Vec3{x, y, z}.
func V3(x, y, z float32) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

// Scale returns v * scalar.
func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Mul returns the component-wise product.
func (v Vec3) Mul(other Vec3) Vec3 {
	return Vec3{v.X * other.X, v.Y * other.Y, v.Z * other.Z}
}

// Dot returns the dot product.
func (v Vec3) Dot(other Vec3) float32 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Cross returns the cross product.
func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3{
		v.Y*other.Z - v.Z*other.Y,
		v.Z*other.X - v.X*other.Z,
		v.X*other.Y - v.Y*other.X,
	}
}

// Length returns the magnitude.
func (v Vec3) Length() float32 {
	return float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y + v.Z*v.Z)))
}

// Normalize returns a unit vector.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{}
	}
	return Vec3{v.X / l, v.Y / l, v.Z / l}
}

// Distance returns the distance to another point.
func (v Vec3) Distance(other Vec3) float32 {
	return v.Sub(other).Length()
}

// Array returns the components as an array (for GPU upload).
func (v Vec3) Array() [3]float32 {
	return [3]float32{v.X, v.Y, v.Z}
}

// IsFinite reports whether no component is NaN or infinite.
func (v Vec3) IsFinite() bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

// RotateXAround rotates the point around center about the X axis.
// angle is in radians.
func (v Vec3) RotateXAround(angle float32, center Vec3) Vec3 {
	c, s := sincos(angle)
	d := v.Sub(center)
	return Vec3{
		X: v.X,
		Y: center.Y + d.Y*c - d.Z*s,
		Z: center.Z + d.Y*s + d.Z*c,
	}
}

// RotateYAround rotates the point around center about the Y axis.
// angle is in radians.
func (v Vec3) RotateYAround(angle float32, center Vec3) Vec3 {
	c, s := sincos(angle)
	d := v.Sub(center)
	return Vec3{
		X: center.X + d.X*c + d.Z*s,
		Y: v.Y,
		Z: center.Z - d.X*s + d.Z*c,
	}
}

// RotateZAround rotates the point around center about the Z axis.
// angle is in radians.
func (v Vec3) RotateZAround(angle float32, center Vec3) Vec3 {
	c, s := sincos(angle)
	d := v.Sub(center)
	return Vec3{
		X: center.X + d.X*c - d.Y*s,
		Y: center.Y + d.X*s + d.Y*c,
		Z: v.Z,
	}
}

func sincos(angle float32) (c, s float32) {
	sn, cs := math.Sincos(float64(angle))
	return float32(cs), float32(sn)
}

func isFinite(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}
