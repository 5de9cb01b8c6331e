package scene

import (
	"github.com/Faultbox/sceneforge/internal/engine/geometry"
	"github.com/Faultbox/sceneforge/internal/engine/gpu"
	"github.com/Faultbox/sceneforge/internal/engine/picking"
	"github.com/Faultbox/sceneforge/internal/engine/renderer"
	"github.com/Faultbox/sceneforge/pkg/math"
)

// Object is one placed shape.
type Object struct {
	Name string
	Kind geometry.Kind

	Position math.Vec3
	Rotation math.Vec3 // radians
	Scale    math.Vec3

	// LightMultiplier blends between unlit (0) and fully lit (1).
	LightMultiplier float32

	Program gpu.Program
	Mesh    gpu.Mesh
	Texture gpu.Texture
	Bounds  geometry.Bounds

	ownsMesh    bool // imported mesh, freed with the object
	ownsTexture bool // user texture, freed with the object or on replace
}

// CustomTexture reports whether a user texture has been applied.
func (o *Object) CustomTexture() bool {
	return o.ownsTexture
}

// World returns the object's world matrix.
func (o *Object) World() math.Mat4 {
	return renderer.WorldMatrix(o.Position, o.Rotation, o.Scale)
}

// WorldBounds returns the world-space box around the object.
func (o *Object) WorldBounds() picking.AABB {
	return picking.TransformAABB(o.Bounds.Min, o.Bounds.Max, o.World())
}

func (o *Object) drawable(h Handle) renderer.Drawable {
	return renderer.Drawable{
		ID:              h,
		Program:         o.Program,
		Mesh:            o.Mesh,
		Texture:         o.Texture,
		Position:        o.Position,
		Rotation:        o.Rotation,
		Scale:           o.Scale,
		LightMultiplier: o.LightMultiplier,
	}
}

// TransformUpdate changes any subset of an object's transform.
type TransformUpdate struct {
	Position *math.Vec3
	Rotation *math.Vec3
	Scale    *math.Vec3
}
