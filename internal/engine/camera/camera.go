// Package camera provides the scene's perspective camera.
package camera

import (
	"errors"
	"fmt"
	gomath "math"

	"github.com/Faultbox/sceneforge/pkg/math"
)

// ErrInvalidCamera is returned when camera intrinsics cannot form a projection.
var ErrInvalidCamera = errors.New("invalid camera parameters")

// Camera is a perspective camera.
// Rotation is in radians: X and Y swing the look target around the camera
// position, Z rolls the up vector. FOV is the vertical field of view in degrees.
type Camera struct {
	Position     math.Vec3 `yaml:"position"`
	Rotation     math.Vec3 `yaml:"rotation"`
	TargetOffset math.Vec3 `yaml:"target_offset"`
	Up           math.Vec3 `yaml:"up"`
	FOV          float32   `yaml:"fov"`
	ZNear        float32   `yaml:"z_near"`
	ZFar         float32   `yaml:"z_far"`
}

// Update is a partial camera change; nil fields are left untouched.
type Update struct {
	Position     *math.Vec3
	Rotation     *math.Vec3
	TargetOffset *math.Vec3
	Up           *math.Vec3
	FOV          *float32
	ZNear        *float32
	ZFar         *float32
}

// Default returns a camera 100 units back on +Z looking at the origin.
func Default() Camera {
	return Camera{
		Position:     math.V3(0, 0, 100),
		TargetOffset: math.V3(0, 0, -100),
		Up:           math.V3(0, 1, 0),
		FOV:          60,
		ZNear:        1,
		ZFar:         2000,
	}
}

// Validate checks the intrinsic parameters.
func (c Camera) Validate() error {
	switch {
	case !(c.FOV > 0 && c.FOV < 180):
		return fmt.Errorf("%w: fov %g must be in (0, 180)", ErrInvalidCamera, c.FOV)
	case !(c.ZNear > 0):
		return fmt.Errorf("%w: z_near %g must be > 0", ErrInvalidCamera, c.ZNear)
	case !(c.ZNear < c.ZFar):
		return fmt.Errorf("%w: z_near %g must be < z_far %g", ErrInvalidCamera, c.ZNear, c.ZFar)
	case c.TargetOffset.Length() == 0:
		return fmt.Errorf("%w: target offset is zero", ErrInvalidCamera)
	case c.Up.Length() == 0:
		return fmt.Errorf("%w: up vector is zero", ErrInvalidCamera)
	}
	return nil
}

// Apply returns the camera with u applied. The receiver is not modified, and
// an invalid result is rejected so the caller can keep the old camera.
func (c Camera) Apply(u Update) (Camera, error) {
	next := c
	if u.Position != nil {
		next.Position = *u.Position
	}
	if u.Rotation != nil {
		next.Rotation = *u.Rotation
	}
	if u.TargetOffset != nil {
		next.TargetOffset = *u.TargetOffset
	}
	if u.Up != nil {
		next.Up = *u.Up
	}
	if u.FOV != nil {
		next.FOV = *u.FOV
	}
	if u.ZNear != nil {
		next.ZNear = *u.ZNear
	}
	if u.ZFar != nil {
		next.ZFar = *u.ZFar
	}
	if err := next.Validate(); err != nil {
		return c, err
	}
	return next, nil
}

// Target returns the look-at point: position + target offset, swung around
// the position by Rotation.X about X and then Rotation.Y about Y.
func (c Camera) Target() math.Vec3 {
	t := c.Position.Add(c.TargetOffset)
	t = t.RotateXAround(c.Rotation.X, c.Position)
	return t.RotateYAround(c.Rotation.Y, c.Position)
}

// UpVector returns Up rolled by Rotation.Z about the Z axis.
func (c Camera) UpVector() math.Vec3 {
	return c.Up.RotateZAround(c.Rotation.Z, math.Vec3{})
}

// Projection returns the perspective matrix for the given aspect ratio.
func (c Camera) Projection(aspect float32) (math.Mat4, error) {
	fov := c.FOV * float32(gomath.Pi/180)
	return math.Perspective(fov, aspect, c.ZNear, c.ZFar)
}

// CameraToWorld returns the camera's placement in world space.
func (c Camera) CameraToWorld() (math.Mat4, error) {
	return math.LookAt(c.Position, c.Target(), c.UpVector())
}

// View returns the world-to-camera matrix.
func (c Camera) View() (math.Mat4, error) {
	camToWorld, err := c.CameraToWorld()
	if err != nil {
		return math.Mat4{}, err
	}
	return camToWorld.Inverse()
}

// ViewProjection returns projection * view for the given aspect ratio.
// Fails with math.ErrDegenerateTransform on a zero-height canvas, a target
// coinciding with the position, or an up vector parallel to the view direction.
func (c Camera) ViewProjection(aspect float32) (math.Mat4, error) {
	projection, err := c.Projection(aspect)
	if err != nil {
		return math.Mat4{}, fmt.Errorf("projection: %w", err)
	}
	view, err := c.View()
	if err != nil {
		return math.Mat4{}, fmt.Errorf("view: %w", err)
	}
	return projection.Mul(view), nil
}
