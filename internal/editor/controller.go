// Package editor turns user intent (key actions, clicks, dropped files) into
// calls on the scene's public operations. It holds the selection and nothing
// else; all scene state lives in the scene.
package editor

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/Faultbox/sceneforge/internal/engine/camera"
	"github.com/Faultbox/sceneforge/internal/engine/geometry"
	"github.com/Faultbox/sceneforge/internal/engine/lighting"
	"github.com/Faultbox/sceneforge/internal/engine/scene"
	"github.com/Faultbox/sceneforge/internal/logger"
	"github.com/Faultbox/sceneforge/pkg/math"
)

// ErrNoSelection is returned by actions that need a selected object.
var ErrNoSelection = errors.New("no object selected")

// Scene is the part of *scene.Scene the editor drives.
type Scene interface {
	CreateObject(kind geometry.Kind, source []byte) (scene.Handle, error)
	DeleteObject(h scene.Handle) error
	Object(h scene.Handle) (scene.Object, error)
	Handles() []scene.Handle
	SetTransform(h scene.Handle, u scene.TransformUpdate) error
	SetLightMultiplier(h scene.Handle, v float32) error
	SetTexture(h scene.Handle, data []byte) error
	Camera() camera.Camera
	SetCameraParams(u camera.Update) error
	Light(slot lighting.Slot) (lighting.PointLight, error)
	SetLight(slot lighting.Slot, u lighting.Update) error
	SetSortByState(on bool)
	Pick(x, y float32) (scene.Handle, bool)
}

// Steps holds the increments applied per action.
type Steps struct {
	Move   float32
	Rotate float32 // radians
	Scale  float32 // relative, 0.1 = 10%
	Camera float32
	Light  float32
}

// DefaultSteps returns the default increments.
func DefaultSteps() Steps {
	return Steps{Move: 5, Rotate: 0.1, Scale: 0.1, Camera: 10, Light: 0.1}
}

// Controller dispatches editor actions onto a scene.
type Controller struct {
	scene    Scene
	steps    Steps
	log      *zap.Logger
	selected scene.Handle

	sorted     bool
	lightOff   [2]bool
	savedColor [2]math.Vec3
}

// New returns a controller for s.
func New(s Scene, steps Steps, sortByState bool) *Controller {
	return &Controller{
		scene:  s,
		steps:  steps,
		log:    logger.Named("editor"),
		sorted: sortByState,
	}
}

// Selected returns the selected object, if it is still live.
func (c *Controller) Selected() (scene.Handle, bool) {
	if c.selected.IsZero() {
		return scene.Handle{}, false
	}
	if _, err := c.scene.Object(c.selected); err != nil {
		c.selected = scene.Handle{}
		return scene.Handle{}, false
	}
	return c.selected, true
}

// Select makes h the selection.
func (c *Controller) Select(h scene.Handle) {
	c.selected = h
}

// Do performs one action. Quit, screenshots and the file dialogs are left to
// the caller.
func (c *Controller) Do(a Action) error {
	var err error
	switch a {
	case ActionNone, OpenMesh, OpenTexture, Screenshot, Quit:
		return nil
	case AddCube:
		_, err = c.add(geometry.KindCube, nil)
	case AddCone:
		_, err = c.add(geometry.KindCone, nil)
	case AddSphere:
		_, err = c.add(geometry.KindSphere, nil)
	case DeleteSelected:
		err = c.deleteSelected()
	case SelectNext:
		c.cycle(1)
	case SelectPrev:
		c.cycle(-1)

	case MoveLeft:
		err = c.move(math.V3(-1, 0, 0))
	case MoveRight:
		err = c.move(math.V3(1, 0, 0))
	case MoveUp:
		err = c.move(math.V3(0, 1, 0))
	case MoveDown:
		err = c.move(math.V3(0, -1, 0))
	case MoveForward:
		err = c.move(math.V3(0, 0, -1))
	case MoveBack:
		err = c.move(math.V3(0, 0, 1))

	case RotateXNeg:
		err = c.rotate(math.V3(-1, 0, 0))
	case RotateXPos:
		err = c.rotate(math.V3(1, 0, 0))
	case RotateYNeg:
		err = c.rotate(math.V3(0, -1, 0))
	case RotateYPos:
		err = c.rotate(math.V3(0, 1, 0))
	case RotateZNeg:
		err = c.rotate(math.V3(0, 0, -1))
	case RotateZPos:
		err = c.rotate(math.V3(0, 0, 1))

	case ScaleUp:
		err = c.scale(1 + c.steps.Scale)
	case ScaleDown:
		err = c.scale(1 / (1 + c.steps.Scale))

	case LightLess:
		err = c.lightMultiplier(-c.steps.Light)
	case LightMore:
		err = c.lightMultiplier(c.steps.Light)

	case CameraLeft:
		err = c.moveCamera(0, -1, 0)
	case CameraRight:
		err = c.moveCamera(0, 1, 0)
	case CameraUp:
		err = c.moveCamera(0, 0, 1)
	case CameraDown:
		err = c.moveCamera(0, 0, -1)
	case CameraForward:
		err = c.moveCamera(1, 0, 0)
	case CameraBack:
		err = c.moveCamera(-1, 0, 0)
	case CameraYawLeft:
		err = c.yawCamera(c.steps.Rotate)
	case CameraYawRight:
		err = c.yawCamera(-c.steps.Rotate)

	case ToggleFirstLight:
		err = c.toggleLight(lighting.First)
	case ToggleSecondLight:
		err = c.toggleLight(lighting.Second)
	case ToggleSort:
		c.sorted = !c.sorted
		c.scene.SetSortByState(c.sorted)
		c.log.Info("draw sorting", zap.Bool("enabled", c.sorted))

	default:
		return fmt.Errorf("unknown action %d", int(a))
	}
	if err != nil {
		return fmt.Errorf("%s: %w", a, err)
	}
	return nil
}

func (c *Controller) add(kind geometry.Kind, source []byte) (scene.Handle, error) {
	h, err := c.scene.CreateObject(kind, source)
	if err != nil {
		return scene.Handle{}, err
	}
	c.selected = h
	c.log.Debug("added", zap.Stringer("handle", h), zap.String("kind", string(kind)))
	return h, nil
}

// ImportMesh adds an object from OBJ or glTF data and selects it.
func (c *Controller) ImportMesh(data []byte) (scene.Handle, error) {
	return c.add(geometry.KindMesh, data)
}

// ApplyTexture starts loading an image onto the selected object.
func (c *Controller) ApplyTexture(data []byte) error {
	h, ok := c.Selected()
	if !ok {
		return ErrNoSelection
	}
	return c.scene.SetTexture(h, data)
}

// Click selects the nearest object under the pixel, or clears the selection.
func (c *Controller) Click(x, y int) {
	if h, ok := c.scene.Pick(float32(x), float32(y)); ok {
		c.selected = h
		return
	}
	c.selected = scene.Handle{}
}

func (c *Controller) deleteSelected() error {
	h, ok := c.Selected()
	if !ok {
		return ErrNoSelection
	}
	// Keep the selection on a neighbour so repeated deletes work.
	handles := c.scene.Handles()
	next := scene.Handle{}
	if i := slices.Index(handles, h); i >= 0 && len(handles) > 1 {
		if i+1 < len(handles) {
			next = handles[i+1]
		} else {
			next = handles[i-1]
		}
	}
	if err := c.scene.DeleteObject(h); err != nil {
		return err
	}
	c.selected = next
	return nil
}

func (c *Controller) cycle(dir int) {
	handles := c.scene.Handles()
	if len(handles) == 0 {
		c.selected = scene.Handle{}
		return
	}
	i := slices.Index(handles, c.selected)
	switch {
	case i < 0 && dir > 0:
		i = 0
	case i < 0:
		i = len(handles) - 1
	default:
		i = (i + dir + len(handles)) % len(handles)
	}
	c.selected = handles[i]
}

func (c *Controller) selectedObject() (scene.Handle, scene.Object, error) {
	h, ok := c.Selected()
	if !ok {
		return h, scene.Object{}, ErrNoSelection
	}
	obj, err := c.scene.Object(h)
	return h, obj, err
}

func (c *Controller) move(dir math.Vec3) error {
	h, obj, err := c.selectedObject()
	if err != nil {
		return err
	}
	p := obj.Position.Add(dir.Scale(c.steps.Move))
	return c.scene.SetTransform(h, scene.TransformUpdate{Position: &p})
}

func (c *Controller) rotate(axis math.Vec3) error {
	h, obj, err := c.selectedObject()
	if err != nil {
		return err
	}
	r := obj.Rotation.Add(axis.Scale(c.steps.Rotate))
	return c.scene.SetTransform(h, scene.TransformUpdate{Rotation: &r})
}

func (c *Controller) scale(factor float32) error {
	h, obj, err := c.selectedObject()
	if err != nil {
		return err
	}
	s := obj.Scale.Scale(factor)
	return c.scene.SetTransform(h, scene.TransformUpdate{Scale: &s})
}

func (c *Controller) lightMultiplier(delta float32) error {
	h, obj, err := c.selectedObject()
	if err != nil {
		return err
	}
	return c.scene.SetLightMultiplier(h, obj.LightMultiplier+delta)
}

// moveCamera moves the camera and its target together along the view
// direction, its right vector and world up.
func (c *Controller) moveCamera(forward, right, up float32) error {
	cam := c.scene.Camera()
	fwd := cam.Target().Sub(cam.Position).Normalize()
	side := fwd.Cross(cam.UpVector()).Normalize()

	delta := fwd.Scale(forward).
		Add(side.Scale(right)).
		Add(math.V3(0, up, 0)).
		Scale(c.steps.Camera)
	p := cam.Position.Add(delta)
	return c.scene.SetCameraParams(camera.Update{Position: &p})
}

func (c *Controller) yawCamera(angle float32) error {
	r := c.scene.Camera().Rotation
	r.Y += angle
	return c.scene.SetCameraParams(camera.Update{Rotation: &r})
}

// toggleLight switches a light off by zeroing its color and back on by
// restoring it.
func (c *Controller) toggleLight(slot lighting.Slot) error {
	light, err := c.scene.Light(slot)
	if err != nil {
		return err
	}
	color := math.Vec3{}
	if c.lightOff[slot] {
		color = c.savedColor[slot]
	} else {
		c.savedColor[slot] = light.Color
	}
	if err := c.scene.SetLight(slot, lighting.Update{Color: &color}); err != nil {
		return err
	}
	c.lightOff[slot] = !c.lightOff[slot]
	c.log.Info("light toggled", zap.Stringer("slot", slot), zap.Bool("on", !c.lightOff[slot]))
	return nil
}

// LightOn reports whether the light in slot is switched on.
func (c *Controller) LightOn(slot lighting.Slot) bool {
	return !c.lightOff[slot]
}

// Status describes the selection for the window title.
func (c *Controller) Status() string {
	n := len(c.scene.Handles())
	h, ok := c.Selected()
	if !ok {
		return fmt.Sprintf("%d objects", n)
	}
	obj, _ := c.scene.Object(h)
	return fmt.Sprintf("%d objects, selected %s", n, obj.Name)
}
