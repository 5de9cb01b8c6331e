// Package lighting holds the two point lights shared by every scene object.
package lighting

import (
	"errors"
	"fmt"
	stdmath "math"

	"github.com/Faultbox/sceneforge/internal/engine/gpu"
	"github.com/Faultbox/sceneforge/pkg/math"
)

// ErrUnknownSlot is returned for a light slot other than first or second.
var ErrUnknownSlot = errors.New("unknown light slot")

// Slot names one of the two scene lights.
type Slot int

const (
	First Slot = iota
	Second
)

// Slots lists both slots in uniform order.
var Slots = [2]Slot{First, Second}

func (s Slot) String() string {
	switch s {
	case First:
		return "first"
	case Second:
		return "second"
	}
	return fmt.Sprintf("slot(%d)", int(s))
}

// ParseSlot converts "first" or "second" to a Slot.
func ParseSlot(name string) (Slot, error) {
	switch name {
	case "first", "1":
		return First, nil
	case "second", "2":
		return Second, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSlot, name)
}

// PointLight is a point light source.
type PointLight struct {
	Position    math.Vec3 `yaml:"position"`
	Color       math.Vec3 `yaml:"color"` // RGB, 0-1 per channel
	Shininess   float32   `yaml:"shininess"`
	Attenuation float32   `yaml:"attenuation"` // quadratic falloff coefficient
}

// Update is a partial light change; nil fields are left untouched.
type Update struct {
	Position    *math.Vec3
	Color       *math.Vec3
	Shininess   *float32
	Attenuation *float32
}

// Lights holds exactly two point lights.
type Lights struct {
	lights [2]PointLight
}

// DefaultFirst returns the default key light.
func DefaultFirst() PointLight {
	return PointLight{
		Position:    math.V3(100, 100, 100),
		Color:       math.V3(1, 1, 1),
		Shininess:   32,
		Attenuation: 0.00001,
	}
}

// DefaultSecond returns the default fill light.
func DefaultSecond() PointLight {
	return PointLight{
		Position:    math.V3(-100, 50, -100),
		Color:       math.V3(0.4, 0.4, 0.6),
		Shininess:   16,
		Attenuation: 0.00002,
	}
}

// New returns lights initialised with first and second.
func New(first, second PointLight) *Lights {
	l := &Lights{}
	l.lights[First] = sanitize(first)
	l.lights[Second] = sanitize(second)
	return l
}

// Default returns the default two-point setup.
func Default() *Lights {
	return New(DefaultFirst(), DefaultSecond())
}

// Get returns a copy of the light in slot.
func (l *Lights) Get(slot Slot) (PointLight, error) {
	if slot != First && slot != Second {
		return PointLight{}, fmt.Errorf("%w: %v", ErrUnknownSlot, slot)
	}
	return l.lights[slot], nil
}

// Set applies a partial update to the light in slot.
// Colors are clamped to 0-1, shininess and attenuation to >= 0, and NaN
// components become 0. A non-finite position is rejected.
func (l *Lights) Set(slot Slot, u Update) error {
	if slot != First && slot != Second {
		return fmt.Errorf("%w: %v", ErrUnknownSlot, slot)
	}
	if u.Position != nil && !u.Position.IsFinite() {
		return fmt.Errorf("%w: light position %v", math.ErrDegenerateTransform, *u.Position)
	}
	light := l.lights[slot]
	if u.Position != nil {
		light.Position = *u.Position
	}
	if u.Color != nil {
		light.Color = *u.Color
	}
	if u.Shininess != nil {
		light.Shininess = *u.Shininess
	}
	if u.Attenuation != nil {
		light.Attenuation = *u.Attenuation
	}
	l.lights[slot] = sanitize(light)
	return nil
}

// Uniforms returns both lights in shader order.
func (l *Lights) Uniforms() [2]gpu.LightUniform {
	var out [2]gpu.LightUniform
	for i, light := range l.lights {
		out[i] = gpu.LightUniform{
			Position:    light.Position,
			Color:       light.Color,
			Shininess:   light.Shininess,
			Attenuation: light.Attenuation,
		}
	}
	return out
}

func sanitize(light PointLight) PointLight {
	light.Color = math.V3(clamp01(light.Color.X), clamp01(light.Color.Y), clamp01(light.Color.Z))
	light.Shininess = nonNegative(light.Shininess)
	light.Attenuation = nonNegative(light.Attenuation)
	if !light.Position.IsFinite() {
		light.Position = math.Vec3{}
	}
	return light
}

// clamp01 clamps v to [0, 1]; NaN becomes 0.
func clamp01(v float32) float32 {
	if v != v {
		return 0
	}
	return min(max(v, 0), 1)
}

// nonNegative maps NaN, infinities and negatives to 0.
func nonNegative(v float32) float32 {
	if v != v || v > stdmath.MaxFloat32 || v < 0 {
		return 0
	}
	return v
}
