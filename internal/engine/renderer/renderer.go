// Package renderer turns the live scene objects into draw calls once per frame.
package renderer

import (
	"cmp"
	"fmt"
	"iter"
	"slices"

	"github.com/Faultbox/sceneforge/internal/engine/gpu"
	"github.com/Faultbox/sceneforge/pkg/math"
)

// DefaultAmbient is the ambient color every object receives.
var DefaultAmbient = math.V3(0.2, 0.2, 0.2)

// Drawable is the per-frame view of one scene object.
type Drawable struct {
	ID              fmt.Stringer // for skip reports only
	Program         gpu.Program
	Mesh            gpu.Mesh
	Texture         gpu.Texture
	Position        math.Vec3
	Rotation        math.Vec3 // radians
	Scale           math.Vec3
	LightMultiplier float32
}

// Environment is the per-frame state shared by every object.
type Environment struct {
	Ambient math.Vec3
	Eye     math.Vec3 // camera position, for specular
	Lights  [2]gpu.LightUniform
}

// Stats counts what a frame issued.
type Stats struct {
	Objects      int
	Draws        int
	ProgramBinds int
	MeshBinds    int
	TextureBinds int
	Skipped      int
}

// Options controls frame rendering.
type Options struct {
	// SortByState reorders the frame by program, mesh and texture so that
	// objects sharing state are adjacent. Off keeps creation order.
	SortByState bool
	// OnSkip is called for each object that could not be drawn.
	OnSkip func(d Drawable, err error)
}

// Frame renders frames. It keeps scratch space between frames and is not
// safe for concurrent use.
type Frame struct {
	opts    Options
	scratch []Drawable
}

// New creates a frame renderer.
func New(opts Options) *Frame {
	return &Frame{opts: opts}
}

// SetSortByState toggles state sorting.
func (f *Frame) SetSortByState(on bool) {
	f.opts.SortByState = on
}

// WorldMatrix composes translate, rotate X, Y, Z, then scale, in that fixed order.
func WorldMatrix(position, rotation, scale math.Vec3) math.Mat4 {
	return math.Identity().
		Translate(position).
		RotateX(rotation.X).
		RotateY(rotation.Y).
		RotateZ(rotation.Z).
		Scale(scale)
}

// NormalMatrix returns transpose(inverse(world)).
func NormalMatrix(world math.Mat4) (math.Mat4, error) {
	inv, err := world.Inverse()
	if err != nil {
		return math.Mat4{}, err
	}
	return inv.Transpose(), nil
}

// BuildUniforms assembles the uniform set for one object.
func BuildUniforms(viewProj math.Mat4, d Drawable, env Environment) (gpu.Uniforms, error) {
	if !d.Position.IsFinite() || !d.Rotation.IsFinite() || !d.Scale.IsFinite() {
		return gpu.Uniforms{}, fmt.Errorf("%w: non-finite transform", math.ErrDegenerateTransform)
	}
	world := WorldMatrix(d.Position, d.Rotation, d.Scale)
	normal, err := NormalMatrix(world)
	if err != nil {
		return gpu.Uniforms{}, fmt.Errorf("normal matrix: %w", err)
	}
	mvp := viewProj.Mul(world)
	if !mvp.IsFinite() {
		return gpu.Uniforms{}, fmt.Errorf("%w: non-finite mvp", math.ErrDegenerateTransform)
	}
	return gpu.Uniforms{
		MVP:             mvp,
		World:           world,
		Normal:          normal,
		Ambient:         env.Ambient,
		LightMultiplier: d.LightMultiplier,
		ViewPosition:    env.Eye,
		Lights:          env.Lights,
	}, nil
}

// bindState tracks what is currently bound on the backend.
type bindState struct {
	program    gpu.Program
	mesh       uint32
	texture    gpu.Texture
	hasProgram bool
	hasMesh    bool
	hasTexture bool
}

// Render draws objects in order. The program is rebound only when it differs
// from the previous object's, buffers only when the program changed or the
// mesh differs, and the texture only when the program changed or the texture
// differs. An object whose transform is degenerate is skipped; no object can
// abort the frame.
func (f *Frame) Render(viewProj math.Mat4, objects iter.Seq[Drawable], env Environment, backend gpu.Backend) Stats {
	var stats Stats
	var state bindState

	if f.opts.SortByState {
		f.scratch = slices.AppendSeq(f.scratch[:0], objects)
		slices.SortStableFunc(f.scratch, compareState)
		objects = slices.Values(f.scratch)
	}

	for d := range objects {
		stats.Objects++
		if err := f.drawOne(viewProj, d, env, backend, &state, &stats); err != nil {
			stats.Skipped++
			if f.opts.OnSkip != nil {
				f.opts.OnSkip(d, err)
			}
		}
	}
	return stats
}

func (f *Frame) drawOne(viewProj math.Mat4, d Drawable, env Environment, backend gpu.Backend, state *bindState, stats *Stats) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("draw panicked: %v", r)
			// Backend state is unknown after a panic.
			*state = bindState{}
		}
	}()

	uniforms, err := BuildUniforms(viewProj, d, env)
	if err != nil {
		return err
	}

	programChanged := !state.hasProgram || state.program != d.Program
	if programChanged {
		backend.UseProgram(d.Program)
		state.program, state.hasProgram = d.Program, true
		stats.ProgramBinds++
	}
	if programChanged || !state.hasMesh || state.mesh != d.Mesh.ID {
		backend.BindMesh(d.Program, d.Mesh)
		state.mesh, state.hasMesh = d.Mesh.ID, true
		stats.MeshBinds++
	}
	if programChanged || !state.hasTexture || state.texture != d.Texture {
		backend.BindTexture(d.Texture)
		state.texture, state.hasTexture = d.Texture, true
		stats.TextureBinds++
	}

	backend.SetUniforms(d.Program, &uniforms)
	backend.Draw(d.Mesh)
	stats.Draws++
	return nil
}

func compareState(a, b Drawable) int {
	return cmp.Or(
		cmp.Compare(a.Program, b.Program),
		cmp.Compare(a.Mesh.ID, b.Mesh.ID),
		cmp.Compare(a.Texture, b.Texture),
	)
}
