// Package gputest provides a recording gpu.Backend for tests.
package gputest

import (
	"errors"
	"fmt"
	"image"

	"github.com/Faultbox/sceneforge/internal/engine/geometry"
	"github.com/Faultbox/sceneforge/internal/engine/gpu"
)

// Call is one recorded backend call.
type Call struct {
	Op       string
	Program  gpu.Program
	Mesh     gpu.Mesh
	Texture  gpu.Texture
	Uniforms gpu.Uniforms
}

func (c Call) String() string {
	switch c.Op {
	case "UseProgram":
		return fmt.Sprintf("UseProgram(%d)", c.Program)
	case "BindMesh":
		return fmt.Sprintf("BindMesh(%d, %d)", c.Program, c.Mesh.ID)
	case "BindTexture":
		return fmt.Sprintf("BindTexture(%d)", c.Texture)
	case "Draw":
		return fmt.Sprintf("Draw(%d, %d)", c.Mesh.ID, c.Mesh.ElementCount)
	}
	return c.Op
}

// Recorder records every call and hands out sequential IDs.
// It is not safe for concurrent use, like a real GL context.
type Recorder struct {
	Calls []Call

	// Live resources
	Programs map[gpu.Program]bool
	Meshes   map[uint32]*geometry.Mesh
	Textures map[gpu.Texture]*image.RGBA

	// FailUpload makes UploadMesh fail.
	FailUpload bool
	// FailTexture makes CreateTexture fail.
	FailTexture bool

	nextID uint32
}

// New returns an empty recorder.
func New() *Recorder {
	return &Recorder{
		Programs: make(map[gpu.Program]bool),
		Meshes:   make(map[uint32]*geometry.Mesh),
		Textures: make(map[gpu.Texture]*image.RGBA),
	}
}

func (r *Recorder) id() uint32 {
	r.nextID++
	return r.nextID
}

// CompileProgram implements gpu.Backend.
func (r *Recorder) CompileProgram(_, _ string) (gpu.Program, error) {
	p := gpu.Program(r.id())
	r.Programs[p] = true
	r.Calls = append(r.Calls, Call{Op: "CompileProgram", Program: p})
	return p, nil
}

// DeleteProgram implements gpu.Backend.
func (r *Recorder) DeleteProgram(p gpu.Program) {
	delete(r.Programs, p)
	r.Calls = append(r.Calls, Call{Op: "DeleteProgram", Program: p})
}

// UploadMesh implements gpu.Backend.
func (r *Recorder) UploadMesh(mesh *geometry.Mesh) (gpu.Mesh, error) {
	if r.FailUpload {
		return gpu.Mesh{}, errors.New("upload failed")
	}
	m := gpu.Mesh{ID: r.id(), ElementCount: mesh.ElementCount(), Indexed: mesh.Indexed()}
	r.Meshes[m.ID] = mesh
	r.Calls = append(r.Calls, Call{Op: "UploadMesh", Mesh: m})
	return m, nil
}

// DeleteMesh implements gpu.Backend.
func (r *Recorder) DeleteMesh(mesh gpu.Mesh) {
	delete(r.Meshes, mesh.ID)
	r.Calls = append(r.Calls, Call{Op: "DeleteMesh", Mesh: mesh})
}

// CreateTexture implements gpu.Backend.
func (r *Recorder) CreateTexture(img *image.RGBA) (gpu.Texture, error) {
	if r.FailTexture {
		return 0, errors.New("texture creation failed")
	}
	tex := gpu.Texture(r.id())
	r.Textures[tex] = img
	r.Calls = append(r.Calls, Call{Op: "CreateTexture", Texture: tex})
	return tex, nil
}

// DeleteTexture implements gpu.Backend.
func (r *Recorder) DeleteTexture(tex gpu.Texture) {
	delete(r.Textures, tex)
	r.Calls = append(r.Calls, Call{Op: "DeleteTexture", Texture: tex})
}

// BeginFrame implements gpu.Backend.
func (r *Recorder) BeginFrame(_, _ int) {
	r.Calls = append(r.Calls, Call{Op: "BeginFrame"})
}

// UseProgram implements gpu.Backend.
func (r *Recorder) UseProgram(p gpu.Program) {
	r.Calls = append(r.Calls, Call{Op: "UseProgram", Program: p})
}

// BindMesh implements gpu.Backend.
func (r *Recorder) BindMesh(p gpu.Program, mesh gpu.Mesh) {
	r.Calls = append(r.Calls, Call{Op: "BindMesh", Program: p, Mesh: mesh})
}

// BindTexture implements gpu.Backend.
func (r *Recorder) BindTexture(tex gpu.Texture) {
	r.Calls = append(r.Calls, Call{Op: "BindTexture", Texture: tex})
}

// SetUniforms implements gpu.Backend.
func (r *Recorder) SetUniforms(p gpu.Program, u *gpu.Uniforms) {
	r.Calls = append(r.Calls, Call{Op: "SetUniforms", Program: p, Uniforms: *u})
}

// Draw implements gpu.Backend.
func (r *Recorder) Draw(mesh gpu.Mesh) {
	r.Calls = append(r.Calls, Call{Op: "Draw", Mesh: mesh})
}

// Count returns how many calls of op were recorded.
func (r *Recorder) Count(op string) int {
	n := 0
	for _, c := range r.Calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Filter returns the recorded calls of op, in order.
func (r *Recorder) Filter(op string) []Call {
	var out []Call
	for _, c := range r.Calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets recorded calls but keeps live resources.
func (r *Recorder) Reset() {
	r.Calls = r.Calls[:0]
}
