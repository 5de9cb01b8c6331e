// Package gpu defines the graphics backend the scene core issues commands to,
// along with the opaque handles and the typed uniform record of the fixed
// scene shader.
package gpu

import (
	"image"

	"github.com/Faultbox/sceneforge/internal/engine/geometry"
	"github.com/Faultbox/sceneforge/pkg/math"
)

// Program identifies a linked shader program.
type Program uint32

// Texture identifies a texture object.
type Texture uint32

// Mesh identifies an uploaded vertex buffer set and how to draw it.
// Two meshes are the same buffer set iff their IDs are equal.
type Mesh struct {
	ID           uint32
	ElementCount int32
	Indexed      bool
}

// LightUniform is the per-light part of the uniform set.
type LightUniform struct {
	Position    math.Vec3
	Color       math.Vec3
	Shininess   float32
	Attenuation float32
}

// Uniforms is the complete uniform set for one draw of the scene shader.
type Uniforms struct {
	MVP             math.Mat4
	World           math.Mat4
	Normal          math.Mat4
	Ambient         math.Vec3
	LightMultiplier float32
	ViewPosition    math.Vec3
	Lights          [2]LightUniform
}

// Backend owns the GPU context. All methods must be called from the thread
// that owns the context.
type Backend interface {
	CompileProgram(vertexSrc, fragmentSrc string) (Program, error)
	DeleteProgram(p Program)

	UploadMesh(mesh *geometry.Mesh) (Mesh, error)
	DeleteMesh(mesh Mesh)

	CreateTexture(img *image.RGBA) (Texture, error)
	DeleteTexture(tex Texture)

	// BeginFrame sets the viewport and clears the color and depth buffers.
	BeginFrame(width, height int)

	UseProgram(p Program)
	// BindMesh binds mesh's buffers to p's vertex attributes.
	BindMesh(p Program, mesh Mesh)
	BindTexture(tex Texture)
	SetUniforms(p Program, u *Uniforms)
	Draw(mesh Mesh)
}
