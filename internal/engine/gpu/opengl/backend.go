// Package opengl implements gpu.Backend on an OpenGL 4.1 core context.
package opengl

import (
	"errors"
	"fmt"
	"image"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/sceneforge/internal/engine/geometry"
	"github.com/Faultbox/sceneforge/internal/engine/gpu"
	"github.com/Faultbox/sceneforge/internal/logger"
)

// vertexStride is the size of one interleaved vertex: position, normal, texcoord.
const vertexStride = 8 * 4

// Config holds backend configuration.
type Config struct {
	ClearColor  [3]float32
	CullFaces   bool
	Multisample bool
}

type meshBuffers struct {
	vao, vbo, ebo uint32
}

// Backend issues OpenGL calls. It must be used from the thread owning the context.
type Backend struct {
	config   Config
	meshes   map[uint32]meshBuffers
	programs map[gpu.Program]*programLocations
}

// New creates a backend.
// IMPORTANT: Must be called AFTER the OpenGL context is created!
func New(cfg Config) (*Backend, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	if cfg.CullFaces {
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	}
	if cfg.Multisample {
		gl.Enable(gl.MULTISAMPLE)
	}
	gl.ClearColor(cfg.ClearColor[0], cfg.ClearColor[1], cfg.ClearColor[2], 1.0)

	return &Backend{
		config:   cfg,
		meshes:   make(map[uint32]meshBuffers),
		programs: make(map[gpu.Program]*programLocations),
	}, nil
}

// Close releases every buffer and program still owned by the backend.
func (b *Backend) Close() {
	logger.Info("closing OpenGL backend", zap.Int("meshes", len(b.meshes)))
	for id := range b.meshes {
		b.DeleteMesh(gpu.Mesh{ID: id})
	}
	for p := range b.programs {
		gl.DeleteProgram(uint32(p))
	}
	b.programs = map[gpu.Program]*programLocations{}
}

// CompileProgram implements gpu.Backend.
func (b *Backend) CompileProgram(vertexSrc, fragmentSrc string) (gpu.Program, error) {
	program, err := compileProgram(vertexSrc, fragmentSrc)
	if err != nil {
		return 0, err
	}
	b.programs[gpu.Program(program)] = lookupLocations(program)
	logger.Debug("shader program created", zap.Uint32("program", program))
	return gpu.Program(program), nil
}

// DeleteProgram implements gpu.Backend.
func (b *Backend) DeleteProgram(p gpu.Program) {
	if _, ok := b.programs[p]; !ok {
		return
	}
	gl.DeleteProgram(uint32(p))
	delete(b.programs, p)
}

// UploadMesh implements gpu.Backend.
func (b *Backend) UploadMesh(mesh *geometry.Mesh) (gpu.Mesh, error) {
	if len(mesh.Vertices) == 0 {
		return gpu.Mesh{}, errors.New("mesh has no vertices")
	}

	var buf meshBuffers
	gl.GenVertexArrays(1, &buf.vao)
	gl.BindVertexArray(buf.vao)

	gl.GenBuffers(1, &buf.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, buf.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(mesh.Vertices)*vertexStride, unsafe.Pointer(&mesh.Vertices[0]), gl.STATIC_DRAW)

	// Position (location = 0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, vertexStride, 0)
	gl.EnableVertexAttribArray(0)
	// Normal (location = 1)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, vertexStride, 3*4)
	gl.EnableVertexAttribArray(1)
	// TexCoord (location = 2)
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, vertexStride, 6*4)
	gl.EnableVertexAttribArray(2)

	if mesh.Indexed() && len(mesh.Indices) > 0 {
		gl.GenBuffers(1, &buf.ebo)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, buf.ebo)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(mesh.Indices)*4, unsafe.Pointer(&mesh.Indices[0]), gl.STATIC_DRAW)
	}

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	b.meshes[buf.vao] = buf
	logger.Debug("mesh uploaded",
		zap.Uint32("vao", buf.vao),
		zap.Int("vertices", len(mesh.Vertices)),
		zap.Int("indices", len(mesh.Indices)),
	)
	return gpu.Mesh{ID: buf.vao, ElementCount: mesh.ElementCount(), Indexed: mesh.Indexed()}, nil
}

// DeleteMesh implements gpu.Backend.
func (b *Backend) DeleteMesh(mesh gpu.Mesh) {
	buf, ok := b.meshes[mesh.ID]
	if !ok {
		return
	}
	gl.DeleteVertexArrays(1, &buf.vao)
	gl.DeleteBuffers(1, &buf.vbo)
	if buf.ebo != 0 {
		gl.DeleteBuffers(1, &buf.ebo)
	}
	delete(b.meshes, mesh.ID)
}

// CreateTexture implements gpu.Backend.
func (b *Backend) CreateTexture(img *image.RGBA) (gpu.Texture, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return 0, errors.New("empty texture image")
	}
	if img.Stride != w*4 {
		tight := image.NewRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			copy(tight.Pix[y*tight.Stride:], img.Pix[img.PixOffset(bounds.Min.X, bounds.Min.Y+y):][:w*4])
		}
		img = tight
	}

	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(w), int32(h), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	return gpu.Texture(tex), nil
}

// DeleteTexture implements gpu.Backend.
func (b *Backend) DeleteTexture(tex gpu.Texture) {
	t := uint32(tex)
	gl.DeleteTextures(1, &t)
}

// BeginFrame implements gpu.Backend.
func (b *Backend) BeginFrame(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// UseProgram implements gpu.Backend.
func (b *Backend) UseProgram(p gpu.Program) {
	gl.UseProgram(uint32(p))
	if locs, ok := b.programs[p]; ok {
		gl.Uniform1i(locs.texture, 0)
	}
}

// BindMesh implements gpu.Backend. Attribute layout is fixed and recorded in
// the VAO at upload, so binding the VAO is enough for any scene program.
func (b *Backend) BindMesh(_ gpu.Program, mesh gpu.Mesh) {
	gl.BindVertexArray(mesh.ID)
}

// BindTexture implements gpu.Backend.
func (b *Backend) BindTexture(tex gpu.Texture) {
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, uint32(tex))
}

// SetUniforms implements gpu.Backend.
func (b *Backend) SetUniforms(p gpu.Program, u *gpu.Uniforms) {
	locs, ok := b.programs[p]
	if !ok {
		return
	}
	gl.UniformMatrix4fv(locs.mvp, 1, false, u.MVP.Ptr())
	gl.UniformMatrix4fv(locs.world, 1, false, u.World.Ptr())
	gl.UniformMatrix4fv(locs.normal, 1, false, u.Normal.Ptr())
	gl.Uniform3f(locs.ambient, u.Ambient.X, u.Ambient.Y, u.Ambient.Z)
	gl.Uniform1f(locs.lightMultiplier, u.LightMultiplier)
	gl.Uniform3f(locs.viewPosition, u.ViewPosition.X, u.ViewPosition.Y, u.ViewPosition.Z)
	for i, l := range u.Lights {
		ll := locs.lights[i]
		gl.Uniform3f(ll.position, l.Position.X, l.Position.Y, l.Position.Z)
		gl.Uniform3f(ll.color, l.Color.X, l.Color.Y, l.Color.Z)
		gl.Uniform1f(ll.shininess, l.Shininess)
		gl.Uniform1f(ll.attenuation, l.Attenuation)
	}
}

// Draw implements gpu.Backend.
func (b *Backend) Draw(mesh gpu.Mesh) {
	if mesh.Indexed {
		gl.DrawElementsWithOffset(gl.TRIANGLES, mesh.ElementCount, gl.UNSIGNED_INT, 0)
		return
	}
	gl.DrawArrays(gl.TRIANGLES, 0, mesh.ElementCount)
}

// ReadPixels returns the back buffer as bottom-up RGBA rows.
func (b *Backend) ReadPixels(width, height int) []byte {
	if width <= 0 || height <= 0 {
		return nil
	}
	pixels := make([]byte, width*height*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadBuffer(gl.BACK)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels
}
