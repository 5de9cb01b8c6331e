// Package scene owns the editable 3D scene: the object registry, the camera,
// the two point lights and the per-frame draw submission.
//
// A Scene is confined to the thread that owns the GPU context. Texture decoding
// is the only work done elsewhere; its results are applied at the start of the
// next Tick.
package scene

import (
	"errors"
	"fmt"
	"iter"

	"go.uber.org/zap"

	"github.com/Faultbox/sceneforge/internal/engine/camera"
	"github.com/Faultbox/sceneforge/internal/engine/geometry"
	"github.com/Faultbox/sceneforge/internal/engine/gpu"
	"github.com/Faultbox/sceneforge/internal/engine/gpu/opengl/shaders"
	"github.com/Faultbox/sceneforge/internal/engine/lighting"
	"github.com/Faultbox/sceneforge/internal/engine/picking"
	"github.com/Faultbox/sceneforge/internal/engine/renderer"
	"github.com/Faultbox/sceneforge/internal/engine/texture"
	"github.com/Faultbox/sceneforge/internal/logger"
	"github.com/Faultbox/sceneforge/pkg/math"
)

// ErrInvalidScale is returned for a scale with a negative component.
var ErrInvalidScale = errors.New("invalid scale")

// Config contains scene configuration options.
type Config struct {
	Width  int
	Height int

	Camera      camera.Camera
	FirstLight  lighting.PointLight
	SecondLight lighting.PointLight
	Ambient     math.Vec3

	// SortByState groups draws by program, mesh and texture each frame.
	SortByState bool

	Textures texture.LoaderConfig
}

// DefaultConfig returns a default scene configuration.
func DefaultConfig() Config {
	return Config{
		Width:       1280,
		Height:      720,
		Camera:      camera.Default(),
		FirstLight:  lighting.DefaultFirst(),
		SecondLight: lighting.DefaultSecond(),
		Ambient:     renderer.DefaultAmbient,
		Textures:    texture.DefaultLoaderConfig(),
	}
}

// textureKey tags a decode request so that only the latest request per
// object is applied.
type textureKey struct {
	handle Handle
	seq    uint64
}

type primitive struct {
	mesh   gpu.Mesh
	bounds geometry.Bounds
}

// Scene manages the objects, camera and lights and renders them.
type Scene struct {
	backend  gpu.Backend
	provider *geometry.Provider
	registry *Registry
	frame    *renderer.Frame
	loader   *texture.Loader[textureKey]
	log      *zap.Logger

	camera  camera.Camera
	lights  *lighting.Lights
	ambient math.Vec3

	program    gpu.Program
	white      gpu.Texture
	primitives map[geometry.Kind]primitive

	pending map[Handle]uint64
	seq     uint64
	names   map[geometry.Kind]int

	width  int
	height int
	closed bool
}

// New creates a scene drawing through backend. The backend's context must be
// current on the calling thread.
func New(backend gpu.Backend, provider *geometry.Provider, cfg Config) (*Scene, error) {
	if err := cfg.Camera.Validate(); err != nil {
		return nil, err
	}
	if provider == nil {
		provider = geometry.NewProvider()
	}

	s := &Scene{
		backend:    backend,
		provider:   provider,
		registry:   NewRegistry(),
		log:        logger.Named("scene"),
		camera:     cfg.Camera,
		lights:     lighting.New(cfg.FirstLight, cfg.SecondLight),
		ambient:    cfg.Ambient,
		primitives: make(map[geometry.Kind]primitive),
		pending:    make(map[Handle]uint64),
		names:      make(map[geometry.Kind]int),
		width:      cfg.Width,
		height:     cfg.Height,
	}
	s.frame = renderer.New(renderer.Options{
		SortByState: cfg.SortByState,
		OnSkip:      s.onSkip,
	})

	program, err := backend.CompileProgram(shaders.SceneVertexShader, shaders.SceneFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("scene program: %w", err)
	}
	s.program = program

	white, err := backend.CreateTexture(texture.Placeholder())
	if err != nil {
		backend.DeleteProgram(program)
		return nil, fmt.Errorf("placeholder texture: %w", err)
	}
	s.white = white

	s.loader = texture.NewLoader[textureKey](cfg.Textures)

	s.log.Info("scene created",
		zap.Int("width", s.width),
		zap.Int("height", s.height),
		zap.Bool("sortByState", cfg.SortByState))
	return s, nil
}

func (s *Scene) onSkip(d renderer.Drawable, err error) {
	s.log.Warn("object skipped", zap.Stringer("handle", d.ID), zap.Error(err))
}

// CreateObject adds an object of kind at the origin with unit scale. source is
// the mesh file for geometry.KindMesh and ignored otherwise. On failure nothing
// is registered.
func (s *Scene) CreateObject(kind geometry.Kind, source []byte) (Handle, error) {
	obj := Object{
		Kind:            kind,
		Scale:           math.V3(1, 1, 1),
		LightMultiplier: 1,
		Program:         s.program,
		Texture:         s.white,
	}

	if kind.IsPrimitive() {
		p, err := s.primitive(kind)
		if err != nil {
			return Handle{}, err
		}
		obj.Mesh, obj.Bounds = p.mesh, p.bounds
	} else {
		data, err := s.provider.Build(kind, source)
		if err != nil {
			return Handle{}, err
		}
		mesh, err := s.backend.UploadMesh(data)
		if err != nil {
			return Handle{}, fmt.Errorf("upload %s mesh: %w", kind, err)
		}
		obj.Mesh, obj.Bounds, obj.ownsMesh = mesh, data.Bounds, true
	}

	s.names[kind]++
	obj.Name = fmt.Sprintf("%s %d", kind, s.names[kind])

	h := s.registry.Create(obj)
	s.log.Debug("object created", zap.Stringer("handle", h), zap.String("name", obj.Name))
	return h, nil
}

// primitive returns the shared GPU mesh for a primitive kind, uploading it on
// first use.
func (s *Scene) primitive(kind geometry.Kind) (primitive, error) {
	if p, ok := s.primitives[kind]; ok {
		return p, nil
	}
	data, err := s.provider.Build(kind, nil)
	if err != nil {
		return primitive{}, err
	}
	mesh, err := s.backend.UploadMesh(data)
	if err != nil {
		return primitive{}, fmt.Errorf("upload %s mesh: %w", kind, err)
	}
	p := primitive{mesh: mesh, bounds: data.Bounds}
	s.primitives[kind] = p
	return p, nil
}

// DeleteObject removes an object and frees the GPU resources only it used.
// A texture still decoding for it is discarded when it completes.
func (s *Scene) DeleteObject(h Handle) error {
	obj, err := s.registry.Remove(h)
	if err != nil {
		return err
	}
	s.release(obj)
	delete(s.pending, h)
	s.log.Debug("object deleted", zap.Stringer("handle", h), zap.String("name", obj.Name))
	return nil
}

func (s *Scene) release(obj Object) {
	if obj.ownsMesh {
		s.backend.DeleteMesh(obj.Mesh)
	}
	if obj.ownsTexture {
		s.backend.DeleteTexture(obj.Texture)
	}
}

// SetTransform updates any subset of an object's position, rotation and scale.
func (s *Scene) SetTransform(h Handle, u TransformUpdate) error {
	obj, err := s.registry.Get(h)
	if err != nil {
		return err
	}
	for _, v := range []*math.Vec3{u.Position, u.Rotation, u.Scale} {
		if v != nil && !v.IsFinite() {
			return fmt.Errorf("%w: non-finite component in %v", math.ErrDegenerateTransform, *v)
		}
	}
	if u.Scale != nil && (u.Scale.X < 0 || u.Scale.Y < 0 || u.Scale.Z < 0) {
		return fmt.Errorf("%w: %v has a negative component", ErrInvalidScale, *u.Scale)
	}

	if u.Position != nil {
		obj.Position = *u.Position
	}
	if u.Rotation != nil {
		obj.Rotation = *u.Rotation
	}
	if u.Scale != nil {
		obj.Scale = *u.Scale
	}
	return nil
}

// SetLightMultiplier sets how strongly the lights affect an object, clamped
// to [0, 1].
func (s *Scene) SetLightMultiplier(h Handle, v float32) error {
	obj, err := s.registry.Get(h)
	if err != nil {
		return err
	}
	if !(v >= 0) {
		v = 0
	}
	obj.LightMultiplier = min(v, 1)
	return nil
}

// SetTexture starts decoding data for an object's texture. The object keeps
// its current texture until a later Tick applies the result; a failed decode
// is logged and leaves it unchanged. Only the most recent request per object
// is applied.
func (s *Scene) SetTexture(h Handle, data []byte) error {
	if !s.registry.Contains(h) {
		return fmt.Errorf("%w: %s", ErrStaleHandle, h)
	}
	s.seq++
	key := textureKey{handle: h, seq: s.seq}
	if err := s.loader.Submit(key, data); err != nil {
		return fmt.Errorf("texture for %s: %w", h, err)
	}
	s.pending[h] = key.seq
	return nil
}

// TexturePending reports whether a texture request for h has not been
// applied yet.
func (s *Scene) TexturePending(h Handle) bool {
	_, ok := s.pending[h]
	return ok
}

// applyTextures uploads finished decodes for objects that still exist.
func (s *Scene) applyTextures() {
	s.loader.Drain(func(r texture.Result[textureKey]) {
		h := r.Key.handle
		if seq, ok := s.pending[h]; !ok || seq != r.Key.seq {
			s.log.Debug("texture result discarded", zap.Stringer("handle", h))
			return
		}
		delete(s.pending, h)

		obj, err := s.registry.Get(h)
		if err != nil {
			s.log.Debug("texture result discarded", zap.Stringer("handle", h), zap.Error(err))
			return
		}
		if r.Err != nil {
			s.log.Warn("texture decode failed", zap.Stringer("handle", h), zap.Error(r.Err))
			return
		}
		tex, err := s.backend.CreateTexture(r.Image)
		if err != nil {
			s.log.Warn("texture upload failed", zap.Stringer("handle", h), zap.Error(err))
			return
		}
		if obj.ownsTexture {
			s.backend.DeleteTexture(obj.Texture)
		}
		obj.Texture, obj.ownsTexture = tex, true
		s.log.Debug("texture applied",
			zap.Stringer("handle", h),
			zap.Int("width", r.Image.Rect.Dx()),
			zap.Int("height", r.Image.Rect.Dy()))
	})
}

// WaitTextures blocks until every submitted texture has finished decoding.
// The results are applied by the next Tick.
func (s *Scene) WaitTextures() {
	s.loader.Wait()
}

// Camera returns the current camera.
func (s *Scene) Camera() camera.Camera {
	return s.camera
}

// SetCameraParams applies a partial camera change. An invalid combination is
// rejected and leaves the camera untouched.
func (s *Scene) SetCameraParams(u camera.Update) error {
	next, err := s.camera.Apply(u)
	if err != nil {
		return err
	}
	s.camera = next
	return nil
}

// Light returns the light in slot.
func (s *Scene) Light(slot lighting.Slot) (lighting.PointLight, error) {
	return s.lights.Get(slot)
}

// SetLight applies a partial change to the light in slot.
func (s *Scene) SetLight(slot lighting.Slot, u lighting.Update) error {
	return s.lights.Set(slot, u)
}

// SetSortByState toggles per-frame state sorting.
func (s *Scene) SetSortByState(on bool) {
	s.frame.SetSortByState(on)
}

// Resize sets the canvas size in pixels.
func (s *Scene) Resize(width, height int) {
	s.width, s.height = width, height
}

// Size returns the canvas size in pixels.
func (s *Scene) Size() (width, height int) {
	return s.width, s.height
}

func (s *Scene) aspect() float32 {
	if s.height <= 0 {
		return 0
	}
	return float32(s.width) / float32(s.height)
}

// Tick applies finished texture loads and renders one frame. A camera that
// cannot form a view-projection draws nothing for the frame.
func (s *Scene) Tick() renderer.Stats {
	s.applyTextures()
	s.backend.BeginFrame(s.width, s.height)

	viewProj, err := s.camera.ViewProjection(s.aspect())
	if err != nil {
		s.log.Warn("frame skipped", zap.Error(err))
		return renderer.Stats{}
	}

	env := renderer.Environment{
		Ambient: s.ambient,
		Eye:     s.camera.Position,
		Lights:  s.lights.Uniforms(),
	}
	return s.frame.Render(viewProj, s.drawables(), env, s.backend)
}

func (s *Scene) drawables() iter.Seq[renderer.Drawable] {
	return func(yield func(renderer.Drawable) bool) {
		for h, obj := range s.registry.All() {
			if !yield(obj.drawable(h)) {
				return
			}
		}
	}
}

// Object returns a copy of the object for h.
func (s *Scene) Object(h Handle) (Object, error) {
	obj, err := s.registry.Get(h)
	if err != nil {
		return Object{}, err
	}
	return *obj, nil
}

// Objects yields copies of the live objects in creation order.
func (s *Scene) Objects() iter.Seq2[Handle, Object] {
	return func(yield func(Handle, Object) bool) {
		for h, obj := range s.registry.All() {
			if !yield(h, *obj) {
				return
			}
		}
	}
}

// Handles returns the live handles in creation order.
func (s *Scene) Handles() []Handle {
	return s.registry.Handles()
}

// Len returns the number of live objects.
func (s *Scene) Len() int {
	return s.registry.Len()
}

// Pick returns the nearest object under the pixel (x, y).
func (s *Scene) Pick(x, y float32) (Handle, bool) {
	viewProj, err := s.camera.ViewProjection(s.aspect())
	if err != nil {
		return Handle{}, false
	}
	inv, err := viewProj.Inverse()
	if err != nil {
		return Handle{}, false
	}
	ray := picking.ScreenToRay(x, y, float32(s.width), float32(s.height), inv)

	var (
		best    Handle
		bestT   float32
		hitSome bool
	)
	for h, obj := range s.registry.All() {
		t, hit := ray.IntersectAABB(obj.WorldBounds())
		if hit && (!hitSome || t < bestT) {
			best, bestT, hitSome = h, t, true
		}
	}
	return best, hitSome
}

// Close stops texture decoding and frees every GPU resource the scene created.
func (s *Scene) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.loader.Close()
	for h, obj := range s.registry.All() {
		s.release(*obj)
		delete(s.pending, h)
	}
	s.registry = NewRegistry()
	for kind, p := range s.primitives {
		s.backend.DeleteMesh(p.mesh)
		delete(s.primitives, kind)
	}
	s.backend.DeleteTexture(s.white)
	s.backend.DeleteProgram(s.program)
	s.log.Info("scene closed")
}
