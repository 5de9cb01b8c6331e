package scene

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/Faultbox/sceneforge/internal/engine/camera"
	"github.com/Faultbox/sceneforge/internal/engine/geometry"
	"github.com/Faultbox/sceneforge/internal/engine/gpu/gputest"
	"github.com/Faultbox/sceneforge/internal/engine/lighting"
	"github.com/Faultbox/sceneforge/internal/engine/renderer"
	"github.com/Faultbox/sceneforge/internal/engine/texture"
	"github.com/Faultbox/sceneforge/pkg/math"
)

const triangleOBJ = `
v 0 0 0
v 10 0 0
v 0 10 0
f 1 2 3
`

func newScene(t *testing.T) (*Scene, *gputest.Recorder) {
	t.Helper()
	rec := gputest.New()
	cfg := DefaultConfig()
	cfg.Textures = texture.LoaderConfig{Workers: 1, QueueSize: 8}
	s, err := New(rec, nil, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(s.Close)
	return s, rec
}

func mustCreate(t *testing.T, s *Scene, kind geometry.Kind) Handle {
	t.Helper()
	h, err := s.CreateObject(kind, nil)
	if err != nil {
		t.Fatalf("CreateObject(%s) error = %v", kind, err)
	}
	return h
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func vec(x, y, z float32) *math.Vec3 {
	v := math.V3(x, y, z)
	return &v
}

func f32(v float32) *float32 { return &v }

func TestCreateObjectDefaults(t *testing.T) {
	s, _ := newScene(t)
	h := mustCreate(t, s, geometry.KindCone)

	obj, err := s.Object(h)
	if err != nil {
		t.Fatalf("Object() error = %v", err)
	}
	if obj.Kind != geometry.KindCone || obj.Name != "cone 1" {
		t.Errorf("object = %s %q", obj.Kind, obj.Name)
	}
	if obj.Scale != math.V3(1, 1, 1) || obj.Position != (math.Vec3{}) || obj.Rotation != (math.Vec3{}) {
		t.Errorf("transform = %v %v %v", obj.Position, obj.Rotation, obj.Scale)
	}
	if obj.LightMultiplier != 1 {
		t.Errorf("LightMultiplier = %v, want 1", obj.LightMultiplier)
	}
	if obj.Texture != s.white || obj.CustomTexture() {
		t.Errorf("texture = %v, want placeholder", obj.Texture)
	}
}

func TestPrimitivesShareMesh(t *testing.T) {
	s, rec := newScene(t)
	a := mustCreate(t, s, geometry.KindCube)
	b := mustCreate(t, s, geometry.KindCube)
	c := mustCreate(t, s, geometry.KindSphere)

	oa, _ := s.Object(a)
	ob, _ := s.Object(b)
	oc, _ := s.Object(c)
	if oa.Mesh.ID != ob.Mesh.ID {
		t.Error("two cubes should share one mesh")
	}
	if oa.Mesh.ID == oc.Mesh.ID {
		t.Error("cube and sphere share a mesh")
	}
	if got := rec.Count("UploadMesh"); got != 2 {
		t.Errorf("UploadMesh calls = %d, want 2", got)
	}

	// Deleting one cube keeps the shared mesh alive for the other.
	if err := s.DeleteObject(a); err != nil {
		t.Fatal(err)
	}
	if rec.Count("DeleteMesh") != 0 {
		t.Error("shared primitive mesh deleted with one object")
	}
}

func TestCreateObjectFailures(t *testing.T) {
	tests := []struct {
		name    string
		kind    geometry.Kind
		source  []byte
		fail    bool
		wantErr error
	}{
		{"unknown kind", geometry.Kind("torus"), nil, false, geometry.ErrUnknownKind},
		{"malformed mesh", geometry.KindMesh, []byte("v 1 2\nf 1 2 3\n"), false, geometry.ErrGeometryUnavailable},
		{"empty mesh", geometry.KindMesh, nil, false, geometry.ErrGeometryUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newScene(t)
			h, err := s.CreateObject(tt.kind, tt.source)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateObject() error = %v, want %v", err, tt.wantErr)
			}
			if !h.IsZero() {
				t.Errorf("handle = %v, want zero", h)
			}
			if s.Len() != 0 {
				t.Errorf("Len() = %d, want 0", s.Len())
			}
		})
	}

	t.Run("upload failure", func(t *testing.T) {
		s, rec := newScene(t)
		rec.FailUpload = true
		if _, err := s.CreateObject(geometry.KindCube, nil); err == nil {
			t.Error("expected upload error")
		}
		if s.Len() != 0 {
			t.Errorf("Len() = %d, want 0", s.Len())
		}
	})
}

func TestImportedMeshFreedOnDelete(t *testing.T) {
	s, rec := newScene(t)
	h, err := s.CreateObject(geometry.KindMesh, []byte(triangleOBJ))
	if err != nil {
		t.Fatalf("CreateObject() error = %v", err)
	}
	obj, _ := s.Object(h)
	if obj.Mesh.ElementCount != 3 {
		t.Errorf("ElementCount = %d, want 3", obj.Mesh.ElementCount)
	}

	if err := s.DeleteObject(h); err != nil {
		t.Fatal(err)
	}
	deleted := rec.Filter("DeleteMesh")
	if len(deleted) != 1 || deleted[0].Mesh.ID != obj.Mesh.ID {
		t.Errorf("DeleteMesh calls = %v", deleted)
	}
	if _, ok := rec.Meshes[obj.Mesh.ID]; ok {
		t.Error("mesh still live on the backend")
	}
}

func TestStaleHandleOperations(t *testing.T) {
	s, _ := newScene(t)
	h := mustCreate(t, s, geometry.KindCube)
	if err := s.DeleteObject(h); err != nil {
		t.Fatal(err)
	}
	reused := mustCreate(t, s, geometry.KindCube)
	before, err := s.Object(reused)
	if err != nil {
		t.Fatal(err)
	}

	checks := map[string]error{
		"DeleteObject":       s.DeleteObject(h),
		"SetTransform":       s.SetTransform(h, TransformUpdate{Position: vec(1, 2, 3)}),
		"SetLightMultiplier": s.SetLightMultiplier(h, 0.5),
		"SetTexture":         s.SetTexture(h, pngBytes(t)),
	}
	for op, err := range checks {
		if !errors.Is(err, ErrStaleHandle) {
			t.Errorf("%s error = %v, want ErrStaleHandle", op, err)
		}
	}
	if _, err := s.Object(h); !errors.Is(err, ErrStaleHandle) {
		t.Errorf("Object error = %v, want ErrStaleHandle", err)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}

	// The object now in the slot must not see any of the stale calls.
	s.WaitTextures()
	s.Tick()
	after, err := s.Object(reused)
	if err != nil {
		t.Fatalf("Object(reused) error = %v", err)
	}
	if after.Position != before.Position || after.Rotation != before.Rotation || after.Scale != before.Scale {
		t.Errorf("transform changed: %+v -> %+v", before, after)
	}
	if after.LightMultiplier != before.LightMultiplier {
		t.Errorf("light multiplier = %v, want %v", after.LightMultiplier, before.LightMultiplier)
	}
	if after.Texture != before.Texture || after.CustomTexture() {
		t.Errorf("texture = %v, want placeholder %v", after.Texture, before.Texture)
	}
	if s.TexturePending(reused) {
		t.Error("stale SetTexture left a pending request on the reused slot")
	}
}

func TestSetTransform(t *testing.T) {
	s, _ := newScene(t)
	h := mustCreate(t, s, geometry.KindCube)

	if err := s.SetTransform(h, TransformUpdate{Position: vec(1, 2, 3), Rotation: vec(0, 1.5, 0)}); err != nil {
		t.Fatalf("SetTransform() error = %v", err)
	}
	if err := s.SetTransform(h, TransformUpdate{Scale: vec(2, 2, 2)}); err != nil {
		t.Fatalf("SetTransform() error = %v", err)
	}
	obj, _ := s.Object(h)
	if obj.Position != math.V3(1, 2, 3) || obj.Rotation != math.V3(0, 1.5, 0) || obj.Scale != math.V3(2, 2, 2) {
		t.Errorf("transform = %v %v %v", obj.Position, obj.Rotation, obj.Scale)
	}

	err := s.SetTransform(h, TransformUpdate{Position: vec(9, 9, 9), Scale: vec(1, -1, 1)})
	if !errors.Is(err, ErrInvalidScale) {
		t.Errorf("negative scale error = %v, want ErrInvalidScale", err)
	}
	obj, _ = s.Object(h)
	if obj.Position != math.V3(1, 2, 3) || obj.Scale != math.V3(2, 2, 2) {
		t.Error("rejected update changed the object")
	}
}

func TestSetLightMultiplierClamps(t *testing.T) {
	s, _ := newScene(t)
	h := mustCreate(t, s, geometry.KindSphere)

	tests := []struct {
		in, want float32
	}{
		{0.25, 0.25},
		{-1, 0},
		{3, 1},
	}
	for _, tt := range tests {
		if err := s.SetLightMultiplier(h, tt.in); err != nil {
			t.Fatal(err)
		}
		obj, _ := s.Object(h)
		if obj.LightMultiplier != tt.want {
			t.Errorf("SetLightMultiplier(%v) = %v, want %v", tt.in, obj.LightMultiplier, tt.want)
		}
	}
}

func TestTickBatchesPrimitives(t *testing.T) {
	s, rec := newScene(t)
	for i := 0; i < 3; i++ {
		h := mustCreate(t, s, geometry.KindCube)
		if err := s.SetTransform(h, TransformUpdate{Position: vec(float32(i)*30, 0, 0)}); err != nil {
			t.Fatal(err)
		}
	}
	rec.Reset()

	stats := s.Tick()
	if stats.Draws != 3 || stats.ProgramBinds != 1 || stats.MeshBinds != 1 || stats.TextureBinds != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if rec.Calls[0].Op != "BeginFrame" {
		t.Errorf("first call = %s, want BeginFrame", rec.Calls[0].Op)
	}
}

func TestTickSkipsDegenerateObject(t *testing.T) {
	s, _ := newScene(t)
	flat := mustCreate(t, s, geometry.KindCube)
	mustCreate(t, s, geometry.KindCube)
	if err := s.SetTransform(flat, TransformUpdate{Scale: vec(0, 1, 1)}); err != nil {
		t.Fatalf("zero scale should be accepted: %v", err)
	}

	stats := s.Tick()
	if stats.Skipped != 1 || stats.Draws != 1 {
		t.Errorf("stats = %+v, want 1 skipped and 1 drawn", stats)
	}
}

func TestTickZeroHeightCanvas(t *testing.T) {
	s, rec := newScene(t)
	mustCreate(t, s, geometry.KindCube)
	s.Resize(640, 0)
	rec.Reset()

	stats := s.Tick()
	if stats != (renderer.Stats{}) {
		t.Errorf("stats = %+v, want empty frame", stats)
	}
	if rec.Count("Draw") != 0 {
		t.Error("drew on a zero-height canvas")
	}
}

func TestLightChangesReachUniforms(t *testing.T) {
	s, rec := newScene(t)
	mustCreate(t, s, geometry.KindCube)

	if err := s.SetLight(lighting.First, lighting.Update{Position: vec(1, 2, 3)}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetLight(lighting.Second, lighting.Update{Color: vec(2, 0.5, -1)}); err != nil {
		t.Fatal(err)
	}
	rec.Reset()
	s.Tick()

	calls := rec.Filter("SetUniforms")
	if len(calls) != 1 {
		t.Fatalf("SetUniforms calls = %d, want 1", len(calls))
	}
	u := calls[0].Uniforms
	if u.Lights[lighting.First].Position != math.V3(1, 2, 3) {
		t.Errorf("first light position = %v", u.Lights[lighting.First].Position)
	}
	if u.Lights[lighting.Second].Color != math.V3(1, 0.5, 0) {
		t.Errorf("second light color = %v, want clamped (1, 0.5, 0)", u.Lights[lighting.Second].Color)
	}
	if u.ViewPosition != s.Camera().Position {
		t.Errorf("view position = %v", u.ViewPosition)
	}
}

func TestLightChangesReachEveryLiveObject(t *testing.T) {
	s, rec := newScene(t)
	positions := []math.Vec3{math.V3(-10, 0, 0), math.V3(0, 0, 0), math.V3(10, 0, 0)}
	handles := make([]Handle, len(positions))
	for i, p := range positions {
		handles[i] = mustCreate(t, s, geometry.KindCube)
		if err := s.SetTransform(handles[i], TransformUpdate{Position: &p}); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.DeleteObject(handles[1]); err != nil {
		t.Fatal(err)
	}

	red := math.V3(1, 0, 0)
	if err := s.SetLight(lighting.First, lighting.Update{Color: &red}); err != nil {
		t.Fatal(err)
	}
	rec.Reset()
	s.Tick()

	calls := rec.Filter("SetUniforms")
	if len(calls) != 2 {
		t.Fatalf("SetUniforms calls = %d, want 2", len(calls))
	}
	for _, c := range calls {
		if c.Uniforms.Lights[lighting.First].Color != red {
			t.Errorf("first light color = %v, want %v", c.Uniforms.Lights[lighting.First].Color, red)
		}
		if got := c.Uniforms.World.Translation(); got == positions[1] {
			t.Error("deleted object received uniforms")
		}
	}
}

func TestSetCameraParams(t *testing.T) {
	s, _ := newScene(t)
	before := s.Camera()

	err := s.SetCameraParams(camera.Update{Position: vec(5, 5, 5), FOV: f32(0)})
	if !errors.Is(err, camera.ErrInvalidCamera) {
		t.Errorf("error = %v, want ErrInvalidCamera", err)
	}
	if s.Camera() != before {
		t.Error("rejected update changed the camera")
	}

	if err := s.SetCameraParams(camera.Update{FOV: f32(45), Position: vec(0, 10, 100)}); err != nil {
		t.Fatal(err)
	}
	if cam := s.Camera(); cam.FOV != 45 || cam.Position != math.V3(0, 10, 100) {
		t.Errorf("camera = %+v", cam)
	}
}

func TestSetTextureApplied(t *testing.T) {
	s, rec := newScene(t)
	h := mustCreate(t, s, geometry.KindCube)

	if err := s.SetTexture(h, pngBytes(t)); err != nil {
		t.Fatalf("SetTexture() error = %v", err)
	}
	obj, _ := s.Object(h)
	if obj.Texture != s.white {
		t.Error("texture changed before Tick")
	}

	s.WaitTextures()
	s.Tick()

	obj, _ = s.Object(h)
	if obj.Texture == s.white || !obj.CustomTexture() {
		t.Fatal("texture not applied")
	}
	img := rec.Textures[obj.Texture]
	if img == nil || img.Bounds().Dx() != 2 {
		t.Errorf("uploaded image = %v", img)
	}
	if s.TexturePending(h) {
		t.Error("request still pending")
	}

	// Replacing frees the previous user texture.
	old := obj.Texture
	if err := s.SetTexture(h, pngBytes(t)); err != nil {
		t.Fatal(err)
	}
	s.WaitTextures()
	s.Tick()
	if _, ok := rec.Textures[old]; ok {
		t.Error("replaced texture still live")
	}
}

func TestSetTextureAfterDeleteDiscarded(t *testing.T) {
	s, rec := newScene(t)
	h := mustCreate(t, s, geometry.KindCube)

	if err := s.SetTexture(h, pngBytes(t)); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteObject(h); err != nil {
		t.Fatal(err)
	}
	// The slot is reused; the result must not land on the new object.
	other := mustCreate(t, s, geometry.KindCube)
	s.WaitTextures()
	rec.Reset()
	s.Tick()

	if n := rec.Count("CreateTexture"); n != 0 {
		t.Errorf("CreateTexture calls = %d, want 0", n)
	}
	obj, _ := s.Object(other)
	if obj.CustomTexture() {
		t.Error("texture applied to the object that reused the slot")
	}
}

func TestSetTextureDecodeFailureKeepsTexture(t *testing.T) {
	s, _ := newScene(t)
	h := mustCreate(t, s, geometry.KindCube)

	if err := s.SetTexture(h, []byte("not an image")); err != nil {
		t.Fatal(err)
	}
	s.WaitTextures()
	s.Tick()

	obj, _ := s.Object(h)
	if obj.Texture != s.white || obj.CustomTexture() {
		t.Error("failed decode changed the texture")
	}
}

func TestLatestTextureWins(t *testing.T) {
	s, rec := newScene(t)
	h := mustCreate(t, s, geometry.KindCube)

	if err := s.SetTexture(h, pngBytes(t)); err != nil {
		t.Fatal(err)
	}
	if err := s.SetTexture(h, []byte("broken")); err != nil {
		t.Fatal(err)
	}
	s.WaitTextures()
	rec.Reset()
	s.Tick()

	// Only the second request counts, and it fails.
	if n := rec.Count("CreateTexture"); n != 0 {
		t.Errorf("CreateTexture calls = %d, want 0", n)
	}
}

func TestObjectsCreationOrder(t *testing.T) {
	s, _ := newScene(t)
	a := mustCreate(t, s, geometry.KindCube)
	mustCreate(t, s, geometry.KindCone)
	if err := s.DeleteObject(a); err != nil {
		t.Fatal(err)
	}
	mustCreate(t, s, geometry.KindSphere)

	var kinds []geometry.Kind
	for _, obj := range s.Objects() {
		kinds = append(kinds, obj.Kind)
	}
	if len(kinds) != 2 || kinds[0] != geometry.KindCone || kinds[1] != geometry.KindSphere {
		t.Errorf("Objects() kinds = %v, want [cone sphere]", kinds)
	}
}

func TestPick(t *testing.T) {
	s, _ := newScene(t)
	back := mustCreate(t, s, geometry.KindCube)
	front := mustCreate(t, s, geometry.KindCube)
	if err := s.SetTransform(front, TransformUpdate{Position: vec(0, 0, 50)}); err != nil {
		t.Fatal(err)
	}

	w, h := s.Size()
	got, ok := s.Pick(float32(w)/2, float32(h)/2)
	if !ok || got != front {
		t.Errorf("Pick(center) = %v, %v; want front cube %v", got, ok, front)
	}

	if err := s.DeleteObject(front); err != nil {
		t.Fatal(err)
	}
	got, ok = s.Pick(float32(w)/2, float32(h)/2)
	if !ok || got != back {
		t.Errorf("Pick(center) = %v, %v; want back cube %v", got, ok, back)
	}

	if _, ok := s.Pick(0, 0); ok {
		t.Error("Pick(corner) hit an object")
	}
}

func TestCloseReleasesResources(t *testing.T) {
	rec := gputest.New()
	s, err := New(rec, nil, DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	mustCreate(t, s, geometry.KindCube)
	if _, err := s.CreateObject(geometry.KindMesh, []byte(triangleOBJ)); err != nil {
		t.Fatal(err)
	}

	s.Close()
	s.Close()
	if len(rec.Meshes) != 0 {
		t.Errorf("%d meshes still live", len(rec.Meshes))
	}
	if len(rec.Textures) != 0 {
		t.Errorf("%d textures still live", len(rec.Textures))
	}
	if len(rec.Programs) != 0 {
		t.Errorf("%d programs still live", len(rec.Programs))
	}
}

func TestNewReleasesProgramOnFailure(t *testing.T) {
	rec := gputest.New()
	rec.FailTexture = true
	if _, err := New(rec, nil, DefaultConfig()); err == nil {
		t.Fatal("New() succeeded without a placeholder texture")
	}
	if len(rec.Programs) != 0 {
		t.Errorf("%d programs leaked", len(rec.Programs))
	}
	if rec.Count("DeleteProgram") != 1 {
		t.Errorf("DeleteProgram calls = %d, want 1", rec.Count("DeleteProgram"))
	}
}

func TestNewRejectsInvalidCamera(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Camera.ZNear = 0
	if _, err := New(gputest.New(), nil, cfg); !errors.Is(err, camera.ErrInvalidCamera) {
		t.Errorf("New() error = %v, want ErrInvalidCamera", err)
	}
}
