package picking

import (
	gomath "math"
	"testing"

	"github.com/Faultbox/sceneforge/pkg/math"
)

func near(a, b float32) bool {
	return gomath.Abs(float64(a-b)) < 1e-3
}

func TestIntersectAABB(t *testing.T) {
	box := NewAABB(math.V3(1, 1, 1), math.V3(-1, -1, -1))

	tests := []struct {
		name  string
		ray   Ray
		hit   bool
		wantT float32
	}{
		{"front", Ray{Origin: math.V3(0, 0, 10), Direction: math.V3(0, 0, -1)}, true, 9},
		{"inside", Ray{Origin: math.V3(0, 0, 0), Direction: math.V3(1, 0, 0)}, true, 1},
		{"behind", Ray{Origin: math.V3(0, 0, 10), Direction: math.V3(0, 0, 1)}, false, 0},
		{"miss", Ray{Origin: math.V3(5, 0, 10), Direction: math.V3(0, 0, -1)}, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, hit := tt.ray.IntersectAABB(box)
			if hit != tt.hit {
				t.Fatalf("hit = %v, want %v", hit, tt.hit)
			}
			if hit && !near(got, tt.wantT) {
				t.Errorf("t = %v, want %v", got, tt.wantT)
			}
		})
	}
}

func TestIntersectPlaneY(t *testing.T) {
	r := Ray{Origin: math.V3(0, 10, 0), Direction: math.V3(1, -1, 0).Normalize()}
	x, z, ok := r.IntersectPlaneY(0)
	if !ok || !near(x, 10) || !near(z, 0) {
		t.Errorf("IntersectPlaneY = (%v, %v, %v), want (10, 0, true)", x, z, ok)
	}

	flat := Ray{Origin: math.V3(0, 10, 0), Direction: math.V3(1, 0, 0)}
	if _, _, ok := flat.IntersectPlaneY(0); ok {
		t.Error("parallel ray should not intersect")
	}
}

func TestTransformAABBRotation(t *testing.T) {
	world := math.Identity().Translate(math.V3(10, 0, 0)).RotateY(gomath.Pi / 4)
	box := TransformAABB([3]float32{-1, -1, -1}, [3]float32{1, 1, 1}, world)

	r := float32(gomath.Sqrt2)
	if !near(box.Min.X, 10-r) || !near(box.Max.X, 10+r) {
		t.Errorf("X extent = [%v, %v], want [%v, %v]", box.Min.X, box.Max.X, 10-r, 10+r)
	}
	if !near(box.Min.Y, -1) || !near(box.Max.Y, 1) {
		t.Errorf("Y extent = [%v, %v], want [-1, 1]", box.Min.Y, box.Max.Y)
	}
}

func TestScreenToRayCenter(t *testing.T) {
	proj, err := math.Perspective(gomath.Pi/3, 1, 1, 100)
	if err != nil {
		t.Fatal(err)
	}
	inv, err := proj.Inverse()
	if err != nil {
		t.Fatal(err)
	}

	r := ScreenToRay(50, 50, 100, 100, inv)
	if !near(r.Direction.X, 0) || !near(r.Direction.Y, 0) || !near(r.Direction.Z, -1) {
		t.Errorf("center ray direction = %v, want (0, 0, -1)", r.Direction)
	}
	if !near(r.Origin.Z, -1) {
		t.Errorf("center ray origin z = %v, want -1 (near plane)", r.Origin.Z)
	}
}
