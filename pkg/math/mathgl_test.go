package math_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	sfmath "github.com/Faultbox/sceneforge/pkg/math"
)

// Mat4 shares mathgl's column-major layout, so results compare element-wise.

func approx(t *testing.T, name string, got sfmath.Mat4, want mgl32.Mat4) {
	t.Helper()
	for i := range 16 {
		d := got[i] - want[i]
		if d < -1e-4 || d > 1e-4 {
			t.Errorf("%s: element %d = %v, want %v", name, i, got[i], want[i])
		}
	}
}

func TestAgainstMathgl(t *testing.T) {
	perspective, err := sfmath.Perspective(mgl32.DegToRad(60), 16.0/9, 0.1, 1000)
	if err != nil {
		t.Fatal(err)
	}
	approx(t, "perspective", perspective, mgl32.Perspective(mgl32.DegToRad(60), 16.0/9, 0.1, 1000))

	approx(t, "translate", sfmath.Translate(1, -2, 3), mgl32.Translate3D(1, -2, 3))
	approx(t, "scale", sfmath.Scale(2, 3, 4), mgl32.Scale3D(2, 3, 4))
	approx(t, "rotateX", sfmath.RotateX(0.7), mgl32.HomogRotate3DX(0.7))
	approx(t, "rotateY", sfmath.RotateY(-1.1), mgl32.HomogRotate3DY(-1.1))
	approx(t, "rotateZ", sfmath.RotateZ(2.5), mgl32.HomogRotate3DZ(2.5))

	composed := sfmath.Translate(5, 0, -3).Mul(sfmath.RotateY(0.4)).Mul(sfmath.Scale(2, 2, 2))
	approx(t, "composed", composed,
		mgl32.Translate3D(5, 0, -3).Mul4(mgl32.HomogRotate3DY(0.4)).Mul4(mgl32.Scale3D(2, 2, 2)))

	inv, err := composed.Inverse()
	if err != nil {
		t.Fatal(err)
	}
	approx(t, "inverse", inv, mgl32.Translate3D(5, 0, -3).Mul4(mgl32.HomogRotate3DY(0.4)).Mul4(mgl32.Scale3D(2, 2, 2)).Inv())
}

func TestLookAtInverseIsMathglView(t *testing.T) {
	tests := []struct {
		name            string
		eye, target, up sfmath.Vec3
	}{
		{"down -z", sfmath.V3(0, 0, 5), sfmath.V3(0, 0, 0), sfmath.V3(0, 1, 0)},
		{"oblique", sfmath.V3(100, 250, 400), sfmath.V3(0, 0, 0), sfmath.V3(0, 1, 0)},
		{"offset target", sfmath.V3(-3, 2, 1), sfmath.V3(4, 0, -8), sfmath.V3(0, 1, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			world, err := sfmath.LookAt(tt.eye, tt.target, tt.up)
			if err != nil {
				t.Fatal(err)
			}
			view, err := world.Inverse()
			if err != nil {
				t.Fatal(err)
			}
			want := mgl32.LookAtV(
				mgl32.Vec3{tt.eye.X, tt.eye.Y, tt.eye.Z},
				mgl32.Vec3{tt.target.X, tt.target.Y, tt.target.Z},
				mgl32.Vec3{tt.up.X, tt.up.Y, tt.up.Z},
			)
			approx(t, tt.name, view, want)
		})
	}
}
