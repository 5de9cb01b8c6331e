package lighting

import (
	"errors"
	stdmath "math"
	"testing"

	"github.com/Faultbox/sceneforge/pkg/math"
)

func TestParseSlot(t *testing.T) {
	tests := []struct {
		in   string
		want Slot
		err  bool
	}{
		{"first", First, false},
		{"second", Second, false},
		{"2", Second, false},
		{"third", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseSlot(tt.in)
		if (err != nil) != tt.err {
			t.Errorf("ParseSlot(%q) error = %v", tt.in, err)
			continue
		}
		if !tt.err && got != tt.want {
			t.Errorf("ParseSlot(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetPartialUpdate(t *testing.T) {
	l := Default()
	red := math.V3(1, 0, 0)
	if err := l.Set(First, Update{Color: &red}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, _ := l.Get(First)
	if got.Color != red {
		t.Errorf("color = %v, want %v", got.Color, red)
	}
	if got.Position != DefaultFirst().Position {
		t.Errorf("position changed to %v", got.Position)
	}
	second, _ := l.Get(Second)
	if second != DefaultSecond() {
		t.Errorf("second light changed: %+v", second)
	}
}

func TestSetClampsColor(t *testing.T) {
	l := Default()
	c := math.V3(2, -1, 0.5)
	shin := float32(-3)
	if err := l.Set(Second, Update{Color: &c, Shininess: &shin}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, _ := l.Get(Second)
	if got.Color != math.V3(1, 0, 0.5) {
		t.Errorf("color = %v, want clamped (1, 0, 0.5)", got.Color)
	}
	if got.Shininess != 0 {
		t.Errorf("shininess = %f, want 0", got.Shininess)
	}
}

func TestUnknownSlot(t *testing.T) {
	l := Default()
	if err := l.Set(Slot(5), Update{}); !errors.Is(err, ErrUnknownSlot) {
		t.Errorf("expected ErrUnknownSlot, got %v", err)
	}
	if _, err := l.Get(Slot(-1)); !errors.Is(err, ErrUnknownSlot) {
		t.Errorf("expected ErrUnknownSlot, got %v", err)
	}
}

func TestUniformsOrder(t *testing.T) {
	u := Default().Uniforms()
	if u[0].Position != DefaultFirst().Position || u[1].Position != DefaultSecond().Position {
		t.Errorf("uniforms out of slot order: %+v", u)
	}
}

func TestSetSanitizesNonFinite(t *testing.T) {
	nan := float32(stdmath.NaN())
	inf := float32(stdmath.Inf(1))

	l := Default()
	before, _ := l.Get(First)

	bad := math.V3(nan, 0, 0)
	if err := l.Set(First, Update{Position: &bad}); !errors.Is(err, math.ErrDegenerateTransform) {
		t.Errorf("NaN position error = %v, want ErrDegenerateTransform", err)
	}
	far := math.V3(0, inf, 0)
	if err := l.Set(First, Update{Position: &far}); !errors.Is(err, math.ErrDegenerateTransform) {
		t.Errorf("infinite position error = %v, want ErrDegenerateTransform", err)
	}
	if got, _ := l.Get(First); got != before {
		t.Errorf("rejected update changed the light: %+v", got)
	}

	color := math.V3(nan, inf, 0.5)
	if err := l.Set(First, Update{Color: &color, Shininess: &nan, Attenuation: &inf}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, _ := l.Get(First)
	if got.Color != math.V3(0, 1, 0.5) {
		t.Errorf("color = %v, want (0, 1, 0.5)", got.Color)
	}
	if got.Shininess != 0 || got.Attenuation != 0 {
		t.Errorf("shininess, attenuation = %v, %v, want 0, 0", got.Shininess, got.Attenuation)
	}

	for i, u := range l.Uniforms() {
		if !u.Position.IsFinite() || !u.Color.IsFinite() || u.Shininess != u.Shininess || u.Attenuation != u.Attenuation {
			t.Errorf("light %d uniforms not finite: %+v", i, u)
		}
	}
}
