package input

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/sceneforge/internal/editor"
)

// Keymap maps key presses to editor actions.
type Keymap struct {
	keys  map[sdl.Scancode]editor.Action
	shift map[sdl.Scancode]editor.Action // overrides when Shift is held
}

// DefaultKeymap returns the built-in bindings.
func DefaultKeymap() *Keymap {
	return &Keymap{
		keys: map[sdl.Scancode]editor.Action{
			sdl.SCANCODE_1:      editor.AddCube,
			sdl.SCANCODE_2:      editor.AddCone,
			sdl.SCANCODE_3:      editor.AddSphere,
			sdl.SCANCODE_DELETE: editor.DeleteSelected,
			sdl.SCANCODE_TAB:    editor.SelectNext,

			sdl.SCANCODE_LEFT:     editor.MoveLeft,
			sdl.SCANCODE_RIGHT:    editor.MoveRight,
			sdl.SCANCODE_PAGEUP:   editor.MoveUp,
			sdl.SCANCODE_PAGEDOWN: editor.MoveDown,
			sdl.SCANCODE_UP:       editor.MoveForward,
			sdl.SCANCODE_DOWN:     editor.MoveBack,

			sdl.SCANCODE_W: editor.RotateXNeg,
			sdl.SCANCODE_S: editor.RotateXPos,
			sdl.SCANCODE_A: editor.RotateYNeg,
			sdl.SCANCODE_D: editor.RotateYPos,
			sdl.SCANCODE_Q: editor.RotateZPos,
			sdl.SCANCODE_E: editor.RotateZNeg,

			sdl.SCANCODE_EQUALS:       editor.ScaleUp,
			sdl.SCANCODE_KP_PLUS:      editor.ScaleUp,
			sdl.SCANCODE_MINUS:        editor.ScaleDown,
			sdl.SCANCODE_KP_MINUS:     editor.ScaleDown,
			sdl.SCANCODE_LEFTBRACKET:  editor.LightLess,
			sdl.SCANCODE_RIGHTBRACKET: editor.LightMore,

			sdl.SCANCODE_I:      editor.CameraForward,
			sdl.SCANCODE_K:      editor.CameraBack,
			sdl.SCANCODE_J:      editor.CameraLeft,
			sdl.SCANCODE_L:      editor.CameraRight,
			sdl.SCANCODE_U:      editor.CameraUp,
			sdl.SCANCODE_O:      editor.CameraDown,
			sdl.SCANCODE_COMMA:  editor.CameraYawLeft,
			sdl.SCANCODE_PERIOD: editor.CameraYawRight,

			sdl.SCANCODE_F1:  editor.ToggleFirstLight,
			sdl.SCANCODE_F2:  editor.ToggleSecondLight,
			sdl.SCANCODE_F3:  editor.ToggleSort,
			sdl.SCANCODE_F5:  editor.OpenMesh,
			sdl.SCANCODE_F6:  editor.OpenTexture,
			sdl.SCANCODE_F12: editor.Screenshot,

			sdl.SCANCODE_ESCAPE: editor.Quit,
		},
		shift: map[sdl.Scancode]editor.Action{
			sdl.SCANCODE_TAB: editor.SelectPrev,
		},
	}
}

// Action returns the action bound to a key event, or editor.ActionNone.
// Held keys repeat transform and camera actions but never add or delete.
func (k *Keymap) Action(e Event) editor.Action {
	if e.Type != EventKeyDown {
		return editor.ActionNone
	}
	a, ok := k.shift[e.Key]
	if !ok || !e.Shift {
		a = k.keys[e.Key]
	}
	if e.Repeat && !repeatable(a) {
		return editor.ActionNone
	}
	return a
}

// Bind sets the action for a key.
func (k *Keymap) Bind(sc sdl.Scancode, a editor.Action) {
	k.keys[sc] = a
}

func repeatable(a editor.Action) bool {
	switch a {
	case editor.AddCube, editor.AddCone, editor.AddSphere, editor.DeleteSelected,
		editor.ToggleFirstLight, editor.ToggleSecondLight, editor.ToggleSort,
		editor.OpenMesh, editor.OpenTexture, editor.Screenshot, editor.Quit:
		return false
	}
	return true
}
