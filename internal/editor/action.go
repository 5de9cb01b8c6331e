package editor

// Action is one editor command, independent of the key that triggers it.
type Action int

// Editor actions.
const (
	ActionNone Action = iota

	AddCube
	AddCone
	AddSphere
	DeleteSelected
	SelectNext
	SelectPrev

	MoveLeft
	MoveRight
	MoveUp
	MoveDown
	MoveForward
	MoveBack

	RotateXNeg
	RotateXPos
	RotateYNeg
	RotateYPos
	RotateZNeg
	RotateZPos

	ScaleUp
	ScaleDown

	LightLess
	LightMore

	CameraLeft
	CameraRight
	CameraUp
	CameraDown
	CameraForward
	CameraBack
	CameraYawLeft
	CameraYawRight

	ToggleFirstLight
	ToggleSecondLight
	ToggleSort

	// Handled by the front end, not the controller.
	OpenMesh
	OpenTexture
	Screenshot
	Quit
)

var actionNames = map[Action]string{
	ActionNone:        "none",
	AddCube:           "add-cube",
	AddCone:           "add-cone",
	AddSphere:         "add-sphere",
	DeleteSelected:    "delete",
	SelectNext:        "select-next",
	SelectPrev:        "select-prev",
	MoveLeft:          "move-left",
	MoveRight:         "move-right",
	MoveUp:            "move-up",
	MoveDown:          "move-down",
	MoveForward:       "move-forward",
	MoveBack:          "move-back",
	RotateXNeg:        "rotate-x-",
	RotateXPos:        "rotate-x+",
	RotateYNeg:        "rotate-y-",
	RotateYPos:        "rotate-y+",
	RotateZNeg:        "rotate-z-",
	RotateZPos:        "rotate-z+",
	ScaleUp:           "scale-up",
	ScaleDown:         "scale-down",
	LightLess:         "light-less",
	LightMore:         "light-more",
	CameraLeft:        "camera-left",
	CameraRight:       "camera-right",
	CameraUp:          "camera-up",
	CameraDown:        "camera-down",
	CameraForward:     "camera-forward",
	CameraBack:        "camera-back",
	CameraYawLeft:     "camera-yaw-left",
	CameraYawRight:    "camera-yaw-right",
	ToggleFirstLight:  "toggle-light-1",
	ToggleSecondLight: "toggle-light-2",
	ToggleSort:        "toggle-sort",
	OpenMesh:          "open-mesh",
	OpenTexture:       "open-texture",
	Screenshot:        "screenshot",
	Quit:              "quit",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}
