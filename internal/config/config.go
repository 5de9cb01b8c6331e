// Package config handles editor configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/sceneforge/internal/engine/camera"
	"github.com/Faultbox/sceneforge/internal/engine/lighting"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all editor settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Camera   camera.Camera  `yaml:"camera"`
	Lights   LightsConfig   `yaml:"lights"`
	Editor   EditorConfig   `yaml:"editor"`
	Textures TexturesConfig `yaml:"textures"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width      int        `yaml:"width"`
	Height     int        `yaml:"height"`
	Fullscreen bool       `yaml:"fullscreen"`
	VSync      bool       `yaml:"vsync"`
	FPSLimit   int        `yaml:"fps_limit"`
	Samples    int        `yaml:"samples"`
	ClearColor [3]float32 `yaml:"clear_color"`
	CullFaces  bool       `yaml:"cull_faces"`
}

// LightsConfig holds the two point lights.
type LightsConfig struct {
	First  lighting.PointLight `yaml:"first"`
	Second lighting.PointLight `yaml:"second"`
}

// EditorConfig holds interaction settings. Rotation steps are in radians.
type EditorConfig struct {
	MoveStep   float32 `yaml:"move_step"`
	RotateStep float32 `yaml:"rotate_step"`
	ScaleStep  float32 `yaml:"scale_step"`
	CameraStep float32 `yaml:"camera_step"`
	SortDraws  bool    `yaml:"sort_draws"`

	// ScreenshotDir receives F12 captures. Empty means the working directory.
	ScreenshotDir string `yaml:"screenshot_dir"`
}

// TexturesConfig holds the texture decoder pool settings.
type TexturesConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
	MaxSize   int `yaml:"max_size"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			FPSLimit:   0,
			Samples:    4,
			ClearColor: [3]float32{0.1, 0.1, 0.12},
			CullFaces:  true,
		},
		Camera: camera.Default(),
		Lights: LightsConfig{
			First:  lighting.DefaultFirst(),
			Second: lighting.DefaultSecond(),
		},
		Editor: EditorConfig{
			MoveStep:   5,
			RotateStep: 0.1,
			ScaleStep:  0.1,
			CameraStep: 10,
			SortDraws:  false,

			ScreenshotDir: "screenshots",
		},
		Textures: TexturesConfig{
			Workers:   2,
			QueueSize: 16,
			MaxSize:   2048,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks values that would otherwise fail later at startup.
func (c *Config) Validate() error {
	var errs []error
	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		errs = append(errs, fmt.Errorf("graphics: size %dx%d", c.Graphics.Width, c.Graphics.Height))
	}
	if err := c.Camera.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("camera: %w", err))
	}
	if c.Editor.MoveStep <= 0 || c.Editor.RotateStep <= 0 || c.Editor.ScaleStep <= 0 || c.Editor.CameraStep <= 0 {
		errs = append(errs, errors.New("editor: steps must be > 0"))
	}
	if c.Textures.Workers <= 0 || c.Textures.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("textures: workers %d, queue_size %d", c.Textures.Workers, c.Textures.QueueSize))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
