// Package app implements the editor's main loop.
package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sqweek/dialog"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/sceneforge/internal/config"
	"github.com/Faultbox/sceneforge/internal/editor"
	"github.com/Faultbox/sceneforge/internal/engine/geometry"
	"github.com/Faultbox/sceneforge/internal/engine/gpu/opengl"
	"github.com/Faultbox/sceneforge/internal/engine/input"
	"github.com/Faultbox/sceneforge/internal/engine/scene"
	"github.com/Faultbox/sceneforge/internal/engine/screenshot"
	"github.com/Faultbox/sceneforge/internal/engine/texture"
	"github.com/Faultbox/sceneforge/internal/engine/window"
	"github.com/Faultbox/sceneforge/internal/logger"
)

const title = "sceneforge"

// App is the running editor.
type App struct {
	config  *config.Config
	running bool

	window     *window.Window
	backend    *opengl.Backend
	scene      *scene.Scene
	controller *editor.Controller
	input      *input.Input
	keymap     *input.Keymap
	capture    *screenshot.Capture

	// Set by F12, consumed after the next frame is drawn.
	captureNext bool

	// Paths chosen in file dialogs, opened on the main thread.
	picked chan string
}

// New opens the window and builds the scene.
func New(cfg *config.Config) (*App, error) {
	logger.Info("initializing editor",
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
	)

	a := &App{config: cfg, picked: make(chan string, 1)}

	// Create window (this also creates OpenGL context)
	var err error
	a.window, err = window.New(window.Config{
		Title:      title,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
		Samples:    cfg.Graphics.Samples,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Create backend (AFTER window, since OpenGL context must exist)
	a.backend, err = opengl.New(opengl.Config{
		ClearColor:  cfg.Graphics.ClearColor,
		CullFaces:   cfg.Graphics.CullFaces,
		Multisample: cfg.Graphics.Samples > 0,
	})
	if err != nil {
		a.window.Close()
		return nil, fmt.Errorf("failed to create backend: %w", err)
	}

	width, height := a.window.DrawableSize()
	a.scene, err = scene.New(a.backend, geometry.NewProvider(), scene.Config{
		Width:       width,
		Height:      height,
		Camera:      cfg.Camera,
		FirstLight:  cfg.Lights.First,
		SecondLight: cfg.Lights.Second,
		Ambient:     scene.DefaultConfig().Ambient,
		SortByState: cfg.Editor.SortDraws,
		Textures: texture.LoaderConfig{
			Workers:   cfg.Textures.Workers,
			QueueSize: cfg.Textures.QueueSize,
			MaxSize:   cfg.Textures.MaxSize,
		},
	})
	if err != nil {
		a.backend.Close()
		a.window.Close()
		return nil, fmt.Errorf("failed to create scene: %w", err)
	}

	steps := editor.DefaultSteps()
	steps.Move = cfg.Editor.MoveStep
	steps.Rotate = cfg.Editor.RotateStep
	steps.Scale = cfg.Editor.ScaleStep
	steps.Camera = cfg.Editor.CameraStep
	a.controller = editor.New(a.scene, steps, cfg.Editor.SortDraws)

	a.input = input.New()
	a.keymap = input.DefaultKeymap()
	a.capture = screenshot.New(cfg.Editor.ScreenshotDir, title)

	logger.Info("editor initialized successfully")
	return a, nil
}

// Load imports a mesh and applies a texture at startup. Either path may be
// empty. A texture with nothing to apply it to goes onto a new cube.
func (a *App) Load(meshPath, texturePath string) error {
	if meshPath != "" {
		if err := a.openFile(meshPath); err != nil {
			return err
		}
	}
	if texturePath != "" {
		if _, ok := a.controller.Selected(); !ok {
			if err := a.controller.Do(editor.AddCube); err != nil {
				return err
			}
		}
		if err := a.openFile(texturePath); err != nil {
			return err
		}
	}
	return nil
}

// openFile imports meshes and applies images by extension.
func (a *App) openFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if isMesh(path) {
		h, err := a.controller.ImportMesh(data)
		if err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}
		logger.Info("mesh imported", zap.String("path", path), zap.Stringer("handle", h))
		return nil
	}
	if err := a.controller.ApplyTexture(data); err != nil {
		return fmt.Errorf("texture %s: %w", path, err)
	}
	logger.Info("texture queued", zap.String("path", path))
	return nil
}

func isMesh(path string) bool {
	kind, err := geometry.ParseKind(strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
	return err == nil && kind == geometry.KindMesh
}

// Run starts the main loop.
func (a *App) Run() error {
	a.running = true

	// Timing
	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	var frameBudget time.Duration
	if a.config.Graphics.FPSLimit > 0 {
		frameBudget = time.Second / time.Duration(a.config.Graphics.FPSLimit)
	}

	logger.Info("starting main loop")

	for a.running {
		frameStart := time.Now()
		dt := frameStart.Sub(lastTime)
		lastTime = frameStart

		// 1. Process input
		if a.input.Update() {
			// Quit event received
			a.running = false
			break
		}
		a.handleEvents()
		a.openPicked()

		// 2. Render
		stats := a.scene.Tick()
		if a.captureNext {
			a.captureNext = false
			a.saveScreenshot()
		}

		// 3. Present (swap buffers)
		a.window.SwapBuffers()

		// FPS counter
		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			logger.Debug("fps",
				zap.Int("count", frameCount),
				zap.Duration("dt", dt),
				zap.Int("draws", stats.Draws),
				zap.Int("programBinds", stats.ProgramBinds),
				zap.Int("meshBinds", stats.MeshBinds),
				zap.Int("skipped", stats.Skipped))
			a.window.SetTitle(fmt.Sprintf("%s - %s - %d fps", title, a.controller.Status(), frameCount))
			frameCount = 0
			fpsTimer = time.Now()
		}

		if frameBudget > 0 {
			if left := frameBudget - time.Since(frameStart); left > 0 {
				time.Sleep(left)
			}
		}
	}

	return nil
}

func (a *App) handleEvents() {
	for _, event := range a.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			a.scene.Resize(a.window.DrawableSize())

		case input.EventKeyDown:
			action := a.keymap.Action(event)
			switch action {
			case editor.Quit:
				a.running = false
				continue
			case editor.OpenMesh:
				a.openDialog("Import Mesh", "Meshes", "obj", "gltf", "glb")
				continue
			case editor.OpenTexture:
				a.openDialog("Apply Texture", "Images", "png", "jpg", "jpeg", "gif", "bmp", "tif", "tiff", "webp", "tga")
				continue
			case editor.Screenshot:
				a.captureNext = true
				continue
			}
			if err := a.controller.Do(action); err != nil {
				logger.Debug("action failed", zap.Stringer("action", action), zap.Error(err))
			}

		case input.EventMouseDown:
			if event.Button == sdl.BUTTON_LEFT {
				x, y := a.toPixels(event.MouseX, event.MouseY)
				a.controller.Click(x, y)
			}

		case input.EventDropFile:
			if err := a.openFile(event.Path); err != nil {
				logger.Warn("dropped file rejected", zap.String("path", event.Path), zap.Error(err))
			}
		}
	}
}

// openDialog shows a native file dialog without blocking the loop. The chosen
// path is handed back through a.picked.
func (a *App) openDialog(title, filterName string, extensions ...string) {
	go func() {
		path, err := dialog.File().
			Filter(filterName, extensions...).
			Filter("All Files", "*").
			Title(title).
			Load()
		if err != nil {
			if !errors.Is(err, dialog.ErrCancelled) {
				logger.Warn("file dialog failed", zap.Error(err))
			}
			return
		}
		select {
		case a.picked <- path:
		default:
			logger.Warn("file dialog result dropped", zap.String("path", path))
		}
	}()
}

func (a *App) openPicked() {
	select {
	case path := <-a.picked:
		if err := a.openFile(path); err != nil {
			logger.Warn("file rejected", zap.String("path", path), zap.Error(err))
		}
	default:
	}
}

func (a *App) saveScreenshot() {
	w, h := a.window.DrawableSize()
	path, err := a.capture.SavePixels(a.backend.ReadPixels(w, h), w, h)
	if err != nil {
		logger.Warn("screenshot failed", zap.Error(err))
		return
	}
	logger.Info("screenshot saved", zap.String("path", path))
}

// toPixels converts window coordinates to framebuffer pixels.
func (a *App) toPixels(x, y int) (int, int) {
	ww, wh := a.window.GetSize()
	dw, dh := a.window.DrawableSize()
	if ww == 0 || wh == 0 {
		return x, y
	}
	return x * dw / ww, y * dh / wh
}

// Close releases the scene, the backend and the window.
func (a *App) Close() {
	logger.Info("closing editor")

	if a.scene != nil {
		a.scene.Close()
	}
	if a.backend != nil {
		a.backend.Close()
	}
	if a.window != nil {
		a.window.Close()
	}
}
