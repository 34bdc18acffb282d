package app

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"path"

	"github.com/go-gl/mathgl/mgl32"

	"framekit/internal/assets"
	"framekit/internal/camera"
	"framekit/internal/config"
	"framekit/internal/device"
	"framekit/internal/gpu"
	"framekit/internal/light"
	"framekit/internal/logging"
	"framekit/internal/mesh"
	"framekit/internal/shader"
	"framekit/internal/texture"
	"framekit/internal/xmath"
	"framekit/pkg/model"
)

// ErrNotInitialized is returned by Frame after Shutdown.
var ErrNotInitialized = errors.New("app: frame controller is not initialized")

// InitError reports which subsystem failed to come up. Its message is meant
// for the user.
type InitError struct {
	Subsystem string
	Err       error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("could not initialize the %s: %v", e.Subsystem, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// FrameController owns everything one frame needs and draws it.
type FrameController struct {
	device  *device.GraphicsDevice
	camera  *camera.Camera
	mesh    *mesh.Mesh
	program *shader.Program
	light   light.Light

	clear  [4]float32
	spin   float32 // degrees per frame
	angle  float32 // radians
	frames uint64
}

// NewFrameController brings up the device, camera, mesh, shader program and
// light described by cfg. Assets come from store. On failure everything
// created so far is shut down and an *InitError is returned.
func NewFrameController(backend gpu.Backend, win gpu.NativeWindow, cfg *config.Config, store *assets.Store) (*FrameController, error) {
	variant, err := shader.ParseVariant(cfg.Scene.Variant)
	if err != nil {
		return nil, &InitError{Subsystem: "shader program", Err: err}
	}

	f := &FrameController{
		device: device.New(backend),
		clear:  cfg.Rendering.ClearColor,
	}
	f.SetSpin(cfg.Scene.SpinDegreesPerFrame)
	if err := f.init(win, cfg, store, variant); err != nil {
		f.Shutdown()
		return nil, err
	}
	return f, nil
}

func (f *FrameController) init(win gpu.NativeWindow, cfg *config.Config, store *assets.Store, variant shader.Variant) error {
	if win == nil {
		return &InitError{Subsystem: "graphics device", Err: gpu.ErrNoWindow}
	}
	width, height := win.Size()
	err := f.device.Initialize(device.Options{
		Width:       width,
		Height:      height,
		VSync:       cfg.Window.VSync,
		Window:      win,
		Fullscreen:  cfg.Window.Fullscreen,
		ScreenDepth: cfg.Rendering.ScreenDepth,
		ScreenNear:  cfg.Rendering.ScreenNear,
	})
	if err != nil {
		return &InitError{Subsystem: "graphics device", Err: err}
	}

	preload(store, cfg, variant)

	f.camera = camera.New(mgl32.Vec3(cfg.Scene.CameraPosition), mgl32.Vec3(cfg.Scene.CameraRotation))

	var tex *texture.Texture
	if variant.Textured() {
		tex, err = texture.LoadFile(f.device.Device(), f.device.Context(), store, cfg.Scene.Texture)
		if err != nil {
			return &InitError{Subsystem: "texture", Err: err}
		}
	}

	var points []model.Point
	if cfg.Scene.Model != "" {
		data, err := store.ReadFile(cfg.Scene.Model)
		if err == nil {
			points, err = model.Parse(bytes.NewReader(data))
		}
		if err != nil {
			tex.Release()
			return &InitError{Subsystem: "model", Err: err}
		}
	}

	f.mesh, err = mesh.New(f.device.Device(), mesh.Options{
		Format:  variant.VertexKind(),
		Points:  points,
		Texture: tex,
	})
	if err != nil {
		tex.Release()
		return &InitError{Subsystem: "model", Err: err}
	}

	f.program, err = shader.New(f.device.Device(), variant, store.Sub("shaders"))
	if err != nil {
		return &InitError{Subsystem: "shader program", Err: err}
	}

	f.light = light.New(mgl32.Vec4(cfg.Scene.LightColor), mgl32.Vec3(cfg.Scene.LightDirection))

	logging.Logger().Info("frame controller ready",
		"backend", f.device.Backend().Name(),
		"variant", variant,
		"vertices", f.mesh.VertexCount())
	return nil
}

// preload reads the frame's assets concurrently. A failure here is not
// fatal; the read that needs the file reports it against its subsystem.
func preload(store *assets.Store, cfg *config.Config, variant shader.Variant) {
	names := []string{
		path.Join("shaders", variant.VertexFile()),
		path.Join("shaders", variant.PixelFile()),
	}
	if variant.Textured() {
		names = append(names, cfg.Scene.Texture)
	}
	if cfg.Scene.Model != "" {
		names = append(names, cfg.Scene.Model)
	}
	if err := store.Preload(names...); err != nil {
		logging.Logger().Debug("asset preload incomplete", "err", err)
	}
}

// Frame clears the back buffer, updates the camera, draws the mesh with the
// shader program and presents. Any error ends the frame early.
func (f *FrameController) Frame() error {
	if f.program == nil || !f.device.Initialized() {
		return ErrNotInitialized
	}

	if f.spin != 0 {
		f.angle += mgl32.DegToRad(f.spin)
		f.angle = float32(math.Mod(float64(f.angle), 2*math.Pi))
	}

	f.device.BeginFrame(f.clear[0], f.clear[1], f.clear[2], f.clear[3])
	f.camera.Update()

	ctx := f.device.Context()
	f.mesh.Bind(ctx)

	params := &shader.Params{
		World:          f.device.World().Mul4(xmath.RotationY(f.angle)),
		View:           f.camera.View(),
		Projection:     f.device.Projection(),
		LightDirection: f.light.Direction,
		DiffuseColor:   f.light.DiffuseColor,
	}
	if tex := f.mesh.Texture(); tex != nil {
		params.Texture = tex.View()
	}
	if err := f.program.Render(ctx, f.mesh.IndexCount(), params); err != nil {
		return err
	}

	if err := f.device.EndFrame(); err != nil {
		return err
	}
	f.frames++
	return nil
}

// SetSpin sets the world rotation about Y in degrees per frame, clamped to
// config.MaxSpin either way.
func (f *FrameController) SetSpin(degrees float32) {
	f.spin = max(-config.MaxSpin, min(degrees, config.MaxSpin))
}

// AdjustSpin changes the spin by delta and returns the result.
func (f *FrameController) AdjustSpin(delta float32) float32 {
	f.SetSpin(f.spin + delta)
	return f.spin
}

// Spin returns the world rotation in degrees per frame.
func (f *FrameController) Spin() float32 { return f.spin }

// ToggleFullscreen flips the swap chain between windowed and full screen.
func (f *FrameController) ToggleFullscreen() error {
	sc := f.device.SwapChain()
	if sc == nil {
		return ErrNotInitialized
	}
	return sc.SetFullscreen(!sc.Fullscreen())
}

func (f *FrameController) Frames() uint64                 { return f.frames }
func (f *FrameController) Device() *device.GraphicsDevice { return f.device }
func (f *FrameController) Camera() *camera.Camera         { return f.camera }
func (f *FrameController) Light() *light.Light            { return &f.light }

// Shutdown releases the shader program, the mesh with its texture and the
// device, in that order. Safe to call more than once.
func (f *FrameController) Shutdown() {
	if f.program != nil {
		f.program.Shutdown()
		f.program = nil
	}
	if f.mesh != nil {
		f.mesh.Release()
		f.mesh = nil
	}
	f.device.Shutdown()
}
