// Package app drives the frame controller from a run loop. The caller
// supplies the GPU backend and, for an interactive run, the window surface.
package app

import (
	"errors"
	"fmt"
	"time"

	"framekit/internal/assets"
	"framekit/internal/config"
	"framekit/internal/gpu"
	"framekit/internal/logging"
)

// SpinStep is how much one spin key press changes the spin, in degrees per
// frame.
const SpinStep = 0.5

// ErrNoFrameLimit is returned by New without a surface or a frame limit,
// which would never return.
var ErrNoFrameLimit = errors.New("app: run without a surface needs a frame limit")

// Surface is the window the run loop polls for events and closing.
type Surface interface {
	PollEvents()
	ShouldClose() bool
	SetShouldClose(bool)
	SetTitle(string)
}

type options struct {
	frames  int
	surface Surface
	release func()
}

// Option configures New.
type Option func(*options)

// WithFrameLimit stops Run after n frames. Zero runs until the surface
// closes.
func WithFrameLimit(n int) Option {
	return func(o *options) { o.frames = n }
}

// WithSurface polls s each frame and stops when it asks to close.
func WithSurface(s Surface) Option {
	return func(o *options) { o.surface = s }
}

// WithRelease runs fn during Cleanup, after the frame controller has shut
// down. Use it to release the backend and destroy the window.
func WithRelease(fn func()) Option {
	return func(o *options) { o.release = fn }
}

// App owns the frame controller and the run loop around it.
type App struct {
	surface Surface // nil when nothing is displayed
	backend gpu.Backend
	release func()

	frames *FrameController
	limit  int
	title  string
	quit   bool
}

// New initializes a frame controller over backend and win. On failure the
// release function, if any, has already run.
func New(backend gpu.Backend, win gpu.NativeWindow, cfg *config.Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	app := &App{
		surface: o.surface,
		backend: backend,
		release: o.release,
		limit:   o.frames,
		title:   cfg.Window.Title,
	}
	if app.surface == nil && app.limit <= 0 {
		app.Cleanup()
		return nil, ErrNoFrameLimit
	}

	store, err := assets.NewStore(cfg.Assets.Dir)
	if err != nil {
		app.Cleanup()
		return nil, err
	}

	app.frames, err = NewFrameController(backend, win, cfg, store)
	if err != nil {
		app.Cleanup()
		return nil, err
	}
	return app, nil
}

// Run draws frames until the surface closes, Quit is called, the frame
// limit is reached or a frame fails. The surface title shows the frame rate
// once per second.
func (app *App) Run() error {
	lastTime := time.Now()
	frames := 0

	for !app.done() {
		if app.surface != nil {
			app.surface.PollEvents()
		}

		if err := app.frames.Frame(); err != nil {
			logging.Logger().Error("frame failed", "frame", app.frames.Frames(), "err", err)
			return err
		}

		frames++
		if time.Since(lastTime) >= time.Second {
			if app.surface != nil {
				app.surface.SetTitle(fmt.Sprintf("%s | FPS: %d", app.title, frames))
			}
			logging.Logger().Debug("frame rate", "fps", frames)
			frames = 0
			lastTime = time.Now()
		}
	}

	return nil
}

func (app *App) done() bool {
	if app.quit {
		return true
	}
	if app.limit > 0 && app.frames.Frames() >= uint64(app.limit) {
		return true
	}
	return app.surface != nil && app.surface.ShouldClose()
}

// Quit ends Run after the current frame.
func (app *App) Quit() {
	app.quit = true
	if app.surface != nil {
		app.surface.SetShouldClose(true)
	}
}

// ToggleFullscreen flips the swap chain between windowed and full screen.
// Failures are logged.
func (app *App) ToggleFullscreen() {
	if err := app.frames.ToggleFullscreen(); err != nil {
		logging.Logger().Warn("toggling full screen failed", "err", err)
	}
}

// AdjustSpin changes the spin by delta and returns the clamped result.
func (app *App) AdjustSpin(delta float32) float32 {
	return app.frames.AdjustSpin(delta)
}

// Frames returns the frame controller.
func (app *App) Frames() *FrameController { return app.frames }

// Backend returns the GPU backend in use.
func (app *App) Backend() gpu.Backend { return app.backend }

// Cleanup shuts the frame controller down, then runs the release function.
// Safe to call more than once.
func (app *App) Cleanup() {
	if app.frames != nil {
		app.frames.Shutdown()
		app.frames = nil
	}
	if app.release != nil {
		app.release()
		app.release = nil
	}
}
