package app

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"framekit/internal/assets"
	"framekit/internal/config"
	"framekit/internal/gpu"
	"framekit/internal/gpu/headless"
	"framekit/internal/shader"
)

func newController(t *testing.T, mutate func(*config.Config)) (*headless.Backend, *FrameController) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Rendering.Backend = config.BackendHeadless
	if mutate != nil {
		mutate(cfg)
	}
	store, err := assets.NewStore("")
	if err != nil {
		t.Fatal(err)
	}
	b := headless.New(headless.Options{})
	f, err := NewFrameController(b, &headless.Window{Width: cfg.Window.Width, Height: cfg.Window.Height}, cfg, store)
	if err != nil {
		t.Fatal(err)
	}
	return b, f
}

func TestColorTriangleFrame(t *testing.T) {
	b, f := newController(t, func(c *config.Config) {
		c.Scene.Variant = shader.Color.String()
		c.Rendering.ClearColor = [4]float32{0.5, 0.5, 0.5, 1}
	})

	if err := f.Frame(); err != nil {
		t.Fatal(err)
	}

	draws := b.Draws()
	if len(draws) != 1 {
		t.Fatalf("draws = %d, want 1", len(draws))
	}
	if d := draws[0]; d.IndexCount != 3 || d.VertexEntry != "ColorVertexShader" || d.PixelEntry != "ColorPixelShader" {
		t.Errorf("draw = %+v", d)
	}
	if got := b.Presents(); len(got) != 1 || got[0] != 1 {
		t.Errorf("presents = %v, want [1]", got)
	}
	if got := b.Clears(); len(got) != 1 || got[0] != [4]float32{0.5, 0.5, 0.5, 1} {
		t.Errorf("clears = %v", got)
	}
	if f.Frames() != 1 {
		t.Errorf("frames = %d", f.Frames())
	}

	f.Shutdown()
	if n := b.Live(); n != 0 {
		t.Errorf("live after shutdown = %d (%v)", n, b.LiveKinds())
	}
	if d := b.DoubleReleases(); len(d) != 0 {
		t.Errorf("double releases = %v", d)
	}
	if v := b.Violations(); len(v) != 0 {
		t.Errorf("violations = %v", v)
	}
}

func TestLitModelFrame(t *testing.T) {
	b, f := newController(t, func(c *config.Config) {
		c.Scene.Variant = shader.Light.String()
		c.Scene.Model = "models/cube.txt"
		c.Window.VSync = false
	})
	defer f.Shutdown()

	for range 2 {
		if err := f.Frame(); err != nil {
			t.Fatal(err)
		}
	}
	draws := b.Draws()
	if len(draws) != 2 {
		t.Fatalf("draws = %d, want 2", len(draws))
	}
	d := draws[1]
	if d.IndexCount != 36 || d.VertexEntry != "LightVertexShader" {
		t.Errorf("draw = %+v", d)
	}
	if d.Textures[gpu.Binding(gpu.ClassPSResource, 0)] == "" {
		t.Error("lit draw has no texture bound")
	}
	if got := b.Presents(); len(got) != 2 || got[0] != 0 || got[1] != 0 {
		t.Errorf("presents = %v, want [0 0]", got)
	}
}

func TestSpinRotatesWorld(t *testing.T) {
	_, f := newController(t, func(c *config.Config) {
		c.Scene.Variant = shader.Color.String()
		c.Scene.SpinDegreesPerFrame = 30
	})
	defer f.Shutdown()

	if err := f.Frame(); err != nil {
		t.Fatal(err)
	}
	if !mgl32.FloatEqual(f.angle, mgl32.DegToRad(30)) {
		t.Errorf("angle = %g after one frame", f.angle)
	}
	f.SetSpin(0)
	if err := f.Frame(); err != nil {
		t.Fatal(err)
	}
	if !mgl32.FloatEqual(f.angle, mgl32.DegToRad(30)) {
		t.Errorf("angle = %g with spin stopped", f.angle)
	}
}

func TestInitErrors(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*config.Config)
		fail      string
		subsystem string
	}{
		{
			name:      "device",
			fail:      "CreateDepthStencilView",
			subsystem: "graphics device",
		},
		{
			name:      "missing texture",
			mutate:    func(c *config.Config) { c.Scene.Texture = "textures/missing.tga" },
			subsystem: "texture",
		},
		{
			name:      "missing model",
			mutate:    func(c *config.Config) { c.Scene.Model = "models/missing.txt" },
			subsystem: "model",
		},
		{
			name:      "shader",
			fail:      "CreatePixelShader",
			subsystem: "shader program",
		},
		{
			name:      "unknown variant",
			mutate:    func(c *config.Config) { c.Scene.Variant = "phong" },
			subsystem: "shader program",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			store, err := assets.NewStore("")
			if err != nil {
				t.Fatal(err)
			}
			b := headless.New(headless.Options{})
			boom := errors.New("boom")
			if tt.fail != "" {
				b.FailOn(tt.fail, boom)
			}

			f, err := NewFrameController(b, &headless.Window{Width: 800, Height: 600}, cfg, store)
			if f != nil {
				t.Error("controller returned with an error")
			}
			var ie *InitError
			if !errors.As(err, &ie) {
				t.Fatalf("err = %v, want *InitError", err)
			}
			if ie.Subsystem != tt.subsystem {
				t.Errorf("subsystem = %q, want %q", ie.Subsystem, tt.subsystem)
			}
			if tt.fail != "" && !errors.Is(err, boom) {
				t.Errorf("err = %v does not wrap the backend failure", err)
			}
			if n := b.Live(); n != 0 {
				t.Errorf("live after failed init = %d (%v)", n, b.LiveKinds())
			}
		})
	}
}

func TestFrameAfterShutdown(t *testing.T) {
	_, f := newController(t, nil)
	f.Shutdown()
	f.Shutdown()
	if err := f.Frame(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("err = %v, want ErrNotInitialized", err)
	}
}

func TestSpinClamps(t *testing.T) {
	_, f := newController(t, func(c *config.Config) { c.Scene.SpinDegreesPerFrame = 1000 })
	defer f.Shutdown()

	if f.Spin() != config.MaxSpin {
		t.Errorf("initial spin = %g, want %d", f.Spin(), config.MaxSpin)
	}
	tests := []struct {
		delta, want float32
	}{
		{-1000, -config.MaxSpin},
		{config.MaxSpin + 1, 1},
		{SpinStep, 1 + SpinStep},
	}
	for _, tt := range tests {
		if got := f.AdjustSpin(tt.delta); got != tt.want {
			t.Errorf("AdjustSpin(%g) = %g, want %g", tt.delta, got, tt.want)
		}
	}
}

func newApp(t *testing.T, opts ...Option) (*headless.Backend, *App) {
	t.Helper()
	cfg := config.DefaultConfig()
	b := headless.New(headless.Options{})
	app, err := New(b, &headless.Window{Width: cfg.Window.Width, Height: cfg.Window.Height}, cfg, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return b, app
}

type fakeSurface struct {
	polls  int
	close  bool
	titles []string
}

func (s *fakeSurface) PollEvents()           { s.polls++ }
func (s *fakeSurface) ShouldClose() bool     { return s.close }
func (s *fakeSurface) SetShouldClose(v bool) { s.close = v }
func (s *fakeSurface) SetTitle(title string) { s.titles = append(s.titles, title) }

func TestPresentFailureStopsRun(t *testing.T) {
	b, app := newApp(t, WithFrameLimit(5))
	defer app.Cleanup()

	boom := errors.New("device removed")
	b.FailOn("Present", boom)
	if err := app.Run(); !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
	if n := app.Frames().Frames(); n != 0 {
		t.Errorf("frames = %d after failed present", n)
	}
}

func TestHeadlessRun(t *testing.T) {
	released := 0
	b, app := newApp(t, WithFrameLimit(3), WithRelease(func() { released++ }))
	if err := app.Run(); err != nil {
		t.Fatal(err)
	}
	if got := len(b.Presents()); got != 3 {
		t.Errorf("presents = %d, want 3", got)
	}

	if got := app.AdjustSpin(SpinStep); got != SpinStep {
		t.Errorf("spin = %g after one step, want %g", got, SpinStep)
	}
	app.ToggleFullscreen()
	if !app.Frames().Device().SwapChain().Fullscreen() {
		t.Error("full screen toggle had no effect")
	}

	app.Cleanup()
	app.Cleanup()
	if released != 1 {
		t.Errorf("release ran %d times, want 1", released)
	}
	if n := b.Live(); n != 0 {
		t.Errorf("live after cleanup = %d (%v)", n, b.LiveKinds())
	}
	if v := b.Violations(); len(v) != 0 {
		t.Errorf("violations = %v", v)
	}
}

func TestSurfaceCloseStopsRun(t *testing.T) {
	s := &fakeSurface{}
	_, app := newApp(t, WithSurface(s))
	defer app.Cleanup()

	app.Quit()
	if !s.close {
		t.Error("Quit did not ask the surface to close")
	}
	if err := app.Run(); err != nil {
		t.Fatal(err)
	}
	if n := app.Frames().Frames(); n != 0 || s.polls != 0 {
		t.Errorf("ran %d frames and %d polls after Quit", n, s.polls)
	}
}

func TestNeedsSurfaceOrFrameLimit(t *testing.T) {
	cfg := config.DefaultConfig()
	released := false
	_, err := New(headless.New(headless.Options{}), &headless.Window{Width: 800, Height: 600}, cfg,
		WithRelease(func() { released = true }))
	if !errors.Is(err, ErrNoFrameLimit) {
		t.Errorf("err = %v, want ErrNoFrameLimit", err)
	}
	if !released {
		t.Error("release did not run on a failed New")
	}
}
