// Package device owns the device, immediate context and swap chain of one
// window together with the output-stage resources every frame renders
// into: the back buffer render target, the depth-stencil buffer and the
// rasterizer state. It also holds the projection matrices derived from the
// window size.
package device

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"framekit/internal/gpu"
	"framekit/internal/logging"
	"framekit/internal/xmath"
)

// ErrDisplayModeUnsupported is returned by Initialize when vsync is requested
// for a resolution the primary output does not list.
var ErrDisplayModeUnsupported = errors.New("device: display mode not supported")

// FieldOfView is the vertical field of view of the projection matrix.
const FieldOfView = math.Pi / 4

// Options configure Initialize.
type Options struct {
	Width, Height int
	VSync         bool
	Window        gpu.NativeWindow
	Fullscreen    bool
	ScreenDepth   float32
	ScreenNear    float32
}

// GraphicsDevice is the render device of one window.
type GraphicsDevice struct {
	backend gpu.Backend

	device    gpu.Device
	context   gpu.Context
	swapChain gpu.SwapChain

	renderTarget      gpu.RenderTargetView
	depthBuffer       gpu.Texture
	depthStencilState gpu.DepthStencilState
	depthStencilView  gpu.DepthStencilView
	rasterState       gpu.RasterizerState

	viewport    gpu.Viewport
	projection  mgl32.Mat4
	world       mgl32.Mat4
	ortho       mgl32.Mat4
	vsync       bool
	adapter     gpu.AdapterInfo
	refreshRate gpu.Rational
	initialized bool
}

// New returns an uninitialized device for backend.
func New(backend gpu.Backend) *GraphicsDevice {
	return &GraphicsDevice{backend: backend, world: mgl32.Ident4()}
}

// Initialize creates the device and every output-stage resource. Each step
// runs only if the previous one succeeded. On failure the resources created
// so far are kept until Shutdown and Initialized reports false.
func (g *GraphicsDevice) Initialize(opts Options) error {
	if g.initialized {
		return errors.New("device: already initialized")
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return fmt.Errorf("device: invalid size %dx%d", opts.Width, opts.Height)
	}
	if opts.Window == nil {
		return fmt.Errorf("device: %w", gpu.ErrNoWindow)
	}
	w, h := uint32(opts.Width), uint32(opts.Height)
	g.vsync = opts.VSync

	rate, err := g.resolveRefreshRate(w, h)
	if err != nil {
		return fmt.Errorf("device: refresh rate: %w", err)
	}
	g.refreshRate = rate

	if err := g.createSwapChain(w, h, opts.Window, opts.Fullscreen, rate); err != nil {
		return fmt.Errorf("device: swap chain: %w", err)
	}
	if err := g.createRenderTargetView(); err != nil {
		return fmt.Errorf("device: render target: %w", err)
	}
	if err := g.createDepthStencil(w, h); err != nil {
		return fmt.Errorf("device: depth stencil: %w", err)
	}
	g.context.SetRenderTargets(g.renderTarget, g.depthStencilView)

	if err := g.createRasterizer(); err != nil {
		return fmt.Errorf("device: rasterizer: %w", err)
	}
	g.context.SetRasterizerState(g.rasterState)

	g.viewport = gpu.Viewport{Width: float32(w), Height: float32(h), MinDepth: 0, MaxDepth: 1}
	g.context.SetViewport(g.viewport)

	aspect := float32(w) / float32(h)
	g.projection = xmath.PerspectiveFovLH(FieldOfView, aspect, opts.ScreenNear, opts.ScreenDepth)
	g.ortho = xmath.OrthographicLH(float32(w), float32(h), opts.ScreenNear, opts.ScreenDepth)

	g.initialized = true
	logging.Logger().Info("device initialized",
		"backend", g.backend.Name(),
		"adapter", g.adapter.Name,
		"memory_mb", g.adapter.DedicatedMemMB,
		"width", w, "height", h,
		"vsync", g.vsync,
		"refresh_hz", rate.Hz())
	return nil
}

// resolveRefreshRate looks up the refresh rate of the primary output for
// w x h. Without vsync the rate is left to the driver (0/1).
func (g *GraphicsDevice) resolveRefreshRate(w, h uint32) (gpu.Rational, error) {
	info, err := g.backend.Adapter()
	if err != nil {
		return gpu.Rational{}, err
	}
	g.adapter = info

	if !g.vsync {
		return gpu.Rational{Numerator: 0, Denominator: 1}, nil
	}
	modes, err := g.backend.DisplayModes(gpu.FormatRGBA8Unorm)
	if err != nil {
		return gpu.Rational{}, err
	}
	for _, m := range modes {
		if m.Width == w && m.Height == h {
			return m.RefreshRate, nil
		}
	}
	return gpu.Rational{}, fmt.Errorf("%w: %dx%d", ErrDisplayModeUnsupported, w, h)
}

func (g *GraphicsDevice) createSwapChain(w, h uint32, win gpu.NativeWindow, fullscreen bool, rate gpu.Rational) error {
	dev, ctx, sc, err := g.backend.CreateDeviceAndSwapChain(&gpu.SwapChainDescriptor{
		Window:      win,
		Width:       w,
		Height:      h,
		Format:      gpu.FormatRGBA8Unorm,
		BufferCount: 1,
		SampleCount: 1,
		RefreshRate: rate,
		Windowed:    !fullscreen,
		SwapEffect:  gpu.SwapEffectDiscard,
	})
	if err != nil {
		return err
	}
	g.device, g.context, g.swapChain = dev, ctx, sc
	return nil
}

func (g *GraphicsDevice) createRenderTargetView() error {
	back, err := g.swapChain.BackBuffer()
	if err != nil {
		return err
	}
	// The view keeps what it needs of the back buffer.
	defer back.Release()
	g.renderTarget, err = g.device.CreateRenderTargetView(back)
	return err
}

func (g *GraphicsDevice) createDepthStencil(w, h uint32) error {
	var err error
	g.depthBuffer, err = g.device.CreateTexture(&gpu.TextureDescriptor{
		Label:       "depth buffer",
		Width:       w,
		Height:      h,
		MipLevels:   1,
		Format:      gpu.FormatDepth24Stencil8,
		SampleCount: 1,
		Usage:       gpu.UsageDefault,
		Bind:        gpu.BindDepthStencil,
	}, nil)
	if err != nil {
		return err
	}

	g.depthStencilState, err = g.device.CreateDepthStencilState(&gpu.DepthStencilDescriptor{
		DepthEnable:      true,
		DepthWrite:       true,
		DepthFunc:        gpu.CompareLess,
		StencilEnable:    true,
		StencilReadMask:  0xFF,
		StencilWriteMask: 0xFF,
		Front: gpu.StencilFace{
			Fail:      gpu.StencilKeep,
			DepthFail: gpu.StencilIncr,
			Pass:      gpu.StencilKeep,
			Func:      gpu.CompareAlways,
		},
		Back: gpu.StencilFace{
			Fail:      gpu.StencilKeep,
			DepthFail: gpu.StencilDecr,
			Pass:      gpu.StencilKeep,
			Func:      gpu.CompareAlways,
		},
	})
	if err != nil {
		return err
	}
	g.context.SetDepthStencilState(g.depthStencilState, 1)

	g.depthStencilView, err = g.device.CreateDepthStencilView(g.depthBuffer)
	return err
}

func (g *GraphicsDevice) createRasterizer() error {
	var err error
	g.rasterState, err = g.device.CreateRasterizerState(&gpu.RasterizerDescriptor{
		Fill:                  gpu.FillSolid,
		Cull:                  gpu.CullBack,
		FrontCounterClockwise: false,
		DepthClip:             true,
	})
	return err
}

// BeginFrame clears the back buffer to the color and the depth buffer to 1.
func (g *GraphicsDevice) BeginFrame(r, gr, b, a float32) {
	g.context.ClearRenderTarget(g.renderTarget, [4]float32{r, gr, b, a})
	g.context.ClearDepthStencil(g.depthStencilView, gpu.ClearDepth, 1, 0)
}

// EndFrame presents the back buffer. With vsync it waits for the next
// vertical blank.
func (g *GraphicsDevice) EndFrame() error {
	var interval uint32
	if g.vsync {
		interval = 1
	}
	if err := g.swapChain.Present(interval); err != nil {
		return fmt.Errorf("device: present: %w", err)
	}
	return nil
}

// SetBackBufferRenderTarget rebinds the back buffer and depth view.
func (g *GraphicsDevice) SetBackBufferRenderTarget() {
	g.context.SetRenderTargets(g.renderTarget, g.depthStencilView)
}

// ResetViewport rebinds the full-window viewport.
func (g *GraphicsDevice) ResetViewport() {
	g.context.SetViewport(g.viewport)
}

// Shutdown leaves full screen and releases everything Initialize created,
// dependent views before the device and swap chain. Safe to call more than
// once and after a failed Initialize.
func (g *GraphicsDevice) Shutdown() {
	if g.swapChain != nil {
		if err := g.swapChain.SetFullscreen(false); err != nil {
			logging.Logger().Warn("device: leaving full screen failed", "err", err)
		}
	}
	if g.rasterState != nil {
		g.rasterState.Release()
		g.rasterState = nil
	}
	if g.depthStencilView != nil {
		g.depthStencilView.Release()
		g.depthStencilView = nil
	}
	if g.depthStencilState != nil {
		g.depthStencilState.Release()
		g.depthStencilState = nil
	}
	if g.depthBuffer != nil {
		g.depthBuffer.Release()
		g.depthBuffer = nil
	}
	if g.renderTarget != nil {
		g.renderTarget.Release()
		g.renderTarget = nil
	}
	if g.context != nil {
		g.context.Release()
		g.context = nil
	}
	if g.device != nil {
		g.device.Release()
		g.device = nil
	}
	if g.swapChain != nil {
		g.swapChain.Release()
		g.swapChain = nil
	}
	g.initialized = false
}

func (g *GraphicsDevice) Initialized() bool         { return g.initialized }
func (g *GraphicsDevice) Device() gpu.Device        { return g.device }
func (g *GraphicsDevice) Context() gpu.Context      { return g.context }
func (g *GraphicsDevice) SwapChain() gpu.SwapChain  { return g.swapChain }
func (g *GraphicsDevice) Projection() mgl32.Mat4    { return g.projection }
func (g *GraphicsDevice) World() mgl32.Mat4         { return g.world }
func (g *GraphicsDevice) Ortho() mgl32.Mat4         { return g.ortho }
func (g *GraphicsDevice) Viewport() gpu.Viewport    { return g.viewport }
func (g *GraphicsDevice) VSync() bool               { return g.vsync }
func (g *GraphicsDevice) RefreshRate() gpu.Rational { return g.refreshRate }
func (g *GraphicsDevice) Adapter() gpu.AdapterInfo  { return g.adapter }
func (g *GraphicsDevice) Backend() gpu.Backend      { return g.backend }
