// Package webgpu implements the gpu contract on wgpu-native. Resource
// creation maps directly onto wgpu objects; the immediate context records
// state and draws, and the swap chain replays a frame's draws in a single
// render pass at Present.
package webgpu

import (
	"errors"
	"fmt"

	"github.com/rajveermalviya/go-webgpu/wgpu"

	"framekit/internal/gpu"
	"framekit/internal/logging"
	"framekit/internal/window"
)

// Backend owns the wgpu instance, the window surface and the adapter.
type Backend struct {
	win      *window.Window
	instance *wgpu.Instance
	surface  *wgpu.Surface
	adapter  *wgpu.Adapter
}

// New creates the instance and surface for win and selects an adapter.
func New(win *window.Window) (*Backend, error) {
	b := &Backend{win: win}
	if err := b.init(); err != nil {
		b.Release()
		return nil, err
	}
	return b, nil
}

func (b *Backend) init() error {
	b.instance = wgpu.CreateInstance(nil)
	if b.instance == nil {
		return errors.New("webgpu: failed to create instance")
	}

	var err error
	b.surface, err = createSurface(b.instance, b.win.GLFW())
	if err != nil {
		return fmt.Errorf("webgpu: surface creation failed: %w", err)
	}

	// Request adapter - try with surface first, then without
	b.adapter, err = b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: b.surface,
		PowerPreference:   wgpu.PowerPreference_HighPerformance,
	})
	if err != nil {
		logging.Logger().Warn("webgpu: no adapter for surface, retrying unconstrained", "err", err)
		b.adapter, err = b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
			PowerPreference: wgpu.PowerPreference_HighPerformance,
		})
		if err != nil {
			return fmt.Errorf("webgpu: adapter request failed: %w", err)
		}
	}
	return nil
}

func (b *Backend) Name() string { return "webgpu" }

// Adapter describes the selected adapter. wgpu does not report dedicated
// video memory, so DedicatedMemMB is 0.
func (b *Backend) Adapter() (gpu.AdapterInfo, error) {
	if b.adapter == nil {
		return gpu.AdapterInfo{}, errors.New("webgpu: no adapter")
	}
	props := b.adapter.GetProperties()
	return gpu.AdapterInfo{
		Name:   props.Name,
		Driver: props.DriverDescription,
	}, nil
}

// DisplayModes lists the primary monitor's modes in format.
func (b *Backend) DisplayModes(format gpu.Format) ([]gpu.DisplayMode, error) {
	all, err := window.DisplayModes()
	if err != nil {
		return nil, err
	}
	var modes []gpu.DisplayMode
	for _, m := range all {
		if m.Format == format {
			modes = append(modes, m)
		}
	}
	return modes, nil
}

// CreateDeviceAndSwapChain requests the device and configures the surface.
// desc.Window must be the window the backend was created for.
func (b *Backend) CreateDeviceAndSwapChain(desc *gpu.SwapChainDescriptor) (gpu.Device, gpu.Context, gpu.SwapChain, error) {
	if desc.Window == nil {
		return nil, nil, nil, gpu.ErrNoWindow
	}
	if w, ok := desc.Window.(*window.Window); !ok || w != b.win {
		return nil, nil, nil, fmt.Errorf("%w: swap chain window is not the backend's window", gpu.ErrForeignResource)
	}
	if desc.Width == 0 || desc.Height == 0 || desc.BufferCount == 0 {
		return nil, nil, nil, fmt.Errorf("%w: swap chain %dx%d, %d buffers", gpu.ErrInvalidDescriptor, desc.Width, desc.Height, desc.BufferCount)
	}
	if desc.SampleCount > 1 {
		return nil, nil, nil, fmt.Errorf("%w: multisampled swap chains are not available", gpu.ErrInvalidDescriptor)
	}

	wdev, err := b.adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "framekit device",
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("webgpu: device request failed: %w", err)
	}
	dev := &Device{
		handle:    handle{kind: "Device", label: "device"},
		dev:       wdev,
		queue:     wdev.GetQueue(),
		pipelines: make(map[pipelineKey]*pipeline),
	}

	// The surface picks its own channel order; the contract's RGBA8 maps
	// onto whatever it prefers.
	format := b.surface.GetPreferredFormat(b.adapter)
	vsync := desc.RefreshRate.Numerator != 0
	interval := uint32(0)
	if vsync {
		interval = 1
	}
	sc := &SwapChain{
		handle:   handle{kind: "SwapChain", label: "swapchain"},
		b:        b,
		dev:      dev,
		desc:     *desc,
		format:   format,
		interval: interval,
	}
	if err := sc.configure(); err != nil {
		dev.Release()
		return nil, nil, nil, err
	}
	dev.targetFormat = format

	ctx := &Context{handle: handle{kind: "Context", label: "immediate"}, dev: dev, sc: sc}
	sc.ctx = ctx

	if !desc.Windowed {
		if err := b.win.SetFullscreen(true); err != nil {
			logging.Logger().Warn("webgpu: full screen failed", "err", err)
		}
	}

	logging.Logger().Debug("webgpu: device created",
		"width", desc.Width, "height", desc.Height, "format", format, "vsync", vsync)
	return dev, ctx, sc, nil
}

// Release frees the adapter, surface and instance.
func (b *Backend) Release() {
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

var _ gpu.Backend = (*Backend)(nil)
