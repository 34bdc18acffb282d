// Package headless implements the gpu contract in memory. It validates the
// same rules a real driver enforces (ownership, mapping, complete pipeline
// state at draw time) and keeps a log of calls, draws, presents and
// releases so tests can assert on lifecycle ordering.
package headless

import (
	"fmt"
	"slices"

	"framekit/internal/gpu"
	"framekit/internal/logging"
)

// Options configure a Backend.
type Options struct {
	Adapter gpu.AdapterInfo
	// Modes are the display modes of the primary output. Nil means
	// DefaultModes.
	Modes []gpu.DisplayMode
}

// DefaultModes returns a typical monitor mode list at 60 Hz.
func DefaultModes() []gpu.DisplayMode {
	sizes := [][2]uint32{{640, 480}, {800, 600}, {1024, 768}, {1280, 720}, {1920, 1080}}
	modes := make([]gpu.DisplayMode, 0, len(sizes))
	for _, s := range sizes {
		modes = append(modes, gpu.DisplayMode{
			Width:       s[0],
			Height:      s[1],
			Format:      gpu.FormatRGBA8Unorm,
			RefreshRate: gpu.Rational{Numerator: 60000, Denominator: 1000},
		})
	}
	return modes
}

// DrawCall is a snapshot of the state a DrawIndexed call consumed.
type DrawCall struct {
	IndexCount  uint32
	StartIndex  uint32
	BaseVertex  int32
	VertexEntry string
	PixelEntry  string
	Stride      uint32
	// Constants holds a copy of every bound constant buffer by WGSL binding.
	Constants map[uint32][]byte
	// Textures holds the label of every bound shader resource by binding.
	Textures map[uint32]string
	Samplers int
}

// Backend is an in-memory gpu.Backend.
type Backend struct {
	opts     Options
	failures map[string]error

	calls          []string
	releases       []string
	doubleReleases []string
	violations     []string
	live           map[*resource]struct{}

	draws    []DrawCall
	presents []uint32
	clears   [][4]float32
}

// New returns a Backend.
func New(opts Options) *Backend {
	if opts.Modes == nil {
		opts.Modes = DefaultModes()
	}
	if opts.Adapter.Name == "" {
		opts.Adapter = gpu.AdapterInfo{Name: "framekit headless adapter", Driver: "headless"}
	}
	return &Backend{
		opts:     opts,
		failures: make(map[string]error),
		live:     make(map[*resource]struct{}),
	}
}

// FailOn makes the named operation (a method name such as "Map" or
// "CreateDepthStencilView") return err until cleared with a nil err.
func (b *Backend) FailOn(op string, err error) {
	if err == nil {
		delete(b.failures, op)
		return
	}
	b.failures[op] = err
}

// Calls returns every operation invoked, in order.
func (b *Backend) Calls() []string { return slices.Clone(b.calls) }

// Called reports whether op was invoked at least once.
func (b *Backend) Called(op string) bool { return slices.Contains(b.calls, op) }

// Releases returns the kind of every released resource, in release order.
func (b *Backend) Releases() []string { return slices.Clone(b.releases) }

// DoubleReleases lists resources released more than once.
func (b *Backend) DoubleReleases() []string { return slices.Clone(b.doubleReleases) }

// Violations lists contract violations that a real driver would fault on
// without returning an error, such as releasing a full-screen swap chain.
func (b *Backend) Violations() []string { return slices.Clone(b.violations) }

// Live returns the number of created and not yet released resources.
func (b *Backend) Live() int { return len(b.live) }

// LiveKinds returns the kinds of live resources, sorted.
func (b *Backend) LiveKinds() []string {
	kinds := make([]string, 0, len(b.live))
	for r := range b.live {
		kinds = append(kinds, r.kind)
	}
	slices.Sort(kinds)
	return kinds
}

// Draws returns every recorded draw.
func (b *Backend) Draws() []DrawCall { return slices.Clone(b.draws) }

// Presents returns the sync interval of every Present.
func (b *Backend) Presents() []uint32 { return slices.Clone(b.presents) }

// Clears returns the color of every render target clear.
func (b *Backend) Clears() [][4]float32 { return slices.Clone(b.clears) }

func (b *Backend) Name() string { return "headless" }

func (b *Backend) Adapter() (gpu.AdapterInfo, error) {
	if err := b.enter("Adapter"); err != nil {
		return gpu.AdapterInfo{}, err
	}
	return b.opts.Adapter, nil
}

func (b *Backend) DisplayModes(format gpu.Format) ([]gpu.DisplayMode, error) {
	if err := b.enter("DisplayModes"); err != nil {
		return nil, err
	}
	var modes []gpu.DisplayMode
	for _, m := range b.opts.Modes {
		if m.Format == format {
			modes = append(modes, m)
		}
	}
	return modes, nil
}

func (b *Backend) CreateDeviceAndSwapChain(desc *gpu.SwapChainDescriptor) (gpu.Device, gpu.Context, gpu.SwapChain, error) {
	if err := b.enter("CreateDeviceAndSwapChain"); err != nil {
		return nil, nil, nil, err
	}
	if desc.Window == nil {
		return nil, nil, nil, gpu.ErrNoWindow
	}
	if desc.Width == 0 || desc.Height == 0 || desc.BufferCount == 0 || desc.Format.Size() == 0 {
		return nil, nil, nil, fmt.Errorf("%w: swap chain %dx%d, %d buffers, %v", gpu.ErrInvalidDescriptor, desc.Width, desc.Height, desc.BufferCount, desc.Format)
	}
	dev := &Device{resource: b.newResource("Device", "device")}
	ctx := &Context{resource: b.newResource("Context", "immediate"), dev: dev}
	sc := &SwapChain{
		resource:   b.newResource("SwapChain", "swapchain"),
		dev:        dev,
		desc:       *desc,
		fullscreen: !desc.Windowed,
	}
	logging.Logger().Debug("headless: device created", "width", desc.Width, "height", desc.Height, "windowed", desc.Windowed)
	return dev, ctx, sc, nil
}

func (b *Backend) enter(op string) error {
	b.calls = append(b.calls, op)
	if err, ok := b.failures[op]; ok {
		return err
	}
	return nil
}

func (b *Backend) violate(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	b.violations = append(b.violations, msg)
	logging.Logger().Warn("headless: contract violation", "detail", msg)
}

// resource is embedded by every handle type.
type resource struct {
	b        *Backend
	kind     string
	label    string
	released bool
}

func (b *Backend) newResource(kind, label string) *resource {
	r := &resource{b: b, kind: kind, label: label}
	b.live[r] = struct{}{}
	return r
}

func (r *resource) Release() {
	if r.released {
		r.b.doubleReleases = append(r.b.doubleReleases, r.kind+":"+r.label)
		return
	}
	r.released = true
	delete(r.b.live, r)
	r.b.releases = append(r.b.releases, r.kind)
}

func (r *resource) usable(b *Backend) error {
	if r == nil {
		return gpu.ErrIncompleteState
	}
	if r.b != b {
		return gpu.ErrForeignResource
	}
	if r.released {
		return fmt.Errorf("%w: %s %q", gpu.ErrReleased, r.kind, r.label)
	}
	return nil
}

// Window is a NativeWindow of fixed size.
type Window struct {
	Width, Height int
}

func (w *Window) Size() (int, int) { return w.Width, w.Height }
