// Package window wraps the glfw window a swap chain presents into.
package window

import (
	"errors"
	"fmt"

	"github.com/go-gl/glfw/v3.3/glfw"

	"framekit/internal/gpu"
)

// ErrNoMonitor is returned when glfw reports no primary monitor.
var ErrNoMonitor = errors.New("window: no primary monitor")

// Key codes delivered to a KeyHandler.
const (
	KeyEscape = int(glfw.KeyEscape)
	KeyF11    = int(glfw.KeyF11)
	KeyUp     = int(glfw.KeyUp)
	KeyDown   = int(glfw.KeyDown)
)

// KeyHandler receives key transitions. Repeats are not delivered.
type KeyHandler interface {
	KeyDown(key int)
	KeyUp(key int)
}

// Options configure New.
type Options struct {
	Width, Height int
	Title         string
	Fullscreen    bool
}

// Window is a glfw window without a client API; the GPU backend creates
// the surface.
type Window struct {
	w *glfw.Window

	// windowed placement restored when leaving full screen
	x, y, width, height int
}

// New initializes glfw and opens a window. The caller must have locked the
// OS thread.
func New(opts Options) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("GLFW init failed: %w", err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.False)
	glfw.WindowHint(glfw.CocoaRetinaFramebuffer, glfw.False)

	var monitor *glfw.Monitor
	if opts.Fullscreen {
		monitor = glfw.GetPrimaryMonitor()
	}
	w, err := glfw.CreateWindow(opts.Width, opts.Height, opts.Title, monitor, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("window creation failed: %w", err)
	}

	win := &Window{w: w, width: opts.Width, height: opts.Height}
	if monitor == nil {
		win.center()
	}
	return win, nil
}

func (win *Window) center() {
	monitor := glfw.GetPrimaryMonitor()
	if monitor == nil {
		return
	}
	mode := monitor.GetVideoMode()
	win.x = (mode.Width - win.width) / 2
	win.y = (mode.Height - win.height) / 2
	win.w.SetPos(win.x, win.y)
}

// Size returns the framebuffer size in pixels.
func (win *Window) Size() (int, int) { return win.w.GetFramebufferSize() }

// GLFW returns the underlying window for surface creation.
func (win *Window) GLFW() *glfw.Window { return win.w }

// SetKeyHandler routes key presses and releases to h. A nil h stops
// delivery.
func (win *Window) SetKeyHandler(h KeyHandler) {
	if h == nil {
		win.w.SetKeyCallback(nil)
		return
	}
	win.w.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		switch action {
		case glfw.Press:
			h.KeyDown(int(key))
		case glfw.Release:
			h.KeyUp(int(key))
		}
	})
}

// PollEvents processes pending window events.
func (win *Window) PollEvents() { glfw.PollEvents() }

func (win *Window) ShouldClose() bool     { return win.w.ShouldClose() }
func (win *Window) SetShouldClose(v bool) { win.w.SetShouldClose(v) }
func (win *Window) SetTitle(title string) { win.w.SetTitle(title) }
func (win *Window) Fullscreen() bool      { return win.w.GetMonitor() != nil }

// SetFullscreen moves the window onto the primary monitor at its current
// video mode, or back to its windowed placement.
func (win *Window) SetFullscreen(on bool) error {
	if on == win.Fullscreen() {
		return nil
	}
	if !on {
		win.w.SetMonitor(nil, win.x, win.y, win.width, win.height, glfw.DontCare)
		return nil
	}
	monitor := glfw.GetPrimaryMonitor()
	if monitor == nil {
		return ErrNoMonitor
	}
	win.x, win.y = win.w.GetPos()
	win.width, win.height = win.w.GetSize()
	mode := monitor.GetVideoMode()
	win.w.SetMonitor(monitor, 0, 0, mode.Width, mode.Height, mode.RefreshRate)
	return nil
}

// DisplayModes lists the video modes of the primary monitor.
func DisplayModes() ([]gpu.DisplayMode, error) {
	monitor := glfw.GetPrimaryMonitor()
	if monitor == nil {
		return nil, ErrNoMonitor
	}
	return convertModes(monitor.GetVideoModes()), nil
}

// convertModes maps glfw video modes to display modes. Modes with 8-bit
// channels are reported as RGBA8; deeper or shallower ones are skipped.
func convertModes(vms []*glfw.VidMode) []gpu.DisplayMode {
	modes := make([]gpu.DisplayMode, 0, len(vms))
	for _, vm := range vms {
		if vm == nil || vm.RedBits != 8 || vm.GreenBits != 8 || vm.BlueBits != 8 {
			continue
		}
		modes = append(modes, gpu.DisplayMode{
			Width:       uint32(vm.Width),
			Height:      uint32(vm.Height),
			Format:      gpu.FormatRGBA8Unorm,
			RefreshRate: gpu.Rational{Numerator: uint32(vm.RefreshRate), Denominator: 1},
		})
	}
	return modes
}

// Destroy closes the window and terminates glfw.
func (win *Window) Destroy() {
	if win.w != nil {
		win.w.Destroy()
		win.w = nil
	}
	glfw.Terminate()
}

var _ gpu.NativeWindow = (*Window)(nil)
