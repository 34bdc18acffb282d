package webgpu

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/rajveermalviya/go-webgpu/wgpu"
	"golang.org/x/sys/windows"
)

// createSurface creates a surface over the window's HWND.
func createSurface(instance *wgpu.Instance, w *glfw.Window) (*wgpu.Surface, error) {
	var module windows.Handle
	if err := windows.GetModuleHandleEx(0, nil, &module); err != nil {
		return nil, fmt.Errorf("module handle: %w", err)
	}
	hwnd := w.GetWin32Window()
	if hwnd == nil {
		return nil, errors.New("no Win32 window")
	}

	surface := instance.CreateSurface(&wgpu.SurfaceDescriptor{
		Label: "framekit surface",
		WindowsHWND: &wgpu.SurfaceDescriptorFromWindowsHWND{
			Hinstance: unsafe.Pointer(uintptr(module)),
			Hwnd:      unsafe.Pointer(hwnd),
		},
	})
	if surface == nil {
		return nil, errors.New("CreateSurface returned nil")
	}
	return surface, nil
}
