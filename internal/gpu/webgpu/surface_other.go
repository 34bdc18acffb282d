//go:build !darwin && !linux && !windows

package webgpu

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/rajveermalviya/go-webgpu/wgpu"
)

func createSurface(*wgpu.Instance, *glfw.Window) (*wgpu.Surface, error) {
	return nil, fmt.Errorf("no window surface on %s", runtime.GOOS)
}
