package webgpu

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Cocoa -framework QuartzCore -framework Metal

#import <Cocoa/Cocoa.h>
#import <QuartzCore/CAMetalLayer.h>
#import <Metal/Metal.h>

void* attachMetalLayer(void* nsWindow) {
    if (nsWindow == NULL) {
        return NULL;
    }

    NSWindow* window = (__bridge NSWindow*)nsWindow;
    NSView* view = [window contentView];
    if (view == nil) {
        return NULL;
    }

    [view setWantsLayer:YES];

    CAMetalLayer* layer = [CAMetalLayer layer];
    layer.device = MTLCreateSystemDefaultDevice();
    layer.framebufferOnly = YES;
    layer.frame = view.bounds;
    layer.contentsScale = [window backingScaleFactor];
    [view setLayer:layer];

    return (__bridge void*)layer;
}
*/
import "C"

import (
	"errors"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/rajveermalviya/go-webgpu/wgpu"
)

// createSurface backs the window's content view with a Metal layer and
// creates a surface over it.
func createSurface(instance *wgpu.Instance, w *glfw.Window) (*wgpu.Surface, error) {
	nsWindow := w.GetCocoaWindow()
	if nsWindow == nil {
		return nil, errors.New("no Cocoa window")
	}

	layer := C.attachMetalLayer(nsWindow)
	if layer == nil {
		return nil, errors.New("could not attach a Metal layer")
	}

	surface := instance.CreateSurface(&wgpu.SurfaceDescriptor{
		Label: "framekit surface",
		MetalLayer: &wgpu.SurfaceDescriptorFromMetalLayer{
			Layer: unsafe.Pointer(layer),
		},
	})
	if surface == nil {
		return nil, errors.New("CreateSurface returned nil")
	}
	return surface, nil
}
