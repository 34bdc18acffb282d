package webgpu

import (
	"image"

	"github.com/rajveermalviya/go-webgpu/wgpu"

	"framekit/internal/gpu"
	"framekit/internal/logging"
)

// handle is embedded by every resource type. It turns a second Release
// into a logged no-op instead of a use-after-free in wgpu-native.
type handle struct {
	kind     string
	label    string
	released bool
}

func (h *handle) release(free func()) {
	if h.released {
		logging.Logger().Warn("webgpu: resource released twice", "kind", h.kind, "label", h.label)
		return
	}
	h.released = true
	if free != nil {
		free()
	}
}

type texture struct {
	handle
	desc gpu.TextureDescriptor
	tex  *wgpu.Texture // nil for the swap chain back buffer
	view *wgpu.TextureView

	// base holds level 0 until GenerateMips has filled the chain.
	base *image.RGBA
}

func (t *texture) Desc() gpu.TextureDescriptor { return t.desc }

func (t *texture) Release() {
	t.release(func() {
		t.base = nil
		if t.view != nil {
			t.view.Release()
		}
		if t.tex != nil {
			t.tex.Release()
		}
	})
}

// backBuffer reports whether t stands for the swap chain's current texture.
func (t *texture) backBuffer() bool { return t.tex == nil }

type view struct {
	handle
	tex *texture
}

func (v *view) Texture() gpu.Texture { return v.tex }
func (v *view) Release()             { v.release(nil) }

type buffer struct {
	handle
	desc   gpu.BufferDescriptor
	buf    *wgpu.Buffer
	mapped []byte
}

func (b *buffer) Desc() gpu.BufferDescriptor { return b.desc }
func (b *buffer) Release()                   { b.release(b.buf.Release) }

type depthStencilState struct {
	handle
	desc gpu.DepthStencilDescriptor
}

func (s *depthStencilState) Desc() gpu.DepthStencilDescriptor { return s.desc }
func (s *depthStencilState) Release()                         { s.release(nil) }

type rasterizerState struct {
	handle
	desc gpu.RasterizerDescriptor
}

func (s *rasterizerState) Desc() gpu.RasterizerDescriptor { return s.desc }
func (s *rasterizerState) Release()                       { s.release(nil) }

type samplerState struct {
	handle
	desc    gpu.SamplerDescriptor
	sampler *wgpu.Sampler
}

func (s *samplerState) Desc() gpu.SamplerDescriptor { return s.desc }
func (s *samplerState) Release()                    { s.release(s.sampler.Release) }

type shader struct {
	handle
	code   *gpu.ShaderCode
	module *wgpu.ShaderModule
}

func (s *shader) Code() *gpu.ShaderCode { return s.code }
func (s *shader) Release()              { s.release(s.module.Release) }

type inputLayout struct {
	handle
	elements []gpu.InputElement
	stride   uint32
	attrs    []wgpu.VertexAttribute
}

func (l *inputLayout) Elements() []gpu.InputElement { return l.elements }
func (l *inputLayout) Stride() uint32               { return l.stride }
func (l *inputLayout) Release()                     { l.release(nil) }
