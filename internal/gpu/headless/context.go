package headless

import (
	"fmt"

	"framekit/internal/gpu"
)

// Context is the in-memory immediate context.
type Context struct {
	*resource
	dev *Device

	rtv      *view
	dsv      *view
	dsState  *depthStencilState
	stencil  uint32
	raster   *rasterizerState
	viewport gpu.Viewport

	vb       *buffer
	vbStride uint32
	ib       *buffer
	ibFormat gpu.IndexFormat
	topology gpu.Topology
	layout   *inputLayout
	vs       *shader
	ps       *shader

	vsConstants [gpu.SlotsPerClass]*buffer
	psConstants [gpu.SlotsPerClass]*buffer
	psResources [gpu.SlotsPerClass]*view
	psSamplers  [gpu.SlotsPerClass]*samplerState
}

// Viewport returns the bound viewport.
func (c *Context) Viewport() gpu.Viewport { return c.viewport }

// StencilRef returns the bound stencil reference value.
func (c *Context) StencilRef() uint32 { return c.stencil }

func (c *Context) record(op string) { c.b.calls = append(c.b.calls, op) }

func (c *Context) SetRenderTargets(rtv gpu.RenderTargetView, dsv gpu.DepthStencilView) {
	c.record("SetRenderTargets")
	c.rtv, _ = rtv.(*view)
	c.dsv, _ = dsv.(*view)
}

func (c *Context) SetDepthStencilState(state gpu.DepthStencilState, stencilRef uint32) {
	c.record("SetDepthStencilState")
	c.dsState, _ = state.(*depthStencilState)
	c.stencil = stencilRef
}

func (c *Context) SetRasterizerState(state gpu.RasterizerState) {
	c.record("SetRasterizerState")
	c.raster, _ = state.(*rasterizerState)
}

func (c *Context) SetViewport(vp gpu.Viewport) {
	c.record("SetViewport")
	c.viewport = vp
}

func (c *Context) ClearRenderTarget(rtv gpu.RenderTargetView, color [4]float32) {
	c.record("ClearRenderTarget")
	v, ok := rtv.(*view)
	if !ok || v.usable(c.b) != nil {
		c.b.violate("clear of invalid render target view")
		return
	}
	c.b.clears = append(c.b.clears, color)
}

func (c *Context) ClearDepthStencil(dsv gpu.DepthStencilView, flags gpu.ClearFlags, depth float32, stencil uint8) {
	c.record("ClearDepthStencil")
	v, ok := dsv.(*view)
	if !ok || v.usable(c.b) != nil {
		c.b.violate("clear of invalid depth stencil view")
		return
	}
	if depth < 0 || depth > 1 {
		c.b.violate("depth clear value %g outside [0,1]", depth)
	}
}

func (c *Context) SetVertexBuffer(slot uint32, buf gpu.Buffer, stride, offset uint32) {
	c.record("SetVertexBuffer")
	if slot != 0 || offset != 0 {
		c.b.violate("vertex buffer slot %d offset %d is not supported", slot, offset)
	}
	c.vb, _ = buf.(*buffer)
	c.vbStride = stride
}

func (c *Context) SetIndexBuffer(buf gpu.Buffer, format gpu.IndexFormat, offset uint32) {
	c.record("SetIndexBuffer")
	if offset != 0 {
		c.b.violate("index buffer offset %d is not supported", offset)
	}
	c.ib, _ = buf.(*buffer)
	c.ibFormat = format
}

func (c *Context) SetTopology(t gpu.Topology) {
	c.record("SetTopology")
	c.topology = t
}

func (c *Context) SetInputLayout(layout gpu.InputLayout) {
	c.record("SetInputLayout")
	c.layout, _ = layout.(*inputLayout)
}

func (c *Context) SetVertexShader(vs gpu.VertexShader) {
	c.record("SetVertexShader")
	c.vs, _ = vs.(*shader)
}

func (c *Context) SetPixelShader(ps gpu.PixelShader) {
	c.record("SetPixelShader")
	c.ps, _ = ps.(*shader)
}

func (c *Context) SetVSConstantBuffer(slot uint32, buf gpu.Buffer) {
	c.record("SetVSConstantBuffer")
	if slot < gpu.SlotsPerClass {
		c.vsConstants[slot], _ = buf.(*buffer)
	}
}

func (c *Context) SetPSConstantBuffer(slot uint32, buf gpu.Buffer) {
	c.record("SetPSConstantBuffer")
	if slot < gpu.SlotsPerClass {
		c.psConstants[slot], _ = buf.(*buffer)
	}
}

func (c *Context) SetPSShaderResource(slot uint32, srv gpu.ShaderResourceView) {
	c.record("SetPSShaderResource")
	if slot < gpu.SlotsPerClass {
		c.psResources[slot], _ = srv.(*view)
	}
}

func (c *Context) SetPSSampler(slot uint32, s gpu.SamplerState) {
	c.record("SetPSSampler")
	if slot < gpu.SlotsPerClass {
		c.psSamplers[slot], _ = s.(*samplerState)
	}
}

func (c *Context) Map(buf gpu.Buffer, mode gpu.MapMode) ([]byte, error) {
	if err := c.b.enter("Map"); err != nil {
		return nil, err
	}
	b, ok := buf.(*buffer)
	if !ok {
		return nil, gpu.ErrForeignResource
	}
	if err := b.usable(c.b); err != nil {
		return nil, err
	}
	if b.desc.Usage != gpu.UsageDynamic || b.desc.CPUAccess&gpu.CPUAccessWrite == 0 {
		return nil, fmt.Errorf("%w: buffer %q", gpu.ErrNotMappable, b.label)
	}
	if b.mapped != nil {
		return nil, fmt.Errorf("%w: buffer %q", gpu.ErrAlreadyMapped, b.label)
	}
	// Discard: the caller gets fresh storage, never the previous contents.
	b.mapped = make([]byte, b.desc.Size)
	return b.mapped, nil
}

func (c *Context) Unmap(buf gpu.Buffer) {
	c.record("Unmap")
	b, ok := buf.(*buffer)
	if !ok || b.mapped == nil {
		c.b.violate("unmap of a buffer that is not mapped")
		return
	}
	copy(b.data, b.mapped)
	b.mapped = nil
}

func (c *Context) UpdateTexture(tex gpu.Texture, mip uint32, data []byte, rowPitch uint32) {
	c.record("UpdateTexture")
	t, ok := tex.(*texture)
	if !ok || t.usable(c.b) != nil || int(mip) >= len(t.levels) {
		c.b.violate("texture update of invalid texture or level %d", mip)
		return
	}
	if t.desc.Usage == gpu.UsageImmutable {
		c.b.violate("texture update of immutable texture %q", t.label)
		return
	}
	w, h := gpu.MipSize(t.desc.Width, t.desc.Height, mip)
	img := gpu.ImageFromPixels(w, h, data, rowPitch)
	copy(t.levels[mip], img.Pix)
}

func (c *Context) GenerateMips(srv gpu.ShaderResourceView) {
	c.record("GenerateMips")
	v, ok := srv.(*view)
	if !ok || v.usable(c.b) != nil {
		c.b.violate("mip generation on invalid view")
		return
	}
	t := v.tex
	if !t.desc.GenerateMips {
		c.b.violate("mip generation on texture %q created without the flag", t.label)
		return
	}
	if t.desc.Format != gpu.FormatRGBA8Unorm {
		c.b.violate("mip generation on %v texture %q", t.desc.Format, t.label)
		return
	}
	base := gpu.ImageFromPixels(t.desc.Width, t.desc.Height, t.levels[0], t.desc.Width*4)
	for i, img := range gpu.GenerateMipChain(base, t.desc.MipLevels) {
		copy(t.levels[i+1], img.Pix)
	}
}

func (c *Context) DrawIndexed(indexCount, startIndex uint32, baseVertex int32) error {
	if err := c.b.enter("DrawIndexed"); err != nil {
		return err
	}
	if err := c.checkDrawState(); err != nil {
		return err
	}
	if indexCount == 0 {
		return nil
	}
	available := c.ib.desc.Size / c.ibFormat.Size()
	if startIndex+indexCount > available {
		return fmt.Errorf("%w: draw of %d indices from %d exceeds %d", gpu.ErrInvalidDescriptor, indexCount, startIndex, available)
	}

	call := DrawCall{
		IndexCount:  indexCount,
		StartIndex:  startIndex,
		BaseVertex:  baseVertex,
		VertexEntry: c.vs.code.Entry,
		PixelEntry:  c.ps.code.Entry,
		Stride:      c.vbStride,
		Constants:   make(map[uint32][]byte),
		Textures:    make(map[uint32]string),
	}
	for _, code := range []*gpu.ShaderCode{c.vs.code, c.ps.code} {
		for _, binding := range code.Bindings {
			if err := c.bound(binding, &call); err != nil {
				return fmt.Errorf("%s binding %d: %w", code.Entry, binding, err)
			}
		}
	}
	c.b.draws = append(c.b.draws, call)
	return nil
}

func (c *Context) checkDrawState() error {
	type slot struct {
		name string
		r    *resource
	}
	var vb, ib, layout, vs, ps, rtv *resource
	if c.vb != nil {
		vb = c.vb.resource
	}
	if c.ib != nil {
		ib = c.ib.resource
	}
	if c.layout != nil {
		layout = c.layout.resource
	}
	if c.vs != nil {
		vs = c.vs.resource
	}
	if c.ps != nil {
		ps = c.ps.resource
	}
	if c.rtv != nil {
		rtv = c.rtv.resource
	}
	for _, s := range []slot{
		{"vertex buffer", vb},
		{"index buffer", ib},
		{"input layout", layout},
		{"vertex shader", vs},
		{"pixel shader", ps},
		{"render target", rtv},
	} {
		if err := s.r.usable(c.b); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}
	if c.topology == gpu.TopologyUndefined {
		return fmt.Errorf("%w: primitive topology not set", gpu.ErrIncompleteState)
	}
	if c.vbStride != c.layout.stride {
		return fmt.Errorf("%w: vertex stride %d, layout stride %d", gpu.ErrInputLayoutMismatch, c.vbStride, c.layout.stride)
	}
	return gpu.CheckLayout(c.layout.elements, c.vs.code)
}

func (c *Context) bound(binding uint32, call *DrawCall) error {
	class, slot := gpu.ClassOf(binding)
	if slot >= gpu.SlotsPerClass {
		return gpu.ErrIncompleteState
	}
	switch class {
	case gpu.ClassVSConstant, gpu.ClassPSConstant:
		b := c.vsConstants[slot]
		if class == gpu.ClassPSConstant {
			b = c.psConstants[slot]
		}
		if b == nil {
			return gpu.ErrIncompleteState
		}
		if err := b.usable(c.b); err != nil {
			return err
		}
		if b.mapped != nil {
			return fmt.Errorf("%w: constant buffer %q is still mapped", gpu.ErrIncompleteState, b.label)
		}
		call.Constants[binding] = append([]byte(nil), b.data...)
	case gpu.ClassPSResource:
		v := c.psResources[slot]
		if v == nil {
			return gpu.ErrIncompleteState
		}
		if err := v.usable(c.b); err != nil {
			return err
		}
		call.Textures[binding] = v.tex.label
	case gpu.ClassPSSampler:
		s := c.psSamplers[slot]
		if s == nil {
			return gpu.ErrIncompleteState
		}
		if err := s.usable(c.b); err != nil {
			return err
		}
		call.Samplers++
	default:
		return gpu.ErrIncompleteState
	}
	return nil
}

// SwapChain is the in-memory swap chain.
type SwapChain struct {
	*resource
	dev        *Device
	desc       gpu.SwapChainDescriptor
	fullscreen bool
}

// Desc returns the descriptor the swap chain was created with.
func (s *SwapChain) Desc() gpu.SwapChainDescriptor { return s.desc }

func (s *SwapChain) BackBuffer() (gpu.Texture, error) {
	if err := s.b.enter("BackBuffer"); err != nil {
		return nil, err
	}
	if s.released {
		return nil, fmt.Errorf("%w: swap chain", gpu.ErrReleased)
	}
	return &texture{
		resource: s.b.newResource("Texture", "backbuffer"),
		desc: gpu.TextureDescriptor{
			Label:       "backbuffer",
			Width:       s.desc.Width,
			Height:      s.desc.Height,
			MipLevels:   1,
			Format:      s.desc.Format,
			SampleCount: 1,
			Bind:        gpu.BindRenderTarget,
		},
		levels: [][]byte{make([]byte, s.desc.Width*s.desc.Height*s.desc.Format.Size())},
	}, nil
}

func (s *SwapChain) Present(syncInterval uint32) error {
	if err := s.b.enter("Present"); err != nil {
		return err
	}
	if s.released {
		return fmt.Errorf("%w: swap chain", gpu.ErrReleased)
	}
	s.b.presents = append(s.b.presents, syncInterval)
	return nil
}

func (s *SwapChain) SetFullscreen(fullscreen bool) error {
	if err := s.b.enter("SetFullscreen"); err != nil {
		return err
	}
	s.fullscreen = fullscreen
	return nil
}

func (s *SwapChain) Fullscreen() bool { return s.fullscreen }

func (s *SwapChain) Release() {
	if s.fullscreen && !s.released {
		s.b.violate("swap chain released while full screen")
	}
	s.resource.Release()
}

// compile-time interface checks
var (
	_ gpu.Backend   = (*Backend)(nil)
	_ gpu.Device    = (*Device)(nil)
	_ gpu.Context   = (*Context)(nil)
	_ gpu.SwapChain = (*SwapChain)(nil)
)
