package webgpu

import (
	"fmt"

	"github.com/rajveermalviya/go-webgpu/wgpu"

	"framekit/internal/gpu"
	"framekit/internal/logging"
)

// Context is the immediate context. Clears and draws are recorded into
// passes that the swap chain encodes and submits at Present; buffer and
// texture uploads go straight to the queue.
type Context struct {
	handle
	dev *Device
	sc  *SwapChain

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
	ibOffset uint32
	topology gpu.Topology
	layout   *inputLayout
	vs       *shader
	ps       *shader

	vsConstants [gpu.SlotsPerClass]*buffer
	psConstants [gpu.SlotsPerClass]*buffer
	psResources [gpu.SlotsPerClass]*view
	psSamplers  [gpu.SlotsPerClass]*samplerState

	passes []*pass
}

// pass is a run of draws sharing one set of attachments and load ops.
type pass struct {
	rtv          *view
	dsv          *view
	clearColor   *wgpu.Color
	clearDepth   *float32
	clearStencil *uint32
	draws        []drawOp
}

type drawOp struct {
	pipeline   *pipeline
	bindGroup  *wgpu.BindGroup
	vb         *buffer
	ib         *buffer
	ibFormat   gpu.IndexFormat
	ibOffset   uint32
	indexCount uint32
	startIndex uint32
	baseVertex int32
	stencil    uint32
	viewport   gpu.Viewport
}

// current returns the pass new work is recorded into. A clear after draws,
// or a change of attachments, starts a new pass.
func (c *Context) current(forClear bool) *pass {
	if n := len(c.passes); n > 0 {
		p := c.passes[n-1]
		if p.rtv == c.rtv && p.dsv == c.dsv && !(forClear && len(p.draws) > 0) {
			return p
		}
	}
	p := &pass{rtv: c.rtv, dsv: c.dsv}
	c.passes = append(c.passes, p)
	return p
}

func (c *Context) SetRenderTargets(rtv gpu.RenderTargetView, dsv gpu.DepthStencilView) {
	c.rtv, _ = rtv.(*view)
	c.dsv, _ = dsv.(*view)
}

func (c *Context) SetDepthStencilState(state gpu.DepthStencilState, stencilRef uint32) {
	c.dsState, _ = state.(*depthStencilState)
	c.stencil = stencilRef
}

func (c *Context) SetRasterizerState(state gpu.RasterizerState) {
	c.raster, _ = state.(*rasterizerState)
}

func (c *Context) SetViewport(vp gpu.Viewport) { c.viewport = vp }

func (c *Context) ClearRenderTarget(rtv gpu.RenderTargetView, color [4]float32) {
	v, ok := rtv.(*view)
	if !ok || v.released || v != c.rtv {
		logging.Logger().Warn("webgpu: clear of a render target that is not bound")
		return
	}
	p := c.current(true)
	p.clearColor = &wgpu.Color{R: float64(color[0]), G: float64(color[1]), B: float64(color[2]), A: float64(color[3])}
}

func (c *Context) ClearDepthStencil(dsv gpu.DepthStencilView, flags gpu.ClearFlags, depth float32, stencil uint8) {
	v, ok := dsv.(*view)
	if !ok || v.released || v != c.dsv {
		logging.Logger().Warn("webgpu: clear of a depth view that is not bound")
		return
	}
	p := c.current(true)
	if flags&gpu.ClearDepth != 0 {
		p.clearDepth = &depth
	}
	if flags&gpu.ClearStencil != 0 {
		s := uint32(stencil)
		p.clearStencil = &s
	}
}

func (c *Context) SetVertexBuffer(slot uint32, buf gpu.Buffer, stride, offset uint32) {
	if slot != 0 || offset != 0 {
		logging.Logger().Warn("webgpu: only vertex slot 0 at offset 0 is supported", "slot", slot, "offset", offset)
		return
	}
	c.vb, _ = buf.(*buffer)
	c.vbStride = stride
}

func (c *Context) SetIndexBuffer(buf gpu.Buffer, format gpu.IndexFormat, offset uint32) {
	c.ib, _ = buf.(*buffer)
	c.ibFormat = format
	c.ibOffset = offset
}

func (c *Context) SetTopology(t gpu.Topology)            { c.topology = t }
func (c *Context) SetInputLayout(layout gpu.InputLayout) { c.layout, _ = layout.(*inputLayout) }
func (c *Context) SetVertexShader(vs gpu.VertexShader)   { c.vs, _ = vs.(*shader) }
func (c *Context) SetPixelShader(ps gpu.PixelShader)     { c.ps, _ = ps.(*shader) }

func (c *Context) SetVSConstantBuffer(slot uint32, buf gpu.Buffer) {
	if slot < gpu.SlotsPerClass {
		c.vsConstants[slot], _ = buf.(*buffer)
	}
}

func (c *Context) SetPSConstantBuffer(slot uint32, buf gpu.Buffer) {
	if slot < gpu.SlotsPerClass {
		c.psConstants[slot], _ = buf.(*buffer)
	}
}

func (c *Context) SetPSShaderResource(slot uint32, srv gpu.ShaderResourceView) {
	if slot < gpu.SlotsPerClass {
		c.psResources[slot], _ = srv.(*view)
	}
}

func (c *Context) SetPSSampler(slot uint32, s gpu.SamplerState) {
	if slot < gpu.SlotsPerClass {
		c.psSamplers[slot], _ = s.(*samplerState)
	}
}

// Map hands out CPU storage for a dynamic buffer; Unmap writes it to the
// queue. With one draw per buffer per frame every draw sees its own data.
func (c *Context) Map(buf gpu.Buffer, mode gpu.MapMode) ([]byte, error) {
	b, ok := buf.(*buffer)
	if !ok || b == nil {
		return nil, gpu.ErrForeignResource
	}
	if b.released {
		return nil, fmt.Errorf("%w: buffer %q", gpu.ErrReleased, b.label)
	}
	if b.desc.Usage != gpu.UsageDynamic || b.desc.CPUAccess&gpu.CPUAccessWrite == 0 || mode != gpu.MapWriteDiscard {
		return nil, fmt.Errorf("%w: %q", gpu.ErrNotMappable, b.label)
	}
	if b.mapped != nil {
		return nil, fmt.Errorf("%w: %q", gpu.ErrAlreadyMapped, b.label)
	}
	b.mapped = make([]byte, b.desc.Size)
	return b.mapped, nil
}

func (c *Context) Unmap(buf gpu.Buffer) {
	b, ok := buf.(*buffer)
	if !ok || b == nil || b.mapped == nil {
		logging.Logger().Warn("webgpu: unmap of a buffer that is not mapped")
		return
	}
	if !b.released {
		c.dev.queue.WriteBuffer(b.buf, 0, b.mapped)
	}
	b.mapped = nil
}

func (c *Context) UpdateTexture(tex gpu.Texture, mip uint32, data []byte, rowPitch uint32) {
	t, err := c.dev.texture(tex)
	if err != nil || t.backBuffer() || mip >= t.desc.MipLevels {
		logging.Logger().Warn("webgpu: texture update rejected", "mip", mip, "err", err)
		return
	}
	c.dev.writeLevel(t, mip, data, rowPitch)
	if mip == 0 && t.desc.GenerateMips {
		t.base = gpu.ImageFromPixels(t.desc.Width, t.desc.Height, data, rowPitch)
	}
}

// GenerateMips fills levels 1.. of the view's texture from level 0 on the
// CPU and uploads them. Level 0 is dropped afterwards.
func (c *Context) GenerateMips(srv gpu.ShaderResourceView) {
	v, ok := srv.(*view)
	if !ok || v.released || v.tex.released || !v.tex.desc.GenerateMips || v.tex.base == nil {
		logging.Logger().Warn("webgpu: mip generation rejected")
		return
	}
	t := v.tex
	for i, img := range gpu.GenerateMipChain(t.base, t.desc.MipLevels) {
		c.dev.writeLevel(t, uint32(i+1), img.Pix, uint32(img.Stride))
	}
	t.base = nil
}

func (c *Context) DrawIndexed(indexCount, startIndex uint32, baseVertex int32) error {
	if c.released {
		return fmt.Errorf("%w: context", gpu.ErrReleased)
	}
	if err := c.checkDrawState(); err != nil {
		return err
	}
	if c.vbStride != c.layout.stride {
		return fmt.Errorf("%w: vertex stride %d, layout stride %d", gpu.ErrInputLayoutMismatch, c.vbStride, c.layout.stride)
	}
	if err := gpu.CheckLayout(c.layout.elements, c.vs.code); err != nil {
		return err
	}
	indices := (c.ib.desc.Size - c.ibOffset) / c.ibFormat.Size()
	if uint64(startIndex)+uint64(indexCount) > uint64(indices) {
		return fmt.Errorf("%w: indices [%d,%d) of %d", gpu.ErrInvalidDescriptor, startIndex, startIndex+indexCount, indices)
	}

	p, err := c.dev.pipelineFor(pipelineKey{
		vs:       c.vs,
		ps:       c.ps,
		layout:   c.layout,
		raster:   c.raster,
		depth:    c.dsState,
		topology: c.topology,
		hasDepth: c.dsv != nil,
	})
	if err != nil {
		return err
	}
	entries, err := c.bindGroupEntries(p.entries)
	if err != nil {
		return err
	}
	bg, err := c.dev.dev.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   "draw",
		Layout:  p.bgl,
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("webgpu: bind group: %w", err)
	}

	cur := c.current(false)
	cur.draws = append(cur.draws, drawOp{
		pipeline:   p,
		bindGroup:  bg,
		vb:         c.vb,
		ib:         c.ib,
		ibFormat:   c.ibFormat,
		ibOffset:   c.ibOffset,
		indexCount: indexCount,
		startIndex: startIndex,
		baseVertex: baseVertex,
		stencil:    c.stencil,
		viewport:   c.viewport,
	})
	return nil
}

func (c *Context) checkDrawState() error {
	switch {
	case c.vb == nil || c.vb.released:
		return fmt.Errorf("%w: no vertex buffer", gpu.ErrIncompleteState)
	case c.ib == nil || c.ib.released:
		return fmt.Errorf("%w: no index buffer", gpu.ErrIncompleteState)
	case c.layout == nil || c.layout.released:
		return fmt.Errorf("%w: no input layout", gpu.ErrIncompleteState)
	case c.vs == nil || c.vs.released:
		return fmt.Errorf("%w: no vertex shader", gpu.ErrIncompleteState)
	case c.ps == nil || c.ps.released:
		return fmt.Errorf("%w: no pixel shader", gpu.ErrIncompleteState)
	case c.rtv == nil || c.rtv.released:
		return fmt.Errorf("%w: no render target", gpu.ErrIncompleteState)
	case c.topology == gpu.TopologyUndefined:
		return fmt.Errorf("%w: no topology", gpu.ErrIncompleteState)
	}
	return nil
}

func (c *Context) bindGroupEntries(layout []wgpu.BindGroupLayoutEntry) ([]wgpu.BindGroupEntry, error) {
	entries := make([]wgpu.BindGroupEntry, 0, len(layout))
	for _, le := range layout {
		class, slot := gpu.ClassOf(le.Binding)
		e := wgpu.BindGroupEntry{Binding: le.Binding}
		switch class {
		case gpu.ClassVSConstant, gpu.ClassPSConstant:
			b := c.vsConstants[slot]
			if class == gpu.ClassPSConstant {
				b = c.psConstants[slot]
			}
			if b == nil || b.released {
				return nil, fmt.Errorf("%w: no constant buffer at binding %d", gpu.ErrIncompleteState, le.Binding)
			}
			if b.mapped != nil {
				return nil, fmt.Errorf("%w: constant buffer %q is still mapped", gpu.ErrIncompleteState, b.label)
			}
			e.Buffer = b.buf
			e.Size = uint64(b.desc.Size)
		case gpu.ClassPSResource:
			v := c.psResources[slot]
			if v == nil || v.released || v.tex.released {
				return nil, fmt.Errorf("%w: no shader resource at binding %d", gpu.ErrIncompleteState, le.Binding)
			}
			e.TextureView = v.tex.view
		case gpu.ClassPSSampler:
			s := c.psSamplers[slot]
			if s == nil || s.released {
				return nil, fmt.Errorf("%w: no sampler at binding %d", gpu.ErrIncompleteState, le.Binding)
			}
			e.Sampler = s.sampler
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// dropPasses forgets the recorded frame and frees its bind groups.
func (c *Context) dropPasses() {
	for _, p := range c.passes {
		for _, d := range p.draws {
			d.bindGroup.Release()
		}
	}
	c.passes = c.passes[:0]
}

func (c *Context) Release() {
	c.release(c.dropPasses)
}

var _ gpu.Context = (*Context)(nil)
