package webgpu

import (
	"fmt"

	"github.com/rajveermalviya/go-webgpu/wgpu"

	"framekit/internal/gpu"
)

// SwapChain presents into the window surface. Present encodes the frame the
// context recorded, submits it and presents the surface texture.
type SwapChain struct {
	handle
	b   *Backend
	dev *Device
	ctx *Context

	desc     gpu.SwapChainDescriptor
	format   wgpu.TextureFormat
	interval uint32
	chain    *wgpu.SwapChain
}

func (s *SwapChain) configure() error {
	if s.chain != nil {
		s.chain.Release()
		s.chain = nil
	}
	chain, err := s.dev.dev.CreateSwapChain(s.b.surface, &wgpu.SwapChainDescriptor{
		Usage:       wgpu.TextureUsage_RenderAttachment,
		Format:      s.format,
		Width:       s.desc.Width,
		Height:      s.desc.Height,
		PresentMode: presentMode(s.interval),
	})
	if err != nil {
		return fmt.Errorf("webgpu: swap chain creation failed: %w", err)
	}
	s.chain = chain
	return nil
}

// BackBuffer returns a texture standing for the surface texture of the
// frame being recorded.
func (s *SwapChain) BackBuffer() (gpu.Texture, error) {
	if s.released {
		return nil, fmt.Errorf("%w: swap chain", gpu.ErrReleased)
	}
	return &texture{
		handle: handle{kind: "Texture", label: "backbuffer"},
		desc: gpu.TextureDescriptor{
			Label:       "backbuffer",
			Width:       s.desc.Width,
			Height:      s.desc.Height,
			MipLevels:   1,
			Format:      s.desc.Format,
			SampleCount: 1,
			Bind:        gpu.BindRenderTarget,
		},
	}, nil
}

// Present submits the recorded frame. A sync interval of 0 switches the
// surface to immediate presentation, anything else to FIFO.
func (s *SwapChain) Present(syncInterval uint32) error {
	if s.released {
		return fmt.Errorf("%w: swap chain", gpu.ErrReleased)
	}
	defer s.ctx.dropPasses()

	if (syncInterval == 0) != (s.interval == 0) {
		s.interval = syncInterval
		if err := s.configure(); err != nil {
			return err
		}
	}

	target, err := s.chain.GetCurrentTextureView()
	if err != nil {
		return fmt.Errorf("webgpu: acquire surface texture: %w", err)
	}
	defer target.Release()

	encoder, err := s.dev.dev.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "frame"})
	if err != nil {
		return fmt.Errorf("webgpu: command encoder: %w", err)
	}
	defer encoder.Release()

	passes := s.ctx.passes
	if len(passes) == 0 {
		passes = []*pass{{rtv: s.ctx.rtv, dsv: s.ctx.dsv}}
	}
	for _, p := range passes {
		s.encodePass(encoder, target, p)
	}

	cmd, err := encoder.Finish(&wgpu.CommandBufferDescriptor{Label: "frame"})
	if err != nil {
		return fmt.Errorf("webgpu: finish frame: %w", err)
	}
	defer cmd.Release()

	s.dev.queue.Submit(cmd)
	s.chain.Present()
	return nil
}

func (s *SwapChain) encodePass(encoder *wgpu.CommandEncoder, target *wgpu.TextureView, p *pass) {
	color := wgpu.RenderPassColorAttachment{
		View:    target,
		LoadOp:  wgpu.LoadOp_Load,
		StoreOp: wgpu.StoreOp_Store,
	}
	if p.clearColor != nil {
		color.LoadOp = wgpu.LoadOp_Clear
		color.ClearValue = *p.clearColor
	}
	desc := &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{color},
	}
	if p.dsv != nil && !p.dsv.released && !p.dsv.tex.released {
		depth := &wgpu.RenderPassDepthStencilAttachment{
			View:            p.dsv.tex.view,
			DepthLoadOp:     wgpu.LoadOp_Load,
			DepthStoreOp:    wgpu.StoreOp_Store,
			DepthClearValue: 1,
			StencilLoadOp:   wgpu.LoadOp_Load,
			StencilStoreOp:  wgpu.StoreOp_Store,
		}
		if p.clearDepth != nil {
			depth.DepthLoadOp = wgpu.LoadOp_Clear
			depth.DepthClearValue = *p.clearDepth
		}
		if p.clearStencil != nil {
			depth.StencilLoadOp = wgpu.LoadOp_Clear
			depth.StencilClearValue = *p.clearStencil
		}
		desc.DepthStencilAttachment = depth
	}

	rp := encoder.BeginRenderPass(desc)
	for _, d := range p.draws {
		vp := d.viewport
		rp.SetViewport(vp.X, vp.Y, vp.Width, vp.Height, vp.MinDepth, vp.MaxDepth)
		rp.SetPipeline(d.pipeline.pipeline)
		rp.SetBindGroup(0, d.bindGroup, nil)
		rp.SetStencilReference(d.stencil)
		rp.SetVertexBuffer(0, d.vb.buf, 0, wgpu.WholeSize)
		rp.SetIndexBuffer(d.ib.buf, indexFormat(d.ibFormat), uint64(d.ibOffset), wgpu.WholeSize)
		rp.DrawIndexed(d.indexCount, 1, d.startIndex, d.baseVertex, 0)
	}
	rp.End()
}

// SetFullscreen moves the window on or off the primary monitor.
func (s *SwapChain) SetFullscreen(fullscreen bool) error {
	return s.b.win.SetFullscreen(fullscreen)
}

func (s *SwapChain) Fullscreen() bool { return s.b.win.Fullscreen() }

func (s *SwapChain) Release() {
	s.release(func() {
		if s.chain != nil {
			s.chain.Release()
			s.chain = nil
		}
	})
}

var _ gpu.SwapChain = (*SwapChain)(nil)
