package webgpu

import (
	"fmt"

	"github.com/rajveermalviya/go-webgpu/wgpu"

	"framekit/internal/gpu"
	"framekit/internal/logging"
)

// Device creates wgpu resources and caches the render pipelines the context
// builds from bound state.
type Device struct {
	handle
	dev          *wgpu.Device
	queue        *wgpu.Queue
	targetFormat wgpu.TextureFormat

	pipelines map[pipelineKey]*pipeline
}

func (d *Device) check() error {
	if d.released {
		return fmt.Errorf("%w: device", gpu.ErrReleased)
	}
	return nil
}

func (d *Device) CreateTexture(desc *gpu.TextureDescriptor, initial []byte) (gpu.Texture, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	format, err := textureFormat(desc.Format)
	if err != nil {
		return nil, err
	}
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("%w: texture %q %dx%d", gpu.ErrInvalidDescriptor, desc.Label, desc.Width, desc.Height)
	}
	if desc.Usage == gpu.UsageImmutable && initial == nil {
		return nil, fmt.Errorf("%w: immutable texture %q without data", gpu.ErrInvalidDescriptor, desc.Label)
	}
	resolved := *desc
	resolved.MipLevels = gpu.ResolveMipLevels(desc)
	if resolved.SampleCount == 0 {
		resolved.SampleCount = 1
	}

	tex, err := d.dev.CreateTexture(&wgpu.TextureDescriptor{
		Label: desc.Label,
		Size: wgpu.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: resolved.MipLevels,
		SampleCount:   resolved.SampleCount,
		Dimension:     wgpu.TextureDimension_2D,
		Format:        format,
		Usage:         textureUsage(desc),
	})
	if err != nil {
		return nil, fmt.Errorf("webgpu: create texture %q: %w", desc.Label, err)
	}
	view, err := tex.CreateView(&wgpu.TextureViewDescriptor{
		Format:          format,
		Dimension:       wgpu.TextureViewDimension_2D,
		BaseMipLevel:    0,
		MipLevelCount:   resolved.MipLevels,
		BaseArrayLayer:  0,
		ArrayLayerCount: 1,
		Aspect:          wgpu.TextureAspect_All,
	})
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("webgpu: view of texture %q: %w", desc.Label, err)
	}

	t := &texture{
		handle: handle{kind: "Texture", label: desc.Label},
		desc:   resolved,
		tex:    tex,
		view:   view,
	}
	if initial != nil {
		d.writeLevel(t, 0, initial, desc.Width*desc.Format.Size())
		if resolved.GenerateMips {
			t.base = gpu.ImageFromPixels(desc.Width, desc.Height, initial, desc.Width*4)
		}
	}
	logging.Logger().Debug("webgpu: texture created", "label", desc.Label, "width", desc.Width, "height", desc.Height, "mips", resolved.MipLevels)
	return t, nil
}

// writeLevel uploads one mip level. The data must cover the whole level.
func (d *Device) writeLevel(t *texture, level uint32, data []byte, rowPitch uint32) {
	w, h := gpu.MipSize(t.desc.Width, t.desc.Height, level)
	d.queue.WriteTexture(
		&wgpu.ImageCopyTexture{Texture: t.tex, MipLevel: level, Origin: wgpu.Origin3D{}, Aspect: wgpu.TextureAspect_All},
		data,
		&wgpu.TextureDataLayout{Offset: 0, BytesPerRow: rowPitch, RowsPerImage: h},
		&wgpu.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)
}

func (d *Device) texture(tex gpu.Texture) (*texture, error) {
	t, ok := tex.(*texture)
	if !ok || t == nil {
		return nil, gpu.ErrForeignResource
	}
	if t.released {
		return nil, fmt.Errorf("%w: texture %q", gpu.ErrReleased, t.label)
	}
	return t, nil
}

func (d *Device) createView(kind string, tex gpu.Texture, need gpu.BindFlags) (*view, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	t, err := d.texture(tex)
	if err != nil {
		return nil, err
	}
	if t.desc.Bind&need == 0 {
		return nil, fmt.Errorf("%w: texture %q is not bindable as %s", gpu.ErrInvalidDescriptor, t.label, kind)
	}
	return &view{handle: handle{kind: kind, label: t.label}, tex: t}, nil
}

func (d *Device) CreateRenderTargetView(tex gpu.Texture) (gpu.RenderTargetView, error) {
	v, err := d.createView("RenderTargetView", tex, gpu.BindRenderTarget)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (d *Device) CreateDepthStencilView(tex gpu.Texture) (gpu.DepthStencilView, error) {
	v, err := d.createView("DepthStencilView", tex, gpu.BindDepthStencil)
	if err != nil {
		return nil, err
	}
	if v.tex.desc.Format != gpu.FormatDepth24Stencil8 {
		return nil, fmt.Errorf("%w: depth view over %v", gpu.ErrInvalidDescriptor, v.tex.desc.Format)
	}
	return v, nil
}

func (d *Device) CreateShaderResourceView(tex gpu.Texture) (gpu.ShaderResourceView, error) {
	v, err := d.createView("ShaderResourceView", tex, gpu.BindShaderResource)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (d *Device) CreateBuffer(desc *gpu.BufferDescriptor, initial []byte) (gpu.Buffer, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	if desc.Size == 0 || desc.Size%4 != 0 {
		return nil, fmt.Errorf("%w: buffer %q size %d", gpu.ErrInvalidDescriptor, desc.Label, desc.Size)
	}
	if desc.Bind&gpu.BindConstantBuffer != 0 && desc.Size%16 != 0 {
		return nil, fmt.Errorf("%w: constant buffer %q size %d is not a multiple of 16", gpu.ErrInvalidDescriptor, desc.Label, desc.Size)
	}
	if desc.Usage == gpu.UsageDynamic && desc.CPUAccess&gpu.CPUAccessWrite == 0 {
		return nil, fmt.Errorf("%w: dynamic buffer %q without CPU write access", gpu.ErrInvalidDescriptor, desc.Label)
	}
	if desc.Usage == gpu.UsageImmutable && initial == nil {
		return nil, fmt.Errorf("%w: immutable buffer %q without data", gpu.ErrInvalidDescriptor, desc.Label)
	}
	if uint32(len(initial)) > desc.Size {
		return nil, fmt.Errorf("%w: %d bytes of data for buffer %q of %d", gpu.ErrInvalidDescriptor, len(initial), desc.Label, desc.Size)
	}

	var (
		buf *wgpu.Buffer
		err error
	)
	if initial != nil {
		contents := make([]byte, desc.Size)
		copy(contents, initial)
		buf, err = d.dev.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label:    desc.Label,
			Contents: contents,
			Usage:    bufferUsage(desc),
		})
	} else {
		buf, err = d.dev.CreateBuffer(&wgpu.BufferDescriptor{
			Label: desc.Label,
			Size:  uint64(desc.Size),
			Usage: bufferUsage(desc),
		})
	}
	if err != nil {
		return nil, fmt.Errorf("webgpu: create buffer %q: %w", desc.Label, err)
	}
	return &buffer{handle: handle{kind: "Buffer", label: desc.Label}, desc: *desc, buf: buf}, nil
}

func (d *Device) CreateDepthStencilState(desc *gpu.DepthStencilDescriptor) (gpu.DepthStencilState, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	return &depthStencilState{handle: handle{kind: "DepthStencilState", label: "depth-stencil"}, desc: *desc}, nil
}

func (d *Device) CreateRasterizerState(desc *gpu.RasterizerDescriptor) (gpu.RasterizerState, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	if desc.Fill != gpu.FillSolid {
		return nil, fmt.Errorf("%w: wireframe fill is not available", gpu.ErrInvalidDescriptor)
	}
	return &rasterizerState{handle: handle{kind: "RasterizerState", label: "rasterizer"}, desc: *desc}, nil
}

func (d *Device) CreateSamplerState(desc *gpu.SamplerDescriptor) (gpu.SamplerState, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	if desc.MaxLOD < desc.MinLOD {
		return nil, fmt.Errorf("%w: sampler lod range [%g,%g]", gpu.ErrInvalidDescriptor, desc.MinLOD, desc.MaxLOD)
	}
	s, err := d.dev.CreateSampler(samplerDescriptor(desc))
	if err != nil {
		return nil, fmt.Errorf("webgpu: create sampler: %w", err)
	}
	return &samplerState{handle: handle{kind: "SamplerState", label: "sampler"}, desc: *desc, sampler: s}, nil
}

func (d *Device) createShader(kind string, code *gpu.ShaderCode, stage gpu.ShaderStage) (*shader, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	if code == nil || code.Stage != stage || len(code.SPIRV) == 0 {
		return nil, fmt.Errorf("%w: %s needs compiled %v code", gpu.ErrInvalidDescriptor, kind, stage)
	}
	module, err := d.dev.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:           code.Name,
		SPIRVDescriptor: &wgpu.ShaderModuleSPIRVDescriptor{Code: code.SPIRV},
	})
	if err != nil {
		return nil, fmt.Errorf("webgpu: shader module %s: %w", code.Name, err)
	}
	return &shader{handle: handle{kind: kind, label: code.Entry}, code: code, module: module}, nil
}

func (d *Device) CreateVertexShader(code *gpu.ShaderCode) (gpu.VertexShader, error) {
	s, err := d.createShader("VertexShader", code, gpu.StageVertex)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (d *Device) CreatePixelShader(code *gpu.ShaderCode) (gpu.PixelShader, error) {
	s, err := d.createShader("PixelShader", code, gpu.StagePixel)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (d *Device) CreateInputLayout(elements []gpu.InputElement, vs *gpu.ShaderCode) (gpu.InputLayout, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	resolved, stride, err := gpu.ResolveLayout(elements)
	if err != nil {
		return nil, err
	}
	if err := gpu.CheckLayout(resolved, vs); err != nil {
		return nil, err
	}
	attrs, err := vertexAttributes(resolved)
	if err != nil {
		return nil, err
	}
	return &inputLayout{
		handle:   handle{kind: "InputLayout", label: vs.Entry},
		elements: resolved,
		stride:   stride,
		attrs:    attrs,
	}, nil
}

// Release frees the cached pipelines, the queue and the device.
func (d *Device) Release() {
	d.release(func() {
		for k, p := range d.pipelines {
			p.release()
			delete(d.pipelines, k)
		}
		d.queue.Release()
		d.dev.Release()
	})
}

var _ gpu.Device = (*Device)(nil)
