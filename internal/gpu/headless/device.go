package headless

import (
	"fmt"

	"framekit/internal/gpu"
)

// Device is the in-memory gpu.Device.
type Device struct {
	*resource
}

type texture struct {
	*resource
	desc   gpu.TextureDescriptor
	levels [][]byte
}

func (t *texture) Desc() gpu.TextureDescriptor { return t.desc }

type view struct {
	*resource
	tex *texture
}

func (v *view) Texture() gpu.Texture { return v.tex }

type buffer struct {
	*resource
	desc   gpu.BufferDescriptor
	data   []byte
	mapped []byte
}

func (b *buffer) Desc() gpu.BufferDescriptor { return b.desc }

type depthStencilState struct {
	*resource
	desc gpu.DepthStencilDescriptor
}

func (s *depthStencilState) Desc() gpu.DepthStencilDescriptor { return s.desc }

type rasterizerState struct {
	*resource
	desc gpu.RasterizerDescriptor
}

func (s *rasterizerState) Desc() gpu.RasterizerDescriptor { return s.desc }

type samplerState struct {
	*resource
	desc gpu.SamplerDescriptor
}

func (s *samplerState) Desc() gpu.SamplerDescriptor { return s.desc }

type shader struct {
	*resource
	code *gpu.ShaderCode
}

func (s *shader) Code() *gpu.ShaderCode { return s.code }

type inputLayout struct {
	*resource
	elements []gpu.InputElement
	stride   uint32
}

func (l *inputLayout) Elements() []gpu.InputElement { return l.elements }
func (l *inputLayout) Stride() uint32               { return l.stride }

func (d *Device) enter(op string) error {
	if err := d.b.enter(op); err != nil {
		return err
	}
	if d.released {
		return fmt.Errorf("%w: device", gpu.ErrReleased)
	}
	return nil
}

func (d *Device) CreateTexture(desc *gpu.TextureDescriptor, initial []byte) (gpu.Texture, error) {
	if err := d.enter("CreateTexture"); err != nil {
		return nil, err
	}
	if desc.Width == 0 || desc.Height == 0 || desc.Format.Size() == 0 {
		return nil, fmt.Errorf("%w: texture %q %dx%d %v", gpu.ErrInvalidDescriptor, desc.Label, desc.Width, desc.Height, desc.Format)
	}
	if desc.Usage == gpu.UsageImmutable && initial == nil {
		return nil, fmt.Errorf("%w: immutable texture %q without data", gpu.ErrInvalidDescriptor, desc.Label)
	}
	if desc.GenerateMips && desc.Bind&(gpu.BindShaderResource|gpu.BindRenderTarget) != gpu.BindShaderResource|gpu.BindRenderTarget {
		return nil, fmt.Errorf("%w: mip generation on %q needs shader resource and render target binding", gpu.ErrInvalidDescriptor, desc.Label)
	}
	resolved := *desc
	resolved.MipLevels = gpu.ResolveMipLevels(desc)
	if resolved.SampleCount == 0 {
		resolved.SampleCount = 1
	}
	t := &texture{
		resource: d.b.newResource("Texture", desc.Label),
		desc:     resolved,
		levels:   make([][]byte, resolved.MipLevels),
	}
	for i := range t.levels {
		w, h := gpu.MipSize(desc.Width, desc.Height, uint32(i))
		t.levels[i] = make([]byte, w*h*desc.Format.Size())
	}
	if initial != nil {
		copy(t.levels[0], initial)
	}
	return t, nil
}

func (d *Device) texture(tex gpu.Texture) (*texture, error) {
	t, ok := tex.(*texture)
	if !ok || t == nil {
		return nil, gpu.ErrForeignResource
	}
	if err := t.usable(d.b); err != nil {
		return nil, err
	}
	return t, nil
}

func (d *Device) createView(op, kind string, tex gpu.Texture, need gpu.BindFlags) (*view, error) {
	if err := d.enter(op); err != nil {
		return nil, err
	}
	t, err := d.texture(tex)
	if err != nil {
		return nil, err
	}
	if t.desc.Bind&need == 0 {
		return nil, fmt.Errorf("%w: texture %q is not bindable as %s", gpu.ErrInvalidDescriptor, t.label, kind)
	}
	return &view{resource: d.b.newResource(kind, t.label), tex: t}, nil
}

func (d *Device) CreateRenderTargetView(tex gpu.Texture) (gpu.RenderTargetView, error) {
	v, err := d.createView("CreateRenderTargetView", "RenderTargetView", tex, gpu.BindRenderTarget)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (d *Device) CreateDepthStencilView(tex gpu.Texture) (gpu.DepthStencilView, error) {
	v, err := d.createView("CreateDepthStencilView", "DepthStencilView", tex, gpu.BindDepthStencil)
	if err != nil {
		return nil, err
	}
	if v.tex.desc.Format != gpu.FormatDepth24Stencil8 {
		v.Release()
		return nil, fmt.Errorf("%w: depth view over %v", gpu.ErrInvalidDescriptor, v.tex.desc.Format)
	}
	return v, nil
}

func (d *Device) CreateShaderResourceView(tex gpu.Texture) (gpu.ShaderResourceView, error) {
	v, err := d.createView("CreateShaderResourceView", "ShaderResourceView", tex, gpu.BindShaderResource)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (d *Device) CreateBuffer(desc *gpu.BufferDescriptor, initial []byte) (gpu.Buffer, error) {
	if err := d.enter("CreateBuffer"); err != nil {
		return nil, err
	}
	if desc.Size == 0 {
		return nil, fmt.Errorf("%w: buffer %q has zero size", gpu.ErrInvalidDescriptor, desc.Label)
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
	b := &buffer{
		resource: d.b.newResource("Buffer", desc.Label),
		desc:     *desc,
		data:     make([]byte, desc.Size),
	}
	copy(b.data, initial)
	return b, nil
}

func (d *Device) CreateDepthStencilState(desc *gpu.DepthStencilDescriptor) (gpu.DepthStencilState, error) {
	if err := d.enter("CreateDepthStencilState"); err != nil {
		return nil, err
	}
	return &depthStencilState{resource: d.b.newResource("DepthStencilState", "depth-stencil"), desc: *desc}, nil
}

func (d *Device) CreateRasterizerState(desc *gpu.RasterizerDescriptor) (gpu.RasterizerState, error) {
	if err := d.enter("CreateRasterizerState"); err != nil {
		return nil, err
	}
	return &rasterizerState{resource: d.b.newResource("RasterizerState", "rasterizer"), desc: *desc}, nil
}

func (d *Device) CreateSamplerState(desc *gpu.SamplerDescriptor) (gpu.SamplerState, error) {
	if err := d.enter("CreateSamplerState"); err != nil {
		return nil, err
	}
	if desc.MaxLOD < desc.MinLOD {
		return nil, fmt.Errorf("%w: sampler lod range [%g,%g]", gpu.ErrInvalidDescriptor, desc.MinLOD, desc.MaxLOD)
	}
	return &samplerState{resource: d.b.newResource("SamplerState", "sampler"), desc: *desc}, nil
}

func (d *Device) createShader(op, kind string, code *gpu.ShaderCode, stage gpu.ShaderStage) (*shader, error) {
	if err := d.enter(op); err != nil {
		return nil, err
	}
	if code == nil || code.Stage != stage || len(code.SPIRV) == 0 {
		return nil, fmt.Errorf("%w: %s needs compiled %v code", gpu.ErrInvalidDescriptor, kind, stage)
	}
	return &shader{resource: d.b.newResource(kind, code.Entry), code: code}, nil
}

// The wrappers below return untyped nils on failure so callers' nil checks
// on the interface hold.

func (d *Device) CreateVertexShader(code *gpu.ShaderCode) (gpu.VertexShader, error) {
	s, err := d.createShader("CreateVertexShader", "VertexShader", code, gpu.StageVertex)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (d *Device) CreatePixelShader(code *gpu.ShaderCode) (gpu.PixelShader, error) {
	s, err := d.createShader("CreatePixelShader", "PixelShader", code, gpu.StagePixel)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (d *Device) CreateInputLayout(elements []gpu.InputElement, vs *gpu.ShaderCode) (gpu.InputLayout, error) {
	if err := d.enter("CreateInputLayout"); err != nil {
		return nil, err
	}
	resolved, stride, err := gpu.ResolveLayout(elements)
	if err != nil {
		return nil, err
	}
	if err := gpu.CheckLayout(resolved, vs); err != nil {
		return nil, err
	}
	return &inputLayout{resource: d.b.newResource("InputLayout", vs.Entry), elements: resolved, stride: stride}, nil
}

// TextureLevel returns a copy of one mip level of a texture created by this
// backend.
func (b *Backend) TextureLevel(tex gpu.Texture, level uint32) ([]byte, bool) {
	t, ok := tex.(*texture)
	if !ok || t.b != b || int(level) >= len(t.levels) {
		return nil, false
	}
	return append([]byte(nil), t.levels[level]...), true
}

// BufferData returns a copy of the contents of a buffer created by this
// backend.
func (b *Backend) BufferData(buf gpu.Buffer) ([]byte, bool) {
	bb, ok := buf.(*buffer)
	if !ok || bb.b != b {
		return nil, false
	}
	return append([]byte(nil), bb.data...), true
}
