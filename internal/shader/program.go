// Package shader builds and drives the Color, Texture and Light shader
// programs. A program compiles its vertex and pixel stages, owns the input
// layout and constant buffers, and draws a bound mesh with one Render call.
package shader

import (
	"errors"
	"fmt"
	"io/fs"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"

	"framekit/internal/gpu"
	"framekit/internal/logging"
	"framekit/internal/vertex"
)

// ErrNoTexture is returned by Render when a textured program is given no
// texture.
var ErrNoTexture = errors.New("shader: textured program rendered without a texture")

// ShaderProgram is what the frame loop draws with.
type ShaderProgram interface {
	Render(ctx gpu.Context, indexCount uint32, p *Params) error
	Shutdown()
}

// Params are the per-draw inputs. Matrices use the row-vector convention
// (v·M). Texture is required by textured variants; the light fields are
// read only by Light.
type Params struct {
	World      mgl32.Mat4
	View       mgl32.Mat4
	Projection mgl32.Mat4

	Texture gpu.ShaderResourceView

	LightDirection mgl32.Vec3
	DiffuseColor   mgl32.Vec4
}

// matrixBuffer mirrors MatrixBuffer in the vertex stages.
type matrixBuffer struct {
	World      mgl32.Mat4
	View       mgl32.Mat4
	Projection mgl32.Mat4
}

// lightBuffer mirrors LightBuffer in light.ps.wgsl.
type lightBuffer struct {
	DiffuseColor mgl32.Vec4
	Direction    mgl32.Vec3
	Padding      float32
}

const (
	matrixBufferSize = uint32(unsafe.Sizeof(matrixBuffer{}))
	lightBufferSize  = uint32(unsafe.Sizeof(lightBuffer{}))
)

// noCopy makes go vet's copylocks check reject copies of a Program.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Program is a compiled shader program of one variant.
type Program struct {
	noCopy noCopy

	variant Variant
	vs      gpu.VertexShader
	ps      gpu.PixelShader
	layout  gpu.InputLayout
	sampler gpu.SamplerState

	matrices gpu.Buffer
	light    gpu.Buffer
}

type options struct {
	errorLog string
}

// Option configures New.
type Option func(*options)

// WithErrorLog sets the file compiler diagnostics are written to. An empty
// path disables the file.
func WithErrorLog(path string) Option {
	return func(o *options) { o.errorLog = path }
}

// New compiles variant v from the sources in src and creates its GPU
// objects. On failure everything created so far is released.
func New(dev gpu.Device, v Variant, src fs.FS, opts ...Option) (*Program, error) {
	if !v.valid() {
		return nil, fmt.Errorf("shader: unknown variant %d", int(v))
	}
	o := options{errorLog: DefaultErrorLog}
	for _, opt := range opts {
		opt(&o)
	}

	p := &Program{variant: v}
	if err := p.init(dev, src, &o); err != nil {
		p.Shutdown()
		return nil, err
	}
	logging.Logger().Info("shader program ready", "variant", v, "vs", v.VertexEntry(), "ps", v.PixelEntry())
	return p, nil
}

func (p *Program) init(dev gpu.Device, src fs.FS, o *options) error {
	v := p.variant
	vsCode, err := Compile(src, v.VertexFile(), v.VertexEntry(), gpu.StageVertex, o.errorLog)
	if err != nil {
		return err
	}
	psCode, err := Compile(src, v.PixelFile(), v.PixelEntry(), gpu.StagePixel, o.errorLog)
	if err != nil {
		return err
	}

	if p.vs, err = dev.CreateVertexShader(vsCode); err != nil {
		return fmt.Errorf("shader: create vertex shader: %w", err)
	}
	if p.ps, err = dev.CreatePixelShader(psCode); err != nil {
		return fmt.Errorf("shader: create pixel shader: %w", err)
	}
	if p.layout, err = dev.CreateInputLayout(vertex.Layout(v.VertexKind()), vsCode); err != nil {
		return fmt.Errorf("shader: create input layout: %w", err)
	}

	if v.Textured() {
		p.sampler, err = dev.CreateSamplerState(&gpu.SamplerDescriptor{
			Filter:        gpu.FilterMinMagMipLinear,
			AddressU:      gpu.AddressWrap,
			AddressV:      gpu.AddressWrap,
			AddressW:      gpu.AddressWrap,
			MipLODBias:    0,
			MaxAnisotropy: 1,
			Compare:       gpu.CompareAlways,
			MinLOD:        0,
			MaxLOD:        gpu.MaxLOD,
		})
		if err != nil {
			return fmt.Errorf("shader: create sampler: %w", err)
		}
	}

	if p.matrices, err = dev.CreateBuffer(dynamicConstant("matrix buffer", matrixBufferSize), nil); err != nil {
		return fmt.Errorf("shader: create matrix buffer: %w", err)
	}
	if v.Lit() {
		if p.light, err = dev.CreateBuffer(dynamicConstant("light buffer", lightBufferSize), nil); err != nil {
			return fmt.Errorf("shader: create light buffer: %w", err)
		}
	}
	return nil
}

func dynamicConstant(label string, size uint32) *gpu.BufferDescriptor {
	return &gpu.BufferDescriptor{
		Label:     label,
		Size:      size,
		Usage:     gpu.UsageDynamic,
		Bind:      gpu.BindConstantBuffer,
		CPUAccess: gpu.CPUAccessWrite,
	}
}

// Variant returns the program's variant.
func (p *Program) Variant() Variant { return p.variant }

// Render uploads the parameters and draws indexCount indices of the bound
// mesh starting at index 0.
func (p *Program) Render(ctx gpu.Context, indexCount uint32, params *Params) error {
	if p.vs == nil {
		return fmt.Errorf("shader: %w: program is shut down", gpu.ErrReleased)
	}
	if p.variant.Textured() && params.Texture == nil {
		return ErrNoTexture
	}
	if err := p.setParameters(ctx, params); err != nil {
		return err
	}

	ctx.SetInputLayout(p.layout)
	ctx.SetVertexShader(p.vs)
	ctx.SetPixelShader(p.ps)
	if p.sampler != nil {
		ctx.SetPSSampler(0, p.sampler)
	}
	if err := ctx.DrawIndexed(indexCount, 0, 0); err != nil {
		return fmt.Errorf("shader: draw %s: %w", p.variant, err)
	}
	return nil
}

func (p *Program) setParameters(ctx gpu.Context, params *Params) error {
	// Shaders multiply column vectors.
	m := []matrixBuffer{{
		World:      params.World.Transpose(),
		View:       params.View.Transpose(),
		Projection: params.Projection.Transpose(),
	}}
	if err := write(ctx, p.matrices, gpu.Bytes(m)); err != nil {
		return fmt.Errorf("shader: matrix buffer: %w", err)
	}
	ctx.SetVSConstantBuffer(0, p.matrices)

	if p.variant.Textured() {
		ctx.SetPSShaderResource(0, params.Texture)
	}

	if p.variant.Lit() {
		l := []lightBuffer{{DiffuseColor: params.DiffuseColor, Direction: params.LightDirection}}
		if err := write(ctx, p.light, gpu.Bytes(l)); err != nil {
			return fmt.Errorf("shader: light buffer: %w", err)
		}
		ctx.SetPSConstantBuffer(0, p.light)
	}
	return nil
}

func write(ctx gpu.Context, buf gpu.Buffer, data []byte) error {
	dst, err := ctx.Map(buf, gpu.MapWriteDiscard)
	if err != nil {
		return err
	}
	copy(dst, data)
	ctx.Unmap(buf)
	return nil
}

// Shutdown releases the light buffer, matrix buffer, sampler, input layout,
// pixel shader and vertex shader. Safe to call more than once.
func (p *Program) Shutdown() {
	if p.light != nil {
		p.light.Release()
		p.light = nil
	}
	if p.matrices != nil {
		p.matrices.Release()
		p.matrices = nil
	}
	if p.sampler != nil {
		p.sampler.Release()
		p.sampler = nil
	}
	if p.layout != nil {
		p.layout.Release()
		p.layout = nil
	}
	if p.ps != nil {
		p.ps.Release()
		p.ps = nil
	}
	if p.vs != nil {
		p.vs.Release()
		p.vs = nil
	}
}

var _ ShaderProgram = (*Program)(nil)
