package gpu

import "fmt"

// Format is a pixel or vertex element format.
type Format int

const (
	FormatUnknown Format = iota
	FormatRGBA8Unorm
	FormatBGRA8Unorm
	FormatDepth24Stencil8
	FormatR32Uint
	FormatRG32Float
	FormatRGB32Float
	FormatRGBA32Float
)

var formatNames = [...]string{
	FormatUnknown:         "unknown",
	FormatRGBA8Unorm:      "rgba8unorm",
	FormatBGRA8Unorm:      "bgra8unorm",
	FormatDepth24Stencil8: "depth24stencil8",
	FormatR32Uint:         "r32uint",
	FormatRG32Float:       "rg32float",
	FormatRGB32Float:      "rgb32float",
	FormatRGBA32Float:     "rgba32float",
}

func (f Format) String() string {
	if f >= 0 && int(f) < len(formatNames) {
		return formatNames[f]
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Size returns the size in bytes of one pixel or element.
func (f Format) Size() uint32 {
	switch f {
	case FormatRGBA8Unorm, FormatBGRA8Unorm, FormatDepth24Stencil8, FormatR32Uint:
		return 4
	case FormatRG32Float:
		return 8
	case FormatRGB32Float:
		return 12
	case FormatRGBA32Float:
		return 16
	}
	return 0
}

// Usage says who reads and writes a resource after creation.
type Usage int

const (
	// UsageDefault is GPU read/write.
	UsageDefault Usage = iota
	// UsageImmutable is GPU read-only, initialised at creation.
	UsageImmutable
	// UsageDynamic is GPU read, CPU write through Map.
	UsageDynamic
)

// BindFlags say which pipeline stages a resource can be bound to.
type BindFlags uint32

const (
	BindVertexBuffer BindFlags = 1 << iota
	BindIndexBuffer
	BindConstantBuffer
	BindShaderResource
	BindRenderTarget
	BindDepthStencil
)

// CPUAccess flags.
type CPUAccess uint32

const (
	CPUAccessNone  CPUAccess = 0
	CPUAccessWrite CPUAccess = 1 << 0
)

// BufferDescriptor describes a buffer.
type BufferDescriptor struct {
	Label     string
	Size      uint32
	Usage     Usage
	Bind      BindFlags
	CPUAccess CPUAccess
}

// TextureDescriptor describes a 2D texture. MipLevels 0 requests the full
// chain down to 1x1.
type TextureDescriptor struct {
	Label        string
	Width        uint32
	Height       uint32
	MipLevels    uint32
	Format       Format
	SampleCount  uint32
	Usage        Usage
	Bind         BindFlags
	GenerateMips bool
}

// CompareFunc is a depth, stencil or sampler comparison.
type CompareFunc int

const (
	CompareNever CompareFunc = iota
	CompareLess
	CompareEqual
	CompareLessEqual
	CompareGreater
	CompareNotEqual
	CompareGreaterEqual
	CompareAlways
)

// StencilOp is applied to the stencil value after a test.
type StencilOp int

const (
	StencilKeep StencilOp = iota
	StencilZero
	StencilReplace
	StencilIncrSat
	StencilDecrSat
	StencilInvert
	StencilIncr
	StencilDecr
)

// StencilFace configures the stencil test for one face orientation.
type StencilFace struct {
	Fail      StencilOp
	DepthFail StencilOp
	Pass      StencilOp
	Func      CompareFunc
}

// DepthStencilDescriptor describes a depth-stencil state.
type DepthStencilDescriptor struct {
	DepthEnable      bool
	DepthWrite       bool
	DepthFunc        CompareFunc
	StencilEnable    bool
	StencilReadMask  uint8
	StencilWriteMask uint8
	Front            StencilFace
	Back             StencilFace
}

// FillMode for rasterization.
type FillMode int

const (
	FillSolid FillMode = iota
	FillWireframe
)

// CullMode for rasterization.
type CullMode int

const (
	CullNone CullMode = iota
	CullFront
	CullBack
)

// RasterizerDescriptor describes a rasterizer state.
type RasterizerDescriptor struct {
	Fill                  FillMode
	Cull                  CullMode
	FrontCounterClockwise bool
	DepthBias             int32
	DepthBiasClamp        float32
	SlopeScaledDepthBias  float32
	DepthClip             bool
	Scissor               bool
	Multisample           bool
	AntialiasedLine       bool
}

// Filter selects min/mag/mip filtering.
type Filter int

const (
	FilterMinMagMipPoint Filter = iota
	FilterMinMagMipLinear
)

// AddressMode for texture coordinates outside [0,1].
type AddressMode int

const (
	AddressWrap AddressMode = iota
	AddressMirror
	AddressClamp
	AddressBorder
)

// MaxLOD is the "no clamp" upper level-of-detail bound.
const MaxLOD = float32(3.402823466e+38)

// SamplerDescriptor describes a sampler state.
type SamplerDescriptor struct {
	Filter        Filter
	AddressU      AddressMode
	AddressV      AddressMode
	AddressW      AddressMode
	MipLODBias    float32
	MaxAnisotropy uint32
	Compare       CompareFunc
	BorderColor   [4]float32
	MinLOD        float32
	MaxLOD        float32
}

// Viewport maps clip space onto the render target.
type Viewport struct {
	X, Y          float32
	Width, Height float32
	MinDepth      float32
	MaxDepth      float32
}

// ClearFlags select which depth-stencil planes ClearDepthStencil touches.
type ClearFlags uint32

const (
	ClearDepth ClearFlags = 1 << iota
	ClearStencil
)

// IndexFormat is the element type of an index buffer.
type IndexFormat int

const (
	IndexUint16 IndexFormat = iota
	IndexUint32
)

// Size returns the size of one index in bytes.
func (f IndexFormat) Size() uint32 {
	if f == IndexUint16 {
		return 2
	}
	return 4
}

// Topology of primitives assembled from the index stream.
type Topology int

const (
	TopologyUndefined Topology = iota
	TopologyTriangleList
	TopologyTriangleStrip
	TopologyLineList
)

// MapMode for Context.Map.
type MapMode int

const (
	MapWriteDiscard MapMode = iota
)

// SwapEffect says what happens to the back buffer after Present.
type SwapEffect int

const (
	SwapEffectDiscard SwapEffect = iota
	SwapEffectSequential
)

// Rational is a refresh rate as numerator/denominator.
type Rational struct {
	Numerator   uint32
	Denominator uint32
}

// Hz returns the rate as a float, 0 when the denominator is 0.
func (r Rational) Hz() float64 {
	if r.Denominator == 0 {
		return 0
	}
	return float64(r.Numerator) / float64(r.Denominator)
}

// DisplayMode is one mode supported by the primary output.
type DisplayMode struct {
	Width       uint32
	Height      uint32
	Format      Format
	RefreshRate Rational
}

// AdapterInfo describes the display adapter.
type AdapterInfo struct {
	Name           string
	Driver         string
	DedicatedMemMB int
}

// SwapChainDescriptor describes the device/swap chain triple to create.
type SwapChainDescriptor struct {
	Window      NativeWindow
	Width       uint32
	Height      uint32
	Format      Format
	BufferCount uint32
	SampleCount uint32
	RefreshRate Rational
	Windowed    bool
	SwapEffect  SwapEffect
}
