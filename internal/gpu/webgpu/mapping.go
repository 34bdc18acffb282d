package webgpu

import (
	"fmt"
	"slices"

	"github.com/rajveermalviya/go-webgpu/wgpu"

	"framekit/internal/gpu"
)

func textureFormat(f gpu.Format) (wgpu.TextureFormat, error) {
	switch f {
	case gpu.FormatRGBA8Unorm:
		return wgpu.TextureFormat_RGBA8Unorm, nil
	case gpu.FormatBGRA8Unorm:
		return wgpu.TextureFormat_BGRA8Unorm, nil
	case gpu.FormatDepth24Stencil8:
		return wgpu.TextureFormat_Depth24PlusStencil8, nil
	}
	return wgpu.TextureFormat_Undefined, fmt.Errorf("%w: no texture format for %v", gpu.ErrInvalidDescriptor, f)
}

func vertexFormat(f gpu.Format) (wgpu.VertexFormat, error) {
	switch f {
	case gpu.FormatRG32Float:
		return wgpu.VertexFormat_Float32x2, nil
	case gpu.FormatRGB32Float:
		return wgpu.VertexFormat_Float32x3, nil
	case gpu.FormatRGBA32Float:
		return wgpu.VertexFormat_Float32x4, nil
	case gpu.FormatR32Uint:
		return wgpu.VertexFormat_Uint32, nil
	case gpu.FormatRGBA8Unorm:
		return wgpu.VertexFormat_Unorm8x4, nil
	}
	return wgpu.VertexFormat_Undefined, fmt.Errorf("%w: no vertex format for %v", gpu.ErrInvalidDescriptor, f)
}

func compareFunction(c gpu.CompareFunc) wgpu.CompareFunction {
	switch c {
	case gpu.CompareNever:
		return wgpu.CompareFunction_Never
	case gpu.CompareLess:
		return wgpu.CompareFunction_Less
	case gpu.CompareEqual:
		return wgpu.CompareFunction_Equal
	case gpu.CompareLessEqual:
		return wgpu.CompareFunction_LessEqual
	case gpu.CompareGreater:
		return wgpu.CompareFunction_Greater
	case gpu.CompareNotEqual:
		return wgpu.CompareFunction_NotEqual
	case gpu.CompareGreaterEqual:
		return wgpu.CompareFunction_GreaterEqual
	}
	return wgpu.CompareFunction_Always
}

// stencilOperation maps the wrapping increment and decrement to their WebGPU
// counterparts and the saturating ones to the clamping ops.
func stencilOperation(op gpu.StencilOp) wgpu.StencilOperation {
	switch op {
	case gpu.StencilZero:
		return wgpu.StencilOperation_Zero
	case gpu.StencilReplace:
		return wgpu.StencilOperation_Replace
	case gpu.StencilIncrSat:
		return wgpu.StencilOperation_IncrementClamp
	case gpu.StencilDecrSat:
		return wgpu.StencilOperation_DecrementClamp
	case gpu.StencilInvert:
		return wgpu.StencilOperation_Invert
	case gpu.StencilIncr:
		return wgpu.StencilOperation_IncrementWrap
	case gpu.StencilDecr:
		return wgpu.StencilOperation_DecrementWrap
	}
	return wgpu.StencilOperation_Keep
}

func stencilFace(f gpu.StencilFace) wgpu.StencilFaceState {
	return wgpu.StencilFaceState{
		Compare:     compareFunction(f.Func),
		FailOp:      stencilOperation(f.Fail),
		DepthFailOp: stencilOperation(f.DepthFail),
		PassOp:      stencilOperation(f.Pass),
	}
}

// depthStencilState builds the pipeline depth state. A nil desc disables
// depth and stencil testing.
func depthStencilState(desc *gpu.DepthStencilDescriptor, raster *gpu.RasterizerDescriptor) *wgpu.DepthStencilState {
	if desc == nil {
		return nil
	}
	s := &wgpu.DepthStencilState{
		Format:            wgpu.TextureFormat_Depth24PlusStencil8,
		DepthWriteEnabled: desc.DepthEnable && desc.DepthWrite,
		DepthCompare:      wgpu.CompareFunction_Always,
		StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunction_Always},
		StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunction_Always},
	}
	if desc.DepthEnable {
		s.DepthCompare = compareFunction(desc.DepthFunc)
	}
	if desc.StencilEnable {
		s.StencilFront = stencilFace(desc.Front)
		s.StencilBack = stencilFace(desc.Back)
		s.StencilReadMask = uint32(desc.StencilReadMask)
		s.StencilWriteMask = uint32(desc.StencilWriteMask)
	}
	if raster != nil {
		s.DepthBias = raster.DepthBias
		s.DepthBiasSlopeScale = raster.SlopeScaledDepthBias
		s.DepthBiasClamp = raster.DepthBiasClamp
	}
	return s
}

func primitiveState(t gpu.Topology, raster *gpu.RasterizerDescriptor) (wgpu.PrimitiveState, error) {
	p := wgpu.PrimitiveState{
		FrontFace: wgpu.FrontFace_CW,
		CullMode:  wgpu.CullMode_None,
	}
	switch t {
	case gpu.TopologyTriangleList:
		p.Topology = wgpu.PrimitiveTopology_TriangleList
	case gpu.TopologyTriangleStrip:
		p.Topology = wgpu.PrimitiveTopology_TriangleStrip
		p.StripIndexFormat = wgpu.IndexFormat_Uint32
	case gpu.TopologyLineList:
		p.Topology = wgpu.PrimitiveTopology_LineList
	default:
		return p, fmt.Errorf("%w: topology %d", gpu.ErrIncompleteState, t)
	}
	if raster == nil {
		return p, nil
	}
	if raster.Fill != gpu.FillSolid {
		return p, fmt.Errorf("%w: wireframe fill is not available", gpu.ErrInvalidDescriptor)
	}
	if raster.FrontCounterClockwise {
		p.FrontFace = wgpu.FrontFace_CCW
	}
	switch raster.Cull {
	case gpu.CullFront:
		p.CullMode = wgpu.CullMode_Front
	case gpu.CullBack:
		p.CullMode = wgpu.CullMode_Back
	}
	return p, nil
}

func addressMode(a gpu.AddressMode) wgpu.AddressMode {
	switch a {
	case gpu.AddressMirror:
		return wgpu.AddressMode_MirrorRepeat
	case gpu.AddressClamp, gpu.AddressBorder:
		return wgpu.AddressMode_ClampToEdge
	}
	return wgpu.AddressMode_Repeat
}

func samplerDescriptor(desc *gpu.SamplerDescriptor) *wgpu.SamplerDescriptor {
	s := &wgpu.SamplerDescriptor{
		Label:          "sampler",
		AddressModeU:   addressMode(desc.AddressU),
		AddressModeV:   addressMode(desc.AddressV),
		AddressModeW:   addressMode(desc.AddressW),
		MagFilter:      wgpu.FilterMode_Nearest,
		MinFilter:      wgpu.FilterMode_Nearest,
		MipmapFilter:   wgpu.MipmapFilterMode_Nearest,
		LodMinClamp:    desc.MinLOD,
		LodMaxClamp:    desc.MaxLOD,
		MaxAnisotrophy: uint16(max(desc.MaxAnisotropy, 1)),
	}
	if desc.Filter == gpu.FilterMinMagMipLinear {
		s.MagFilter = wgpu.FilterMode_Linear
		s.MinFilter = wgpu.FilterMode_Linear
		s.MipmapFilter = wgpu.MipmapFilterMode_Linear
	}
	// WebGPU caps the LOD clamp at 32.
	if s.LodMaxClamp > 32 {
		s.LodMaxClamp = 32
	}
	return s
}

func indexFormat(f gpu.IndexFormat) wgpu.IndexFormat {
	if f == gpu.IndexUint16 {
		return wgpu.IndexFormat_Uint16
	}
	return wgpu.IndexFormat_Uint32
}

func bufferUsage(desc *gpu.BufferDescriptor) wgpu.BufferUsage {
	u := wgpu.BufferUsage_CopyDst
	if desc.Bind&gpu.BindVertexBuffer != 0 {
		u |= wgpu.BufferUsage_Vertex
	}
	if desc.Bind&gpu.BindIndexBuffer != 0 {
		u |= wgpu.BufferUsage_Index
	}
	if desc.Bind&gpu.BindConstantBuffer != 0 {
		u |= wgpu.BufferUsage_Uniform
	}
	return u
}

func textureUsage(desc *gpu.TextureDescriptor) wgpu.TextureUsage {
	var u wgpu.TextureUsage
	if desc.Bind&gpu.BindDepthStencil == 0 {
		u |= wgpu.TextureUsage_CopyDst
	}
	if desc.Bind&gpu.BindShaderResource != 0 {
		u |= wgpu.TextureUsage_TextureBinding
	}
	if desc.Bind&(gpu.BindRenderTarget|gpu.BindDepthStencil) != 0 {
		u |= wgpu.TextureUsage_RenderAttachment
	}
	return u
}

func vertexAttributes(elements []gpu.InputElement) ([]wgpu.VertexAttribute, error) {
	attrs := make([]wgpu.VertexAttribute, len(elements))
	for i, e := range elements {
		f, err := vertexFormat(e.Format)
		if err != nil {
			return nil, err
		}
		attrs[i] = wgpu.VertexAttribute{
			Format:         f,
			Offset:         uint64(e.Offset),
			ShaderLocation: uint32(i),
		}
	}
	return attrs, nil
}

// bindGroupLayoutEntries derives the group 0 layout from the bindings the two
// stages declare, using the binding number's register class to pick the
// entry type.
func bindGroupLayoutEntries(vs, ps *gpu.ShaderCode) []wgpu.BindGroupLayoutEntry {
	var bindings []uint32
	bindings = append(bindings, vs.Bindings...)
	bindings = append(bindings, ps.Bindings...)
	slices.Sort(bindings)
	bindings = slices.Compact(bindings)

	entries := make([]wgpu.BindGroupLayoutEntry, 0, len(bindings))
	for _, b := range bindings {
		e := wgpu.BindGroupLayoutEntry{Binding: b}
		class, _ := gpu.ClassOf(b)
		switch class {
		case gpu.ClassVSConstant:
			e.Visibility = wgpu.ShaderStage_Vertex
			e.Buffer = wgpu.BufferBindingLayout{Type: wgpu.BufferBindingType_Uniform}
		case gpu.ClassPSConstant:
			e.Visibility = wgpu.ShaderStage_Fragment
			e.Buffer = wgpu.BufferBindingLayout{Type: wgpu.BufferBindingType_Uniform}
		case gpu.ClassPSResource:
			e.Visibility = wgpu.ShaderStage_Fragment
			e.Texture = wgpu.TextureBindingLayout{
				SampleType:    wgpu.TextureSampleType_Float,
				ViewDimension: wgpu.TextureViewDimension_2D,
			}
		case gpu.ClassPSSampler:
			e.Visibility = wgpu.ShaderStage_Fragment
			e.Sampler = wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingType_Filtering}
		}
		entries = append(entries, e)
	}
	return entries
}

func presentMode(syncInterval uint32) wgpu.PresentMode {
	if syncInterval == 0 {
		return wgpu.PresentMode_Immediate
	}
	return wgpu.PresentMode_Fifo
}
