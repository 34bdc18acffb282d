// Package gpu defines the immediate-mode device contract the renderer is
// written against: a device that creates resources, a single immediate
// context that records state and draws, and a swap chain that presents.
//
// Two implementations exist. webgpu drives a real GPU through wgpu-native and
// a glfw window surface. headless keeps everything in memory and is used by
// the tests and by the windowless CLI mode.
//
// Resource handles are owned by exactly one component. Release must be
// called once by that owner; implementations report a second release of the
// same handle as a fault rather than silently ignoring it.
package gpu

// Resource is any GPU object that must be released by its owner.
type Resource interface {
	Release()
}

// Texture is a 2D texture resource.
type Texture interface {
	Resource
	Desc() TextureDescriptor
}

// RenderTargetView binds a texture as a color output.
type RenderTargetView interface {
	Resource
	Texture() Texture
}

// DepthStencilView binds a texture as the depth-stencil output.
type DepthStencilView interface {
	Resource
	Texture() Texture
}

// ShaderResourceView binds a texture for sampling in a shader stage.
type ShaderResourceView interface {
	Resource
	Texture() Texture
}

// Buffer is a vertex, index or constant buffer.
type Buffer interface {
	Resource
	Desc() BufferDescriptor
}

// DepthStencilState is an immutable depth/stencil test configuration.
type DepthStencilState interface {
	Resource
	Desc() DepthStencilDescriptor
}

// RasterizerState is an immutable rasterizer configuration.
type RasterizerState interface {
	Resource
	Desc() RasterizerDescriptor
}

// SamplerState is an immutable texture sampler.
type SamplerState interface {
	Resource
	Desc() SamplerDescriptor
}

// VertexShader is a created vertex stage.
type VertexShader interface {
	Resource
	Code() *ShaderCode
}

// PixelShader is a created pixel (fragment) stage.
type PixelShader interface {
	Resource
	Code() *ShaderCode
}

// InputLayout maps vertex buffer bytes onto vertex shader inputs.
type InputLayout interface {
	Resource
	Elements() []InputElement
	Stride() uint32
}

// NativeWindow is the window a swap chain presents into. The renderer never
// creates or destroys it.
type NativeWindow interface {
	Size() (width, height int)
}

// Backend creates the device/context/swap chain triple for one window.
type Backend interface {
	Name() string
	Adapter() (AdapterInfo, error)
	DisplayModes(format Format) ([]DisplayMode, error)
	CreateDeviceAndSwapChain(desc *SwapChainDescriptor) (Device, Context, SwapChain, error)
}

// SwapChain owns the presentation buffers of a window.
type SwapChain interface {
	Resource
	BackBuffer() (Texture, error)
	Present(syncInterval uint32) error
	SetFullscreen(fullscreen bool) error
	Fullscreen() bool
}

// Device creates resources. It never records commands.
type Device interface {
	Resource
	CreateTexture(desc *TextureDescriptor, initial []byte) (Texture, error)
	CreateRenderTargetView(tex Texture) (RenderTargetView, error)
	CreateDepthStencilView(tex Texture) (DepthStencilView, error)
	CreateShaderResourceView(tex Texture) (ShaderResourceView, error)
	CreateBuffer(desc *BufferDescriptor, initial []byte) (Buffer, error)
	CreateDepthStencilState(desc *DepthStencilDescriptor) (DepthStencilState, error)
	CreateRasterizerState(desc *RasterizerDescriptor) (RasterizerState, error)
	CreateSamplerState(desc *SamplerDescriptor) (SamplerState, error)
	CreateVertexShader(code *ShaderCode) (VertexShader, error)
	CreatePixelShader(code *ShaderCode) (PixelShader, error)
	CreateInputLayout(elements []InputElement, vs *ShaderCode) (InputLayout, error)
}

// Context is the immediate context. State set on it persists until changed.
type Context interface {
	Resource

	SetRenderTargets(rtv RenderTargetView, dsv DepthStencilView)
	SetDepthStencilState(state DepthStencilState, stencilRef uint32)
	SetRasterizerState(state RasterizerState)
	SetViewport(vp Viewport)

	ClearRenderTarget(rtv RenderTargetView, color [4]float32)
	ClearDepthStencil(dsv DepthStencilView, flags ClearFlags, depth float32, stencil uint8)

	SetVertexBuffer(slot uint32, buf Buffer, stride, offset uint32)
	SetIndexBuffer(buf Buffer, format IndexFormat, offset uint32)
	SetTopology(t Topology)
	SetInputLayout(layout InputLayout)

	SetVertexShader(vs VertexShader)
	SetPixelShader(ps PixelShader)
	SetVSConstantBuffer(slot uint32, buf Buffer)
	SetPSConstantBuffer(slot uint32, buf Buffer)
	SetPSShaderResource(slot uint32, srv ShaderResourceView)
	SetPSSampler(slot uint32, s SamplerState)

	// Map returns a writable view of a dynamic buffer. With MapWriteDiscard
	// the previous contents are undefined. The view is valid until Unmap.
	Map(buf Buffer, mode MapMode) ([]byte, error)
	Unmap(buf Buffer)

	UpdateTexture(tex Texture, mip uint32, data []byte, rowPitch uint32)
	GenerateMips(srv ShaderResourceView)

	DrawIndexed(indexCount, startIndex uint32, baseVertex int32) error
}
