package headless

import (
	"errors"
	"testing"

	"framekit/internal/gpu"
)

func newDevice(t *testing.T) (*Backend, gpu.Device, gpu.Context, gpu.SwapChain) {
	t.Helper()
	b := New(Options{})
	dev, ctx, sc, err := b.CreateDeviceAndSwapChain(&gpu.SwapChainDescriptor{
		Window:      &Window{Width: 64, Height: 32},
		Width:       64,
		Height:      32,
		Format:      gpu.FormatRGBA8Unorm,
		BufferCount: 1,
		SampleCount: 1,
		Windowed:    true,
	})
	if err != nil {
		t.Fatalf("CreateDeviceAndSwapChain: %v", err)
	}
	return b, dev, ctx, sc
}

func TestDisplayModesFilterByFormat(t *testing.T) {
	b := New(Options{})
	modes, err := b.DisplayModes(gpu.FormatRGBA8Unorm)
	if err != nil {
		t.Fatal(err)
	}
	if len(modes) != len(DefaultModes()) {
		t.Errorf("got %d modes, want %d", len(modes), len(DefaultModes()))
	}
	modes, _ = b.DisplayModes(gpu.FormatBGRA8Unorm)
	if len(modes) != 0 {
		t.Errorf("got %d BGRA modes, want 0", len(modes))
	}
}

func TestFailOn(t *testing.T) {
	b := New(Options{})
	boom := errors.New("boom")
	b.FailOn("Adapter", boom)
	if _, err := b.Adapter(); !errors.Is(err, boom) {
		t.Fatalf("Adapter err = %v, want boom", err)
	}
	b.FailOn("Adapter", nil)
	if _, err := b.Adapter(); err != nil {
		t.Fatalf("Adapter after clear: %v", err)
	}
}

func TestCreateDeviceNeedsWindow(t *testing.T) {
	b := New(Options{})
	_, _, _, err := b.CreateDeviceAndSwapChain(&gpu.SwapChainDescriptor{Width: 1, Height: 1, BufferCount: 1, Format: gpu.FormatRGBA8Unorm})
	if !errors.Is(err, gpu.ErrNoWindow) {
		t.Errorf("err = %v, want ErrNoWindow", err)
	}
}

func TestReleaseAccounting(t *testing.T) {
	b, dev, ctx, sc := newDevice(t)
	buf, err := dev.CreateBuffer(&gpu.BufferDescriptor{Label: "vb", Size: 16, Bind: gpu.BindVertexBuffer}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if b.Live() != 4 {
		t.Fatalf("Live = %d, want 4", b.Live())
	}
	buf.Release()
	buf.Release()
	if got := b.DoubleReleases(); len(got) != 1 || got[0] != "Buffer:vb" {
		t.Errorf("DoubleReleases = %v", got)
	}
	ctx.Release()
	dev.Release()
	sc.Release()
	if b.Live() != 0 {
		t.Errorf("Live = %d after release, kinds %v", b.Live(), b.LiveKinds())
	}
	want := []string{"Buffer", "Context", "Device", "SwapChain"}
	got := b.Releases()
	if len(got) != len(want) {
		t.Fatalf("Releases = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("release %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestFullscreenSwapChainRelease(t *testing.T) {
	b, _, _, sc := newDevice(t)
	if err := sc.SetFullscreen(true); err != nil {
		t.Fatal(err)
	}
	sc.Release()
	if len(b.Violations()) != 1 {
		t.Errorf("Violations = %v, want one", b.Violations())
	}
}

func TestBufferValidation(t *testing.T) {
	_, dev, _, _ := newDevice(t)
	tests := []struct {
		name string
		desc gpu.BufferDescriptor
		data []byte
	}{
		{"zero size", gpu.BufferDescriptor{}, nil},
		{"unaligned constant", gpu.BufferDescriptor{Size: 28, Bind: gpu.BindConstantBuffer, Usage: gpu.UsageDynamic, CPUAccess: gpu.CPUAccessWrite}, nil},
		{"dynamic without cpu write", gpu.BufferDescriptor{Size: 16, Usage: gpu.UsageDynamic}, nil},
		{"immutable without data", gpu.BufferDescriptor{Size: 16, Usage: gpu.UsageImmutable}, nil},
		{"data too large", gpu.BufferDescriptor{Size: 4}, make([]byte, 8)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := dev.CreateBuffer(&tt.desc, tt.data); !errors.Is(err, gpu.ErrInvalidDescriptor) {
				t.Errorf("err = %v, want ErrInvalidDescriptor", err)
			}
		})
	}
}

func TestMapDiscard(t *testing.T) {
	b, dev, ctx, _ := newDevice(t)
	buf, err := dev.CreateBuffer(&gpu.BufferDescriptor{
		Label: "cb", Size: 16, Usage: gpu.UsageDynamic, Bind: gpu.BindConstantBuffer, CPUAccess: gpu.CPUAccessWrite,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	p, err := ctx.Map(buf, gpu.MapWriteDiscard)
	if err != nil {
		t.Fatal(err)
	}
	p[0] = 7
	if _, err := ctx.Map(buf, gpu.MapWriteDiscard); !errors.Is(err, gpu.ErrAlreadyMapped) {
		t.Errorf("second Map err = %v, want ErrAlreadyMapped", err)
	}
	ctx.Unmap(buf)
	data, _ := b.BufferData(buf)
	if data[0] != 7 {
		t.Errorf("data[0] = %d after unmap, want 7", data[0])
	}
	p, _ = ctx.Map(buf, gpu.MapWriteDiscard)
	if p[0] != 0 {
		t.Error("discard map exposed previous contents")
	}
	ctx.Unmap(buf)

	immutable, _ := dev.CreateBuffer(&gpu.BufferDescriptor{Size: 4, Usage: gpu.UsageImmutable}, []byte{1, 2, 3, 4})
	if _, err := ctx.Map(immutable, gpu.MapWriteDiscard); !errors.Is(err, gpu.ErrNotMappable) {
		t.Errorf("Map(immutable) = %v, want ErrNotMappable", err)
	}
}

func TestGenerateMips(t *testing.T) {
	b, dev, ctx, _ := newDevice(t)
	tex, err := dev.CreateTexture(&gpu.TextureDescriptor{
		Label:        "tex",
		Width:        4,
		Height:       4,
		Format:       gpu.FormatRGBA8Unorm,
		Bind:         gpu.BindShaderResource | gpu.BindRenderTarget,
		GenerateMips: true,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if tex.Desc().MipLevels != 3 {
		t.Fatalf("MipLevels = %d, want 3", tex.Desc().MipLevels)
	}
	pix := make([]byte, 4*4*4)
	for i := range pix {
		pix[i] = 255
	}
	ctx.UpdateTexture(tex, 0, pix, 16)
	srv, err := dev.CreateShaderResourceView(tex)
	if err != nil {
		t.Fatal(err)
	}
	ctx.GenerateMips(srv)
	last, ok := b.TextureLevel(tex, 2)
	if !ok || len(last) != 4 {
		t.Fatalf("level 2 = %v, %v", last, ok)
	}
	if last[0] < 254 || last[3] < 254 {
		t.Errorf("level 2 = %v, want white", last)
	}
	if len(b.Violations()) != 0 {
		t.Errorf("Violations = %v", b.Violations())
	}
}

func TestMipGenerationRequiresRenderTarget(t *testing.T) {
	_, dev, _, _ := newDevice(t)
	_, err := dev.CreateTexture(&gpu.TextureDescriptor{
		Width: 4, Height: 4, Format: gpu.FormatRGBA8Unorm, Bind: gpu.BindShaderResource, GenerateMips: true,
	}, nil)
	if !errors.Is(err, gpu.ErrInvalidDescriptor) {
		t.Errorf("err = %v, want ErrInvalidDescriptor", err)
	}
}

func TestDrawRequiresCompleteState(t *testing.T) {
	b, dev, ctx, sc := newDevice(t)
	vsCode := &gpu.ShaderCode{
		Stage: gpu.StageVertex, Entry: "vs", SPIRV: []byte{1},
		Inputs: []gpu.Format{gpu.FormatRGB32Float}, Bindings: []uint32{gpu.Binding(gpu.ClassVSConstant, 0)},
	}
	psCode := &gpu.ShaderCode{Stage: gpu.StagePixel, Entry: "ps", SPIRV: []byte{1}}
	vs, err := dev.CreateVertexShader(vsCode)
	if err != nil {
		t.Fatal(err)
	}
	ps, err := dev.CreatePixelShader(psCode)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := dev.CreatePixelShader(vsCode); !errors.Is(err, gpu.ErrInvalidDescriptor) {
		t.Errorf("pixel shader from vertex code: %v", err)
	}
	layout, err := dev.CreateInputLayout([]gpu.InputElement{{Semantic: "POSITION", Format: gpu.FormatRGB32Float}}, vsCode)
	if err != nil {
		t.Fatal(err)
	}
	vb, _ := dev.CreateBuffer(&gpu.BufferDescriptor{Size: 36, Usage: gpu.UsageImmutable, Bind: gpu.BindVertexBuffer}, make([]byte, 36))
	ib, _ := dev.CreateBuffer(&gpu.BufferDescriptor{Size: 12, Usage: gpu.UsageImmutable, Bind: gpu.BindIndexBuffer}, make([]byte, 12))
	cb, _ := dev.CreateBuffer(&gpu.BufferDescriptor{Size: 16, Usage: gpu.UsageDynamic, Bind: gpu.BindConstantBuffer, CPUAccess: gpu.CPUAccessWrite}, nil)
	back, _ := sc.BackBuffer()
	rtv, _ := dev.CreateRenderTargetView(back)

	if err := ctx.DrawIndexed(3, 0, 0); !errors.Is(err, gpu.ErrIncompleteState) {
		t.Fatalf("empty draw err = %v, want ErrIncompleteState", err)
	}

	ctx.SetRenderTargets(rtv, nil)
	ctx.SetVertexBuffer(0, vb, 12, 0)
	ctx.SetIndexBuffer(ib, gpu.IndexUint32, 0)
	ctx.SetInputLayout(layout)
	ctx.SetVertexShader(vs)
	ctx.SetPixelShader(ps)
	if err := ctx.DrawIndexed(3, 0, 0); !errors.Is(err, gpu.ErrIncompleteState) {
		t.Errorf("draw without topology err = %v", err)
	}
	ctx.SetTopology(gpu.TopologyTriangleList)
	if err := ctx.DrawIndexed(3, 0, 0); !errors.Is(err, gpu.ErrIncompleteState) {
		t.Errorf("draw without constant buffer err = %v", err)
	}
	ctx.SetVSConstantBuffer(0, cb)
	if err := ctx.DrawIndexed(4, 0, 0); !errors.Is(err, gpu.ErrInvalidDescriptor) {
		t.Errorf("overlong draw err = %v", err)
	}
	if err := ctx.DrawIndexed(3, 0, 0); err != nil {
		t.Fatalf("DrawIndexed: %v", err)
	}
	draws := b.Draws()
	if len(draws) != 1 || draws[0].IndexCount != 3 || len(draws[0].Constants) != 1 {
		t.Errorf("Draws = %+v", draws)
	}

	ctx.SetVertexBuffer(0, vb, 16, 0)
	if err := ctx.DrawIndexed(3, 0, 0); !errors.Is(err, gpu.ErrInputLayoutMismatch) {
		t.Errorf("stride mismatch err = %v", err)
	}
}

func TestPresentRecordsSyncInterval(t *testing.T) {
	b, _, _, sc := newDevice(t)
	_ = sc.Present(1)
	_ = sc.Present(0)
	got := b.Presents()
	if len(got) != 2 || got[0] != 1 || got[1] != 0 {
		t.Errorf("Presents = %v", got)
	}
}
