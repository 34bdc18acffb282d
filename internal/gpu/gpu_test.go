package gpu

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestResolveLayout(t *testing.T) {
	elems := []InputElement{
		{Semantic: "POSITION", Format: FormatRGB32Float, Offset: 0},
		{Semantic: "TEXCOORD", Format: FormatRG32Float, Offset: AppendAligned},
		{Semantic: "NORMAL", Format: FormatRGB32Float, Offset: AppendAligned},
	}
	got, stride, err := ResolveLayout(elems)
	if err != nil {
		t.Fatalf("ResolveLayout: %v", err)
	}
	wantOffsets := []uint32{0, 12, 20}
	for i, e := range got {
		if e.Offset != wantOffsets[i] {
			t.Errorf("element %d offset = %d, want %d", i, e.Offset, wantOffsets[i])
		}
	}
	if stride != 32 {
		t.Errorf("stride = %d, want 32", stride)
	}
	if elems[1].Offset != AppendAligned {
		t.Error("ResolveLayout modified its input")
	}
}

func TestResolveLayoutErrors(t *testing.T) {
	tests := []struct {
		name  string
		elems []InputElement
	}{
		{"empty", nil},
		{"unknown format", []InputElement{{Semantic: "POSITION", Format: FormatUnknown}}},
		{"overlap", []InputElement{
			{Semantic: "POSITION", Format: FormatRGB32Float, Offset: 0},
			{Semantic: "COLOR", Format: FormatRGBA32Float, Offset: 8},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := ResolveLayout(tt.elems); !errors.Is(err, ErrInvalidDescriptor) {
				t.Errorf("err = %v, want ErrInvalidDescriptor", err)
			}
		})
	}
}

func TestCheckLayout(t *testing.T) {
	vs := &ShaderCode{Stage: StageVertex, Entry: "ColorVertexShader", Inputs: []Format{FormatRGB32Float, FormatRGBA32Float}}
	ok := []InputElement{
		{Semantic: "POSITION", Format: FormatRGB32Float},
		{Semantic: "COLOR", Format: FormatRGBA32Float},
	}
	if err := CheckLayout(ok, vs); err != nil {
		t.Errorf("CheckLayout(matching) = %v", err)
	}

	swapped := []InputElement{ok[1], ok[0]}
	if err := CheckLayout(swapped, vs); !errors.Is(err, ErrInputLayoutMismatch) {
		t.Errorf("CheckLayout(swapped) = %v, want ErrInputLayoutMismatch", err)
	}
	if err := CheckLayout(ok[:1], vs); !errors.Is(err, ErrInputLayoutMismatch) {
		t.Errorf("CheckLayout(short) = %v, want ErrInputLayoutMismatch", err)
	}
	ps := &ShaderCode{Stage: StagePixel}
	if err := CheckLayout(ok, ps); !errors.Is(err, ErrInputLayoutMismatch) {
		t.Errorf("CheckLayout(pixel stage) = %v, want ErrInputLayoutMismatch", err)
	}
}

func TestBindingRoundTrip(t *testing.T) {
	for _, class := range []BindingClass{ClassVSConstant, ClassPSConstant, ClassPSResource, ClassPSSampler} {
		for slot := uint32(0); slot < SlotsPerClass; slot++ {
			b := Binding(class, slot)
			gotClass, gotSlot := ClassOf(b)
			if gotClass != class || gotSlot != slot {
				t.Errorf("ClassOf(Binding(%d,%d)) = (%d,%d)", class, slot, gotClass, gotSlot)
			}
		}
	}
	if Binding(ClassPSConstant, 0) == Binding(ClassVSConstant, 0) {
		t.Error("VS and PS constant slot 0 share a binding")
	}
}

func TestMipLevels(t *testing.T) {
	tests := []struct {
		w, h uint32
		want uint32
	}{
		{1, 1, 1},
		{2, 2, 2},
		{256, 256, 9},
		{256, 1, 9},
		{5, 3, 3},
	}
	for _, tt := range tests {
		if got := MipLevelCount(tt.w, tt.h); got != tt.want {
			t.Errorf("MipLevelCount(%d,%d) = %d, want %d", tt.w, tt.h, got, tt.want)
		}
	}

	if w, h := MipSize(256, 64, 7); w != 2 || h != 1 {
		t.Errorf("MipSize(256,64,7) = %dx%d, want 2x1", w, h)
	}

	desc := &TextureDescriptor{Width: 8, Height: 8}
	if got := ResolveMipLevels(desc); got != 4 {
		t.Errorf("ResolveMipLevels(full) = %d, want 4", got)
	}
	desc.MipLevels = 1
	if got := ResolveMipLevels(desc); got != 1 {
		t.Errorf("ResolveMipLevels(1) = %d, want 1", got)
	}
}

func TestGenerateMipChain(t *testing.T) {
	base := image.NewRGBA(image.Rect(0, 0, 8, 4))
	fill := color.RGBA{R: 200, G: 100, B: 50, A: 255}
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			base.SetRGBA(x, y, fill)
		}
	}
	chain := GenerateMipChain(base, MipLevelCount(8, 4))
	if len(chain) != 3 {
		t.Fatalf("len(chain) = %d, want 3", len(chain))
	}
	wantSizes := [][2]int{{4, 2}, {2, 1}, {1, 1}}
	for i, img := range chain {
		b := img.Bounds()
		if b.Dx() != wantSizes[i][0] || b.Dy() != wantSizes[i][1] {
			t.Errorf("level %d = %dx%d, want %dx%d", i+1, b.Dx(), b.Dy(), wantSizes[i][0], wantSizes[i][1])
		}
		got := img.RGBAAt(0, 0)
		if !near(got.R, fill.R) || !near(got.G, fill.G) || !near(got.B, fill.B) || !near(got.A, fill.A) {
			t.Errorf("level %d pixel = %v, want %v", i+1, got, fill)
		}
	}
	if GenerateMipChain(base, 1) != nil {
		t.Error("single-level chain should be nil")
	}
}

func TestImageFromPixelsPitch(t *testing.T) {
	// 2x2 image stored with 4 bytes of row padding.
	pix := []byte{
		1, 2, 3, 4, 5, 6, 7, 8, 0, 0, 0, 0,
		9, 10, 11, 12, 13, 14, 15, 16, 0, 0, 0, 0,
	}
	img := ImageFromPixels(2, 2, pix, 12)
	if got := img.RGBAAt(1, 1); got != (color.RGBA{13, 14, 15, 16}) {
		t.Errorf("pixel (1,1) = %v", got)
	}
}

func TestBytes(t *testing.T) {
	idx := []uint32{0, 1, 2}
	b := Bytes(idx)
	if len(b) != 12 {
		t.Fatalf("len = %d, want 12", len(b))
	}
	if Bytes([]uint32(nil)) != nil {
		t.Error("Bytes(nil) should be nil")
	}
}

func TestFormatSize(t *testing.T) {
	if FormatRGB32Float.Size() != 12 || FormatRGBA32Float.Size() != 16 || FormatRG32Float.Size() != 8 {
		t.Error("float vector sizes wrong")
	}
	if FormatUnknown.Size() != 0 {
		t.Error("unknown format should have size 0")
	}
	if IndexUint32.Size() != 4 || IndexUint16.Size() != 2 {
		t.Error("index sizes wrong")
	}
}

func near(a, b uint8) bool {
	d := int(a) - int(b)
	return d >= -1 && d <= 1
}
