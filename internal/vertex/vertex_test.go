package vertex

import (
	"testing"
	"unsafe"

	"framekit/internal/gpu"
)

func TestLayoutsMatchStructs(t *testing.T) {
	tests := []struct {
		kind    Kind
		offsets []uintptr
		size    uintptr
	}{
		{KindColor, []uintptr{unsafe.Offsetof(Color{}.Position), unsafe.Offsetof(Color{}.Color)}, unsafe.Sizeof(Color{})},
		{KindTexture, []uintptr{unsafe.Offsetof(Texture{}.Position), unsafe.Offsetof(Texture{}.UV)}, unsafe.Sizeof(Texture{})},
		{KindLight, []uintptr{unsafe.Offsetof(Light{}.Position), unsafe.Offsetof(Light{}.UV), unsafe.Offsetof(Light{}.Normal)}, unsafe.Sizeof(Light{})},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			resolved, stride, err := gpu.ResolveLayout(Layout(tt.kind))
			if err != nil {
				t.Fatal(err)
			}
			if uintptr(stride) != tt.size || Stride(tt.kind) != stride {
				t.Errorf("stride = %d, Stride = %d, struct size = %d", stride, Stride(tt.kind), tt.size)
			}
			for i, e := range resolved {
				if uintptr(e.Offset) != tt.offsets[i] {
					t.Errorf("%s offset = %d, want %d", e.Semantic, e.Offset, tt.offsets[i])
				}
			}
		})
	}
}

func TestBuild(t *testing.T) {
	tri := Triangle()
	for _, k := range []Kind{KindColor, KindTexture, KindLight} {
		b, err := Build(k, tri)
		if err != nil {
			t.Fatalf("Build(%v): %v", k, err)
		}
		if uint32(len(b)) != 3*Stride(k) {
			t.Errorf("Build(%v) = %d bytes, want %d", k, len(b), 3*Stride(k))
		}
	}
	if _, err := Build(Kind(9), tri); err == nil {
		t.Error("Build(unknown) succeeded")
	}
}

func TestTriangle(t *testing.T) {
	tri := Triangle()
	if len(tri) != 3 {
		t.Fatalf("len = %d", len(tri))
	}
	if tri[0].Position != [3]float32{-1, -1, 0} || tri[1].Position != [3]float32{0, 1, 0} || tri[2].Position != [3]float32{1, -1, 0} {
		t.Errorf("positions = %v %v %v", tri[0].Position, tri[1].Position, tri[2].Position)
	}
	for i, p := range tri {
		if p.Color != [4]float32{0, 1, 0, 1} {
			t.Errorf("vertex %d color = %v, want green", i, p.Color)
		}
		if p.Normal != [3]float32{0, 0, -1} {
			t.Errorf("vertex %d normal = %v", i, p.Normal)
		}
	}
	// Clockwise when seen from -Z looking down +Z: the signed area in the XY
	// plane is negative.
	a, b, c := tri[0].Position, tri[1].Position, tri[2].Position
	cross := (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
	if cross >= 0 {
		t.Errorf("winding cross = %g, want clockwise", cross)
	}
}
