package tga

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"
)

func header(w, h uint16, bpp uint8) []byte {
	b := make([]byte, HeaderSize)
	b[2] = 2
	b[12], b[13] = byte(w), byte(w>>8)
	b[14], b[15] = byte(h), byte(h>>8)
	b[16] = bpp
	return b
}

func TestDecodeReordersRowsAndChannels(t *testing.T) {
	// Four distinct BGRA pixels, bottom row first.
	data := append(header(2, 2, 32),
		1, 2, 3, 4, // bottom-left
		5, 6, 7, 8, // bottom-right
		9, 10, 11, 12, // top-left
		13, 14, 15, 16, // top-right
	)
	img, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 2 || img.Bounds().Dy() != 2 {
		t.Fatalf("size = %v", img.Bounds())
	}
	tests := []struct {
		x, y int
		want color.RGBA
	}{
		{0, 1, color.RGBA{3, 2, 1, 4}},
		{1, 1, color.RGBA{7, 6, 5, 8}},
		{0, 0, color.RGBA{11, 10, 9, 12}},
		{1, 0, color.RGBA{15, 14, 13, 16}},
	}
	for _, tt := range tests {
		if got := img.RGBAAt(tt.x, tt.y); got != tt.want {
			t.Errorf("pixel (%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrShortHeader},
		{"short header", header(1, 1, 32)[:10], ErrShortHeader},
		{"24 bit", append(header(1, 1, 24), 1, 2, 3), ErrUnsupportedDepth},
		{"8 bit", append(header(1, 1, 8), 1), ErrUnsupportedDepth},
		{"short pixels", append(header(2, 2, 32), 1, 2, 3, 4), ErrShortPixelData},
		{"oversized header", append(header(0xFFFF, 0xFFFF, 32), 1, 2, 3, 4), ErrShortPixelData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(bytes.NewReader(tt.data)); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEncodeDecode(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	for i := range img.Pix {
		img.Pix[i] = byte(i * 7)
	}
	var buf bytes.Buffer
	if err := Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	h, err := DecodeHeader(bytes.NewReader(buf.Bytes()))
	if err != nil || h.Width != 3 || h.Height != 2 {
		t.Fatalf("header = %+v, %v", h, err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got.Pix, img.Pix) {
		t.Errorf("pixels differ:\n got %v\nwant %v", got.Pix, img.Pix)
	}
}
