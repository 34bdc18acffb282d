// Package tga decodes uncompressed 32-bit Targa images.
//
// Only the subset the renderer ships with is supported: an 18-byte header
// with no image ID or color map, followed by width*height BGRA pixels stored
// bottom row first.
package tga

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
)

// HeaderSize is the size of the fixed file header.
const HeaderSize = 18

var (
	ErrShortHeader      = errors.New("tga: short header")
	ErrUnsupportedDepth = errors.New("tga: only 32 bits per pixel is supported")
	ErrShortPixelData   = errors.New("tga: short pixel data")
)

// Header is the fixed part of the file header the decoder reads.
type Header struct {
	Width      uint16
	Height     uint16
	BPP        uint8
	Descriptor uint8
}

func parseHeader(b []byte) Header {
	return Header{
		Width:      binary.LittleEndian.Uint16(b[12:14]),
		Height:     binary.LittleEndian.Uint16(b[14:16]),
		BPP:        b[16],
		Descriptor: b[17],
	}
}

// DecodeHeader reads just the header.
func DecodeHeader(r io.Reader) (Header, error) {
	var b [HeaderSize]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return Header{}, fmt.Errorf("%w: %v", ErrShortHeader, err)
	}
	h := parseHeader(b[:])
	if h.BPP != 32 {
		return h, fmt.Errorf("%w: got %d", ErrUnsupportedDepth, h.BPP)
	}
	return h, nil
}

// Decode reads a 32-bit image and returns it top row first in RGBA order.
func Decode(r io.Reader) (*image.RGBA, error) {
	h, err := DecodeHeader(r)
	if err != nil {
		return nil, err
	}
	w, ht := int(h.Width), int(h.Height)
	need := w * ht * 4
	// The header is untrusted; never allocate more than the reader holds.
	src, err := io.ReadAll(io.LimitReader(r, int64(need)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShortPixelData, err)
	}
	if len(src) < need {
		return nil, fmt.Errorf("%w: read %d of %d bytes", ErrShortPixelData, len(src), need)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, ht))
	for y := 0; y < ht; y++ {
		// Source rows run bottom to top.
		s := src[(ht-1-y)*w*4:]
		d := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			i := x * 4
			d[i+0] = s[i+2]
			d[i+1] = s[i+1]
			d[i+2] = s[i+0]
			d[i+3] = s[i+3]
		}
	}
	return img, nil
}

// Encode writes img as a 32-bit bottom-up BGRA Targa file.
func Encode(w io.Writer, img *image.RGBA) error {
	b := img.Bounds()
	if b.Dx() > 0xFFFF || b.Dy() > 0xFFFF {
		return fmt.Errorf("tga: image %dx%d too large", b.Dx(), b.Dy())
	}
	var hdr [HeaderSize]byte
	hdr[2] = 2 // uncompressed true color
	binary.LittleEndian.PutUint16(hdr[12:], uint16(b.Dx()))
	binary.LittleEndian.PutUint16(hdr[14:], uint16(b.Dy()))
	hdr[16] = 32
	hdr[17] = 8 // alpha bits
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	row := make([]byte, b.Dx()*4)
	for y := b.Max.Y - 1; y >= b.Min.Y; y-- {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.RGBAAt(x, y)
			i := (x - b.Min.X) * 4
			row[i+0], row[i+1], row[i+2], row[i+3] = c.B, c.G, c.R, c.A
		}
		if _, err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
