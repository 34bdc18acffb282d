// Package texture uploads decoded images as sampled GPU textures with a full
// mip chain.
package texture

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"io/fs"

	"golang.org/x/image/draw"

	"framekit/internal/gpu"
	"framekit/internal/logging"
	"framekit/pkg/tga"
)

// Texture owns a GPU texture and the shader-resource view over it.
type Texture struct {
	tex  gpu.Texture
	view gpu.ShaderResourceView

	width, height uint32
}

// Load decodes a 32-bit Targa stream and uploads it.
func Load(dev gpu.Device, ctx gpu.Context, r io.Reader) (*Texture, error) {
	img, err := tga.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("texture: %w", err)
	}
	return FromImage(dev, ctx, img)
}

// LoadFile decodes and uploads the Targa file name from fsys.
func LoadFile(dev gpu.Device, ctx gpu.Context, fsys fs.FS, name string) (*Texture, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("texture: %w", err)
	}
	return Load(dev, ctx, bytes.NewReader(data))
}

// FromImage uploads img. Images that are not *image.RGBA with a zero origin
// are converted first.
func FromImage(dev gpu.Device, ctx gpu.Context, img image.Image) (*Texture, error) {
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) {
		b := img.Bounds()
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	w, h := uint32(rgba.Rect.Dx()), uint32(rgba.Rect.Dy())
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("texture: empty image")
	}

	t := &Texture{width: w, height: h}
	var err error
	t.tex, err = dev.CreateTexture(&gpu.TextureDescriptor{
		Label:        "texture",
		Width:        w,
		Height:       h,
		MipLevels:    0,
		Format:       gpu.FormatRGBA8Unorm,
		SampleCount:  1,
		Usage:        gpu.UsageDefault,
		Bind:         gpu.BindShaderResource | gpu.BindRenderTarget,
		GenerateMips: true,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("texture: create: %w", err)
	}

	ctx.UpdateTexture(t.tex, 0, rgba.Pix, uint32(rgba.Stride))

	t.view, err = dev.CreateShaderResourceView(t.tex)
	if err != nil {
		t.Release()
		return nil, fmt.Errorf("texture: view: %w", err)
	}
	ctx.GenerateMips(t.view)

	logging.Logger().Debug("texture uploaded", "width", w, "height", h, "mips", t.tex.Desc().MipLevels)
	return t, nil
}

func (t *Texture) Width() uint32  { return t.width }
func (t *Texture) Height() uint32 { return t.height }

// View returns the shader-resource view, nil after Release.
func (t *Texture) View() gpu.ShaderResourceView { return t.view }

// Release frees the view and then the texture. Safe to call more than once.
func (t *Texture) Release() {
	if t == nil {
		return
	}
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
	if t.tex != nil {
		t.tex.Release()
		t.tex = nil
	}
}
