package gpu

import (
	"image"

	"golang.org/x/image/draw"
)

// MipLevelCount returns the number of levels in a full chain for w x h.
func MipLevelCount(w, h uint32) uint32 {
	n := uint32(1)
	for w > 1 || h > 1 {
		w, h = max(w/2, 1), max(h/2, 1)
		n++
	}
	return n
}

// MipSize returns the dimensions of a level.
func MipSize(w, h, level uint32) (uint32, uint32) {
	for ; level > 0; level-- {
		w, h = max(w/2, 1), max(h/2, 1)
	}
	return max(w, 1), max(h, 1)
}

// ResolveMipLevels turns a descriptor's MipLevels (0 = full chain) into a
// concrete count.
func ResolveMipLevels(desc *TextureDescriptor) uint32 {
	full := MipLevelCount(desc.Width, desc.Height)
	if desc.MipLevels == 0 || desc.MipLevels > full {
		return full
	}
	return desc.MipLevels
}

// ImageFromPixels wraps tightly or loosely packed RGBA rows as an image.
func ImageFromPixels(w, h uint32, pix []byte, rowPitch uint32) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
	rowBytes := int(w) * 4
	for y := 0; y < int(h); y++ {
		src := pix[y*int(rowPitch):]
		if len(src) > rowBytes {
			src = src[:rowBytes]
		}
		copy(img.Pix[y*img.Stride:y*img.Stride+rowBytes], src)
	}
	return img
}

// GenerateMipChain downsamples base into levels 1..levels-1, each level
// filtered from the one above it.
func GenerateMipChain(base *image.RGBA, levels uint32) []*image.RGBA {
	if levels <= 1 {
		return nil
	}
	w, h := uint32(base.Bounds().Dx()), uint32(base.Bounds().Dy())
	chain := make([]*image.RGBA, 0, levels-1)
	prev := base
	for level := uint32(1); level < levels; level++ {
		mw, mh := MipSize(w, h, level)
		dst := image.NewRGBA(image.Rect(0, 0, int(mw), int(mh)))
		draw.BiLinear.Scale(dst, dst.Bounds(), prev, prev.Bounds(), draw.Src, nil)
		chain = append(chain, dst)
		prev = dst
	}
	return chain
}
