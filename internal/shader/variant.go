package shader

import (
	"fmt"
	"strings"

	"framekit/internal/vertex"
)

// Variant selects one of the shader programs.
type Variant int

const (
	Color Variant = iota
	Texture
	Light
)

type variantInfo struct {
	name     string
	prefix   string
	vertex   vertex.Kind
	textured bool
	lit      bool
}

var variants = [...]variantInfo{
	Color:   {name: "color", prefix: "Color", vertex: vertex.KindColor},
	Texture: {name: "texture", prefix: "Texture", vertex: vertex.KindTexture, textured: true},
	Light:   {name: "light", prefix: "Light", vertex: vertex.KindLight, textured: true, lit: true},
}

func (v Variant) valid() bool { return v >= 0 && int(v) < len(variants) }

func (v Variant) String() string {
	if !v.valid() {
		return fmt.Sprintf("Variant(%d)", int(v))
	}
	return variants[v].name
}

// ParseVariant accepts "color", "texture" or "light" in any case.
func ParseVariant(s string) (Variant, error) {
	for i, info := range variants {
		if strings.EqualFold(s, info.name) {
			return Variant(i), nil
		}
	}
	return 0, fmt.Errorf("shader: unknown variant %q", s)
}

// VertexKind is the vertex record format the variant consumes.
func (v Variant) VertexKind() vertex.Kind { return variants[v].vertex }

// Textured reports whether the variant samples a texture.
func (v Variant) Textured() bool { return variants[v].textured }

// Lit reports whether the variant takes light parameters.
func (v Variant) Lit() bool { return variants[v].lit }

// VertexEntry is the vertex stage entry point, e.g. LightVertexShader.
func (v Variant) VertexEntry() string { return variants[v].prefix + "VertexShader" }

// PixelEntry is the pixel stage entry point, e.g. LightPixelShader.
func (v Variant) PixelEntry() string { return variants[v].prefix + "PixelShader" }

// VertexFile is the vertex stage source file, e.g. light.vs.wgsl.
func (v Variant) VertexFile() string { return variants[v].name + ".vs.wgsl" }

// PixelFile is the pixel stage source file, e.g. light.ps.wgsl.
func (v Variant) PixelFile() string { return variants[v].name + ".ps.wgsl" }
