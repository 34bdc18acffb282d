// Package vertex defines the per-vertex record formats the shader programs
// consume and their input layouts.
package vertex

import (
	"fmt"
	"unsafe"

	"framekit/internal/gpu"
)

// Kind selects a vertex record format.
type Kind int

const (
	KindColor Kind = iota
	KindTexture
	KindLight
)

func (k Kind) String() string {
	switch k {
	case KindColor:
		return "color"
	case KindTexture:
		return "texture"
	case KindLight:
		return "light"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Color is a position with a per-vertex RGBA color.
type Color struct {
	Position [3]float32
	Color    [4]float32
}

// Texture is a position with a texture coordinate.
type Texture struct {
	Position [3]float32
	UV       [2]float32
}

// Light is a position, texture coordinate and surface normal.
type Light struct {
	Position [3]float32
	UV       [2]float32
	Normal   [3]float32
}

var layouts = map[Kind][]gpu.InputElement{
	KindColor: {
		{Semantic: "POSITION", Format: gpu.FormatRGB32Float, Offset: 0},
		{Semantic: "COLOR", Format: gpu.FormatRGBA32Float, Offset: gpu.AppendAligned},
	},
	KindTexture: {
		{Semantic: "POSITION", Format: gpu.FormatRGB32Float, Offset: 0},
		{Semantic: "TEXCOORD", Format: gpu.FormatRG32Float, Offset: gpu.AppendAligned},
	},
	KindLight: {
		{Semantic: "POSITION", Format: gpu.FormatRGB32Float, Offset: 0},
		{Semantic: "TEXCOORD", Format: gpu.FormatRG32Float, Offset: gpu.AppendAligned},
		{Semantic: "NORMAL", Format: gpu.FormatRGB32Float, Offset: gpu.AppendAligned},
	},
}

// Layout returns a copy of the input layout for k.
func Layout(k Kind) []gpu.InputElement {
	return append([]gpu.InputElement(nil), layouts[k]...)
}

// Stride returns the size of one record of kind k.
func Stride(k Kind) uint32 {
	switch k {
	case KindColor:
		return uint32(unsafe.Sizeof(Color{}))
	case KindTexture:
		return uint32(unsafe.Sizeof(Texture{}))
	case KindLight:
		return uint32(unsafe.Sizeof(Light{}))
	}
	return 0
}

// Point is a vertex in the format-neutral form loaders produce. Build turns
// points into records of a concrete kind, dropping attributes the kind has
// no room for.
type Point struct {
	Position [3]float32
	UV       [2]float32
	Normal   [3]float32
	Color    [4]float32
}

// Build encodes points as kind records and returns the bytes.
func Build(k Kind, points []Point) ([]byte, error) {
	switch k {
	case KindColor:
		out := make([]Color, len(points))
		for i, p := range points {
			out[i] = Color{Position: p.Position, Color: p.Color}
		}
		return gpu.Bytes(out), nil
	case KindTexture:
		out := make([]Texture, len(points))
		for i, p := range points {
			out[i] = Texture{Position: p.Position, UV: p.UV}
		}
		return gpu.Bytes(out), nil
	case KindLight:
		out := make([]Light, len(points))
		for i, p := range points {
			out[i] = Light{Position: p.Position, UV: p.UV, Normal: p.Normal}
		}
		return gpu.Bytes(out), nil
	}
	return nil, fmt.Errorf("vertex: unknown kind %v", k)
}

// Triangle returns the built-in triangle: bottom-left, top-middle,
// bottom-right, wound clockwise when viewed from -Z. Every vertex is green,
// faces the camera and carries the matching texture coordinate.
func Triangle() []Point {
	green := [4]float32{0, 1, 0, 1}
	normal := [3]float32{0, 0, -1}
	return []Point{
		{Position: [3]float32{-1, -1, 0}, UV: [2]float32{0, 1}, Normal: normal, Color: green},
		{Position: [3]float32{0, 1, 0}, UV: [2]float32{0.5, 0}, Normal: normal, Color: green},
		{Position: [3]float32{1, -1, 0}, UV: [2]float32{1, 1}, Normal: normal, Color: green},
	}
}
