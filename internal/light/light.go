// Package light holds the directional light parameters.
package light

import "github.com/go-gl/mathgl/mgl32"

// Light is a directional light with a diffuse color.
type Light struct {
	DiffuseColor mgl32.Vec4
	Direction    mgl32.Vec3
}

func New(color mgl32.Vec4, direction mgl32.Vec3) Light {
	return Light{DiffuseColor: color, Direction: direction}
}

func (l *Light) SetDiffuseColor(r, g, b, a float32) {
	l.DiffuseColor = mgl32.Vec4{r, g, b, a}
}

func (l *Light) SetDirection(x, y, z float32) {
	l.Direction = mgl32.Vec3{x, y, z}
}
