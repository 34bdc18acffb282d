package camera

import (
	"github.com/go-gl/mathgl/mgl32"

	"framekit/internal/xmath"
)

var (
	defaultUp   = mgl32.Vec3{0, 1, 0}
	defaultLook = mgl32.Vec3{0, 0, 1}
)

// Camera holds a viewer position and orientation and the view matrix
// derived from them.
type Camera struct {
	// Position in world space.
	Position mgl32.Vec3

	// Rotation as Euler angles in degrees: X is pitch, Y is yaw, Z is roll.
	Rotation mgl32.Vec3

	view mgl32.Mat4
}

// New creates a camera at position with the given rotation. The view matrix
// is computed right away.
func New(position, rotation mgl32.Vec3) *Camera {
	c := &Camera{Position: position, Rotation: rotation}
	c.Update()
	return c
}

// SetPosition moves the camera
func (c *Camera) SetPosition(x, y, z float32) {
	c.Position = mgl32.Vec3{x, y, z}
}

// SetRotation sets the Euler angles in degrees
func (c *Camera) SetRotation(x, y, z float32) {
	c.Rotation = mgl32.Vec3{x, y, z}
}

// Update rebuilds the view matrix. It must be called after any change to
// Position or Rotation before the matrix is read again.
func (c *Camera) Update() {
	pitch := mgl32.DegToRad(c.Rotation[0])
	yaw := mgl32.DegToRad(c.Rotation[1])
	roll := mgl32.DegToRad(c.Rotation[2])
	rot := xmath.RotationRollPitchYaw(pitch, yaw, roll)

	look := xmath.TransformCoord(defaultLook, rot)
	up := xmath.TransformCoord(defaultUp, rot)

	// Look at a point one unit in front of the camera.
	look = c.Position.Add(look)

	c.view = xmath.LookAtLH(c.Position, look, up)
}

// View returns the matrix computed by the last Update
func (c *Camera) View() mgl32.Mat4 {
	return c.view
}
