// Package xmath holds the left-handed, row-vector matrix helpers the renderer
// uses on the CPU side. A point is transformed as v·M, so matrices compose
// left to right (world·view·projection). Element (r, c) of every matrix here
// is At(r, c) of the mgl32.Mat4.
//
// Shaders multiply column vectors, so matrices are transposed before upload.
package xmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// PerspectiveFovLH builds a left-handed perspective projection that maps
// view depth near..far onto 0..1.
func PerspectiveFovLH(fovY, aspect, near, far float32) mgl32.Mat4 {
	h := float32(1 / math.Tan(float64(fovY)/2))
	w := h / aspect
	r := far / (far - near)
	return mgl32.Mat4FromRows(
		mgl32.Vec4{w, 0, 0, 0},
		mgl32.Vec4{0, h, 0, 0},
		mgl32.Vec4{0, 0, r, 1},
		mgl32.Vec4{0, 0, -r * near, 0},
	)
}

// OrthographicLH builds a left-handed orthographic projection of a w x h
// volume centred on the view axis.
func OrthographicLH(w, h, near, far float32) mgl32.Mat4 {
	r := 1 / (far - near)
	return mgl32.Mat4FromRows(
		mgl32.Vec4{2 / w, 0, 0, 0},
		mgl32.Vec4{0, 2 / h, 0, 0},
		mgl32.Vec4{0, 0, r, 0},
		mgl32.Vec4{0, 0, -r * near, 1},
	)
}

// LookAtLH builds a left-handed view matrix.
func LookAtLH(eye, at, up mgl32.Vec3) mgl32.Mat4 {
	z := at.Sub(eye).Normalize()
	x := up.Cross(z).Normalize()
	y := z.Cross(x)
	return mgl32.Mat4FromRows(
		mgl32.Vec4{x[0], y[0], z[0], 0},
		mgl32.Vec4{x[1], y[1], z[1], 0},
		mgl32.Vec4{x[2], y[2], z[2], 0},
		mgl32.Vec4{-x.Dot(eye), -y.Dot(eye), -z.Dot(eye), 1},
	)
}

// RotationX rotates about the X axis by angle radians.
func RotationX(angle float32) mgl32.Mat4 {
	s, c := sincos(angle)
	return mgl32.Mat4FromRows(
		mgl32.Vec4{1, 0, 0, 0},
		mgl32.Vec4{0, c, s, 0},
		mgl32.Vec4{0, -s, c, 0},
		mgl32.Vec4{0, 0, 0, 1},
	)
}

// RotationY rotates about the Y axis by angle radians.
func RotationY(angle float32) mgl32.Mat4 {
	s, c := sincos(angle)
	return mgl32.Mat4FromRows(
		mgl32.Vec4{c, 0, -s, 0},
		mgl32.Vec4{0, 1, 0, 0},
		mgl32.Vec4{s, 0, c, 0},
		mgl32.Vec4{0, 0, 0, 1},
	)
}

// RotationZ rotates about the Z axis by angle radians.
func RotationZ(angle float32) mgl32.Mat4 {
	s, c := sincos(angle)
	return mgl32.Mat4FromRows(
		mgl32.Vec4{c, s, 0, 0},
		mgl32.Vec4{-s, c, 0, 0},
		mgl32.Vec4{0, 0, 1, 0},
		mgl32.Vec4{0, 0, 0, 1},
	)
}

// RotationRollPitchYaw applies roll about Z, then pitch about X, then yaw
// about Y. Angles are in radians.
func RotationRollPitchYaw(pitch, yaw, roll float32) mgl32.Mat4 {
	return RotationZ(roll).Mul4(RotationX(pitch)).Mul4(RotationY(yaw))
}

// TransformCoord transforms the point v by m and projects the result back
// to w = 1.
func TransformCoord(v mgl32.Vec3, m mgl32.Mat4) mgl32.Vec3 {
	var out [4]float32
	for c := 0; c < 4; c++ {
		out[c] = v[0]*m.At(0, c) + v[1]*m.At(1, c) + v[2]*m.At(2, c) + m.At(3, c)
	}
	if out[3] != 0 && out[3] != 1 {
		return mgl32.Vec3{out[0] / out[3], out[1] / out[3], out[2] / out[3]}
	}
	return mgl32.Vec3{out[0], out[1], out[2]}
}

// TransformNormal transforms the direction v by the upper 3x3 of m.
func TransformNormal(v mgl32.Vec3, m mgl32.Mat4) mgl32.Vec3 {
	var out mgl32.Vec3
	for c := 0; c < 3; c++ {
		out[c] = v[0]*m.At(0, c) + v[1]*m.At(1, c) + v[2]*m.At(2, c)
	}
	return out
}

// Translation moves points by t.
func Translation(t mgl32.Vec3) mgl32.Mat4 {
	m := mgl32.Ident4()
	m.Set(3, 0, t[0])
	m.Set(3, 1, t[1])
	m.Set(3, 2, t[2])
	return m
}

func sincos(a float32) (float32, float32) {
	s, c := math.Sincos(float64(a))
	return float32(s), float32(c)
}
