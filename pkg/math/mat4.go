package math

import "github.com/go-gl/mathgl/mgl32"

// Mat4 is a 4x4 matrix in column-major order, the layout OpenGL and
// mgl32.Mat4 use. Element i*4+j is row j of column i.
type Mat4 [16]float32

func (v Vec3) gl() mgl32.Vec3 { return mgl32.Vec3{v.X, v.Y, v.Z} }

// Identity returns an identity matrix.
func Identity() Mat4 { return Mat4(mgl32.Ident4()) }

// Perspective returns a perspective projection. fovY is in radians.
func Perspective(fovY, aspect, near, far float32) Mat4 {
	return Mat4(mgl32.Perspective(fovY, aspect, near, far))
}

// Ortho returns an orthographic projection.
func Ortho(left, right, bottom, top, near, far float32) Mat4 {
	return Mat4(mgl32.Ortho(left, right, bottom, top, near, far))
}

// LookAt returns a view matrix looking from eye to center.
func LookAt(eye, center, up Vec3) Mat4 {
	return Mat4(mgl32.LookAtV(eye.gl(), center.gl(), up.gl()))
}

// Translate returns a translation matrix.
func Translate(x, y, z float32) Mat4 { return Mat4(mgl32.Translate3D(x, y, z)) }

// Scale returns a scale matrix.
func Scale(x, y, z float32) Mat4 { return Mat4(mgl32.Scale3D(x, y, z)) }

// Rotate returns a rotation of angle radians about axis.
func Rotate(angle float32, axis Vec3) Mat4 {
	return Mat4(mgl32.HomogRotate3D(angle, axis.Normalize().gl()))
}

// Mul returns m * other.
func (m Mat4) Mul(other Mat4) Mat4 { return Mat4(mgl32.Mat4(m).Mul4(mgl32.Mat4(other))) }

// MulVec4 returns m * v.
func (m Mat4) MulVec4(v Vec4) Vec4 { return Vec4(mgl32.Mat4(m).Mul4x1(mgl32.Vec4(v))) }

// TransformPoint transforms p with w = 1 and divides by the resulting w.
func (m Mat4) TransformPoint(p Vec3) Vec3 {
	return m.MulVec4(p.Vec4(1)).Project()
}

// TransformDirection transforms d ignoring translation.
func (m Mat4) TransformDirection(d Vec3) Vec3 {
	return Vec3{
		m[0]*d.X + m[4]*d.Y + m[8]*d.Z,
		m[1]*d.X + m[5]*d.Y + m[9]*d.Z,
		m[2]*d.X + m[6]*d.Y + m[10]*d.Z,
	}
}

// Transpose returns the transposed matrix.
func (m Mat4) Transpose() Mat4 { return Mat4(mgl32.Mat4(m).Transpose()) }

// IsIdentity reports whether m is exactly the identity matrix.
func (m Mat4) IsIdentity() bool { return m == Identity() }

// Ptr returns a pointer to the first element for OpenGL calls.
func (m *Mat4) Ptr() *float32 { return &m[0] }

// Inverse returns the inverse of m, or the identity when m is singular.
func (m Mat4) Inverse() Mat4 {
	g := mgl32.Mat4(m)
	if g.Det() == 0 {
		return Identity()
	}
	return Mat4(g.Inv())
}
