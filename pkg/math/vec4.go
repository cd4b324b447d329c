package math

// Vec4 is a 4-component vector, used for homogeneous points and texture coordinates.
type Vec4 [4]float32

// Add returns v + other.
func (v Vec4) Add(other Vec4) Vec4 {
	return Vec4{v[0] + other[0], v[1] + other[1], v[2] + other[2], v[3] + other[3]}
}

// Sub returns v - other.
func (v Vec4) Sub(other Vec4) Vec4 {
	return Vec4{v[0] - other[0], v[1] - other[1], v[2] - other[2], v[3] - other[3]}
}

// Scale returns v * s.
func (v Vec4) Scale(s float32) Vec4 {
	return Vec4{v[0] * s, v[1] * s, v[2] * s, v[3] * s}
}

// Lerp interpolates between v and other.
func (v Vec4) Lerp(other Vec4, t float32) Vec4 {
	return v.Add(other.Sub(v).Scale(t))
}

// XYZ returns the first three components without the homogeneous divide.
func (v Vec4) XYZ() Vec3 {
	return Vec3{v[0], v[1], v[2]}
}

// Project returns the 3D point v represents (divided by w when w is not 0 or 1).
func (v Vec4) Project() Vec3 {
	if v[3] != 0 && v[3] != 1 {
		inv := 1 / v[3]
		return Vec3{v[0] * inv, v[1] * inv, v[2] * inv}
	}
	return Vec3{v[0], v[1], v[2]}
}
