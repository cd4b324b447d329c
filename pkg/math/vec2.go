// Package math provides the float32 vector, matrix, box and plane types shared by the renderer.
package math

import "github.com/chewxy/math32"

// Vec2 is a 2D vector, used for texture coordinates and surface
// parameters.
type Vec2 struct {
	X, Y float32
}

func (v Vec2) Add(o Vec2) Vec2             { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2             { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(s float32) Vec2        { return Vec2{v.X * s, v.Y * s} }
func (v Vec2) Mul(o Vec2) Vec2             { return Vec2{v.X * o.X, v.Y * o.Y} }
func (v Vec2) Dot(o Vec2) float32          { return v.X*o.X + v.Y*o.Y }
func (v Vec2) Length() float32             { return math32.Hypot(v.X, v.Y) }
func (v Vec2) Min(o Vec2) Vec2             { return Vec2{min(v.X, o.X), min(v.Y, o.Y)} }
func (v Vec2) Max(o Vec2) Vec2             { return Vec2{max(v.X, o.X), max(v.Y, o.Y)} }
func (v Vec2) Lerp(o Vec2, t float32) Vec2 { return v.Add(o.Sub(v).Scale(t)) }

// Normalize returns v scaled to unit length, or the zero vector.
func (v Vec2) Normalize() Vec2 {
	if l := v.Length(); l != 0 {
		return v.Scale(1 / l)
	}
	return Vec2{}
}
