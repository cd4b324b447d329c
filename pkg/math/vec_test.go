package math

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVec2(t *testing.T) {
	a, b := Vec2{1, 2}, Vec2{3, 4}
	assert.Equal(t, Vec2{4, 6}, a.Add(b))
	assert.Equal(t, Vec2{3, 8}, a.Mul(b))
	assert.Equal(t, Vec2{2, 3}, a.Lerp(b, 0.5))
	assert.Equal(t, Vec2{1, 2}, a.Min(b))
	assert.Equal(t, Vec2{3, 4}, a.Max(b))
	assert.Equal(t, float32(11), a.Dot(b))
	assert.Equal(t, float32(5), b.Length())
	assert.InDelta(t, 1, b.Normalize().Length(), 1e-6)
	assert.Equal(t, Vec2{}, Vec2{}.Normalize())
}

func TestVec3(t *testing.T) {
	x, y := Vec3{X: 1}, Vec3{Y: 1}
	assert.Equal(t, Vec3{Z: 1}, x.Cross(y))
	assert.Equal(t, Vec3{}, Vec3{}.Normalize())
	assert.True(t, Vec3{0, 3, 4}.Normalize().Equals(Vec3{0, 0.6, 0.8}, 1e-6))
	assert.Equal(t, Vec4{1, 0, 0, 2}, x.Vec4(2))
}

func TestVec4Project(t *testing.T) {
	assert.Equal(t, Vec3{1, 2, 3}, Vec4{2, 4, 6, 2}.Project())
}
