// Package bump renders shapes with a normal map lit per pixel by every
// active light.
package bump

import (
	"github.com/Faultbox/shapekit/internal/engine/cache"
	"github.com/Faultbox/shapekit/internal/engine/lighting"
	"github.com/Faultbox/shapekit/pkg/math"
)

// CalcTangentSpace fills the S and T tangents of every cached vertex from
// the triangle edges and their bump coordinate deltas. Tangents of shared
// vertices are averaged.
func CalcTangentSpace(c *cache.PrimitiveVertexCache) {
	n := len(c.Vertices)
	c.STangents = make([]math.Vec3, n)
	c.TTangents = make([]math.Vec3, n)
	idx := c.Triangles
	if len(idx) == 0 {
		return
	}
	v, bc := c.Vertices, c.BumpCoords
	for i := 0; i+2 < len(idx); i += 3 {
		i0, i1, i2 := idx[i], idx[i+1], idx[i+2]
		side0 := v[i1].Sub(v[i0])
		side1 := v[i2].Sub(v[i0])

		dt0 := bc[i1].Y - bc[i0].Y
		dt1 := bc[i2].Y - bc[i0].Y
		s := side0.Scale(dt1).Sub(side1.Scale(dt0)).Normalize()

		ds0 := bc[i1].X - bc[i0].X
		ds1 := bc[i2].X - bc[i0].X
		t := side0.Scale(ds1).Sub(side1.Scale(ds0)).Normalize()

		for _, j := range [3]uint32{i0, i1, i2} {
			c.STangents[j] = c.STangents[j].Add(s)
			c.TTangents[j] = c.TTangents[j].Add(t)
		}
	}
	for i := range c.STangents {
		c.STangents[i] = c.STangents[i].Normalize()
		c.TTangents[i] = c.TTangents[i].Normalize()
	}
}

// TangentLightVectors returns, per vertex, the light vector in tangent
// space (S, T, normal), packed as texture coordinates for the cube map.
func TangentLightVectors(c *cache.PrimitiveVertexCache, light lighting.Source) []math.Vec4 {
	out := make([]math.Vec4, len(c.Vertices))
	for i, p := range c.Vertices {
		l := light.VectorAt(p)
		var s, t math.Vec3
		if i < len(c.STangents) {
			s, t = c.STangents[i], c.TTangents[i]
		}
		out[i] = math.Vec4{s.Dot(l), t.Dot(l), c.Normals[i].Dot(l), 1}
	}
	return out
}
