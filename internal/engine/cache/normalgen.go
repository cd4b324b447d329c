package cache

import (
	"github.com/Faultbox/shapekit/pkg/math"
)

// NormalGenerator builds normals for shapes without index arrays. Polygons
// are fed vertex by vertex; identical points are merged so faces that share
// a position can be smoothed across.
type NormalGenerator struct {
	ccw bool

	points     []math.Vec3
	pointIndex map[math.Vec3]int

	vertexList []int // point index per fed vertex
	vertexFace []int // face per fed vertex
	faces      []math.Vec3
	faceStart  int

	vertexNormals []math.Vec3
	perVertex     bool
}

// NewNormalGenerator returns a generator. approx sizes the internal buffers.
func NewNormalGenerator(ccw bool, approx int) *NormalGenerator {
	return &NormalGenerator{
		ccw:        ccw,
		pointIndex: make(map[math.Vec3]int, approx),
		vertexList: make([]int, 0, approx),
		vertexFace: make([]int, 0, approx),
		faces:      make([]math.Vec3, 0, approx/4+1),
		perVertex:  true,
	}
}

// Reset clears the generator for reuse.
func (g *NormalGenerator) Reset(ccw bool) {
	g.ccw = ccw
	g.points = g.points[:0]
	clear(g.pointIndex)
	g.vertexList = g.vertexList[:0]
	g.vertexFace = g.vertexFace[:0]
	g.faces = g.faces[:0]
	g.vertexNormals = g.vertexNormals[:0]
	g.perVertex = true
}

// BeginPolygon starts a new face.
func (g *NormalGenerator) BeginPolygon() {
	g.faceStart = len(g.vertexList)
}

// PolygonVertex adds a vertex to the current face.
func (g *NormalGenerator) PolygonVertex(v math.Vec3) {
	idx, ok := g.pointIndex[v]
	if !ok {
		idx = len(g.points)
		g.points = append(g.points, v)
		g.pointIndex[v] = idx
	}
	g.vertexList = append(g.vertexList, idx)
	g.vertexFace = append(g.vertexFace, len(g.faces))
}

// EndPolygon closes the current face and computes its normal.
func (g *NormalGenerator) EndPolygon() {
	g.faces = append(g.faces, g.faceNormal())
}

// Triangle adds a triangle face.
func (g *NormalGenerator) Triangle(v0, v1, v2 math.Vec3) {
	g.BeginPolygon()
	g.PolygonVertex(v0)
	g.PolygonVertex(v1)
	g.PolygonVertex(v2)
	g.EndPolygon()
}

// Quad adds a quad face.
func (g *NormalGenerator) Quad(v0, v1, v2, v3 math.Vec3) {
	g.BeginPolygon()
	g.PolygonVertex(v0)
	g.PolygonVertex(v1)
	g.PolygonVertex(v2)
	g.PolygonVertex(v3)
	g.EndPolygon()
}

func (g *NormalGenerator) faceNormal() math.Vec3 {
	idx := g.vertexList[g.faceStart:]
	if len(idx) < 3 {
		return math.Vec3{}
	}
	if len(idx) == 3 {
		return triangleNormal(g.points[idx[0]], g.points[idx[1]], g.points[idx[2]], g.ccw).Normalize()
	}
	poly := make([]math.Vec3, len(idx))
	for i, p := range idx {
		poly[i] = g.points[p]
	}
	n := newell(poly).Normalize()
	if !g.ccw {
		n = n.Neg()
	}
	return n
}

// Generate computes one smoothed normal per fed vertex using crease. For
// triangle strips, stripLens gives the vertex count of each strip; each
// strip was fed as one triangle per strip step and the result has one
// normal per strip vertex.
func (g *NormalGenerator) Generate(crease float32, stripLens []int) {
	incident := make([][]int, len(g.points))
	for i, p := range g.vertexList {
		incident[p] = append(incident[p], g.vertexFace[i])
	}
	threshold := creaseThreshold(crease)
	normalAt := func(i int) math.Vec3 {
		return vertexNormal(g.faces, g.vertexFace[i], incident[g.vertexList[i]], threshold).Normalize()
	}
	g.vertexNormals = g.vertexNormals[:0]
	if stripLens != nil {
		i := 0
		for _, n := range stripLens {
			if n < 3 || i+2 >= len(g.vertexList) {
				continue
			}
			g.vertexNormals = append(g.vertexNormals, normalAt(i), normalAt(i+1))
			for k := 0; k < n-2; k++ {
				i += 2
				g.vertexNormals = append(g.vertexNormals, normalAt(i))
				i++
			}
		}
	} else {
		for i := range g.vertexList {
			g.vertexNormals = append(g.vertexNormals, normalAt(i))
		}
	}
	g.perVertex = true
}

// GeneratePerStrip replaces the face normals by one average per strip.
func (g *NormalGenerator) GeneratePerStrip(stripLens []int) {
	out := make([]math.Vec3, 0, len(stripLens))
	cnt := 0
	for _, n := range stripLens {
		var acc math.Vec3
		for k := 0; k < n-2 && cnt < len(g.faces); k++ {
			acc = acc.Add(g.faces[cnt])
			cnt++
		}
		out = append(out, acc.Normalize())
	}
	g.faces = out
	g.perVertex = false
}

// GeneratePerFace keeps one normal per face.
func (g *NormalGenerator) GeneratePerFace() {
	g.perVertex = false
}

// GenerateOverall reduces the face normals to their average.
func (g *NormalGenerator) GenerateOverall() {
	var acc math.Vec3
	for _, n := range g.faces {
		acc = acc.Add(n)
	}
	g.faces = []math.Vec3{acc.Normalize()}
	g.perVertex = false
}

// Normals returns the generated normals.
func (g *NormalGenerator) Normals() []math.Vec3 {
	var src []math.Vec3
	if g.perVertex {
		src = g.vertexNormals
	} else {
		src = g.faces
	}
	return append([]math.Vec3(nil), src...)
}
