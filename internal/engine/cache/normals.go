package cache

import (
	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/Faultbox/shapekit/internal/engine/state"
	"github.com/Faultbox/shapekit/internal/logger"
	"github.com/Faultbox/shapekit/pkg/math"
)

// normalEpsilon is the squared distance below which two generated normals
// are shared.
const normalEpsilon = 1.1920929e-07

// creaseSlack makes the crease test inclusive at the boundary.
const creaseSlack = 1e-6

// Normals is generated normal data. Indices is nil unless normals are
// addressed through a -1 separated index list.
type Normals struct {
	Normals []math.Vec3
	Indices []int
}

// NormalCache keeps generated normals for one shape.
type NormalCache struct {
	svc   *Service
	guard Guard
	data  Normals
}

// NewNormalCache returns an empty cache.
func NewNormalCache(svc *Service) *NormalCache {
	return &NormalCache{svc: svc}
}

// Get returns normals valid for s, running generate when the coordinates,
// shape hints or crease angle it read last time have changed. The caller
// must call the returned release function when done with the data.
func (c *NormalCache) Get(s *state.State, generate func(s *state.State) Normals) (Normals, func()) {
	ran := c.guard.Acquire(s, func() {
		c.data = generate(s)
	})
	if c.svc != nil {
		c.svc.record(!ran)
	}
	return c.data, c.guard.Release
}

// Invalidate drops the cached normals.
func (c *NormalCache) Invalidate() { c.guard.Invalidate() }

// IsValid reports whether the cached normals are valid for s.
func (c *NormalCache) IsValid(s *state.State) bool { return c.guard.IsValid(s) }

// creaseThreshold returns the smallest face normal dot product that is still
// smoothed across.
func creaseThreshold(crease float32) float32 {
	if crease < 0 {
		crease = 0
	}
	if crease > math32.Pi {
		crease = math32.Pi
	}
	return math32.Cos(crease) - creaseSlack
}

// vertexNormal sums the normal of face with every other incident face whose
// normal is within the crease threshold.
func vertexNormal(faces []math.Vec3, face int, incident []int, threshold float32) math.Vec3 {
	if face >= len(faces) {
		return math.Vec3{}
	}
	fn := faces[face]
	n := fn
	for _, other := range incident {
		if other == face {
			continue
		}
		if other >= len(faces) {
			logger.WarnOnce("normals.missingFace", "normals have not been specified for all faces")
			continue
		}
		if faces[other].Dot(fn) >= threshold {
			n = n.Add(faces[other])
		}
	}
	return n
}

func triangleNormal(c0, c1, c2 math.Vec3, ccw bool) math.Vec3 {
	if ccw {
		return c2.Sub(c1).Cross(c0.Sub(c1))
	}
	return c0.Sub(c1).Cross(c2.Sub(c1))
}

func validIndex(i, n int) bool { return i >= 0 && i < n }

// skipInvalid advances past the first invalid index of the three starting
// at i, mirroring how faces with bad indices are stepped over.
func skipInvalid(cind []int, i, n int) (int, bool) {
	switch {
	case !validIndex(cind[i], n):
		return i + 1, true
	case !validIndex(cind[i+1], n):
		return i + 2, true
	case i+3 < len(cind) && !validIndex(cind[i+2], n):
		return i + 3, true
	}
	return i + 3, false
}

// GeneratePerFace returns one normal per -1 terminated face of cind.
// Triangles use a cross product, larger polygons Newell's method. Faces with
// an invalid index among their first three get a zero normal.
func GeneratePerFace(coords []math.Vec3, cind []int, ccw bool) []math.Vec3 {
	out := make([]math.Vec3, 0, len(cind)/4+1)
	n := len(coords)
	i := 0
	for i+2 < len(cind) {
		v0, v1, v2 := cind[i], cind[i+1], cind[i+2]
		if !validIndex(v0, n) || !validIndex(v1, n) || !validIndex(v2, n) {
			logger.WarnOnce("normals.perFace.invalid", "polygon with less than three valid vertices",
				zap.Int("offset", i), zap.Int("max", n-1))
			out = append(out, math.Vec3{})
			// Skip the rest of the face so normals stay aligned with faces.
			for i < len(cind) && cind[i] >= 0 {
				i++
			}
			i++
			continue
		}
		if i+3 >= len(cind) || !validIndex(cind[i+3], n) {
			out = append(out, triangleNormal(coords[v0], coords[v1], coords[v2], ccw).Normalize())
			i += 4
			continue
		}
		var poly []math.Vec3
		for i < len(cind) && validIndex(cind[i], n) {
			poly = append(poly, coords[cind[i]])
			i++
		}
		nn := newell(poly).Normalize()
		if !ccw {
			nn = nn.Neg()
		}
		out = append(out, nn)
		i++
	}
	if i < len(cind) {
		logger.WarnOnce("normals.perFace.short", "face index list did not end with a valid polygon")
		out = append(out, math.Vec3{})
	}
	return out
}

func newell(pts []math.Vec3) math.Vec3 {
	var n math.Vec3
	for i := range pts {
		a := pts[i]
		b := pts[(i+1)%len(pts)]
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	return n
}

// stripNormals walks -1 separated strips and calls emit with every triangle
// normal (unnormalized) and the strip it belongs to.
func stripNormals(coords []math.Vec3, cind []int, ccw bool, emit func(strip int, n math.Vec3, first bool), bad func()) {
	n := len(coords)
	i := 0
	strip := 0
	for i+2 < len(cind) {
		if !validIndex(cind[i], n) || !validIndex(cind[i+1], n) || !validIndex(cind[i+2], n) {
			logger.WarnOnce("normals.strip.invalid", "erroneous coordinate index in strip",
				zap.Int("offset", i), zap.Int("max", n-1))
			bad()
			next, cont := skipInvalid(cind, i, n)
			i = next
			if !cont {
				break
			}
			continue
		}
		flip := ccw
		c0, c1, c2 := coords[cind[i]], coords[cind[i+1]], coords[cind[i+2]]
		i += 3
		emit(strip, triangleNormal(c0, c1, c2, flip), true)
		idx := -1
		if i < len(cind) {
			idx = cind[i]
			i++
		}
		for validIndex(idx, n) {
			c0, c1, c2 = c1, c2, coords[idx]
			flip = !flip
			emit(strip, triangleNormal(c0, c1, c2, flip), false)
			idx = -1
			if i < len(cind) {
				idx = cind[i]
				i++
			}
		}
		if idx >= n {
			logger.WarnOnce("normals.strip.range", "strip index out of bounds",
				zap.Int("index", idx), zap.Int("max", n-1))
		}
		strip++
	}
	if i < len(cind) {
		logger.WarnOnce("normals.strip.short", "strip did not end with a valid polygon")
		bad()
	}
}

// GeneratePerFaceStrip returns one normal per triangle of -1 separated
// triangle strips, alternating winding like the strip does.
func GeneratePerFaceStrip(coords []math.Vec3, cind []int, ccw bool) []math.Vec3 {
	var out []math.Vec3
	stripNormals(coords, cind, ccw,
		func(_ int, n math.Vec3, _ bool) { out = append(out, n.Normalize()) },
		func() { out = append(out, math.Vec3{}) })
	return out
}

// GeneratePerStrip returns one averaged normal per -1 separated strip.
func GeneratePerStrip(coords []math.Vec3, cind []int, ccw bool) []math.Vec3 {
	var out []math.Vec3
	var acc math.Vec3
	open := false
	flush := func() {
		if open {
			out = append(out, acc.Normalize())
		}
		acc, open = math.Vec3{}, false
	}
	stripNormals(coords, cind, ccw,
		func(_ int, n math.Vec3, first bool) {
			if first {
				flush()
				open = true
			}
			acc = acc.Add(n)
		},
		func() {
			flush()
			out = append(out, math.Vec3{})
		})
	flush()
	return out
}

// GeneratePerVertex returns smoothed vertex normals for -1 separated faces
// (or strips when tristrip is set) together with the index list that maps
// every entry of vindex to a normal. Equal normals at a vertex are shared.
// faceNormals may be nil, in which case they are generated first.
func GeneratePerVertex(coords []math.Vec3, vindex []int, crease float32, faceNormals []math.Vec3, ccw, tristrip bool) Normals {
	if faceNormals == nil {
		if tristrip {
			faceNormals = GeneratePerFaceStrip(coords, vindex, ccw)
		} else {
			faceNormals = GeneratePerFace(coords, vindex, ccw)
		}
	}
	n := len(coords)
	vertexFaces := make([][]int, n)
	numFaces := 0
	if tristrip {
		i := 0
		for i+2 < len(vindex) {
			if !validIndex(vindex[i], n) {
				i++
				numFaces++
				continue
			}
			vertexFaces[vindex[i]] = append(vertexFaces[vindex[i]], numFaces)
			if !validIndex(vindex[i+1], n) {
				i += 2
				numFaces++
				continue
			}
			vertexFaces[vindex[i+1]] = append(vertexFaces[vindex[i+1]], numFaces)
			if !validIndex(vindex[i+2], n) {
				i += 3
				numFaces++
				continue
			}
			vertexFaces[vindex[i+2]] = append(vertexFaces[vindex[i+2]], numFaces)
			next := -1
			if i+3 < len(vindex) {
				next = vindex[i+3]
			}
			if !validIndex(next, n) {
				i += 4
				numFaces++
				continue
			}
			i++
			numFaces++
		}
	} else {
		for _, v := range vindex {
			if validIndex(v, n) {
				vertexFaces[v] = append(vertexFaces[v], numFaces)
			} else {
				numFaces++
			}
		}
	}

	threshold := creaseThreshold(crease)
	vertexNormals := make([][]int, n)
	out := Normals{Indices: make([]int, 0, len(vindex))}
	face := 0
	stripCount := 0
	for _, v := range vindex {
		if !validIndex(v, n) {
			face++
			stripCount = 0
			out.Indices = append(out.Indices, -1)
			continue
		}
		if tristrip {
			stripCount++
			if stripCount > 3 {
				face++
			}
		}
		nv := vertexNormal(faceNormals, face, vertexFaces[v], threshold).Normalize()
		shared := -1
		for _, j := range vertexNormals[v] {
			if out.Normals[j].Sub(nv).SqrLength() <= normalEpsilon {
				shared = j
				break
			}
		}
		last := len(out.Normals) - 1
		switch {
		case shared >= 0:
			out.Indices = append(out.Indices, shared)
		case last >= 0 && out.Normals[last].Sub(nv).SqrLength() <= normalEpsilon:
			out.Indices = append(out.Indices, last)
		default:
			out.Normals = append(out.Normals, nv)
			out.Indices = append(out.Indices, len(out.Normals)-1)
			vertexNormals[v] = append(vertexNormals[v], len(out.Normals)-1)
		}
	}
	return out
}

func checkQuadDimensions(name string, perRow, perColumn, numCoords int) {
	if perRow <= 1 || perColumn <= 1 || perRow*perColumn > numCoords {
		logger.WarnOnce("normals."+name+".dimension", "illegal quad mesh dimension",
			zap.Int("verticesPerRow", perRow), zap.Int("verticesPerColumn", perColumn),
			zap.Int("coordinates", numCoords))
	}
}

func quadFaceNormal(coords []math.Vec3, perRow, i, j int) (math.Vec3, bool) {
	idx1 := i*perRow + j
	idx2 := (i+1)*perRow + j
	idx3 := i*perRow + j + 1
	if idx2 >= len(coords) {
		return math.Vec3{}, false
	}
	return coords[idx2].Sub(coords[idx1]).Cross(coords[idx3].Sub(coords[idx1])), true
}

// GeneratePerFaceQuad returns one normal per quad of a row-major grid. With
// counterclockwise ordering the normal faces the side from which the quad
// strip triangles (i,j) (i+1,j) (i+1,j+1) appear counterclockwise.
func GeneratePerFaceQuad(coords []math.Vec3, perRow, perColumn int, ccw bool) []math.Vec3 {
	checkQuadDimensions("perFaceQuad", perRow, perColumn, len(coords))
	if perRow < 2 || perColumn < 2 {
		return nil
	}
	out := make([]math.Vec3, 0, (perRow-1)*(perColumn-1))
	for i := 0; i < perColumn-1; i++ {
		for j := 0; j < perRow-1; j++ {
			n, _ := quadFaceNormal(coords, perRow, i, j)
			n = n.Normalize()
			if !ccw {
				n = n.Neg()
			}
			out = append(out, n)
		}
	}
	return out
}

// GeneratePerRowQuad returns one averaged normal per row of quads.
func GeneratePerRowQuad(coords []math.Vec3, perRow, perColumn int, ccw bool) []math.Vec3 {
	checkQuadDimensions("perRowQuad", perRow, perColumn, len(coords))
	if perColumn < 2 {
		return nil
	}
	out := make([]math.Vec3, 0, perColumn-1)
	for i := 0; i < perColumn-1; i++ {
		var acc math.Vec3
		for j := 0; j < perRow-1; j++ {
			if n, ok := quadFaceNormal(coords, perRow, i, j); ok {
				acc = acc.Add(n)
			}
		}
		acc = acc.Normalize()
		if !ccw {
			acc = acc.Neg()
		}
		out = append(out, acc)
	}
	return out
}

// GeneratePerVertexQuad returns one normal per grid vertex, averaging the
// normals of the up to four quads around it.
func GeneratePerVertexQuad(coords []math.Vec3, perRow, perColumn int, ccw bool) []math.Vec3 {
	faces := GeneratePerFaceQuad(coords, perRow, perColumn, true)
	if faces == nil {
		return nil
	}
	idx := func(r, c int) int { return r*(perRow-1) + c }
	out := make([]math.Vec3, 0, perRow*perColumn)
	for i := 0; i < perColumn; i++ {
		for j := 0; j < perRow; j++ {
			var n math.Vec3
			if i < perColumn-1 && j < perRow-1 {
				n = n.Add(faces[idx(i, j)])
			}
			if i > 0 && j < perRow-1 {
				n = n.Add(faces[idx(i-1, j)])
			}
			if i > 0 && j > 0 {
				n = n.Add(faces[idx(i-1, j-1)])
			}
			if j > 0 && i < perColumn-1 {
				n = n.Add(faces[idx(i, j-1)])
			}
			n = n.Normalize()
			if !ccw {
				n = n.Neg()
			}
			out = append(out, n)
		}
	}
	return out
}
