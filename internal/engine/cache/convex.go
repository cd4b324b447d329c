package cache

import (
	"github.com/Faultbox/shapekit/internal/engine/binding"
	"github.com/Faultbox/shapekit/internal/engine/state"
	"github.com/Faultbox/shapekit/internal/engine/tess"
	"github.com/Faultbox/shapekit/pkg/math"
)

// ConvexInput describes an indexed face set to split into triangles. Index
// slices may be nil, in which case attributes are numbered sequentially.
// An Overall binding means the attribute has no index output.
type ConvexInput struct {
	CoordIndex    []int
	MaterialIndex []int
	NormalIndex   []int
	TexCoordIndex []int

	Material binding.Binding
	Normal   binding.Binding
	// TexCoords reports whether texture coordinate indices are produced.
	TexCoords bool

	// Model, when not the identity, is applied to points before
	// tessellation so planarity is judged in the same space as rendering.
	Model math.Mat4
}

// ConvexData is a face set rewritten as -1 terminated triangles. Per-face
// bindings keep one index per triangle, per-vertex bindings one index per
// corner followed by -1.
type ConvexData struct {
	CoordIndex    []int
	MaterialIndex []int
	NormalIndex   []int
	TexCoordIndex []int
}

// Triangles returns the number of triangles.
func (d ConvexData) Triangles() int { return len(d.CoordIndex) / 4 }

// ConvexCache keeps the convex decomposition of one face set.
type ConvexCache struct {
	svc   *Service
	guard Guard
	data  ConvexData
}

// NewConvexCache returns an empty cache.
func NewConvexCache(svc *Service) *ConvexCache {
	return &ConvexCache{svc: svc}
}

// Get returns data valid for s, running generate when stale. The returned
// function releases the read.
func (c *ConvexCache) Get(s *state.State, generate func(*state.State) ConvexData) (ConvexData, func()) {
	ran := c.guard.Acquire(s, func() {
		c.data = generate(s)
	})
	if c.svc != nil {
		c.svc.record(!ran)
	}
	return c.data, c.guard.Release
}

// Invalidate drops the cached decomposition.
func (c *ConvexCache) Invalidate() { c.guard.Invalidate() }

// IsValid reports whether the cache is valid for s.
func (c *ConvexCache) IsValid(s *state.State) bool { return c.guard.IsValid(s) }

type cornerInfo struct {
	coord, material, normal, texCoord int
}

func perVertex(b binding.Binding) bool {
	return b == binding.PerVertex || b == binding.PerVertexIndexed
}

// advancesPerFace reports whether the attribute counter steps at the end of
// every face.
func advancesPerFace(b binding.Binding) bool {
	return b == binding.PerVertexIndexed || b == binding.PerFace || b == binding.PerFaceIndexed
}

// Convexify splits every face of in into triangles.
func Convexify(coords *state.Coordinates, in ConvexInput) ConvexData {
	var out ConvexData
	identity := in.Model == (math.Mat4{}) || in.Model.IsIdentity()
	hasMat := in.Material != binding.Overall
	hasNorm := in.Normal != binding.Overall

	var (
		matnr, normnr, texnr int
		face                 []cornerInfo
		pts                  []math.Vec3
	)

	emit := func(t tess.Triangle) {
		for k, i := range t {
			ci := face[i]
			out.CoordIndex = append(out.CoordIndex, ci.coord)
			if hasMat && (k == 0 || perVertex(in.Material)) {
				out.MaterialIndex = append(out.MaterialIndex, ci.material)
			}
			if hasNorm && (k == 0 || perVertex(in.Normal)) {
				out.NormalIndex = append(out.NormalIndex, ci.normal)
			}
			if in.TexCoords {
				out.TexCoordIndex = append(out.TexCoordIndex, ci.texCoord)
			}
		}
		out.CoordIndex = append(out.CoordIndex, -1)
		if hasMat && perVertex(in.Material) {
			out.MaterialIndex = append(out.MaterialIndex, -1)
		}
		if hasNorm && perVertex(in.Normal) {
			out.NormalIndex = append(out.NormalIndex, -1)
		}
		if in.TexCoords {
			out.TexCoordIndex = append(out.TexCoordIndex, -1)
		}
	}

	flush := func() {
		for t := range tess.Triangulate(pts) {
			emit(t)
		}
		face = face[:0]
		pts = pts[:0]
	}

	n := coords.Count()
	for _, vi := range in.CoordIndex {
		if vi < 0 {
			flush()
			if advancesPerFace(in.Material) {
				matnr++
			}
			if advancesPerFace(in.Normal) {
				normnr++
			}
			if in.TexCoords {
				texnr++
			}
			continue
		}
		ci := cornerInfo{coord: vi, material: matnr, normal: normnr, texCoord: texnr}
		if in.MaterialIndex != nil {
			ci.material = lookup(in.MaterialIndex, matnr)
		}
		if perVertex(in.Material) {
			matnr++
		}
		if in.NormalIndex != nil {
			ci.normal = lookup(in.NormalIndex, normnr)
		}
		if perVertex(in.Normal) {
			normnr++
		}
		if in.TexCoordIndex != nil {
			ci.texCoord = lookup(in.TexCoordIndex, texnr)
		}
		texnr++

		var p math.Vec3
		if vi < n {
			p = coords.Get3(vi)
		}
		if !identity {
			p = in.Model.TransformPoint(p)
		}
		face = append(face, ci)
		pts = append(pts, p)
	}
	if len(face) > 0 {
		flush()
	}
	return out
}

func lookup(idx []int, i int) int {
	if i < len(idx) {
		return idx[i]
	}
	return 0
}
