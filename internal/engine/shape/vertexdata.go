package shape

import (
	"go.uber.org/zap"

	"github.com/Faultbox/shapekit/internal/engine/primitive"
	"github.com/Faultbox/shapekit/internal/engine/state"
	"github.com/Faultbox/shapekit/internal/logger"
	"github.com/Faultbox/shapekit/pkg/math"
)

// vertexData is the vertex input of one generation pass.
type vertexData struct {
	coords *state.Coordinates
	// normals are the state normals, or generated ones when the state has
	// none and the shape needs them. normalIndex is set for generated
	// normals addressed through an index list.
	normals     []math.Vec3
	normalIndex []int
	generated   bool
	tex         *state.TexCoords
	doTex       bool
	release     func()
}

// vertexData reads the vertex sources from s, generating normals through
// the normal cache when needed. Call release when done.
func (b *Base) vertexData(s *state.State, sh Shape, needNormals bool) vertexData {
	d := vertexData{
		coords:  state.Get(s, state.CoordinatesKey),
		normals: state.Get(s, state.NormalsKey),
		tex:     state.Get(s, state.TexCoordsKey),
		release: func() {},
	}
	d.doTex = state.Texture(s, 0).Enabled || state.Get(s, state.BumpMapKey) != nil
	if needNormals && len(d.normals) == 0 {
		n, release := b.normalsFor(s, sh)
		d.normals, d.normalIndex, d.release = n.Normals, n.Indices, release
		d.generated = true
	}
	return d
}

// normal returns normal i, or +Z when there is none.
func (d *vertexData) normal(i int) math.Vec3 {
	if i >= 0 && i < len(d.normals) {
		return d.normals[i]
	}
	return math.Vec3{Z: 1}
}

// vertex builds the record for coordinate ci with the given attribute
// indices.
func (d *vertexData) vertex(ci, ni, mi, ti int) primitive.Vertex {
	v := primitive.Vertex{
		Point:         d.coords.Get3(ci),
		Normal:        d.normal(ni),
		CoordIndex:    ci,
		NormalIndex:   ni,
		MaterialIndex: mi,
		TexCoordIndex: ti,
		TexCoord:      math.Vec4{0, 0, 0, 1},
	}
	if d.doTex {
		if d.tex.IsFunction() {
			v.TexCoord = d.tex.Function(v.Point, v.Normal)
		} else {
			v.TexCoord = d.tex.Get(ti)
		}
	}
	return v
}

// checkRange reports whether coordinates [start, start+count) exist,
// warning once per shape kind otherwise.
func checkRange(k Kind, coords *state.Coordinates, start, count int) bool {
	if start < 0 {
		logger.WarnOnce(k.String()+".startIndex", "negative start index, shape skipped",
			zap.Stringer("shape", k), zap.Int("startIndex", start))
		return false
	}
	if start+count > coords.Count() {
		logger.WarnOnce(k.String()+".coordinates", "too few coordinates for vertex counts, shape skipped",
			zap.Stringer("shape", k), zap.Int("needed", start+count), zap.Int("available", coords.Count()))
		return false
	}
	return true
}

// checkIndices reports whether every non-negative index addresses a
// coordinate, warning once per shape kind otherwise.
func checkIndices(k Kind, coords *state.Coordinates, indices []int) bool {
	n := coords.Count()
	for _, i := range indices {
		if i >= n {
			logger.WarnOnce(k.String()+".coordIndex", "coordinate index out of range, shape skipped",
				zap.Stringer("shape", k), zap.Int("index", i), zap.Int("available", n))
			return false
		}
	}
	return true
}

// expandCounts resolves the single -1 count, which stands for every
// coordinate from start on.
func expandCounts(counts []int, coords *state.Coordinates, start int) []int {
	if len(counts) == 1 && counts[0] == -1 {
		return []int{max(coords.Count()-start, 0)}
	}
	return counts
}

func sum(counts []int) int {
	t := 0
	for _, n := range counts {
		if n > 0 {
			t += n
		}
	}
	return t
}

// points3 returns the coordinates as 3D points, projecting homogeneous ones.
func points3(c *state.Coordinates) []math.Vec3 {
	if c == nil {
		return nil
	}
	if c.Points4 == nil {
		return c.Points3
	}
	out := make([]math.Vec3, len(c.Points4))
	for i, p := range c.Points4 {
		out[i] = p.Project()
	}
	return out
}

// stream hands out consecutive entries of an index array. A nil array
// yields the fallback counter instead.
type stream struct {
	idx []int
	pos int
}

func (st *stream) next() int {
	i := st.pos
	st.pos++
	if st.idx == nil {
		return i
	}
	if i < len(st.idx) {
		return st.idx[i]
	}
	return 0
}

// skip steps over one entry without reading it.
func (st *stream) skip() { st.pos++ }
