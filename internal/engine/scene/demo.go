package scene

import (
	"image"

	"github.com/chewxy/math32"

	"github.com/Faultbox/shapekit/internal/engine/cache"
	"github.com/Faultbox/shapekit/internal/engine/lighting"
	"github.com/Faultbox/shapekit/internal/engine/shape"
	"github.com/Faultbox/shapekit/internal/engine/state"
	"github.com/Faultbox/shapekit/pkg/math"
)

// DemoOptions adjusts the demo scene.
type DemoOptions struct {
	// Markers is the glyph registry of the marker sets, the default when nil.
	Markers *shape.MarkerRegistry
	// Texture is bound to unit 0 of the quad mesh when set.
	Texture image.Image
	// BumpMap is the normal map of the quad mesh when set.
	BumpMap image.Image
	// Spacing is the distance between neighbouring items along x.
	Spacing float32
}

// Demo returns a scene with one item of every shape kind, laid out along
// the x axis.
func Demo(svc *cache.Service, opts DemoOptions) *Scene {
	if opts.Spacing == 0 {
		opts.Spacing = 3
	}
	sc := New()
	sc.SetLights(lighting.NewDirectional(math.Vec3{X: -0.3, Y: -1, Z: -0.5}))
	sc.Add(
		demoFaceSet(svc),
		demoLineSet(svc),
		demoQuadMesh(svc, opts),
		demoTriangleStripSet(svc),
		demoIndexedTriangleStripSet(svc),
		demoMarkerSet(svc, opts.Markers),
		demoIndexedMarkerSet(svc, opts.Markers),
		demoNurbsCurve(svc),
		demoIndexedNurbsCurve(svc),
		demoNurbsSurface(svc),
		demoIndexedNurbsSurface(svc),
	)
	for i, it := range sc.Items {
		it.Model = math.Translate(float32(i)*opts.Spacing, 0, 0)
	}
	return sc
}

func coords3(p ...math.Vec3) Element {
	return Set(state.CoordinatesKey, &state.Coordinates{Points3: p})
}

func palette(n int) []math.Vec3 {
	out := make([]math.Vec3, n)
	for i := range out {
		h := float32(i) / float32(max(n, 1)) * 2 * math32.Pi
		out[i] = math.Vec3{
			X: 0.5 + 0.5*math32.Cos(h),
			Y: 0.5 + 0.5*math32.Cos(h-2*math32.Pi/3),
			Z: 0.5 + 0.5*math32.Cos(h+2*math32.Pi/3),
		}
	}
	return out
}

func material(n int, binding state.Binding) []Element {
	return []Element{
		Set(state.MaterialKey, state.Material{
			Diffuse:   palette(n),
			Specular:  math.Vec3{X: 0.3, Y: 0.3, Z: 0.3},
			Shininess: 0.4,
		}),
		Set(state.MaterialBindingKey, binding),
	}
}

func v3(x, y, z float32) math.Vec3 { return math.Vec3{X: x, Y: y, Z: z} }

func demoFaceSet(svc *cache.Service) *Item {
	f := shape.NewFaceSet(svc)
	f.NumVertices = []int{6, 3, 4}
	elems := []Element{
		coords3(
			// concave L
			v3(0, 0, 0), v3(2, 0, 0), v3(2, 0.6, 0), v3(0.6, 0.6, 0), v3(0.6, 2, 0), v3(0, 2, 0),
			v3(1, 1, 0.5), v3(2, 1, 0.5), v3(1.5, 2, 0.5),
			v3(0, 0, -0.5), v3(2, 0, -0.5), v3(2, 2, -0.5), v3(0, 2, -0.5),
		),
		Set(state.ShapeHintsKey, state.ShapeHints{Ordering: state.CounterClockwise}),
	}
	return NewItem("faceset", f, append(elems, material(3, state.BindPerFace)...)...)
}

func demoLineSet(svc *cache.Service) *Item {
	l := shape.NewLineSet(svc)
	l.NumVertices = []int{5, 5}
	elems := []Element{
		coords3(
			v3(0, 0, 0), v3(0.5, 1, 0), v3(1, 0, 0), v3(1.5, 1, 0), v3(2, 0, 0),
			v3(0, 1.5, 0), v3(2, 1.5, 0), v3(2, 2, 0), v3(0, 2, 0), v3(0, 1.5, 0),
		),
		Set(state.DrawStyleKey, state.Lines),
	}
	return NewItem("lineset", l, append(elems, material(8, state.BindPerPart)...)...)
}

// wave returns a cols x rows grid over [0,2]x[0,2] with a sine height.
func wave(cols, rows int) ([]math.Vec3, []math.Vec4) {
	pts := make([]math.Vec3, 0, cols*rows)
	tex := make([]math.Vec4, 0, cols*rows)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			u := float32(c) / float32(cols-1)
			v := float32(r) / float32(rows-1)
			pts = append(pts, v3(2*u, 2*v, 0.2*math32.Sin(u*2*math32.Pi)*math32.Cos(v*math32.Pi)))
			tex = append(tex, math.Vec4{u, v, 0, 1})
		}
	}
	return pts, tex
}

func demoQuadMesh(svc *cache.Service, opts DemoOptions) *Item {
	const cols, rows = 9, 9
	q := shape.NewQuadMesh(svc)
	q.VerticesPerRow, q.VerticesPerColumn = cols, rows
	pts, tex := wave(cols, rows)
	elems := []Element{
		coords3(pts...),
		Set(state.TexCoordsKey, &state.TexCoords{Coords: tex}),
		Set(state.CreaseAngleKey, 0.8),
	}
	if opts.Texture != nil {
		elems = append(elems, Set(state.TextureUnitsKey, []state.TextureUnit{{
			Enabled: true,
			Matrix:  math.Identity(),
			Image:   opts.Texture,
			Quality: 0.5,
		}}))
	}
	if opts.BumpMap != nil {
		elems = append(elems, Set(state.BumpMapKey, opts.BumpMap))
	}
	return NewItem("quadmesh", q, append(elems, material(rows-1, state.BindPerPart)...)...)
}

func demoTriangleStripSet(svc *cache.Service) *Item {
	t := shape.NewTriangleStripSet(svc)
	t.NumVertices = []int{8, 4}
	var pts []math.Vec3
	for i := 0; i < 8; i++ {
		x := float32(i/2) * 0.6
		pts = append(pts, v3(x, float32(i%2), 0.3*math32.Sin(x*2)))
	}
	pts = append(pts, v3(0, 1.4, 0), v3(0, 2, 0), v3(2, 1.4, 0), v3(2, 2, 0))
	return NewItem("tristrip", t, append([]Element{coords3(pts...)}, material(10, state.BindPerFace)...)...)
}

func demoIndexedTriangleStripSet(svc *cache.Service) *Item {
	t := shape.NewIndexedTriangleStripSet(svc)
	// two sides of a box as strips
	t.CoordIndex = []int{0, 4, 1, 5, 2, 6, 3, 7, -1, 3, 7, 0, 4}
	t.MaterialIndex = []int{0, 1}
	pts := []math.Vec3{
		v3(0, 0, 0), v3(2, 0, 0), v3(2, 0, 2), v3(0, 0, 2),
		v3(0, 2, 0), v3(2, 2, 0), v3(2, 2, 2), v3(0, 2, 2),
	}
	elems := []Element{
		coords3(pts...),
		Set(state.ShapeHintsKey, state.ShapeHints{Ordering: state.CounterClockwise, Shape: state.Solid}),
	}
	return NewItem("indexedtristrip", t, append(elems, material(2, state.BindPerPartIndexed)...)...)
}

func demoMarkerSet(svc *cache.Service, reg *shape.MarkerRegistry) *Item {
	m := shape.NewMarkerSet(svc)
	m.Markers = reg
	var pts []math.Vec3
	for i := 0; i < 6; i++ {
		a := float32(i) / 6 * 2 * math32.Pi
		pts = append(pts, v3(1+math32.Cos(a), 1+math32.Sin(a), 0))
		m.MarkerIndex = append(m.MarkerIndex, shape.BuiltinMarker(shape.MarkerShape(i*3), 9))
	}
	return NewItem("markers", m, append([]Element{coords3(pts...)}, material(6, state.BindPerVertex)...)...)
}

func demoIndexedMarkerSet(svc *cache.Service, reg *shape.MarkerRegistry) *Item {
	m := shape.NewIndexedMarkerSet(svc)
	m.Markers = reg
	m.CoordIndex = []int{0, 2, 4, 6, 8}
	m.MarkerIndex = []int{
		shape.BuiltinMarker(shape.CircleFilled, 7),
		shape.MarkerNone,
		shape.BuiltinMarker(shape.SquareLine, 7),
	}
	var pts []math.Vec3
	for i := 0; i < 9; i++ {
		pts = append(pts, v3(float32(i)*0.25, 1+0.5*math32.Sin(float32(i)), 0))
	}
	return NewItem("indexedmarkers", m, append([]Element{coords3(pts...)}, material(1, state.BindOverall)...)...)
}

// arc is a cubic rational control polygon of a half circle bump.
func arc() []math.Vec4 {
	return []math.Vec4{{0, 0, 0, 1}, {0.7, 2, 0, 1}, {1.3, 2, 0, 1}, {2, 0, 0, 1}}
}

var cubicKnots = []float32{0, 0, 0, 0, 1, 1, 1, 1}

func demoNurbsCurve(svc *cache.Service) *Item {
	c := shape.NewNurbsCurve(svc)
	c.NumControlPoints = 4
	c.KnotVector = cubicKnots
	return NewItem("nurbscurve", c,
		Set(state.CoordinatesKey, &state.Coordinates{Points4: arc()}),
		Set(state.ComplexityKey, state.Complexity{Value: 0.5}),
	)
}

func demoIndexedNurbsCurve(svc *cache.Service) *Item {
	c := shape.NewIndexedNurbsCurve(svc)
	c.NumControlPoints = 4
	c.KnotVector = cubicKnots
	c.CoordIndex = []int{3, 2, 1, 0}
	pts := arc()
	for i := range pts {
		pts[i][1] = -pts[i][1] + 2
	}
	return NewItem("indexednurbscurve", c,
		Set(state.CoordinatesKey, &state.Coordinates{Points4: pts}),
		Set(state.DrawStyleKey, state.Points),
	)
}

func demoNurbsSurface(svc *cache.Service) *Item {
	n := shape.NewNurbsSurface(svc)
	n.NumUControlPoints, n.NumVControlPoints = 4, 4
	n.UKnotVector, n.VKnotVector = cubicKnots, cubicKnots
	var pts []math.Vec3
	for j := 0; j < 4; j++ {
		for i := 0; i < 4; i++ {
			z := float32(0)
			if (i == 1 || i == 2) && (j == 1 || j == 2) {
				z = 1.2
			}
			pts = append(pts, v3(float32(i)*2/3, float32(j)*2/3, z))
		}
	}
	return NewItem("nurbssurface", n, append([]Element{coords3(pts...)}, material(1, state.BindOverall)...)...)
}

func demoIndexedNurbsSurface(svc *cache.Service) *Item {
	n := shape.NewIndexedNurbsSurface(svc)
	n.NumUControlPoints, n.NumVControlPoints = 3, 3
	quad := []float32{0, 0, 0, 1, 1, 1}
	n.UKnotVector, n.VKnotVector = quad, quad
	// stored column-major, indexed back to row order
	var pts []math.Vec3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			pts = append(pts, v3(float32(i), float32(j), -0.5*float32((i-1)*(i-1)+(j-1)*(j-1))))
		}
	}
	for j := 0; j < 3; j++ {
		for i := 0; i < 3; i++ {
			n.CoordIndex = append(n.CoordIndex, i*3+j)
		}
	}
	return NewItem("indexednurbssurface", n, append([]Element{coords3(pts...)}, material(1, state.BindOverall)...)...)
}
