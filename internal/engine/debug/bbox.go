// Package debug provides debug visualization utilities.
package debug

import "github.com/Faultbox/shapekit/pkg/math"

// BoxEdgeVertexCount is the number of vertices of a box wireframe (12 edges x 2).
const BoxEdgeVertexCount = 24

// boxEdges lists the corner pairs of the 12 box edges. Corners are numbered
// as in math.Box3.Corners: bit 0 selects max X, bit 1 max Y, bit 2 max Z.
var boxEdges = [12][2]int{
	// bottom
	{0, 1}, {1, 5}, {5, 4}, {4, 0},
	// top
	{2, 3}, {3, 7}, {7, 6}, {6, 2},
	// vertical
	{0, 2}, {1, 3}, {5, 7}, {4, 6},
}

// BoxWireframe returns line vertex pairs outlining box, grown by padding
// on every side. An empty box yields nil.
func BoxWireframe(box math.Box3, padding float32) []math.Vec3 {
	if box.IsEmpty() {
		return nil
	}
	pad := math.Vec3{X: padding, Y: padding, Z: padding}
	grown := math.Box3{Min: box.Min.Sub(pad), Max: box.Max.Add(pad)}
	corners := grown.Corners()
	out := make([]math.Vec3, 0, BoxEdgeVertexCount)
	for _, e := range boxEdges {
		out = append(out, corners[e[0]], corners[e[1]])
	}
	return out
}
