package nurbs

import (
	"iter"

	"github.com/Faultbox/shapekit/pkg/math"
)

// Curve is a rational B-spline curve. Points are homogeneous: the W
// component is the weight, and XYZ are pre-multiplied by it.
type Curve struct {
	Knots  []float32
	Points []math.Vec4
}

// Order returns the curve order (degree + 1).
func (c *Curve) Order() int { return len(c.Knots) - len(c.Points) }

// Validate checks the knot vector against the control points.
func (c *Curve) Validate() error {
	return validate(c.Order(), len(c.Points), c.Knots)
}

// Eval returns the curve point at u.
func (c *Curve) Eval(u float32) math.Vec3 {
	p := c.Order() - 1
	span := findSpan(len(c.Points)-1, p, u, c.Knots)
	n := basisDerivs(span, p, u, c.Knots)[0]
	var acc math.Vec4
	for j := 0; j <= p; j++ {
		cp := c.Points[span-p+j]
		for k := range acc {
			acc[k] += n[j] * cp[k]
		}
	}
	return acc.Project()
}

// Curve returns the sampled line strip of c. It yields nothing when c is
// invalid.
func (t *Tessellator) Curve(c *Curve, samples int) iter.Seq[math.Vec3] {
	return func(yield func(math.Vec3) bool) {
		if c.Validate() != nil {
			return
		}
		for _, u := range params(c.Order(), c.Knots, samples) {
			if !yield(c.Eval(u)) {
				return
			}
		}
	}
}
