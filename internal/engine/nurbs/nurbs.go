// Package nurbs tessellates NURBS curves and surfaces into sampled line
// strips and triangle strips.
//
// Tessellation results are exposed as finite iterators. Every call walks the
// parameter domain afresh, so a sequence can be ranged over more than once.
package nurbs

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedVersion is returned when the tessellator is older than
	// MinVersion.
	ErrUnsupportedVersion = errors.New("nurbs: tessellator version unsupported")
	// ErrInvalidKnots is returned for knot vectors that do not match the
	// control point count or are decreasing.
	ErrInvalidKnots = errors.New("nurbs: invalid knot vector")
)

// Version is a tessellator version.
type Version struct {
	Major, Minor int
}

func (v Version) String() string { return fmt.Sprintf("%d.%d", v.Major, v.Minor) }

// AtLeast reports whether v is o or newer.
func (v Version) AtLeast(o Version) bool {
	if v.Major != o.Major {
		return v.Major > o.Major
	}
	return v.Minor >= o.Minor
}

var (
	// MinVersion is the oldest tessellator able to report primitives back
	// to the caller.
	MinVersion = Version{1, 3}
	// LibraryVersion is the version of the built-in tessellator.
	LibraryVersion = Version{1, 3}
)

// Tessellator samples curves and surfaces. Samples is the number of
// samples per knot span.
type Tessellator struct {
	Version Version
	Samples int
}

// New returns a tessellator of the built-in version.
func New(samples int) *Tessellator {
	if samples < 1 {
		samples = 1
	}
	return &Tessellator{Version: LibraryVersion, Samples: samples}
}

// Check returns ErrUnsupportedVersion when t is older than MinVersion.
func (t *Tessellator) Check() error {
	if !t.Version.AtLeast(MinVersion) {
		return fmt.Errorf("%w: have %s, need %s", ErrUnsupportedVersion, t.Version, MinVersion)
	}
	return nil
}

// SamplesFor scales the per-span sample count by a complexity value in
// [0, 1], where 0.5 keeps the configured count.
func (t *Tessellator) SamplesFor(complexity float32) int {
	n := int(float32(t.Samples)*complexity*2 + 0.5)
	return max(n, 2)
}

func validate(order, points int, knots []float32) error {
	if order < 2 || points < order {
		return fmt.Errorf("%w: order %d with %d control points", ErrInvalidKnots, order, points)
	}
	if len(knots) != points+order {
		return fmt.Errorf("%w: %d knots for %d control points of order %d", ErrInvalidKnots, len(knots), points, order)
	}
	for i := 1; i < len(knots); i++ {
		if knots[i] < knots[i-1] {
			return fmt.Errorf("%w: decreasing at %d", ErrInvalidKnots, i)
		}
	}
	if knots[order-1] == knots[points] {
		return fmt.Errorf("%w: empty parameter domain", ErrInvalidKnots)
	}
	return nil
}
