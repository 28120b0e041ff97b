package xform

import (
	"github.com/paulmach/orb"
	"github.com/tdewolff/canvas"
	"golang.org/x/image/math/f64"
)

// TransformedBounds maps the four corners of rect through m and returns their
// axis-aligned bounding rectangle.
func TransformedBounds(rect Rectangle, m AffineMatrix) Rectangle {
	corners := rect.Corners()
	mp := make(orb.MultiPoint, 0, len(corners))
	for _, c := range corners {
		mp = append(mp, TransformPoint(c, m).ToOrb())
	}
	return RectangleFromBound(mp.Bound())
}

// TransformedRing returns the transformed outline of rect as a closed ring
func TransformedRing(rect Rectangle, m AffineMatrix) orb.Ring {
	ring := make(orb.Ring, 0, 5)
	for _, p := range rect.Ring() {
		ring = append(ring, TransformPoint(PointFromOrb(p), m).ToOrb())
	}
	return ring
}

// ToOrb converts to an orb point
func (p Point) ToOrb() orb.Point {
	return orb.Point{p.X, p.Y}
}

// PointFromOrb converts from an orb point
func PointFromOrb(p orb.Point) Point {
	return Point{X: p.X(), Y: p.Y()}
}

// ToOrbBound converts to an orb bound
func (r Rectangle) ToOrbBound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{r.X, r.Y},
		Max: orb.Point{r.X + r.Width, r.Y + r.Height},
	}
}

// RectangleFromBound converts from an orb bound
func RectangleFromBound(b orb.Bound) Rectangle {
	return Rectangle{
		X:      b.Min.X(),
		Y:      b.Min.Y(),
		Width:  b.Max.X() - b.Min.X(),
		Height: b.Max.Y() - b.Min.Y(),
	}
}

// Ring returns the rectangle outline as a closed ring
func (r Rectangle) Ring() orb.Ring {
	c := r.Corners()
	return orb.Ring{c[0].ToOrb(), c[1].ToOrb(), c[2].ToOrb(), c[3].ToOrb(), c[0].ToOrb()}
}

// Aff3 converts to the row-major matrix used by golang.org/x/image/draw
func (m AffineMatrix) Aff3() f64.Aff3 {
	return f64.Aff3{m.A, m.B, m.Tx, m.C, m.D, m.Ty}
}

// MatrixFromAff3 converts from a golang.org/x/image matrix
func MatrixFromAff3(a f64.Aff3) AffineMatrix {
	return AffineMatrix{A: a[0], B: a[1], Tx: a[2], C: a[3], D: a[4], Ty: a[5]}
}

// CanvasMatrix converts to a tdewolff/canvas matrix
func (m AffineMatrix) CanvasMatrix() canvas.Matrix {
	return canvas.Matrix{
		{m.A, m.B, m.Tx},
		{m.C, m.D, m.Ty},
	}
}
