package xform

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/math/f64"
)

func TestTransformedBounds_Identity(t *testing.T) {
	rect := Rectangle{X: -5, Y: 3, Width: 10, Height: 4}
	assert.Equal(t, rect, TransformedBounds(rect, Identity()))
}

func TestTransformedBounds_Rotation45(t *testing.T) {
	rect := Rectangle{Width: 2, Height: 2}
	bounds := TransformedBounds(rect, CreateRotationMatrixDegrees(45, rect.Size()))

	// a 2x2 square turned 45 degrees about its center spans the diagonal
	diag := 2 * 1.4142135623730951
	assert.InDelta(t, diag, bounds.Width, tolerance)
	assert.InDelta(t, diag, bounds.Height, tolerance)
	requirePointInDelta(t, Point{X: 1, Y: 1}, bounds.Center())
}

func TestTransformedRing(t *testing.T) {
	rect := Rectangle{Width: 4, Height: 2}
	ring := TransformedRing(rect, Translation(1, 1))

	require.Len(t, ring, 5)
	assert.True(t, ring.Closed())
	assert.Equal(t, orb.Point{1, 1}, ring[0])
	assert.Equal(t, orb.Point{5, 3}, ring[2])
}

func TestOrbConversions(t *testing.T) {
	p := Point{X: 1.5, Y: -2}
	assert.Equal(t, p, PointFromOrb(p.ToOrb()))

	rect := Rectangle{X: 1, Y: 2, Width: 3, Height: 4}
	b := rect.ToOrbBound()
	assert.Equal(t, orb.Point{1, 2}, b.Min)
	assert.Equal(t, orb.Point{4, 6}, b.Max)
	assert.Equal(t, rect, RectangleFromBound(b))
	assert.Equal(t, orb.Ring{{1, 2}, {4, 2}, {4, 6}, {1, 6}, {1, 2}}, rect.Ring())
}

func TestAff3RoundTrip(t *testing.T) {
	m := AffineMatrix{A: 1, B: 2, Tx: 3, C: 4, D: 5, Ty: 6}
	assert.Equal(t, f64.Aff3{1, 2, 3, 4, 5, 6}, m.Aff3())
	assert.Equal(t, m, MatrixFromAff3(m.Aff3()))
}

func TestCanvasMatrix(t *testing.T) {
	m := MultiplyMatrices(Translation(10, 20), RotationDeg(90))
	cm := m.CanvasMatrix()

	assert.Equal(t, m.A, cm[0][0])
	assert.Equal(t, m.B, cm[0][1])
	assert.Equal(t, m.Tx, cm[0][2])
	assert.Equal(t, m.C, cm[1][0])
	assert.Equal(t, m.D, cm[1][1])
	assert.Equal(t, m.Ty, cm[1][2])
}
