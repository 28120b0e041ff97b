package xform

import (
	"errors"
	"fmt"
)

var (
	// ErrRectangleMismatch is returned when a builder is evaluated against a
	// rectangle other than the one it was created for.
	ErrRectangleMismatch = errors.New("rectangle does not match builder rectangle")

	// ErrDegenerateTransform is returned by Build when the composed matrix cannot be inverted.
	ErrDegenerateTransform = errors.New("transform is degenerate")
)

// TransformBuilder accumulates translations, scales, rotations and skews into a
// single affine matrix bound to one source rectangle.
//
// Append composes an operation after everything added so far; Prepend composes
// it before. The rectangle origin is folded in as a translation by -origin that
// always runs first, so operations are expressed in rectangle-local coordinates.
// Rotation and skew act around the rectangle's local center.
//
// A builder is not safe for concurrent mutation.
type TransformBuilder struct {
	rect   Rectangle
	offset AffineMatrix // location offset, applied ahead of matrix
	matrix AffineMatrix // composed explicit operations
	ops    int
}

// NewBuilder creates a builder for an area of the given size rooted at (0,0)
func NewBuilder(size Size) *TransformBuilder {
	return NewBuilderForRectangle(RectangleFromSize(size))
}

// NewBuilderForRectangle creates a builder for the given source rectangle
func NewBuilderForRectangle(rect Rectangle) *TransformBuilder {
	offset := rect.Location().Negate()
	return &TransformBuilder{
		rect:   rect,
		offset: Translation(offset.X, offset.Y),
		matrix: Identity(),
	}
}

// Rectangle returns the rectangle the builder was created for
func (b *TransformBuilder) Rectangle() Rectangle {
	return b.rect
}

// Len returns how many operations have been composed
func (b *TransformBuilder) Len() int {
	return b.ops
}

// AppendMatrix composes m after all existing operations
func (b *TransformBuilder) AppendMatrix(m AffineMatrix) *TransformBuilder {
	b.matrix = MultiplyMatrices(m, b.matrix)
	b.ops++
	return b
}

// PrependMatrix composes m before all existing operations
func (b *TransformBuilder) PrependMatrix(m AffineMatrix) *TransformBuilder {
	b.matrix = MultiplyMatrices(b.matrix, m)
	b.ops++
	return b
}

// AppendTranslation appends a translation by v
func (b *TransformBuilder) AppendTranslation(v Point) *TransformBuilder {
	return b.AppendMatrix(Translation(v.X, v.Y))
}

// PrependTranslation prepends a translation by v
func (b *TransformBuilder) PrependTranslation(v Point) *TransformBuilder {
	return b.PrependMatrix(Translation(v.X, v.Y))
}

// AppendScale appends a non-uniform scale
func (b *TransformBuilder) AppendScale(sx, sy float64) *TransformBuilder {
	return b.AppendMatrix(Scale(sx, sy))
}

// PrependScale prepends a non-uniform scale
func (b *TransformBuilder) PrependScale(sx, sy float64) *TransformBuilder {
	return b.PrependMatrix(Scale(sx, sy))
}

// AppendRotationRadians appends a rotation around the rectangle center.
// The center is taken in the offset frame, so for a rectangle with a non-zero
// origin the fixed point is LocalCenter in the output, not Center.
func (b *TransformBuilder) AppendRotationRadians(radians float64) *TransformBuilder {
	return b.AppendMatrix(CreateRotationMatrix(radians, b.rect.Size()))
}

// PrependRotationRadians prepends a rotation around the rectangle center
func (b *TransformBuilder) PrependRotationRadians(radians float64) *TransformBuilder {
	return b.PrependMatrix(CreateRotationMatrix(radians, b.rect.Size()))
}

// AppendRotationDegrees appends a rotation around the rectangle center
func (b *TransformBuilder) AppendRotationDegrees(degrees float64) *TransformBuilder {
	return b.AppendRotationRadians(DegreesToRadians(degrees))
}

// PrependRotationDegrees prepends a rotation around the rectangle center
func (b *TransformBuilder) PrependRotationDegrees(degrees float64) *TransformBuilder {
	return b.PrependRotationRadians(DegreesToRadians(degrees))
}

// AppendRotationRadiansAbout appends a rotation around center, given in the
// offset (rectangle-local) frame
func (b *TransformBuilder) AppendRotationRadiansAbout(radians float64, center Point) *TransformBuilder {
	return b.AppendMatrix(aboutPoint(Rotation(radians), center))
}

// PrependRotationRadiansAbout prepends a rotation around center in the offset frame
func (b *TransformBuilder) PrependRotationRadiansAbout(radians float64, center Point) *TransformBuilder {
	return b.PrependMatrix(aboutPoint(Rotation(radians), center))
}

// AppendRotationDegreesAbout appends a rotation around center in the offset frame
func (b *TransformBuilder) AppendRotationDegreesAbout(degrees float64, center Point) *TransformBuilder {
	return b.AppendRotationRadiansAbout(DegreesToRadians(degrees), center)
}

// PrependRotationDegreesAbout prepends a rotation around center in the offset frame
func (b *TransformBuilder) PrependRotationDegreesAbout(degrees float64, center Point) *TransformBuilder {
	return b.PrependRotationRadiansAbout(DegreesToRadians(degrees), center)
}

// AppendSkewRadiansAbout appends a skew around center in the offset frame
func (b *TransformBuilder) AppendSkewRadiansAbout(ax, ay float64, center Point) *TransformBuilder {
	return b.AppendMatrix(aboutPoint(Skew(ax, ay), center))
}

// PrependSkewRadiansAbout prepends a skew around center in the offset frame
func (b *TransformBuilder) PrependSkewRadiansAbout(ax, ay float64, center Point) *TransformBuilder {
	return b.PrependMatrix(aboutPoint(Skew(ax, ay), center))
}

// AppendSkewRadians appends a skew around the rectangle center
func (b *TransformBuilder) AppendSkewRadians(ax, ay float64) *TransformBuilder {
	return b.AppendMatrix(CreateSkewMatrix(ax, ay, b.rect.Size()))
}

// PrependSkewRadians prepends a skew around the rectangle center
func (b *TransformBuilder) PrependSkewRadians(ax, ay float64) *TransformBuilder {
	return b.PrependMatrix(CreateSkewMatrix(ax, ay, b.rect.Size()))
}

// AppendSkewDegrees appends a skew around the rectangle center
func (b *TransformBuilder) AppendSkewDegrees(degreesX, degreesY float64) *TransformBuilder {
	return b.AppendSkewRadians(DegreesToRadians(degreesX), DegreesToRadians(degreesY))
}

// PrependSkewDegrees prepends a skew around the rectangle center
func (b *TransformBuilder) PrependSkewDegrees(degreesX, degreesY float64) *TransformBuilder {
	return b.PrependSkewRadians(DegreesToRadians(degreesX), DegreesToRadians(degreesY))
}

// Matrix returns the full transform, location offset included
func (b *TransformBuilder) Matrix() AffineMatrix {
	return MultiplyMatrices(b.matrix, b.offset)
}

// Build returns the full transform, or ErrDegenerateTransform if it collapses the plane
func (b *TransformBuilder) Build() (AffineMatrix, error) {
	m := b.Matrix()
	if m.IsDegenerate() {
		return m, fmt.Errorf("%w: determinant %g", ErrDegenerateTransform, m.Determinant())
	}
	return m, nil
}

// Transform maps p through the full transform
func (b *TransformBuilder) Transform(p Point) Point {
	return TransformPoint(p, b.Matrix())
}

// TransformPoints maps every point through the full transform
func (b *TransformBuilder) TransformPoints(points []Point) []Point {
	return TransformPoints(points, b.Matrix())
}

// Execute maps p through the transform built for rect. The builder's own
// rectangle is authoritative; any other rect yields ErrRectangleMismatch.
func (b *TransformBuilder) Execute(rect Rectangle, p Point) (Point, error) {
	if rect != b.rect {
		return Point{}, fmt.Errorf("%w: got %s, builder has %s", ErrRectangleMismatch, rect, b.rect)
	}
	return b.Transform(p), nil
}

// TransformedBounds returns the axis-aligned bounds of the source rectangle after transformation
func (b *TransformBuilder) TransformedBounds() Rectangle {
	return TransformedBounds(b.rect, b.Matrix())
}
