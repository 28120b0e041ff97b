package xform

import "math"

// degenerateEpsilon is the determinant magnitude below which a matrix is treated as singular
const degenerateEpsilon = 1e-10

// TransformPoint applies an affine transform to a point
// x' = a*x + b*y + tx
// y' = c*x + d*y + ty
func TransformPoint(p Point, m AffineMatrix) Point {
	return TransformVector(p, m).Add(Point{X: m.Tx, Y: m.Ty})
}

// TransformPoints applies an affine transform to multiple points
func TransformPoints(points []Point, m AffineMatrix) []Point {
	result := make([]Point, len(points))
	for i, p := range points {
		result[i] = TransformPoint(p, m)
	}
	return result
}

// TransformVector applies only the linear part of the transform (no translation)
func TransformVector(v Point, m AffineMatrix) Point {
	return Point{
		X: m.A*v.X + m.B*v.Y,
		Y: m.C*v.X + m.D*v.Y,
	}
}

// DegreesToRadians converts degrees to radians
func DegreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// RadiansToDegrees converts radians to degrees
func RadiansToDegrees(radians float64) float64 {
	return radians * 180 / math.Pi
}

// NormalizeAngle normalizes an angle in degrees to the range [0, 360).
func NormalizeAngle(degrees float64) float64 {
	degrees = math.Mod(degrees, 360)
	if degrees < 0 {
		degrees += 360
	}
	return degrees
}

// RotationAngle returns the net rotation of m in degrees, normalized to [0, 360)
func (m AffineMatrix) RotationAngle() float64 {
	return TransformAngle(0, m)
}

// TransformAngle applies the rotation component of an affine transform to a local angle (in degrees).
// The rotation is extracted from the transform matrix via atan2(C, A).
// Returns the transformed angle normalized to [0, 360).
func TransformAngle(localAngle float64, transform AffineMatrix) float64 {
	return NormalizeAngle(localAngle + RadiansToDegrees(math.Atan2(transform.C, transform.A)))
}

// MultiplyMatrices composes two affine transforms: result = m1 * m2
// Applying result is equivalent to applying m2 first, then m1
func MultiplyMatrices(m1, m2 AffineMatrix) AffineMatrix {
	return AffineMatrix{
		A:  m1.A*m2.A + m1.B*m2.C,
		B:  m1.A*m2.B + m1.B*m2.D,
		Tx: m1.A*m2.Tx + m1.B*m2.Ty + m1.Tx,
		C:  m1.C*m2.A + m1.D*m2.C,
		D:  m1.C*m2.B + m1.D*m2.D,
		Ty: m1.C*m2.Tx + m1.D*m2.Ty + m1.Ty,
	}
}

// Determinant returns the determinant of the linear part
func (m AffineMatrix) Determinant() float64 {
	return m.A*m.D - m.B*m.C
}

// IsDegenerate reports whether the matrix collapses the plane and cannot be inverted
func (m AffineMatrix) IsDegenerate() bool {
	det := m.Determinant()
	return math.Abs(det) < degenerateEpsilon || math.IsNaN(det) || math.IsInf(det, 0)
}

// IsIdentity reports whether m is exactly the identity
func (m AffineMatrix) IsIdentity() bool {
	return m == Identity()
}

// ApproxEqual compares every coefficient with an absolute tolerance
func (m AffineMatrix) ApproxEqual(other AffineMatrix, eps float64) bool {
	return math.Abs(m.A-other.A) < eps &&
		math.Abs(m.B-other.B) < eps &&
		math.Abs(m.Tx-other.Tx) < eps &&
		math.Abs(m.C-other.C) < eps &&
		math.Abs(m.D-other.D) < eps &&
		math.Abs(m.Ty-other.Ty) < eps
}

// InvertMatrix computes the inverse of an affine transform
// Returns identity if matrix is singular (determinant ~= 0)
func InvertMatrix(m AffineMatrix) AffineMatrix {
	inv, ok := TryInvertMatrix(m)
	if !ok {
		return Identity()
	}
	return inv
}

// TryInvertMatrix computes the inverse of an affine transform if one exists
func TryInvertMatrix(m AffineMatrix) (AffineMatrix, bool) {
	if m.IsDegenerate() {
		return AffineMatrix{}, false
	}

	invDet := 1.0 / m.Determinant()
	return AffineMatrix{
		A:  m.D * invDet,
		B:  -m.B * invDet,
		Tx: (m.B*m.Ty - m.D*m.Tx) * invDet,
		C:  -m.C * invDet,
		D:  m.A * invDet,
		Ty: (m.C*m.Tx - m.A*m.Ty) * invDet,
	}, true
}

// Translation creates a translation-only transform
func Translation(tx, ty float64) AffineMatrix {
	return AffineMatrix{A: 1, B: 0, Tx: tx, C: 0, D: 1, Ty: ty}
}

// Rotation creates a rotation transform (angle in radians, around origin).
// Positive angles rotate counter-clockwise in a y-up frame.
func Rotation(angle float64) AffineMatrix {
	sin, cos := math.Sincos(angle)
	return AffineMatrix{A: cos, B: -sin, Tx: 0, C: sin, D: cos, Ty: 0}
}

// RotationDeg creates a rotation transform (angle in degrees, around origin)
func RotationDeg(degrees float64) AffineMatrix {
	return Rotation(DegreesToRadians(degrees))
}

// Scale creates a scaling transform
func Scale(sx, sy float64) AffineMatrix {
	return AffineMatrix{A: sx, B: 0, Tx: 0, C: 0, D: sy, Ty: 0}
}

// Skew creates a skew transform from the two skew angles in radians.
// ax shears x along y, ay shears y along x.
func Skew(ax, ay float64) AffineMatrix {
	return AffineMatrix{A: 1, B: math.Tan(ax), Tx: 0, C: math.Tan(ay), D: 1, Ty: 0}
}

// aboutPoint conjugates m so that it acts around center instead of the origin:
// translate(center) * m * translate(-center)
func aboutPoint(m AffineMatrix, center Point) AffineMatrix {
	back := center.Negate()
	return MultiplyMatrices(Translation(center.X, center.Y),
		MultiplyMatrices(m, Translation(back.X, back.Y)))
}

// CreateRotationMatrix returns the rotation by radians around the center of an
// area of the given size. This is the matrix the builder composes for a rotation.
func CreateRotationMatrix(radians float64, size Size) AffineMatrix {
	return aboutPoint(Rotation(radians), RectangleFromSize(size).LocalCenter())
}

// CreateRotationMatrixDegrees is CreateRotationMatrix with the angle in degrees
func CreateRotationMatrixDegrees(degrees float64, size Size) AffineMatrix {
	return CreateRotationMatrix(DegreesToRadians(degrees), size)
}

// CreateSkewMatrix returns the skew by the given radians around the center of an area of the given size
func CreateSkewMatrix(ax, ay float64, size Size) AffineMatrix {
	return aboutPoint(Skew(ax, ay), RectangleFromSize(size).LocalCenter())
}

// CreateSkewMatrixDegrees is CreateSkewMatrix with the angles in degrees
func CreateSkewMatrixDegrees(degreesX, degreesY float64, size Size) AffineMatrix {
	return CreateSkewMatrix(DegreesToRadians(degreesX), DegreesToRadians(degreesY), size)
}
