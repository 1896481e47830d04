package pdf

import "math"

// Matrix is an affine transform [a b c d e f] as used by PDF.
type Matrix [6]float64

// Identity is the identity transform.
var Identity = Matrix{1, 0, 0, 1, 0, 0}

// Mul returns m × n (apply m first, then n).
func (m Matrix) Mul(n Matrix) Matrix {
	return Matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

// Apply transforms the point (x, y).
func (m Matrix) Apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// xScale and yScale are the lengths of the transformed unit vectors.
func (m Matrix) xScale() float64 { return math.Hypot(m[0], m[1]) }
func (m Matrix) yScale() float64 { return math.Hypot(m[2], m[3]) }

func translate(tx, ty float64) Matrix {
	return Matrix{1, 0, 0, 1, tx, ty}
}

// unitSquare returns the bounding box of the unit square under m, which is
// where an image XObject is painted.
func (m Matrix) unitSquare() Rect {
	r := Rect{X0: math.Inf(1), Y0: math.Inf(1), X1: math.Inf(-1), Y1: math.Inf(-1)}
	for _, c := range [4][2]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
		x, y := m.Apply(c[0], c[1])
		r.X0, r.X1 = min(r.X0, x), max(r.X1, x)
		r.Y0, r.Y1 = min(r.Y0, y), max(r.Y1, y)
	}
	return r
}

func matrixFrom(args []*Object) (Matrix, bool) {
	if len(args) < 6 {
		return Identity, false
	}
	var m Matrix
	for i := range m {
		v, ok := args[len(args)-6+i].Number()
		if !ok {
			return Identity, false
		}
		m[i] = v
	}
	return m, true
}
