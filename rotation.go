package celestium

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// R3 rotation about the 3rd axis.
func R3(x float64) *mat.Dense {
	s, c := math.Sincos(x)
	return mat.NewDense(3, 3, []float64{c, s, 0, -s, c, 0, 0, 0, 1})
}

// MxV33 multiplies a matrix with a vector. Note that there is no dimension check!
func MxV33(m mat.Matrix, v []float64) []float64 {
	var rVec mat.VecDense
	rVec.MulVec(m, mat.NewVecDense(len(v), v))
	return []float64{rVec.AtVec(0), rVec.AtVec(1), rVec.AtVec(2)}
}

// Identity33 returns a new 3x3 identity matrix.
func Identity33() *mat.Dense {
	return mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
}

// skew returns the cross product matrix [v]x such that [v]x·w = v × w.
func skew(v []float64) *mat.Dense {
	return mat.NewDense(3, 3, []float64{0, -v[2], v[1], v[2], 0, -v[0], -v[1], v[0], 0})
}

// AxisAngle returns the active rotation of θ radians about the provided axis (Rodrigues' formula):
// R = I + sin θ K + (1 - cos θ) K², with K the cross product matrix of the unit axis.
func AxisAngle(axis []float64, θ float64) *mat.Dense {
	K := skew(unit(axis))
	var K2 mat.Dense
	K2.Mul(K, K)
	s, c := math.Sincos(θ)
	R := Identity33()
	var sK mat.Dense
	sK.Scale(s, K)
	R.Add(R, &sK)
	K2.Scale(1-c, &K2)
	R.Add(R, &K2)
	return R
}

// AlignX returns the rotation matrix which maps the local x unit vector onto the direction of target.
// If target is antiparallel to x, the result is a half turn about an axis orthogonal to target.
func AlignX(target []float64) (*mat.Dense, error) {
	if len(target) != 3 || !finite(target...) {
		return nil, fmt.Errorf("%w: alignment target %v is not a finite 3-vector", ErrNumericDomain, target)
	}
	if norm(target) < alignε {
		return nil, fmt.Errorf("%w: cannot align onto a zero-length target", ErrNumericDomain)
	}
	u := unit(target)
	x := []float64{1, 0, 0}
	v := cross(x, u)
	s := norm(v)
	c := dot(x, u)
	// unit treats norms up to alignε as null, so the boundary belongs to this branch.
	if s <= alignε {
		if c > 0 {
			return Identity33(), nil
		}
		return AxisAngle(orthogonal(u), math.Pi), nil
	}
	return AxisAngle(v, math.Atan2(s, c)), nil
}

// orthogonal returns a unit vector orthogonal to u, built from the basis vector least aligned with u.
func orthogonal(u []float64) []float64 {
	basis := [][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	best := basis[0]
	bestDot := math.Inf(1)
	for _, e := range basis {
		if d := math.Abs(dot(u, e)); d < bestDot {
			best, bestDot = e, d
		}
	}
	return unit(cross(u, best))
}
