package subst

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// EMatrix stores a Q-matrix and computes P=e^Qt. The logit
// parameterization gives a non-reversible Q, so exponentiation goes
// through scaling and squaring rather than eigendecomposition.
type EMatrix struct {
	// Q is Q-matrix
	Q *mat.Dense
	a int
}

// NewEMatrix creates a new EMatrix.
func NewEMatrix(Q *mat.Dense) *EMatrix {
	rows, _ := Q.Dims()
	return &EMatrix{Q: Q, a: rows}
}

// Exp computes P=e^Qt and returns it as a flat row-major slice. The
// branch length is clamped into the valid range first.
func (m *EMatrix) Exp(t float64) ([]float64, error) {
	rows, cols := m.Q.Dims()
	if cols != rows {
		return nil, errors.New("Q isn't a square matrix")
	}
	t = ClampBranchLength(t)

	qt := mat.NewDense(rows, cols, nil)
	qt.Scale(t, m.Q)
	var p mat.Dense
	p.Exp(qt)
	// Remove slightly negative values
	p.Apply(func(r, c int, v float64) float64 {
		return math.Max(0, v)
	}, &p)
	res := make([]float64, rows*cols)
	copy(res, p.RawMatrix().Data)
	return res, nil
}
