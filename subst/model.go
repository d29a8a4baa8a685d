// Package subst implements a continuous-time Markov substitution
// model with an unconstrained logit parameterization.
package subst

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	// MinBranchLength is the lower clamp for branch lengths.
	MinBranchLength = 1e-6
	// MaxBranchLength is the upper clamp for branch lengths.
	MaxBranchLength = 1e6
)

// Model computes the stationary distribution and the instantaneous
// rate matrix from free parameters. Logits are stored as raw float64
// slices so individual values can be addressed by the optimizer.
type Model struct {
	a int
	// stationLogits parameterize the stationary distribution
	// (softmax).
	stationLogits []float64
	// exchLogits is an a x a row-major table of exchange logits;
	// the diagonal is ignored.
	exchLogits []float64

	em *EMatrix
}

// NewModel creates a model for an alphabet of size a. All logits
// start at 1/a.
func NewModel(a int) *Model {
	m := &Model{
		a:             a,
		stationLogits: make([]float64, a),
		exchLogits:    make([]float64, a*a),
	}
	for i := range m.stationLogits {
		m.stationLogits[i] = 1 / float64(a)
	}
	for i := range m.exchLogits {
		m.exchLogits[i] = 1 / float64(a)
	}
	return m
}

// NAlphabet returns the alphabet size.
func (m *Model) NAlphabet() int {
	return m.a
}

// StationLogits returns the stationary distribution logits. The
// slice is the backing store; writes through it must be followed by
// Invalidate.
func (m *Model) StationLogits() []float64 {
	return m.stationLogits
}

// ExchLogits returns the exchange logit table (row-major a x a,
// diagonal ignored).
func (m *Model) ExchLogits() []float64 {
	return m.exchLogits
}

// Invalidate drops the cached rate matrix. It is intended as an
// onChange callback for the parameters.
func (m *Model) Invalidate() {
	m.em = nil
}

// StationaryProbs returns softmax of the stationary logits.
func (m *Model) StationaryProbs() []float64 {
	p := make([]float64, m.a)
	max := m.stationLogits[0]
	for _, l := range m.stationLogits[1:] {
		if l > max {
			max = l
		}
	}
	sum := 0.0
	for i, l := range m.stationLogits {
		p[i] = math.Exp(l - max)
		sum += p[i]
	}
	for i := range p {
		p[i] /= sum
	}
	return p
}

// Q builds the instantaneous rate matrix: off-diagonal entries are
// row-normalized exponentials of the exchange logits, the diagonal is
// the negative row sum. Every row sums to zero and off-diagonal
// entries are non-negative, so the result is a valid generator.
func (m *Model) Q() *mat.Dense {
	q := mat.NewDense(m.a, m.a, nil)
	for i := 0; i < m.a; i++ {
		rowSum := 0.0
		for j := 0; j < m.a; j++ {
			if i == j {
				continue
			}
			rowSum += math.Exp(m.exchLogits[i*m.a+j])
		}
		diag := 0.0
		for j := 0; j < m.a; j++ {
			if i == j {
				continue
			}
			v := math.Exp(m.exchLogits[i*m.a+j]) / rowSum
			q.Set(i, j, v)
			diag += v
		}
		q.Set(i, i, -diag)
	}
	return q
}

// EMatrix returns the cached transition matrix engine, rebuilding it
// if the parameters changed.
func (m *Model) EMatrix() *EMatrix {
	if m.em == nil {
		m.em = NewEMatrix(m.Q())
	}
	return m.em
}

// Copy creates an independent copy of the model.
func (m *Model) Copy() *Model {
	newM := NewModel(m.a)
	copy(newM.stationLogits, m.stationLogits)
	copy(newM.exchLogits, m.exchLogits)
	return newM
}

// ClampBranchLength forces a branch length into the valid positive
// range.
func ClampBranchLength(t float64) float64 {
	if t < MinBranchLength {
		return MinBranchLength
	}
	if t > MaxBranchLength {
		return MaxBranchLength
	}
	return t
}
