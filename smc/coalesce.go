package smc

import (
	"math"
	"math/rand"
)

// extension describes one sampled coalescent event for a particle.
type extension struct {
	// idx1, idx2 are the indices of the coalescing pair in the
	// active forest, idx1 is the top perturbed score.
	idx1, idx2 int
	// keep holds the retained indices in ascending order.
	keep []int
	// label is the new internal node name.
	label string
	// q is the proposal probability of the pair, 1/C(m,2).
	q float64
}

// choose2 computes C(m,2).
func choose2(m int) float64 {
	return float64(m) * float64(m-1) / 2
}

// gumbel draws a standard Gumbel variate.
func gumbel(rnd *rand.Rand) float64 {
	return -math.Log(-math.Log(rnd.Float64()))
}

// samplePair picks an unordered pair out of m nodes with the
// Gumbel-max trick: every node score is pure Gumbel noise and the
// top-2 perturbed indices coalesce. With equal underlying scores
// every one of the C(m,2) pairs has exactly probability 1/C(m,2).
func samplePair(rnd *rand.Rand, m int) (idx1, idx2 int) {
	if m < 2 {
		panic("samplePair requires at least 2 active nodes")
	}
	best, second := math.Inf(-1), math.Inf(-1)
	idx1, idx2 = -1, -1
	for i := 0; i < m; i++ {
		z := gumbel(rnd)
		switch {
		case z > best:
			second, idx2 = best, idx1
			best, idx1 = z, i
		case z > second:
			second, idx2 = z, i
		}
	}
	return idx1, idx2
}

// extendAll samples one coalescent event per particle. At step r
// every particle has m = n-r active nodes; the two chosen nodes are
// removed and their concatenated label becomes the new node name.
func (smc *Sampler) extendAll(rnd *rand.Rand, st *state, r int) []extension {
	m := smc.n - r
	q := 1 / choose2(m)
	ext := make([]extension, smc.k)
	for k := 0; k < smc.k; k++ {
		idx1, idx2 := samplePair(rnd, m)
		keep := make([]int, 0, m-2)
		for i := 0; i < m; i++ {
			if i != idx1 && i != idx2 {
				keep = append(keep, i)
			}
		}
		ext[k] = extension{
			idx1:  idx1,
			idx2:  idx2,
			keep:  keep,
			label: st.labels[k][idx1] + "+" + st.labels[k][idx2],
			q:     q,
		}
	}
	return ext
}
