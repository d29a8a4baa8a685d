package smc

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// correctOvercounting updates the multiplicity v for one merge.
// Particles reaching the same partial topology through different
// merge orders would be overcounted; v tracks how many orderings are
// consistent with the current partial topology. Indices below the
// threshold are original leaves, indices above it are previously
// created internal nodes: two leaves add an ordering, two internal
// nodes remove one, a mixed merge changes nothing.
func correctOvercounting(v float64, idx1, idx2, threshold int) float64 {
	switch {
	case idx1 < threshold && idx2 < threshold:
		return v + 1
	case idx1 > threshold && idx2 > threshold:
		return v - 1
	}
	return v
}

// updateWeights computes the incremental importance weight for every
// particle at step r. The weight is the forest log-likelihood ratio
// against the resampled ancestor, corrected by the multiplicity
// factor 1/v and the proposal probability q. At step 0 the weights
// are zero and v is fixed at 1.
func (smc *Sampler) updateWeights(st *state, ext []extension, ll []float64, r int) []float64 {
	lw := make([]float64, smc.k)
	if r == 0 {
		for k := range st.v {
			st.v[k] = 1
		}
		return lw
	}
	threshold := smc.n - r - 1
	for k := 0; k < smc.k; k++ {
		st.v[k] = correctOvercounting(st.v[k], ext[k].idx1, ext[k].idx2, threshold)
		lw[k] = ll[k] - st.prior[k] + math.Log(1/st.v[k]) - math.Log(ext[k].q)
	}
	return lw
}

// logZSMC reduces the step x particle weight table into the
// multi-sample lower bound estimator:
// sum over steps of logsumexp_k(logWeight - log K).
func logZSMC(logWeights [][]float64, k int) float64 {
	logK := math.Log(float64(k))
	shifted := make([]float64, k)
	res := 0.0
	for _, lw := range logWeights {
		for i, w := range lw {
			shifted[i] = w - logK
		}
		res += floats.LogSumExp(shifted)
	}
	return res
}
