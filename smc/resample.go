package smc

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// categorical draws k indices with replacement from the categorical
// distribution whose unnormalized log-probabilities are logWeights.
// The returned permutation is used to realign the prior forest
// log-likelihoods after resampling.
func categorical(rnd *rand.Rand, logWeights []float64, k int) []int {
	norm := floats.LogSumExp(logWeights)
	cdf := make([]float64, len(logWeights))
	acc := 0.0
	for i, lw := range logWeights {
		acc += math.Exp(lw - norm)
		cdf[i] = acc
	}
	// guard against rounding in the last bin
	cdf[len(cdf)-1] = 1

	indices := make([]int, k)
	for i := 0; i < k; i++ {
		u := rnd.Float64()
		lo, hi := 0, len(cdf)-1
		for lo < hi {
			mid := (lo + hi) / 2
			if cdf[mid] < u {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		indices[i] = lo
	}
	return indices
}
