package smc

import (
	"math"
	"testing"
)

func TestCorrectOvercounting(tst *testing.T) {
	tests := []struct {
		v          float64
		idx1, idx2 int
		threshold  int
		expected   float64
	}{
		// two leaves
		{1, 0, 1, 3, 2},
		{2, 1, 2, 3, 3},
		// two internal nodes
		{2, 4, 5, 3, 1},
		{3, 5, 4, 3, 2},
		// mixed merges keep v
		{2, 0, 4, 3, 2},
		{2, 4, 0, 3, 2},
		// the threshold index itself counts as neither side
		{2, 3, 0, 3, 2},
		{2, 3, 4, 3, 2},
	}
	for _, test := range tests {
		v := correctOvercounting(test.v, test.idx1, test.idx2, test.threshold)
		if v != test.expected {
			tst.Error("correctOvercounting(", test.v, test.idx1, test.idx2, test.threshold,
				") = ", v, ", expected", test.expected)
		}
	}
}

func TestLogZSMC(tst *testing.T) {
	// equal weights within a step collapse to the weight itself
	lw := [][]float64{
		{-1, -1, -1, -1},
		{-2.5, -2.5, -2.5, -2.5},
	}
	z := logZSMC(lw, 4)
	if math.Abs(z-(-3.5)) > smallDiff {
		tst.Error("Expected -3.5, got", z)
	}

	// one-particle system sums the weights
	lw = [][]float64{{-1}, {2}, {0.5}}
	z = logZSMC(lw, 1)
	if math.Abs(z-1.5) > smallDiff {
		tst.Error("Expected 1.5, got", z)
	}

	// a single step averages the unnormalized weights
	lw = [][]float64{{math.Log(1), math.Log(3)}}
	z = logZSMC(lw, 2)
	if math.Abs(z-math.Log(2)) > smallDiff {
		tst.Error("Expected", math.Log(2), ", got", z)
	}
}

func TestUpdateWeightsFirstStep(tst *testing.T) {
	smc, _ := testSampler(tst, 4, 1)
	st := smc.initState()
	for k := range st.v {
		st.v[k] = 7
	}
	ll := []float64{-1, -2, -3, -4}
	ext := make([]extension, smc.k)

	lw := smc.updateWeights(st, ext, ll, 0)
	for k := range lw {
		if lw[k] != 0 {
			tst.Error("Expected zero weight at the first step, got", lw[k])
		}
		if st.v[k] != 1 {
			tst.Error("Expected v reset to 1 at the first step, got", st.v[k])
		}
	}
}

func TestUpdateWeights(tst *testing.T) {
	smc, _ := testSampler(tst, 2, 1)
	st := smc.initState()
	st.prior = []float64{-10, -20}
	st.v = []float64{1, 1}

	// r=1: threshold = n-r-1 = 3
	ext := []extension{
		{idx1: 0, idx2: 1, q: 0.1}, // two leaves, v -> 2
		{idx1: 0, idx2: 4, q: 0.1}, // mixed, v stays 1
	}
	ll := []float64{-8, -18}
	lw := smc.updateWeights(st, ext, ll, 1)

	expected0 := -8.0 - (-10.0) + math.Log(1./2) - math.Log(0.1)
	expected1 := -18.0 - (-20.0) + math.Log(1.) - math.Log(0.1)
	if math.Abs(lw[0]-expected0) > smallDiff {
		tst.Error("Expected ", expected0, ", got", lw[0])
	}
	if math.Abs(lw[1]-expected1) > smallDiff {
		tst.Error("Expected ", expected1, ", got", lw[1])
	}
	if st.v[0] != 2 || st.v[1] != 1 {
		tst.Error("Unexpected multiplicities:", st.v)
	}
}
