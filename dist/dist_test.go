package dist

import (
	"math"
	"testing"
)

const smallDiff = 1e-4

func TestChiSquaredCDF(tst *testing.T) {
	tests := []struct {
		z, v, expected float64
	}{
		{3.841459, 1, 0.95},
		{5.991465, 2, 0.95},
		{7.814728, 3, 0.95},
		{2.705543, 1, 0.90},
		{0, 3, 0},
		{-1, 3, 0},
	}
	for _, test := range tests {
		p := ChiSquaredCDF(test.z, test.v)
		if math.Abs(p-test.expected) > smallDiff {
			tst.Error("ChiSquaredCDF(", test.z, test.v, ") = ", p,
				", expected", test.expected)
		}
	}
}

func TestQuantileChi2(tst *testing.T) {
	for _, v := range []float64{1, 2, 5, 10} {
		for _, prob := range []float64{0.5, 0.9, 0.95, 0.999} {
			z := QuantileChi2(prob, v)
			p := ChiSquaredCDF(z, v)
			if math.Abs(p-prob) > smallDiff {
				tst.Error("Round trip failed for prob=", prob, "v=", v,
					": got", p)
			}
		}
	}
	if QuantileChi2(0, 3) != 0 {
		tst.Error("Expected zero quantile for zero probability")
	}
}

func TestNormalQuantile(tst *testing.T) {
	if math.Abs(NormalQuantile(0.975)-1.959964) > smallDiff {
		tst.Error("Unexpected 97.5% normal quantile:", NormalQuantile(0.975))
	}
	if math.Abs(NormalQuantile(0.5)) > smallDiff {
		tst.Error("Unexpected median:", NormalQuantile(0.5))
	}
}
