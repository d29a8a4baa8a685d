package smc

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/stat"

	"github.com/phylo-smc/vcsmc/dist"
)

// TestCategorical checks the empirical resampling frequencies against
// the softmax of the log weights.
func TestCategorical(tst *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	probs := []float64{0.2, 0.3, 0.5}
	logWeights := make([]float64, len(probs))
	for i, p := range probs {
		// unnormalized on purpose
		logWeights[i] = math.Log(p) + 3
	}

	draws := 100000
	counts := make([]int, len(probs))
	for i := 0; i < draws; i++ {
		indices := categorical(rnd, logWeights, 1)
		counts[indices[0]]++
	}

	obs := make([]float64, len(probs))
	exp := make([]float64, len(probs))
	for i, c := range counts {
		obs[i] = float64(c)
		exp[i] = probs[i] * float64(draws)
	}
	x2 := stat.ChiSquare(obs, exp)
	limit := dist.QuantileChi2(0.999, float64(len(probs)-1))
	tst.Log("X2=", x2, ", limit=", limit)
	if x2 > limit {
		tst.Error("Resampling frequencies are off, X2=", x2, "limit=", limit)
	}
}

func TestCategoricalDegenerate(tst *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	// all mass on index 1
	logWeights := []float64{-1000, 0, -1000}
	indices := categorical(rnd, logWeights, 100)
	if len(indices) != 100 {
		tst.Fatal("Expected 100 indices, got", len(indices))
	}
	for _, idx := range indices {
		if idx != 1 {
			tst.Error("Expected index 1, got", idx)
		}
	}
}

func TestGatherRealignsPrior(tst *testing.T) {
	smc, _ := testSampler(tst, 3, 1)
	st := smc.initState()
	st.history[0] = append(st.history[0], "x")
	st.history[1] = append(st.history[1], "y")
	st.history[2] = append(st.history[2], "z")
	st.v = []float64{1, 2, 3}

	prev := []float64{-1, -2, -3}
	st.gather([]int{2, 2, 0}, prev)

	if st.prior[0] != -3 || st.prior[1] != -3 || st.prior[2] != -1 {
		tst.Error("Prior not realigned:", st.prior)
	}
	if st.history[0][0] != "z" || st.history[1][0] != "z" || st.history[2][0] != "x" {
		tst.Error("History not gathered")
	}
	// multiplicity stays with the slot
	if st.v[0] != 1 || st.v[1] != 2 || st.v[2] != 3 {
		tst.Error("Multiplicity should not be gathered:", st.v)
	}

	// gathered copies must be independent
	st.history[0][0] = "w"
	if st.history[1][0] != "z" {
		tst.Error("Gathered histories share memory")
	}
}
