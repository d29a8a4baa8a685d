package smc

import (
	"math"
	"testing"

	"github.com/phylo-smc/vcsmc/bio"
	"github.com/phylo-smc/vcsmc/subst"
)

func TestConditionalLikelihood(tst *testing.T) {
	// two positions over a two letter alphabet
	ldata := []float64{1, 0, 0, 1}
	rdata := []float64{0, 1, 1, 0}
	pl := []float64{0.9, 0.1, 0.2, 0.8}
	pr := []float64{0.7, 0.3, 0.4, 0.6}

	res := conditionalLikelihood(ldata, rdata, pl, pr, 2, 2)

	// position 0: left observed letter 0, right observed letter 1
	expected := []float64{
		0.9 * 0.4, 0.1 * 0.6,
		0.2 * 0.7, 0.8 * 0.3,
	}
	for i := range expected {
		if math.Abs(res[i]-expected[i]) > smallDiff {
			tst.Error("Expected ", expected[i], ", got", res[i], "at", i)
		}
	}
}

func TestConditionalLikelihoodNonNegative(tst *testing.T) {
	model := subst.NewModel(bio.NAlphabet)
	p, err := model.EMatrix().Exp(0.3)
	if err != nil {
		tst.Fatal("Error: ", err)
	}

	ldata := []float64{1, 0, 0, 0, 0, 0, 1, 0}
	rdata := []float64{0, 1, 0, 0, 1, 1, 1, 1}
	res := conditionalLikelihood(ldata, rdata, p, p, 2, 4)
	for i, v := range res {
		if v < 0 {
			tst.Error("Negative partial likelihood", v, "at", i)
		}
	}
}

func TestTreeLogLikelihood(tst *testing.T) {
	pi := []float64{0.6, 0.4}
	data := []float64{1, 0, 0.5, 0.5}
	res := treeLogLikelihood(data, pi, 2, 2)
	expected := math.Log(0.6) + math.Log(0.5)
	if math.Abs(res-expected) > smallDiff {
		tst.Error("Expected ", expected, ", got", res)
	}
}

// TestMergeAndScore checks that a merge rebuilds the forest with the
// kept nodes in order and the new ancestor appended last.
func TestMergeAndScore(tst *testing.T) {
	smc, model := testSampler(tst, 4, 1)
	st := smc.initState()
	pi := model.StationaryProbs()
	em := model.EMatrix()

	ext := make([]extension, smc.k)
	for k := range ext {
		ext[k] = extension{
			idx1:  1,
			idx2:  3,
			keep:  []int{0, 2, 4},
			label: st.labels[k][1] + "+" + st.labels[k][3],
			q:     1 / choose2(smc.n),
		}
	}

	ll, err := smc.mergeAndScore(st, ext, pi, em, 0)
	if err != nil {
		tst.Fatal("Error: ", err)
	}

	for k := 0; k < smc.k; k++ {
		if len(st.labels[k]) != smc.n-1 {
			tst.Fatal("Expected", smc.n-1, "active nodes, got", len(st.labels[k]))
		}
		if st.labels[k][0] != "s1" || st.labels[k][1] != "s3" || st.labels[k][2] != "s5" {
			tst.Error("Kept labels out of order:", st.labels[k])
		}
		if st.labels[k][3] != "s2+s4" {
			tst.Error("Expected new node last, got", st.labels[k])
		}
		if math.IsNaN(ll[k]) || ll[k] >= 0 {
			tst.Error("Invalid forest log-likelihood:", ll[k])
		}
		// identical extensions give identical likelihoods
		if math.Abs(ll[k]-ll[0]) > smallDiff {
			tst.Error("Expected ", ll[0], ", got", ll[k])
		}
	}
}
