// Package smc implements a combinatorial sequential Monte Carlo
// sampler over phylogenetic tree topologies built through pairwise
// coalescent merges. The sampler produces a multi-sample lower bound
// (logZ_SMC) on the marginal likelihood of the observed sequences.
package smc

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/op/go-logging"

	"github.com/phylo-smc/vcsmc/bio"
	"github.com/phylo-smc/vcsmc/subst"
)

// log is a global logging variable.
var log = logging.MustGetLogger("smc")

// Sampler holds the fixed dataset, the substitution model and the
// per-particle branch length parameters. A Run is a pure function of
// these and the seed; all evolving state is threaded through the
// step functions explicitly.
type Sampler struct {
	ali   *bio.Alignment
	model *subst.Model

	// number of particles
	k int
	// dataset dimensions
	n, s, a int
	seed    int64

	// branch lengths per particle per coalescent event, K x (n-1)
	leftBranches  [][]float64
	rightBranches [][]float64
}

// Result is the output of a single sampler run.
type Result struct {
	// ELBO is the logZ_SMC estimator value.
	ELBO float64
	// LogWeights is the (n-1) x K table of incremental importance
	// weights.
	LogWeights [][]float64
	// LogLikelihood is the (n-1) x K table of per-step forest
	// log-likelihoods.
	LogLikelihood [][]float64
	// JumpChains records, per particle, the merged node label of
	// every coalescent event.
	JumpChains [][]string
	// Roots holds the final root label of every particle.
	Roots []string
}

// NewSampler creates a sampler for k particles. Branch lengths start
// at 1.
func NewSampler(ali *bio.Alignment, model *subst.Model, k int, seed int64) (*Sampler, error) {
	n := ali.NTaxa()
	s := ali.Length()
	a := model.NAlphabet()
	if n < 2 {
		return nil, fmt.Errorf("need at least 2 taxa, got %d", n)
	}
	if s < 1 {
		return nil, fmt.Errorf("zero length alignment")
	}
	if k < 1 {
		return nil, fmt.Errorf("need at least 1 particle, got %d", k)
	}
	for i := range ali.Genome {
		if len(ali.Genome[i]) != s {
			return nil, fmt.Errorf("taxon <%s>: %d positions, expected %d",
				ali.Taxa[i], len(ali.Genome[i]), s)
		}
		for pos := range ali.Genome[i] {
			if len(ali.Genome[i][pos]) != a {
				return nil, fmt.Errorf("taxon <%s> position %d: alphabet size %d, model has %d",
					ali.Taxa[i], pos, len(ali.Genome[i][pos]), a)
			}
		}
	}
	smc := &Sampler{
		ali:           ali,
		model:         model,
		k:             k,
		n:             n,
		s:             s,
		a:             a,
		seed:          seed,
		leftBranches:  make([][]float64, k),
		rightBranches: make([][]float64, k),
	}
	for i := 0; i < k; i++ {
		smc.leftBranches[i] = make([]float64, n-1)
		smc.rightBranches[i] = make([]float64, n-1)
		for j := 0; j < n-1; j++ {
			smc.leftBranches[i][j] = 1
			smc.rightBranches[i][j] = 1
		}
	}
	return smc, nil
}

// NParticles returns the number of particles.
func (smc *Sampler) NParticles() int {
	return smc.k
}

// NTaxa returns the number of taxa.
func (smc *Sampler) NTaxa() int {
	return smc.n
}

// SetSeed changes the seed used by Run.
func (smc *Sampler) SetSeed(seed int64) {
	smc.seed = seed
}

// LeftBranches returns the left branch length matrix (K x n-1). The
// slices are the backing store used during a run.
func (smc *Sampler) LeftBranches() [][]float64 {
	return smc.leftBranches
}

// RightBranches returns the right branch length matrix (K x n-1).
func (smc *Sampler) RightBranches() [][]float64 {
	return smc.rightBranches
}

// Model returns the substitution model.
func (smc *Sampler) Model() *subst.Model {
	return smc.model
}

// Copy creates a sampler sharing the dataset but owning copies of
// the model and branch lengths.
func (smc *Sampler) Copy() *Sampler {
	newS, err := NewSampler(smc.ali, smc.model.Copy(), smc.k, smc.seed)
	if err != nil {
		panic(err)
	}
	for i := 0; i < smc.k; i++ {
		copy(newS.leftBranches[i], smc.leftBranches[i])
		copy(newS.rightBranches[i], smc.rightBranches[i])
	}
	return newS
}

// state is the particle system state threaded through the step
// functions.
type state struct {
	// labels holds the active forest node labels per particle.
	labels [][]string
	// core holds the partial likelihoods of the active nodes, one
	// flat s x a row-major slice per node.
	core [][][]float64
	// history records the merged label per completed step.
	history [][]string
	// v is the overcounting multiplicity.
	v []float64
	// prior is the forest log-likelihood of the particle's
	// resampled ancestor.
	prior []float64
}

// initState clones the observed dataset across K particles. Leaf
// partial likelihoods are the one-hot observed sequences.
func (smc *Sampler) initState() *state {
	st := &state{
		labels:  make([][]string, smc.k),
		core:    make([][][]float64, smc.k),
		history: make([][]string, smc.k),
		v:       make([]float64, smc.k),
		prior:   make([]float64, smc.k),
	}
	leaf := make([][]float64, smc.n)
	for i := 0; i < smc.n; i++ {
		leaf[i] = make([]float64, smc.s*smc.a)
		for pos := 0; pos < smc.s; pos++ {
			copy(leaf[i][pos*smc.a:(pos+1)*smc.a], smc.ali.Genome[i][pos])
		}
	}
	for k := 0; k < smc.k; k++ {
		st.labels[k] = append([]string(nil), smc.ali.Taxa...)
		st.core[k] = make([][]float64, smc.n)
		for i := 0; i < smc.n; i++ {
			st.core[k][i] = leaf[i]
		}
		st.history[k] = make([]string, 0, smc.n-1)
		st.v[k] = 1
	}
	return st
}

// Run executes the n-1 coalescent steps and reduces the weight table
// into the lower bound estimator. The run is deterministic given the
// seed and the current parameter values.
func (smc *Sampler) Run() (*Result, error) {
	rnd := rand.New(rand.NewSource(smc.seed))
	pi := smc.model.StationaryProbs()
	em := smc.model.EMatrix()

	st := smc.initState()
	logWeights := make([][]float64, 0, smc.n-1)
	logLikelihood := make([][]float64, 0, smc.n-1)

	for r := 0; r < smc.n-1; r++ {
		if r > 0 {
			indices := categorical(rnd, logWeights[r-1], smc.k)
			st.gather(indices, logLikelihood[r-1])
		}
		ext := smc.extendAll(rnd, st, r)
		ll, err := smc.mergeAndScore(st, ext, pi, em, r)
		if err != nil {
			return nil, err
		}
		lw := smc.updateWeights(st, ext, ll, r)
		logWeights = append(logWeights, lw)
		logLikelihood = append(logLikelihood, ll)
	}

	elbo := logZSMC(logWeights, smc.k)
	if math.IsNaN(elbo) || math.IsInf(elbo, 0) {
		return nil, fmt.Errorf("estimator is not finite: %v", elbo)
	}
	log.Debugf("logZ_SMC=%v", elbo)

	res := &Result{
		ELBO:          elbo,
		LogWeights:    logWeights,
		LogLikelihood: logLikelihood,
		JumpChains:    st.history,
		Roots:         make([]string, smc.k),
	}
	for k := 0; k < smc.k; k++ {
		res.Roots[k] = st.labels[k][0]
	}
	return res, nil
}

// gather replaces the particle population with the resampled
// ancestors and realigns the prior log-likelihood.
func (st *state) gather(indices []int, prevLogLikelihood []float64) {
	k := len(indices)
	labels := make([][]string, k)
	core := make([][][]float64, k)
	history := make([][]string, k)
	for i, idx := range indices {
		labels[i] = append([]string(nil), st.labels[idx]...)
		core[i] = append([][]float64(nil), st.core[idx]...)
		history[i] = append([]string(nil), st.history[idx]...)
		st.prior[i] = prevLogLikelihood[idx]
	}
	st.labels = labels
	st.core = core
	st.history = history
	// The multiplicity v stays with the particle slot, it is not
	// part of the resampled state.
}
