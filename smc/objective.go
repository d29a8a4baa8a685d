package smc

import (
	"fmt"
	"math"

	"github.com/phylo-smc/vcsmc/optimize"
	"github.com/phylo-smc/vcsmc/subst"
)

// Objective exposes the sampler's lower bound as an optimizable
// scalar. The rate model logits and, optionally, the per-particle
// branch lengths are registered as externally addressable parameter
// handles; every evaluation reruns the sampler with the same seed so
// the objective is a deterministic function of the parameters.
type Objective struct {
	smc        *Sampler
	optBranch  bool
	parameters optimize.FloatParameters
	res        *Result
}

// NewObjective creates the objective for a sampler.
func NewObjective(smc *Sampler) *Objective {
	o := &Objective{smc: smc}
	o.setupParameters()
	return o
}

// SetOptimizeBranchLengths registers the branch length matrices as
// free parameters.
func (o *Objective) SetOptimizeBranchLengths() {
	o.optBranch = true
	o.setupParameters()
}

// setupParameters deletes all the parameters and adds them again.
func (o *Objective) setupParameters() {
	o.parameters = nil
	fpg := optimize.BasicFloatParameterGenerator
	o.addModelParameters(fpg)
	if o.optBranch {
		o.addBranchParameters(fpg)
	}
}

func (o *Objective) addModelParameters(fpg optimize.FloatParameterGenerator) {
	model := o.smc.Model()
	a := model.NAlphabet()
	station := model.StationLogits()
	for i := range station {
		par := fpg(&station[i], fmt.Sprintf("pi%d", i))
		par.SetOnChange(model.Invalidate)
		par.SetMin(optimize.MIN)
		par.SetMax(optimize.MAX)
		par.SetPriorFunc(optimize.UniformPrior(optimize.MIN, optimize.MAX, true, true))
		par.SetProposalFunc(optimize.NormalProposal(0.1))
		o.parameters.Append(par)
	}
	exch := model.ExchLogits()
	for i := 0; i < a; i++ {
		for j := 0; j < a; j++ {
			if i == j {
				continue
			}
			par := fpg(&exch[i*a+j], fmt.Sprintf("q%d_%d", i, j))
			par.SetOnChange(model.Invalidate)
			par.SetMin(optimize.MIN)
			par.SetMax(optimize.MAX)
			par.SetPriorFunc(optimize.UniformPrior(optimize.MIN, optimize.MAX, true, true))
			par.SetProposalFunc(optimize.NormalProposal(0.1))
			o.parameters.Append(par)
		}
	}
}

func (o *Objective) addBranchParameters(fpg optimize.FloatParameterGenerator) {
	left := o.smc.LeftBranches()
	right := o.smc.RightBranches()
	for k := range left {
		for i := range left[k] {
			par := fpg(&left[k][i], fmt.Sprintf("lbr%d_%d", k, i))
			par.SetMin(subst.MinBranchLength)
			par.SetMax(subst.MaxBranchLength)
			par.SetPriorFunc(optimize.GammaPrior(1, 2, false))
			par.SetProposalFunc(optimize.NormalProposal(0.01))
			o.parameters.Append(par)

			par = fpg(&right[k][i], fmt.Sprintf("rbr%d_%d", k, i))
			par.SetMin(subst.MinBranchLength)
			par.SetMax(subst.MaxBranchLength)
			par.SetPriorFunc(optimize.GammaPrior(1, 2, false))
			par.SetProposalFunc(optimize.NormalProposal(0.01))
			o.parameters.Append(par)
		}
	}
}

// GetFloatParameters returns all the optimization parameters.
func (o *Objective) GetFloatParameters() optimize.FloatParameters {
	return o.parameters
}

// Likelihood runs the sampler and returns the lower bound estimate.
// A failed run yields -Inf so the optimizer backs away from the
// offending parameter region.
func (o *Objective) Likelihood() float64 {
	res, err := o.smc.Run()
	if err != nil {
		log.Errorf("sampler run failed: %v", err)
		return math.Inf(-1)
	}
	o.res = res
	return res.ELBO
}

// LastResult returns the result of the most recent run.
func (o *Objective) LastResult() *Result {
	return o.res
}

// Sampler returns the underlying sampler.
func (o *Objective) Sampler() *Sampler {
	return o.smc
}

// Copy creates an independent copy of the objective.
func (o *Objective) Copy() optimize.Optimizable {
	newO := NewObjective(o.smc.Copy())
	if o.optBranch {
		newO.SetOptimizeBranchLengths()
	}
	return newO
}
