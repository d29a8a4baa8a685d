package optimize

import (
	"io/ioutil"
	"math"
	"math/rand"
	"testing"

	"github.com/op/go-logging"
)

const smallDiff = 1e-3

func init() {
	logging.SetLevel(logging.WARNING, "optimize")
}

// quadratic is a toy objective with a known maximum at (2, -1).
type quadratic struct {
	x, y       float64
	parameters FloatParameters
}

func newQuadratic(x, y float64) *quadratic {
	q := &quadratic{x: x, y: y}
	for _, h := range []struct {
		v    *float64
		name string
	}{{&q.x, "x"}, {&q.y, "y"}} {
		par := NewBasicFloatParameter(h.v, h.name)
		par.SetMin(MIN)
		par.SetMax(MAX)
		par.SetPriorFunc(UniformPrior(MIN, MAX, true, true))
		par.SetProposalFunc(NormalProposal(0.5))
		q.parameters.Append(par)
	}
	return q
}

func (q *quadratic) GetFloatParameters() FloatParameters {
	return q.parameters
}

func (q *quadratic) Likelihood() float64 {
	return -(q.x-2)*(q.x-2) - (q.y+1)*(q.y+1)
}

func (q *quadratic) Copy() Optimizable {
	return newQuadratic(q.x, q.y)
}

func TestNone(tst *testing.T) {
	opt := NewNone()
	opt.Quiet = true
	opt.SetOutput(ioutil.Discard)
	opt.SetOptimizable(newQuadratic(0, 0))
	opt.Run(1)
	if opt.GetL() != -5 {
		tst.Error("Expected -5, got", opt.GetL())
	}
	if opt.GetMaxL() != -5 {
		tst.Error("Expected -5, got", opt.GetMaxL())
	}
}

func TestDS(tst *testing.T) {
	opt := NewDS()
	opt.Quiet = true
	opt.SetOutput(ioutil.Discard)
	opt.SetOptimizable(newQuadratic(0, 0))
	opt.Run(1000)

	if opt.GetMaxL() < -smallDiff {
		tst.Error("Expected maximum near 0, got", opt.GetMaxL())
	}
	par := opt.GetMaxLParameters()
	if math.Abs(par[0]-2) > 0.1 || math.Abs(par[1]+1) > 0.1 {
		tst.Error("Expected maximum near (2, -1), got", par)
	}

	if len(opt.Trajectory()) == 0 {
		tst.Error("Empty trajectory after a run")
	}
}

func TestMHAnnealing(tst *testing.T) {
	rand.Seed(1)
	opt := NewMH(true, 0)
	opt.Quiet = true
	opt.SetOutput(ioutil.Discard)
	opt.SetOptimizable(newQuadratic(0, 0))
	opt.Run(5000)

	if opt.GetMaxL() < -0.5 {
		tst.Error("Expected maximum near 0, got", opt.GetMaxL())
	}

	s := opt.Summary()
	if s.MaxLnL != opt.GetMaxL() {
		tst.Error("Summary disagrees with the optimizer:", s.MaxLnL, opt.GetMaxL())
	}
	if s.Calls == 0 {
		tst.Error("Summary reports no objective calls")
	}
	if _, ok := s.MaxLParameters["x"]; !ok {
		tst.Error("Summary misses a parameter")
	}
}
