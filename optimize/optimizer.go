// Package optimize provides parameter handles and optimizers for
// maximizing a scalar objective.
package optimize

import (
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/op/go-logging"

	"github.com/phylo-smc/vcsmc/checkpoint"
)

// log is a global logging variable.
var log = logging.MustGetLogger("optimize")

// Optimizable is an objective with addressable parameters. For the
// phylogenetic sampler the objective is the lower bound estimate of
// the log marginal likelihood.
type Optimizable interface {
	// GetFloatParameters returns the adjustable parameters.
	GetFloatParameters() FloatParameters
	// Likelihood computes the objective for the current parameter
	// values.
	Likelihood() float64
	// Copy creates an independent copy of the objective.
	Copy() Optimizable
}

// Optimizer maximizes an Optimizable.
type Optimizer interface {
	SetOptimizable(Optimizable)
	WatchSignals(...os.Signal)
	SetReportPeriod(period int)
	SetOutput(io.Writer)
	SetCheckpointIO(*checkpoint.CheckpointIO)
	Run(iterations int)
	GetL() float64
	GetMaxL() float64
	GetMaxLParameters() []float64
	Trajectory() []TracePoint
	Summary() *Summary
}

// TracePoint is a single point of the optimization trajectory.
type TracePoint struct {
	// Iter is the iteration number.
	Iter int `json:"iter"`
	// L is the objective value.
	L float64 `json:"l"`
}

// Summary stores the result of an optimizer run.
type Summary struct {
	// MaxLnL is the maximum objective value.
	MaxLnL float64 `json:"maxLnL"`
	// MaxLParameters is the maximizing parameter values.
	MaxLParameters map[string]float64 `json:"maxLParameters"`
	// Iterations is the number of iterations performed.
	Iterations int `json:"iterations"`
	// Calls is the number of objective evaluations.
	Calls int `json:"calls"`
}

// BaseOptimizer contains the machinery shared by all optimizers.
type BaseOptimizer struct {
	Optimizable
	parameters FloatParameters
	i          int
	l          float64
	maxL       float64
	maxLPar    []float64
	calls      int
	repPeriod  int
	sig        chan os.Signal
	output     io.Writer
	trace      []TracePoint
	chk        *checkpoint.CheckpointIO
	Quiet      bool
}

// SetOptimizable sets the objective.
func (o *BaseOptimizer) SetOptimizable(opt Optimizable) {
	o.Optimizable = opt
	o.parameters = opt.GetFloatParameters()
}

// WatchSignals makes the optimizer stop gracefully on a signal.
func (o *BaseOptimizer) WatchSignals(sigs ...os.Signal) {
	o.sig = make(chan os.Signal, 1)
	signal.Notify(o.sig, sigs...)
}

// SetReportPeriod sets the trajectory reporting period.
func (o *BaseOptimizer) SetReportPeriod(period int) {
	o.repPeriod = period
}

// SetOutput sets the trajectory output writer.
func (o *BaseOptimizer) SetOutput(w io.Writer) {
	o.output = w
}

func (o *BaseOptimizer) out() io.Writer {
	if o.output == nil {
		return os.Stdout
	}
	return o.output
}

// PrintHeader prints the trajectory header.
func (o *BaseOptimizer) PrintHeader(parameters FloatParameters) {
	if !o.Quiet {
		fmt.Fprintf(o.out(), "iteration\tlikelihood\t%s\n", parameters.NamesString())
	}
}

// SetCheckpointIO sets the checkpoint saver.
func (o *BaseOptimizer) SetCheckpointIO(chk *checkpoint.CheckpointIO) {
	o.chk = chk
}

// SaveCheckpoint saves parameters to the checkpoint database. Unless
// final is true, nothing is saved if the last save was recent.
func (o *BaseOptimizer) SaveCheckpoint(final bool) {
	if o.chk == nil {
		return
	}
	if !final && !o.chk.Old() {
		return
	}
	data := &checkpoint.CheckpointData{
		Parameters: make(map[string]float64, len(o.parameters)),
		Elbo:       o.l,
		Iter:       o.i,
		Final:      final,
	}
	for _, par := range o.parameters {
		data.Parameters[par.Name()] = par.Get()
	}
	if err := o.chk.Save(data); err != nil {
		log.Error("Error saving checkpoint:", err)
	}
}

// PrintLine prints one trajectory line and records the trajectory
// point.
func (o *BaseOptimizer) PrintLine(parameters FloatParameters, l float64) {
	o.trace = append(o.trace, TracePoint{Iter: o.i, L: l})
	o.SaveCheckpoint(false)
	if !o.Quiet {
		fmt.Fprintf(o.out(), "%d\t%f\t%s\n", o.i, l, parameters.ValuesString())
	}
}

// Trajectory returns the recorded trajectory points.
func (o *BaseOptimizer) Trajectory() []TracePoint {
	return o.trace
}

// PrintFinal prints the final parameter values.
func (o *BaseOptimizer) PrintFinal(parameters FloatParameters) {
	if !o.Quiet {
		for _, par := range parameters {
			log.Noticef("%s=%v", par.Name(), par.Get())
		}
	}
}

// GetL returns the last objective value.
func (o *BaseOptimizer) GetL() float64 {
	return o.l
}

// GetMaxL returns the maximum objective value seen.
func (o *BaseOptimizer) GetMaxL() float64 {
	return o.maxL
}

// GetMaxLParameters returns the parameter values for the maximum
// objective.
func (o *BaseOptimizer) GetMaxLParameters() []float64 {
	return o.maxLPar
}

// Summary returns the run summary.
func (o *BaseOptimizer) Summary() *Summary {
	s := &Summary{
		MaxLnL:         o.maxL,
		MaxLParameters: make(map[string]float64, len(o.parameters)),
		Iterations:     o.i,
		Calls:          o.calls,
	}
	names := o.parameters.Names(nil)
	for i, v := range o.maxLPar {
		s.MaxLParameters[names[i]] = v
	}
	return s
}
