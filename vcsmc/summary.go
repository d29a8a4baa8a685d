package main

import (
	"gonum.org/v1/gonum/mat"

	"github.com/phylo-smc/vcsmc/optimize"
)

// RunSummary stores summary information.
type RunSummary struct {
	// Version is the version of the binary.
	Version string `json:"version"`
	// CommandLine is the command line.
	CommandLine []string `json:"commandLine"`
	// Seed is the random seed.
	Seed int64 `json:"seed"`
	// NThreads is the number of threads used.
	NThreads int `json:"nThreads"`
	// Elbo is the final lower bound on the log marginal likelihood.
	Elbo float64 `json:"elbo"`
	// QMatrix is the estimated substitution rate matrix.
	QMatrix [][]float64 `json:"qMatrix"`
	// StationaryProbs is the estimated stationary distribution.
	StationaryProbs []float64 `json:"stationaryProbs"`
	// LeftBranches is the left branch length matrix (particles x
	// coalescent steps).
	LeftBranches [][]float64 `json:"leftBranches"`
	// RightBranches is the right branch length matrix.
	RightBranches [][]float64 `json:"rightBranches"`
	// JumpChains is the per-particle sequence of merge labels.
	JumpChains [][]string `json:"jumpChains"`
	// Optimizer is the optimizer summary.
	Optimizer *optimize.Summary `json:"optimizer"`
	// Time is the runtime in seconds.
	Time float64 `json:"time"`
}

// denseToSlices converts a dense matrix to a slice of row slices.
func denseToSlices(m *mat.Dense) [][]float64 {
	r, c := m.Dims()
	res := make([][]float64, r)
	for i := 0; i < r; i++ {
		res[i] = make([]float64, c)
		for j := 0; j < c; j++ {
			res[i][j] = m.At(i, j)
		}
	}
	return res
}
