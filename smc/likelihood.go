package smc

import (
	"math"
	"runtime"

	"github.com/phylo-smc/vcsmc/subst"
)

// conditionalLikelihood computes the partial likelihood of the new
// ancestor node: the elementwise product of the left and right
// partials propagated through their transition matrices. All inputs
// are flat s x a row-major slices, pl and pr are a x a. The output is
// entrywise non-negative for valid inputs.
func conditionalLikelihood(ldata, rdata, pl, pr []float64, s, a int) []float64 {
	res := make([]float64, s*a)
	for pos := 0; pos < s; pos++ {
		lrow := ldata[pos*a : (pos+1)*a]
		rrow := rdata[pos*a : (pos+1)*a]
		out := res[pos*a : (pos+1)*a]
		for j := 0; j < a; j++ {
			lsum := 0.0
			rsum := 0.0
			for i := 0; i < a; i++ {
				lsum += lrow[i] * pl[i*a+j]
				rsum += rrow[i] * pr[i*a+j]
			}
			out[j] = lsum * rsum
		}
	}
	return res
}

// treeLogLikelihood dots the stationary distribution against a
// partial likelihood and sums the log likelihood over positions.
func treeLogLikelihood(data, pi []float64, s, a int) (res float64) {
	for pos := 0; pos < s; pos++ {
		sum := 0.0
		for j := 0; j < a; j++ {
			sum += pi[j] * data[pos*a+j]
		}
		res += math.Log(sum)
	}
	return
}

// mergeAndScore computes the new ancestor partial likelihood for
// every particle, rebuilds the active forests and returns the
// per-particle forest log-likelihoods (the sum of tree
// log-likelihoods over all current roots). The per-particle work is
// independent and fans out over a worker pool; the caller provides
// the synchronization barrier.
func (smc *Sampler) mergeAndScore(st *state, ext []extension, pi []float64, em *subst.EMatrix, r int) ([]float64, error) {
	ll := make([]float64, smc.k)
	errs := make([]error, smc.k)

	nWorkers := runtime.GOMAXPROCS(0)
	tasks := make(chan int, smc.k)
	done := make(chan struct{}, nWorkers)

	for w := 0; w < nWorkers; w++ {
		go func() {
			for k := range tasks {
				e := ext[k]
				pl, err := em.Exp(smc.leftBranches[k][r])
				if err != nil {
					errs[k] = err
					continue
				}
				pr, err := em.Exp(smc.rightBranches[k][r])
				if err != nil {
					errs[k] = err
					continue
				}
				newRow := conditionalLikelihood(
					st.core[k][e.idx1], st.core[k][e.idx2],
					pl, pr, smc.s, smc.a)

				core := make([][]float64, 0, len(e.keep)+1)
				labels := make([]string, 0, len(e.keep)+1)
				for _, i := range e.keep {
					core = append(core, st.core[k][i])
					labels = append(labels, st.labels[k][i])
				}
				st.core[k] = append(core, newRow)
				st.labels[k] = append(labels, e.label)
				st.history[k] = append(st.history[k], e.label)

				res := 0.0
				for _, row := range st.core[k] {
					res += treeLogLikelihood(row, pi, smc.s, smc.a)
				}
				ll[k] = res
			}
			done <- struct{}{}
		}()
	}

	for k := 0; k < smc.k; k++ {
		tasks <- k
	}
	close(tasks)
	for w := 0; w < nWorkers; w++ {
		<-done
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return ll, nil
}
