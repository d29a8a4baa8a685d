// Package dist implements distribution functions used by the
// statistical checks.
package dist

import (
	"github.com/gonum/mathext"
)

// ChiSquaredCDF returns Prob{x<z} for a chi-squared distribution with
// v degrees of freedom.
func ChiSquaredCDF(z, v float64) float64 {
	if z <= 0 {
		return 0
	}
	return mathext.GammaInc(v/2, z/2)
}

// QuantileChi2 returns z so that Prob{x<z}=prob where x is chi-squared
// distributed with df=v. Bisection on the CDF.
func QuantileChi2(prob, v float64) float64 {
	if prob <= 0 {
		return 0
	}
	lo, hi := 0.0, 1.0
	for ChiSquaredCDF(hi, v) < prob {
		hi *= 2
		if hi > 1e8 {
			break
		}
	}
	for i := 0; i < 200; i++ {
		mid := (lo + hi) / 2
		if ChiSquaredCDF(mid, v) < prob {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

// NormalQuantile returns the quantile of the standard normal
// distribution.
func NormalQuantile(prob float64) float64 {
	return mathext.NormalQuantile(prob)
}
