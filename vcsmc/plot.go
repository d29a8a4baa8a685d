package main

import (
	"errors"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/phylo-smc/vcsmc/optimize"
)

// plotTrajectory saves a plot of the lower bound trajectory.
func plotTrajectory(trace []optimize.TracePoint, fn string) error {
	if len(trace) == 0 {
		return errors.New("empty trajectory")
	}
	p := plot.New()
	p.Title.Text = "Lower bound trajectory"
	p.X.Label.Text = "iteration"
	p.Y.Label.Text = "ELBO"

	pts := make(plotter.XYs, len(trace))
	for i, t := range trace {
		pts[i].X = float64(t.Iter)
		pts[i].Y = t.L
	}

	if err := plotutil.AddLinePoints(p, "ELBO", pts); err != nil {
		return err
	}

	return p.Save(6*vg.Inch, 4*vg.Inch, fn)
}

// qGrid adapts a rate matrix for heat map plotting. Rows are plotted
// top to bottom.
type qGrid struct {
	m *mat.Dense
}

func (g qGrid) Dims() (c, r int) {
	r, c = g.m.Dims()
	return c, r
}

func (g qGrid) Z(c, r int) float64 {
	rows, _ := g.m.Dims()
	return g.m.At(rows-r-1, c)
}

func (g qGrid) X(c int) float64 { return float64(c) }
func (g qGrid) Y(r int) float64 { return float64(r) }

// plotQMatrix saves a heat map of the substitution rate matrix.
func plotQMatrix(q *mat.Dense, fn string) error {
	p := plot.New()
	p.Title.Text = "Substitution rate matrix"

	h := plotter.NewHeatMap(qGrid{q}, palette.Heat(12, 1))
	p.Add(h)

	return p.Save(4*vg.Inch, 4*vg.Inch, fn)
}
