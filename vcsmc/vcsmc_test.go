package main

import (
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestLastLineReader(tst *testing.T) {
	line, err := lastLineReader(strings.NewReader("first\nsecond\nthird\n\n"))
	if err != nil {
		tst.Error("Error: ", err)
	}
	if line != "third" {
		tst.Error("Expected 'third', got", line)
	}

	line, err = lastLineReader(strings.NewReader(""))
	if err != nil {
		tst.Error("Error: ", err)
	}
	if line != "" {
		tst.Error("Expected empty line, got", line)
	}
}

func TestDenseToSlices(tst *testing.T) {
	m := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	s := denseToSlices(m)
	if len(s) != 2 || len(s[0]) != 3 {
		tst.Fatal("Unexpected dimensions")
	}
	if s[0][0] != 1 || s[1][2] != 6 {
		tst.Error("Unexpected values:", s)
	}
}

func TestGetOptimizerFromString(tst *testing.T) {
	for _, method := range []string{"lbfgsb", "simplex", "mh", "annealing", "none"} {
		opt, err := getOptimizerFromString(method, 100)
		if err != nil {
			tst.Error("Error for method", method, ": ", err)
		}
		if opt == nil {
			tst.Error("No optimizer for method", method)
		}
	}
	if _, err := getOptimizerFromString("bogus", 100); err == nil {
		tst.Error("Expected error for an unknown method")
	}
}
