package optimize

import (
	"encoding/json"
	"testing"
)

const (
	json1 = "{\"a\":7.2,\"b\":1.17e-22,\"c\":0,\"d \\\"!\":0.999999}"
)

func TestMarshalParameters(tst *testing.T) {
	var pars FloatParameters
	a := 7.2
	b := 1.17e-22
	c := 0.0
	d := 0.999999
	pars.Append(NewBasicFloatParameter(&a, "a"))
	pars.Append(NewBasicFloatParameter(&b, "b"))
	pars.Append(NewBasicFloatParameter(&c, "c"))
	pars.Append(NewBasicFloatParameter(&d, "d \"!"))
	j, err := json.Marshal(pars)
	if err != nil {
		tst.Error("Error: ", err)
	}
	if string(j) != json1 {
		tst.Errorf("Incorrect encoded json value. Expected:\n'%v'\n got\n'%v'", json1, string(j))
	}
}

func TestUnmarshalParameters(tst *testing.T) {
	var pars FloatParameters
	a := 1.0
	b := 1.0
	c := 1.0
	d := 1.0
	pars.Append(NewBasicFloatParameter(&a, "a"))
	pars.Append(NewBasicFloatParameter(&b, "b"))
	pars.Append(NewBasicFloatParameter(&c, "c"))
	pars.Append(NewBasicFloatParameter(&d, "d \"!"))
	err := json.Unmarshal([]byte(json1), &pars)
	if err != nil {
		tst.Error("Error: ", err)
	}
	j, err := json.Marshal(pars)
	if err != nil {
		tst.Error("Error: ", err)
	}
	if string(j) != json1 {
		tst.Errorf("Incorrect encoded json value. Expected:\n'%v'\n got\n'%v'", json1, string(j))
	}
	if a != 7.2 || b != 1.17e-22 || c != 0 || d != 0.999999 {
		tst.Error("Values not set:", a, b, c, d)
	}
}

func TestReadLine(tst *testing.T) {
	var pars FloatParameters
	a := 0.0
	b := 0.0
	pars.Append(NewBasicFloatParameter(&a, "a"))
	pars.Append(NewBasicFloatParameter(&b, "b"))

	// iteration and objective columns are skipped
	err := pars.ReadLine("10\t-123.4\t0.5\t-0.25")
	if err != nil {
		tst.Error("Error: ", err)
	}
	if a != 0.5 || b != -0.25 {
		tst.Error("Values not set:", a, b)
	}

	if err := pars.ReadLine("10\t-123.4"); err == nil {
		tst.Error("Expected error for a short line")
	}
}

func TestParameterReflect(tst *testing.T) {
	v := 0.0
	par := NewBasicFloatParameter(&v, "v")
	par.SetMin(0)
	par.SetMax(1)
	par.SetProposalFunc(func(x float64) float64 { return x + 1.5 })

	par.Propose()
	if !par.InRange() {
		tst.Error("Proposed value out of range:", par.Get())
	}
	if par.Get() != 0.5 {
		tst.Error("Expected reflected value 0.5, got", par.Get())
	}

	par.Reject()
	if par.Get() != 0 {
		tst.Error("Expected original value after rejection, got", par.Get())
	}
}

func TestParameterOnChange(tst *testing.T) {
	v := 0.0
	calls := 0
	par := NewBasicFloatParameter(&v, "v")
	par.SetOnChange(func() { calls++ })

	par.Set(1)
	if calls != 1 {
		tst.Error("Expected one onChange call, got", calls)
	}
	// setting the same value is not a change
	par.Set(1)
	if calls != 1 {
		tst.Error("Expected no onChange call for the same value, got", calls)
	}
}
