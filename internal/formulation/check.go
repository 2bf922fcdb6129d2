package formulation

import (
	"fmt"
	"math"
)

type ViolationKind string

const (
	ViolationRow         ViolationKind = "row"
	ViolationBound       ViolationKind = "bound"
	ViolationIntegrality ViolationKind = "integrality"
)

// Violation describes one place where a value vector breaks the model.
type Violation struct {
	Kind  ViolationKind
	Name  string
	Value float64 // row activity or variable value
	Limit float64 // the bound that was crossed
	Sense Sense
}

func (v Violation) String() string {
	switch v.Kind {
	case ViolationRow:
		return fmt.Sprintf("%s: activity %g violates %s %g", v.Name, v.Value, v.Sense, v.Limit)
	case ViolationIntegrality:
		return fmt.Sprintf("%s: value %g is not integral", v.Name, v.Value)
	default:
		return fmt.Sprintf("%s: value %g violates %s %g", v.Name, v.Value, v.Sense, v.Limit)
	}
}

// Check evaluates values against every row, bound and integrality
// requirement. Tolerances are absolute for magnitudes up to 1 and relative
// above.
func (f *Formulation) Check(values []float64, tol float64) ([]Violation, error) {
	if len(values) != len(f.Vars) {
		return nil, fmt.Errorf("value vector has %d entries, formulation has %d columns", len(values), len(f.Vars))
	}
	var out []Violation

	for i, v := range f.Vars {
		x := values[i]
		if x < v.Lower-tol*scale(v.Lower) {
			out = append(out, Violation{Kind: ViolationBound, Name: v.Name, Value: x, Limit: v.Lower, Sense: GreaterEqual})
		}
		if !isInf(v.Upper) && x > v.Upper+tol*scale(v.Upper) {
			out = append(out, Violation{Kind: ViolationBound, Name: v.Name, Value: x, Limit: v.Upper, Sense: LessEqual})
		}
		if v.Type == Binary && math.Abs(x-math.Round(x)) > tol {
			out = append(out, Violation{Kind: ViolationIntegrality, Name: v.Name, Value: x})
		}
	}

	for _, c := range f.Constraints {
		act := Activity(c, values)
		slack := tol * scale(c.RHS)
		bad := false
		switch c.Sense {
		case LessEqual:
			bad = act > c.RHS+slack
		case GreaterEqual:
			bad = act < c.RHS-slack
		case Equal:
			bad = math.Abs(act-c.RHS) > slack
		}
		if bad {
			out = append(out, Violation{Kind: ViolationRow, Name: c.Name, Value: act, Limit: c.RHS, Sense: c.Sense})
		}
	}
	return out, nil
}

func scale(x float64) float64 { return math.Max(1, math.Abs(x)) }
