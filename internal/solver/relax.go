package solver

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"lotsizing/internal/formulation"
)

const (
	unfixed int8 = -1

	feasTol = 1e-7
)

// relaxation is the LP relaxation of f with some binaries fixed.
type relaxation struct {
	feasible  bool
	objective float64
	values    []float64
}

// solveRelaxation converts f, with the binaries in fix set to 0 or 1, into
// the standard form min c'z s.t. Az = b, z >= 0 and solves it with the
// tableau simplex. Each free column is shifted by its lower bound, finite
// upper bounds become rows, and inequality rows get a slack or surplus.
// stop is passed on to the simplex; see simplexStd.
func solveRelaxation(f *formulation.Formulation, fix []int8, stop func() bool) (*relaxation, error) {
	nv := len(f.Vars)
	values := make([]float64, nv)
	std := make([]int, nv) // standard-form column of each variable, -1 when fixed
	var cost []float64

	for i, v := range f.Vars {
		if fix[i] != unfixed {
			values[i] = float64(fix[i])
			std[i] = -1
			continue
		}
		if math.IsInf(v.Lower, 0) {
			return nil, fmt.Errorf("variable %s has no finite lower bound", v.Name)
		}
		values[i] = v.Lower
		std[i] = len(cost)
		cost = append(cost, v.Obj)
	}

	type row struct {
		cols  []int
		coefs []float64
		slack float64 // +1 slack, -1 surplus, 0 none
		rhs   float64
	}
	var rows []row

	for _, c := range f.Constraints {
		r := row{rhs: c.RHS}
		for _, t := range c.Terms {
			if std[t.Col] < 0 || t.Coef == 0 {
				r.rhs -= t.Coef * values[t.Col]
				continue
			}
			r.rhs -= t.Coef * f.Vars[t.Col].Lower
			r.cols = append(r.cols, std[t.Col])
			r.coefs = append(r.coefs, t.Coef)
		}
		if len(r.cols) == 0 {
			if !residualHolds(c.Sense, r.rhs) {
				return &relaxation{}, nil
			}
			continue
		}
		switch c.Sense {
		case formulation.LessEqual:
			r.slack = 1
		case formulation.GreaterEqual:
			r.slack = -1
		}
		rows = append(rows, r)
	}
	for i, v := range f.Vars {
		if std[i] < 0 || math.IsInf(v.Upper, 1) {
			continue
		}
		rows = append(rows, row{cols: []int{std[i]}, coefs: []float64{1}, slack: 1, rhs: v.Upper - v.Lower})
	}

	// Columns that appear in no row sit at their lower bound.
	used := make([]bool, len(cost))
	for _, r := range rows {
		for k, col := range r.cols {
			if r.coefs[k] != 0 {
				used[col] = true
			}
		}
	}
	remap := make([]int, len(cost))
	n := 0
	for col, ok := range used {
		if !ok {
			if cost[col] < 0 {
				return nil, errUnbounded
			}
			remap[col] = -1
			continue
		}
		remap[col] = n
		n++
	}
	nStruct := n
	for _, r := range rows {
		if r.slack != 0 {
			n++
		}
	}

	m := len(rows)
	if m == 0 {
		return &relaxation{feasible: true, objective: f.Objective(values), values: values}, nil
	}

	c := make([]float64, n)
	for col, k := range remap {
		if k >= 0 {
			c[k] = cost[col]
		}
	}
	A := mat.NewDense(m, n, nil)
	b := make([]float64, m)
	basic := make([]int, m)
	slackCol := nStruct
	for i, r := range rows {
		sign := 1.0
		if r.rhs < 0 {
			sign = -1
		}
		for k, col := range r.cols {
			A.Set(i, remap[col], A.At(i, remap[col])+sign*r.coefs[k])
		}
		basic[i] = -1
		if r.slack != 0 {
			A.Set(i, slackCol, sign*r.slack)
			if sign*r.slack > 0 {
				basic[i] = slackCol
			}
			slackCol++
		}
		b[i] = sign * r.rhs
	}

	z, err := simplexStd(c, A, b, basic, stop)
	switch {
	case errors.Is(err, errInfeasible):
		return &relaxation{}, nil
	case err != nil:
		return nil, err
	}

	for i, v := range f.Vars {
		if std[i] < 0 {
			continue
		}
		if k := remap[std[i]]; k >= 0 {
			values[i] = v.Lower + z[k]
		}
	}
	return &relaxation{feasible: true, objective: f.Objective(values), values: values}, nil
}

func residualHolds(s formulation.Sense, rhs float64) bool {
	tol := feasTol * math.Max(1, math.Abs(rhs))
	switch s {
	case formulation.LessEqual:
		return rhs >= -tol
	case formulation.GreaterEqual:
		return rhs <= tol
	default:
		return math.Abs(rhs) <= tol
	}
}
