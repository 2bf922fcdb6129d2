// Package formulation builds the transportation reformulation of the
// capacitated lot-sizing problem in a solver-agnostic form.
//
// Production of product j in period t that serves demand of period r >= t is
// the flow x[j,t,r]; y[j,t] is the setup indicator. Columns are laid out
// flat: the x block first (product, then production period, then demand
// period), then the y block (product, then period). See Layout.
package formulation

import (
	"fmt"
	"math"
)

type VarType int8

const (
	Continuous VarType = iota
	Binary
)

func (v VarType) String() string {
	switch v {
	case Continuous:
		return "continuous"
	case Binary:
		return "binary"
	default:
		return "unknown"
	}
}

type Variable struct {
	Name  string
	Type  VarType
	Lower float64
	Upper float64 // math.Inf(1) when unbounded
	Obj   float64 // objective coefficient (minimize)
}

type Sense int8

const (
	LessEqual Sense = iota
	Equal
	GreaterEqual
)

func (s Sense) String() string {
	switch s {
	case LessEqual:
		return "<="
	case Equal:
		return "="
	case GreaterEqual:
		return ">="
	default:
		return "?"
	}
}

// Family groups constraints by the role they play in the model.
type Family string

const (
	FamilyDemand   Family = "demand"
	FamilyCapacity Family = "capacity"
	FamilyLinking  Family = "setup_link"
)

// Term is one coefficient of a row, Col indexes Formulation.Vars.
type Term struct {
	Col  int
	Coef float64
}

type Constraint struct {
	Name   string
	Family Family
	Terms  []Term
	Sense  Sense
	RHS    float64
}

// Formulation is the complete minimization model for one instance.
type Formulation struct {
	Name string
	Layout

	Vars        []Variable
	Constraints []Constraint
	BigM        BigMTable
}

// Layout maps (j,t,r) and (j,t) index tuples to column numbers.
type Layout struct {
	NProd int
	NPer  int
}

func (l Layout) perProduct() int { return l.NPer * (l.NPer + 1) / 2 }

// NumX is the number of flow variables: n_prod * n_per*(n_per+1)/2.
func (l Layout) NumX() int { return l.NProd * l.perProduct() }

func (l Layout) NumY() int { return l.NProd * l.NPer }

func (l Layout) NumVars() int { return l.NumX() + l.NumY() }

// X is the column of x[j,t,r]; it requires t <= r.
func (l Layout) X(j, t, r int) int {
	return j*l.perProduct() + t*l.NPer - t*(t-1)/2 + (r - t)
}

// Y is the column of y[j,t].
func (l Layout) Y(j, t int) int {
	return l.NumX() + j*l.NPer + t
}

func xName(j, t, r int) string { return fmt.Sprintf("x_%d_%d_%d", j, t, r) }
func yName(j, t int) string    { return fmt.Sprintf("y_%d_%d", j, t) }

// Objective evaluates the objective at values.
func (f *Formulation) Objective(values []float64) float64 {
	obj := 0.0
	for i, v := range f.Vars {
		if v.Obj != 0 && i < len(values) {
			obj += v.Obj * values[i]
		}
	}
	return obj
}

// Activity is the left-hand side of c at values.
func Activity(c Constraint, values []float64) float64 {
	sum := 0.0
	for _, t := range c.Terms {
		sum += t.Coef * values[t.Col]
	}
	return sum
}

// ColumnIndex maps variable names to columns.
func (f *Formulation) ColumnIndex() map[string]int {
	idx := make(map[string]int, len(f.Vars))
	for i, v := range f.Vars {
		idx[v.Name] = i
	}
	return idx
}

// Stats summarizes the size of a formulation.
type Stats struct {
	Vars        int            `json:"vars"`
	Continuous  int            `json:"continuous"`
	Binary      int            `json:"binary"`
	Constraints int            `json:"constraints"`
	Nonzeros    int            `json:"nonzeros"`
	ByFamily    map[Family]int `json:"by_family"`
}

func (f *Formulation) Stats() Stats {
	s := Stats{Vars: len(f.Vars), Constraints: len(f.Constraints), ByFamily: map[Family]int{}}
	for _, v := range f.Vars {
		if v.Type == Binary {
			s.Binary++
		} else {
			s.Continuous++
		}
	}
	for _, c := range f.Constraints {
		s.ByFamily[c.Family]++
		s.Nonzeros += len(c.Terms)
	}
	return s
}

func isInf(x float64) bool { return math.IsInf(x, 0) }
