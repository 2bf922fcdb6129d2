package formulation

import (
	"fmt"
	"math"

	"lotsizing/internal/model"
)

// Options tune the objective.
type Options struct {
	// UnitProdCost multiplies prod_cost[j] per unit produced in the
	// objective. Zero leaves only holding and setup costs.
	UnitProdCost float64
}

// Build creates the transportation reformulation of inst. The instance is
// validated first; that is the only way Build fails.
func Build(inst *model.Instance, opts Options) (*Formulation, BigMTable, error) {
	if err := inst.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid instance: %w", err)
	}

	l := Layout{NProd: inst.NProd, NPer: inst.NPer}
	nT := inst.NPer
	bigM := ComputeBigM(inst)
	f := &Formulation{
		Name:        inst.Name,
		Layout:      l,
		Vars:        make([]Variable, l.NumVars()),
		Constraints: make([]Constraint, 0, 2*l.NumY()+nT),
		BigM:        bigM,
	}

	for j := 0; j < inst.NProd; j++ {
		for t := 0; t < nT; t++ {
			for r := t; r < nT; r++ {
				f.Vars[l.X(j, t, r)] = Variable{
					Name:  xName(j, t, r),
					Type:  Continuous,
					Upper: math.Inf(1),
					Obj:   float64(r-t)*inst.HoldCost[j] + opts.UnitProdCost*inst.ProdCost[j],
				}
			}
			f.Vars[l.Y(j, t)] = Variable{
				Name:  yName(j, t),
				Type:  Binary,
				Upper: 1,
				Obj:   inst.SetupCost[j],
			}
		}
	}

	// Every unit of demand in r is produced in some t <= r, exactly.
	for j := 0; j < inst.NProd; j++ {
		for r := 0; r < nT; r++ {
			terms := make([]Term, 0, r+1)
			for t := 0; t <= r; t++ {
				terms = append(terms, Term{Col: l.X(j, t, r), Coef: 1})
			}
			f.Constraints = append(f.Constraints, Constraint{
				Name:   fmt.Sprintf("demand_%d_%d", j, r),
				Family: FamilyDemand,
				Terms:  terms,
				Sense:  Equal,
				RHS:    inst.Demand[j][r],
			})
		}
	}

	// Production and setups share the per-period capacity.
	for t := 0; t < nT; t++ {
		var terms []Term
		for j := 0; j < inst.NProd; j++ {
			if p := inst.ProdCost[j]; p != 0 {
				for r := t; r < nT; r++ {
					terms = append(terms, Term{Col: l.X(j, t, r), Coef: p})
				}
			}
			if st := inst.SetupTime[j]; st != 0 {
				terms = append(terms, Term{Col: l.Y(j, t), Coef: st})
			}
		}
		if len(terms) == 0 {
			// 0 <= capacity always holds.
			continue
		}
		f.Constraints = append(f.Constraints, Constraint{
			Name:   fmt.Sprintf("cap_%d", t),
			Family: FamilyCapacity,
			Terms:  terms,
			Sense:  LessEqual,
			RHS:    inst.Capacity,
		})
	}

	// Any production of j in t forces the setup y[j,t].
	for j := 0; j < inst.NProd; j++ {
		for t := 0; t < nT; t++ {
			terms := make([]Term, 0, nT-t+1)
			for r := t; r < nT; r++ {
				terms = append(terms, Term{Col: l.X(j, t, r), Coef: 1})
			}
			if m := bigM[j][t]; m != 0 {
				terms = append(terms, Term{Col: l.Y(j, t), Coef: -m})
			}
			f.Constraints = append(f.Constraints, Constraint{
				Name:   fmt.Sprintf("link_%d_%d", j, t),
				Family: FamilyLinking,
				Terms:  terms,
				Sense:  LessEqual,
				RHS:    0,
			})
		}
	}

	return f, bigM, nil
}
