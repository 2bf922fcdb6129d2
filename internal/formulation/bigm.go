package formulation

import (
	"math"

	"lotsizing/internal/model"
)

// BigMTable holds BigM[j][t], the upper bound on what product j can produce
// in period t.
type BigMTable [][]float64

// ComputeBigM returns min(remaining demand of j from t on, capacity/prod_cost[j]).
// With a zero production cost only the demand term bounds production.
func ComputeBigM(inst *model.Instance) BigMTable {
	m := make(BigMTable, inst.NProd)
	for j := range m {
		m[j] = make([]float64, inst.NPer)
		for t := range m[j] {
			bound := inst.RemainingDemand(j, t)
			if p := inst.ProdCost[j]; p > 0 {
				bound = math.Min(bound, inst.Capacity/p)
			}
			m[j][t] = bound
		}
	}
	return m
}

func (m BigMTable) At(j, t int) float64 { return m[j][t] }
