// Package analysis turns solve results into KPI records and family averages.
package analysis

import (
	"math"
	"time"

	"lotsizing/internal/formulation"
	"lotsizing/internal/model"
	"lotsizing/internal/solver"
)

// Record is the KPI row for one instance. Derived fields are nil when the
// solve produced no feasible plan; Status, TimeSec and DemandTotal are always
// set.
type Record struct {
	File    string       `json:"file"`
	Status  model.Status `json:"status"`
	TimeSec float64      `json:"time_sec"`
	Gap     *float64     `json:"gap"`

	DemandTotal float64 `json:"demand_total"`

	InventoryUnits *float64 `json:"inventory_units"`
	HoldingCost    *float64 `json:"holding_cost"`
	SetupCost      *float64 `json:"setup_cost"`
	SetupCount     *float64 `json:"setup_count"`
	TotalCost      *float64 `json:"total_cost"`
}

func (r Record) HasSolution() bool { return r.TotalCost != nil }

// Extract computes the KPI record of inst from res. Inventory and holding
// cost only count flows with r > t, i.e. units carried across at least one
// period boundary.
func Extract(file string, inst *model.Instance, res *solver.Result) Record {
	rec := Record{
		File:        file,
		Status:      model.StatusError,
		DemandTotal: inst.DemandTotal(),
	}
	if res == nil {
		return rec
	}
	rec.Status = res.Status
	rec.TimeSec = RoundTime(res.Runtime)
	if !res.HasSolution() {
		return rec
	}

	l := formulation.Layout{NProd: inst.NProd, NPer: inst.NPer}
	if len(res.Values) != l.NumVars() {
		rec.Status = model.StatusError
		return rec
	}

	var inv, hold, setups, setupCost float64
	for j := 0; j < inst.NProd; j++ {
		for t := 0; t < inst.NPer; t++ {
			for r := t + 1; r < inst.NPer; r++ {
				x := res.Values[l.X(j, t, r)]
				inv += x
				hold += float64(r-t) * inst.HoldCost[j] * x
			}
			y := res.Values[l.Y(j, t)]
			setups += y
			setupCost += inst.SetupCost[j] * y
		}
	}
	total := hold + setupCost

	rec.InventoryUnits = &inv
	rec.HoldingCost = &hold
	rec.SetupCount = &setups
	rec.SetupCost = &setupCost
	rec.TotalCost = &total

	gap := 0.0
	if res.Status != model.StatusOptimal {
		gap = res.Gap
	}
	if !math.IsNaN(gap) && !math.IsInf(gap, 0) {
		rec.Gap = &gap
	}
	return rec
}

// Failed is the record of an instance whose solve returned an error.
func Failed(file string, inst *model.Instance, elapsed time.Duration) Record {
	rec := Record{File: file, Status: model.StatusError, TimeSec: RoundTime(elapsed)}
	if inst != nil {
		rec.DemandTotal = inst.DemandTotal()
	}
	return rec
}

// StatusCounts tallies records by status.
func StatusCounts(records []Record) map[model.Status]int {
	out := make(map[model.Status]int)
	for _, r := range records {
		out[r.Status]++
	}
	return out
}
