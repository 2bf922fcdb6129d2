package model

import (
	"errors"
	"fmt"
	"math"
)

// Instance is one single-machine, multi-item capacitated lot-sizing problem.
// Units are whatever the instance file uses; capacity and setup times share
// the same unit, production cost converts units produced into capacity.
//
// An Instance is read-only once the parser has produced it.
type Instance struct {
	Name string

	NProd int
	NPer  int

	Capacity float64

	// Per product j.
	ProdCost  []float64
	HoldCost  []float64
	SetupTime []float64
	SetupCost []float64

	// Demand[j][t] for product j in period t.
	Demand [][]float64
}

// NewInstance builds an instance with zeroed parameter slices of the right shape.
func NewInstance(name string, nProd, nPer int, capacity float64) *Instance {
	in := &Instance{
		Name:      name,
		NProd:     nProd,
		NPer:      nPer,
		Capacity:  capacity,
		ProdCost:  make([]float64, max(nProd, 0)),
		HoldCost:  make([]float64, max(nProd, 0)),
		SetupTime: make([]float64, max(nProd, 0)),
		SetupCost: make([]float64, max(nProd, 0)),
		Demand:    make([][]float64, max(nProd, 0)),
	}
	for j := range in.Demand {
		in.Demand[j] = make([]float64, max(nPer, 0))
	}
	return in
}

func (in *Instance) Validate() error {
	if in == nil {
		return errors.New("instance is nil")
	}
	if in.NProd < 1 {
		return fmt.Errorf("n_prod must be >= 1, got %d", in.NProd)
	}
	if in.NPer < 1 {
		return fmt.Errorf("n_per must be >= 1, got %d", in.NPer)
	}
	if !finite(in.Capacity) || in.Capacity <= 0 {
		return fmt.Errorf("capacity must be > 0, got %v", in.Capacity)
	}
	params := []struct {
		name string
		vals []float64
	}{
		{"prod_cost", in.ProdCost},
		{"hold_cost", in.HoldCost},
		{"setup_time", in.SetupTime},
		{"setup_cost", in.SetupCost},
	}
	for _, p := range params {
		if len(p.vals) != in.NProd {
			return fmt.Errorf("%s has %d entries, want %d", p.name, len(p.vals), in.NProd)
		}
		for j, v := range p.vals {
			if !finite(v) || v < 0 {
				return fmt.Errorf("%s[%d] must be a finite value >= 0, got %v", p.name, j, v)
			}
		}
	}
	if len(in.Demand) != in.NProd {
		return fmt.Errorf("demand has %d rows, want %d", len(in.Demand), in.NProd)
	}
	for j, row := range in.Demand {
		if len(row) != in.NPer {
			return fmt.Errorf("demand[%d] has %d periods, want %d", j, len(row), in.NPer)
		}
		for t, v := range row {
			if !finite(v) || v < 0 {
				return fmt.Errorf("demand[%d][%d] must be a finite value >= 0, got %v", j, t, v)
			}
		}
	}
	return nil
}

// DemandTotal sums demand over all products and periods.
func (in *Instance) DemandTotal() float64 {
	total := 0.0
	for _, row := range in.Demand {
		for _, v := range row {
			total += v
		}
	}
	return total
}

// RemainingDemand is the demand of product j from period t to the end of the horizon.
func (in *Instance) RemainingDemand(j, t int) float64 {
	sum := 0.0
	for r := t; r < in.NPer; r++ {
		sum += in.Demand[j][r]
	}
	return sum
}

// Clone returns a deep copy.
func (in *Instance) Clone() *Instance {
	out := *in
	out.ProdCost = append([]float64(nil), in.ProdCost...)
	out.HoldCost = append([]float64(nil), in.HoldCost...)
	out.SetupTime = append([]float64(nil), in.SetupTime...)
	out.SetupCost = append([]float64(nil), in.SetupCost...)
	out.Demand = make([][]float64, len(in.Demand))
	for j, row := range in.Demand {
		out.Demand[j] = append([]float64(nil), row...)
	}
	return &out
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
