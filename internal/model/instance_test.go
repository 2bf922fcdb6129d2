package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenario() *Instance {
	in := NewInstance("scenario", 2, 3, 100)
	in.ProdCost = []float64{1, 2}
	in.HoldCost = []float64{1, 2}
	in.SetupTime = []float64{5, 5}
	in.SetupCost = []float64{20, 30}
	in.Demand = [][]float64{{10, 0, 10}, {0, 10, 0}}
	return in
}

func TestInstance_Validate(t *testing.T) {
	require.NoError(t, scenario().Validate())

	testCases := []struct {
		name        string
		mutate      func(in *Instance)
		expectError string
	}{
		{"zero products", func(in *Instance) { in.NProd = 0 }, "n_prod must be >= 1, got 0"},
		{"zero periods", func(in *Instance) { in.NPer = 0 }, "n_per must be >= 1, got 0"},
		{"negative capacity", func(in *Instance) { in.Capacity = -1 }, "capacity must be > 0, got -1"},
		{"infinite capacity", func(in *Instance) { in.Capacity = math.Inf(1) }, "capacity must be > 0, got +Inf"},
		{"negative hold cost", func(in *Instance) { in.HoldCost[1] = -2 }, "hold_cost[1] must be a finite value >= 0, got -2"},
		{"short setup cost", func(in *Instance) { in.SetupCost = in.SetupCost[:1] }, "setup_cost has 1 entries, want 2"},
		{"ragged demand", func(in *Instance) { in.Demand[0] = in.Demand[0][:2] }, "demand[0] has 2 periods, want 3"},
		{"negative demand", func(in *Instance) { in.Demand[1][2] = -1 }, "demand[1][2] must be a finite value >= 0, got -1"},
		{"nan demand", func(in *Instance) { in.Demand[0][0] = math.NaN() }, "demand[0][0] must be a finite value >= 0, got NaN"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			in := scenario()
			tc.mutate(in)
			err := in.Validate()
			require.Error(t, err)
			assert.Equal(t, tc.expectError, err.Error())
		})
	}
}

func TestInstance_DemandTotals(t *testing.T) {
	in := scenario()
	assert.Equal(t, 30.0, in.DemandTotal())
	assert.Equal(t, 20.0, in.RemainingDemand(0, 0))
	assert.Equal(t, 10.0, in.RemainingDemand(0, 1))
	assert.Equal(t, 0.0, in.RemainingDemand(1, 2))
}

func TestInstance_CloneIsDeep(t *testing.T) {
	in := scenario()
	cp := in.Clone()
	cp.Demand[0][0] = 99
	cp.SetupCost[1] = 1
	assert.Equal(t, 10.0, in.Demand[0][0])
	assert.Equal(t, 30.0, in.SetupCost[1])
	assert.Equal(t, in.Name, cp.Name)
}

func TestStatus(t *testing.T) {
	assert.True(t, StatusOptimal.HasSolution())
	assert.True(t, StatusFeasible.HasSolution())
	assert.False(t, StatusInfeasible.HasSolution())
	assert.False(t, StatusNoSolution.HasSolution())
	assert.False(t, StatusError.HasSolution())

	assert.Equal(t, StatusFeasible, ParseStatus("FEASIBLE"))
	assert.Equal(t, StatusError, ParseStatus("9"))
}
