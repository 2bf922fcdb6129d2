package solver

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotsizing/internal/formulation"
	"lotsizing/internal/model"
)

func scenarioFormulation(t *testing.T) *formulation.Formulation {
	t.Helper()
	in := model.NewInstance("scenario", 2, 3, 100)
	in.ProdCost = []float64{1, 2}
	in.HoldCost = []float64{1, 2}
	in.SetupTime = []float64{5, 5}
	in.SetupCost = []float64{20, 30}
	in.Demand = [][]float64{{10, 0, 10}, {0, 10, 0}}
	f, _, err := formulation.Build(in, formulation.Options{})
	require.NoError(t, err)
	return f
}

func TestBranchAndBound_Scenario(t *testing.T) {
	f := scenarioFormulation(t)

	res, err := NewBranchAndBound().Solve(context.Background(), f, Limits{})
	require.NoError(t, err)

	assert.Equal(t, model.StatusOptimal, res.Status)
	assert.True(t, res.HasSolution())
	assert.InDelta(t, 70.0, res.Objective, 1e-6)
	assert.Zero(t, res.Gap)
	assert.GreaterOrEqual(t, res.Nodes, 1)
	require.Len(t, res.Values, len(f.Vars))

	violations, err := f.Check(res.Values, 1e-6)
	require.NoError(t, err)
	assert.Empty(t, violations)

	// Product 1 is only demanded in period 1.
	assert.Equal(t, 1.0, res.Values[f.Y(1, 1)])
	assert.InDelta(t, 10.0, res.Values[f.X(1, 1, 1)], 1e-6)
}

func TestBranchAndBound_Infeasible(t *testing.T) {
	in := model.NewInstance("tight", 1, 1, 10)
	in.ProdCost[0] = 1
	in.SetupCost[0] = 5
	in.Demand[0][0] = 20
	f, _, err := formulation.Build(in, formulation.Options{})
	require.NoError(t, err)

	res, err := NewBranchAndBound().Solve(context.Background(), f, Limits{})
	require.NoError(t, err)
	assert.Equal(t, model.StatusInfeasible, res.Status)
	assert.False(t, res.HasSolution())
	assert.Nil(t, res.Values)
}

func TestBranchAndBound_NodeLimitWithoutIncumbent(t *testing.T) {
	f := scenarioFormulation(t)

	// The root relaxation opens product 0 in period 0 at one half, so one
	// node cannot produce an integral plan.
	res, err := NewBranchAndBound().Solve(context.Background(), f, Limits{MaxNodes: 1})
	require.NoError(t, err)
	assert.Equal(t, model.StatusNoSolution, res.Status)
	assert.Equal(t, 1, res.Nodes)
	assert.False(t, res.HasSolution())
}

func TestBranchAndBound_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewBranchAndBound().Solve(ctx, scenarioFormulation(t), Limits{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBranchAndBound_DeadlineInsideRelaxation(t *testing.T) {
	// The clock passes the limit after the loop check of the root node, so
	// only the polling inside the simplex can notice it.
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	calls := 0
	b := NewBranchAndBound()
	b.now = func() time.Time {
		calls++
		if calls <= 2 {
			return t0
		}
		return t0.Add(time.Hour)
	}

	res, err := b.Solve(context.Background(), scenarioFormulation(t), Limits{TimeLimit: time.Minute})
	require.NoError(t, err)
	assert.Equal(t, model.StatusNoSolution, res.Status)
	assert.Zero(t, res.Nodes)
	assert.Equal(t, time.Hour, res.Runtime)
}

func TestRelaxation_FixedBinaries(t *testing.T) {
	f := scenarioFormulation(t)
	fix := make([]int8, len(f.Vars))
	for i := range fix {
		fix[i] = unfixed
	}
	// Without any setup for product 1 its demand cannot be met.
	for tt := 0; tt < 3; tt++ {
		fix[f.Y(1, tt)] = 0
	}
	rel, err := solveRelaxation(f, fix, nil)
	require.NoError(t, err)
	assert.False(t, rel.feasible)

	for i := range fix {
		fix[i] = unfixed
	}
	fix[f.Y(0, 0)] = 1
	rel, err = solveRelaxation(f, fix, nil)
	require.NoError(t, err)
	require.True(t, rel.feasible)
	assert.Equal(t, 1.0, rel.values[f.Y(0, 0)])
	assert.GreaterOrEqual(t, rel.objective, 50.0-1e-6)
}

func TestOpenGap(t *testing.T) {
	open := []bbNode{{bound: 80}, {bound: 90}, {bound: 120}}
	assert.InDelta(t, 0.2, openGap(100, open), 1e-12)
	assert.Zero(t, openGap(100, nil))
	assert.True(t, math.IsInf(openGap(100, []bbNode{{bound: math.Inf(-1)}}), 1))

	live := liveNodes(open, 100)
	assert.Len(t, live, 2)
}

func TestNew(t *testing.T) {
	opt, err := New("", Options{})
	require.NoError(t, err)
	assert.Equal(t, NameBuiltin, opt.Name())

	opt, err = New(NameCBC, Options{CBCPath: "/opt/cbc/bin/cbc"})
	require.NoError(t, err)
	assert.Equal(t, "/opt/cbc/bin/cbc", opt.(*CBC).Path)

	_, err = New("gurobi", Options{})
	assert.Error(t, err)

	infos := Available(Options{CBCPath: "/nonexistent/cbc"})
	require.Len(t, infos, 2)
	assert.Equal(t, NameBuiltin, infos[0].Name)
	assert.True(t, infos[0].Available)
	assert.False(t, infos[1].Available)
}
