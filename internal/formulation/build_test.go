package formulation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotsizing/internal/model"
)

func scenario() *model.Instance {
	in := model.NewInstance("scenario", 2, 3, 100)
	in.ProdCost = []float64{1, 2}
	in.HoldCost = []float64{1, 2}
	in.SetupTime = []float64{5, 5}
	in.SetupCost = []float64{20, 30}
	in.Demand = [][]float64{{10, 0, 10}, {0, 10, 0}}
	return in
}

// optimalPlan produces product 0 in periods 0 and 2 and product 1 in period 1.
func optimalPlan(f *Formulation) []float64 {
	v := make([]float64, len(f.Vars))
	v[f.X(0, 0, 0)] = 10
	v[f.X(0, 2, 2)] = 10
	v[f.X(1, 1, 1)] = 10
	v[f.Y(0, 0)] = 1
	v[f.Y(0, 2)] = 1
	v[f.Y(1, 1)] = 1
	return v
}

func TestLayout_Contiguous(t *testing.T) {
	l := Layout{NProd: 3, NPer: 5}
	seen := make(map[int]bool)
	for j := 0; j < l.NProd; j++ {
		for tt := 0; tt < l.NPer; tt++ {
			for r := tt; r < l.NPer; r++ {
				col := l.X(j, tt, r)
				require.False(t, seen[col], "x[%d,%d,%d] collides", j, tt, r)
				seen[col] = true
			}
		}
	}
	assert.Equal(t, 45, l.NumX())
	assert.Len(t, seen, l.NumX())
	for col := 0; col < l.NumX(); col++ {
		assert.True(t, seen[col], "column %d unused", col)
	}
	assert.Equal(t, l.NumX(), l.Y(0, 0))
	assert.Equal(t, l.NumVars()-1, l.Y(2, 4))
}

func TestBuild_Scenario(t *testing.T) {
	f, bigM, err := Build(scenario(), Options{})
	require.NoError(t, err)

	assert.Equal(t, BigMTable{{20, 10, 10}, {10, 10, 0}}, bigM)

	s := f.Stats()
	assert.Equal(t, 18, s.Vars)
	assert.Equal(t, 12, s.Continuous)
	assert.Equal(t, 6, s.Binary)
	assert.Equal(t, 15, s.Constraints)
	assert.Equal(t, map[Family]int{FamilyDemand: 6, FamilyCapacity: 3, FamilyLinking: 6}, s.ByFamily)
	assert.Equal(t, 47, s.Nonzeros)

	idx := f.ColumnIndex()
	assert.Equal(t, f.X(1, 0, 2), idx["x_1_0_2"])
	assert.Equal(t, f.Y(1, 2), idx["y_1_2"])

	// A zero BigM keeps the setup column out of its linking row.
	link := f.Constraints[len(f.Constraints)-1]
	assert.Equal(t, "link_1_2", link.Name)
	assert.Equal(t, []Term{{Col: f.X(1, 2, 2), Coef: 1}}, link.Terms)
}

func TestBuild_ObjectiveCoefficients(t *testing.T) {
	f, _, err := Build(scenario(), Options{UnitProdCost: 1})
	require.NoError(t, err)

	assert.Equal(t, 1.0, f.Vars[f.X(0, 0, 0)].Obj)
	assert.Equal(t, 3.0, f.Vars[f.X(0, 0, 2)].Obj)
	assert.Equal(t, 6.0, f.Vars[f.X(1, 0, 2)].Obj)
	assert.Equal(t, 30.0, f.Vars[f.Y(1, 0)].Obj)
	assert.Equal(t, Binary, f.Vars[f.Y(1, 0)].Type)
	assert.Equal(t, 1.0, f.Vars[f.Y(1, 0)].Upper)
}

func TestBuild_ZeroCoefficientsOmitted(t *testing.T) {
	in := scenario()
	in.ProdCost[1] = 0
	in.SetupTime[0] = 0
	f, bigM, err := Build(in, Options{})
	require.NoError(t, err)

	// Only demand bounds product 1 now.
	assert.Equal(t, []float64{10, 10, 0}, bigM[1])

	for _, c := range f.Constraints {
		if c.Family != FamilyCapacity {
			continue
		}
		for _, term := range c.Terms {
			assert.NotZero(t, term.Coef, c.Name)
			assert.NotEqual(t, f.Y(0, 0), term.Col)
		}
	}
}

func TestBuild_EmptyCapacityRowSkipped(t *testing.T) {
	in := model.NewInstance("free", 1, 2, 10)
	in.Demand[0] = []float64{3, 4}
	f, _, err := Build(in, Options{})
	require.NoError(t, err)
	assert.Zero(t, f.Stats().ByFamily[FamilyCapacity])
}

func TestBuild_InvalidInstance(t *testing.T) {
	in := scenario()
	in.Demand[0] = in.Demand[0][:2]
	_, _, err := Build(in, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid instance")
}

func TestCheck(t *testing.T) {
	f, _, err := Build(scenario(), Options{})
	require.NoError(t, err)

	values := optimalPlan(f)
	violations, err := f.Check(values, 1e-6)
	require.NoError(t, err)
	assert.Empty(t, violations)
	assert.InDelta(t, 70.0, f.Objective(values), 1e-9)

	values[f.Y(0, 2)] = 0.5
	violations, err = f.Check(values, 1e-6)
	require.NoError(t, err)
	require.Len(t, violations, 2)
	assert.Equal(t, ViolationIntegrality, violations[0].Kind)
	assert.Equal(t, ViolationRow, violations[1].Kind)
	assert.Equal(t, "link_0_2", violations[1].Name)
	assert.True(t, strings.HasPrefix(violations[1].String(), "link_0_2: activity 5"))

	_, err = f.Check(values[:3], 1e-6)
	assert.Error(t, err)
}
