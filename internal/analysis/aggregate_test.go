package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotsizing/internal/model"
)

func ptr(v float64) *float64 { return &v }

func solved(file string, secs, demand, inv, hold, setup, gap float64) Record {
	return Record{
		File: file, Status: model.StatusOptimal, TimeSec: secs, DemandTotal: demand,
		InventoryUnits: ptr(inv), HoldingCost: ptr(hold), SetupCost: ptr(setup),
		SetupCount: ptr(2), TotalCost: ptr(hold + setup), Gap: ptr(gap),
	}
}

func unsolved(file string, secs, demand float64) Record {
	return Record{File: file, Status: model.StatusInfeasible, TimeSec: secs, DemandTotal: demand}
}

func TestAggregate(t *testing.T) {
	records := []Record{
		solved("X12001.txt", 2.5, 5, 1, 0.125, 0, 0.5),
		solved("X11117A.txt", 1, 30, 10, 20, 50, 0),
		unsolved("X11129B.txt", 3, 40),
		unsolved("X13000.txt", 4, 8),
		solved("readme.txt", 9, 9, 9, 9, 9, 9),
	}

	groups, err := Aggregate(records, AggregateOptions{})
	require.NoError(t, err)
	require.Len(t, groups, 3)
	assert.Equal(t, []string{"111", "120", "130"}, []string{groups[0].Family, groups[1].Family, groups[2].Family})

	g := groups[0]
	assert.Equal(t, 2, g.Count)
	assert.Equal(t, 35.0, *g.DemandTotal)
	assert.Equal(t, 2.0, *g.TimeSec)
	// The infeasible record does not drag the cost means towards zero.
	assert.Equal(t, 70.0, *g.TotalCost)
	assert.Equal(t, 20.0, *g.HoldingCost)
	assert.Equal(t, 50.0, *g.SetupCost)
	assert.Equal(t, 10.0, *g.InventoryUnits)
	assert.Equal(t, 0.0, *g.Gap)

	// Half to even: 0.125 rounds down to 0.12.
	assert.Equal(t, 0.12, *groups[1].TotalCost)
	assert.Equal(t, 0.5, *groups[1].Gap)

	g = groups[2]
	assert.Equal(t, 1, g.Count)
	assert.Equal(t, 8.0, *g.DemandTotal)
	assert.Nil(t, g.TotalCost)
	assert.Nil(t, g.Gap)
}

func TestAggregate_Options(t *testing.T) {
	records := []Record{
		solved("fam-a_1.txt", 1, 1, 0, 1.23456, 0, 0),
		solved("fam-a_2.txt", 1, 1, 0, 1, 0, 0),
		solved("famb", 1, 1, 0, 1, 0, 0),
	}
	groups, err := Aggregate(records, AggregateOptions{Pattern: `^fam-\w`, Precision: 3})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "fam-a", groups[0].Family)
	assert.Equal(t, 1.117, *groups[0].HoldingCost)

	_, err = Aggregate(records, AggregateOptions{Pattern: "("})
	assert.Error(t, err)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 2.0, Round(2.5, 0))
	assert.Equal(t, 4.0, Round(3.5, 0))
	assert.Equal(t, 1.24, Round(1.235, 2))
	assert.Equal(t, 0.12, Round(0.125, 2))
}
