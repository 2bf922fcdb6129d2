package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func TestSimplexStd_BealeCycling(t *testing.T) {
	// Columns 0..2 are slacks; the start basis is degenerate in two rows and
	// Dantzig's rule alone cycles on it.
	c := []float64{0, 0, 0, -0.75, 20, -0.5, 6}
	A := mat.NewDense(3, 7, []float64{
		1, 0, 0, 0.25, -8, -1, 9,
		0, 1, 0, 0.5, -12, -0.5, 3,
		0, 0, 1, 0, 0, 1, 0,
	})
	b := []float64{0, 0, 1}

	z, err := simplexStd(c, A, b, []int{0, 1, 2}, nil)
	require.NoError(t, err)
	assert.InDelta(t, -1.25, floats.Dot(c, z), 1e-9)
	assert.InDelta(t, 1.0, z[3], 1e-9)
	assert.InDelta(t, 1.0, z[5], 1e-9)
}

func TestSimplexStd_Infeasible(t *testing.T) {
	A := mat.NewDense(2, 2, []float64{1, 1, 1, 1})
	_, err := simplexStd([]float64{1, 1}, A, []float64{1, 2}, []int{-1, -1}, nil)
	assert.ErrorIs(t, err, errInfeasible)
}

func TestSimplexStd_Unbounded(t *testing.T) {
	// x0 - x1 = 1 with x0 rewarded.
	A := mat.NewDense(1, 2, []float64{1, -1})
	_, err := simplexStd([]float64{-1, 0}, A, []float64{1}, []int{-1}, nil)
	assert.ErrorIs(t, err, errUnbounded)
}

func TestSimplexStd_RedundantRow(t *testing.T) {
	A := mat.NewDense(2, 2, []float64{1, 1, 2, 2})
	z, err := simplexStd([]float64{1, 2}, A, []float64{2, 4}, []int{-1, -1}, nil)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2, 0}, z, 1e-9)
}

func TestSimplexStd_MoreRowsThanColumns(t *testing.T) {
	A := mat.NewDense(3, 2, []float64{1, 0, 0, 1, 1, 1})
	z, err := simplexStd([]float64{1, 1}, A, []float64{1, 2, 3}, []int{-1, -1, -1}, nil)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 2}, z, 1e-9)
}

func TestSimplexStd_Stop(t *testing.T) {
	A := mat.NewDense(1, 2, []float64{1, 1})
	calls := 0
	stop := func() bool {
		calls++
		return true
	}
	_, err := simplexStd([]float64{1, 1}, A, []float64{1}, []int{-1}, stop)
	assert.ErrorIs(t, err, errStopped)
	assert.Equal(t, 1, calls)
}
