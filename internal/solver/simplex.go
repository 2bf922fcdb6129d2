package solver

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	errInfeasible = errors.New("relaxation is infeasible")
	errUnbounded  = errors.New("relaxation is unbounded")
	errStopped    = errors.New("relaxation interrupted")
	errIterations = errors.New("simplex iteration limit reached")
)

const (
	pivotTol  = 1e-9
	costTol   = 1e-9
	ratioTol  = 1e-12
	stopEvery = 32
)

// tableau is a dense simplex tableau for min c'z s.t. Az = b, z >= 0 with
// b >= 0. Rows 0..m-1 are the constraints, row m holds the reduced costs and,
// in the last column, minus the objective value. Columns n.. are artificials.
type tableau struct {
	t       *mat.Dense
	m, n    int
	rhs     int
	basis   []int
	dropped []bool // redundant rows found at the end of phase 1
}

// simplexStd solves min c'z s.t. Az = b, z >= 0. b must be non-negative.
// start[i] names a column that is a unit vector in row i (a slack with
// coefficient +1), or -1 when row i needs an artificial. stop is polled
// between pivots; when it reports true, errStopped is returned.
//
// Phase 1 drives the artificials out; phase 2 optimizes c. Entering columns
// follow the most negative reduced cost, and Bland's rule after a degenerate
// pivot, which rules out cycling.
func simplexStd(c []float64, A *mat.Dense, b []float64, start []int, stop func() bool) ([]float64, error) {
	m, n := A.Dims()
	nArt := 0
	for _, s := range start {
		if s < 0 {
			nArt++
		}
	}
	width := n + nArt + 1
	tb := &tableau{
		t:       mat.NewDense(m+1, width, nil),
		m:       m,
		n:       n,
		rhs:     width - 1,
		basis:   make([]int, m),
		dropped: make([]bool, m),
	}

	art := n
	for i := 0; i < m; i++ {
		row := tb.t.RawRowView(i)
		copy(row[:n], A.RawRowView(i))
		row[tb.rhs] = b[i]
		if start[i] >= 0 {
			tb.basis[i] = start[i]
			continue
		}
		row[art] = 1
		tb.basis[i] = art
		art++
	}

	if nArt > 0 {
		obj := tb.t.RawRowView(m)
		bsum := 0.0
		for i := 0; i < m; i++ {
			if tb.basis[i] < n {
				continue
			}
			row := tb.t.RawRowView(i)
			floats.Sub(obj[:n], row[:n])
			obj[tb.rhs] -= row[tb.rhs]
			bsum += row[tb.rhs]
		}
		if err := tb.iterate(n+nArt, stop); err != nil {
			return nil, err
		}
		if -obj[tb.rhs] > feasTol*math.Max(1, bsum) {
			return nil, errInfeasible
		}
		tb.evictArtificials()
	}

	obj := tb.t.RawRowView(m)
	for j := range obj {
		obj[j] = 0
	}
	copy(obj[:n], c)
	for i := 0; i < m; i++ {
		if tb.dropped[i] {
			continue
		}
		if cb := c[tb.basis[i]]; cb != 0 {
			floats.AddScaled(obj, -cb, tb.t.RawRowView(i))
		}
	}
	if err := tb.iterate(n, stop); err != nil {
		return nil, err
	}

	z := make([]float64, n)
	for i, k := range tb.basis {
		if tb.dropped[i] || k >= n {
			continue
		}
		z[k] = math.Max(tb.t.At(i, tb.rhs), 0)
	}
	return z, nil
}

// iterate pivots until no column below cols has a negative reduced cost.
func (tb *tableau) iterate(cols int, stop func() bool) error {
	obj := tb.t.RawRowView(tb.m)
	maxIter := 50*(tb.m+cols) + 1000
	degenerate := false
	for it := 0; it < maxIter; it++ {
		if stop != nil && it%stopEvery == 0 && stop() {
			return errStopped
		}

		e := -1
		if degenerate {
			for j := 0; j < cols; j++ {
				if obj[j] < -costTol {
					e = j
					break
				}
			}
		} else {
			best := -costTol
			for j := 0; j < cols; j++ {
				if obj[j] < best {
					best, e = obj[j], j
				}
			}
		}
		if e < 0 {
			return nil
		}

		l := -1
		ratio := math.Inf(1)
		for i := 0; i < tb.m; i++ {
			if tb.dropped[i] {
				continue
			}
			a := tb.t.At(i, e)
			if a <= pivotTol {
				continue
			}
			r := tb.t.At(i, tb.rhs) / a
			switch {
			case r < ratio-ratioTol:
				ratio, l = r, i
			case r <= ratio+ratioTol && tb.basis[i] < tb.basis[l]:
				l = i
			}
		}
		if l < 0 {
			return errUnbounded
		}
		degenerate = ratio <= ratioTol
		tb.pivot(l, e)
	}
	return errIterations
}

func (tb *tableau) pivot(l, e int) {
	prow := tb.t.RawRowView(l)
	floats.Scale(1/prow[e], prow)
	prow[e] = 1
	for i := 0; i <= tb.m; i++ {
		if i == l {
			continue
		}
		row := tb.t.RawRowView(i)
		f := row[e]
		if f == 0 {
			continue
		}
		floats.AddScaled(row, -f, prow)
		row[e] = 0
		if i < tb.m && row[tb.rhs] < 0 && row[tb.rhs] > -pivotTol {
			row[tb.rhs] = 0
		}
	}
	tb.basis[l] = e
}

// evictArtificials replaces artificials that are still basic (at zero) by
// structural columns. Rows with no structural entry left are redundant.
func (tb *tableau) evictArtificials() {
	for i := 0; i < tb.m; i++ {
		if tb.basis[i] < tb.n {
			continue
		}
		row := tb.t.RawRowView(i)
		best, col := pivotTol, -1
		for j := 0; j < tb.n; j++ {
			if a := math.Abs(row[j]); a > best {
				best, col = a, j
			}
		}
		if col < 0 {
			tb.dropped[i] = true
			continue
		}
		row[tb.rhs] = 0
		tb.pivot(i, col)
	}
}
