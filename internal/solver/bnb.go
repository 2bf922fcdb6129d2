package solver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"lotsizing/internal/formulation"
	"lotsizing/internal/model"
)

// BranchAndBound is a depth-first branch-and-bound over the binary columns.
// Every node solves the LP relaxation with a dense tableau simplex, so it is
// meant for small and medium instances; larger ones should go to CBC.
// The time limit and ctx are polled between simplex pivots as well as between
// nodes, so Solve returns shortly after the limit even inside a long
// relaxation; the node being solved at that moment is left open.
type BranchAndBound struct {
	// IntTol is how far a binary may sit from 0 or 1 and still count as
	// integral.
	IntTol float64

	now func() time.Time
}

func NewBranchAndBound() *BranchAndBound {
	return &BranchAndBound{IntTol: 1e-6, now: time.Now}
}

func (b *BranchAndBound) Name() string { return NameBuiltin }

type bbNode struct {
	fix   []int8
	bound float64 // parent relaxation objective
}

func (b *BranchAndBound) Solve(ctx context.Context, f *formulation.Formulation, lim Limits) (*Result, error) {
	if f == nil {
		return nil, fmt.Errorf("nil formulation")
	}
	now := b.now
	if now == nil {
		now = time.Now
	}
	intTol := b.IntTol
	if intTol <= 0 {
		intTol = 1e-6
	}

	start := now()
	var deadline time.Time
	if lim.TimeLimit > 0 {
		deadline = start.Add(lim.TimeLimit)
	}

	stop := func() bool {
		return ctx.Err() != nil || (!deadline.IsZero() && now().After(deadline))
	}

	rootFix := make([]int8, len(f.Vars))
	for i := range rootFix {
		rootFix[i] = unfixed
	}
	stack := []bbNode{{fix: rootFix, bound: math.Inf(-1)}}

	var incumbent []float64
	incObj := math.Inf(1)
	res := &Result{}
	stopped := false

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if (!deadline.IsZero() && now().After(deadline)) || (lim.MaxNodes > 0 && res.Nodes >= lim.MaxNodes) {
			stopped = true
			break
		}

		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if nd.bound >= incObj-pruneTol(incObj) {
			continue
		}

		rel, err := solveRelaxation(f, nd.fix, stop)
		if errors.Is(err, errStopped) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			// The node was not evaluated; it stays open for the gap.
			stack = append(stack, nd)
			stopped = true
			break
		}
		res.Nodes++
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", res.Nodes, err)
		}
		if !rel.feasible || rel.objective >= incObj-pruneTol(incObj) {
			continue
		}

		col := mostFractional(f, rel.values, nd.fix, intTol)
		if col < 0 {
			incumbent = roundBinaries(f, rel.values)
			incObj = f.Objective(incumbent)
			res.SolCount++
			if lim.Verbose {
				log.Printf("BranchAndBound: node %d new incumbent %.6f (%d open)", res.Nodes, incObj, len(stack))
			}
			continue
		}

		down := bbNode{fix: append([]int8(nil), nd.fix...), bound: rel.objective}
		down.fix[col] = 0
		up := bbNode{fix: append([]int8(nil), nd.fix...), bound: rel.objective}
		up.fix[col] = 1
		// The branch closer to the relaxation value is explored first.
		if rel.values[col] >= 0.5 {
			stack = append(stack, down, up)
		} else {
			stack = append(stack, up, down)
		}
	}

	if stopped && incumbent != nil {
		stack = liveNodes(stack, incObj)
		stopped = len(stack) > 0
	}

	res.Runtime = now().Sub(start)
	switch {
	case incumbent == nil && stopped:
		res.Status = model.StatusNoSolution
	case incumbent == nil:
		res.Status = model.StatusInfeasible
	case stopped:
		res.Status = model.StatusFeasible
		res.Gap = openGap(incObj, stack)
	default:
		res.Status = model.StatusOptimal
	}
	if incumbent != nil {
		res.Values = incumbent
		res.Objective = incObj
	}
	if lim.Verbose {
		log.Printf("BranchAndBound: %s after %d nodes in %s", res.Status, res.Nodes, res.Runtime)
	}
	return res, nil
}

func pruneTol(obj float64) float64 {
	if math.IsInf(obj, 0) {
		return 0
	}
	return 1e-9 * math.Max(1, math.Abs(obj))
}

// liveNodes drops open nodes that cannot beat incObj.
func liveNodes(open []bbNode, incObj float64) []bbNode {
	kept := open[:0]
	for _, nd := range open {
		if nd.bound < incObj-pruneTol(incObj) {
			kept = append(kept, nd)
		}
	}
	return kept
}

// mostFractional returns the unfixed binary farthest from integrality, or -1.
func mostFractional(f *formulation.Formulation, x []float64, fix []int8, tol float64) int {
	best, bestFrac := -1, tol
	for i, v := range f.Vars {
		if v.Type != formulation.Binary || fix[i] != unfixed {
			continue
		}
		if frac := math.Abs(x[i] - math.Round(x[i])); frac > bestFrac {
			best, bestFrac = i, frac
		}
	}
	return best
}

// roundBinaries snaps binaries to 0/1 and continuous values within noise of
// their lower bound onto it.
func roundBinaries(f *formulation.Formulation, x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range f.Vars {
		switch {
		case v.Type == formulation.Binary:
			out[i] = math.Round(x[i])
		case math.Abs(x[i]-v.Lower) < 1e-9:
			out[i] = v.Lower
		default:
			out[i] = x[i]
		}
	}
	return out
}

// openGap is the relative distance between the incumbent and the weakest
// open node bound.
func openGap(incObj float64, open []bbNode) float64 {
	bound := incObj
	for _, nd := range open {
		bound = math.Min(bound, nd.bound)
	}
	if math.IsInf(bound, -1) {
		return math.Inf(1)
	}
	gap := (incObj - bound) / math.Max(math.Abs(incObj), 1e-10)
	return math.Max(gap, 0)
}
