// Package solvertest provides deterministic optimizers for tests.
package solvertest

import (
	"context"
	"sync"

	"lotsizing/internal/formulation"
	"lotsizing/internal/solver"
)

// Static returns the same result (or error) for every call and counts calls.
type Static struct {
	Result *solver.Result
	Err    error

	mu    sync.Mutex
	calls int
}

func (s *Static) Name() string { return "static" }

func (s *Static) Solve(ctx context.Context, f *formulation.Formulation, lim solver.Limits) (*solver.Result, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Result == nil {
		return &solver.Result{}, nil
	}
	res := *s.Result
	res.Values = append([]float64(nil), s.Result.Values...)
	return &res, nil
}

func (s *Static) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Func adapts a function to solver.Optimizer.
type Func func(ctx context.Context, f *formulation.Formulation, lim solver.Limits) (*solver.Result, error)

func (fn Func) Name() string { return "func" }

func (fn Func) Solve(ctx context.Context, f *formulation.Formulation, lim solver.Limits) (*solver.Result, error) {
	return fn(ctx, f, lim)
}
