// Package solver defines the optimizer capability and its adapters.
package solver

import (
	"context"
	"fmt"
	"os/exec"
	"sort"
	"time"

	"lotsizing/internal/formulation"
	"lotsizing/internal/model"
)

// Limits bound a single solve.
type Limits struct {
	// TimeLimit is the wall-clock budget; zero means unlimited.
	TimeLimit time.Duration
	Verbose   bool
	// MaxNodes caps branch-and-bound nodes where the optimizer supports it.
	MaxNodes int
}

// Result is the outcome of one solve. Objective and Values are meaningful
// only when SolCount > 0; Gap is 0 for OPTIMAL results.
type Result struct {
	Status    model.Status
	Objective float64
	Gap       float64
	Values    []float64
	SolCount  int
	Runtime   time.Duration
	Nodes     int
}

func (r *Result) HasSolution() bool {
	return r != nil && r.SolCount > 0 && r.Status.HasSolution() && len(r.Values) > 0
}

// Optimizer solves a formulation. An error return is a solver failure;
// infeasibility and running out of time are reported through Result.Status.
type Optimizer interface {
	Name() string
	Solve(ctx context.Context, f *formulation.Formulation, lim Limits) (*Result, error)
}

// Options configure the adapters built by New.
type Options struct {
	CBCPath string
}

const (
	NameBuiltin = "builtin"
	NameCBC     = "cbc"
)

// New returns the optimizer registered under name.
func New(name string, opts Options) (Optimizer, error) {
	switch name {
	case "", NameBuiltin:
		return NewBranchAndBound(), nil
	case NameCBC:
		return NewCBC(opts.CBCPath), nil
	default:
		return nil, fmt.Errorf("unknown solver %q", name)
	}
}

// Info describes an optimizer for listings.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
}

// Available lists the known optimizers. The CBC adapter is available when
// its binary can be found.
func Available(opts Options) []Info {
	cbcPath := opts.CBCPath
	if cbcPath == "" {
		cbcPath = DefaultCBCPath
	}
	_, err := exec.LookPath(cbcPath)
	out := []Info{
		{Name: NameBuiltin, Description: "branch-and-bound over dense simplex relaxations", Available: true},
		{Name: NameCBC, Description: "COIN-OR CBC via LP file", Available: err == nil},
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
