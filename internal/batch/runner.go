package batch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"lotsizing/internal/analysis"
	"lotsizing/internal/config"
	"lotsizing/internal/data"
	"lotsizing/internal/formulation"
	"lotsizing/internal/model"
	"lotsizing/internal/solver"
)

const (
	StageRead  = "read"
	StageParse = "parse"
	StageBuild = "build"
	StageSolve = "solve"

	// ReasonCanceled marks a solve cut short by the run being canceled.
	ReasonCanceled = "canceled"
)

// Failure is an instance that could not be taken through the pipeline.
// Solve failures still produce an ERROR record; read, parse and build
// failures do not.
type Failure struct {
	File   string `json:"file"`
	Stage  string `json:"stage"`
	Reason string `json:"reason,omitempty"`
	Error  string `json:"error"`
}

// Result collects the outcome of a run in processing order.
type Result struct {
	Records    []analysis.Record
	Failures   []Failure
	Warnings   map[string][]string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Runner takes instance files through parse → build → solve → extract, one
// at a time.
type Runner struct {
	Parser      data.Parser
	Formulation formulation.Options
	Optimizer   solver.Optimizer
	Limits      solver.Limits

	// Logf receives progress lines; nil means log.Printf.
	Logf func(format string, args ...any)
}

func NewRunner(cfg *config.Config, opt solver.Optimizer) *Runner {
	return &Runner{
		Parser:      cfg.Parser.ToParser(),
		Formulation: cfg.FormulationOptions(),
		Optimizer:   opt,
		Limits:      cfg.Limits(),
	}
}

func (r *Runner) logf(format string, args ...any) {
	if r.Logf != nil {
		r.Logf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// Run processes files in order. Per-instance failures are recorded and the
// run continues; only cancellation of ctx stops it early, in which case the
// partial result is returned together with the context error.
func (r *Runner) Run(ctx context.Context, files []string) (*Result, error) {
	if r.Optimizer == nil {
		return nil, errors.New("optimizer is nil")
	}
	res := &Result{StartedAt: time.Now(), Warnings: map[string][]string{}}
	defer func() { res.FinishedAt = time.Now() }()

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		file := filepath.Base(path)

		parsed, err := data.LoadInstance(path, r.Parser)
		if err != nil {
			f := Failure{File: file, Stage: StageRead, Error: err.Error()}
			var merr *data.MalformedInstanceError
			if errors.As(err, &merr) {
				f.Stage = StageParse
				f.Reason = string(merr.Reason)
			}
			res.Failures = append(res.Failures, f)
			r.logf("[%d/%d] %s skipped: %v", i+1, len(files), file, err)
			continue
		}
		for _, w := range parsed.Warnings {
			r.logf("Runner: %s: %s", file, w)
		}
		if len(parsed.Warnings) > 0 {
			res.Warnings[file] = parsed.Warnings
		}

		rec, fail := r.SolveInstance(ctx, file, parsed.Instance)
		if fail != nil {
			res.Failures = append(res.Failures, *fail)
		}
		if rec != nil {
			res.Records = append(res.Records, *rec)
			r.logf("[%d/%d] %s  %s  (%.2fs)", i+1, len(files), file, rec.Status, rec.TimeSec)
		} else {
			r.logf("[%d/%d] %s skipped: %s", i+1, len(files), file, fail.Error)
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}
	}
	return res, nil
}

// SolveInstance builds and solves one parsed instance. A build failure
// yields no record; a solver failure yields an ERROR record. A solve that
// fails because ctx was canceled yields no record and a failure tagged
// ReasonCanceled. Either way the failure is returned for reporting.
func (r *Runner) SolveInstance(ctx context.Context, file string, inst *model.Instance) (*analysis.Record, *Failure) {
	f, _, err := formulation.Build(inst, r.Formulation)
	if err != nil {
		return nil, &Failure{File: file, Stage: StageBuild, Error: err.Error()}
	}

	start := time.Now()
	sol, err := r.Optimizer.Solve(ctx, f, r.Limits)
	if ctxErr := ctx.Err(); err != nil && ctxErr != nil && errors.Is(err, ctxErr) {
		return nil, &Failure{File: file, Stage: StageSolve, Reason: ReasonCanceled, Error: err.Error()}
	}
	if err != nil {
		rec := analysis.Failed(file, inst, time.Since(start))
		return &rec, &Failure{File: file, Stage: StageSolve, Error: fmt.Sprintf("%s: %v", r.Optimizer.Name(), err)}
	}
	if sol.Runtime == 0 {
		sol.Runtime = time.Since(start)
	}
	rec := analysis.Extract(file, inst, sol)
	return &rec, nil
}
