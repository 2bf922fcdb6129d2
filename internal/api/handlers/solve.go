package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"lotsizing/internal/analysis"
	"lotsizing/internal/api/models"
	"lotsizing/internal/config"
	"lotsizing/internal/data"
	"lotsizing/internal/formulation"
	"lotsizing/internal/model"
	"lotsizing/internal/solver"

	"github.com/gin-gonic/gin"
)

// SolveHandler handles solve requests
type SolveHandler struct {
	cache *data.InstanceCache
	cfg   *config.Config

	newOptimizer func(name string) (solver.Optimizer, error)
}

// NewSolveHandler creates a new solve handler
func NewSolveHandler(cache *data.InstanceCache, cfg *config.Config) *SolveHandler {
	return &SolveHandler{
		cache: cache,
		cfg:   cfg,
		newOptimizer: func(name string) (solver.Optimizer, error) {
			return solver.New(name, cfg.SolverOptions())
		},
	}
}

// WithOptimizer replaces optimizer construction, e.g. with a stub.
func (h *SolveHandler) WithOptimizer(fn func(name string) (solver.Optimizer, error)) *SolveHandler {
	h.newOptimizer = fn
	return h
}

// SolveInstance handles POST /api/v1/instances/:id/solve
func (h *SolveHandler) SolveInstance(c *gin.Context) {
	entry, ok := lookup(c, h.cache)
	if !ok {
		return
	}
	var opts models.SolveOptions
	// The body is optional.
	if err := c.ShouldBindJSON(&opts); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}
	h.solve(c, entry.ID, entry.Parsed.Instance, opts)
}

// Solve handles POST /api/v1/solve
func (h *SolveHandler) Solve(c *gin.Context) {
	var req models.SolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}
	entry, err := parseAndStore(h.cache, h.cfg, req.Name, req.Text, req.Parser)
	if err != nil {
		respondParseError(c, err)
		return
	}
	h.solve(c, entry.ID, entry.Parsed.Instance, req.Options)
}

func (h *SolveHandler) solve(c *gin.Context, id string, inst *model.Instance, opts models.SolveOptions) {
	name := opts.Solver
	if name == "" {
		name = h.cfg.Solver.Name
	}
	opt, err := h.newOptimizer(name)
	if err != nil {
		respondError(c, http.StatusBadRequest, "UNKNOWN_SOLVER", err.Error(), map[string]interface{}{"solver": name})
		return
	}

	// Requests may shorten the configured time limit, never extend it.
	limits := h.cfg.Limits()
	if opts.TimeLimitSec > 0 {
		requested := time.Duration(opts.TimeLimitSec * float64(time.Second))
		if limits.TimeLimit == 0 || requested < limits.TimeLimit {
			limits.TimeLimit = requested
		}
	}
	if opts.MaxNodes > 0 {
		limits.MaxNodes = opts.MaxNodes
	}
	fopts := h.cfg.FormulationOptions()
	if opts.UnitProdCost != nil {
		if *opts.UnitProdCost < 0 {
			respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "unit_prod_cost must be >= 0", nil)
			return
		}
		fopts.UnitProdCost = *opts.UnitProdCost
	}

	f, _, err := formulation.Build(inst, fopts)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_INSTANCE", err.Error(), nil)
		return
	}

	log.Printf("SolveHandler: solving %s with %s (limit %s)", inst.Name, opt.Name(), limits.TimeLimit)
	start := time.Now()
	res, err := opt.Solve(c.Request.Context(), f, limits)
	if err != nil {
		log.Printf("SolveHandler: %s failed: %v", inst.Name, err)
		rec := analysis.Failed(inst.Name, inst, time.Since(start))
		respondError(c, http.StatusInternalServerError, "SOLVER_ERROR", err.Error(), map[string]interface{}{
			"solver": opt.Name(),
			"record": rec,
		})
		return
	}

	resp := models.SolveResponse{
		ID:     id,
		Solver: opt.Name(),
		Record: analysis.Extract(inst.Name, inst, res),
		Nodes:  res.Nodes,
	}
	if res.HasSolution() {
		obj := res.Objective
		resp.Objective = &obj
		violations, err := f.Check(res.Values, 1e-6)
		if err != nil {
			violations = []formulation.Violation{{Kind: formulation.ViolationRow, Name: err.Error()}}
		}
		for _, v := range violations {
			resp.Violations = append(resp.Violations, v.String())
		}
		if opts.IncludeValues {
			resp.Values = make(map[string]float64)
			for i, v := range res.Values {
				if v != 0 && i < len(f.Vars) {
					resp.Values[f.Vars[i].Name] = v
				}
			}
		}
	}
	log.Printf("SolveHandler: %s %s in %.2fs", inst.Name, resp.Record.Status, resp.Record.TimeSec)
	c.JSON(http.StatusOK, resp)
}
