package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"lotsizing/internal/analysis"
	"lotsizing/internal/config"
	"lotsizing/internal/data"
	"lotsizing/internal/formulation"
	"lotsizing/internal/model"
	"lotsizing/internal/solver"
)

// Demo:
// - Build (or load) a small lot-sizing instance
// - Formulate it as a transportation problem
// - Solve it and print the plan and KPIs to show how the pieces fit together
func main() {
	file := flag.String("file", "", "Instance file (default: built-in 2x3 example)")
	cfgPath := flag.String("config", "", "Path to YAML config (optional)")
	solverName := flag.String("solver", "", "Optimizer: builtin or cbc")
	lpOut := flag.String("lp", "", "Optional path to write the LP model (e.g. results/demo.lp)")
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			panic(err)
		}
		cfg = loaded
	}
	if *solverName != "" {
		cfg.Solver.Name = *solverName
	}

	in := exampleInstance()
	if *file != "" {
		parsed, err := data.LoadInstance(*file, cfg.Parser.ToParser())
		if err != nil {
			panic(err)
		}
		for _, w := range parsed.Warnings {
			fmt.Printf("warning: %s\n", w)
		}
		in = parsed.Instance
	}

	f, bigM, err := formulation.Build(in, cfg.FormulationOptions())
	if err != nil {
		panic(err)
	}
	if *lpOut != "" {
		fh, err := os.Create(*lpOut)
		if err != nil {
			panic(err)
		}
		if err := formulation.WriteLP(fh, f); err != nil {
			panic(err)
		}
		fh.Close()
		fmt.Printf("Wrote LP model to %s\n", *lpOut)
	}

	opt, err := solver.New(cfg.Solver.Name, cfg.SolverOptions())
	if err != nil {
		panic(err)
	}

	s := f.Stats()
	fmt.Printf("Instance %s: %d products x %d periods, capacity %g\n", in.Name, in.NProd, in.NPer, in.Capacity)
	fmt.Printf("Model: %d vars (%d binary), %d constraints\n", s.Vars, s.Binary, s.Constraints)
	fmt.Printf("Solver=%s\n\n", opt.Name())

	ctx, cancel := context.WithTimeout(context.Background(), cfg.TimeLimit()+5*time.Second)
	defer cancel()
	res, err := opt.Solve(ctx, f, cfg.Limits())
	if err != nil {
		panic(err)
	}

	if res.HasSolution() {
		fmt.Printf("%-8s %-6s %-10s %-10s %-6s\n", "product", "period", "produce", "bigM", "setup")
		for j := 0; j < in.NProd; j++ {
			for t := 0; t < in.NPer; t++ {
				produced := 0.0
				for r := t; r < in.NPer; r++ {
					produced += res.Values[f.X(j, t, r)]
				}
				setup := "-"
				if res.Values[f.Y(j, t)] > 0.5 {
					setup = "yes"
				}
				fmt.Printf("%-8d %-6d %-10.2f %-10.2f %-6s\n", j, t, produced, bigM.At(j, t), setup)
			}
		}
		fmt.Println()
	}

	rec := analysis.Extract(in.Name, in, res)
	fmt.Printf("Status=%s time=%.2fs nodes=%d\n", rec.Status, rec.TimeSec, res.Nodes)
	if rec.HasSolution() {
		fmt.Printf("Holding=%.2f Setup=%.2f (%g setups) Total=%.2f Inventory=%.2f\n",
			*rec.HoldingCost, *rec.SetupCost, *rec.SetupCount, *rec.TotalCost, *rec.InventoryUnits)
	}
}

// exampleInstance is two products over three periods with one shared
// capacity; its optimal total cost is 70.
func exampleInstance() *model.Instance {
	in := model.NewInstance("example", 2, 3, 100)
	in.ProdCost = []float64{1, 2}
	in.HoldCost = []float64{1, 2}
	in.SetupTime = []float64{5, 5}
	in.SetupCost = []float64{20, 30}
	in.Demand = [][]float64{
		{10, 0, 10},
		{0, 10, 0},
	}
	return in
}
