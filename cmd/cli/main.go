package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"lotsizing/internal/analysis"
	"lotsizing/internal/batch"
	"lotsizing/internal/config"
	"lotsizing/internal/data"
	"lotsizing/internal/formulation"
	"lotsizing/internal/model"
	"lotsizing/internal/solver"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "solve":
		cmdSolve(os.Args[2:])
	case "inspect":
		cmdInspect(os.Args[2:])
	case "merge":
		cmdMerge(os.Args[2:])
	case "export-lp":
		cmdExportLP(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli solve --data instances/ --config examples/config.yaml --out results/transportation_results")
	fmt.Println("  cli inspect --file instances/X11117A.txt")
	fmt.Println("  cli merge --out results/transportation_results results/*_manifest.json")
	fmt.Println("  cli export-lp --file instances/X11117A.txt --out X11117A.lp")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - PARTS/PART select one shard of the sorted file list; LIMIT_FILES applies after sharding")
	fmt.Println("  - solve writes <out>_instances.csv, <out>_averages.csv, <out>_run.json and <out>_manifest.json")
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

// loadConfig reads the YAML file (if any), then the environment, then
// the command-line overrides, and validates the result.
func loadConfig(path string, override config.Config) *config.Config {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.LoadUnchecked(path)
		if err != nil {
			fail(err)
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		fail(err)
	}
	merged := config.Merge(*cfg, override)
	cfg = &merged
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		fail(err)
	}
	return cfg
}

func cmdSolve(args []string) {
	fs := flag.NewFlagSet("solve", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config (optional)")
	dataDir := fs.String("data", "", "Directory holding the instance files")
	pattern := fs.String("pattern", "", "Glob for instance files (default *.txt)")
	out := fs.String("out", "", "Output prefix (default transportation_results)")
	timeLimit := fs.Float64("time-limit", config.DefaultTimeLimitSec, "Per-instance time limit in seconds (0=none)")
	solverName := fs.String("solver", "", "Optimizer: builtin or cbc")
	cbcPath := fs.String("cbc", "", "Path to the cbc binary")
	maxNodes := fs.Int("max-nodes", 0, "Branch-and-bound node limit (0=none)")
	unitCost := fs.Float64("unit-prod-cost", 0, "Multiplier applied to unit production costs in the objective")
	limit := fs.Int("limit", 0, "Optional: solve at most N files of the shard (0=all)")
	parts := fs.Int("parts", 0, "Number of shards")
	part := fs.Int("part", 0, "Shard index in [0, parts)")
	parallel := fs.Bool("parallel", false, "Run all shards in this process and merge them")
	verbose := fs.Bool("verbose", false, "Solver progress logging")
	_ = fs.Parse(args)

	var limitSec *float64
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "time-limit" {
			limitSec = timeLimit
		}
	})

	cfg := loadConfig(*cfgPath, config.Config{
		DataDir:      *dataDir,
		Pattern:      *pattern,
		Output:       *out,
		TimeLimitSec: limitSec,
		UnitProdCost: *unitCost,
		LimitFiles:   *limit,
		Shard:        config.ShardConfig{Parts: *parts, Part: *part, Parallel: *parallel},
		Solver:       config.SolverConfig{Name: *solverName, CBCPath: *cbcPath, MaxNodes: *maxNodes, Verbose: *verbose},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var res *batch.Result
	var err error
	if cfg.Shard.Parallel && cfg.Shard.Parts > 1 {
		res, err = batch.RunSharded(ctx, cfg, batch.ConfigFactory(cfg))
		if err != nil {
			fail(err)
		}
		printSummary(res, cfg.Output)
		return
	}

	files, err := data.ListInstances(cfg.DataDir, cfg.Pattern)
	if err != nil {
		fail(err)
	}
	if len(files) == 0 {
		fail(fmt.Errorf("no files matching %q in %s", cfg.Pattern, cfg.DataDir))
	}
	opt, err := solver.New(cfg.Solver.Name, cfg.SolverOptions())
	if err != nil {
		fail(err)
	}

	output := cfg.Output
	if cfg.Shard.Parts > 1 {
		output = batch.PartOutput(cfg.Output, cfg.Shard.Parts, cfg.Shard.Part)
	}
	res, _, err = batch.RunShard(ctx, cfg, files, cfg.Shard.Part, opt, output)
	if res != nil {
		printSummary(res, output)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "interrupted; partial results were written")
			os.Exit(130)
		}
		fail(err)
	}
}

func printSummary(res *batch.Result, out string) {
	counts := analysis.StatusCounts(res.Records)
	statuses := make([]string, 0, len(counts))
	for s, n := range counts {
		statuses = append(statuses, fmt.Sprintf("%s=%d", s, n))
	}
	sort.Strings(statuses)

	fmt.Printf("Solved %d instance(s), %d failure(s) [%s]\n", len(res.Records), len(res.Failures), strings.Join(statuses, " "))
	for _, f := range res.Failures {
		fmt.Printf("  %s: %s failed: %s\n", f.File, f.Stage, f.Error)
	}
	fmt.Printf("Wrote %s and %s\n", batch.InstancesPath(out), batch.AveragesPath(out))
}

func cmdInspect(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	file := fs.String("file", "", "Instance file")
	cfgPath := fs.String("config", "", "Path to YAML config (optional)")
	blockSize := fs.Int("block-size", 0, "Products per demand block (default 15)")
	showBigM := fs.Bool("bigm", false, "Print the big-M table")
	_ = fs.Parse(args)

	if *file == "" {
		fmt.Println("--file is required")
		os.Exit(2)
	}
	cfg := loadConfig(*cfgPath, config.Config{Parser: config.ParserConfig{BlockSize: *blockSize}})

	parsed, err := data.LoadInstance(*file, cfg.Parser.ToParser())
	if err != nil {
		fail(err)
	}
	in := parsed.Instance
	f, bigM, err := formulation.Build(in, cfg.FormulationOptions())
	if err != nil {
		fail(err)
	}

	fmt.Printf("%s: %d products x %d periods, capacity %g, total demand %g\n",
		in.Name, in.NProd, in.NPer, in.Capacity, in.DemandTotal())
	for _, w := range parsed.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	fmt.Printf("%-8s %-10s %-10s %-10s %-10s\n", "product", "prod_cost", "hold_cost", "setup_t", "setup_c")
	for j := 0; j < in.NProd; j++ {
		fmt.Printf("%-8d %-10g %-10g %-10g %-10g\n", j, in.ProdCost[j], in.HoldCost[j], in.SetupTime[j], in.SetupCost[j])
	}

	s := f.Stats()
	fmt.Printf("variables: %d (%d continuous, %d binary)\n", s.Vars, s.Continuous, s.Binary)
	fmt.Printf("constraints: %d (demand %d, capacity %d, setup_link %d), nonzeros %d\n", s.Constraints,
		s.ByFamily[formulation.FamilyDemand], s.ByFamily[formulation.FamilyCapacity], s.ByFamily[formulation.FamilyLinking], s.Nonzeros)

	if *showBigM {
		for j := range bigM {
			row := make([]string, len(bigM[j]))
			for t, m := range bigM[j] {
				row[t] = fmt.Sprintf("%g", m)
			}
			fmt.Printf("M[%d]: %s\n", j, strings.Join(row, " "))
		}
	}
}

func cmdMerge(args []string) {
	fs := flag.NewFlagSet("merge", flag.ExitOnError)
	out := fs.String("out", "", "Output prefix for the merged report (default transportation_results)")
	cfgPath := fs.String("config", "", "Path to YAML config (optional)")
	_ = fs.Parse(args)

	manifests := fs.Args()
	if len(manifests) == 0 {
		fmt.Println("at least one manifest path is required")
		os.Exit(2)
	}
	cfg := loadConfig(*cfgPath, config.Config{Output: *out})

	res, err := batch.Merge(manifests, cfg.Output, cfg)
	if err != nil {
		fail(err)
	}
	printSummary(res, cfg.Output)
}

func cmdExportLP(args []string) {
	fs := flag.NewFlagSet("export-lp", flag.ExitOnError)
	file := fs.String("file", "", "Instance file")
	out := fs.String("out", "", "Output LP path (default stdout)")
	cfgPath := fs.String("config", "", "Path to YAML config (optional)")
	unitCost := fs.Float64("unit-prod-cost", 0, "Multiplier applied to unit production costs in the objective")
	_ = fs.Parse(args)

	if *file == "" {
		fmt.Println("--file is required")
		os.Exit(2)
	}
	cfg := loadConfig(*cfgPath, config.Config{UnitProdCost: *unitCost})

	parsed, err := data.LoadInstance(*file, cfg.Parser.ToParser())
	if err != nil {
		fail(err)
	}
	f, _, err := formulation.Build(parsed.Instance, cfg.FormulationOptions())
	if err != nil {
		fail(err)
	}

	var w io.Writer = os.Stdout
	if *out != "" {
		fh, err := os.Create(*out)
		if err != nil {
			fail(err)
		}
		defer fh.Close()
		w = fh
	}
	if err := formulation.WriteLP(w, f); err != nil {
		fail(err)
	}
	if *out != "" {
		fmt.Fprintf(os.Stderr, "Wrote %s (%s)\n", *out, describe(parsed.Instance))
	}
}

func describe(in *model.Instance) string {
	return fmt.Sprintf("%s, %dx%d", in.Name, in.NProd, in.NPer)
}
