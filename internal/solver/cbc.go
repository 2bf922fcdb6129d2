package solver

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"lotsizing/internal/formulation"
	"lotsizing/internal/model"
)

const DefaultCBCPath = "cbc"

// CBC runs the COIN-OR CBC binary on an LP file written from the formulation
// and reads back its solution file.
type CBC struct {
	Path string
}

func NewCBC(path string) *CBC {
	if path == "" {
		path = DefaultCBCPath
	}
	return &CBC{Path: path}
}

func (c *CBC) Name() string { return NameCBC }

func (c *CBC) Solve(ctx context.Context, f *formulation.Formulation, lim Limits) (*Result, error) {
	dir, err := os.MkdirTemp("", "lotsizing-cbc-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create work dir: %w", err)
	}
	defer os.RemoveAll(dir)

	lpPath := filepath.Join(dir, "model.lp")
	solPath := filepath.Join(dir, "solution.txt")
	if err := writeLPFile(lpPath, f); err != nil {
		return nil, err
	}

	args := []string{lpPath}
	if lim.TimeLimit > 0 {
		args = append(args, "sec", strconv.FormatFloat(lim.TimeLimit.Seconds(), 'f', -1, 64))
	}
	if lim.MaxNodes > 0 {
		args = append(args, "maxN", strconv.Itoa(lim.MaxNodes))
	}
	args = append(args, "solve", "solu", solPath)

	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Path, args...)
	if lim.Verbose {
		log.Printf("CBC: %s %s", c.Path, strings.Join(args, " "))
		cmd.Stdout = io.MultiWriter(&stdout, os.Stderr)
	} else {
		cmd.Stdout = &stdout
	}
	cmd.Stderr = cmd.Stdout

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	sol, err := os.Open(solPath)
	if err != nil {
		if runErr != nil {
			return nil, fmt.Errorf("cbc failed: %w: %s", runErr, tail(stdout.String(), 400))
		}
		return nil, fmt.Errorf("cbc wrote no solution file: %w", err)
	}
	defer sol.Close()

	res, err := parseCBCSolution(sol, f)
	if err != nil {
		return nil, err
	}
	res.Runtime = elapsed
	summary := parseCBCLog(stdout.String())
	res.Nodes = summary.nodes
	switch res.Status {
	case model.StatusOptimal:
		res.Gap = 0
	case model.StatusFeasible:
		res.Gap = summary.gap
	}
	return res, nil
}

func writeLPFile(path string, f *formulation.Formulation) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create LP file: %w", err)
	}
	if err := formulation.WriteLP(file, f); err != nil {
		file.Close()
		return fmt.Errorf("failed to write LP file: %w", err)
	}
	return file.Close()
}

// cbcStatus maps the first line of a CBC solution file to a status.
func cbcStatus(line string) model.Status {
	s := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(s, "Optimal"):
		return model.StatusOptimal
	case strings.HasPrefix(s, "Infeasible"), strings.HasPrefix(s, "Integer infeasible"):
		return model.StatusInfeasible
	case strings.HasPrefix(s, "Stopped on") && strings.Contains(s, "no integer solution"):
		return model.StatusNoSolution
	case strings.HasPrefix(s, "Stopped on"):
		return model.StatusFeasible
	default:
		return model.StatusError
	}
}

var objectivePattern = regexp.MustCompile(`objective value\s+([-+0-9.eE]+)`)

// parseCBCSolution reads a CBC "solu" file. Columns absent from the file are
// zero; lines flagged with "**" are values CBC considers infeasible and are
// read like any other.
func parseCBCSolution(r io.Reader, f *formulation.Formulation) (*Result, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("failed to read cbc solution: %w", err)
		}
		return nil, fmt.Errorf("empty cbc solution file")
	}
	header := sc.Text()
	res := &Result{Status: cbcStatus(header)}
	if res.Status == model.StatusError {
		return nil, fmt.Errorf("unrecognized cbc status %q", strings.TrimSpace(header))
	}
	if !res.Status.HasSolution() {
		return res, nil
	}

	idx := f.ColumnIndex()
	values := make([]float64, len(f.Vars))
	for sc.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(sc.Text()), "**"))
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return nil, fmt.Errorf("malformed cbc solution line %q", line)
		}
		col, ok := idx[fields[1]]
		if !ok {
			return nil, fmt.Errorf("cbc solution names unknown column %q", fields[1])
		}
		v, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("bad value for %s: %w", fields[1], err)
		}
		values[col] = v
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cbc solution: %w", err)
	}

	res.Values = values
	res.SolCount = 1
	res.Objective = f.Objective(values)
	if m := objectivePattern.FindStringSubmatch(header); m != nil {
		if obj, err := strconv.ParseFloat(m[1], 64); err == nil {
			res.Objective = obj
		}
	}
	return res, nil
}

type cbcSummary struct {
	gap   float64
	nodes int
}

var (
	gapPattern   = regexp.MustCompile(`(?m)^Gap:\s+([-+0-9.eE]+)`)
	nodesPattern = regexp.MustCompile(`(?m)^Enumerated nodes:\s+(\d+)`)
)

// parseCBCLog pulls the final gap and node count out of CBC's console
// output. A missing gap line leaves the gap undefined (NaN).
func parseCBCLog(out string) cbcSummary {
	s := cbcSummary{gap: math.NaN()}
	if m := gapPattern.FindStringSubmatch(out); m != nil {
		if g, err := strconv.ParseFloat(m[1], 64); err == nil {
			s.gap = math.Abs(g)
		}
	}
	if m := nodesPattern.FindStringSubmatch(out); m != nil {
		s.nodes, _ = strconv.Atoi(m[1])
	}
	return s
}

func tail(s string, n int) string {
	if len(s) <= n {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(s[len(s)-n:])
}
