package solver

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotsizing/internal/model"
)

const scenarioSolution = `Optimal - objective value 70.00000000
      0 x_0_0_0                       10                       0
      5 x_0_2_2                       10                       0
     9 x_1_1_1                       10                       0
     12 y_0_0                          1                      20
     14 y_0_2                          1                      20
**   16 y_1_1                          1                      30
`

func TestCBCStatus(t *testing.T) {
	testCases := []struct {
		line string
		want model.Status
	}{
		{"Optimal - objective value 70.00000000", model.StatusOptimal},
		{"Infeasible - objective value 0.00000000", model.StatusInfeasible},
		{"Integer infeasible - objective value 0.00000000", model.StatusInfeasible},
		{"Stopped on time - objective value 75.50000000", model.StatusFeasible},
		{"Stopped on iterations - objective value 75.50000000", model.StatusFeasible},
		{"Stopped on time (no integer solution - continuous used) - objective value 12.00000000", model.StatusNoSolution},
		{"Unbounded - objective value 0", model.StatusError},
		{"", model.StatusError},
	}
	for _, tc := range testCases {
		t.Run(tc.line, func(t *testing.T) {
			assert.Equal(t, tc.want, cbcStatus(tc.line))
		})
	}
}

func TestParseCBCSolution(t *testing.T) {
	f := scenarioFormulation(t)

	res, err := parseCBCSolution(strings.NewReader(scenarioSolution), f)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOptimal, res.Status)
	assert.Equal(t, 1, res.SolCount)
	assert.Equal(t, 70.0, res.Objective)
	assert.Equal(t, 10.0, res.Values[f.X(0, 2, 2)])
	assert.Equal(t, 1.0, res.Values[f.Y(1, 1)])
	assert.Zero(t, res.Values[f.Y(0, 1)])

	violations, err := f.Check(res.Values, 1e-6)
	require.NoError(t, err)
	assert.Empty(t, violations)
}

func TestParseCBCSolution_NoSolution(t *testing.T) {
	f := scenarioFormulation(t)
	res, err := parseCBCSolution(strings.NewReader("Infeasible - objective value 0.00000000\n"), f)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInfeasible, res.Status)
	assert.False(t, res.HasSolution())
}

func TestParseCBCSolution_Errors(t *testing.T) {
	f := scenarioFormulation(t)
	for name, text := range map[string]string{
		"empty":          "",
		"unknown status": "Unbounded - objective value 0\n",
		"unknown column": "Optimal - objective value 1\n 0 z_9 1 0\n",
		"short line":     "Optimal - objective value 1\n 0 x_0_0_0\n",
		"bad value":      "Optimal - objective value 1\n 0 x_0_0_0 ten 0\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := parseCBCSolution(strings.NewReader(text), f)
			assert.Error(t, err)
		})
	}
}

func TestParseCBCLog(t *testing.T) {
	out := "Result - Stopped on time limit\n\nObjective value:                75.50000000\nLower bound:                    70.000\nGap:                            0.07\nEnumerated nodes:               123\n"
	s := parseCBCLog(out)
	assert.InDelta(t, 0.07, s.gap, 1e-12)
	assert.Equal(t, 123, s.nodes)

	s = parseCBCLog("Result - Optimal solution found\n")
	assert.True(t, math.IsNaN(s.gap))
	assert.Zero(t, s.nodes)
}

// fakeCBC writes a shell script that behaves like cbc for one solution.
func fakeCBC(t *testing.T, solution, stdout string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in needs a POSIX shell")
	}
	dir := t.TempDir()
	solFile := filepath.Join(dir, "canned.txt")
	require.NoError(t, os.WriteFile(solFile, []byte(solution), 0o644))
	script := "#!/bin/sh\n" +
		"while [ $# -gt 0 ]; do\n" +
		"  if [ \"$1\" = solu ]; then out=\"$2\"; fi\n" +
		"  shift\n" +
		"done\n" +
		"cp '" + solFile + "' \"$out\"\n" +
		"printf '" + stdout + "'\n"
	path := filepath.Join(dir, "cbc")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestCBC_Solve(t *testing.T) {
	f := scenarioFormulation(t)
	path := fakeCBC(t, "Stopped on time - objective value 80.00000000\n"+
		"      0 x_0_0_0 10 0\n      2 x_0_0_2 10 0\n      9 x_1_1_1 10 0\n     12 y_0_0 1 20\n     16 y_1_1 1 30\n",
		"Gap:                            0.125\\nEnumerated nodes:               7\\n")

	res, err := NewCBC(path).Solve(context.Background(), f, Limits{TimeLimit: 2 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, model.StatusFeasible, res.Status)
	assert.InDelta(t, 0.125, res.Gap, 1e-12)
	assert.Equal(t, 7, res.Nodes)
	assert.Equal(t, 80.0, res.Objective)
	assert.InDelta(t, 70.0, f.Objective(res.Values), 1e-9)
}

func TestCBC_MissingBinary(t *testing.T) {
	_, err := NewCBC(filepath.Join(t.TempDir(), "no-cbc")).Solve(context.Background(), scenarioFormulation(t), Limits{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cbc failed")
}
