package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "run.yaml", "data_dir: instances\n")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "instances", c.DataDir)
	assert.Equal(t, DefaultPattern, c.Pattern)
	assert.Equal(t, DefaultOutput, c.Output)
	assert.Equal(t, 900*time.Second, c.TimeLimit())
	assert.Equal(t, 1, c.Shard.Parts)
	assert.Equal(t, "builtin", c.Solver.Name)
	assert.Equal(t, int32(2), c.Precision)

	p := c.Parser.ToParser()
	assert.Equal(t, 15, p.BlockSize)
	assert.Equal(t, 1, p.SkipLines)
}

func TestLoad_SolverFileAndOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "solvers/cbc.yaml", "solver:\n  name: cbc\n  cbc_path: /usr/bin/cbc\n  max_nodes: 500\n")
	path := writeFile(t, dir, "run.yaml", `
time_limit_sec: 40
unit_prod_cost: 1.5
limit_files: 2
shard:
  parts: 4
  part: 3
solver_file: solvers/cbc.yaml
solver:
  max_nodes: 100
  verbose: true
parser:
  block_size: 10
  skip_lines: 0
`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "cbc", c.Solver.Name)
	assert.Equal(t, "/usr/bin/cbc", c.Solver.CBCPath)
	assert.Equal(t, 100, c.Solver.MaxNodes)
	assert.True(t, c.Solver.Verbose)

	lim := c.Limits()
	assert.Equal(t, 40*time.Second, lim.TimeLimit)
	assert.Equal(t, 100, lim.MaxNodes)
	assert.Equal(t, 1.5, c.FormulationOptions().UnitProdCost)
	assert.Equal(t, "/usr/bin/cbc", c.SolverOptions().CBCPath)

	p := c.Parser.ToParser()
	assert.Equal(t, 10, p.BlockSize)
	assert.Equal(t, 0, p.SkipLines)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := writeFile(t, dir, "bad.yaml", "shard: [1, 2\n")
	_, err = Load(bad)
	assert.Error(t, err)

	missingSolver := writeFile(t, dir, "ms.yaml", "solver_file: nope.yaml\n")
	_, err = LoadUnchecked(missingSolver)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"negative time limit", func(c *Config) { c.TimeLimitSec = Seconds(-1) }, "time_limit_sec"},
		{"negative multiplier", func(c *Config) { c.UnitProdCost = -1 }, "unit_prod_cost"},
		{"negative limit", func(c *Config) { c.LimitFiles = -1 }, "limit_files"},
		{"part out of range", func(c *Config) { c.Shard.Parts = 2; c.Shard.Part = 2 }, "shard.part"},
		{"zero parts", func(c *Config) { c.Shard.Parts = 0 }, "shard.parts"},
		{"bad family pattern", func(c *Config) { c.FamilyPattern = "(" }, "family_pattern"},
		{"unknown solver", func(c *Config) { c.Solver.Name = "gurobi" }, "solver"},
		{"negative skip", func(c *Config) { n := -1; c.Parser.SkipLines = &n }, "skip_lines"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
	assert.NoError(t, Default().Validate())

	var nilCfg *Config
	assert.Error(t, nilCfg.Validate())
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{"PARTS": "3", "PART": "2", "DATA_DIR": "/data", "TIME_LIMIT": "12.5"}
	c := Default()
	require.NoError(t, c.ApplyEnv(func(k string) string { return env[k] }))
	assert.Equal(t, 3, c.Shard.Parts)
	assert.Equal(t, 2, c.Shard.Part)
	assert.Equal(t, "/data", c.DataDir)
	assert.Equal(t, 12500*time.Millisecond, c.TimeLimit())
	assert.NoError(t, c.Validate())

	c = Default()
	err := c.ApplyEnv(func(k string) string {
		if k == "PARTS" {
			return "many"
		}
		return ""
	})
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	base := *Default()
	one := 0
	out := Merge(base, Config{
		Output:       "out/run",
		TimeLimitSec: Seconds(5),
		Shard:        ShardConfig{Parts: 2, Part: 1},
		Solver:       SolverConfig{Name: "cbc"},
		Parser:       ParserConfig{SkipLines: &one},
	})
	assert.Equal(t, "out/run", out.Output)
	assert.Equal(t, 5*time.Second, out.TimeLimit())
	assert.Equal(t, ShardConfig{Parts: 2, Part: 1}, out.Shard)
	assert.Equal(t, "cbc", out.Solver.Name)
	assert.Equal(t, 0, *out.Parser.SkipLines)
	// Untouched fields keep the base values.
	assert.Equal(t, base.Pattern, out.Pattern)
	assert.Equal(t, base.Parser.BlockSize, out.Parser.BlockSize)
	assert.Equal(t, 1, *base.Parser.SkipLines)
}

func TestTimeLimit_ZeroMeansUnlimited(t *testing.T) {
	out := Merge(*Default(), Config{TimeLimitSec: Seconds(0)})
	out.ApplyDefaults()
	require.NoError(t, out.Validate())
	assert.Zero(t, out.TimeLimit())
	assert.Zero(t, out.Limits().TimeLimit)

	dir := t.TempDir()
	c, err := Load(writeFile(t, dir, "c.yaml", "time_limit_sec: 0\n"))
	require.NoError(t, err)
	assert.Zero(t, c.TimeLimit())

	c, err = Load(writeFile(t, dir, "d.yaml", "data_dir: x\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeLimitSec*time.Second, c.TimeLimit())

	c = Default()
	require.NoError(t, c.ApplyEnv(func(k string) string {
		if k == "TIME_LIMIT" {
			return "0"
		}
		return ""
	}))
	assert.Zero(t, c.TimeLimit())

	var unset Config
	assert.Equal(t, DefaultTimeLimitSec*time.Second, unset.TimeLimit())
}
