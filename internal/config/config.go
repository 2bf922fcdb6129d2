package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"lotsizing/internal/analysis"
	"lotsizing/internal/data"
	"lotsizing/internal/formulation"
	"lotsizing/internal/solver"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML). It is treated as
// immutable once loaded; callers pass it down explicitly.
type Config struct {
	DataDir       string   `yaml:"data_dir"`
	Pattern       string   `yaml:"pattern"`
	Output        string   `yaml:"output"`
	// TimeLimitSec is a pointer so that an explicit 0 (no limit) survives
	// defaulting.
	TimeLimitSec  *float64 `yaml:"time_limit_sec"`
	UnitProdCost  float64  `yaml:"unit_prod_cost"`
	LimitFiles    int      `yaml:"limit_files"`
	FamilyPattern string   `yaml:"family_pattern"`
	Precision     int32    `yaml:"precision"`

	Shard ShardConfig `yaml:"shard"`

	// Optional: load solver settings from a separate YAML (e.g. solvers/cbc.yaml).
	// Fields set in Solver override the ones from SolverFile.
	SolverFile string       `yaml:"solver_file"`
	Solver     SolverConfig `yaml:"solver"`

	Parser ParserConfig `yaml:"parser"`
}

type ShardConfig struct {
	Parts int `yaml:"parts"`
	Part  int `yaml:"part"`
	// Parallel runs all parts in this process, each writing its own artifact.
	Parallel bool `yaml:"parallel"`
}

type SolverConfig struct {
	Name     string `yaml:"name"`
	Verbose  bool   `yaml:"verbose"`
	CBCPath  string `yaml:"cbc_path"`
	MaxNodes int    `yaml:"max_nodes"`
}

type ParserConfig struct {
	BlockSize int `yaml:"block_size"`
	// SkipLines is a pointer so that an explicit 0 survives defaulting.
	SkipLines *int `yaml:"skip_lines"`
}

const (
	DefaultPattern      = "*.txt"
	DefaultOutput       = "transportation_results"
	DefaultTimeLimitSec = 900
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.ApplyDefaults()
	return c
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if c.SolverFile != "" {
		solverPath := c.SolverFile
		if !filepath.IsAbs(solverPath) {
			// Relative to the config file first, then to the working directory.
			cand := filepath.Join(filepath.Dir(path), solverPath)
			if _, err := os.Stat(cand); err == nil {
				solverPath = cand
			}
		}
		loaded, err := loadSolverFile(solverPath)
		if err != nil {
			return nil, err
		}
		c.Solver = MergeSolver(loaded, c.Solver)
	}
	return &c, nil
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.DataDir == "" {
		c.DataDir = "."
	}
	if c.Pattern == "" {
		c.Pattern = DefaultPattern
	}
	if c.Output == "" {
		c.Output = DefaultOutput
	}
	if c.TimeLimitSec == nil {
		c.TimeLimitSec = Seconds(DefaultTimeLimitSec)
	}
	if c.FamilyPattern == "" {
		c.FamilyPattern = analysis.DefaultFamilyPattern
	}
	if c.Precision == 0 {
		c.Precision = analysis.DefaultPrecision
	}
	if c.Shard.Parts == 0 {
		c.Shard.Parts = 1
	}
	if c.Solver.Name == "" {
		c.Solver.Name = solver.NameBuiltin
	}
	if c.Parser.BlockSize == 0 {
		c.Parser.BlockSize = data.DefaultBlockSize
	}
	if c.Parser.SkipLines == nil {
		n := data.DefaultSkipLines
		c.Parser.SkipLines = &n
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.TimeLimitSec != nil && *c.TimeLimitSec < 0 {
		return fmt.Errorf("time_limit_sec must be >= 0, got %v", *c.TimeLimitSec)
	}
	if c.UnitProdCost < 0 {
		return fmt.Errorf("unit_prod_cost must be >= 0, got %v", c.UnitProdCost)
	}
	if c.LimitFiles < 0 {
		return fmt.Errorf("limit_files must be >= 0, got %d", c.LimitFiles)
	}
	if c.Precision < 0 {
		return fmt.Errorf("precision must be >= 0, got %d", c.Precision)
	}
	if c.Shard.Parts < 1 {
		return fmt.Errorf("shard.parts must be >= 1, got %d", c.Shard.Parts)
	}
	if c.Shard.Part < 0 || c.Shard.Part >= c.Shard.Parts {
		return fmt.Errorf("shard.part must be in [0, %d), got %d", c.Shard.Parts, c.Shard.Part)
	}
	if _, err := filepath.Match(c.Pattern, ""); err != nil {
		return fmt.Errorf("pattern %q invalid: %w", c.Pattern, err)
	}
	if _, err := regexp.Compile(c.FamilyPattern); err != nil {
		return fmt.Errorf("family_pattern %q invalid: %w", c.FamilyPattern, err)
	}
	if _, err := solver.New(c.Solver.Name, c.SolverOptions()); err != nil {
		return fmt.Errorf("solver config invalid: %w", err)
	}
	if c.Solver.MaxNodes < 0 {
		return fmt.Errorf("solver.max_nodes must be >= 0, got %d", c.Solver.MaxNodes)
	}
	if c.Parser.BlockSize < 1 {
		return fmt.Errorf("parser.block_size must be >= 1, got %d", c.Parser.BlockSize)
	}
	if c.Parser.SkipLines != nil && *c.Parser.SkipLines < 0 {
		return fmt.Errorf("parser.skip_lines must be >= 0, got %d", *c.Parser.SkipLines)
	}
	return nil
}

// ApplyEnv applies the PARTS, PART, DATA_DIR and TIME_LIMIT environment
// overrides. Unset variables leave the config untouched.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv("PARTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PARTS=%q: %w", v, err)
		}
		c.Shard.Parts = n
	}
	if v := getenv("PART"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PART=%q: %w", v, err)
		}
		c.Shard.Part = n
	}
	if v := getenv("DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := getenv("TIME_LIMIT"); v != "" {
		secs, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("TIME_LIMIT=%q: %w", v, err)
		}
		c.TimeLimitSec = &secs
	}
	return nil
}

// Seconds returns a pointer to secs for TimeLimitSec.
func Seconds(secs float64) *float64 { return &secs }

// TimeLimit is the per-instance solver limit; 0 means none. An unset
// TimeLimitSec reads as the default.
func (c *Config) TimeLimit() time.Duration {
	secs := float64(DefaultTimeLimitSec)
	if c.TimeLimitSec != nil {
		secs = *c.TimeLimitSec
	}
	return time.Duration(secs * float64(time.Second))
}

func (c *Config) Limits() solver.Limits {
	return solver.Limits{TimeLimit: c.TimeLimit(), Verbose: c.Solver.Verbose, MaxNodes: c.Solver.MaxNodes}
}

func (c *Config) SolverOptions() solver.Options {
	return solver.Options{CBCPath: c.Solver.CBCPath}
}

func (c *Config) FormulationOptions() formulation.Options {
	return formulation.Options{UnitProdCost: c.UnitProdCost}
}

func (c *Config) AggregateOptions() analysis.AggregateOptions {
	return analysis.AggregateOptions{Pattern: c.FamilyPattern, Precision: c.Precision}
}

func (p ParserConfig) ToParser() data.Parser {
	out := data.DefaultParser()
	if p.BlockSize > 0 {
		out.BlockSize = p.BlockSize
	}
	if p.SkipLines != nil {
		out.SkipLines = *p.SkipLines
	}
	return out
}

type solverFileWrapper struct {
	Solver SolverConfig `yaml:"solver"`
}

func loadSolverFile(path string) (SolverConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return SolverConfig{}, err
	}
	var w solverFileWrapper
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return SolverConfig{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return w.Solver, nil
}

// MergeSolver overlays non-zero fields from override onto base.
func MergeSolver(base, override SolverConfig) SolverConfig {
	out := base
	if override.Name != "" {
		out.Name = override.Name
	}
	if override.Verbose {
		out.Verbose = true
	}
	if override.CBCPath != "" {
		out.CBCPath = override.CBCPath
	}
	if override.MaxNodes != 0 {
		out.MaxNodes = override.MaxNodes
	}
	return out
}

// Merge overlays non-zero fields from override onto base. The command line
// uses it to apply flags on top of a config file.
func Merge(base, override Config) Config {
	out := base
	if override.DataDir != "" {
		out.DataDir = override.DataDir
	}
	if override.Pattern != "" {
		out.Pattern = override.Pattern
	}
	if override.Output != "" {
		out.Output = override.Output
	}
	if override.TimeLimitSec != nil {
		out.TimeLimitSec = override.TimeLimitSec
	}
	// Note: a zero multiplier is the common case, so only positive values override.
	if override.UnitProdCost > 0 {
		out.UnitProdCost = override.UnitProdCost
	}
	if override.LimitFiles != 0 {
		out.LimitFiles = override.LimitFiles
	}
	if override.FamilyPattern != "" {
		out.FamilyPattern = override.FamilyPattern
	}
	if override.Precision != 0 {
		out.Precision = override.Precision
	}
	if override.Shard.Parts != 0 {
		out.Shard.Parts = override.Shard.Parts
		out.Shard.Part = override.Shard.Part
	}
	if override.Shard.Parallel {
		out.Shard.Parallel = true
	}
	out.Solver = MergeSolver(base.Solver, override.Solver)
	if override.Parser.BlockSize != 0 {
		out.Parser.BlockSize = override.Parser.BlockSize
	}
	if override.Parser.SkipLines != nil {
		out.Parser.SkipLines = override.Parser.SkipLines
	}
	return out
}
