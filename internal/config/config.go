// internal/config/config.go
//
// This package loads the suite configuration shared by gen-workflow and
// update-info. Every setting has a default that reproduces the layout of the
// instance repository (instances/, .github/workflows/, bin/), so the tools run
// without any config file at all.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultFile is the config file looked up in the working directory.
	DefaultFile = "suite.yaml"

	// LayoutSingle writes every batch job into one workflow file.
	LayoutSingle = "single"
	// LayoutPerBatch writes one workflow file per batch.
	LayoutPerBatch = "per-batch"

	defaultBatchSize = 15
	defaultTimeLimit = 8000 * time.Second
)

// Environment overrides, applied after the YAML file.
const (
	EnvLedger       = "MIPSUITE_LEDGER"
	EnvTimeLimit    = "MIPSUITE_TIME_LIMIT"
	EnvSolverBinary = "MIPSUITE_SOLVER_BINARY"
	EnvLogFile      = "MIPSUITE_LOG_FILE"
)

// PlannerConfig controls how job definitions are rendered.
type PlannerConfig struct {
	OutputDir    string   `yaml:"output_dir"`
	Layout       string   `yaml:"layout"`
	FileName     string   `yaml:"file_name"`
	WorkflowName string   `yaml:"workflow_name"`
	Triggers     []string `yaml:"triggers,omitempty"`
	RunsOn       string   `yaml:"runs_on"`
	Checkout     string   `yaml:"checkout"`
	SolverBinary string   `yaml:"solver_binary"`
	BatchSize    int      `yaml:"batch_size"`
	JobPrefix    string   `yaml:"job_prefix"`
}

// CollectorConfig controls the relaxation/bounded solves.
type CollectorConfig struct {
	TimeLimit   Duration `yaml:"time_limit"`
	SolutionDir string   `yaml:"solution_dir"`
	SolutionExt string   `yaml:"solution_ext"`
}

// Config models suite.yaml.
type Config struct {
	Version        int             `yaml:"version"`
	Ledger         string          `yaml:"ledger"`
	InstanceDir    string          `yaml:"instance_dir"`
	InstanceSuffix string          `yaml:"instance_suffix"`
	LogFile        string          `yaml:"log_file,omitempty"`
	Planner        PlannerConfig   `yaml:"planner"`
	Collector      CollectorConfig `yaml:"collector"`

	// BaseDir is the directory relative paths are resolved against. It is
	// the directory holding the config file, or the working directory.
	BaseDir string `yaml:"-"`
}

// Default returns the configuration matching the instance repository layout.
// Paths stay relative; Load resolves them.
func Default() Config {
	return Config{
		Version:        1,
		Ledger:         "instances/instances.csv",
		InstanceDir:    "./instances",
		InstanceSuffix: ".mps.gz",
		Planner: PlannerConfig{
			OutputDir:    ".github/workflows",
			Layout:       LayoutSingle,
			FileName:     "test.yml",
			WorkflowName: "COIN-OR CBC Tests",
			Triggers:     []string{"push", "pull_request"},
			RunsOn:       "ubuntu-20.04",
			Checkout:     "actions/checkout@v2",
			SolverBinary: "./bin/c-interface-solver",
			BatchSize:    defaultBatchSize,
			JobPrefix:    "instances-batch",
		},
		Collector: CollectorConfig{
			TimeLimit:   Duration(defaultTimeLimit),
			SolutionDir: ".",
			SolutionExt: "sol",
		},
	}
}

// Load builds the configuration from defaults, an optional .env file, the
// YAML file at path and environment overrides. An empty path means
// DefaultFile in the working directory; a missing file is not an error.
func Load(path string) (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: working directory: %w", err)
	}
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = filepath.Join(cwd, DefaultFile)
	}

	// .env is optional; only a malformed file is worth reporting.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	cfg := Default()
	cfg.BaseDir = cwd
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		if abs, absErr := filepath.Abs(filepath.Dir(path)); absErr == nil {
			cfg.BaseDir = abs
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// Finalize re-applies defaults, path resolution and validation. Callers use
// it after changing fields from command-line flags.
func (c *Config) Finalize() error {
	c.applyDefaults()
	c.normalize()
	if err := c.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// InstancePath returns the path the job steps reference for an instance.
// It is not resolved against BaseDir: CI runs from the repository root.
func (c *Config) InstancePath(name string) string {
	dir := strings.TrimRight(c.InstanceDir, "/")
	if dir == "" {
		return name + c.InstanceSuffix
	}
	return dir + "/" + name + c.InstanceSuffix
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := strings.TrimSpace(getenv(EnvLedger)); v != "" {
		c.Ledger = v
	}
	if v := strings.TrimSpace(getenv(EnvSolverBinary)); v != "" {
		c.Planner.SolverBinary = v
	}
	if v := strings.TrimSpace(getenv(EnvLogFile)); v != "" {
		c.LogFile = v
	}
	if v := strings.TrimSpace(getenv(EnvTimeLimit)); v != "" {
		limit, err := ParseTimeLimit(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvTimeLimit, err)
		}
		c.Collector.TimeLimit = Duration(limit)
	}
	return nil
}

// Duration decodes either a Go duration string or a plain number of seconds,
// so `time_limit: 8000` means 8000s rather than 8000ns.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	limit, err := ParseTimeLimit(node.Value)
	if err != nil {
		return err
	}
	*d = Duration(limit)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Limit returns the bounded-solve cap; zero means no cap.
func (c CollectorConfig) Limit() time.Duration {
	return time.Duration(c.TimeLimit)
}

// ParseTimeLimit accepts a Go duration ("2h", "8000s") or a bare number of
// seconds ("8000").
func ParseTimeLimit(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid time limit %q", value)
	}
	return d, nil
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.Version == 0 {
		c.Version = 1
	}
	if strings.TrimSpace(c.Ledger) == "" {
		c.Ledger = def.Ledger
	}
	if c.InstanceSuffix == "" {
		c.InstanceSuffix = def.InstanceSuffix
	}
	p := &c.Planner
	if strings.TrimSpace(p.OutputDir) == "" {
		p.OutputDir = def.Planner.OutputDir
	}
	if p.Layout == "" {
		p.Layout = def.Planner.Layout
	}
	if p.FileName == "" {
		p.FileName = def.Planner.FileName
	}
	if p.WorkflowName == "" {
		p.WorkflowName = def.Planner.WorkflowName
	}
	if len(p.Triggers) == 0 {
		p.Triggers = append([]string{}, def.Planner.Triggers...)
	}
	if p.RunsOn == "" {
		p.RunsOn = def.Planner.RunsOn
	}
	if p.SolverBinary == "" {
		p.SolverBinary = def.Planner.SolverBinary
	}
	if p.BatchSize == 0 {
		p.BatchSize = def.Planner.BatchSize
	}
	if p.JobPrefix == "" {
		p.JobPrefix = def.Planner.JobPrefix
	}
	if c.Collector.SolutionExt == "" {
		c.Collector.SolutionExt = def.Collector.SolutionExt
	}
	if strings.TrimSpace(c.Collector.SolutionDir) == "" {
		c.Collector.SolutionDir = def.Collector.SolutionDir
	}
}

func (c *Config) normalize() {
	c.Ledger = resolvePath(c.BaseDir, c.Ledger)
	c.Planner.OutputDir = resolvePath(c.BaseDir, c.Planner.OutputDir)
	c.Collector.SolutionDir = resolvePath(c.BaseDir, c.Collector.SolutionDir)
	if c.LogFile != "" {
		c.LogFile = resolvePath(c.BaseDir, c.LogFile)
	}
	c.Planner.Layout = strings.ToLower(strings.TrimSpace(c.Planner.Layout))
	c.Planner.JobPrefix = strings.TrimSpace(c.Planner.JobPrefix)
	c.Collector.SolutionExt = strings.TrimPrefix(strings.TrimSpace(c.Collector.SolutionExt), ".")
	triggers := c.Planner.Triggers[:0]
	for _, t := range c.Planner.Triggers {
		if t = strings.TrimSpace(t); t != "" {
			triggers = append(triggers, t)
		}
	}
	c.Planner.Triggers = triggers
}

func (c *Config) validate() error {
	if c.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	switch c.Planner.Layout {
	case LayoutSingle, LayoutPerBatch:
	default:
		return fmt.Errorf("planner.layout must be %q or %q", LayoutSingle, LayoutPerBatch)
	}
	if c.Planner.BatchSize < 1 {
		return fmt.Errorf("planner.batch_size must be >= 1")
	}
	if c.Planner.JobPrefix == "" {
		return fmt.Errorf("planner.job_prefix is required")
	}
	if c.Collector.TimeLimit < 0 {
		return fmt.Errorf("collector.time_limit must be >= 0")
	}
	return nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) || base == "" {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}
