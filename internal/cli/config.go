package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pholbrook/statebench/internal/adapter"
	"github.com/pholbrook/statebench/internal/bench"
	"github.com/pholbrook/statebench/internal/model"
	"github.com/pholbrook/statebench/internal/workload"
)

// Config is the YAML-configurable shape of a benchmark run. Every field
// is optional; empty selections mean "all registered".
type Config struct {
	// Adapters and Scenarios select the matrix. Empty means all.
	Adapters  []string `yaml:"adapters"`
	Scenarios []string `yaml:"scenarios"`

	// Bench holds the runner parameters (runs, warmupRuns, interRunDelay).
	Bench bench.Config `yaml:"bench"`

	// Dataset controls the generated seed state.
	Dataset model.GeneratorConfig `yaml:"dataset"`

	// Scenario overrides per-scenario option defaults.
	Scenario workload.Options `yaml:"scenario"`

	// OutputDir is where per-cell JSON artifacts go. A dated subdirectory
	// is created per invocation.
	OutputDir string `yaml:"outputDir"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		OutputDir: "results",
	}
}

// LoadConfig reads and parses a YAML config file with strict field
// validation, so a typo fails loudly instead of silently defaulting.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return cfg, nil
}

// Resolve validates the selections against the registry and the scenario
// catalogue and expands empty selections to everything registered. All
// problems are reported, not just the first.
func (c Config) Resolve(reg *adapter.Registry) (adapters, scenarios []string, err error) {
	var problems []string

	adapters = c.Adapters
	if len(adapters) == 0 {
		adapters = reg.Names()
	} else {
		for _, name := range adapters {
			if _, getErr := reg.Get(name); getErr != nil {
				problems = append(problems, getErr.Error())
			}
		}
	}

	scenarios = c.Scenarios
	if len(scenarios) == 0 {
		scenarios = workload.Names()
	} else {
		for _, name := range scenarios {
			if _, parseErr := workload.Parse(name); parseErr != nil {
				problems = append(problems, parseErr.Error())
			}
		}
	}

	if c.Bench.InterRunDelay < 0 {
		problems = append(problems, "interRunDelay must not be negative")
	}
	if c.Scenario.Duration < 0 || c.Scenario.Interval < 0 {
		problems = append(problems, "scenario durations must not be negative")
	}

	if len(problems) > 0 {
		return nil, nil, fmt.Errorf("invalid configuration:\n  %s",
			joinLines(problems))
	}
	return adapters, scenarios, nil
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n  "
		}
		out += l
	}
	return out
}

// artifactDir returns the dated results directory for one invocation.
func artifactDir(base string, start time.Time) string {
	return filepath.Join(base, start.Format("2006-01-02T15-04-05"))
}
