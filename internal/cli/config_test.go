package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bench.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
adapters:
  - map-mutate
  - sqlite-indexed
scenarios:
  - bulk-update
bench:
  runs: 5
  warmupRuns: 2
dataset:
  decks: 3
  seed: 7
outputDir: out
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"map-mutate", "sqlite-indexed"}, cfg.Adapters)
	assert.Equal(t, []string{"bulk-update"}, cfg.Scenarios)
	assert.Equal(t, 5, cfg.Bench.Runs)
	assert.Equal(t, 2, cfg.Bench.WarmupRuns)
	assert.Equal(t, 3, cfg.Dataset.Decks)
	assert.Equal(t, int64(7), cfg.Dataset.Seed)
	assert.Equal(t, "out", cfg.OutputDir)
}

func TestLoadConfigRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "adaptors:\n  - map-mutate\n")

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestResolveExpandsEmptySelections(t *testing.T) {
	reg := BuiltinRegistry()

	adapters, scenarios, err := DefaultConfig().Resolve(reg)
	require.NoError(t, err)
	assert.Equal(t, reg.Names(), adapters)
	assert.Len(t, scenarios, 6)
}

func TestResolveCollectsAllProblems(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Adapters = []string{"map-mutate", "no-such-adapter"}
	cfg.Scenarios = []string{"no-such-scenario"}

	_, _, err := cfg.Resolve(BuiltinRegistry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown adapter "no-such-adapter"`)
	assert.Contains(t, err.Error(), `unknown scenario "no-such-scenario"`)
}

func TestArtifactDir(t *testing.T) {
	start := time.Date(2026, 8, 27, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, filepath.Join("results", "2026-08-27T09-30-00"),
		artifactDir("results", start))
}
