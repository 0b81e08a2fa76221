package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pholbrook/statebench/internal/report"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRunSingleCellWritesArtifact(t *testing.T) {
	outDir := t.TempDir()

	out, err := execute(t, "run",
		"--adapter", "map-mutate",
		"--scenario", "bulk-update",
		"--runs", "2",
		"--out", outDir,
		"--format", "json",
	)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	// Exactly one dated directory with one artifact inside.
	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	artifact := filepath.Join(outDir, entries[0].Name(), "map-mutate_bulk-update.json")
	data, err := os.ReadFile(artifact)
	require.NoError(t, err)

	var rep report.StandardizedReport
	require.NoError(t, json.Unmarshal(data, &rep))
	assert.Equal(t, "map-mutate", rep.Result.Adapter)
	assert.Equal(t, "bulk-update", rep.Result.Scenario)
	assert.Len(t, rep.Result.Runs, 2)
	assert.NotEmpty(t, rep.RunID)
	assert.Greater(t, rep.Environment.LogicalCores, 0)
}

func TestRunTextSummaryTable(t *testing.T) {
	out, err := execute(t, "run",
		"--adapter", "immutable-copy",
		"--scenario", "scroll",
		"--runs", "1",
		"--out", t.TempDir(),
	)
	require.NoError(t, err)
	assert.Contains(t, out, "## Benchmark Results")
	assert.Contains(t, out, "immutable-copy")
	assert.Contains(t, out, "Artifacts:")
}

func TestRunFailingCellEmitsErrorEnvelope(t *testing.T) {
	// A pinned target that no adapter can resolve fails the cell while
	// the command itself still completes.
	path := filepath.Join(t.TempDir(), "bench.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scenario:\n  targetId: no-such-comment\n"), 0o644))

	out, err := execute(t, "run",
		"--config", path,
		"--adapter", "map-mutate",
		"--scenario", "inline-editing",
		"--runs", "1",
		"--out", t.TempDir(),
		"--format", "json",
	)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "1 matrix cells failed", resp.Error.Message)
	require.Len(t, resp.Error.Details, 1)
	assert.Contains(t, resp.Error.Details[0], "map-mutate × inline-editing")
}

func TestRunUnknownAdapterIsCommandError(t *testing.T) {
	_, err := execute(t, "run",
		"--adapter", "no-such-adapter",
		"--out", t.TempDir(),
	)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `unknown adapter "no-such-adapter"`)
}

func TestRunBadConfigIsCommandError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("runz: 5\n"), 0o644))

	_, err := execute(t, "run", "--config", path, "--out", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRootRejectsInvalidFormat(t *testing.T) {
	_, err := execute(t, "--format", "xml", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}
