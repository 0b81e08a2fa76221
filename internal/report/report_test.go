package report

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pholbrook/statebench/internal/adapter"
	"github.com/pholbrook/statebench/internal/adapter/mapstore"
	"github.com/pholbrook/statebench/internal/bench"
	"github.com/pholbrook/statebench/internal/model"
	"github.com/pholbrook/statebench/internal/workload"
)

func fixtureResult() *bench.Result {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &bench.Result{
		Adapter:  "map-mutate",
		Scenario: "inline-editing",
		Runs: []bench.Metrics{
			{
				ExecutionTime: 12.5,
				RenderCount:   4,
				MemoryDelta:   0.25,
				FPS:           60,
				Latencies:     []float64{1.5, 2},
				Timestamp:     ts,
				Adapter:       "map-mutate",
				Scenario:      "inline-editing",
			},
		},
		Average: bench.Average{
			ExecutionTime: 12.5,
			RenderCount:   4,
			MemoryUsage:   0.25,
			FPS:           60,
			Latency:       bench.LatencySummary{P50: 1.5, P95: 2, P99: 2},
		},
	}
}

func TestStandardizedReportJSON(t *testing.T) {
	rep := &StandardizedReport{
		RunID:       "6ba7b810-9dad-11d1-80b4-00c04fd430c8",
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Environment: Environment{
			Platform:     "linux/amd64",
			LogicalCores: 8,
			GoVersion:    "go1.25.0",
		},
		Result: fixtureResult(),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, rep))

	g := goldie.New(t)
	g.Assert(t, "standardized_report", buf.Bytes())
}

func TestStandardizePopulatesMetadata(t *testing.T) {
	rep := Standardize(fixtureResult())

	_, err := uuid.Parse(rep.RunID)
	require.NoError(t, err, "run id is a uuid")
	assert.False(t, rep.GeneratedAt.IsZero())
	assert.NotEmpty(t, rep.Environment.Platform)
	assert.Greater(t, rep.Environment.LogicalCores, 0)

	// Externally measured metrics stay zero in our own output.
	assert.Zero(t, rep.BundleSizeBytes)
	assert.Zero(t, rep.LayoutTimeMs)
	assert.Zero(t, rep.GCPauseCount)
}

func TestGenerateMarkdownTable(t *testing.T) {
	slow := fixtureResult()
	slow.Adapter = "sqlite-indexed"
	slow.Average.ExecutionTime = 25

	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, []*bench.Result{fixtureResult(), slow}))
	out := buf.String()

	assert.Contains(t, out, "## Benchmark Results")
	assert.Contains(t, out, "| map-mutate | inline-editing | 12.50ms |")
	assert.Contains(t, out, "| sqlite-indexed | inline-editing | 25.00ms |")
	assert.Contains(t, out, "2.00x", "slowdown is relative to the fastest adapter")
	assert.Contains(t, out, "| 1.50ms | 2.00ms | 2.00ms |")
}

func TestGenerateEmpty(t *testing.T) {
	err := Generate(&bytes.Buffer{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no results")
}

func testRegistry(t *testing.T) *adapter.Registry {
	t.Helper()
	reg := adapter.NewRegistry()
	require.NoError(t, reg.Register(mapstore.New()))
	return reg
}

func quickRunConfig() RunConfig {
	return RunConfig{
		Bench:   bench.Config{Runs: 2, WarmupRuns: 1, InterRunDelay: time.Millisecond},
		Dataset: model.GeneratorConfig{Decks: 2, CardsPerDeck: 4, CommentsPerCard: 1, Users: 2, Tags: 3, TagsPerCard: 1, Seed: 5},
	}
}

func TestRunAndReport(t *testing.T) {
	session := bench.NewSession(nil)

	rep, err := RunAndReport(context.Background(), session, testRegistry(t),
		"map-mutate", string(workload.BulkUpdate), quickRunConfig())
	require.NoError(t, err)

	assert.Equal(t, "map-mutate", rep.Result.Adapter)
	assert.Equal(t, "bulk-update", rep.Result.Scenario)
	assert.Len(t, rep.Result.Runs, 2)
	for _, run := range rep.Result.Runs {
		assert.NotEmpty(t, run.Latencies, "wrapped actions record latency")
		assert.Greater(t, run.RenderCount, 0, "mounted views attribute renders")
	}
	assert.Len(t, session.Results(), 1)
}

func TestRunAndReportUnknownNames(t *testing.T) {
	session := bench.NewSession(nil)
	reg := testRegistry(t)

	_, err := RunAndReport(context.Background(), session, reg,
		"no-such-adapter", string(workload.BulkUpdate), quickRunConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "valid adapters are map-mutate")

	_, err = RunAndReport(context.Background(), session, reg,
		"map-mutate", "no-such-scenario", quickRunConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "valid scenarios are")

	assert.Empty(t, session.Results(), "failed invocations record nothing")
}

func TestRunAndReportPropagatesScenarioFailure(t *testing.T) {
	session := bench.NewSession(nil)
	cfg := quickRunConfig()
	cfg.Scenario.TargetID = "no-such-comment"
	cfg.Scenario.KeystrokeGap = time.Millisecond

	_, err := RunAndReport(context.Background(), session, testRegistry(t),
		"map-mutate", string(workload.InlineEditing), cfg)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "no-such-comment") ||
		strings.Contains(err.Error(), "inline-editing"))
	assert.Empty(t, session.Results())
}
