// Package bench is the measurement core: it executes a workload function
// for a fixed run count with warm-up, samples execution time, render
// count, memory delta, frame rate, and per-call latencies, and produces
// statistically cleaned aggregates.
package bench

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pholbrook/statebench/internal/latency"
	"github.com/pholbrook/statebench/internal/render"
	"github.com/pholbrook/statebench/internal/stats"
)

// Config holds the runner parameters. Zero fields fall back to defaults.
type Config struct {
	// Runs is the number of counted iterations (default 10).
	Runs int `yaml:"runs"`

	// WarmupRuns is the number of discarded lead-in iterations
	// (default 1, minimum 1).
	WarmupRuns int `yaml:"warmupRuns"`

	// InterRunDelay is the settle pause between iterations
	// (default 100ms).
	InterRunDelay time.Duration `yaml:"interRunDelay"`
}

// WithDefaults fills unset fields.
func (c Config) WithDefaults() Config {
	if c.Runs <= 0 {
		c.Runs = 10
	}
	if c.WarmupRuns < 1 {
		c.WarmupRuns = 1
	}
	if c.InterRunDelay <= 0 {
		c.InterRunDelay = 100 * time.Millisecond
	}
	return c
}

// Meta identifies what a benchmark measured and what scaffolding delay
// to subtract from each run's wall time.
type Meta struct {
	Adapter        string
	Scenario       string
	SyntheticDelay time.Duration
}

// Workload is one benchmark iteration. The run index lets scenario logic
// vary deterministically per run (rotating targets).
type Workload func(ctx context.Context, run int) error

// Metrics is one counted run's raw sample. Immutable once recorded.
type Metrics struct {
	ExecutionTime float64   `json:"executionTime"` // ms, synthetic delay removed
	RenderCount   int       `json:"renderCount"`
	MemoryDelta   float64   `json:"memoryDelta"` // MB, 0 when unavailable
	FPS           float64   `json:"fps"`
	Latencies     []float64 `json:"latencies"` // ms, call order
	Timestamp     time.Time `json:"timestamp"`
	Adapter       string    `json:"adapter"`
	Scenario      string    `json:"scenario"`
}

// LatencySummary holds interpolation-free percentile aggregates.
type LatencySummary struct {
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

// Average is the aggregate block of a Result.
type Average struct {
	ExecutionTime float64        `json:"executionTime"`
	RenderCount   float64        `json:"renderCount"`
	MemoryUsage   float64        `json:"memoryUsage"`
	FPS           float64        `json:"fps"`
	Latency       LatencySummary `json:"latency"`
}

// Result aggregates one scenario × adapter pair.
type Result struct {
	Adapter  string    `json:"adapter"`
	Scenario string    `json:"scenario"`
	Runs     []Metrics `json:"runs"`
	Average  Average   `json:"average"`
}

// Session owns the process-wide results list and the run-scoped
// instrumentation for one benchmarking context. Sessions are independent:
// tests can hold several without cross-contamination. One benchmark runs
// at a time per session; adapters are not safe for two concurrent
// mutation streams.
type Session struct {
	ID       string
	Counter  *render.Counter
	Recorder *latency.Recorder

	logger *slog.Logger

	mu      sync.Mutex
	results []*Result
}

// NewSession creates a session with its own run-scoped counter and
// latency recorder. logger may be nil.
func NewSession(logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{
		ID:       uuid.NewString(),
		Counter:  render.NewCounter(),
		Recorder: latency.NewRecorder(),
		logger:   logger,
	}
}

// Results returns a snapshot of all results recorded so far.
func (s *Session) Results() []*Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Result, len(s.results))
	copy(out, s.results)
	return out
}

// ClearResults empties the results list.
func (s *Session) ClearResults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = nil
}

// RunBenchmark executes fn for warm-up plus counted runs and returns the
// aggregated result, which is also appended to the session's results
// list.
//
// If fn fails during any iteration the error propagates immediately and
// partial samples are discarded: no Result is recorded for the call.
func (s *Session) RunBenchmark(ctx context.Context, cfg Config, meta Meta, fn Workload) (*Result, error) {
	cfg = cfg.WithDefaults()
	total := cfg.WarmupRuns + cfg.Runs
	samples := make([]Metrics, 0, cfg.Runs)

	s.logger.Info("benchmark starting",
		slog.String("adapter", meta.Adapter),
		slog.String("scenario", meta.Scenario),
		slog.Int("runs", cfg.Runs),
		slog.Int("warmup_runs", cfg.WarmupRuns),
	)

	for i := 0; i < total; i++ {
		s.Counter.Reset()
		s.Recorder.Reset()

		memBefore := heapMB()
		probe := startFrameProbe()
		start := time.Now()

		if err := fn(ctx, i); err != nil {
			probe.stop()
			return nil, fmt.Errorf("benchmark run %d (%s × %s): %w",
				i, meta.Adapter, meta.Scenario, err)
		}

		elapsed := time.Since(start)
		fps := probe.stop()
		memAfter := heapMB()

		if i >= cfg.WarmupRuns {
			execMs := float64(elapsed-meta.SyntheticDelay) / float64(time.Millisecond)
			samples = append(samples, Metrics{
				ExecutionTime: stats.Sanitize(execMs),
				RenderCount:   s.Counter.Total(),
				MemoryDelta:   stats.Sanitize(memAfter - memBefore),
				FPS:           stats.Sanitize(fps),
				Latencies:     s.Recorder.Samples(),
				Timestamp:     time.Now(),
				Adapter:       meta.Adapter,
				Scenario:      meta.Scenario,
			})
		}

		s.logger.Debug("benchmark iteration finished",
			slog.Int("iteration", i),
			slog.Bool("warmup", i < cfg.WarmupRuns),
			slog.Duration("elapsed", elapsed),
		)

		// Let transient effects settle before the next iteration.
		if err := settle(ctx, cfg.InterRunDelay); err != nil {
			return nil, err
		}
	}

	result := aggregate(meta, samples)

	s.mu.Lock()
	s.results = append(s.results, result)
	s.mu.Unlock()

	s.logger.Info("benchmark finished",
		slog.String("adapter", meta.Adapter),
		slog.String("scenario", meta.Scenario),
		slog.Float64("avg_execution_ms", result.Average.ExecutionTime),
		slog.Float64("p95_latency_ms", result.Average.Latency.P95),
	)
	return result, nil
}

// aggregate applies the sample policy: central tendency per metric and
// percentiles over the concatenated latency series of all kept runs.
func aggregate(meta Meta, samples []Metrics) *Result {
	execs := make([]float64, len(samples))
	renders := make([]float64, len(samples))
	mems := make([]float64, len(samples))
	fpss := make([]float64, len(samples))
	var allLatencies []float64
	for i, m := range samples {
		execs[i] = m.ExecutionTime
		renders[i] = float64(m.RenderCount)
		mems[i] = m.MemoryDelta
		fpss[i] = m.FPS
		allLatencies = append(allLatencies, m.Latencies...)
	}

	return &Result{
		Adapter:  meta.Adapter,
		Scenario: meta.Scenario,
		Runs:     samples,
		Average: Average{
			ExecutionTime: stats.CentralTendency(execs),
			RenderCount:   stats.CentralTendency(renders),
			MemoryUsage:   stats.CentralTendency(mems),
			FPS:           stats.CentralTendency(fpss),
			Latency: LatencySummary{
				P50: stats.Percentile(allLatencies, 50),
				P95: stats.Percentile(allLatencies, 95),
				P99: stats.Percentile(allLatencies, 99),
			},
		},
	}
}

func heapMB() float64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return float64(ms.HeapAlloc) / (1024 * 1024)
}

func settle(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
