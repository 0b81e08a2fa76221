// Package report formats benchmark results into exportable artifacts: a
// standardized JSON document with environment metadata and a markdown
// comparison table.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/pholbrook/statebench/internal/bench"
)

// Environment describes the host a benchmark ran on.
type Environment struct {
	Platform     string `json:"platform"`
	LogicalCores int    `json:"logicalCores"`
	GoVersion    string `json:"goVersion"`
}

// CaptureEnvironment reads the current host's metadata.
func CaptureEnvironment() Environment {
	return Environment{
		Platform:     runtime.GOOS + "/" + runtime.GOARCH,
		LogicalCores: runtime.NumCPU(),
		GoVersion:    runtime.Version(),
	}
}

// StandardizedReport wraps one benchmark result with environment metadata
// and placeholders for metrics measured outside this process. The
// placeholder fields are always zero in our own output; an external
// pipeline may populate them before publishing.
type StandardizedReport struct {
	RunID       string        `json:"runId"`
	GeneratedAt time.Time     `json:"generatedAt"`
	Environment Environment   `json:"environment"`
	Result      *bench.Result `json:"result"`

	BundleSizeBytes int64   `json:"bundleSizeBytes"`
	LayoutTimeMs    float64 `json:"layoutTimeMs"`
	GCPauseCount    int     `json:"gcPauseCount"`
}

// Standardize wraps res into a standardized report with a fresh run id.
func Standardize(res *bench.Result) *StandardizedReport {
	return &StandardizedReport{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Environment: CaptureEnvironment(),
		Result:      res,
	}
}

// WriteJSON writes v as indented JSON to w.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Generate writes a markdown comparison table for the given results.
func Generate(w io.Writer, results []*bench.Result) error {
	if len(results) == 0 {
		return fmt.Errorf("no results to report")
	}

	p := message.NewPrinter(language.English)
	fastest := findFastest(results)

	fmt.Fprintln(w, "## Benchmark Results")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "| Adapter | Scenario | Exec Time | Renders "+
		"| Mem Delta | FPS | Slowdown |")
	fmt.Fprintln(w, "|---------|----------|-----------|---------"+
		"|-----------|-----|----------|")

	for _, r := range results {
		slowdown := 1.0
		if fastest > 0 && r.Average.ExecutionTime > 0 {
			slowdown = r.Average.ExecutionTime / fastest
		}

		fmt.Fprintf(w, "| %s | %s | %s | %s | %s | %s | %.2fx |\n",
			r.Adapter,
			r.Scenario,
			formatMs(r.Average.ExecutionTime),
			p.Sprintf("%.1f", r.Average.RenderCount),
			formatMB(r.Average.MemoryUsage),
			p.Sprintf("%.1f", r.Average.FPS),
			slowdown,
		)
	}

	fmt.Fprintln(w)

	// Latency detail rows.
	fmt.Fprintln(w, "| Adapter | Scenario | p50 | p95 | p99 |")
	fmt.Fprintln(w, "|---------|----------|-----|-----|-----|")

	for _, r := range results {
		fmt.Fprintf(w, "| %s | %s | %s | %s | %s |\n",
			r.Adapter,
			r.Scenario,
			formatMs(r.Average.Latency.P50),
			formatMs(r.Average.Latency.P95),
			formatMs(r.Average.Latency.P99),
		)
	}

	return nil
}

func findFastest(results []*bench.Result) float64 {
	fastest := math.MaxFloat64
	for _, r := range results {
		if t := r.Average.ExecutionTime; t > 0 && t < fastest {
			fastest = t
		}
	}

	if fastest == math.MaxFloat64 {
		return 0
	}
	return fastest
}

func formatMs(ms float64) string {
	if ms < 1000 {
		return fmt.Sprintf("%.2fms", ms)
	}
	return fmt.Sprintf("%.2fs", ms/1000)
}

func formatMB(mb float64) string {
	if mb == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f MB", mb)
}
