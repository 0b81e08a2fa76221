package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pholbrook/statebench/internal/bench"
	"github.com/pholbrook/statebench/internal/report"
	"github.com/pholbrook/statebench/internal/view"
)

// RunCmdOptions holds flags for the run command.
type RunCmdOptions struct {
	*RootOptions
	ConfigPath string
	Adapters   []string
	Scenarios  []string
	OutputDir  string
	Runs       int
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunCmdOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the benchmark matrix",
		Long: `Run every selected adapter against every selected scenario.

Each (adapter, scenario) cell gets a fresh store, a mounted view window,
and a full warm-up + measured benchmark. One standardized JSON report is
written per cell into a dated results directory. A failing cell is
logged and skipped; the remaining cells still run.

Example:
  statebench run
  statebench run --adapter map-mutate --scenario bulk-update --runs 5
  statebench run --config bench.yaml --out ./results`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatrix(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")
	cmd.Flags().StringSliceVar(&opts.Adapters, "adapter", nil, "adapter to benchmark (repeatable; default all)")
	cmd.Flags().StringSliceVar(&opts.Scenarios, "scenario", nil, "scenario to run (repeatable; default all)")
	cmd.Flags().StringVar(&opts.OutputDir, "out", "", "results directory (default \"results\")")
	cmd.Flags().IntVar(&opts.Runs, "runs", 0, "measured runs per cell (default 10)")

	return cmd
}

func runMatrix(opts *RunCmdOptions, cmd *cobra.Command) error {
	configureLogging(opts.RootOptions)

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg := DefaultConfig()
	if opts.ConfigPath != "" {
		loaded, err := LoadConfig(opts.ConfigPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load config", err)
		}
		cfg = loaded
	}

	// Flags override the config file.
	if len(opts.Adapters) > 0 {
		cfg.Adapters = opts.Adapters
	}
	if len(opts.Scenarios) > 0 {
		cfg.Scenarios = opts.Scenarios
	}
	if opts.OutputDir != "" {
		cfg.OutputDir = opts.OutputDir
	}
	if opts.Runs > 0 {
		cfg.Bench.Runs = opts.Runs
	}

	registry := BuiltinRegistry()
	adapters, scenarios, err := cfg.Resolve(registry)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid selection", err)
	}

	start := time.Now()
	outDir := artifactDir(cfg.OutputDir, start)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return WrapExitError(ExitCommandError, "failed to create results directory", err)
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	session := bench.NewSession(slog.Default())
	runCfg := report.RunConfig{
		Bench:    cfg.Bench,
		Scenario: cfg.Scenario,
		Dataset:  cfg.Dataset,
		Window:   view.Config{},
		Logger:   slog.Default(),
	}

	// One failing cell never aborts the matrix; it is recorded and the
	// next cell runs. Cancellation does abort: the operator asked.
	var failures []string
	for _, adapterName := range adapters {
		for _, scenarioName := range scenarios {
			if ctx.Err() != nil {
				return WrapExitError(ExitFailure, "benchmark matrix interrupted", ctx.Err())
			}

			formatter.VerboseLog("Running %s × %s", adapterName, scenarioName)
			rep, err := report.RunAndReport(ctx, session, registry, adapterName, scenarioName, runCfg)
			if err != nil {
				slog.Error("matrix cell failed",
					slog.String("adapter", adapterName),
					slog.String("scenario", scenarioName),
					slog.String("error", err.Error()),
				)
				failures = append(failures, fmt.Sprintf("%s × %s: %v", adapterName, scenarioName, err))
				continue
			}

			path := filepath.Join(outDir, fmt.Sprintf("%s_%s.json", adapterName, scenarioName))
			if err := writeArtifact(path, rep); err != nil {
				return WrapExitError(ExitCommandError, "failed to write result artifact", err)
			}
			formatter.VerboseLog("Wrote %s", path)
		}
	}

	if err := outputMatrixSummary(formatter, session, outDir, failures); err != nil {
		return err
	}

	if len(failures) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d matrix cells failed",
			len(failures), len(adapters)*len(scenarios)))
	}
	return nil
}

func writeArtifact(path string, rep *report.StandardizedReport) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.WriteJSON(f, rep); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// MatrixSummary is the JSON payload of a finished run. Failed cells are
// reported in the response's error block, not here.
type MatrixSummary struct {
	SessionID string          `json:"sessionId"`
	OutputDir string          `json:"outputDir"`
	Results   []*bench.Result `json:"results"`
}

func outputMatrixSummary(formatter *OutputFormatter, session *bench.Session, outDir string, failures []string) error {
	if formatter.Format == "json" {
		summary := MatrixSummary{
			SessionID: session.ID,
			OutputDir: outDir,
			Results:   session.Results(),
		}
		if len(failures) > 0 {
			return formatter.Partial(summary,
				fmt.Sprintf("%d matrix cells failed", len(failures)), failures)
		}
		return formatter.Success(summary)
	}

	if results := session.Results(); len(results) > 0 {
		if err := report.Generate(formatter.Writer, results); err != nil {
			return err
		}
	}
	fmt.Fprintf(formatter.Writer, "\nArtifacts: %s\n", outDir)
	for _, f := range failures {
		fmt.Fprintf(formatter.Writer, "FAILED %s\n", f)
	}
	return nil
}

// signalContext derives a context cancelled by SIGINT/SIGTERM, using the
// command's context when set (for testing).
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			slog.Info("received signal, stopping", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
