package report

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pholbrook/statebench/internal/adapter"
	"github.com/pholbrook/statebench/internal/bench"
	"github.com/pholbrook/statebench/internal/latency"
	"github.com/pholbrook/statebench/internal/model"
	"github.com/pholbrook/statebench/internal/view"
	"github.com/pholbrook/statebench/internal/workload"
)

// RunConfig parameterizes one RunAndReport invocation. Zero-valued
// sections fall back to their package defaults.
type RunConfig struct {
	Bench    bench.Config
	Scenario workload.Options
	Dataset  model.GeneratorConfig
	Window   view.Config
	Logger   *slog.Logger
}

// RunAndReport is the automation entry point: it resolves the named
// adapter and scenario, builds a fresh store over a generated dataset,
// mounts the view window, runs the benchmark through the session, and
// wraps the result into a standardized report.
//
// Unknown names fail with an error enumerating the valid options; a
// scenario missing its required target entity fails with a descriptive
// error from the workload driver. No result is recorded on failure.
func RunAndReport(ctx context.Context, session *bench.Session, registry *adapter.Registry, adapterName, scenarioName string, cfg RunConfig) (*StandardizedReport, error) {
	reg, err := registry.Get(adapterName)
	if err != nil {
		return nil, err
	}
	scenario, err := workload.Parse(scenarioName)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	dataset := model.Generate(cfg.Dataset)
	h, err := reg.Adapter.NewStore(dataset)
	if err != nil {
		return nil, fmt.Errorf("adapter %q: %w", adapterName, err)
	}
	defer h.Close()

	tree := view.Mount(h, reg.PerKey, session.Counter, cfg.Window)
	defer tree.Unmount()

	driver := &workload.Driver{
		Reg:     reg,
		Actions: latency.Wrap(h.Actions(), session.Recorder),
		Hooks:   h.Hooks(),
		Initial: dataset,
		Counter: session.Counter,
		Logger:  logger,
	}

	meta := bench.Meta{
		Adapter:        adapterName,
		Scenario:       scenarioName,
		SyntheticDelay: workload.SyntheticDelay(scenario, cfg.Scenario),
	}
	result, err := session.RunBenchmark(ctx, cfg.Bench, meta, func(ctx context.Context, run int) error {
		return driver.Run(ctx, scenario, cfg.Scenario, run)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("report generated",
		slog.String("adapter", adapterName),
		slog.String("scenario", scenarioName),
	)
	return Standardize(result), nil
}
