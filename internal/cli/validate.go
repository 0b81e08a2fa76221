package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pholbrook/statebench/internal/model"
	"github.com/pholbrook/statebench/internal/validate"
)

// ValidationSummary is the JSON payload of a validate invocation.
type ValidationSummary struct {
	Passed  bool                         `json:"passed"`
	Results []validate.AdapterTestResult `json:"results"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate registered adapters against the capability contract",
		Long: `Exercise every registered adapter through the full battery of
hook reads, actions, and subscription checks over a small fixed dataset.

Run this before trusting comparative benchmark numbers: an adapter that
fails validation produces numbers that measure its bugs, not its design.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, cmd *cobra.Command) error {
	configureLogging(opts)

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	registry := BuiltinRegistry()
	dataset := model.Generate(model.GeneratorConfig{})

	results, err := validate.Run(registry, dataset, slog.Default())
	if err != nil {
		return WrapExitError(ExitCommandError, "validation harness failed", err)
	}

	failed := 0
	for _, r := range results {
		if !r.Passed {
			failed++
		}
	}

	if formatter.Format == "json" {
		summary := ValidationSummary{
			Passed:  failed == 0,
			Results: results,
		}
		var emitErr error
		if failed > 0 {
			var names []string
			for _, r := range results {
				if !r.Passed {
					names = append(names, r.AdapterName)
				}
			}
			emitErr = formatter.Partial(summary,
				fmt.Sprintf("%d of %d adapters failed validation", failed, len(results)), names)
		} else {
			emitErr = formatter.Success(summary)
		}
		if emitErr != nil {
			return emitErr
		}
	} else {
		for _, r := range results {
			if r.Passed {
				fmt.Fprintf(formatter.Writer, "✓ %s\n", r.AdapterName)
				continue
			}
			fmt.Fprintf(formatter.Writer, "✗ %s\n", r.AdapterName)
			for _, e := range r.Errors {
				fmt.Fprintf(formatter.Writer, "    %s\n", e)
			}
		}
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d adapters failed validation",
			failed, len(results)))
	}
	return nil
}
