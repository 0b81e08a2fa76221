package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pholbrook/statebench/internal/workload"
)

// Catalogue is the JSON payload of a list invocation.
type Catalogue struct {
	Adapters  []AdapterInfo `json:"adapters"`
	Scenarios []string      `json:"scenarios"`
}

// AdapterInfo describes one registered adapter.
type AdapterInfo struct {
	Name   string `json:"name"`
	PerKey bool   `json:"perKeySubscriptions"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List registered adapters and scenarios",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, cmd)
		},
	}

	return cmd
}

func runList(opts *RootOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:  opts.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: opts.Verbose,
	}

	registry := BuiltinRegistry()
	cat := Catalogue{Scenarios: workload.Names()}
	for _, reg := range registry.All() {
		cat.Adapters = append(cat.Adapters, AdapterInfo{
			Name:   reg.Adapter.Name(),
			PerKey: reg.PerKey,
		})
	}

	if formatter.Format == "json" {
		return formatter.Success(cat)
	}

	fmt.Fprintln(formatter.Writer, "Adapters:")
	for _, a := range cat.Adapters {
		if a.PerKey {
			fmt.Fprintf(formatter.Writer, "  %s (per-key subscriptions)\n", a.Name)
		} else {
			fmt.Fprintf(formatter.Writer, "  %s\n", a.Name)
		}
	}
	fmt.Fprintln(formatter.Writer)
	fmt.Fprintln(formatter.Writer, "Scenarios:")
	for _, s := range cat.Scenarios {
		fmt.Fprintf(formatter.Writer, "  %s\n", s)
	}
	return nil
}
