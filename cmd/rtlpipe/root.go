package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "rtlpipe",
		Short:         "rtlpipe runs the RTL simulation, driver and benchmark validation pipeline",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          runPipeline,
	}

	persistent := cmd.PersistentFlags()
	persistent.String("root", "", "project root (defaults to the working directory)")
	persistent.StringArray("module", nil, "hardware module to simulate (repeatable)")
	persistent.StringArray("only-phase", nil, "include only matching phases")
	persistent.StringArray("skip-phase", nil, "exclude matching phases")
	persistent.Bool("dry-run", false, "print commands without executing them")
	persistent.BoolP("verbose", "v", false, "stream tool output in real time")
	persistent.String("format", "pretty", "output format (pretty|json)")
	persistent.Bool("skip-privileged", false, "skip phases that need sudo or module loading")
	persistent.Bool("no-history", false, "do not record the run in the history database")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newAnalyzeCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newPhasesCmd())

	return cmd
}
