package main

import (
	"fmt"

	"github.com/llstack/rtlpipe/internal/config"
	"github.com/llstack/rtlpipe/internal/discovery"
	"github.com/llstack/rtlpipe/internal/output"
	"github.com/llstack/rtlpipe/internal/pipeline"
	"github.com/spf13/cobra"
)

func newPhasesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "phases",
		Short: "Print the phase plan without executing it",
		Args:  cobra.NoArgs,
		RunE:  runPhases,
	}
}

func runPhases(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	planned, err := pipeline.Build(cfg, pipeline.Deps{})
	if err != nil {
		return err
	}
	phases, err := selectPhases(planned, cfg)
	if err != nil {
		return err
	}
	if len(phases) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No matching phases")
		return nil
	}

	var warnings []string
	for _, tool := range discovery.MissingTools(cfg.Root, pipeline.Tools(phases)) {
		warnings = append(warnings, "tool not found: "+tool)
	}

	if cfg.Format == config.FormatJSON {
		return output.NewJSON(cmd.OutOrStdout()).RenderPlan(output.Plan{Phases: phases, Warnings: warnings})
	}
	if err := output.NewPretty(cmd.OutOrStdout()).RenderPlan(phases); err != nil {
		return err
	}
	for _, msg := range warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", msg)
	}
	return nil
}
